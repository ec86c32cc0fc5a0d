package jsonschema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jsonschema "github.com/jsonkit/jsonvalidate"
)

// decodeInstance mirrors how a real caller produces the `instance` value
// handed to ValidateInstance: by decoding raw JSON text, not by
// constructing Go literals directly. This matters for numeric comparisons
// (see TestEnumStrictEquality) since Go's int(1) and float64(1) are not
// reflect.DeepEqual even though the JSON numbers 1 and 1.0 are equal.
func decodeInstance(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

// S1: {"type":"string"} against 42.
func TestScenarioS1TypeMismatch(t *testing.T) {
	schema, err := jsonschema.Compile([]byte(`{"type":"string"}`))
	require.NoError(t, err)

	result := jsonschema.ValidateInstance(schema, 42)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "", result.Errors[0].InstancePath)
	assert.Contains(t, result.Errors[0].Message, "string")
}

// S2: {"type":"array","items":{"type":"integer"}} against [1,"two",3].
func TestScenarioS2ItemTypeMismatch(t *testing.T) {
	schema, err := jsonschema.Compile([]byte(`{"type":"array","items":{"type":"integer"}}`))
	require.NoError(t, err)

	result := jsonschema.ValidateInstance(schema, []interface{}{1, "two", 3})
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "/1", result.Errors[0].InstancePath)
}

// S5: $defs.posInt with minimum 1, referenced from items, against [0].
func TestScenarioS5RefMinimum(t *testing.T) {
	doc := []byte(`{
		"$defs": {"posInt": {"type": "integer", "minimum": 1}},
		"type": "array",
		"items": {"$ref": "#/$defs/posInt"}
	}`)
	schema, err := jsonschema.Compile(doc)
	require.NoError(t, err)

	result := jsonschema.ValidateInstance(schema, []interface{}{0})
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	found := false
	for _, e := range result.Errors {
		if assert.ObjectsAreEqual(e.InstancePath, "/0") {
			found = true
			assert.Contains(t, e.Message, "minimum")
		}
	}
	assert.True(t, found)
}

// Property 4: 1, 1.0, "1", true are pairwise non-equal for enum purposes,
// except numeric 1 == 1.0.
func TestEnumStrictEquality(t *testing.T) {
	schema, err := jsonschema.Compile([]byte(`{"enum":[1]}`))
	require.NoError(t, err)

	assert.True(t, jsonschema.ValidateInstance(schema, decodeInstance(t, "1")).Valid)
	assert.True(t, jsonschema.ValidateInstance(schema, decodeInstance(t, "1.0")).Valid)
	assert.False(t, jsonschema.ValidateInstance(schema, decodeInstance(t, `"1"`)).Valid)
	assert.False(t, jsonschema.ValidateInstance(schema, decodeInstance(t, "true")).Valid)
}

// Property 5: uniqueItems uses deep structural equality, key order
// irrelevant for objects, position-wise for arrays.
func TestUniqueItemsDeepEquality(t *testing.T) {
	schema, err := jsonschema.Compile([]byte(`{"uniqueItems":true}`))
	require.NoError(t, err)

	dup := []interface{}{
		map[string]interface{}{"a": 1, "b": 2},
		map[string]interface{}{"b": 2, "a": 1},
	}
	assert.False(t, jsonschema.ValidateInstance(schema, dup).Valid)

	distinct := []interface{}{
		[]interface{}{1, 2},
		[]interface{}{2, 1},
	}
	assert.True(t, jsonschema.ValidateInstance(schema, distinct).Valid)
}

// Property 6: pattern uses unanchored find semantics.
func TestPatternUnanchored(t *testing.T) {
	schema, err := jsonschema.Compile([]byte(`{"pattern":"[A-Z]{3}"}`))
	require.NoError(t, err)

	assert.True(t, jsonschema.ValidateInstance(schema, "xxABCxx").Valid)
	assert.False(t, jsonschema.ValidateInstance(schema, "xxabcxx").Valid)
}

// Property 10: format assertion mode toggling.
func TestFormatAssertionMode(t *testing.T) {
	annotated, err := jsonschema.Compile([]byte(`{"type":"string","format":"uuid"}`))
	require.NoError(t, err)
	assert.True(t, jsonschema.ValidateInstance(annotated, "not-a-uuid").Valid)

	asserted, err := jsonschema.Compile([]byte(`{"type":"string","format":"uuid"}`), jsonschema.CompileOptions{AssertFormats: true})
	require.NoError(t, err)
	assert.False(t, jsonschema.ValidateInstance(asserted, "not-a-uuid").Valid)
	assert.True(t, jsonschema.ValidateInstance(asserted, "123e4567-e89b-12d3-a456-426614174000").Valid)
}

// Recursive schema through properties validates a multi-level tree
// (property 9, second half).
func TestRecursiveSchemaThroughProperties(t *testing.T) {
	doc := []byte(`{
		"$id": "https://example.com/tree",
		"type": "object",
		"properties": {
			"value": {"type": "integer"},
			"children": {"type": "array", "items": {"$ref": "#"}}
		},
		"required": ["value"]
	}`)
	schema, err := jsonschema.Compile(doc)
	require.NoError(t, err)

	tree := map[string]interface{}{
		"value": 1,
		"children": []interface{}{
			map[string]interface{}{
				"value": 2,
				"children": []interface{}{
					map[string]interface{}{"value": 3},
				},
			},
		},
	}
	assert.True(t, jsonschema.ValidateInstance(schema, tree).Valid)
}

// §4.D content keywords: a string embedding YAML decodes through the
// compiler's "application/yaml" media type handler and the decoded value
// is checked against contentSchema.
func TestContentMediaTypeYAML(t *testing.T) {
	doc := []byte(`{
		"type": "object",
		"properties": {
			"config": {
				"type": "string",
				"contentMediaType": "application/yaml",
				"contentSchema": {
					"type": "object",
					"properties": {"replicas": {"type": "integer", "minimum": 1}},
					"required": ["replicas"]
				}
			}
		}
	}`)
	schema, err := jsonschema.Compile(doc)
	require.NoError(t, err)

	valid := decodeInstance(t, `{"config": "replicas: 3\nname: web\n"}`)
	assert.True(t, jsonschema.ValidateInstance(schema, valid).Valid)

	invalid := decodeInstance(t, `{"config": "replicas: 0\n"}`)
	assert.False(t, jsonschema.ValidateInstance(schema, invalid).Valid)
}
