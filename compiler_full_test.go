package jsonschema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jsonschema "github.com/jsonkit/jsonvalidate"
)

// §5 Recursion: a pathological self-recursive schema realized through
// an applicator (so compile-time cycle analysis treats it as legal) must
// still be stopped by the runtime max-depth guard rather than exhausting
// the goroutine stack.
func TestMaxDepthGuardStopsRunawayRecursion(t *testing.T) {
	doc := []byte(`{
		"$id": "https://example.com/runaway",
		"type": "object",
		"properties": {"next": {"$ref": "#"}},
		"required": ["next"]
	}`)
	schema, err := jsonschema.Compile(doc, jsonschema.CompileOptions{MaxDepth: 8})
	require.NoError(t, err)

	instance := map[string]interface{}{}
	cursor := instance
	for i := 0; i < 50; i++ {
		next := map[string]interface{}{}
		cursor["next"] = next
		cursor = next
	}

	result := jsonschema.ValidateInstance(schema, instance)
	assert.False(t, result.Valid)

	foundDepthError := false
	for _, e := range result.Errors {
		if e.Message == jsonschema.ErrMaxDepthExceeded.Message {
			foundDepthError = true
		}
	}
	assert.True(t, foundDepthError)
}

// CompileBatch resolves $refs across independently-supplied documents in a
// single pass, regardless of map iteration order.
func TestCompileBatchCrossDocumentRefs(t *testing.T) {
	compiler := jsonschema.NewCompiler()
	batch := map[string][]byte{
		"https://example.com/main.json": []byte(`{
			"$id": "https://example.com/main.json",
			"type": "object",
			"properties": {"count": {"$ref": "https://example.com/types.json#/$defs/posInt"}}
		}`),
		"https://example.com/types.json": []byte(`{
			"$id": "https://example.com/types.json",
			"$defs": {"posInt": {"type": "integer", "minimum": 1}}
		}`),
	}

	compiled, err := compiler.CompileBatch(batch)
	require.NoError(t, err)

	main := compiled["https://example.com/main.json"]
	require.NotNil(t, main)

	assert.True(t, jsonschema.ValidateInstance(main, map[string]interface{}{"count": 5}).Valid)
	assert.False(t, jsonschema.ValidateInstance(main, map[string]interface{}{"count": 0}).Valid)
}
