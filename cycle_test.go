package jsonschema_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jsonschema "github.com/jsonkit/jsonvalidate"
)

// Property 9, first half: a reference-only cycle with no intervening
// assertion is fatal.
func TestCyclicRefOnlyIsFatal(t *testing.T) {
	doc := []byte(`{
		"$id": "https://example.com/cycle",
		"$defs": {
			"a": {"$ref": "#/$defs/b"},
			"b": {"$ref": "#/$defs/a"}
		},
		"$ref": "#/$defs/a"
	}`)

	_, err := jsonschema.Compile(doc)
	require.Error(t, err)

	var compErr *jsonschema.SchemaCompilationError
	require.True(t, errors.As(err, &compErr))
	assert.Equal(t, jsonschema.KindCyclicRef, compErr.Kind)
}
