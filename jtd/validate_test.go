package jtd_test

import (
	"testing"

	"github.com/jsonkit/jsonvalidate/jtd"
	"github.com/stretchr/testify/assert"
)

func TestValidateProperties(t *testing.T) {
	schema := jtd.Schema{
		Properties: map[string]jtd.Schema{
			"a": {Type: jtd.TypeString},
		},
	}
	instance := map[string]interface{}{"a": float64(1), "b": float64(2)}

	errs, err := jtd.Validate(schema, instance)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []jtd.ValidateError{
		{InstancePath: []string{"a"}, SchemaPath: []string{"properties", "a", "type"}},
		{InstancePath: []string{"b"}, SchemaPath: nil},
	}, errs)
}

func TestValidateElements(t *testing.T) {
	schema := jtd.Schema{Elements: &jtd.Schema{Type: jtd.TypeBoolean}}
	instance := []interface{}{nil, nil, nil}

	errs, err := jtd.Validate(schema, instance, jtd.WithMaxErrors(2))
	assert.NoError(t, err)
	assert.Len(t, errs, 2)
}

func TestValidateMaxDepth(t *testing.T) {
	loop := "loop"
	schema := jtd.Schema{
		Definitions: map[string]jtd.Schema{"loop": {Ref: &loop}},
		Ref:         &loop,
	}

	_, err := jtd.Validate(schema, nil, jtd.WithMaxDepth(3))
	assert.Equal(t, jtd.ErrMaxDepthExceeded, err)
}

func TestValidateDiscriminator(t *testing.T) {
	schema := jtd.Schema{
		Discriminator: "kind",
		Mapping: map[string]jtd.Schema{
			"circle": {Properties: map[string]jtd.Schema{"radius": {Type: jtd.TypeFloat64}}},
		},
	}
	assert.NoError(t, schema.Validate())

	errs, err := jtd.Validate(schema, map[string]interface{}{"kind": "circle", "radius": float64(3)})
	assert.NoError(t, err)
	assert.Empty(t, errs)

	errs, err = jtd.Validate(schema, map[string]interface{}{"kind": "square"})
	assert.NoError(t, err)
	assert.Equal(t, []jtd.ValidateError{{SchemaPath: []string{"mapping"}}}, errs)
}

func TestSchemaValidateRejectsInvalidForm(t *testing.T) {
	schema := jtd.Schema{Type: jtd.TypeString, Enum: []string{"a"}}
	err := schema.Validate()
	assert.Error(t, err)
}

func TestValidateErrorPointers(t *testing.T) {
	e := jtd.ValidateError{InstancePath: []string{"a", "b"}, SchemaPath: []string{"properties", "a"}}
	assert.Equal(t, "/a/b", e.InstancePointer())
	assert.Equal(t, "/properties/a", e.SchemaPointer())
}
