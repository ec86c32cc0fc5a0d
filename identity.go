package jsonschema

import "strings"

// evaluateType checks if the instance's type matches the type specified in the schema.
// According to the JSON Schema Draft 2020-12:
//   - The value of the "type" keyword must be either a string or an array of unique strings.
//   - Valid string values are the six primitive types ("null", "boolean", "object", "array", "number", "string")
//     and "integer", which matches any number with a zero fractional part.
//   - If "type" is a single string, the data matches if its type corresponds to that string.
//   - If "type" is an array, the data matches if its type corresponds to any string in that array.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-validation#name-type
func evaluateType(schema *Schema, instance Value) *EvaluationError {
	if len(schema.Type) == 0 {
		return nil
	}

	instanceType := dataKind(instance)

	for _, schemaType := range schema.Type {
		if schemaType == "number" && instanceType == "integer" {
			// Special case: integers are valid numbers per JSON Schema specification
			return nil
		}
		if instanceType == schemaType {
			return nil
		}
	}

	return NewEvaluationError("type", "type_mismatch", "Value is {received} but should be {expected}", map[string]interface{}{
		"expected": strings.Join(schema.Type, ", "),
		"received": instanceType,
	})
}

// evaluateEnum checks if the instance matches one of the enumerated values specified in the schema.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-validation#name-enum
func evaluateEnum(schema *Schema, instance Value) *EvaluationError {
	if len(schema.Enum) == 0 {
		return nil
	}

	for _, enumValue := range schema.Enum {
		if instance.Equal(enumValue) {
			return nil
		}
	}

	return NewEvaluationError("enum", "value_not_in_enum", "Value should match one of the values specified by the enum")
}

// evaluateConst checks if the instance matches exactly the value specified in the schema's 'const' keyword.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-validation#name-const
func evaluateConst(schema *Schema, instance Value) *EvaluationError {
	if schema.Const == nil {
		return nil
	}

	if !instance.Equal(*schema.Const) {
		return NewEvaluationError("const", "const_mismatch", "Value does not match the constant value")
	}
	return nil
}
