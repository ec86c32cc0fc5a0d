package jsonschema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// evaluateAllOf checks if the instance conforms to all schemas specified in the allOf attribute.
// According to the JSON Schema Draft 2020-12:
//   - The "allOf" keyword's value must be a non-empty array, where each item is a valid JSON Schema or a boolean.
//   - An instance validates successfully against this keyword if it validates successfully against all schemas or booleans in this array.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-core#name-allof
func evaluateAllOf(schema *Schema, instance Value, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, *EvaluationError) {
	if len(schema.AllOf) == 0 {
		return nil, nil
	}

	invalidIndexes := []string{}
	results := []*EvaluationResult{}

	for i, subSchema := range schema.AllOf {
		if subSchema == nil {
			continue
		}
		skipEval := subSchema.Boolean != nil && *subSchema.Boolean

		result, schemaEvaluatedProps, schemaEvaluatedItems := subSchema.evaluate(instance, dynamicScope)
		if !skipEval {
			mergeStringMaps(evaluatedProps, schemaEvaluatedProps)
			mergeIntMaps(evaluatedItems, schemaEvaluatedItems)
		}

		if result != nil {
			results = append(results, result.SetEvaluationPath(fmt.Sprintf("/allOf/%d", i)).
				SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/allOf/%d", i))).
				SetInstanceLocation(""),
			)

			if !result.IsValid() {
				invalidIndexes = append(invalidIndexes, strconv.Itoa(i))
			}
		}
	}

	if len(invalidIndexes) == 0 {
		return results, nil
	}

	return results, NewEvaluationError("allOf", "all_of_item_mismatch", "Value does not match the allOf schema at index {indexs}", map[string]interface{}{
		"indexs": strings.Join(invalidIndexes, ", "),
	})
}

// evaluateAnyOf checks if the instance conforms to at least one of the schemas specified in the anyOf attribute.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-core#name-anyof
func evaluateAnyOf(schema *Schema, instance Value, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, *EvaluationError) {
	if len(schema.AnyOf) == 0 {
		return nil, nil
	}

	var valid bool
	results := []*EvaluationResult{}

	for i, subSchema := range schema.AnyOf {
		if subSchema == nil {
			continue
		}
		skipEval := subSchema.Boolean != nil && *subSchema.Boolean
		result, schemaEvaluatedProps, schemaEvaluatedItems := subSchema.evaluate(instance, dynamicScope)

		if result != nil {
			results = append(results, result.SetEvaluationPath(fmt.Sprintf("/anyOf/%d", i)).
				SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/anyOf/%d", i))).
				SetInstanceLocation(""),
			)

			if result.IsValid() {
				valid = true
				if !skipEval {
					mergeStringMaps(evaluatedProps, schemaEvaluatedProps)
					mergeIntMaps(evaluatedItems, schemaEvaluatedItems)
				}
			}
		}
	}

	if valid {
		return results, nil
	}
	return results, NewEvaluationError("anyOf", "any_of_item_mismatch", "Value does not match anyOf schema")
}

// evaluateOneOf checks if the instance conforms to exactly one of the schemas specified in the oneOf attribute.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-core#name-oneof
func evaluateOneOf(schema *Schema, instance Value, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, *EvaluationError) {
	if len(schema.OneOf) == 0 {
		return nil, nil
	}

	validIndexes := []string{}
	results := []*EvaluationResult{}
	var tempEvaluatedProps map[string]bool
	var tempEvaluatedItems map[int]bool

	for i, subSchema := range schema.OneOf {
		if subSchema == nil {
			continue
		}
		result, schemaEvaluatedProps, schemaEvaluatedItems := subSchema.evaluate(instance, dynamicScope)
		if result != nil {
			results = append(results, result.SetEvaluationPath(fmt.Sprintf("/oneOf/%d", i)).
				SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/oneOf/%d", i))).
				SetInstanceLocation(""),
			)

			if result.IsValid() {
				validIndexes = append(validIndexes, strconv.Itoa(i))
				tempEvaluatedProps = schemaEvaluatedProps
				tempEvaluatedItems = schemaEvaluatedItems
			}
		}
	}

	if len(validIndexes) == 1 {
		mergeStringMaps(evaluatedProps, tempEvaluatedProps)
		mergeIntMaps(evaluatedItems, tempEvaluatedItems)
		return results, nil
	}

	if len(validIndexes) > 1 {
		return results, NewEvaluationError("oneOf", "one_of_multiple_matches", "Value should match exactly one schema but matches multiple at indexes {matches}", map[string]interface{}{
			"matches": strings.Join(validIndexes, ", "),
		})
	}
	return results, NewEvaluationError("oneOf", "one_of_item_mismatch", "Value does not match the oneOf schema")
}

// evaluateNot checks if the instance fails to conform to the schema or boolean specified in the not attribute.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-core#name-not
func evaluateNot(schema *Schema, instance Value, _ map[string]bool, _ map[int]bool, dynamicScope *DynamicScope) (*EvaluationResult, *EvaluationError) {
	if schema.Not == nil {
		return nil, nil
	}

	result, _, _ := schema.Not.evaluate(instance, dynamicScope)

	if result != nil {
		//nolint:errcheck
		result.SetEvaluationPath("/not").
			SetSchemaLocation(schema.GetSchemaLocation("/not")).
			SetInstanceLocation("")

		if result.IsValid() {
			return result, NewEvaluationError("not", "not_schema_mismatch", "Value should not match the not schema")
		}
	}

	return result, nil
}

// evaluateConditional evaluates the instance against conditional subschemas defined by 'if', 'then', and 'else'.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-core#name-if
func evaluateConditional(schema *Schema, instance Value, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, *EvaluationError) {
	if schema.If == nil {
		return nil, nil
	}

	ifResult, ifEvaluatedProps, ifEvaluatedItems := schema.If.evaluate(instance, dynamicScope)

	results := []*EvaluationResult{}

	if ifResult != nil {
		//nolint:errcheck
		ifResult.SetEvaluationPath("/if").
			SetSchemaLocation(schema.GetSchemaLocation("/if")).
			SetInstanceLocation("")

		results = append(results, ifResult)

		if ifResult.IsValid() {
			mergeStringMaps(evaluatedProps, ifEvaluatedProps)
			mergeIntMaps(evaluatedItems, ifEvaluatedItems)

			if schema.Then != nil {
				thenResult, thenEvaluatedProps, thenEvaluatedItems := schema.Then.evaluate(instance, dynamicScope)

				if thenResult != nil {
					//nolint:errcheck
					thenResult.SetEvaluationPath("/then").
						SetSchemaLocation(schema.GetSchemaLocation("/then")).
						SetInstanceLocation("")

					results = append(results, thenResult)

					if !thenResult.IsValid() {
						return results, NewEvaluationError("then", "if_then_mismatch",
							"Value meets the 'if' condition but does not match the 'then' schema")
					}
					mergeStringMaps(evaluatedProps, thenEvaluatedProps)
					mergeIntMaps(evaluatedItems, thenEvaluatedItems)
				}
			}
		} else if schema.Else != nil {
			elseResult, elseEvaluatedProps, elseEvaluatedItems := schema.Else.evaluate(instance, dynamicScope)
			if elseResult != nil {
				//nolint:errcheck
				elseResult.SetEvaluationPath("/else").
					SetSchemaLocation(schema.GetSchemaLocation("/else")).
					SetInstanceLocation("")

				results = append(results, elseResult)

				if !elseResult.IsValid() {
					return results, NewEvaluationError("else", "if_else_mismatch",
						"Value fails the 'if' condition and does not match the 'else' schema")
				}
				mergeStringMaps(evaluatedProps, elseEvaluatedProps)
				mergeIntMaps(evaluatedItems, elseEvaluatedItems)
			}
		}
	}

	return results, nil
}

// evaluateDependentSchemas checks if the instance conforms to dependent schemas specified in the 'dependentSchemas' attribute.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-core#name-dependentschemas
func evaluateDependentSchemas(schema *Schema, instance Value, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, *EvaluationError) {
	if len(schema.DependentSchemas) == 0 {
		return nil, nil
	}

	obj, ok := instance.Object()
	if !ok {
		return nil, nil // Instance is not an object, dependentSchemas do not apply.
	}

	propNames := make([]string, 0, len(schema.DependentSchemas))
	for propName := range schema.DependentSchemas {
		propNames = append(propNames, propName)
	}
	sort.Strings(propNames)

	invalidProperties := []string{}
	results := []*EvaluationResult{}

	for _, propName := range propNames {
		depSchema := schema.DependentSchemas[propName]
		if depSchema == nil {
			continue
		}
		if _, exists := obj.Get(propName); !exists {
			continue
		}

		result, schemaEvaluatedProps, schemaEvaluatedItems := depSchema.evaluate(instance, dynamicScope)
		if result != nil {
			//nolint:errcheck
			result.SetEvaluationPath(fmt.Sprintf("/dependentSchemas/%s", propName)).
				SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/dependentSchemas/%s", propName))).
				SetInstanceLocation("")
			results = append(results, result)
		}

		if result != nil && result.IsValid() {
			mergeStringMaps(evaluatedProps, schemaEvaluatedProps)
			mergeIntMaps(evaluatedItems, schemaEvaluatedItems)
		} else {
			invalidProperties = append(invalidProperties, propName)
		}
	}

	if len(invalidProperties) == 1 {
		return results, NewEvaluationError("dependentSchemas", "dependent_schema_mismatch", "Property {property} does not meet the schema requirements dependent on it", map[string]interface{}{
			"property": fmt.Sprintf("'%s'", invalidProperties[0]),
		})
	} else if len(invalidProperties) > 1 {
		quotedProperties := make([]string, len(invalidProperties))
		for i, prop := range invalidProperties {
			quotedProperties[i] = fmt.Sprintf("'%s'", prop)
		}
		return results, NewEvaluationError("dependentSchemas", "dependent_schemas_mismatch", "Properties {properties} do not meet the schema requirements dependent on them", map[string]interface{}{
			"properties": strings.Join(quotedProperties, ", "),
		})
	}

	return results, nil
}
