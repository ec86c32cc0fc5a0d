package jsonschema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
)

// compilePatterns precompiles the regular expressions backing patternProperties.
// Once they are compiled, further calls do nothing.
func (s *Schema) compilePatterns() {
	if s.PatternProperties == nil || s.compiledPatterns != nil {
		return
	}

	s.compiledPatterns = make(map[string]*regexp.Regexp)
	for pattern := range *s.PatternProperties {
		regex, err := regexp.Compile(pattern)
		if err == nil {
			s.compiledPatterns[pattern] = regex
		}
	}
}

// evaluateObject groups the validation of all object-specific keywords.
func evaluateObject(schema *Schema, instance Value, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
	if _, ok := instance.Object(); !ok {
		return nil, nil
	}

	results := []*EvaluationResult{}
	errors := []*EvaluationError{}

	if schema.Properties != nil {
		propertiesResults, propertiesError := evaluateProperties(schema, instance, evaluatedProps, evaluatedItems, dynamicScope)
		results = append(results, propertiesResults...)
		if propertiesError != nil {
			errors = append(errors, propertiesError)
		}
	}

	if schema.PatternProperties != nil {
		patternPropertiesResults, patternPropertiesError := evaluatePatternProperties(schema, instance, evaluatedProps, evaluatedItems, dynamicScope)
		results = append(results, patternPropertiesResults...)
		if patternPropertiesError != nil {
			errors = append(errors, patternPropertiesError)
		}
	}

	if schema.AdditionalProperties != nil {
		additionalPropertiesResults, additionalPropertiesError := evaluateAdditionalProperties(schema, instance, evaluatedProps, evaluatedItems, dynamicScope)
		results = append(results, additionalPropertiesResults...)
		if additionalPropertiesError != nil {
			errors = append(errors, additionalPropertiesError)
		}
	}

	if schema.PropertyNames != nil {
		propertyNamesResults, propertyNamesError := evaluatePropertyNames(schema, instance, evaluatedProps, evaluatedItems, dynamicScope)
		results = append(results, propertyNamesResults...)
		if propertyNamesError != nil {
			errors = append(errors, propertyNamesError)
		}
	}

	if schema.MaxProperties != nil {
		if err := evaluateMaxProperties(schema, instance); err != nil {
			errors = append(errors, err)
		}
	}

	if schema.MinProperties != nil {
		if err := evaluateMinProperties(schema, instance); err != nil {
			errors = append(errors, err)
		}
	}

	if len(schema.Required) > 0 {
		if err := evaluateRequired(schema, instance); err != nil {
			errors = append(errors, err)
		}
	}

	if len(schema.DependentRequired) > 0 {
		if err := evaluateDependentRequired(schema, instance); err != nil {
			errors = append(errors, err)
		}
	}

	return results, errors
}

// isRequired checks if a property is required.
func isRequired(schema *Schema, propName string) bool {
	for _, reqProp := range schema.Required {
		if reqProp == propName {
			return true
		}
	}
	return false
}

// defaultIsSpecified checks if a default value is specified for a property schema.
func defaultIsSpecified(propSchema *Schema) bool {
	return propSchema != nil && propSchema.Default != nil
}

// evaluateProperties checks if the properties in the instance object conform to the schemas
// specified in the schema's properties attribute.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-core#name-properties
func evaluateProperties(schema *Schema, instance Value, evaluatedProps map[string]bool, _ map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, *EvaluationError) {
	if schema.Properties == nil {
		return nil, nil
	}

	obj, _ := instance.Object()
	invalidProperties := []string{}
	results := []*EvaluationResult{}

	for propName, propSchema := range *schema.Properties {
		evaluatedProps[propName] = true
		propValue, exists := obj.Get(propName)

		if exists {
			result, _, _ := propSchema.evaluate(propValue, dynamicScope)
			if result != nil {
				//nolint:errcheck
				result.SetEvaluationPath(fmt.Sprintf("/properties/%s", propName)).
					SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/properties/%s", propName))).
					SetInstanceLocation(fmt.Sprintf("/%s", propName))

				results = append(results, result)

				if !result.IsValid() {
					invalidProperties = append(invalidProperties, propName)
				}
			}
		} else if isRequired(schema, propName) && !defaultIsSpecified(propSchema) {
			result, _, _ := propSchema.evaluate(Value{}, dynamicScope)

			if result != nil {
				//nolint:errcheck
				result.SetEvaluationPath(fmt.Sprintf("/properties/%s", propName)).
					SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/properties/%s", propName))).
					SetInstanceLocation(fmt.Sprintf("/%s", propName))

				results = append(results, result)

				if !result.IsValid() {
					invalidProperties = append(invalidProperties, propName)
				}
			}
		}
	}

	if len(invalidProperties) == 1 {
		return results, NewEvaluationError("properties", "property_mismatch", "Property {property} does not match the schema", map[string]any{
			"property": fmt.Sprintf("'%s'", invalidProperties[0]),
		})
	} else if len(invalidProperties) > 1 {
		slices.Sort(invalidProperties)
		quotedProperties := make([]string, len(invalidProperties))
		for i, prop := range invalidProperties {
			quotedProperties[i] = fmt.Sprintf("'%s'", prop)
		}
		return results, NewEvaluationError("properties", "properties_mismatch", "Properties {properties} do not match their schemas", map[string]any{
			"properties": strings.Join(quotedProperties, ", "),
		})
	}

	return results, nil
}

// evaluatePatternProperties checks if properties in the instance object that match regex patterns
// conform to the schemas specified in the schema's patternProperties attribute. Both the pattern
// set and the object's members are walked in a fixed order so the reported invalid-property set is
// deterministic; the member order comes for free from Value's ordered-map backing.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-core#name-patternproperties
func evaluatePatternProperties(schema *Schema, instance Value, evaluatedProps map[string]bool, _ map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, *EvaluationError) {
	if schema.PatternProperties == nil {
		return nil, nil
	}

	obj, _ := instance.Object()

	patterns := make([]string, 0, len(*schema.PatternProperties))
	for pattern := range *schema.PatternProperties {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)

	invalidPatterns := []string{}
	invalidProperties := []string{}
	results := []*EvaluationResult{}

	for _, patternKey := range patterns {
		patternSchema := (*schema.PatternProperties)[patternKey]

		regex, ok := schema.compiledPatterns[patternKey]
		if !ok {
			var err error
			regex, err = regexp.Compile(patternKey)
			if err != nil {
				invalidPatterns = append(invalidPatterns, patternKey)
				continue
			}
			schema.compiledPatterns[patternKey] = regex
		}

		for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
			propName := pair.Key
			if !regex.MatchString(propName) {
				continue
			}
			evaluatedProps[propName] = true

			result, _, _ := patternSchema.evaluate(pair.Value, dynamicScope)
			if result != nil {
				//nolint:errcheck
				result.SetEvaluationPath(fmt.Sprintf("/patternProperties/%s", propName)).
					SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/patternProperties/%s", propName))).
					SetInstanceLocation(fmt.Sprintf("/%s", propName))

				results = append(results, result)

				if !result.IsValid() && !slices.Contains(invalidProperties, propName) {
					invalidProperties = append(invalidProperties, propName)
				}
			}
		}
	}

	if len(invalidPatterns) > 0 {
		quoted := make([]string, len(invalidPatterns))
		for i, pattern := range invalidPatterns {
			quoted[i] = fmt.Sprintf("'%s'", pattern)
		}
		return results, NewEvaluationError("patternProperties", "invalid_pattern", "Invalid regular expression pattern {pattern}", map[string]any{
			"pattern": strings.Join(quoted, ", "),
		})
	}

	if len(invalidProperties) == 1 {
		return results, NewEvaluationError("properties", "pattern_property_mismatch", "Property {property} does not match the pattern schema", map[string]any{
			"property": fmt.Sprintf("'%s'", invalidProperties[0]),
		})
	} else if len(invalidProperties) > 1 {
		quotedProperties := make([]string, len(invalidProperties))
		for i, prop := range invalidProperties {
			quotedProperties[i] = fmt.Sprintf("'%s'", prop)
		}
		return results, NewEvaluationError("properties", "pattern_properties_mismatch", "Properties {properties} do not match their pattern schemas", map[string]any{
			"properties": strings.Join(quotedProperties, ", "),
		})
	}

	return results, nil
}

// evaluateAdditionalProperties checks if properties not explicitly defined or matched by
// patternProperties conform to the schema specified in additionalProperties.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-core#name-additionalproperties
func evaluateAdditionalProperties(schema *Schema, instance Value, evaluatedProps map[string]bool, _ map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, *EvaluationError) {
	obj, _ := instance.Object()
	results := []*EvaluationResult{}
	invalidProperties := []string{}

	known := make(map[string]bool)
	if schema.Properties != nil {
		for propName := range *schema.Properties {
			known[propName] = true
		}
	}
	if schema.PatternProperties != nil {
		for _, regex := range schema.compiledPatterns {
			for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
				if regex.MatchString(pair.Key) {
					known[pair.Key] = true
				}
			}
		}
	}

	if schema.AdditionalProperties != nil {
		for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
			propName := pair.Key
			if known[propName] {
				continue
			}

			result, _, _ := schema.AdditionalProperties.evaluate(pair.Value, dynamicScope)
			if result != nil {
				//nolint:errcheck
				result.SetEvaluationPath(fmt.Sprintf("/additionalProperties/%s", propName)).
					SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/additionalProperties/%s", propName))).
					SetInstanceLocation(fmt.Sprintf("/%s", propName))

				results = append(results, result)
				if !result.IsValid() {
					invalidProperties = append(invalidProperties, propName)
				}
			}

			evaluatedProps[propName] = true
		}
	}

	if len(invalidProperties) == 1 {
		return results, NewEvaluationError("additionalProperties", "additional_property_mismatch", "Additional property {property} does not match the schema", map[string]interface{}{
			"property": fmt.Sprintf("'%s'", invalidProperties[0]),
		})
	} else if len(invalidProperties) > 1 {
		quotedProperties := make([]string, len(invalidProperties))
		for i, prop := range invalidProperties {
			quotedProperties[i] = fmt.Sprintf("'%s'", prop)
		}
		return results, NewEvaluationError("additionalProperties", "additional_properties_mismatch", "Additional properties {properties} do not match the schema", map[string]interface{}{
			"properties": strings.Join(quotedProperties, ", "),
		})
	}

	return results, nil
}

// evaluatePropertyNames checks if every property name in the instance conforms to the schema
// specified by the propertyNames attribute.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-core#name-propertynames
func evaluatePropertyNames(schema *Schema, instance Value, _ map[string]bool, _ map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, *EvaluationError) {
	if schema.PropertyNames == nil {
		return nil, nil
	}

	obj, _ := instance.Object()
	invalidProperties := []string{}
	results := []*EvaluationResult{}

	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		propName := pair.Key
		result, _, _ := schema.PropertyNames.evaluate(NewString(propName), dynamicScope)

		if result != nil {
			//nolint:errcheck
			result.SetEvaluationPath(fmt.Sprintf("/propertyNames/%s", propName)).
				SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/propertyNames/%s", propName))).
				SetInstanceLocation(fmt.Sprintf("/%s", propName))
		}

		results = append(results, result)

		if result == nil || !result.IsValid() {
			invalidProperties = append(invalidProperties, propName)
		}
	}

	if len(invalidProperties) == 1 {
		return results, NewEvaluationError("propertyNames", "property_name_mismatch", "Property name {property} does not match the schema", map[string]any{
			"property": fmt.Sprintf("'%s'", invalidProperties[0]),
		})
	} else if len(invalidProperties) > 1 {
		quotedProperties := make([]string, len(invalidProperties))
		for i, prop := range invalidProperties {
			quotedProperties[i] = fmt.Sprintf("'%s'", prop)
		}
		return results, NewEvaluationError("propertyNames", "property_names_mismatch", "Property names {properties} do not match the schema", map[string]any{
			"properties": strings.Join(quotedProperties, ", "),
		})
	}

	return results, nil
}

// evaluateUnevaluatedProperties checks if the unevaluated properties of the instance object
// conform to the unevaluatedProperties schema specified in the schema.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-core#name-unevaluatedproperties
func evaluateUnevaluatedProperties(schema *Schema, instance Value, evaluatedProps map[string]bool, _ map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, *EvaluationError) {
	if schema.UnevaluatedProperties == nil {
		return nil, nil
	}

	obj, ok := instance.Object()
	if !ok {
		return nil, nil
	}

	invalidProperties := []string{}
	results := []*EvaluationResult{}

	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		propName := pair.Key
		if _, evaluated := evaluatedProps[propName]; evaluated {
			continue
		}

		result, _, _ := schema.UnevaluatedProperties.evaluate(pair.Value, dynamicScope)
		if result != nil {
			//nolint:errcheck
			result.SetEvaluationPath("/unevaluatedProperties").
				SetSchemaLocation(schema.GetSchemaLocation("/unevaluatedProperties")).
				SetInstanceLocation(fmt.Sprintf("/%s", propName))

			results = append(results, result)

			if !result.IsValid() {
				invalidProperties = append(invalidProperties, propName)
			}
		}
		evaluatedProps[propName] = true
	}

	if len(invalidProperties) == 1 {
		return results, NewEvaluationError("properties", "unevaluated_property_mismatch", "Property {property} does not match the unevaluatedProperties schema", map[string]any{
			"property": fmt.Sprintf("'%s'", invalidProperties[0]),
		})
	} else if len(invalidProperties) > 1 {
		quotedProperties := make([]string, len(invalidProperties))
		for i, prop := range invalidProperties {
			quotedProperties[i] = fmt.Sprintf("'%s'", prop)
		}
		return results, NewEvaluationError("properties", "unevaluated_properties_mismatch", "Properties {properties} do not match the unevaluatedProperties schema", map[string]any{
			"properties": strings.Join(quotedProperties, ", "),
		})
	}

	return results, nil
}

// evaluateRequired checks if all the required properties specified in the schema are present in
// the instance object.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-validation#name-required
func evaluateRequired(schema *Schema, instance Value) *EvaluationError {
	if len(schema.Required) == 0 {
		return nil
	}

	obj, ok := instance.Object()
	if !ok {
		return nil
	}

	var missingProps []string
	for _, propName := range schema.Required {
		if _, exists := obj.Get(propName); !exists {
			missingProps = append(missingProps, propName)
		}
	}

	if len(missingProps) == 0 {
		return nil
	}

	if len(missingProps) == 1 {
		return NewEvaluationError("required", "missing_required_property", "Required property {property} is missing", map[string]interface{}{
			"property": fmt.Sprintf("'%s'", missingProps[0]),
		})
	}
	quotedProperties := make([]string, len(missingProps))
	for i, prop := range missingProps {
		quotedProperties[i] = fmt.Sprintf("'%s'", prop)
	}
	return NewEvaluationError("required", "missing_required_properties", "Required properties {properties} are missing", map[string]interface{}{
		"properties": strings.Join(quotedProperties, ", "),
	})
}

// evaluateDependentRequired checks that if a specified property is present, all its dependent
// properties are also present.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-validation#name-dependentrequired
func evaluateDependentRequired(schema *Schema, instance Value) *EvaluationError {
	if schema.DependentRequired == nil {
		return nil
	}

	obj, ok := instance.Object()
	if !ok {
		return nil
	}

	keys := make([]string, 0, len(schema.DependentRequired))
	for key := range schema.DependentRequired {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	dependentMissingProps := make(map[string][]string)

	for _, key := range keys {
		if _, keyExists := obj.Get(key); !keyExists {
			continue
		}
		requiredProps := schema.DependentRequired[key]
		var missingProps []string
		for _, reqProp := range requiredProps {
			if _, propExists := obj.Get(reqProp); !propExists {
				missingProps = append(missingProps, reqProp)
			}
		}
		if len(missingProps) > 0 {
			dependentMissingProps[key] = missingProps
		}
	}

	if len(dependentMissingProps) > 0 {
		missingPropsJSON, _ := json.Marshal(dependentMissingProps)
		return NewEvaluationError("dependentRequired", "dependent_property_required", "Some required property dependencies are missing: {missing_properties}", map[string]interface{}{
			"missing_properties": string(missingPropsJSON),
		})
	}

	return nil
}

// evaluateMinProperties checks if the number of properties in the instance object meets or
// exceeds the specified minimum.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-validation#name-minProperties
func evaluateMinProperties(schema *Schema, instance Value) *EvaluationError {
	obj, ok := instance.Object()
	if !ok {
		return nil
	}

	minProperties := float64(0)
	if schema.MinProperties != nil {
		minProperties = *schema.MinProperties
	}

	if float64(obj.Len()) < minProperties {
		return NewEvaluationError("minProperties", "too_few_properties", "Value should have at least {min_properties} properties", map[string]interface{}{
			"min_properties": minProperties,
		})
	}

	return nil
}

// evaluateMaxProperties checks if the number of properties in the instance object does not
// exceed the specified maximum.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-validation#name-maxProperties
func evaluateMaxProperties(schema *Schema, instance Value) *EvaluationError {
	if schema.MaxProperties == nil {
		return nil
	}

	obj, ok := instance.Object()
	if !ok {
		return nil
	}

	if float64(obj.Len()) > *schema.MaxProperties {
		return NewEvaluationError("maxProperties", "too_many_properties", "Value should have at most {max_properties} properties", map[string]interface{}{
			"max_properties": *schema.MaxProperties,
		})
	}

	return nil
}
