package jsonschema

import (
	"fmt"
	"strconv"
	"strings"
)

// evaluateArray groups the validation of all array-specific keywords.
func evaluateArray(schema *Schema, instance Value, evaluatedProps map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, []*EvaluationError) {
	items, ok := instance.Array()
	if !ok {
		return nil, nil
	}

	results := []*EvaluationResult{}
	errors := []*EvaluationError{}

	if len(schema.PrefixItems) > 0 {
		prefixItemsResults, prefixItemsError := evaluatePrefixItems(schema, items, evaluatedProps, evaluatedItems, dynamicScope)
		results = append(results, prefixItemsResults...)
		if prefixItemsError != nil {
			errors = append(errors, prefixItemsError)
		}
	}

	if schema.Items != nil {
		itemsResults, itemsError := evaluateItems(schema, items, evaluatedProps, evaluatedItems, dynamicScope)
		results = append(results, itemsResults...)
		if itemsError != nil {
			errors = append(errors, itemsError)
		}
	}

	if schema.Contains != nil || (schema.MaxContains != nil && schema.MinContains != nil) {
		containsResults, containsError := evaluateContains(schema, items, evaluatedProps, evaluatedItems, dynamicScope)
		results = append(results, containsResults...)
		if containsError != nil {
			errors = append(errors, containsError)
		}
	}

	if schema.MaxItems != nil {
		if err := evaluateMaxItems(schema, items); err != nil {
			errors = append(errors, err)
		}
	}

	if schema.MinItems != nil {
		if err := evaluateMinItems(schema, items); err != nil {
			errors = append(errors, err)
		}
	}

	if schema.UniqueItems != nil && *schema.UniqueItems {
		if err := evaluateUniqueItems(schema, items); err != nil {
			errors = append(errors, err)
		}
	}

	return results, errors
}

// evaluateItems checks if the instance's array items conform to the subschema specified in the 'items' attribute.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-core#name-items
func evaluateItems(schema *Schema, array []Value, _ map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, *EvaluationError) {
	if schema.Items == nil {
		return nil, nil
	}

	invalidIndexes := []string{}
	results := []*EvaluationResult{}

	// Number of prefix items to skip before regular item validation
	startIndex := len(schema.PrefixItems)

	for i := startIndex; i < len(array); i++ {
		result, _, _ := schema.Items.evaluate(array[i], dynamicScope)
		if result != nil {
			//nolint:errcheck
			result.SetEvaluationPath(fmt.Sprintf("/items/%d", i)).
				SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/items/%d", i))).
				SetInstanceLocation(fmt.Sprintf("/%d", i))

			if result.IsValid() {
				evaluatedItems[i] = true
			} else {
				results = append(results, result)
				invalidIndexes = append(invalidIndexes, strconv.Itoa(i))
			}
		}
	}

	if len(invalidIndexes) == 1 {
		return results, NewEvaluationError("items", "item_mismatch", "Item at index {index} does not match the schema", map[string]interface{}{
			"index": invalidIndexes[0],
		})
	} else if len(invalidIndexes) > 1 {
		return results, NewEvaluationError("items", "items_mismatch", "Items at index {indexs} do not match the schema", map[string]interface{}{
			"indexs": strings.Join(invalidIndexes, ", "),
		})
	}
	return results, nil
}

// evaluatePrefixItems checks if each element in an array instance matches the schema specified
// at the same index in the 'prefixItems' array.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-core#name-prefixitems
func evaluatePrefixItems(schema *Schema, array []Value, _ map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, *EvaluationError) {
	if len(schema.PrefixItems) == 0 {
		return nil, nil
	}

	invalidIndexes := []string{}
	results := []*EvaluationResult{}

	for i, itemSchema := range schema.PrefixItems {
		if i >= len(array) {
			break
		}

		result, _, _ := itemSchema.evaluate(array[i], dynamicScope)
		if result != nil {
			results = append(results, result.SetEvaluationPath(fmt.Sprintf("/prefixItems/%d", i)).
				SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/prefixItems/%d", i))).
				SetInstanceLocation(fmt.Sprintf("/%d", i)),
			)

			if result.IsValid() {
				evaluatedItems[i] = true
			} else {
				invalidIndexes = append(invalidIndexes, strconv.Itoa(i))
			}
		}
	}

	if len(invalidIndexes) == 1 {
		return results, NewEvaluationError("prefixItems", "prefix_item_mismatch", "Item at index {index} does not match the prefixItems schema", map[string]interface{}{
			"index": invalidIndexes[0],
		})
	} else if len(invalidIndexes) > 1 {
		return results, NewEvaluationError("prefixItems", "prefix_items_mismatch", "Items at index {indexs} do not match the prefixItems schemas", map[string]interface{}{
			"indexs": strings.Join(invalidIndexes, ", "),
		})
	}

	return results, nil
}

// evaluateContains checks if at least one element in an array meets the conditions specified by the 'contains' keyword.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-core#name-contains
func evaluateContains(schema *Schema, array []Value, _ map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, *EvaluationError) {
	if schema.Contains == nil {
		return nil, nil
	}

	results := []*EvaluationResult{}

	var validCount int
	for i, item := range array {
		result, _, _ := schema.Contains.evaluate(item, dynamicScope)

		if result != nil {
			//nolint:errcheck
			result.SetEvaluationPath("/contains").
				SetSchemaLocation(schema.GetSchemaLocation("/contains")).
				SetInstanceLocation(fmt.Sprintf("/%d", i))

			if result.IsValid() {
				validCount++
				evaluatedItems[i] = true
			}
		}
	}

	minContains := 1
	if schema.MinContains != nil {
		minContains = int(*schema.MinContains)
	}

	if minContains == 0 && validCount == 0 {
		// Valid scenario when minContains is 0. Still need to check maxContains.
	} else if validCount < minContains {
		return results, NewEvaluationError("minContains", "contains_too_few_items", "Value should contain at least {min_contains} matching items", map[string]interface{}{
			"min_contains": minContains,
			"count":        validCount,
		})
	}

	if schema.MaxContains != nil && validCount > int(*schema.MaxContains) {
		return results, NewEvaluationError("maxContains", "contains_too_many_items", "Value should contain no more than {max_contains} matching items", map[string]interface{}{
			"max_contains": *schema.MaxContains,
			"count":        validCount,
		})
	}

	return results, nil
}

// evaluateUnevaluatedItems checks if the instance's array items that have not been evaluated by
// 'items', 'prefixItems', or 'contains' conform to the subschema specified in 'unevaluatedItems'.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-core#name-unevaluateditems
func evaluateUnevaluatedItems(schema *Schema, instance Value, _ map[string]bool, evaluatedItems map[int]bool, dynamicScope *DynamicScope) ([]*EvaluationResult, *EvaluationError) {
	items, ok := instance.Array()
	if !ok {
		return nil, nil
	}

	if schema.UnevaluatedItems == nil {
		return nil, nil
	}

	if schema.UnevaluatedItems.Boolean != nil {
		if *schema.UnevaluatedItems.Boolean {
			for i := range items {
				evaluatedItems[i] = true
			}
			return nil, nil
		}
		var unevaluatedIndexes []string
		for i := range items {
			if _, evaluated := evaluatedItems[i]; !evaluated {
				unevaluatedIndexes = append(unevaluatedIndexes, strconv.Itoa(i))
			}
		}
		if len(unevaluatedIndexes) > 0 {
			return nil, NewEvaluationError("unevaluatedItems", "unevaluated_items_not_allowed", "Unevaluated items are not allowed at indexes: {indexes}", map[string]interface{}{
				"indexes": strings.Join(unevaluatedIndexes, ", "),
			})
		}
		return nil, nil
	}

	results := []*EvaluationResult{}
	invalidIndexes := []string{}

	for i, item := range items {
		if _, evaluated := evaluatedItems[i]; evaluated {
			continue
		}
		result, _, evaluatedMap := schema.UnevaluatedItems.evaluate(item, dynamicScope)
		if result != nil {
			//nolint:errcheck
			result.SetEvaluationPath(fmt.Sprintf("/unevaluatedItems/%d", i)).
				SetSchemaLocation(schema.GetSchemaLocation(fmt.Sprintf("/unevaluatedItems/%d", i))).
				SetInstanceLocation(fmt.Sprintf("/%d", i))

			results = append(results, result)
			if result.IsValid() {
				evaluatedItems[i] = true
			} else {
				invalidIndexes = append(invalidIndexes, strconv.Itoa(i))
			}
		}
		for k, v := range evaluatedMap {
			evaluatedItems[k] = v
		}
	}

	if len(invalidIndexes) == 1 {
		return results, NewEvaluationError("unevaluatedItems", "unevaluated_item_mismatch", "Item at index {index} does not match the unevaluatedItems schema", map[string]interface{}{
			"index": invalidIndexes[0],
		})
	} else if len(invalidIndexes) > 1 {
		return results, NewEvaluationError("unevaluatedItems", "unevaluated_items_mismatch", "Items at indexes {indexes} do not match the unevaluatedItems schema", map[string]interface{}{
			"indexes": strings.Join(invalidIndexes, ", "),
		})
	}

	return results, nil
}

// evaluateUniqueItems checks if all elements in the array are unique when "uniqueItems" is true.
// Equality uses Value.Equal directly, so this needs no reflection-based normalization: the shared
// Value sum type already has a single canonical representation per JSON value.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-validation#name-uniqueitems
func evaluateUniqueItems(schema *Schema, data []Value) *EvaluationError {
	if schema.UniqueItems == nil || !*schema.UniqueItems {
		return nil
	}

	maxLength := len(data)

	// If items is false, only validate items defined by prefixItems
	if schema.Items != nil && schema.Items.Boolean != nil && !*schema.Items.Boolean {
		if schema.PrefixItems != nil {
			maxLength = len(schema.PrefixItems)
			if maxLength > len(data) {
				maxLength = len(data)
			}
		} else {
			maxLength = 0
		}
	}

	if maxLength == 0 {
		return nil
	}

	items := data[:maxLength]
	var duplicates []string
	seen := make([]bool, len(items))
	for i := 0; i < len(items); i++ {
		if seen[i] {
			continue
		}
		group := []string{strconv.Itoa(i + 1)}
		for j := i + 1; j < len(items); j++ {
			if items[i].Equal(items[j]) {
				seen[j] = true
				group = append(group, strconv.Itoa(j+1))
			}
		}
		if len(group) > 1 {
			duplicates = append(duplicates, fmt.Sprintf("(%s)", strings.Join(group, ", ")))
		}
	}

	if len(duplicates) > 0 {
		return NewEvaluationError("uniqueItems", "unique_items_mismatch", "Found duplicates at the following index groups: {duplicates}", map[string]any{
			"duplicates": strings.Join(duplicates, ", "),
		})
	}
	return nil
}

// evaluateMinItems checks if the array instance contains at least the minimum number of items.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-validation#name-minitems
func evaluateMinItems(schema *Schema, array []Value) *EvaluationError {
	if schema.MinItems == nil {
		return nil
	}
	if float64(len(array)) < *schema.MinItems {
		return NewEvaluationError("minItems", "items_too_short", "Value should have at least {min_items} items", map[string]interface{}{
			"min_items": *schema.MinItems,
			"count":     len(array),
		})
	}
	return nil
}

// evaluateMaxItems checks if the array instance contains no more items than the maximum allowed.
//
// Reference: https://json-schema.org/draft/2020-12/json-schema-validation#name-maxitems
func evaluateMaxItems(schema *Schema, array []Value) *EvaluationError {
	if schema.MaxItems == nil {
		return nil
	}
	if float64(len(array)) > *schema.MaxItems {
		return NewEvaluationError("maxItems", "items_too_long", "Value should have at most {max_items} items", map[string]interface{}{
			"max_items": fmt.Sprintf("%.0f", *schema.MaxItems),
			"count":     len(array),
		})
	}
	return nil
}
