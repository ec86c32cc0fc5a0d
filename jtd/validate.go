package jtd

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// ValidateError is a single instance/schema path pair produced by
// Validate. Paths are kept as token slices internally, per §4.D, and
// joined into JSON-pointer strings only on demand via InstancePointer and
// SchemaPointer; this keeps the hot validation path free of string
// concatenation.
type ValidateError struct {
	InstancePath []string
	SchemaPath   []string
}

// InstancePointer renders InstancePath as an RFC 6901 JSON pointer.
func (e ValidateError) InstancePointer() string { return toPointer(e.InstancePath) }

// SchemaPointer renders SchemaPath as an RFC 6901 JSON pointer.
func (e ValidateError) SchemaPointer() string { return toPointer(e.SchemaPath) }

func toPointer(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	escaped := make([]string, len(tokens))
	for i, t := range tokens {
		t = strings.ReplaceAll(t, "~", "~0")
		t = strings.ReplaceAll(t, "/", "~1")
		escaped[i] = t
	}
	return "/" + strings.Join(escaped, "/")
}

// Validate walks instance against schema and returns every violation
// found, following RFC 8927's validation algorithm. schema must already
// satisfy Schema.Validate; behavior is undefined otherwise.
func Validate(schema Schema, instance interface{}, opts ...ValidateOption) ([]ValidateError, error) {
	cfg := validateConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	st := &validateState{
		root:      schema,
		maxDepth:  cfg.maxDepth,
		maxErrors: cfg.maxErrors,
	}

	err := st.apply(schema, instance, nil, nil, 0)
	if _, stopped := err.(errStop); stopped {
		return st.errors, nil
	}
	if err != nil {
		return st.errors, err
	}
	return st.errors, nil
}

type errStop struct{ err error }

func (e errStop) Error() string { return e.err.Error() }

type validateState struct {
	root      Schema
	maxDepth  int
	maxErrors int
	errors    []ValidateError
}

func (st *validateState) fail(instancePath, schemaPath []string) error {
	st.errors = append(st.errors, ValidateError{
		InstancePath: append([]string(nil), instancePath...),
		SchemaPath:   append([]string(nil), schemaPath...),
	})
	if st.maxErrors > 0 && len(st.errors) >= st.maxErrors {
		return errStop{}
	}
	return nil
}

// apply validates instance against s, appending instancePath/schemaPath
// tokens as it recurses. depth counts "ref" indirections only, matching
// RFC 8927's recursion hazard (other forms can't recurse without a ref).
func (st *validateState) apply(s Schema, instance interface{}, instancePath, schemaPath []string, depth int) error {
	if s.Nullable && instance == nil {
		return nil
	}

	switch s.Form() {
	case FormEmpty:
		return nil

	case FormRef:
		if st.maxDepth > 0 && depth >= st.maxDepth {
			return ErrMaxDepthExceeded
		}
		target := st.root.Definitions[*s.Ref]
		return st.apply(target, instance, instancePath, append(schemaPath, "definitions", *s.Ref), depth+1)

	case FormType:
		return st.applyType(s.Type, instance, instancePath, append(schemaPath, "type"))

	case FormEnum:
		str, ok := instance.(string)
		if !ok {
			return st.fail(instancePath, append(schemaPath, "enum"))
		}
		for _, v := range s.Enum {
			if v == str {
				return nil
			}
		}
		return st.fail(instancePath, append(schemaPath, "enum"))

	case FormElements:
		arr, ok := instance.([]interface{})
		if !ok {
			return st.fail(instancePath, append(schemaPath, "elements"))
		}
		for i, item := range arr {
			if err := st.apply(*s.Elements, item, append(instancePath, strconv.Itoa(i)), append(schemaPath, "elements"), depth); err != nil {
				return err
			}
		}
		return nil

	case FormProperties:
		return st.applyProperties(s, instance, instancePath, schemaPath, depth, "")

	case FormValues:
		obj, ok := instance.(map[string]interface{})
		if !ok {
			return st.fail(instancePath, append(schemaPath, "values"))
		}
		for _, k := range sortedKeys(obj) {
			if err := st.apply(*s.Values, obj[k], append(instancePath, k), append(schemaPath, "values"), depth); err != nil {
				return err
			}
		}
		return nil

	case FormDiscriminator:
		obj, ok := instance.(map[string]interface{})
		if !ok {
			return st.fail(instancePath, schemaPath)
		}
		tagVal, present := obj[s.Discriminator]
		if !present {
			return st.fail(instancePath, append(schemaPath, "discriminator"))
		}
		tag, ok := tagVal.(string)
		if !ok {
			return st.fail(instancePath, append(schemaPath, "discriminator"))
		}
		mapped, ok := s.Mapping[tag]
		if !ok {
			return st.fail(instancePath, append(schemaPath, "mapping"))
		}
		return st.applyProperties(mapped, instance, instancePath, append(schemaPath, "mapping", tag), depth, s.Discriminator)

	default:
		return nil
	}
}

// applyProperties implements the Properties form. excludeKey, when
// non-empty, is the discriminator tag of an enclosing Discriminator form:
// RFC 8927 requires that key be exempt from "properties"/"additionalProperties"
// bookkeeping since the discriminator already consumed it.
func (st *validateState) applyProperties(s Schema, instance interface{}, instancePath, schemaPath []string, depth int, excludeKey string) error {
	obj, ok := instance.(map[string]interface{})
	if !ok {
		return st.fail(instancePath, schemaPath)
	}

	for _, name := range sortedKeys(s.Properties) {
		sub := s.Properties[name]
		v, present := obj[name]
		if !present {
			if err := st.fail(instancePath, append(schemaPath, "properties", name)); err != nil {
				return err
			}
			continue
		}
		if err := st.apply(sub, v, append(instancePath, name), append(schemaPath, "properties", name), depth); err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(s.OptionalProperties) {
		sub := s.OptionalProperties[name]
		v, present := obj[name]
		if !present {
			continue
		}
		if err := st.apply(sub, v, append(instancePath, name), append(schemaPath, "optionalProperties", name), depth); err != nil {
			return err
		}
	}

	if !s.AdditionalProperties {
		for _, name := range sortedKeys(obj) {
			if name == excludeKey {
				continue
			}
			if _, ok := s.Properties[name]; ok {
				continue
			}
			if _, ok := s.OptionalProperties[name]; ok {
				continue
			}
			if err := st.fail(append(instancePath, name), schemaPath); err != nil {
				return err
			}
		}
	}

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (st *validateState) applyType(t Type, instance interface{}, instancePath, schemaPath []string) error {
	switch t {
	case TypeBoolean:
		if _, ok := instance.(bool); !ok {
			return st.fail(instancePath, schemaPath)
		}
	case TypeString:
		if _, ok := instance.(string); !ok {
			return st.fail(instancePath, schemaPath)
		}
	case TypeTimestamp:
		str, ok := instance.(string)
		if !ok || !isRFC3339(str) {
			return st.fail(instancePath, schemaPath)
		}
	case TypeFloat32, TypeFloat64:
		if !isNumber(instance) {
			return st.fail(instancePath, schemaPath)
		}
	default:
		bounds, isInt := intBounds[t]
		if !isInt {
			return nil
		}
		n, ok := asFloat(instance)
		if !ok || n != float64(int64(n)) || n < bounds[0] || n > bounds[1] {
			return st.fail(instancePath, schemaPath)
		}
	}
	return nil
}

func isNumber(v interface{}) bool {
	_, ok := asFloat(v)
	return ok
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// isRFC3339 accepts RFC 3339 timestamps, normalizing a leap second
// (":60") to ":59" before delegating to time.Parse, since Go's time
// package has no leap-second representation.
func isRFC3339(s string) bool {
	normalized := s
	if len(s) >= 19 && s[16:19] == ":60" {
		normalized = s[:16] + ":59" + s[19:]
	}
	_, err := time.Parse(time.RFC3339, normalized)
	return err == nil
}
