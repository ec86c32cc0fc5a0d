package jsonschema

import "strings"

// SchemaCompilationErrorKind enumerates the compile-time failure taxonomy:
// every compile failure falls into exactly one of these buckets and names
// the schema pointer at which it occurred.
type SchemaCompilationErrorKind string

// Compile failure kinds, see §4.F and §7.
const (
	KindSyntax             SchemaCompilationErrorKind = "SyntaxError"
	KindUnresolvedRef      SchemaCompilationErrorKind = "UnresolvedRef"
	KindCyclicRef          SchemaCompilationErrorKind = "CyclicRef"
	KindUnsupportedKeyword SchemaCompilationErrorKind = "UnsupportedKeyword"
)

// SchemaCompilationError reports a failure during Compile, always naming the
// schema pointer at which compilation gave up.
type SchemaCompilationError struct {
	Kind          SchemaCompilationErrorKind
	SchemaPointer string
	Message       string
	Err           error
}

func (e *SchemaCompilationError) Error() string {
	return string(e.Kind) + " at " + e.SchemaPointer + ": " + e.Message
}

func (e *SchemaCompilationError) Unwrap() error { return e.Err }

// isRefOnly reports whether s carries no keyword besides $ref/$dynamicRef
// (plus metadata). Only ref-only nodes can participate in a fatal
// reference-only cycle: a node with even one intervening assertion or
// applicator breaks the cycle, since 2020-12 explicitly allows recursive
// schemas realized through applicators like "properties".
func isRefOnly(s *Schema) bool {
	if s == nil || s.Boolean != nil {
		return false
	}
	if s.Ref == "" && s.DynamicRef == "" {
		return false
	}
	return len(s.Type) == 0 && s.Enum == nil && s.Const == nil &&
		s.AllOf == nil && s.AnyOf == nil && s.OneOf == nil && s.Not == nil &&
		s.If == nil && s.Then == nil && s.Else == nil && s.DependentSchemas == nil &&
		s.Properties == nil && s.PatternProperties == nil && s.AdditionalProperties == nil &&
		s.PropertyNames == nil && s.Items == nil && s.PrefixItems == nil && s.Contains == nil &&
		s.MinLength == nil && s.MaxLength == nil && s.Pattern == nil &&
		s.Minimum == nil && s.Maximum == nil && s.ExclusiveMinimum == nil && s.ExclusiveMaximum == nil && s.MultipleOf == nil &&
		s.MinItems == nil && s.MaxItems == nil && s.UniqueItems == nil &&
		s.MinProperties == nil && s.MaxProperties == nil && len(s.Required) == 0 &&
		s.DependentRequired == nil &&
		s.UnevaluatedItems == nil && s.UnevaluatedProperties == nil
}

func refTarget(s *Schema) *Schema {
	if s.ResolvedRef != nil {
		return s.ResolvedRef
	}
	return s.ResolvedDynamicRef
}

// schemaChildren returns every direct subschema slot of s, mirroring the
// traversal in initializeNestedSchemasCore.
func schemaChildren(s *Schema) []*Schema {
	var children []*Schema
	add := func(c *Schema) {
		if c != nil {
			children = append(children, c)
		}
	}
	for _, def := range s.Defs {
		add(def)
	}
	for _, sub := range s.AllOf {
		add(sub)
	}
	for _, sub := range s.AnyOf {
		add(sub)
	}
	for _, sub := range s.OneOf {
		add(sub)
	}
	add(s.Not)
	add(s.If)
	add(s.Then)
	add(s.Else)
	for _, sub := range s.DependentSchemas {
		add(sub)
	}
	for _, sub := range s.PrefixItems {
		add(sub)
	}
	add(s.Items)
	add(s.Contains)
	add(s.AdditionalProperties)
	if s.Properties != nil {
		for _, sub := range *s.Properties {
			add(sub)
		}
	}
	if s.PatternProperties != nil {
		for _, sub := range *s.PatternProperties {
			add(sub)
		}
	}
	add(s.UnevaluatedProperties)
	add(s.UnevaluatedItems)
	add(s.ContentSchema)
	add(s.PropertyNames)
	return children
}

// detectCyclicRefs implements Phase 4 (Cycle analysis) of §4.F: it walks
// every reachable node and, for each ref-only node, follows its $ref chain
// looking for a revisit within that chain. Cycles through an intervening
// applicator (caught by isRefOnly returning false) are legal recursive
// schemas and are left alone.
func detectCyclicRefs(root *Schema) error {
	seen := make(map[*Schema]bool)
	var walk func(s *Schema) error
	walk = func(s *Schema) error {
		if s == nil || seen[s] {
			return nil
		}
		seen[s] = true

		if isRefOnly(s) {
			if err := followRefChain(s); err != nil {
				return err
			}
		}

		for _, child := range schemaChildren(s) {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}

// followRefChain walks the ref-only chain starting at s, failing with a
// CyclicRef error if a node reappears before the chain terminates in a
// non-ref-only node.
func followRefChain(s *Schema) error {
	onPath := map[*Schema]bool{}
	var pointers []string
	cur := s
	for cur != nil && isRefOnly(cur) {
		if onPath[cur] {
			pointers = append(pointers, cur.Ref+cur.DynamicRef)
			return &SchemaCompilationError{
				Kind:          KindCyclicRef,
				SchemaPointer: strings.Join(pointers, " -> "),
				Message:       "reference-only cycle with no intervening assertion keyword",
			}
		}
		onPath[cur] = true
		pointers = append(pointers, cur.Ref+cur.DynamicRef)
		cur = refTarget(cur)
	}
	return nil
}
