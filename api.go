package jsonschema

import "sort"

// CompileOptions configures a one-shot Compile call. It mirrors the fluent
// setters on Compiler for callers who don't need a shared, reusable
// compiler instance across many schemas.
type CompileOptions struct {
	// AssertFormats switches the "format" keyword from annotation-only to
	// assertion mode globally for this compile.
	AssertFormats bool
	// FetchPolicy bounds what $ref may dereference remotely. The zero value
	// is replaced with NewDefaultFetchPolicy.
	FetchPolicy FetchPolicy
	// RemoteFetcher supplies the capability used to retrieve documents
	// outside the compile-time registry. Nil falls back to the Compiler's
	// scheme Loaders (HTTP/HTTPS by default).
	RemoteFetcher RemoteFetcher
	// DefaultBaseURI resolves relative $id and $ref values when the root
	// schema has no $id of its own.
	DefaultBaseURI string
	// MaxDepth overrides the recursion guard; <= 0 keeps DefaultMaxDepth.
	MaxDepth int
}

// CompiledSchema is the immutable artifact produced by Compile. Once built
// it owns its IR exclusively and is safe for concurrent Validate calls from
// multiple goroutines, since compilation never mutates shared state again.
type CompiledSchema = Schema

// Compile parses and compiles a JSON Schema 2020-12 document (or a
// draft-07-compatible one, per §6's wire contract) into a CompiledSchema.
// It resolves $ref/$anchor/$dynamicRef, runs cycle analysis, and
// pre-compiles every pattern and patternProperties regex, caching each on
// its schema node so validation only reads it.
func Compile(schemaDoc []byte, options ...CompileOptions) (*CompiledSchema, error) {
	var opt CompileOptions
	if len(options) > 0 {
		opt = options[0]
	}
	if opt.FetchPolicy.AllowedSchemes == nil {
		opt.FetchPolicy = NewDefaultFetchPolicy()
	}

	compiler := NewCompiler()
	compiler.SetAssertFormat(opt.AssertFormats)
	compiler.SetFetchPolicy(opt.FetchPolicy)
	if opt.RemoteFetcher != nil {
		compiler.SetRemoteFetcher(opt.RemoteFetcher)
	}
	if opt.DefaultBaseURI != "" {
		compiler.SetDefaultBaseURI(opt.DefaultBaseURI)
	}
	if opt.MaxDepth > 0 {
		compiler.SetMaxDepth(opt.MaxDepth)
	}

	schema, err := compiler.Compile(schemaDoc)
	if err != nil {
		return nil, &SchemaCompilationError{Kind: KindSyntax, SchemaPointer: "", Message: err.Error(), Err: err}
	}

	if err := detectCyclicRefs(schema); err != nil {
		return nil, err
	}

	return schema, nil
}

// ValidationError is a single validation failure, carrying JSON-pointer
// paths relative to the instance and schema roots plus a human message.
type ValidationError struct {
	InstancePath string
	SchemaPath   string
	Message      string
}

// ValidationResult is the outcome of validating an instance against a
// CompiledSchema: Valid is true iff Errors is empty.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidateInstance evaluates instance against the compiled schema and
// flattens the internal EvaluationResult tree into the pre-order
// ValidationResult described in §4.H and §6. The summary errors of the
// $ref, $dynamicRef, items, prefixItems, properties and additionalProperties
// keywords are left out, since the failing child results they summarize are
// reported with their own errors.
func ValidateInstance(s *CompiledSchema, instance interface{}) ValidationResult {
	res := s.Validate(instance)
	var out []ValidationError
	flattenEvaluation(res, "", "", &out)
	return ValidationResult{Valid: len(out) == 0, Errors: out}
}

func flattenEvaluation(res *EvaluationResult, instPrefix, schemaPrefix string, out *[]ValidationError) {
	if res == nil {
		return
	}
	instPath := instPrefix + res.InstanceLocation
	schemaPath := schemaPrefix + res.EvaluationPath

	keywords := make([]string, 0, len(res.Errors))
	for kw := range res.Errors {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	summary := map[string]bool{"$ref": true, "$dynamicRef": true, "items": true, "prefixItems": true, "properties": true, "additionalProperties": true}
	for _, kw := range keywords {
		if summary[kw] {
			continue
		}
		err := res.Errors[kw]
		*out = append(*out, ValidationError{
			InstancePath: instPath,
			SchemaPath:   schemaPath + "/" + kw,
			Message:      err.Error(),
		})
	}

	for _, detail := range res.Details {
		flattenEvaluation(detail, instPath, schemaPath, out)
	}
}
