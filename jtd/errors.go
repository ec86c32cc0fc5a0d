package jtd

// SchemaErrorKind enumerates the ways a JTD schema can be malformed.
type SchemaErrorKind string

// Schema error kinds, per RFC 8927 §2.1's form-validity rules.
const (
	ErrInvalidForm                  SchemaErrorKind = "InvalidForm"
	ErrNonRootDefinition            SchemaErrorKind = "NonRootDefinition"
	ErrNoSuchDefinition             SchemaErrorKind = "NoSuchDefinition"
	ErrInvalidType                  SchemaErrorKind = "InvalidType"
	ErrEmptyEnum                    SchemaErrorKind = "EmptyEnum"
	ErrRepeatedEnumValue            SchemaErrorKind = "RepeatedEnumValue"
	ErrSharedProperty               SchemaErrorKind = "SharedProperty"
	ErrNonPropertiesMapping         SchemaErrorKind = "NonPropertiesMapping"
	ErrMappingRepeatedDiscriminator SchemaErrorKind = "MappingRepeatedDiscriminator"
	ErrNullableMapping              SchemaErrorKind = "NullableMapping"
)

// SchemaError reports that a schema violates RFC 8927's well-formedness
// rules, naming the schema path at which the violation was found.
type SchemaError struct {
	Kind    SchemaErrorKind
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	return "jtd: " + string(e.Kind) + " at " + e.Path + ": " + e.Message
}

// ErrMaxDepthExceeded is returned by Validate when following "ref" chains
// exceeds the configured max depth, guarding against unbounded recursion
// through mutually-referential definitions.
var ErrMaxDepthExceeded = &depthError{}

type depthError struct{}

func (*depthError) Error() string { return "jtd: max depth exceeded" }
