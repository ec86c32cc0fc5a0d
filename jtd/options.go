package jtd

// ValidateOption configures a Validate call. The zero value of
// validateConfig imposes no depth or error-count limit.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	maxDepth  int
	maxErrors int
}

// WithMaxDepth bounds how many "ref" indirections Validate will follow
// before giving up with ErrMaxDepthExceeded. Use this when schemas may
// come from an untrusted source and could contain a reference cycle that
// RFC 8927 permits at the schema level but that would recurse forever at
// validation time (e.g. two definitions that ref each other with no base
// case).
func WithMaxDepth(max int) ValidateOption {
	return func(c *validateConfig) { c.maxDepth = max }
}

// WithMaxErrors stops Validate once it has collected max errors, returning
// early rather than walking the rest of the instance. Ordering of the
// returned errors up to that point matches the unlimited case.
func WithMaxErrors(max int) ValidateOption {
	return func(c *validateConfig) { c.maxErrors = max }
}
