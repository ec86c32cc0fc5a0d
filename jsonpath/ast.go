// Package jsonpath parses and evaluates Goessner-style JSONPath
// expressions, with the filter-expression grammar and script-expression
// extension described alongside the JSON Schema and JTD subsystems it
// ships beside.
package jsonpath

import jsonschema "github.com/jsonkit/jsonvalidate"

// Segment is one step of a compiled path: a function from a node set to a
// node set, applied left to right starting from the root value.
type Segment interface{ isSegment() }

// PropertyAccess selects a named member from every object node in the
// current set; array nodes are skipped, never implicitly flattened.
type PropertyAccess struct{ Name string }

// ArrayIndex selects a single element by index, normalizing negative
// indices against the array's length at evaluation time.
type ArrayIndex struct{ Index int }

// ArraySlice selects a range of array elements. A nil bound takes its
// direction-dependent default at evaluation time.
type ArraySlice struct {
	Start *int
	End   *int
	Step  *int
}

// Wildcard selects every object value or every array element.
type Wildcard struct{}

// RecursiveDescent applies Target to every node reached by a pre-order
// walk of the current node, including the node itself.
type RecursiveDescent struct{ Target Segment }

// Filter retains array elements for which Expr evaluates truthy with the
// element bound to the filter's current node ("@"). Filter only applies
// to array nodes.
type Filter struct{ Expr FilterExpr }

// Union concatenates the results of each of its Segments, in declaration
// order. Per the data model invariant, a well-formed Union has at least
// two selectors.
type Union struct{ Segments []Segment }

// ScriptExpression carries a raw script body. Only the literal text
// "@.length-1" (meaning "last index") has defined semantics; any other
// script is a documented no-op.
type ScriptExpression struct{ Text string }

func (PropertyAccess) isSegment()   {}
func (ArrayIndex) isSegment()       {}
func (ArraySlice) isSegment()       {}
func (Wildcard) isSegment()         {}
func (RecursiveDescent) isSegment() {}
func (Filter) isSegment()           {}
func (Union) isSegment()            {}
func (ScriptExpression) isSegment() {}

// FilterExpr is a node of the filter-expression grammar evaluated with an
// element bound to "@".
type FilterExpr interface{ isFilterExpr() }

// CmpOp is one of the six filter comparison operators.
type CmpOp string

// The comparison operators recognized inside filter expressions.
const (
	CmpEq CmpOp = "=="
	CmpNe CmpOp = "!="
	CmpLt CmpOp = "<"
	CmpLe CmpOp = "<="
	CmpGt CmpOp = ">"
	CmpGe CmpOp = ">="
)

// LogicalOp is one of AND, OR, NOT.
type LogicalOp string

// The logical operators recognized inside filter expressions.
const (
	LogicalAnd LogicalOp = "&&"
	LogicalOr  LogicalOp = "||"
	LogicalNot LogicalOp = "!"
)

// Exists is true iff Path resolves to a non-null existing member of the
// current node ("@").
type Exists struct{ Path []string }

// Comparison compares Left and Right with Op.
type Comparison struct {
	Left  FilterExpr
	Op    CmpOp
	Right FilterExpr
}

// Logical combines Left and Right (Right is nil for NOT, which negates
// Left only).
type Logical struct {
	Left  FilterExpr
	Op    LogicalOp
	Right FilterExpr
}

// CurrentNode is the bare "@" atom, referring to the element under test.
type CurrentNode struct{}

// PropertyPath is "@.a.b.c": a chain of property accesses rooted at the
// current node. Names is defensively copied on construction.
type PropertyPath struct{ Names []string }

// LiteralValue is a parsed JSON literal appearing inside a filter
// expression: a string, number, boolean, or null.
type LiteralValue struct{ Value jsonschema.Value }

func (Exists) isFilterExpr()        {}
func (Comparison) isFilterExpr()    {}
func (Logical) isFilterExpr()       {}
func (CurrentNode) isFilterExpr()   {}
func (PropertyPath) isFilterExpr()  {}
func (LiteralValue) isFilterExpr()  {}

// NewPropertyPath builds a PropertyPath, defensively copying names per
// the data model's list-copy invariant.
func NewPropertyPath(names []string) PropertyPath {
	cp := make([]string, len(names))
	copy(cp, names)
	return PropertyPath{Names: cp}
}

// NewUnion builds a Union, defensively copying segments. Callers are
// expected to have already checked len(segments) >= 2.
func NewUnion(segments []Segment) Union {
	cp := make([]Segment, len(segments))
	copy(cp, segments)
	return Union{Segments: cp}
}

// Path is a compiled JSONPath expression: a root marker plus an ordered
// list of segments.
type Path struct {
	Segments []Segment
}
