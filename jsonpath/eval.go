package jsonpath

import (
	"log"

	jsonschema "github.com/jsonkit/jsonvalidate"
)

// CompiledPath is the result of Compile: a parsed expression ready to be
// run against any number of instances via Query.
type CompiledPath struct {
	path *Path
	text string
}

// Compile parses text into a CompiledPath, failing with a *ParseError on
// any syntactic violation.
func Compile(text string) (*CompiledPath, error) {
	p, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return &CompiledPath{path: p, text: text}, nil
}

// String returns the original path text.
func (c *CompiledPath) String() string { return c.text }

// Query applies c to instance, returning the ordered, deterministic
// sequence of matched values described in §4.C.
func (c *CompiledPath) Query(instance jsonschema.Value) []jsonschema.Value {
	return Query(c.path, instance)
}

// Query applies path to instance directly, without requiring a
// previously-built CompiledPath.
func Query(path *Path, instance jsonschema.Value) []jsonschema.Value {
	nodes := []jsonschema.Value{instance}
	for _, seg := range path.Segments {
		nodes = applySegment(seg, nodes)
	}
	return nodes
}

func applySegment(seg Segment, nodes []jsonschema.Value) []jsonschema.Value {
	switch s := seg.(type) {
	case PropertyAccess:
		var out []jsonschema.Value
		for _, n := range nodes {
			if obj, ok := n.Object(); ok {
				if v, present := obj.Get(s.Name); present {
					out = append(out, v)
				}
			}
		}
		return out

	case ArrayIndex:
		var out []jsonschema.Value
		for _, n := range nodes {
			arr, ok := n.Array()
			if !ok {
				continue
			}
			idx := normalizeIndex(s.Index, len(arr))
			if idx >= 0 && idx < len(arr) {
				out = append(out, arr[idx])
			}
		}
		return out

	case ArraySlice:
		var out []jsonschema.Value
		for _, n := range nodes {
			arr, ok := n.Array()
			if !ok {
				continue
			}
			out = append(out, sliceArray(s, arr)...)
		}
		return out

	case Wildcard:
		var out []jsonschema.Value
		for _, n := range nodes {
			switch n.Kind() {
			case jsonschema.KindArray:
				arr, _ := n.Array()
				out = append(out, arr...)
			case jsonschema.KindObject:
				obj, _ := n.Object()
				for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
					out = append(out, pair.Value)
				}
			}
		}
		return out

	case RecursiveDescent:
		var out []jsonschema.Value
		for _, n := range nodes {
			walkPreOrder(n, func(visited jsonschema.Value) {
				out = append(out, applySegment(s.Target, []jsonschema.Value{visited})...)
			})
		}
		return out

	case Filter:
		var out []jsonschema.Value
		for _, n := range nodes {
			arr, ok := n.Array()
			if !ok {
				continue
			}
			for _, elem := range arr {
				if truthy(s.Expr, elem) {
					out = append(out, elem)
				}
			}
		}
		return out

	case Union:
		var out []jsonschema.Value
		for _, sub := range s.Segments {
			out = append(out, applySegment(sub, nodes)...)
		}
		return out

	case ScriptExpression:
		// The only mandatory script form, "@.length-1", selects the last
		// array element — equivalent to the index selector len-1 — rather
		// than returning the index itself. Any other script text is a
		// no-op.
		var out []jsonschema.Value
		if s.Text == "@.length-1" {
			for _, n := range nodes {
				if arr, ok := n.Array(); ok && len(arr) > 0 {
					out = append(out, arr[len(arr)-1])
				}
			}
		} else {
			log.Printf("jsonpath: unsupported script expression %q, ignoring", s.Text)
		}
		return out

	default:
		return nil
	}
}

func normalizeIndex(i, length int) int {
	if i < 0 {
		return length + i
	}
	return i
}

// sliceArray implements the ArraySlice semantics of §4.C: default step 1,
// step 0 yields nothing, positive step clamps start/end to [0,len],
// negative step defaults start to len-1 and end to -1 (exclusive) and
// clamps within range.
func sliceArray(s ArraySlice, arr []jsonschema.Value) []jsonschema.Value {
	length := len(arr)
	step := 1
	if s.Step != nil {
		step = *s.Step
	}
	if step == 0 {
		return nil
	}

	var out []jsonschema.Value
	if step > 0 {
		start, end := 0, length
		if s.Start != nil {
			start = clamp(normalizeIndex(*s.Start, length), 0, length)
		}
		if s.End != nil {
			end = clamp(normalizeIndex(*s.End, length), 0, length)
		}
		for i := start; i < end; i += step {
			out = append(out, arr[i])
		}
		return out
	}

	start, end := length-1, -1
	if s.Start != nil {
		start = clamp(normalizeIndex(*s.Start, length), -1, length-1)
	}
	if s.End != nil {
		end = clamp(normalizeIndex(*s.End, length), -1, length-1)
	}
	for i := start; i > end; i += step {
		if i < 0 || i >= length {
			continue
		}
		out = append(out, arr[i])
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// walkPreOrder visits root and every descendant in pre-order, calling
// visit on each.
func walkPreOrder(v jsonschema.Value, visit func(jsonschema.Value)) {
	visit(v)
	switch v.Kind() {
	case jsonschema.KindArray:
		arr, _ := v.Array()
		for _, item := range arr {
			walkPreOrder(item, visit)
		}
	case jsonschema.KindObject:
		obj, _ := v.Object()
		for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
			walkPreOrder(pair.Value, visit)
		}
	}
}

// truthy evaluates expr with current bound to "@", per the filter
// expression semantics of §4.C.
func truthy(expr FilterExpr, current jsonschema.Value) bool {
	switch e := expr.(type) {
	case Exists:
		v, ok := resolvePath(e.Path, current)
		return ok && !v.IsNull()
	case PropertyPath:
		v, ok := resolvePath(e.Names, current)
		return ok && !v.IsNull()
	case CurrentNode:
		return !current.IsNull()
	case LiteralValue:
		return truthyValue(e.Value)
	case Logical:
		switch e.Op {
		case LogicalNot:
			return !truthy(e.Left, current)
		case LogicalAnd:
			return truthy(e.Left, current) && truthy(e.Right, current)
		case LogicalOr:
			return truthy(e.Left, current) || truthy(e.Right, current)
		}
		return false
	case Comparison:
		return evalComparison(e, current)
	default:
		return false
	}
}

func truthyValue(v jsonschema.Value) bool {
	switch v.Kind() {
	case jsonschema.KindNull:
		return false
	case jsonschema.KindBool:
		b, _ := v.Bool()
		return b
	default:
		return true
	}
}

func resolvePath(names []string, current jsonschema.Value) (jsonschema.Value, bool) {
	v := current
	for _, name := range names {
		obj, ok := v.Object()
		if !ok {
			return jsonschema.Value{}, false
		}
		next, present := obj.Get(name)
		if !present {
			return jsonschema.Value{}, false
		}
		v = next
	}
	return v, true
}

func resolveAtom(expr FilterExpr, current jsonschema.Value) (jsonschema.Value, bool) {
	switch e := expr.(type) {
	case CurrentNode:
		return current, true
	case PropertyPath:
		return resolvePath(e.Names, current)
	case LiteralValue:
		return e.Value, true
	default:
		return jsonschema.Value{}, false
	}
}

// evalComparison implements the cross-type comparison rule of §4.C:
// numeric comparisons coerce only within numeric types, string
// comparisons are lexicographic, and cross-type comparisons yield false
// except ==/!= which yield false/true respectively.
func evalComparison(c Comparison, current jsonschema.Value) bool {
	left, lok := resolveAtom(c.Left, current)
	right, rok := resolveAtom(c.Right, current)
	if !lok || !rok {
		return c.Op == CmpNe
	}

	if left.Kind() != right.Kind() {
		switch c.Op {
		case CmpEq:
			return false
		case CmpNe:
			return true
		default:
			return false
		}
	}

	switch left.Kind() {
	case jsonschema.KindNumber:
		ln, _ := left.AsNumber()
		rn, _ := right.AsNumber()
		return compareFloats(ln.Float64(), rn.Float64(), c.Op)
	case jsonschema.KindString:
		ls, _ := left.String()
		rs, _ := right.String()
		return compareStrings(ls, rs, c.Op)
	default:
		switch c.Op {
		case CmpEq:
			return left.Equal(right)
		case CmpNe:
			return !left.Equal(right)
		default:
			return false
		}
	}
}

func compareFloats(a, b float64, op CmpOp) bool {
	switch op {
	case CmpEq:
		return a == b
	case CmpNe:
		return a != b
	case CmpLt:
		return a < b
	case CmpLe:
		return a <= b
	case CmpGt:
		return a > b
	case CmpGe:
		return a >= b
	default:
		return false
	}
}

func compareStrings(a, b string, op CmpOp) bool {
	switch op {
	case CmpEq:
		return a == b
	case CmpNe:
		return a != b
	case CmpLt:
		return a < b
	case CmpLe:
		return a <= b
	case CmpGt:
		return a > b
	case CmpGe:
		return a >= b
	default:
		return false
	}
}
