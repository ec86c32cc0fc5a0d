package jsonschema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies which variant of the closed JSON value sum type a Value
// holds. Validators pattern-match on Kind rather than type-asserting on an
// open interface, keeping the abstraction closed per §4.A.
type Kind int

// The six JSON value variants, plus Number splitting into its own carrier.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Number carries both the exact textual form of a JSON number, as it
// appeared in the source document, and its double projection. Equality
// between Numbers is by normalized numeric value, so "1" and "1.0" compare
// equal even though their textual forms differ.
type Number struct {
	text string
	f    float64
}

// ParseNumber builds a Number from its JSON textual form.
func ParseNumber(text string) (Number, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Number{}, fmt.Errorf("jsonschema: invalid number literal %q: %w", text, err)
	}
	return Number{text: text, f: f}, nil
}

// NumberFromFloat64 builds a Number from a double, rendering its textual
// form with strconv's shortest round-tripping representation.
func NumberFromFloat64(f float64) Number {
	return Number{text: strconv.FormatFloat(f, 'g', -1, 64), f: f}
}

// Float64 returns the Number's double projection.
func (n Number) Float64() float64 { return n.f }

// Text returns the Number's exact textual form as it appeared in source.
func (n Number) Text() string { return n.text }

// IsInteger reports whether the Number has a zero fractional part.
func (n Number) IsInteger() bool {
	if bf, ok := new(big.Float).SetString(n.text); ok {
		_, acc := bf.Int(nil)
		return acc == big.Exact
	}
	return n.f == float64(int64(n.f))
}

// Equal compares two Numbers by normalized numeric value, so 1 == 1.0 per
// JSON number equality (§8 property 4).
func (n Number) Equal(other Number) bool {
	if bn, ok := new(big.Float).SetString(n.text); ok {
		if bo, ok := new(big.Float).SetString(other.text); ok {
			return bn.Cmp(bo) == 0
		}
	}
	return n.f == other.f
}

// Value is the closed JSON value abstraction shared by the schema,
// JSONPath, and JTD subsystems (§3). Numbers retain their exact textual
// form alongside a double projection; object members preserve insertion
// order via an ordered map so that deterministic key iteration, and hence
// deterministic error output, does not depend on Go's randomized map
// iteration order.
type Value struct {
	kind Kind
	b    bool
	num  Number
	str  string
	arr  []Value
	obj  *orderedmap.OrderedMap[string, Value]
}

// Null is the JSON null value.
var Null = Value{kind: KindNull}

// NewBool wraps a boolean as a Value.
func NewBool(b bool) Value { return Value{kind: KindBool, b: b} }

// NewNumber wraps a Number as a Value.
func NewNumber(n Number) Value { return Value{kind: KindNumber, num: n} }

// NewString wraps a string as a Value.
func NewString(s string) Value { return Value{kind: KindString, str: s} }

// NewArray wraps a slice of Values as a Value. The slice is defensively
// copied so later mutation of the caller's slice cannot reach back into the
// Value, mirroring the JSONPath AST's copy-on-construction discipline.
func NewArray(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindArray, arr: cp}
}

// NewObject wraps an ordered map of Values as a Value.
func NewObject(members *orderedmap.OrderedMap[string, Value]) Value {
	if members == nil {
		members = orderedmap.New[string, Value]()
	}
	return Value{kind: KindObject, obj: members}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns v's boolean payload and whether v is a KindBool.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns v's Number payload and whether v is a KindNumber.
func (v Value) AsNumber() (Number, bool) { return v.num, v.kind == KindNumber }

// String returns v's string payload and whether v is a KindString.
func (v Value) String() (string, bool) { return v.str, v.kind == KindString }

// Array returns v's elements in index order and whether v is a KindArray.
func (v Value) Array() ([]Value, bool) { return v.arr, v.kind == KindArray }

// Object returns v's backing ordered map and whether v is a KindObject.
func (v Value) Object() (*orderedmap.OrderedMap[string, Value], bool) {
	return v.obj, v.kind == KindObject
}

// Get returns the member named key and whether it is present, for object
// values only.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	return v.obj.Get(key)
}

// Len returns the number of elements (array) or members (object); 0
// otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	default:
		return 0
	}
}

// Equal implements the structural equality of §3: objects compare by key
// set and per-key equality (key order irrelevant); arrays compare
// position-wise; numbers compare by normalized numeric value.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.num.Equal(other.num)
	case KindString:
		return v.str == other.str
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if v.obj.Len() != other.obj.Len() {
			return false
		}
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			ov, ok := other.obj.Get(pair.Key)
			if !ok || !pair.Value.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// FromJSON parses raw JSON bytes into a Value, preserving object member
// insertion order. It uses a token-level decoder rather than unmarshaling
// into map[string]interface{} specifically so object key order survives,
// which the native Go map-based representation cannot guarantee.
func FromJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("jsonschema: trailing data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null, nil
	case bool:
		return NewBool(t), nil
	case json.Number:
		n, err := ParseNumber(string(t))
		if err != nil {
			return Value{}, err
		}
		return NewNumber(n), nil
	case string:
		return NewString(t), nil
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, err
			}
			return NewArray(items), nil
		case '{':
			members := orderedmap.New[string, Value]()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("jsonschema: non-string object key %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				members.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, err
			}
			return NewObject(members), nil
		}
	}
	return Value{}, fmt.Errorf("jsonschema: unexpected JSON token %v", tok)
}

// MarshalJSON renders v back to canonical JSON text, preserving object
// member order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		buf.WriteString(v.num.text)
	case KindString:
		enc, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(enc)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		i := 0
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			if i > 0 {
				buf.WriteByte(',')
			}
			i++
			keyEnc, err := json.Marshal(pair.Key)
			if err != nil {
				return err
			}
			buf.Write(keyEnc)
			buf.WriteByte(':')
			if err := pair.Value.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so a Value can sit directly in a
// struct field decoded by encoding/json or go-json-experiment/json's legacy
// compatibility shim (Schema's Enum/Const/Default/Examples fields). It
// delegates to FromJSON rather than the stdlib's own object decoding so
// member order is preserved even when the surrounding struct is decoded
// through the map[string]interface{}-based path.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ToNative converts v into the map[string]interface{}/[]interface{}
// representation used at the two places the validator engine (§4.H) must
// still cross into plain interface{}: the public ValidateInstance entry
// point (api.go) and the custom format/content-media-type extension points
// (formats.go, compiler.go's MediaTypes), whose signatures predate Value and
// are left untouched so existing RegisterFormat/RegisterMediaType callers
// keep compiling. The conversion is lossless for validation purposes: object
// key order is still available by re-deriving it from v, but the validator
// itself does not need it since every multi-key error path already sorts
// for determinism (see objects.go).
func (v Value) ToNative() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.num.f
	case KindString:
		return v.str
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.ToNative()
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, v.obj.Len())
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = pair.Value.ToNative()
		}
		return out
	default:
		return nil
	}
}

// FromNative converts the native interface{} representation produced by
// encoding/json or go-json-experiment/json, plus Go int and int64 values,
// back into a Value. Since Go's
// built-in map[string]interface{} does not preserve key order, objects
// decoded this way iterate in sorted key order rather than original
// document order; prefer FromJSON when source key order matters.
func FromNative(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case bool:
		return NewBool(t)
	case string:
		return NewString(t)
	case json.Number:
		n, _ := ParseNumber(string(t))
		return NewNumber(n)
	case float64:
		return NewNumber(NumberFromFloat64(t))
	case int:
		n, _ := ParseNumber(strconv.Itoa(t))
		return NewNumber(n)
	case int64:
		n, _ := ParseNumber(strconv.FormatInt(t, 10))
		return NewNumber(n)
	case []interface{}:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromNative(item)
		}
		return NewArray(items)
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := orderedmap.New[string, Value]()
		for _, k := range keys {
			members.Set(k, FromNative(t[k]))
		}
		return NewObject(members)
	default:
		return Null
	}
}
