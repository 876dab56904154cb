package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
)

// ValueKind identifies which member of the JSON union a Value holds.
type ValueKind int

const (
	// KindAbsent is the zero Value: a lookup that found nothing.
	KindAbsent ValueKind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "absent"
	}
}

// Value is an immutable JSON value.
type Value struct {
	kind ValueKind
	b    bool
	n    json.Number
	s    string
	arr  []Value
	obj  Object
}

// Object is a JSON object. Key order is irrelevant.
type Object map[string]Value

func Null() Value { return Value{kind: KindNull} }
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }
func StringValue(s string) Value { return Value{kind: KindString, s: s} }
func NumberValue(n json.Number) Value { return Value{kind: KindNumber, n: n} }
func IntValue(i int64) Value { return NumberValue(json.Number(strconv.FormatInt(i, 10))) }

// FloatValue wraps f. NaN and infinities are kept as-is and make encoding fail.
func FloatValue(f float64) Value {
	return NumberValue(json.Number(strconv.FormatFloat(f, 'g', -1, 64)))
}

func ArrayValue(items ...Value) Value { return Value{kind: KindArray, arr: items} }
func ObjectValue(o Object) Value { return Value{kind: KindObject, obj: o} }

// FromAny converts native Go values (as produced by encoding/json, plus the
// common typed maps and slices) into a Value.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return val, nil
	case Object:
		return ObjectValue(val), nil
	case bool:
		return BoolValue(val), nil
	case string:
		return StringValue(val), nil
	case json.Number:
		return NumberValue(val), nil
	case int:
		return IntValue(int64(val)), nil
	case int32:
		return IntValue(int64(val)), nil
	case int64:
		return IntValue(val), nil
	case uint:
		return NumberValue(json.Number(strconv.FormatUint(uint64(val), 10))), nil
	case uint64:
		return NumberValue(json.Number(strconv.FormatUint(val, 10))), nil
	case float32:
		return FloatValue(float64(val)), nil
	case float64:
		return FloatValue(val), nil
	case []any:
		items := make([]Value, 0, len(val))
		for i, item := range val {
			converted, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items = append(items, converted)
		}
		return ArrayValue(items...), nil
	case []string:
		items := make([]Value, 0, len(val))
		for _, item := range val {
			items = append(items, StringValue(item))
		}
		return ArrayValue(items...), nil
	case []map[string]any:
		items := make([]Value, 0, len(val))
		for i, item := range val {
			converted, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items = append(items, converted)
		}
		return ArrayValue(items...), nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, item := range val {
			converted, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			obj[k] = converted
		}
		return ObjectValue(obj), nil
	case map[string]string:
		obj := make(Object, len(val))
		for k, item := range val {
			obj[k] = StringValue(item)
		}
		return ObjectValue(obj), nil
	default:
		return Value{}, fmt.Errorf("unsupported JSON value type %T", v)
	}
}

func (v Value) Kind() ValueKind { return v.kind }

// Exists reports whether the value is present. Null exists.
func (v Value) Exists() bool { return v.kind != KindAbsent }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsNumber returns the literal number as decoded.
func (v Value) AsNumber() (json.Number, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return v.n, true
}

// AsInt reports false for non-numbers and for numbers with a fractional part.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if i, err := v.n.Int64(); err == nil {
		return i, true
	}
	f, err := v.n.Float64()
	if err != nil || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := v.n.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

func (v Value) AsObject() (Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// Get returns the member named key, or an absent Value when v is not an
// object or has no such member.
func (v Value) Get(key string) Value {
	if v.kind != KindObject {
		return Value{}
	}
	return v.obj.Get(key)
}

// Index returns the i-th element, or an absent Value when out of range.
func (v Value) Index(i int) Value {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return Value{}
	}
	return v.arr[i]
}

// Len is the element count of arrays and the member count of objects.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	case KindString:
		return len(v.s)
	default:
		return 0
	}
}

// Interface converts v back into the native representation used by
// encoding/json with UseNumber enabled.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		return v.obj.Interface()
	default:
		return nil
	}
}

// Equal compares values structurally; numbers compare by numeric value.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == other.b
	case KindNumber:
		if v.n == other.n {
			return true
		}
		a, errA := v.n.Float64()
		b, errB := other.n.Float64()
		return errA == nil && errB == nil && a == b
	case KindString:
		return v.s == other.s
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
		return v.obj.Equal(other.obj)
	default:
		return true
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindAbsent, KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.n)
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		if v.arr == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.arr)
	case KindObject:
		return v.obj.MarshalJSON()
	default:
		return nil, fmt.Errorf("payload: unknown value kind %d", v.kind)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	native, err := decodeNative(data)
	if err != nil {
		return err
	}
	converted, err := FromAny(native)
	if err != nil {
		return err
	}
	*v = converted
	return nil
}

// Get returns the member named key, or an absent Value.
func (o Object) Get(key string) Value {
	if o == nil {
		return Value{}
	}
	return o[key]
}

// Keys returns the member names in sorted order.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (o Object) Interface() map[string]any {
	out := make(map[string]any, len(o))
	for k, v := range o {
		out[k] = v.Interface()
	}
	return out
}

func (o Object) Equal(other Object) bool {
	if len(o) != len(other) {
		return false
	}
	for k, v := range o {
		ov, ok := other[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func (o Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]Value(o))
}

// decodeNative decodes exactly one JSON document, keeping numbers literal.
func decodeNative(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var native any
	if err := dec.Decode(&native); err != nil {
		return nil, err
	}
	// Anything but whitespace after the document, including a stray closing
	// delimiter, makes the input invalid.
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("payload: trailing data after JSON document")
	}
	return native, nil
}
