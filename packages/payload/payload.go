package payload

import (
	"encoding/json"
	"fmt"
)

// Shape identifies which variant a Payload holds.
type Shape int

const (
	ShapeObject Shape = iota + 1
	ShapeArray
	ShapeBytes
)

func (s Shape) String() string {
	switch s {
	case ShapeObject:
		return "object"
	case ShapeArray:
		return "array"
	case ShapeBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Payload is a request or response body: a JSON object, a JSON array of
// objects, or opaque bytes. The zero value is not valid; use a constructor.
type Payload struct {
	shape  Shape
	object Object
	array  []Object
	raw    []byte // original bytes when built from data
}

// NewObject wraps a JSON object.
func NewObject(o Object) *Payload {
	if o == nil {
		o = Object{}
	}
	return &Payload{shape: ShapeObject, object: o}
}

// NewArray wraps an array of JSON objects.
func NewArray(items []Object) *Payload {
	if items == nil {
		items = []Object{}
	}
	return &Payload{shape: ShapeArray, array: items}
}

// NewBytes wraps data as an opaque body without attempting to decode it.
func NewBytes(data []byte) *Payload {
	return &Payload{shape: ShapeBytes, raw: data}
}

// FromMap converts a native map into an object payload.
func FromMap(m map[string]any) (*Payload, error) {
	v, err := FromAny(m)
	if err != nil {
		return nil, err
	}
	obj, _ := v.AsObject()
	return NewObject(obj), nil
}

// FromMaps converts native maps into an array payload.
func FromMaps(items []map[string]any) (*Payload, error) {
	out := make([]Object, 0, len(items))
	for i, m := range items {
		v, err := FromAny(m)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		obj, _ := v.AsObject()
		out = append(out, obj)
	}
	return NewArray(out), nil
}

// FromBytes decodes data as a JSON object or array of objects, falling back
// to an opaque Bytes payload for anything else.
func FromBytes(data []byte) *Payload {
	if p, ok := Decode(data); ok {
		return p
	}
	return NewBytes(data)
}

// Decode is the strict form of FromBytes: it reports false unless data holds
// a JSON object or an array whose every element is an object.
func Decode(data []byte) (*Payload, bool) {
	if len(data) == 0 {
		return nil, false
	}
	native, err := decodeNative(data)
	if err != nil {
		return nil, false
	}
	switch val := native.(type) {
	case map[string]any:
		v, err := FromAny(val)
		if err != nil {
			return nil, false
		}
		obj, _ := v.AsObject()
		return &Payload{shape: ShapeObject, object: obj, raw: data}, true
	case []any:
		items := make([]Object, 0, len(val))
		for _, item := range val {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			v, err := FromAny(m)
			if err != nil {
				return nil, false
			}
			obj, _ := v.AsObject()
			items = append(items, obj)
		}
		return &Payload{shape: ShapeArray, array: items, raw: data}, true
	default:
		return nil, false
	}
}

func (p *Payload) Shape() Shape { return p.shape }

// IsJSON reports whether the payload holds structured JSON content.
func (p *Payload) IsJSON() bool {
	return p.shape == ShapeObject || p.shape == ShapeArray
}

// Object returns the object content, or false for other shapes.
func (p *Payload) Object() (Object, bool) {
	if p == nil || p.shape != ShapeObject {
		return nil, false
	}
	return p.object, true
}

// Array returns the array content, or false for other shapes.
func (p *Payload) Array() ([]Object, bool) {
	if p == nil || p.shape != ShapeArray {
		return nil, false
	}
	return p.array, true
}

// Get looks up key in an object payload.
func (p *Payload) Get(key string) Value {
	obj, ok := p.Object()
	if !ok {
		return Value{}
	}
	return obj.Get(key)
}

// Value returns the payload as a single JSON Value. Bytes payloads are absent.
func (p *Payload) Value() Value {
	if p == nil {
		return Value{}
	}
	switch p.shape {
	case ShapeObject:
		return ObjectValue(p.object)
	case ShapeArray:
		items := make([]Value, len(p.array))
		for i, obj := range p.array {
			items[i] = ObjectValue(obj)
		}
		return ArrayValue(items...)
	default:
		return Value{}
	}
}

// Bytes returns the wire form of the payload. Payloads decoded from data
// return that data unchanged.
func (p *Payload) Bytes() ([]byte, error) {
	if p.raw != nil {
		return p.raw, nil
	}
	switch p.shape {
	case ShapeObject:
		return json.Marshal(p.object)
	case ShapeArray:
		return json.Marshal(p.array)
	case ShapeBytes:
		return []byte{}, nil
	default:
		return nil, fmt.Errorf("payload: invalid shape %d", p.shape)
	}
}

// Equal compares payloads by content. JSON payloads ignore key order.
func (p *Payload) Equal(other *Payload) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.shape != other.shape {
		return false
	}
	if p.shape == ShapeBytes {
		return string(p.raw) == string(other.raw)
	}
	return p.Value().Equal(other.Value())
}
