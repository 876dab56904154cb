package payload

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMaps_Array(t *testing.T) {
	p, err := FromMaps([]map[string]any{{"test": 1}})
	require.NoError(t, err)

	_, isObject := p.Object()
	assert.False(t, isObject)

	items, ok := p.Array()
	require.True(t, ok)
	assert.Len(t, items, 1)

	data, err := p.Bytes()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"test":1}]`, string(data))
}

func TestFromMap_Object(t *testing.T) {
	p, err := FromMap(map[string]any{"test": 1})
	require.NoError(t, err)

	_, isArray := p.Array()
	assert.False(t, isArray)

	n, ok := p.Get("test").AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(1), n)

	data, err := p.Bytes()
	require.NoError(t, err)
	assert.Equal(t, `{"test":1}`, string(data))
}

func TestFromBytes(t *testing.T) {
	t.Run("object keeps original bytes", func(t *testing.T) {
		data := []byte(`{"employees":{"employee":[{"id":"1","firstName":"Tom","lastName":"Cruise"}]}}`)
		p := FromBytes(data)

		assert.Equal(t, ShapeObject, p.Shape())
		out, err := p.Bytes()
		require.NoError(t, err)
		assert.Equal(t, data, out)

		first := p.Get("employees").Get("employee").Index(0)
		name, ok := first.Get("firstName").AsString()
		require.True(t, ok)
		assert.Equal(t, "Tom", name)
	})

	t.Run("array of objects", func(t *testing.T) {
		data := []byte(`[{"id":"1","firstName":"Tom","lastName":"Cruise"}]`)
		p := FromBytes(data)

		_, isObject := p.Object()
		assert.False(t, isObject)
		items, ok := p.Array()
		require.True(t, ok)
		assert.Len(t, items, 1)

		out, err := p.Bytes()
		require.NoError(t, err)
		assert.Equal(t, data, out)
	})

	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"not json", "hello, teapot"},
		{"string", `"just a string"`},
		{"number", `42`},
		{"array of scalars", `[1, 2, 3]`},
		{"mixed array", `[{"a": 1}, 2]`},
		{"trailing garbage", `{"a": 1} nope`},
		{"second document", `{"a": 1} {"b": 2}`},
		{"stray brace", `{"a":1}}`},
		{"stray bracket after object", `{"a":1}]`},
		{"stray bracket after array", `[{"a":1}]]`},
	}
	for _, tt := range tests {
		t.Run("falls back to bytes: "+tt.name, func(t *testing.T) {
			p := FromBytes([]byte(tt.data))
			assert.Equal(t, ShapeBytes, p.Shape())
			assert.False(t, p.IsJSON())

			out, err := p.Bytes()
			require.NoError(t, err)
			assert.Equal(t, tt.data, string(out))
		})
	}
}

func TestPayload_RoundTrip(t *testing.T) {
	docs := []string{
		`{"key":"value","n":2,"nested":{"list":[true,null,1.5]}}`,
		`[{"a":1},{"b":"two"}]`,
		`[]`,
		`{}`,
	}
	for _, doc := range docs {
		first, ok := Decode([]byte(doc))
		require.True(t, ok, doc)

		// rebuild from the decoded value so encoding happens from scratch
		var rebuilt *Payload
		if obj, isObj := first.Object(); isObj {
			rebuilt = NewObject(obj)
		} else {
			items, _ := first.Array()
			rebuilt = NewArray(items)
		}

		data, err := rebuilt.Bytes()
		require.NoError(t, err)
		assert.JSONEq(t, doc, string(data))

		second, ok := Decode(data)
		require.True(t, ok)
		assert.True(t, first.Equal(second))
	}
}

func TestPayload_InvalidNumberFailsToEncode(t *testing.T) {
	p := NewObject(Object{"bad": FloatValue(math.NaN())})
	_, err := p.Bytes()
	assert.Error(t, err)
}

func TestValue_AccessorsReportMismatch(t *testing.T) {
	v := StringValue("teapot")

	_, ok := v.AsInt()
	assert.False(t, ok)
	_, ok = v.AsBool()
	assert.False(t, ok)
	_, ok = v.AsObject()
	assert.False(t, ok)
	assert.False(t, v.Get("anything").Exists())
	assert.False(t, v.Index(0).Exists())

	s, ok := v.AsString()
	assert.True(t, ok)
	assert.Equal(t, "teapot", s)

	absent := Value{}
	assert.False(t, absent.Exists())
	assert.False(t, absent.Get("x").Get("y").Exists())
}

func TestValue_Numbers(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`12345678901234567`), &v))

	i, ok := v.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(12345678901234567), i)

	require.NoError(t, json.Unmarshal([]byte(`2.5`), &v))
	_, ok = v.AsInt()
	assert.False(t, ok)
	f, ok := v.AsFloat()
	require.True(t, ok)
	assert.Equal(t, 2.5, f)

	assert.True(t, IntValue(3).Equal(FloatValue(3)))
}

func TestValue_UnmarshalNull(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`null`), &v))
	assert.True(t, v.Exists())
	assert.True(t, v.IsNull())
}

func TestFromAny_Unsupported(t *testing.T) {
	_, err := FromAny(map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}

func TestDecode_AllowsTrailingWhitespace(t *testing.T) {
	p, ok := Decode([]byte("{\"a\": 1}\n\t "))
	require.True(t, ok)
	assert.Equal(t, ShapeObject, p.Shape())

	_, ok = Decode([]byte(`{"a":1}}`))
	assert.False(t, ok)
}
