package builtin

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Call(t *testing.T) {
	r := NewRegistry()

	v, ok, err := r.Call(`basicAuth("admin", "test123")`)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Basic YWRtaW46dGVzdDEyMw==", v)

	v, ok, err = r.Call("uuid()")
	require.NoError(t, err)
	require.True(t, ok)
	_, parseErr := uuid.Parse(v.(string))
	assert.NoError(t, parseErr)

	v, _, err = r.Call("urlEncode('a&b c')")
	require.NoError(t, err)
	assert.Equal(t, "a%26b+c", v)

	v, _, err = r.Call("random(3, 3)")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, _, err = r.Call("randomString(12)")
	require.NoError(t, err)
	assert.Len(t, v, 12)
}

func TestRegistry_CallMisses(t *testing.T) {
	r := NewRegistry()

	_, ok, err := r.Call("token")
	assert.False(t, ok)
	assert.NoError(t, err)

	_, ok, _ = r.Call("nope()")
	assert.False(t, ok)

	_, ok, err = r.Call("random(9, 1)")
	assert.True(t, ok)
	assert.Error(t, err)

	_, ok, err = r.Call("basicAuth(admin)")
	assert.True(t, ok)
	assert.ErrorContains(t, err, "basicAuth()")
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register("teapot", func(args []string) (any, error) { return "418", nil })

	v, ok, err := r.Call("teapot()")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "418", v)
	assert.Contains(t, r.Names(), "teapot")
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "b, c", "d"}, parseArgs(`a, "b, c", 'd'`))
	assert.Nil(t, parseArgs(""))
}
