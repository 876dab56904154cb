package env

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	t.Setenv("TEAPOT_TEST_HOST", "api.example.com")

	r := NewResolver()
	r.SetVariables(map[string]any{"user": "admin", "page": 2, "ratio": 1.5})
	r.SetCapture("login", "token", "abc123")

	tests := []struct {
		input string
		want  string
	}{
		{"no expressions", "no expressions"},
		{"/users/{{user}}", "/users/admin"},
		{"/items?page={{page}}", "/items?page=2"},
		{"{{ratio}}", "1.5"},
		{"Bearer {{token}}", "Bearer abc123"},
		{"Bearer {{login.token}}", "Bearer abc123"},
		{"{{ user }}", "admin"},
		{"https://{{$TEAPOT_TEST_HOST}}/v1", "https://api.example.com/v1"},
		{"{{basicAuth(admin, test123)}}", "Basic YWRtaW46dGVzdDEyMw=="},
		{"/users/{{unknown}}", "/users/{{unknown}}"},
		{"{{$TEAPOT_TEST_UNSET_VAR}}", "{{$TEAPOT_TEST_UNSET_VAR}}"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.input))
		})
	}
}

func TestResolver_CapturesShadowVariables(t *testing.T) {
	r := NewResolver()
	r.SetVariable("id", "from-vars")
	r.SetCapture("create", "id", "from-capture")

	assert.Equal(t, "from-capture", r.Resolve("{{id}}"))

	v, ok := r.GetVariable("create.id")
	require.True(t, ok)
	assert.Equal(t, "from-capture", v)
}

func TestResolver_Unresolved(t *testing.T) {
	r := NewResolver()
	r.SetVariable("bar", "middle")

	assert.False(t, r.HasUnresolvedVariables("plain text"))
	assert.Nil(t, r.GetUnresolvedVariables("{{bar}}"))
	assert.Equal(t, []string{"foo", "setup.projectId"},
		r.GetUnresolvedVariables("{{foo}} and {{bar}} then {{setup.projectId}}"))

	r.SetCapture("setup", "projectId", 7)
	r.SetVariable("foo", "x")
	assert.False(t, r.HasUnresolvedVariables("{{foo}} and {{bar}} then {{setup.projectId}}"))
}

func TestResolver_WarnsOnUnresolvedAndBadCalls(t *testing.T) {
	var warnings []string
	r := NewResolver()
	r.SetWarnFunc(func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	})

	assert.Equal(t, "{{missing}}", r.Resolve("{{missing}}"))
	assert.Equal(t, "{{random(a, b)}}", r.Resolve("{{random(a, b)}}"))

	require.Len(t, warnings, 3)
	assert.Equal(t, "unresolved variable: missing", warnings[0])
	assert.Equal(t, "unresolved variable: random(a, b)", warnings[2])
}

func TestResolver_ResolveValue(t *testing.T) {
	r := NewResolver()
	r.SetVariable("name", "teapot")

	got := r.ResolveValue(map[string]any{
		"title": "{{name}}",
		"tags":  []any{"{{name}}", 418},
		"meta":  map[string]any{"short": true},
	})
	assert.Equal(t, map[string]any{
		"title": "teapot",
		"tags":  []any{"teapot", 418},
		"meta":  map[string]any{"short": true},
	}, got)
}

func TestResolver_ResolveAll(t *testing.T) {
	r := NewResolver()
	r.SetCapture("", "token", "t0k3n")

	assert.Nil(t, r.ResolveAll(nil))
	assert.Equal(t,
		map[string]string{"Authorization": "Bearer t0k3n", "Accept": "application/json"},
		r.ResolveAll(map[string]string{"Authorization": "Bearer {{token}}", "Accept": "application/json"}))
}

func TestResolver_CloneIsIndependent(t *testing.T) {
	r := NewResolver()
	r.SetVariable("a", "1")

	c := r.Clone()
	c.SetVariable("a", "2")
	c.SetCapture("req", "b", "3")

	assert.Equal(t, "1", r.Resolve("{{a}}"))
	assert.Equal(t, "{{b}}", r.Resolve("{{b}}"))
	assert.Equal(t, "2 3", c.Resolve("{{a}} {{req.b}}"))
}
