package runner

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/teapot/packages/http"
	"github.com/abdul-hamid-achik/teapot/packages/teapot"
)

var fixtures = fstest.MapFS{
	"login.json":   {Data: []byte(`{"token":"abc123","user":{"id":7}}`)},
	"profile.json": {Data: []byte(`{"name":"admin"}`)},
}

const loginScript = `
name: auth
variables:
  user: admin
requests:
  - name: login
    method: post
    path: /login
    body:
      user: "{{user}}"
    captures:
      token: body.token
      id: body.user.id
  - name: profile
    path: /users/{{user}}
    headers:
      Authorization: Bearer {{login.token}}
`

func mustParse(t *testing.T, src string) *Script {
	t.Helper()
	s, err := ParseScript([]byte(src))
	require.NoError(t, err)
	return s
}

func TestRunner_CapturesFlowIntoLaterSteps(t *testing.T) {
	mc := teapot.NewMockClient(fixtures, "login")
	mc.OverrideEndpoint("admin", "profile")

	result, err := NewRunner(mc.Client, nil).Run(context.Background(), mustParse(t, loginScript))
	require.NoError(t, err)

	assert.True(t, result.OK())
	assert.Equal(t, "auth", result.Script)
	assert.Equal(t, 2, result.Passed)
	require.Len(t, result.Results, 2)

	login := result.Results[0]
	assert.Equal(t, "POST", login.Method)
	assert.Equal(t, 200, login.Status)
	assert.Equal(t, map[string]any{"token": "abc123", "id": float64(7)}, login.Captures)

	profile := result.Results[1]
	assert.Equal(t, "/users/admin", profile.Path)
	name, ok := profile.Result.Payload().Get("name").AsString()
	require.True(t, ok)
	assert.Equal(t, "admin", name)

	last := mc.LastRequest()
	require.NotNil(t, last)
	assert.Equal(t, "https://mock.base.url.com/users/admin", last.URL)
	assert.Equal(t, "Bearer abc123", last.Header("Authorization"))

	assert.Equal(t, map[string]string{"login.token": "abc123", "login.id": "7"}, result.Captures)
}

func TestRunner_ExpectStatus(t *testing.T) {
	mc := teapot.NewMockClient(fixtures, "login", teapot.WithStatusCode(404))

	script := mustParse(t, `
requests:
  - name: missing
    path: /things/1
    expectStatus: 404
  - name: unchecked
    path: /things/2
  - name: wrong
    path: /things/3
    expectStatus: 200
`)
	result, err := NewRunner(mc.Client, nil).Run(context.Background(), script)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 2, result.Failed)
	assert.False(t, result.OK())

	assert.True(t, result.Results[0].Passed)
	assert.NoError(t, result.Results[0].Error)

	assert.Equal(t, http.KindInvalidResponseStatus, http.KindOf(result.Results[1].Error))
	assert.EqualError(t, result.Results[2].Error, "expected status 200, got 404: invalid response status: 404")
	assert.ErrorIs(t, result.Results[2].Error, http.ErrInvalidResponseStatus)
}

func TestRunner_Assertions(t *testing.T) {
	mc := teapot.NewMockClient(fixtures, "login")

	script := mustParse(t, `
variables:
  expectedID: 7
requests:
  - name: ok
    path: /login
    assert:
      - {subject: status, op: lt, value: 300}
      - {subject: body.user.id, value: "{{expectedID}}"}
      - {subject: header.Content-Type, op: contains, value: json}
  - name: broken
    path: /login
    assert:
      - {subject: body.token, op: exists}
      - {subject: body.token, op: length, value: 3}
`)
	result, err := NewRunner(mc.Client, nil).Run(context.Background(), script)
	require.NoError(t, err)
	require.Len(t, result.Results, 2)

	ok := result.Results[0]
	assert.True(t, ok.Passed, "%v", ok.Error)
	require.Len(t, ok.Assertions, 3)

	broken := result.Results[1]
	assert.False(t, broken.Passed)
	require.Len(t, broken.Assertions, 2)
	assert.True(t, broken.Assertions[0].Passed)
	assert.EqualError(t, broken.Error, "assertion failed: body.token length: expected length 3, got 6")
}

func TestParseScript_RejectsBadAssertion(t *testing.T) {
	_, err := ParseScript([]byte(`
requests:
  - name: a
    path: /a
    assert:
      - {subject: status, op: approximately, value: 200}
`))
	assert.EqualError(t, err, `request "a": assertion 1: unknown operator "approximately"`)
}

func TestRunner_Bail(t *testing.T) {
	mc := teapot.NewMockClient(fixtures, "login", teapot.WithStatusCode(500))

	script := mustParse(t, `
requests:
  - name: first
    path: /a
  - name: second
    path: /b
`)
	result, err := NewRunner(mc.Client, &Config{Bail: true}).Run(context.Background(), script)
	require.NoError(t, err)
	assert.Len(t, result.Results, 1)
	assert.Equal(t, 1, result.Failed)
}

func TestRunner_RepeatAndLatency(t *testing.T) {
	mc := teapot.NewMockClient(fixtures, "login")

	script := mustParse(t, `
requests:
  - name: a
    path: /a
  - name: b
    path: /b
`)
	result, err := NewRunner(mc.Client, &Config{Repeat: 3}).Run(context.Background(), script)
	require.NoError(t, err)

	assert.Len(t, result.Results, 6)
	assert.Equal(t, 3, result.Results[5].Iteration)
	require.NotNil(t, result.Latency)
	assert.Equal(t, int64(6), result.Latency.Overall.Total)
	require.Len(t, result.Latency.Steps, 2)
	assert.Equal(t, "a", result.Latency.Steps[0].Name)
	assert.Equal(t, int64(3), result.Latency.Steps[0].Total)
}

func TestRunner_RateLimit(t *testing.T) {
	mc := teapot.NewMockClient(fixtures, "login")

	script := mustParse(t, `
requests:
  - name: a
    path: /a
`)
	start := time.Now()
	result, err := NewRunner(mc.Client, &Config{Rate: 20, Repeat: 3}).Run(context.Background(), script)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Passed)
	// burst of one: the second and third requests wait 50ms each
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestRunner_CancelledContext(t *testing.T) {
	mc := teapot.NewMockClient(fixtures, "login")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewRunner(mc.Client, nil).Run(ctx, mustParse(t, loginScript))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Results)
}

func TestRunner_BodyAndHeadersAgainstLiveServer(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch r.URL.Path {
		case "/health":
			if calls.Add(1) < 3 {
				w.WriteHeader(nethttp.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(nethttp.StatusOK)
		case "/items":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "abc", r.Header.Get("X-Trace"))
			w.Header().Set("Location", "/items/42")
			w.WriteHeader(nethttp.StatusCreated)
			_, _ = w.Write([]byte(`{"id":42}`))
		default:
			w.WriteHeader(nethttp.StatusNotFound)
		}
	}))
	defer server.Close()

	script := mustParse(t, `
headers:
  X-Trace: abc
waitFor:
  path: /health
  interval: 10
  timeout: 2000
requests:
  - name: create
    method: POST
    path: /items
    body: [{"name": "kettle"}]
    expectStatus: 201
    captures:
      location: header.Location
`)
	client := teapot.NewClient(server.URL)
	result, err := NewRunner(client, nil).Run(context.Background(), script)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.True(t, result.Results[0].Passed)
	assert.Equal(t, "/items/42", result.Results[0].Captures["location"])
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestRunner_WaitForTimesOut(t *testing.T) {
	mc := teapot.NewMockClient(fixtures, "login", teapot.WithStatusCode(503))

	script := mustParse(t, `
waitFor:
  path: /health
  interval: 5
  timeout: 50
requests:
  - name: a
    path: /a
`)
	result, err := NewRunner(mc.Client, nil).Run(context.Background(), script)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service /health not ready")
	assert.Empty(t, result.Results)
}

func TestRunner_InvalidBody(t *testing.T) {
	mc := teapot.NewMockClient(fixtures, "login")

	script := mustParse(t, `
requests:
  - name: scalars
    method: PUT
    path: /a
    body: [1, 2]
`)
	result, err := NewRunner(mc.Client, nil).Run(context.Background(), script)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.False(t, result.Results[0].Passed)
	assert.Contains(t, result.Results[0].Error.Error(), `request "scalars" body`)
	assert.Nil(t, mc.LastRequest())
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(loginScript), 0644))

	mc := teapot.NewMockClient(fixtures, "login")
	result, err := NewRunner(mc.Client, nil).RunFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Passed)

	_, err = NewRunner(mc.Client, nil).RunFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
