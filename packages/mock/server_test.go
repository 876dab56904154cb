package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/abdul-hamid-achik/teapot/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_ServesFixtures(t *testing.T) {
	tr := NewDirTransport("testdata", "get", WithStatusCode(201))
	tr.Registry().OverrideEndpoint("auth", "auth_ok")

	server := httptest.NewServer(NewServer(tr).Handler())
	defer server.Close()

	resp, err := nethttp.Get(server.URL + "/v1/get")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"key":"value"}`, string(body))

	resp, err = nethttp.Get(server.URL + "/auth")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}

func TestServer_ReportsFixtureErrors(t *testing.T) {
	tr := NewDirTransport("testdata", "missing")
	server := httptest.NewServer(NewServer(tr).Handler())
	defer server.Close()

	resp, err := nethttp.Get(server.URL + "/missing")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "missingMockFile", body["kind"])
	assert.Equal(t, "expected mockfile with name: missing.json", body["error"])
}

func TestServer_RejectsUnsupportedMethods(t *testing.T) {
	tr := NewDirTransport("testdata", "get")
	server := httptest.NewServer(NewServer(tr).Handler())
	defer server.Close()

	req, err := nethttp.NewRequest("PATCH", server.URL+"/get", nil)
	require.NoError(t, err)
	resp, err := nethttp.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 400, resp.StatusCode)
}

func TestServer_FixtureErrorsAreNeverSuccess(t *testing.T) {
	tests := []struct {
		fixture string
		opts    []Option
		status  int
		kind    string
	}{
		{"invalid", nil, 500, "invalidMockFile"},
		{"trailing", nil, 500, "invalidMockFile"},
		{"missing", []Option{WithStatusCode(201)}, 404, "missingMockFile"},
		{"missing", []Option{WithStatusCode(503)}, 503, "missingMockFile"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.fixture, tt.status), func(t *testing.T) {
			server := httptest.NewServer(NewServer(NewDirTransport("testdata", tt.fixture, tt.opts...)).Handler())
			defer server.Close()

			resp, err := nethttp.Get(server.URL + "/users")
			require.NoError(t, err)
			defer resp.Body.Close()

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.kind, body["kind"])
		})
	}
}

func TestServer_ClientSeesFailureForMissingFixture(t *testing.T) {
	server := httptest.NewServer(NewServer(NewDirTransport("testdata", "missing")).Handler())
	defer server.Close()

	req, err := http.BuildRequest(http.RequestSpec{BaseURL: server.URL, Path: "users", Method: http.MethodGet})
	require.NoError(t, err)

	result, ok := http.Classify(http.NewClient().Execute(context.Background(), req))
	require.True(t, ok)
	require.IsType(t, &http.Failure{}, result)
	assert.Equal(t, 404, result.Status())
	assert.ErrorIs(t, result.Err(), http.ErrInvalidResponseStatus)
}
