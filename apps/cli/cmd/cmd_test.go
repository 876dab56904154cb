package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/teapot/packages/core/config"
	"github.com/abdul-hamid-achik/teapot/packages/core/runner"
	"github.com/abdul-hamid-achik/teapot/packages/http"
)

func TestParseHeaders(t *testing.T) {
	got, err := parseHeaders([]string{"Accept: application/json", "X-Trace=abc", "Authorization: Bearer a:b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Accept":        "application/json",
		"X-Trace":       "abc",
		"Authorization": "Bearer a:b",
	}, got)

	got, err = parseHeaders(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseHeaders([]string{"novalue"})
	assert.Error(t, err)
}

func TestParsePairs(t *testing.T) {
	got, err := parsePairs([]string{"users = user_list", "login=login_ok"}, "=")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"users": "user_list", "login": "login_ok"}, got)

	_, err = parsePairs([]string{"=orphan"}, "=")
	assert.EqualError(t, err, `expected key=value, got "=orphan"`)
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errors.New("plain"), ExitRequestFailure},
		{http.InvalidResponseStatus(500), ExitRequestFailure},
		{http.NoResponse(errors.New("refused")), ExitNetworkError},
		{http.DataTaskError(errors.New("reset")), ExitNetworkError},
		{http.MissingMockFile("users"), ExitFixtureError},
		{fmt.Errorf("wrapped: %w", http.InvalidMockFile("users", nil)), ExitFixtureError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCodeFor(tt.err), "%v", tt.err)
	}
}

func TestExitError(t *testing.T) {
	err := exitWith(ExitConfigError, http.ErrMissingMockFile)
	assert.ErrorIs(t, err, http.ErrMissingMockFile)

	var ee *exitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, ExitConfigError, ee.code)
	assert.Equal(t, "exit status", exitWith(ExitRequestFailure, nil).Error())
}

func TestIsScriptFile(t *testing.T) {
	assert.True(t, isScriptFile("scripts/users.yaml"))
	assert.True(t, isScriptFile("auth.yml"))
	assert.False(t, isScriptFile("fixtures/users.json"))
	assert.False(t, isScriptFile("project/.teapot.yaml"))
	assert.False(t, isScriptFile("teapot.yaml"))
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "nested/b.yml", ".teapot.yaml", "notes.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("requests: []"), 0644))
	}

	files, err := collectFiles([]string{dir})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "nested", "b.yml")}, files)

	_, err = collectFiles([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestDisplayURL(t *testing.T) {
	assert.Equal(t, "https://api.example.com/v1/users", displayURL("https://api.example.com/v1", "users"))
	assert.Equal(t, "users", displayURL("not a url", "users"))
}

func TestInitProjectRunsAgainstFixtures(t *testing.T) {
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	var out bytes.Buffer
	initCmd.SetOut(&out)
	defer initCmd.SetOut(nil)

	require.NoError(t, initCommand(initCmd, nil))
	assert.Contains(t, out.String(), "teapot project initialized!")

	err := initCommand(initCmd, nil)
	var ee *exitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, ExitUsageError, ee.code)

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	require.True(t, cfg.UsesFixtures())
	assert.Equal(t, "get", cfg.Fixtures.Default)

	mc, err := buildMockClient(cfg.Fixtures, nil)
	require.NoError(t, err)

	result, err := runner.NewRunner(mc.Client, nil).RunFile(context.Background(), "example.yaml")
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, "abc123", result.Captures["login.token"])
	assert.Equal(t, "Bearer abc123", mc.LastRequest().Header("Authorization"))
}
