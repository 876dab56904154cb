package cmd

import (
	"github.com/abdul-hamid-achik/teapot/packages/http"
)

// Exit codes for teapot CLI
const (
	// ExitSuccess indicates every request succeeded
	ExitSuccess = 0

	// ExitRequestFailure indicates one or more requests failed
	ExitRequestFailure = 1

	// ExitScriptError indicates a script could not be parsed
	ExitScriptError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates no response was received
	ExitNetworkError = 4

	// ExitFixtureError indicates a missing or invalid fixture
	ExitFixtureError = 5

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the process exit code out of a command. A nil err
// exits silently, for failures the formatter already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return "exit status"
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func exitWith(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCodeFor maps a request error onto an exit code.
func exitCodeFor(err error) int {
	switch http.KindOf(err) {
	case 0:
		if err == nil {
			return ExitSuccess
		}
		return ExitRequestFailure
	case http.KindNoResponse, http.KindDataTaskError:
		return ExitNetworkError
	case http.KindMissingMockFile, http.KindInvalidMockFile:
		return ExitFixtureError
	default:
		return ExitRequestFailure
	}
}
