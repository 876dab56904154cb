package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/teapot/packages/assertions"
	"github.com/abdul-hamid-achik/teapot/packages/core/runner"
	"github.com/abdul-hamid-achik/teapot/packages/http"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary     `json:"summary"`
	Requests []JSONRequest   `json:"requests"`
	Latency  *runner.Summary `json:"latency,omitempty"`
	Errors   []string        `json:"errors,omitempty"`
	Duration float64         `json:"duration"`
	Time     string          `json:"time"`
	Version  string          `json:"version,omitempty"`
}

type JSONSummary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// JSONRequest is one request, from a script step or a single call.
type JSONRequest struct {
	ID         string               `json:"id,omitempty"`
	Name       string               `json:"name,omitempty"`
	Script     string               `json:"script,omitempty"`
	Iteration  int                  `json:"iteration,omitempty"`
	Method     string               `json:"method"`
	URL        string               `json:"url"`
	Status     int                  `json:"status"`
	Passed     bool                 `json:"passed"`
	Duration   float64              `json:"duration"`
	Error      string               `json:"error,omitempty"`
	Kind       string               `json:"kind,omitempty"`
	Headers    map[string]string    `json:"headers,omitempty"`
	Body       json.RawMessage      `json:"body,omitempty"`
	Captures   map[string]any       `json:"captures,omitempty"`
	Assertions []*assertions.Result `json:"assertions,omitempty"`
}

// JSONFormatter formats results as JSON
type JSONFormatter struct {
	writer   io.Writer
	version  string
	requests []JSONRequest
	errors   []string
	latency  *runner.Summary
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:   os.Stdout,
		requests: make([]JSONRequest, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		req := JSONRequest{
			Name:      r.Name,
			Script:    result.Script,
			Iteration: r.Iteration,
			Method:    r.Method,
			URL:       r.Path,
			Status:    r.Status,
			Passed:    r.Passed,
			Duration:  float64(r.Duration.Milliseconds()),
			Error:     errorString(r.Error),
			Kind:      kindString(r.Error),
		}
		if len(r.Captures) > 0 {
			req.Captures = r.Captures
		}
		req.Assertions = r.Assertions
		f.requests = append(f.requests, req)
	}
	f.latency = result.Latency
}

func (f *JSONFormatter) FormatExchange(ex *Exchange) {
	res := ex.Result
	req := JSONRequest{
		ID:       ex.ID,
		Method:   ex.Method,
		URL:      ex.URL,
		Status:   res.Status(),
		Passed:   res.Err() == nil,
		Duration: float64(ex.Duration.Milliseconds()),
		Error:    errorString(res.Err()),
		Kind:     kindString(res.Err()),
		Headers:  headersOf(res),
	}
	if body := bodyOf(res); body != nil && json.Valid(body) {
		req.Body = body
	}
	f.requests = append(f.requests, req)
}

func (f *JSONFormatter) FormatError(err error) {
	f.errors = append(f.errors, err.Error())
}

func (f *JSONFormatter) FormatHeader(version string) {
	f.version = version
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	var passed, failed int
	for _, r := range f.requests {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}

	output := JSONOutput{
		Summary: JSONSummary{
			Total:  len(f.requests),
			Passed: passed,
			Failed: failed,
		},
		Requests: f.requests,
		Latency:  f.latency,
		Errors:   f.errors,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
		Version:  f.version,
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func kindString(err error) string {
	if k := http.KindOf(err); k != 0 {
		return k.String()
	}
	return ""
}
