package capture

import (
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/teapot/packages/http"
	"github.com/tidwall/gjson"
)

// Source is the part of a result a capture reads.
type Source int

const (
	SourceBody Source = iota
	SourceHeader
	SourceStatus
	SourceDuration
)

// Capture names a value to extract. Path is a gjson path for SourceBody and
// a header name for SourceHeader.
type Capture struct {
	Name   string
	Source Source
	Path   string
}

// Parse reads an expression of the form "body", "body.<path>",
// "header.<name>", "status" or "duration".
func Parse(name, expr string) (*Capture, error) {
	expr = strings.TrimSpace(expr)
	source, rest, _ := strings.Cut(expr, ".")

	switch source {
	case "body":
		return &Capture{Name: name, Source: SourceBody, Path: rest}, nil
	case "header":
		if rest == "" {
			return nil, fmt.Errorf("capture %s: header name is missing", name)
		}
		return &Capture{Name: name, Source: SourceHeader, Path: rest}, nil
	case "status":
		return &Capture{Name: name, Source: SourceStatus}, nil
	case "duration":
		return &Capture{Name: name, Source: SourceDuration}, nil
	default:
		return nil, fmt.Errorf("capture %s: unknown source %q", name, source)
	}
}

type Extractor struct {
	result   http.Result
	duration time.Duration
	bodyJSON gjson.Result
}

func NewExtractor(result http.Result, duration time.Duration) *Extractor {
	e := &Extractor{
		result:   result,
		duration: duration,
	}
	if p := result.Payload(); p != nil {
		if data, err := p.Bytes(); err == nil {
			e.bodyJSON = gjson.ParseBytes(data)
		}
	}
	return e
}

func (e *Extractor) Extract(c *Capture) (any, bool) {
	switch c.Source {
	case SourceBody:
		return e.extractFromBody(c.Path)
	case SourceHeader:
		return e.extractFromHeader(c.Path)
	case SourceStatus:
		return e.result.Status(), true
	case SourceDuration:
		return e.duration.Milliseconds(), true
	default:
		return nil, false
	}
}

func (e *Extractor) extractFromBody(path string) (any, bool) {
	if !e.bodyJSON.Exists() {
		return nil, false
	}

	if path == "" {
		return e.bodyJSON.Value(), true
	}

	result := e.bodyJSON.Get(path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

func (e *Extractor) extractFromHeader(name string) (any, bool) {
	value := e.result.Header(name)
	if value == "" {
		return nil, false
	}
	return value, true
}

func ExtractAll(result http.Result, duration time.Duration, captures []*Capture) map[string]any {
	extractor := NewExtractor(result, duration)
	results := make(map[string]any)

	for _, c := range captures {
		if value, ok := extractor.Extract(c); ok {
			results[c.Name] = value
		}
	}

	return results
}

// Stringify renders a captured value for substitution into later requests.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
