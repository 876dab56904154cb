package http

import (
	"strings"

	"github.com/abdul-hamid-achik/teapot/packages/payload"
)

// Result is either *Success or *Failure.
type Result interface {
	Status() int
	Header(key string) string
	// Payload is nil when the body was empty or not a JSON object or array
	// of objects.
	Payload() *payload.Payload
	// Err is nil for *Success.
	Err() error

	result()
}

type Success struct {
	Data       *payload.Payload
	StatusCode int
	Headers    map[string]string
}

type Failure struct {
	Data       *payload.Payload
	StatusCode int
	Headers    map[string]string
	Error      *Error
}

func (s *Success) Status() int { return s.StatusCode }
func (s *Success) Header(key string) string { return lookupHeader(s.Headers, key) }
func (s *Success) Payload() *payload.Payload { return s.Data }
func (s *Success) Err() error { return nil }
func (*Success) result() {}

func (f *Failure) Status() int { return f.StatusCode }
func (f *Failure) Header(key string) string { return lookupHeader(f.Headers, key) }
func (f *Failure) Payload() *payload.Payload { return f.Data }
func (*Failure) result() {}

func (f *Failure) Err() error {
	if f.Error == nil {
		return nil
	}
	return f.Error
}

// NewFailure wraps err in a Failure carrying its status, defaulting to 400.
func NewFailure(err *Error) *Failure {
	status := err.Status
	if status == 0 {
		status = 400
	}
	return &Failure{StatusCode: status, Error: err}
}

func lookupHeader(headers map[string]string, key string) string {
	if v, ok := headers[key]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
