package http

import (
	"context"
	"strings"
)

// Transport executes a Request. Execute blocks until the exchange finishes or
// ctx is done and always returns a non-nil Outcome.
type Transport interface {
	Execute(ctx context.Context, req *Request) *Outcome
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) *Outcome

// Execute implements Transport.
func (f TransportFunc) Execute(ctx context.Context, req *Request) *Outcome {
	return f(ctx, req)
}

// Outcome is what a transport observed before classification.
type Outcome struct {
	// StatusCode is zero when no response was received.
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Err        error
}

func (o *Outcome) Header(key string) string {
	for k, v := range o.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (o *Outcome) HasResponse() bool {
	return o.StatusCode != 0
}

func (o *Outcome) IsSuccess() bool {
	return o.StatusCode >= 200 && o.StatusCode < 300
}
