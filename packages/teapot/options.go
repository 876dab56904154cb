package teapot

import (
	"context"
	"time"

	"github.com/abdul-hamid-achik/teapot/packages/delivery"
	"github.com/abdul-hamid-achik/teapot/packages/http"
	"github.com/abdul-hamid-achik/teapot/packages/wirelog"
)

// Option configures a Client at construction.
type Option func(*Client)

// WithTransport replaces the live net/http transport.
func WithTransport(t http.Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithDefaultDeliveryContext sets where completions run when a call does not
// choose. The default is delivery.Main().
func WithDefaultDeliveryContext(ctx delivery.Context) Option {
	return func(c *Client) {
		c.delivery = ctx
	}
}

// WithDefaultTimeout sets the timeout of calls that do not set one.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithDefaultAllowCellular sets the cellular flag of calls that do not set one.
func WithDefaultAllowCellular(allow bool) Option {
	return func(c *Client) {
		c.allowCellular = allow
	}
}

// WithWireLog logs traffic to logger at level.
func WithWireLog(logger wirelog.Logger, level wirelog.Level) Option {
	return func(c *Client) {
		c.wire = wirelog.New(logger, level)
	}
}

// CallOption configures a single call.
type CallOption func(*call)

type call struct {
	headers       map[string]string
	timeout       time.Duration
	delivery      delivery.Context
	allowCellular bool
	ctx           context.Context
}

// WithHeaders adds headers to the call. Later values for a key win.
func WithHeaders(headers map[string]string) CallOption {
	return func(c *call) {
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithHeader adds one header to the call.
func WithHeader(key, value string) CallOption {
	return func(c *call) {
		c.headers[key] = value
	}
}

// WithTimeout overrides the client's default timeout for the call.
func WithTimeout(d time.Duration) CallOption {
	return func(c *call) {
		c.timeout = d
	}
}

// WithDeliveryContext runs the call's completion on ctx.
func WithDeliveryContext(ctx delivery.Context) CallOption {
	return func(c *call) {
		c.delivery = ctx
	}
}

// WithAllowCellular sets whether the call may use a cellular connection.
func WithAllowCellular(allow bool) CallOption {
	return func(c *call) {
		c.allowCellular = allow
	}
}

// WithContext ties the call to ctx. Cancelling ctx cancels the call.
func WithContext(ctx context.Context) CallOption {
	return func(c *call) {
		c.ctx = ctx
	}
}
