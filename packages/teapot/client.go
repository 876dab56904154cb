package teapot

import (
	"context"
	"errors"
	"time"

	"github.com/abdul-hamid-achik/teapot/packages/delivery"
	"github.com/abdul-hamid-achik/teapot/packages/http"
	"github.com/abdul-hamid-achik/teapot/packages/payload"
	"github.com/abdul-hamid-achik/teapot/packages/wirelog"
	"github.com/google/uuid"
)

// Completion receives the result of a call.
type Completion func(http.Result)

// Client issues calls against a base URL. Its configuration is fixed at
// construction, so a Client is safe for concurrent use.
type Client struct {
	baseURL       string
	transport     http.Transport
	delivery      delivery.Context
	timeout       time.Duration
	allowCellular bool
	wire          *wirelog.Wire
}

// NewClient returns a client for baseURL backed by net/http.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       baseURL,
		timeout:       http.DefaultTimeout,
		allowCellular: true,
		wire:          wirelog.Disabled(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = http.NewClient()
	}
	if c.delivery == nil {
		c.delivery = delivery.Main()
	}
	return c
}

// BaseURL returns the URL paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Transport returns the transport calls are executed on.
func (c *Client) Transport() http.Transport {
	return c.transport
}

// Get issues a GET for path. path may carry an already encoded query.
func (c *Client) Get(path string, completion Completion, opts ...CallOption) *Handle {
	return c.Do(http.MethodGet, path, nil, completion, opts...)
}

// Post issues a POST for path with an optional body.
func (c *Client) Post(path string, body *payload.Payload, completion Completion, opts ...CallOption) *Handle {
	return c.Do(http.MethodPost, path, body, completion, opts...)
}

// Put issues a PUT for path with an optional body.
func (c *Client) Put(path string, body *payload.Payload, completion Completion, opts ...CallOption) *Handle {
	return c.Do(http.MethodPut, path, body, completion, opts...)
}

// Delete issues a DELETE for path with an optional body.
func (c *Client) Delete(path string, body *payload.Payload, completion Completion, opts ...CallOption) *Handle {
	return c.Do(http.MethodDelete, path, body, completion, opts...)
}

// Do issues a call with an arbitrary method. Only the four verbs above are
// accepted; anything else fails with KindInvalidRequestPath.
func (c *Client) Do(method, path string, body *payload.Payload, completion Completion, opts ...CallOption) *Handle {
	return c.execute(method, path, body, nil, opts, func(_ *http.Outcome, result http.Result) func() {
		if completion == nil {
			return nil
		}
		return func() { completion(result) }
	})
}

// prepare runs on the worker goroutine and returns what to run on the
// delivery context.
type prepare func(out *http.Outcome, result http.Result) func()

func (c *Client) execute(method, path string, body *payload.Payload, defaults map[string]string, opts []CallOption, prep prepare) *Handle {
	cfg := c.newCall(defaults, opts)
	h := newHandle(cfg.ctx, uuid.NewString())

	req, err := http.BuildRequest(http.RequestSpec{
		BaseURL:       c.baseURL,
		Path:          path,
		Method:        method,
		Headers:       cfg.headers,
		Body:          body,
		Timeout:       cfg.timeout,
		AllowCellular: cfg.allowCellular,
	})
	if err != nil {
		failure := buildFailure(err)
		c.wire.BuildError(h.id, method, path, err)
		fn := prep(nil, failure)
		cfg.delivery.Dispatch(func() { h.complete(failure, fn) })
		return h
	}

	go func() {
		c.wire.Outgoing(h.id, req.Method, req.URL, req.Headers, req.EncodedBody())

		out := c.transport.Execute(h.ctx, req)
		result, ok := http.Classify(out)
		if !ok {
			h.abandon()
			return
		}

		if result.Err() != nil {
			c.wire.Error(h.id, out.StatusCode, out.Headers, out.Body, result.Err())
		} else {
			c.wire.Incoming(h.id, out.StatusCode, out.Headers, out.Body)
		}

		fn := prep(out, result)
		cfg.delivery.Dispatch(func() { h.complete(result, fn) })
	}()

	return h
}

func (c *Client) newCall(defaults map[string]string, opts []CallOption) *call {
	cfg := &call{
		headers:       make(map[string]string, len(defaults)),
		timeout:       c.timeout,
		delivery:      c.delivery,
		allowCellular: c.allowCellular,
		ctx:           context.Background(),
	}
	for k, v := range defaults {
		cfg.headers[k] = v
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.delivery == nil {
		cfg.delivery = c.delivery
	}
	if cfg.ctx == nil {
		cfg.ctx = context.Background()
	}
	return cfg
}

func buildFailure(err error) *http.Failure {
	var te *http.Error
	if !errors.As(err, &te) {
		te = http.InvalidRequestPath(err)
	}
	return &http.Failure{StatusCode: 400, Error: te}
}
