package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	neturl "net/url"
)

// DefaultMaxRedirects is the maximum number of redirects to follow
const DefaultMaxRedirects = 10

// Client is the Transport backed by net/http.
type Client struct {
	httpClient     *http.Client
	followRedirect bool
	maxRedirects   int
	proxyURL       string
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient != nil {
		return c
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.proxyURL != "" {
		proxyURL, err := neturl.Parse(c.proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	c.httpClient = &http.Client{
		Transport:     transport,
		CheckRedirect: c.redirectPolicy,
	}

	return c
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.followRedirect = follow
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithHTTPClient sends requests through hc. Redirect and proxy options are
// ignored when it is set.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func (c *Client) redirectPolicy(req *http.Request, via []*http.Request) error {
	if !c.followRedirect {
		return http.ErrUseLastResponse
	}
	if len(via) >= c.maxRedirects {
		return http.ErrUseLastResponse
	}
	return nil
}

// Execute implements Transport.
func (c *Client) Execute(ctx context.Context, req *Request) *Outcome {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if data := req.EncodedBody(); data != nil {
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return &Outcome{Err: InvalidRequestPath(err)}
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &Outcome{Err: err}
	}
	defer httpResp.Body.Close()

	headers := make(map[string]string, len(httpResp.Header))
	for k := range httpResp.Header {
		headers[k] = httpResp.Header.Get(k)
	}

	respBody, err := io.ReadAll(httpResp.Body)
	out := &Outcome{
		StatusCode: httpResp.StatusCode,
		Headers:    headers,
		Body:       respBody,
	}
	if err != nil {
		out.Err = err
	}
	return out
}

// IsCancellation reports whether err means the caller cancelled the call.
// An expired deadline is not a cancellation.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
