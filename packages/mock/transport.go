// Package mock answers teapot requests from JSON fixture files instead of
// the network.
//
// Transport resolves every request to a fixture through a Registry and
// reports the result as an http.Outcome, so mocked calls are classified by
// the same rules as live ones.
package mock

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/teapot/packages/http"
	"github.com/abdul-hamid-achik/teapot/packages/payload"
	"github.com/xeipuuv/gojsonschema"
)

// FixtureExt is appended to fixture names to find their files.
const FixtureExt = ".json"

// BaseURL is the base URL mock clients build requests against.
const BaseURL = "https://mock.base.url.com"

// Transport is the fixture-backed http.Transport.
type Transport struct {
	root       fs.FS
	registry   *Registry
	statusCode int
	latency    time.Duration
	schema     *gojsonschema.Schema

	mu   sync.Mutex
	last *http.Request
}

// Option is a functional option for Transport
type Option func(*Transport)

// WithStatusCode sets the status reported for non-overridden endpoints.
func WithStatusCode(code int) Option {
	return func(t *Transport) {
		t.statusCode = code
	}
}

// WithLatency delays every answer. The delay is cut short when the request
// context is done.
func WithLatency(d time.Duration) Option {
	return func(t *Transport) {
		t.latency = d
	}
}

// WithSchema rejects fixtures that do not validate against schema.
func WithSchema(schema *gojsonschema.Schema) Option {
	return func(t *Transport) {
		t.schema = schema
	}
}

// NewTransport answers from fixtures in root, defaulting to defaultFixture.
func NewTransport(root fs.FS, defaultFixture string, opts ...Option) *Transport {
	t := &Transport{
		root:       root,
		registry:   NewRegistry(defaultFixture),
		statusCode: 200,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewDirTransport answers from fixtures in the directory dir.
func NewDirTransport(dir, defaultFixture string, opts ...Option) *Transport {
	return NewTransport(os.DirFS(dir), defaultFixture, opts...)
}

// Registry returns the registry consulted by Execute.
func (t *Transport) Registry() *Registry {
	return t.registry
}

// StatusCode returns the configured status.
func (t *Transport) StatusCode() int {
	return t.statusCode
}

// LastRequest returns the most recent request handed to Execute.
func (t *Transport) LastRequest() *http.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Execute implements http.Transport.
func (t *Transport) Execute(ctx context.Context, req *http.Request) *http.Outcome {
	t.mu.Lock()
	t.last = req
	t.mu.Unlock()

	if err := t.wait(ctx); err != nil {
		return &http.Outcome{Err: err}
	}

	endpoint := EndpointName(req.URL)
	fixture, overridden := t.registry.Resolve(endpoint)

	if expected := t.registry.expectedHeaders; len(expected) > 0 && !overridden {
		if !headersSatisfy(expected, req.Headers) {
			var received map[string]string
			if len(req.Headers) > 0 {
				received = copyHeaders(req.Headers)
			}
			return &http.Outcome{
				StatusCode: 400,
				Err:        http.IncorrectHeaders(copyHeaders(expected), received),
			}
		}
	}

	status := t.statusCode
	if overridden {
		status = 200
	}

	data, err := t.Load(fixture)
	if err != nil {
		return &http.Outcome{StatusCode: status, Err: err}
	}

	return &http.Outcome{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       data,
	}
}

// Load reads and checks the named fixture. Errors are *http.Error with
// KindMissingMockFile or KindInvalidMockFile.
func (t *Transport) Load(name string) ([]byte, error) {
	data, err := fs.ReadFile(t.root, name+FixtureExt)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return nil, http.MissingMockFile(name)
		}
		return nil, http.InvalidMockFile(name, err)
	}

	p, ok := payload.Decode(data)
	if !ok || p.Shape() != payload.ShapeObject {
		return nil, http.InvalidMockFile(name, nil)
	}

	if t.schema != nil {
		if err := validateDocument(t.schema, data); err != nil {
			return nil, http.InvalidMockFile(name, err)
		}
	}

	return data, nil
}

func (t *Transport) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(t.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func copyHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
