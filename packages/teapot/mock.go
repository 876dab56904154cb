package teapot

import (
	"io/fs"
	"os"

	"github.com/abdul-hamid-achik/teapot/packages/http"
	"github.com/abdul-hamid-achik/teapot/packages/mock"
)

// MockClient is a Client answered from fixture files. Configure overrides
// and expected headers before issuing calls, never while calls are in flight.
type MockClient struct {
	*Client
	fixtures *mock.Transport
}

// MockOption configures a MockClient.
type MockOption func(*mockSetup)

type mockSetup struct {
	transport []mock.Option
	client    []Option
}

// WithStatusCode sets the status reported for endpoints without an override.
func WithStatusCode(code int) MockOption {
	return func(s *mockSetup) {
		s.transport = append(s.transport, mock.WithStatusCode(code))
	}
}

// WithMockOptions passes options to the fixture transport.
func WithMockOptions(opts ...mock.Option) MockOption {
	return func(s *mockSetup) {
		s.transport = append(s.transport, opts...)
	}
}

// WithClientOptions passes options to the underlying Client. WithTransport
// is ignored.
func WithClientOptions(opts ...Option) MockOption {
	return func(s *mockSetup) {
		s.client = append(s.client, opts...)
	}
}

// NewMockClient answers calls with fixtures from root, using defaultFixture
// for endpoints without an override.
func NewMockClient(root fs.FS, defaultFixture string, opts ...MockOption) *MockClient {
	setup := &mockSetup{}
	for _, opt := range opts {
		opt(setup)
	}

	fixtures := mock.NewTransport(root, defaultFixture, setup.transport...)
	clientOpts := append(setup.client, WithTransport(fixtures))

	return &MockClient{
		Client:   NewClient(mock.BaseURL, clientOpts...),
		fixtures: fixtures,
	}
}

// NewMockClientDir answers calls with fixtures from the directory dir.
func NewMockClientDir(dir, defaultFixture string, opts ...MockOption) *MockClient {
	return NewMockClient(os.DirFS(dir), defaultFixture, opts...)
}

// Fixtures returns the fixture transport.
func (m *MockClient) Fixtures() *mock.Transport {
	return m.fixtures
}

// OverrideEndpoint answers endpoint with fixture. Overridden endpoints
// always succeed with status 200 and skip the header check.
func (m *MockClient) OverrideEndpoint(endpoint, fixture string) {
	m.fixtures.Registry().OverrideEndpoint(endpoint, fixture)
}

func (m *MockClient) ClearOverrides() {
	m.fixtures.Registry().ClearOverrides()
}

// SetExpectedHeaders makes every non-overridden call fail with
// KindIncorrectHeaders unless it carries headers.
func (m *MockClient) SetExpectedHeaders(headers map[string]string) {
	m.fixtures.Registry().SetExpectedHeaders(headers)
}

func (m *MockClient) ClearExpectedHeaders() {
	m.fixtures.Registry().ClearExpectedHeaders()
}

// LastRequest returns the last request the fixtures answered.
func (m *MockClient) LastRequest() *http.Request {
	return m.fixtures.LastRequest()
}
