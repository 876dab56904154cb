package mock

import (
	"net/url"
	"path"
	"strings"
)

// Registry decides which fixture answers an endpoint and which headers every
// non-overridden call must carry.
//
// A Registry is not synchronized. Configure it before issuing calls and clear
// it between tests; mutating it while calls are in flight is a data race.
type Registry struct {
	defaultFixture  string
	overrides       map[string]string
	expectedHeaders map[string]string
}

// NewRegistry returns a registry answering every endpoint with defaultFixture.
func NewRegistry(defaultFixture string) *Registry {
	return &Registry{
		defaultFixture: defaultFixture,
		overrides:      make(map[string]string),
	}
}

// DefaultFixture returns the fixture used for endpoints without an override.
func (r *Registry) DefaultFixture() string {
	return r.defaultFixture
}

// OverrideEndpoint answers endpoint with fixture instead of the default.
// Overridden endpoints always report status 200 and skip the header check.
func (r *Registry) OverrideEndpoint(endpoint, fixture string) {
	r.overrides[endpoint] = fixture
}

// ClearOverrides removes every endpoint override.
func (r *Registry) ClearOverrides() {
	r.overrides = make(map[string]string)
}

// Override returns the fixture registered for endpoint.
func (r *Registry) Override(endpoint string) (string, bool) {
	fixture, ok := r.overrides[endpoint]
	return fixture, ok
}

// Overrides returns a copy of the override table.
func (r *Registry) Overrides() map[string]string {
	out := make(map[string]string, len(r.overrides))
	for k, v := range r.overrides {
		out[k] = v
	}
	return out
}

// SetExpectedHeaders replaces the headers every non-overridden call must carry.
func (r *Registry) SetExpectedHeaders(headers map[string]string) {
	if len(headers) == 0 {
		r.expectedHeaders = nil
		return
	}
	r.expectedHeaders = make(map[string]string, len(headers))
	for k, v := range headers {
		r.expectedHeaders[k] = v
	}
}

// ClearExpectedHeaders disables the header check.
func (r *Registry) ClearExpectedHeaders() {
	r.expectedHeaders = nil
}

// ExpectedHeaders returns a copy of the expected headers, nil when unset.
func (r *Registry) ExpectedHeaders() map[string]string {
	if r.expectedHeaders == nil {
		return nil
	}
	out := make(map[string]string, len(r.expectedHeaders))
	for k, v := range r.expectedHeaders {
		out[k] = v
	}
	return out
}

// Resolve returns the fixture for endpoint and whether it came from an override.
func (r *Registry) Resolve(endpoint string) (fixture string, overridden bool) {
	if fixture, ok := r.overrides[endpoint]; ok {
		return fixture, true
	}
	return r.defaultFixture, false
}

// EndpointName returns the last path segment of rawURL, ignoring the query
// and any trailing slash. It returns "" for the root path.
func EndpointName(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	} else if idx := strings.IndexAny(p, "?#"); idx != -1 {
		p = p[:idx]
	}
	p = normalizePath(p)
	if p == "/" {
		return ""
	}
	return path.Base(p)
}

func normalizePath(p string) string {
	// Ensure path starts with /
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	// Remove trailing slash (except for root)
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	return p
}

// headersSatisfy reports whether received carries every expected header.
// Keys compare case-insensitively, values exactly.
func headersSatisfy(expected, received map[string]string) bool {
	for key, want := range expected {
		got, ok := received[key]
		if !ok {
			got, ok = lookupFold(received, key)
		}
		if !ok || got != want {
			return false
		}
	}
	return true
}

func lookupFold(headers map[string]string, key string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}
