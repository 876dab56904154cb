package http

import (
	"fmt"
	neturl "net/url"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/teapot/packages/payload"
)

const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodDelete = "DELETE"
)

// DefaultTimeout applies when a request does not set one.
const DefaultTimeout = 5 * time.Second

const contentTypeHeader = "Content-Type"

// Request is a fully resolved call. It is not modified after BuildRequest
// returns and is consumed by exactly one Transport.
type Request struct {
	Method        string
	URL           string
	Headers       map[string]string
	Body          *payload.Payload
	Timeout       time.Duration
	AllowCellular bool

	// encoded is the wire form of Body, computed once at build time.
	encoded []byte
}

// RequestSpec is the input to BuildRequest.
type RequestSpec struct {
	BaseURL       string
	Path          string
	Method        string
	Headers       map[string]string
	Body          *payload.Payload
	Timeout       time.Duration
	AllowCellular bool
}

// BuildRequest resolves spec into a Request. Errors are always *Error with
// KindInvalidRequestPath or KindInvalidPayload.
func BuildRequest(spec RequestSpec) (*Request, error) {
	method := strings.ToUpper(spec.Method)
	switch method {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
	case "":
		method = MethodGet
	default:
		return nil, InvalidRequestPath(fmt.Errorf("unsupported method %q", spec.Method))
	}

	target, err := ResolveURL(spec.BaseURL, spec.Path)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Method:        method,
		URL:           target,
		Headers:       make(map[string]string, len(spec.Headers)+1),
		Body:          spec.Body,
		Timeout:       spec.Timeout,
		AllowCellular: spec.AllowCellular,
	}
	if req.Timeout <= 0 {
		req.Timeout = DefaultTimeout
	}
	for k, v := range spec.Headers {
		req.Headers[k] = v
	}

	if spec.Body != nil {
		data, err := spec.Body.Bytes()
		if err != nil {
			return nil, InvalidPayload(err)
		}
		req.encoded = data
		if spec.Body.IsJSON() && !hasHeader(req.Headers, contentTypeHeader) {
			req.Headers[contentTypeHeader] = "application/json"
		}
	}

	return req, nil
}

// EncodedBody returns the bytes sent on the wire, nil when there is no body.
func (r *Request) EncodedBody() []byte {
	return r.encoded
}

// Header looks a header up case-insensitively.
func (r *Request) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// ResolveURL appends path to base. An existing percent-encoded path or query
// in path is kept as written, so a value like "a%26b" reaches the server
// with its escaped '&' intact.
func ResolveURL(base, path string) (string, error) {
	if err := ValidateURL(base); err != nil {
		return "", InvalidRequestPath(err)
	}
	u, _ := neturl.Parse(base)

	rawPath, rawQuery, hasQuery := strings.Cut(path, "?")
	if strings.ContainsAny(path, " \t\r\n#") {
		return "", InvalidRequestPath(fmt.Errorf("path %q contains characters that must be escaped", path))
	}
	if _, err := neturl.PathUnescape(rawPath); err != nil {
		return "", InvalidRequestPath(err)
	}
	if hasQuery {
		if _, err := neturl.QueryUnescape(rawQuery); err != nil {
			return "", InvalidRequestPath(err)
		}
	}

	joined := joinURLPath(u.EscapedPath(), rawPath)

	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	if u.User != nil {
		b.WriteString(u.User.String())
		b.WriteByte('@')
	}
	b.WriteString(u.Host)
	b.WriteString(joined)
	switch {
	case hasQuery:
		b.WriteByte('?')
		b.WriteString(rawQuery)
	case u.RawQuery != "":
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}

	resolved := b.String()
	if _, err := neturl.Parse(resolved); err != nil {
		return "", InvalidRequestPath(err)
	}
	return resolved, nil
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https are allowed)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

func joinURLPath(basePath, resourcePath string) string {
	if resourcePath == "" {
		if basePath == "" {
			return "/"
		}
		return basePath
	}
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	return basePath + strings.TrimPrefix(resourcePath, "/")
}

func hasHeader(headers map[string]string, key string) bool {
	for k := range headers {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}
