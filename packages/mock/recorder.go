package mock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/teapot/packages/payload"
	"github.com/abdul-hamid-achik/teapot/packages/wirelog"
)

// Recording is one upstream response saved as a fixture.
type Recording struct {
	Method   string        `json:"method"`
	Path     string        `json:"path"`
	Fixture  string        `json:"fixture"`
	Status   int           `json:"status"`
	Duration time.Duration `json:"duration"`
}

// Recorder is a reverse proxy that writes JSON responses from a live service
// into a fixture directory, one file per endpoint name. Only the first
// successful response for each name is kept in a session.
type Recorder struct {
	target    *url.URL
	dir       string
	port      int
	exclude   []string
	overwrite bool
	logger    wirelog.Logger

	mu         sync.Mutex
	recordings []Recording
	seen       map[string]bool
}

type RecorderOption func(*Recorder)

// WithRecorderPort sets the proxy port
func WithRecorderPort(port int) RecorderOption {
	return func(r *Recorder) {
		r.port = port
	}
}

// WithExclude skips paths containing any of the given fragments
func WithExclude(paths []string) RecorderOption {
	return func(r *Recorder) {
		r.exclude = paths
	}
}

// WithOverwrite replaces fixture files that already exist on disk
func WithOverwrite(overwrite bool) RecorderOption {
	return func(r *Recorder) {
		r.overwrite = overwrite
	}
}

func WithRecorderLogger(logger wirelog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func NewRecorder(target, dir string, opts ...RecorderOption) (*Recorder, error) {
	if target == "" {
		return nil, fmt.Errorf("target URL is required")
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid target URL: %s", target)
	}
	r := &Recorder{
		target: u,
		dir:    dir,
		port:   8080,
		logger: wirelog.DiscardLogger,
		seen:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

type startKey struct{}

// Handler returns the proxy handler
func (r *Recorder) Handler() nethttp.Handler {
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(r.target)
			pr.Out.Host = r.target.Host
		},
		ModifyResponse: r.record,
	}
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, req *nethttp.Request) {
		ctx := context.WithValue(req.Context(), startKey{}, time.Now())
		proxy.ServeHTTP(w, req.WithContext(ctx))
	})
}

// StartWithContext serves the proxy until ctx is done
func (r *Recorder) StartWithContext(ctx context.Context) error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("creating fixture directory: %w", err)
	}

	server := &nethttp.Server{
		Addr:    fmt.Sprintf(":%d", r.port),
		Handler: r.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	r.logger.Infof("Recording proxy starting on http://localhost:%d", r.port)
	r.logger.Infof("Proxying to %s, writing fixtures to %s", r.target, r.dir)

	err := server.ListenAndServe()
	if err == nethttp.ErrServerClosed {
		return nil
	}
	return err
}

func (r *Recorder) record(resp *nethttp.Response) error {
	req := resp.Request
	if r.shouldExclude(req.URL.Path) {
		r.logger.Debugf("Excluded: %s %s", req.Method, req.URL.Path)
		return nil
	}

	name := EndpointName(req.URL.Path)
	if name == "" || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return err
	}
	// Fixtures must load back as objects, so arrays and scalars are skipped.
	if p, ok := payload.Decode(body); !ok || p.Shape() != payload.ShapeObject {
		r.logger.Debugf("Skipped non-object response: %s %s", req.Method, req.URL.Path)
		return nil
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		return err
	}
	pretty.WriteByte('\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[name] {
		return nil
	}
	r.seen[name] = true

	file := filepath.Join(r.dir, name+FixtureExt)
	if !r.overwrite {
		if _, err := os.Stat(file); err == nil {
			r.logger.Infof("Kept existing fixture %s", file)
			return nil
		}
	}
	if err := os.WriteFile(file, pretty.Bytes(), 0644); err != nil {
		r.logger.Errorf("Writing fixture %s: %v", file, err)
		return nil
	}

	rec := Recording{
		Method:  req.Method,
		Path:    req.URL.Path,
		Fixture: name,
		Status:  resp.StatusCode,
	}
	if start, ok := req.Context().Value(startKey{}).(time.Time); ok {
		rec.Duration = time.Since(start)
	}
	r.recordings = append(r.recordings, rec)
	r.logger.Infof("Recorded %s %s -> %s (%s)", rec.Method, rec.Path, file, rec.Duration)
	return nil
}

func (r *Recorder) shouldExclude(path string) bool {
	for _, exclude := range r.exclude {
		if exclude != "" && strings.Contains(path, exclude) {
			return true
		}
	}
	return false
}

// Recordings returns the fixtures written so far
func (r *Recorder) Recordings() []Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recording, len(r.recordings))
	copy(out, r.recordings)
	return out
}

// Clear forgets what was recorded so the next response per endpoint is saved again
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordings = nil
	r.seen = make(map[string]bool)
}
