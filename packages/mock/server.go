package mock

import (
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/teapot/packages/http"
	"github.com/abdul-hamid-achik/teapot/packages/wirelog"
)

// Server serves a Transport's fixtures over real HTTP, for clients that
// cannot take an injected transport.
type Server struct {
	transport *Transport
	port      int
	delay     time.Duration
	verbose   bool
	logger    wirelog.Logger
}

// ServerOption is a functional option for Server
type ServerOption func(*Server)

// WithPort sets the server port
func WithPort(port int) ServerOption {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay adds a delay to all responses
func WithDelay(delay time.Duration) ServerOption {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithVerbose logs every request served
func WithVerbose(verbose bool) ServerOption {
	return func(s *Server) {
		s.verbose = verbose
	}
}

// WithLogger sets where server messages go
func WithLogger(logger wirelog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server answering from transport
func NewServer(transport *Transport, opts ...ServerOption) *Server {
	s := &Server{
		transport: transport,
		port:      3000,
		logger:    wirelog.DiscardLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the server's request handler
func (s *Server) Handler() nethttp.Handler {
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	return mux
}

// Start starts the server and blocks until it fails
func (s *Server) Start() error {
	return s.StartWithContext(context.Background())
}

// StartWithContext starts the server with context for graceful shutdown
func (s *Server) StartWithContext(ctx context.Context) error {
	server := &nethttp.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Infof("Fixture server starting on http://localhost:%d", s.port)
	s.logger.Infof("Default fixture: %s, status: %d", s.transport.Registry().DefaultFixture(), s.transport.StatusCode())

	err := server.ListenAndServe()
	if err == nethttp.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleRequest(w nethttp.ResponseWriter, r *nethttp.Request) {
	start := time.Now()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}

	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}

	req, err := http.BuildRequest(http.RequestSpec{
		BaseURL: BaseURL,
		Path:    strings.TrimPrefix(r.URL.RequestURI(), "/"),
		Method:  r.Method,
		Headers: headers,
	})
	if err != nil {
		s.writeError(w, nethttp.StatusBadRequest, err)
		s.logRequest(r, nethttp.StatusBadRequest, start)
		return
	}

	out := s.transport.Execute(r.Context(), req)
	status := out.StatusCode
	if status == 0 {
		status = nethttp.StatusInternalServerError
	}

	if out.Err != nil {
		status = errorStatus(status, out.Err)
		s.writeError(w, status, out.Err)
		s.logRequest(r, status, start)
		return
	}

	for key, value := range out.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(status)
	_, _ = w.Write(out.Body)

	s.logRequest(r, status, start)
}

// errorStatus keeps fixture errors from reaching HTTP clients as 2xx, where
// they would classify as a Success.
func errorStatus(status int, err error) int {
	if status < 200 || status > 299 {
		return status
	}
	switch http.KindOf(err) {
	case http.KindMissingMockFile:
		return nethttp.StatusNotFound
	case http.KindIncorrectHeaders:
		return nethttp.StatusBadRequest
	default:
		return nethttp.StatusInternalServerError
	}
}

func (s *Server) writeError(w nethttp.ResponseWriter, status int, err error) {
	body := map[string]string{"error": err.Error()}
	if kind := http.KindOf(err); kind != 0 {
		body["kind"] = kind.String()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) logRequest(r *nethttp.Request, status int, start time.Time) {
	if s.verbose {
		s.logger.Infof("%s %s -> %d (%s)", r.Method, r.URL.Path, status, time.Since(start))
	}
}
