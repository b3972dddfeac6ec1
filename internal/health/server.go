// Package health serves /health, /ready and /metrics while dnsyncmyip runs
// in interval mode.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Readiness values reported by /ready.
const (
	StatusReady    = "ready"
	StatusDegraded = "degraded"
	StatusNotReady = "not_ready"
)

// Checker reports an error when a component is not ready.
type Checker func(ctx context.Context) error

// DegradedChecker reports a message when a component works but needs attention.
type DegradedChecker func(ctx context.Context) (degraded bool, message string)

// ComponentStatus is one checker's verdict.
type ComponentStatus struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// DegradedStatus is one degraded component.
type DegradedStatus struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Response is the JSON body of /health and /ready.
type Response struct {
	Status     string            `json:"status"`
	Components []ComponentStatus `json:"components,omitempty"`
	Degraded   []DegradedStatus  `json:"degraded,omitempty"`
}

// Server exposes the health and metrics endpoints.
type Server struct {
	addr    string
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	timeout time.Duration

	mu       sync.RWMutex
	checkers map[string]Checker
	degraded map[string]DegradedChecker
}

// Option is a functional option for configuring the Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTimeout bounds how long /ready waits for its checkers.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// New creates a server listening on port once started.
func New(port int, opts ...Option) *Server {
	s := &Server{
		addr:     fmt.Sprintf(":%d", port),
		mux:      http.NewServeMux(),
		logger:   slog.Default(),
		timeout:  5 * time.Second,
		checkers: make(map[string]Checker),
		degraded: make(map[string]DegradedChecker),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/ready", s.handleReady)
	s.mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// RegisterChecker adds a readiness check.
func (s *Server) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
}

// RegisterDegradedChecker adds a degraded-state check.
func (s *Server) RegisterDegradedChecker(name string, checker DegradedChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degraded[name] = checker
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeResponse(w, http.StatusOK, Response{Status: "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for name, check := range s.checkers {
		checkers[name] = check
	}
	degraded := make(map[string]DegradedChecker, len(s.degraded))
	for name, check := range s.degraded {
		degraded[name] = check
	}
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	resp := Response{Status: StatusReady}
	code := http.StatusOK

	for _, name := range sortedKeys(checkers) {
		status := ComponentStatus{Name: name, Ready: true}
		if err := checkers[name](ctx); err != nil {
			status.Ready = false
			status.Error = err.Error()
			resp.Status = StatusNotReady
			code = http.StatusServiceUnavailable
			s.logger.Warn("readiness check failed",
				slog.String("component", name),
				slog.String("error", err.Error()),
			)
		}
		resp.Components = append(resp.Components, status)
	}

	for _, name := range sortedKeys(degraded) {
		if isDegraded, message := degraded[name](ctx); isDegraded {
			resp.Degraded = append(resp.Degraded, DegradedStatus{Name: name, Message: message})
			if resp.Status == StatusReady {
				resp.Status = StatusDegraded
			}
		}
	}

	writeResponse(w, code, resp)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeResponse(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// Start serves in a background goroutine until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Info("health server starting", slog.String("addr", s.addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("health server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
