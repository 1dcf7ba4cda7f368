// Package health exposes liveness and prometheus metrics over HTTP.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status represents the health state of the process or a dependency.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusCritical Status = "critical"
)

// Check probes one dependency (credential store, database, cache).
type Check func(ctx context.Context) error

// CheckResult is the outcome of a single named check.
type CheckResult struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Report contains the full health report.
type Report struct {
	Status Status        `json:"status"`
	Checks []CheckResult `json:"checks"`
}

// Server provides HTTP endpoints for health monitoring.
type Server struct {
	mu      sync.RWMutex
	checks  map[string]Check
	timeout time.Duration
	server  *http.Server
}

// NewServer creates a new health server listening on port.
func NewServer(port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		checks:  make(map[string]Check),
		timeout: 5 * time.Second,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Register adds a named dependency check.
func (s *Server) Register(name string, check Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// CheckHealth runs every registered check.
func (s *Server) CheckHealth(ctx context.Context) Report {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	checks := make(map[string]Check, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	s.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report := Report{Status: StatusHealthy, Checks: make([]CheckResult, 0, len(names))}
	for _, name := range names {
		res := CheckResult{Name: name, Status: StatusHealthy}
		if err := checks[name](ctx); err != nil {
			res.Status = StatusCritical
			res.Error = err.Error()
			report.Status = StatusCritical
		}
		report.Checks = append(report.Checks, res)
	}
	return report
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.CheckHealth(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if report.Status == StatusCritical {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	_ = json.NewEncoder(w).Encode(report)
}
