// Package server exposes the analysis engine over HTTP.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jenian/atfcheck/internal/analyzer"
)

// RunFunc performs a full analysis run
type RunFunc func() *analyzer.Report

// Check describes a registered analyzer
type Check struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Server is the HTTP API for on-demand analysis.
type Server struct {
	router chi.Router
	run    RunFunc
	checks []Check
	log    *slog.Logger

	mu sync.Mutex // Serializes runs; the parse caches are shared
}

// NewServer creates the server. analyzers is only used to describe the registry.
func NewServer(run RunFunc, analyzers []analyzer.Analyzer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{run: run, log: log}
	for _, a := range analyzers {
		s.checks = append(s.checks, Check{Name: a.Name(), Description: a.Description()})
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/api/analyzers", s.handleAnalyzers)
	r.Get("/api/report", s.handleReport)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleAnalyzers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"analyzers": s.checks})
}

// handleReport runs the engine and answers 422 when the report has errors.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report := s.runExclusive()

	if report == nil {
		jsonError(w, "analysis did not produce a report", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if !report.Success() {
		status = http.StatusUnprocessableEntity
	}
	s.log.Info("report served",
		"request_id", middleware.GetReqID(r.Context()),
		"errors", report.TotalErrors,
		"warnings", report.TotalWarnings,
	)
	writeJSON(w, status, report)
}

func (s *Server) runExclusive() *analyzer.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
