// Package web serves the dashboard page, the JSON control API, and the
// websocket feed that pushes each committed screening cycle to the browser.
package web

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/pumpscope/pumpscope/internal/alert"
	"github.com/pumpscope/pumpscope/internal/bitquery"
	"github.com/pumpscope/pumpscope/internal/observability"
	"github.com/pumpscope/pumpscope/internal/pumpfun"
	"github.com/pumpscope/pumpscope/internal/refresh"
	"github.com/pumpscope/pumpscope/internal/screener"
)

// Engine is the slice of the refresh loop the handlers drive.
type Engine interface {
	Trigger() bool
	Criteria() screener.Criteria
	SetCriteria(screener.Criteria)
	Interval() time.Duration
	SetInterval(time.Duration) time.Duration
	Stats() refresh.Stats
}

// Config holds the HTTP listener settings.
type Config struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
}

// DefaultConfig returns the listener defaults.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Deps wires the server to the rest of the process. Monitor, Metrics and the
// stats funcs may be nil; the matching endpoints degrade to minimal output.
type Deps struct {
	Engine        Engine
	Monitor       *observability.Monitor
	Metrics       *observability.Metrics
	ProviderStats func() bitquery.Stats
	CatalogStats  func() pumpfun.Stats
	AlertStats    func() alert.Stats
}

// Server owns the router, the websocket hub and the last committed cycle.
type Server struct {
	config Config
	deps   Deps
	hub    *Hub
	router *mux.Router
	server *http.Server

	last    atomic.Pointer[screener.CycleResult]
	started time.Time
}

// NewServer builds the router and hub. Call Run to serve.
func NewServer(config Config, deps Deps) *Server {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = 5 * time.Second
	}

	s := &Server{
		config:  config,
		deps:    deps,
		hub:     NewHub(),
		router:  mux.NewRouter(),
		started: time.Now(),
	}
	if deps.Metrics != nil {
		s.hub.OnCount(deps.Metrics.SetWSClients)
	}
	s.routes()

	s.server = &http.Server{
		Addr:              config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.hub.ServeHTTP).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tokens", s.handleTokens).Methods(http.MethodGet)
	api.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/params", s.handleGetParams).Methods(http.MethodGet)
	api.HandleFunc("/params", s.handleSetParams).Methods(http.MethodPost)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Publish stores a committed cycle and pushes it to every dashboard client.
func (s *Server) Publish(result *screener.CycleResult) {
	s.last.Store(result)
	s.hub.Broadcast(wsEnvelope{Type: "cycle", Cycle: result})
}

// Run serves until ctx dies, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.Close()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown error")
		}
	}()

	log.Info().Str("addr", s.config.Addr).Msg("dashboard server started")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

type wsEnvelope struct {
	Type  string                `json:"type"`
	Cycle *screener.CycleResult `json:"cycle,omitempty"`
}

type tokensResponse struct {
	Ready bool                  `json:"ready"`
	Cycle *screener.CycleResult `json:"cycle,omitempty"`
}

type refreshResponse struct {
	Accepted  bool `json:"accepted"`
	Coalesced bool `json:"coalesced"`
}

type paramsPayload struct {
	Criteria    *screener.Criteria `json:"criteria,omitempty"`
	IntervalSec *int               `json:"interval_sec,omitempty"`
}

type paramsResponse struct {
	Criteria    screener.Criteria `json:"criteria"`
	IntervalSec int               `json:"interval_sec"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(dashboardHTML))
}

func (s *Server) handleTokens(w http.ResponseWriter, _ *http.Request) {
	result := s.last.Load()
	writeJSON(w, http.StatusOK, tokensResponse{Ready: result != nil, Cycle: result})
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	started := s.deps.Engine.Trigger()
	writeJSON(w, http.StatusAccepted, refreshResponse{Accepted: true, Coalesced: !started})
}

func (s *Server) handleGetParams(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.currentParams())
}

func (s *Server) handleSetParams(w http.ResponseWriter, r *http.Request) {
	var payload paramsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.Criteria == nil && payload.IntervalSec == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}
	if payload.IntervalSec != nil && *payload.IntervalSec <= 0 {
		writeError(w, http.StatusBadRequest, "interval_sec must be positive")
		return
	}

	if payload.Criteria != nil {
		s.deps.Engine.SetCriteria(*payload.Criteria)
	}
	if payload.IntervalSec != nil {
		s.deps.Engine.SetInterval(time.Duration(*payload.IntervalSec) * time.Second)
	}

	log.Info().
		Bool("criteria_changed", payload.Criteria != nil).
		Bool("interval_changed", payload.IntervalSec != nil).
		Msg("screening params updated")
	writeJSON(w, http.StatusOK, s.currentParams())
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := map[string]any{
		"engine":     s.deps.Engine.Stats(),
		"uptime_sec": int64(time.Since(s.started) / time.Second),
		"ws_clients": s.hub.Count(),
	}
	if s.deps.ProviderStats != nil {
		status["provider"] = s.deps.ProviderStats()
	}
	if s.deps.CatalogStats != nil {
		status["catalog"] = s.deps.CatalogStats()
	}
	if s.deps.AlertStats != nil {
		status["alerts"] = s.deps.AlertStats()
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Monitor == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		return
	}
	health := s.deps.Monitor.Check(r.Context())
	code := http.StatusOK
	if health.Status == observability.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *Server) currentParams() paramsResponse {
	return paramsResponse{
		Criteria:    s.deps.Engine.Criteria(),
		IntervalSec: int(s.deps.Engine.Interval() / time.Second),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("response encode failed")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		if r.URL.Path == "/metrics" || r.URL.Path == "/healthz" {
			return
		}
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.code).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack keeps the websocket upgrade working through the logging wrapper.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("web: response writer does not support hijacking")
	}
	return hj.Hijack()
}
