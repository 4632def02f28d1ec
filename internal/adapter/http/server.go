// Package http serves the event ingress endpoint alongside health, readiness
// and metrics.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxEventBytes = 1 << 20

// Dispatcher runs the handler bound to an event.
type Dispatcher interface {
	Dispatch(ctx context.Context, evt domain.Event) domain.Outcome
}

// Server exposes POST /v1/events plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewServer creates the HTTP server.
func NewServer(addr string, ready sharedobs.ReadinessChecker, dispatcher Dispatcher, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		dispatcher: dispatcher,
		logger:     logger,
	}

	mux.HandleFunc("POST /v1/events", s.handleEvent)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleEvent dispatches one event synchronously and returns its outcome.
// Handler failures are reported in the body with a 200; only malformed
// requests are rejected.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "event body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	evt, err := domain.DecodeEvent(body)
	if err != nil {
		s.logger.Debug("rejected event", "error", err, "remote", r.RemoteAddr)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if evt.Referer == "" {
		evt.Referer = r.Referer()
	}

	out := s.dispatcher.Dispatch(r.Context(), evt)
	writeJSON(w, http.StatusOK, domain.NewOutcomeRecord(evt, out))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // response already committed
}
