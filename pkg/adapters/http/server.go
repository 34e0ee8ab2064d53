// Package http exposes the dialog engine to the messaging provider's webhook.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/ngena/pkg/actions"
	"github.com/aretw0/ngena/pkg/dispatch"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MaxBodySize bounds a webhook request body.
const MaxBodySize = 1 << 20

// Engine is the part of the application the server drives.
type Engine interface {
	HandleWebhook(ctx context.Context, raw []byte) (dispatch.Outcome, error)
	Ping(ctx context.Context) error
}

// Server serves the webhook and operational endpoints.
type Server struct {
	Engine  Engine
	Actions actions.Table
	Metrics http.Handler
	Version string
	Logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithActions publishes the action table on GET /actions.
func WithActions(t actions.Table) Option {
	return func(s *Server) {
		s.Actions = t
	}
}

// WithMetrics serves h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = strings.TrimSpace(v)
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates the HTTP handler for engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{Engine: engine, Version: "unknown", Logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/webhook", s.Webhook)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.Actions != nil {
		r.Get("/actions", s.GetActions)
	}
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return r
}

// Webhook handles POST /webhook. Deliveries are acknowledged with 200 once read,
// whatever the cycle outcome, so the provider does not redeliver them.
func (s *Server) Webhook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
		}
		s.Logger.Warn("Webhook: Unreadable body", "error", err)
		return
	}

	log := s.Logger.With("request_id", middleware.GetReqID(r.Context()))
	out, err := s.Engine.HandleWebhook(r.Context(), raw)
	switch {
	case err != nil:
		log.Error("Webhook: Cycle failed", "error", err, "cycle_id", out.CycleID)
	case out.Dropped:
		log.Debug("Webhook: No user message")
	default:
		log.Debug("Webhook: Handled", "cycle_id", out.CycleID, "outcome", out.Result())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "received"})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	code := http.StatusOK
	if err := s.Engine.Ping(r.Context()); err != nil {
		s.Logger.Error("Health check failed", "error", err)
		resp = map[string]string{"status": "unavailable", "error": err.Error()}
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{
		"app":     "ngena",
		"version": s.Version,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetActions handles the GET /actions request.
func (s *Server) GetActions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Actions); err != nil {
		s.Logger.Error("GetActions response encode failed", "error", err)
	}
}
