package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"asha-assistant/internal/common/database"
	apperrors "asha-assistant/internal/common/errors"
	"asha-assistant/internal/common/events"
	"asha-assistant/internal/common/observability"
	"asha-assistant/internal/models"
	"asha-assistant/internal/store"
)

const ComponentName = "httpapi"

const (
	maxBodyBytes = 64 << 10
	readyTimeout = 2 * time.Second
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Responder produces the assistant reply for one user message.
type Responder interface {
	Respond(ctx context.Context, req models.PipelineRequest) *models.PipelineResponse
}

type DiagnosticsReporter interface {
	Report() []observability.SourceReport
}

type Server struct {
	store       store.MessageStore
	responder   Responder
	events      events.Publisher
	diagnostics DiagnosticsReporter
	deps        []database.Pinger
	metrics     http.Handler
	errors      *apperrors.ErrorHandler
	logger      Logger
}

type Option func(*Server)

func WithEvents(p events.Publisher) Option {
	return func(s *Server) { s.events = p }
}

func WithDiagnostics(d DiagnosticsReporter) Option {
	return func(s *Server) { s.diagnostics = d }
}

// WithDependencies registers the dependencies /ready pings.
func WithDependencies(deps ...database.Pinger) Option {
	return func(s *Server) { s.deps = append(s.deps, deps...) }
}

func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func New(messages store.MessageStore, responder Responder, log Logger, opts ...Option) *Server {
	log = log.With(map[string]interface{}{"component": ComponentName})
	s := &Server{
		store:     messages,
		responder: responder,
		events:    events.NopPublisher{},
		metrics:   promhttp.Handler(),
		errors:    apperrors.NewErrorHandler(log),
		logger:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.countRequests)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.metrics.ServeHTTP(w, r)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/messages", s.handleCreateMessage)
		r.Get("/messages/{sessionId}", s.handleListMessages)
		r.Delete("/messages/{sessionId}", s.handleClearMessages)
		r.Get("/diagnostics", s.handleDiagnostics)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	failures := database.CheckAll(r.Context(), readyTimeout, s.deps...)
	if len(failures) > 0 {
		s.logger.Warn("readiness check failed", map[string]interface{}{"failures": failures})
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "not_ready",
			"failures": failures,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, _ *http.Request) {
	sources := []observability.SourceReport{}
	if s.diagnostics != nil {
		sources = s.diagnostics.Report()
	}
	respondJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	apperrors.WriteJSON(w, status, v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, apperrors.Body{Message: message})
}
