package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"accretioncli/internal/infrastructure"
)

// HealthHandler serves liveness, readiness, and version endpoints.
type HealthHandler struct {
	service AnalyticsService
	started time.Time
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(service AnalyticsService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		started: time.Now().UTC(),
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// RegisterRoutes registers the health routes.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/ready", h.ReadinessCheck)
	})
	r.Get("/version", h.Version)
}

// HealthCheck handles GET /api/health.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status":         "ok",
		"uptime":         time.Since(h.started).String(),
		"dataset_loaded": status.Loaded,
	})
}

// ReadinessCheck handles GET /api/health/ready. The service is ready
// as soon as it can answer; a missing dataset is reported but not a
// readiness failure, since uploads arrive through this same server.
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"ready":          true,
		"dataset_loaded": status.Loaded,
		"observations":   status.Observations,
	})
}

// Version handles GET /api/version.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"service": infrastructure.ServiceName,
		"version": infrastructure.ServiceVersion,
	})
}
