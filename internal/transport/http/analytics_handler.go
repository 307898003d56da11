package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"accretioncli/internal/accretion"
	apierrors "accretioncli/internal/errors"
	"accretioncli/internal/services"
)

// AnalyticsHandler serves label sets, recompute summaries, and the
// classified record table.
type AnalyticsHandler struct {
	service      AnalyticsService
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(service AnalyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:      service,
		validate:     validator.New(),
		logger:       logger.With(slog.String("handler", "analytics")),
		errorHandler: apierrors.NewErrorHandler(logger),
	}
}

// RegisterRoutes registers the analytics routes.
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/labels", h.Labels)
		r.Post("/summary", h.Summary)
		r.Get("/records", h.Records)
	})
}

// Labels handles GET /api/analytics/labels: the observed label sets
// per dimension, which double as the UI's default filter selection.
func (h *AnalyticsHandler) Labels(w http.ResponseWriter, r *http.Request) {
	labels, err := h.service.ObservedLabels(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, labels)
}

// Summary handles POST /api/analytics/summary: one filter/aggregate
// pass. The body is a FilterSelection; an empty body (or a null
// dimension) defaults to all observed labels, while an explicit empty
// array allows nothing on that dimension. ?include_records=true adds
// the filtered observations to the response.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var sel accretion.FilterSelection
	if err := render.DecodeJSON(r.Body, &sel); err != nil && !errors.Is(err, io.EOF) {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	if err := h.validate.Struct(sel); err != nil {
		h.errorHandler.HandleError(w, r, validationError(err))
		return
	}

	includeRecords := strings.EqualFold(r.URL.Query().Get("include_records"), "true")

	result, err := h.service.Recompute(ctx, services.RecomputeRequest{
		Selection:      sel,
		IncludeRecords: includeRecords,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// Records handles GET /api/analytics/records: the full classified set.
func (h *AnalyticsHandler) Records(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Records(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, records)
}

func (h *AnalyticsHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrNotLoaded) {
		h.errorHandler.HandleError(w, r, apierrors.ErrDatasetNotLoaded)
		return
	}
	h.errorHandler.HandleError(w, r, err)
}

// validationError flattens a validator error into the API shape.
func validationError(err error) *apierrors.APIError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		details := make([]apierrors.ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, apierrors.ValidationError{
				Field:   fe.Field(),
				Message: fe.Tag(),
			})
		}
		return apierrors.NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED",
			"Request validation failed", details)
	}
	return apierrors.ErrValidationFailed
}
