package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "accretioncli/internal/errors"
	"accretioncli/internal/services"
)

// DatasetHandler handles dataset upload and session status requests.
type DatasetHandler struct {
	service        AnalyticsService
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(service AnalyticsService, maxUploadBytes int64, logger *slog.Logger) *DatasetHandler {
	return &DatasetHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("handler", "dataset")),
		errorHandler:   apierrors.NewErrorHandler(logger),
	}
}

// RegisterRoutes registers the dataset routes.
func (h *DatasetHandler) RegisterRoutes(r chi.Router) {
	r.Route("/dataset", func(r chi.Router) {
		r.Post("/", h.Upload)
		r.Get("/", h.Status)
	})
}

// Upload handles POST /api/dataset: a multipart workbook upload. The
// session dataset is loaded once; pass ?replace=true to start over.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	replace := strings.EqualFold(r.URL.Query().Get("replace"), "true")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer file.Close()

	h.logger.InfoContext(ctx, "dataset upload received",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
		slog.Bool("replace", replace))

	status, err := h.service.LoadFromReader(ctx, file, header.Filename, replace)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyLoaded):
			h.errorHandler.HandleError(w, r, apierrors.ErrDatasetExists)
		default:
			h.errorHandler.HandleError(w, r, apierrors.DatasetLoadError(err))
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, status)
}

// Status handles GET /api/dataset.
func (h *DatasetHandler) Status(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Status(r.Context()))
}
