// Package services holds the session-level orchestration between the
// loader, the classification engine, and the transport layer.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"accretioncli/internal/accretion"
	"accretioncli/internal/dataset"
	"accretioncli/internal/infrastructure"
	"accretioncli/pkg/contracts/domain"
)

// Sentinel errors for session state. The transport layer maps these to
// API error responses.
var (
	ErrNotLoaded     = errors.New("no dataset loaded")
	ErrAlreadyLoaded = errors.New("dataset already loaded")
)

// DatasetStatus describes the current session.
type DatasetStatus struct {
	Loaded       bool                 `json:"loaded"`
	Source       string               `json:"source,omitempty"`
	LoadedAt     time.Time            `json:"loaded_at,omitempty"`
	Observations int                  `json:"observations"`
	Columns      int                  `json:"columns"`
	Thresholds   accretion.Thresholds `json:"thresholds"`
}

// RecomputeRequest is one filter/aggregate pass. A nil label slice on
// any dimension means "default to all labels observed in the full
// set"; an empty non-nil slice means "allow nothing" and yields an
// empty subset.
type RecomputeRequest struct {
	Selection      accretion.FilterSelection
	IncludeRecords bool
}

// RecomputeResult carries everything the rendering layer needs for one
// pass: the summary, the thresholds of the full population, the
// effective selection after defaulting, and optionally the filtered
// observations themselves.
type RecomputeResult struct {
	Summary    accretion.Summary         `json:"summary"`
	Thresholds accretion.Thresholds      `json:"thresholds"`
	Selection  accretion.FilterSelection `json:"selection"`
	Records    []domain.Observation      `json:"records,omitempty"`
}

// AnalyticsService owns the one-per-session dataset lifecycle: load,
// classify once, then serve recomputations against the immutable set.
type AnalyticsService struct {
	loader  *dataset.Loader
	spin    accretion.SpinThresholds
	tracer  trace.Tracer
	metrics *infrastructure.Metrics
	logger  *slog.Logger

	mu         sync.RWMutex
	ds         *domain.Dataset
	thresholds accretion.Thresholds
}

// NewAnalyticsService creates the analytics service. tracer and
// metrics may be nil; logging falls back to slog.Default.
func NewAnalyticsService(loader *dataset.Loader, spin accretion.SpinThresholds, tracer trace.Tracer, metrics *infrastructure.Metrics, logger *slog.Logger) *AnalyticsService {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(infrastructure.ServiceName)
	}
	return &AnalyticsService{
		loader:  loader,
		spin:    spin,
		tracer:  tracer,
		metrics: metrics,
		logger:  logger.With(slog.String("service", "analytics")),
	}
}

// LoadFromReader ingests a workbook from r (e.g. an HTTP upload),
// computes the classification thresholds against the full set, and
// labels every observation. Returns ErrAlreadyLoaded when a dataset
// exists and replace is false.
func (s *AnalyticsService) LoadFromReader(ctx context.Context, r io.Reader, source string, replace bool) (DatasetStatus, error) {
	ctx, span := s.tracer.Start(ctx, "dataset.load",
		trace.WithAttributes(attribute.String("source", source)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ds != nil && !replace {
		return DatasetStatus{}, ErrAlreadyLoaded
	}

	ds, err := s.loader.LoadReader(ctx, r, source)
	if err != nil {
		return DatasetStatus{}, fmt.Errorf("load dataset: %w", err)
	}

	s.install(ctx, ds)
	return s.statusLocked(), nil
}

// LoadFromFile is LoadFromReader for a workbook on disk, used by the
// report tool and server startup preloads.
func (s *AnalyticsService) LoadFromFile(ctx context.Context, path string, replace bool) (DatasetStatus, error) {
	ctx, span := s.tracer.Start(ctx, "dataset.load",
		trace.WithAttributes(attribute.String("source", path)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ds != nil && !replace {
		return DatasetStatus{}, ErrAlreadyLoaded
	}

	ds, err := s.loader.LoadFile(ctx, path)
	if err != nil {
		return DatasetStatus{}, fmt.Errorf("load dataset: %w", err)
	}

	s.install(ctx, ds)
	return s.statusLocked(), nil
}

// install computes thresholds and labels. Caller holds the write lock.
func (s *AnalyticsService) install(ctx context.Context, ds *domain.Dataset) {
	thresholds := accretion.ComputeThresholds(ds, s.spin)
	accretion.ClassifyDataset(ds, thresholds)

	s.ds = ds
	s.thresholds = thresholds

	if s.metrics != nil {
		s.metrics.DatasetsLoaded.Inc()
		s.metrics.ObservationsTotal.Set(float64(ds.Count()))
	}

	s.logger.InfoContext(ctx, "dataset classified",
		slog.String("source", ds.Source),
		slog.Int("observations", ds.Count()),
		slog.Bool("mass_thresholds_defined", thresholds.MassQ33.Valid))
}

// Status reports the current session state. Safe to call at any time.
func (s *AnalyticsService) Status(ctx context.Context) DatasetStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusLocked()
}

func (s *AnalyticsService) statusLocked() DatasetStatus {
	if s.ds == nil {
		return DatasetStatus{}
	}
	return DatasetStatus{
		Loaded:       true,
		Source:       s.ds.Source,
		LoadedAt:     s.ds.LoadedAt,
		Observations: s.ds.Count(),
		Columns:      len(s.ds.Columns),
		Thresholds:   s.thresholds,
	}
}

// ObservedLabels returns the default selection: every label present in
// the full set, per dimension, in first-seen order.
func (s *AnalyticsService) ObservedLabels(ctx context.Context) (accretion.FilterSelection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ds == nil {
		return accretion.FilterSelection{}, ErrNotLoaded
	}
	return accretion.DefaultSelection(s.ds.Observations), nil
}

// Records returns the full classified set for table rendering.
func (s *AnalyticsService) Records(ctx context.Context) ([]domain.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ds == nil {
		return nil, ErrNotLoaded
	}
	out := make([]domain.Observation, len(s.ds.Observations))
	copy(out, s.ds.Observations)
	return out, nil
}

// Recompute runs one filter → aggregate pass against the immutable
// session dataset. Population-relative statistics (mass thresholds,
// jet p90) always reference the full set, never the subset.
func (s *AnalyticsService) Recompute(ctx context.Context, req RecomputeRequest) (RecomputeResult, error) {
	ctx, span := s.tracer.Start(ctx, "analytics.recompute")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ds == nil {
		return RecomputeResult{}, ErrNotLoaded
	}

	start := time.Now()
	sel := s.effectiveSelection(req.Selection)
	subset := accretion.Filter(s.ds.Observations, sel)
	summary := accretion.Aggregate(subset, s.ds)

	if s.metrics != nil {
		s.metrics.Recomputes.Inc()
		s.metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
	}

	span.SetAttributes(
		attribute.Int("subset.count", summary.Count),
		attribute.Int("population.count", s.ds.Count()),
	)

	s.logger.DebugContext(ctx, "recompute served",
		slog.Int("subset", summary.Count),
		slog.Int("population", s.ds.Count()))

	result := RecomputeResult{
		Summary:    summary,
		Thresholds: s.thresholds,
		Selection:  sel,
	}
	if req.IncludeRecords {
		result.Records = subset
	}
	return result, nil
}

// effectiveSelection fills nil dimensions with the observed label set.
// Caller holds at least the read lock.
func (s *AnalyticsService) effectiveSelection(sel accretion.FilterSelection) accretion.FilterSelection {
	if sel.MassClasses != nil && sel.SpinClasses != nil && sel.EddingtonClasses != nil {
		return sel
	}
	observed := accretion.DefaultSelection(s.ds.Observations)
	if sel.MassClasses == nil {
		sel.MassClasses = observed.MassClasses
	}
	if sel.SpinClasses == nil {
		sel.SpinClasses = observed.SpinClasses
	}
	if sel.EddingtonClasses == nil {
		sel.EddingtonClasses = observed.EddingtonClasses
	}
	return sel
}
