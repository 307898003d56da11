// Package http contains the HTTP handlers for the analytics API.
package http

import (
	"context"
	"io"

	"accretioncli/internal/accretion"
	"accretioncli/internal/services"
	"accretioncli/pkg/contracts/domain"
)

// AnalyticsService is the service surface the handlers depend on.
// Declared here so handler tests can substitute a stub.
type AnalyticsService interface {
	LoadFromReader(ctx context.Context, r io.Reader, source string, replace bool) (services.DatasetStatus, error)
	Status(ctx context.Context) services.DatasetStatus
	ObservedLabels(ctx context.Context) (accretion.FilterSelection, error)
	Records(ctx context.Context) ([]domain.Observation, error)
	Recompute(ctx context.Context, req services.RecomputeRequest) (services.RecomputeResult, error)
}
