package infrastructure

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the analytics service.
type Metrics struct {
	registry *prometheus.Registry

	DatasetsLoaded    prometheus.Counter
	ObservationsTotal prometheus.Gauge
	Recomputes        prometheus.Counter
	RecomputeDuration prometheus.Histogram
	RequestsTotal     *prometheus.CounterVec
}

// NewMetrics creates and registers the service metrics on a private
// registry, so tests can build as many instances as they like.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,
		DatasetsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "accretion_datasets_loaded_total",
			Help: "Number of datasets loaded in this process",
		}),
		ObservationsTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "accretion_observations",
			Help: "Observation count of the current dataset",
		}),
		Recomputes: factory.NewCounter(prometheus.CounterOpts{
			Name: "accretion_recomputes_total",
			Help: "Number of filter/aggregate recomputations served",
		}),
		RecomputeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "accretion_recompute_duration_seconds",
			Help:    "Latency of one filter/aggregate pass",
			Buckets: prometheus.DefBuckets,
		}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "accretion_http_requests_total",
			Help: "HTTP requests by method, path pattern, and status",
		}, []string{"method", "path", "status"}),
	}
	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
