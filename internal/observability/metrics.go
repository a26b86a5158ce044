package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// corridor resolution pipeline.
type Metrics struct {
	Resolutions     prometheus.Counter
	CorridorSize    prometheus.Histogram
	HazardsDetected prometheus.Counter

	// Provider fetch metrics.
	ProviderFetches  *prometheus.CounterVec   // labels: provider, outcome={success,degraded,error}
	ProviderDuration *prometheus.HistogramVec // labels: provider
	CacheLookups     *prometheus.CounterVec   // labels: provider, result={hit,refresh,stale,miss}
	RecordsDropped   *prometheus.CounterVec   // labels: provider

	// Snapshot publishing metrics.
	SnapshotsPublished prometheus.Counter
	PublishErrors      prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Resolutions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "road_weather",
			Name:      "resolutions_total",
			Help:      "Total corridor resolution requests processed.",
		}),
		CorridorSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "road_weather",
			Name:      "corridor_stations",
			Help:      "Number of stations resolved into the corridor per request.",
			Buckets:   []float64{0, 1, 2, 4, 6, 8, 10, 15, 20},
		}),
		HazardsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "road_weather",
			Name:      "hazards_detected_total",
			Help:      "Total hazard statements emitted across all requests.",
		}),
		ProviderFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "road_weather",
			Name:      "provider_fetches_total",
			Help:      "Provider observation fetches by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "road_weather",
			Name:      "provider_fetch_duration_seconds",
			Help:      "Upstream provider request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "road_weather",
			Name:      "cache_lookups_total",
			Help:      "Bulk cache lookups by provider and result.",
		}, []string{"provider", "result"}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "road_weather",
			Name:      "records_dropped_total",
			Help:      "Malformed provider records dropped during parsing.",
		}, []string{"provider"}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "road_weather",
			Name:      "snapshots_published_total",
			Help:      "Corridor snapshots published to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "road_weather",
			Name:      "publish_errors_total",
			Help:      "Failed snapshot publish attempts.",
		}),
	}

	prometheus.MustRegister(
		m.Resolutions,
		m.CorridorSize,
		m.HazardsDetected,
		m.ProviderFetches,
		m.ProviderDuration,
		m.CacheLookups,
		m.RecordsDropped,
		m.SnapshotsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Resolutions:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "road_weather", Name: "resolutions_total"}),
		CorridorSize:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "road_weather", Name: "corridor_stations"}),
		HazardsDetected:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "road_weather", Name: "hazards_detected_total"}),
		ProviderFetches:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "road_weather", Name: "provider_fetches_total"}, []string{"provider", "outcome"}),
		ProviderDuration:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "road_weather", Name: "provider_fetch_duration_seconds"}, []string{"provider"}),
		CacheLookups:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "road_weather", Name: "cache_lookups_total"}, []string{"provider", "result"}),
		RecordsDropped:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "road_weather", Name: "records_dropped_total"}, []string{"provider"}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "road_weather", Name: "snapshots_published_total"}),
		PublishErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "road_weather", Name: "publish_errors_total"}),
	}
}
