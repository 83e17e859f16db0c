package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Hydration and search Prometheus metrics.
var (
	HydrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lineage",
			Name:      "hydrations_total",
			Help:      "Total number of hydration calls",
		},
		[]string{"op", "status"},
	)

	HydrationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lineage",
			Name:      "hydration_duration_seconds",
			Help:      "Hydration call duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"op"},
	)

	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lineage",
			Name:      "search_total",
			Help:      "Total number of searches",
		},
		[]string{"type", "path", "status"}, // path: "fast" / "intersect" / "cache"
	)

	SearchRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lineage",
			Name:      "search_rows",
			Help:      "Rows left after intersection, before paging",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
)

var registerLineageOnce sync.Once

// RegisterLineageMetrics registers hydration and search metrics on the
// default registry. Safe to call more than once.
func RegisterLineageMetrics() {
	registerLineageOnce.Do(func() {
		prometheus.MustRegister(HydrationsTotal, HydrationDuration, SearchTotal, SearchRows)
	})
}
