package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// statusComputedTotal counts persisted cow statuses by code.
	statusComputedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dairysense_cow_status_computed_total",
		Help: "Cow daily statuses computed, by status code",
	}, []string{"status"})

	// syncDuration tracks derived-table refresh latency.
	syncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dairysense_sync_duration_seconds",
		Help:    "Derived table refresh duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"operation"})

	// syncErrors counts failed refreshes by operation.
	syncErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dairysense_sync_errors_total",
		Help: "Derived table refresh failures, by operation",
	}, []string{"operation"})
)
