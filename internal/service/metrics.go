package service

import "github.com/prometheus/client_golang/prometheus"

var (
	syncOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_sync_outcomes_total",
			Help: "Total number of product sync operations by outcome",
		},
		[]string{"outcome"},
	)

	syncRemovalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "product_sync_removals_total",
			Help: "Total number of search documents removed from the index",
		},
	)

	fullSyncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "product_full_sync_duration_seconds",
			Help:    "Duration of full catalog sync runs",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(syncOutcomesTotal)
	prometheus.MustRegister(syncRemovalsTotal)
	prometheus.MustRegister(fullSyncDuration)
}
