package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initQueryMetrics() {
	r.QueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_queries_total",
			Help: "Total number of queries evaluated",
		},
		[]string{"mode", "status"},
	)

	r.QueryDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explorer_query_duration_seconds",
			Help:    "Query evaluation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
		},
		[]string{"mode"},
	)

	r.VariablesPerQuery = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "explorer_query_variables",
			Help:    "Number of variables evaluated per query",
			Buckets: []float64{1, 2, 5, 10, 20},
		},
	)

	r.WriteRejectionsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "explorer_write_rejections_total",
			Help: "Total number of queries refused for containing write operations",
		},
	)

	r.TwoPassRunsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "explorer_two_pass_runs_total",
			Help: "Total number of traversals executed with the two-pass strategy",
		},
	)
}
