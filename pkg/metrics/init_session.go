package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSessionMetrics() {
	r.ToolCallsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_tool_calls_total",
			Help: "Total number of remote tool calls dispatched",
		},
		[]string{"tool", "status"},
	)

	r.ToolCallDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "explorer_tool_call_duration_seconds",
			Help:    "Remote tool call duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"tool"},
	)

	r.SessionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_sessions_total",
			Help: "Total number of remote session initializations by outcome",
		},
		[]string{"status"},
	)

	r.SessionDrainsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_session_drains_total",
			Help: "Total number of sessions drained by final action",
		},
		[]string{"action"},
	)
}
