// Package metrics holds the Prometheus instrumentation for the explorer:
// query evaluations, remote tool calls, session lifecycle and transport
// requests. Everything registers on a private registry so embedding
// applications can expose or discard it as they choose.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the explorer
type Registry struct {
	// Query metrics
	QueriesTotal         *prometheus.CounterVec
	QueryDuration        *prometheus.HistogramVec
	VariablesPerQuery    prometheus.Histogram
	WriteRejectionsTotal prometheus.Counter
	TwoPassRunsTotal     prometheus.Counter

	// Tool call metrics
	ToolCallsTotal   *prometheus.CounterVec
	ToolCallDuration *prometheus.HistogramVec

	// Session metrics
	SessionsTotal      *prometheus.CounterVec
	SessionDrainsTotal *prometheus.CounterVec

	// HTTP transport metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initQueryMetrics()
	r.initSessionMetrics()
	r.initHTTPMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// RecordQuery records one query evaluation: its dispatch mode
// (fast_path or pipeline), outcome, duration and variable count
func (r *Registry) RecordQuery(mode, status string, duration time.Duration, variables int) {
	r.QueriesTotal.WithLabelValues(mode, status).Inc()
	r.QueryDuration.WithLabelValues(mode).Observe(duration.Seconds())
	r.VariablesPerQuery.Observe(float64(variables))
}

// RecordWriteRejection records a query refused before any network traffic
func (r *Registry) RecordWriteRejection() {
	r.WriteRejectionsTotal.Inc()
}

// RecordTwoPass records a traversal that needed the two-pass strategy
func (r *Registry) RecordTwoPass() {
	r.TwoPassRunsTotal.Inc()
}

// RecordToolCall records one remote tool dispatch with its duration
func (r *Registry) RecordToolCall(tool, status string, duration time.Duration) {
	r.ToolCallsTotal.WithLabelValues(tool, status).Inc()
	r.ToolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordSession records a session initialization attempt
func (r *Registry) RecordSession(status string) {
	r.SessionsTotal.WithLabelValues(status).Inc()
}

// RecordDrain records a session drained by the given final action
func (r *Registry) RecordDrain(action string) {
	r.SessionDrainsTotal.WithLabelValues(action).Inc()
}

// RecordHTTPRequest records one transport request against an endpoint
func (r *Registry) RecordHTTPRequest(endpoint, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(endpoint, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
