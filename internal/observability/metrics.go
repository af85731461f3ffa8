package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hostbox"

// Metrics aggregates the server's Prometheus collectors on a private
// registry, keeping the default registry's process collectors out of
// the exported set.
type Metrics struct {
	registry *prometheus.Registry

	ToolInvocations *prometheus.CounterVec
	ToolDuration    *prometheus.HistogramVec
	SandboxOutcomes *prometheus.CounterVec
	FeedRefreshes   *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ToolInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Tool invocations by tool name and status.",
		}, []string{"tool", "status"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Tool execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		SandboxOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sandbox_executions_total",
			Help:      "Sandboxed command executions by outcome.",
		}, []string{"outcome"}),
		FeedRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_refreshes_total",
			Help:      "Paper feed refresh attempts by status.",
		}, []string{"status"}),
	}
	m.registry.MustRegister(m.ToolInvocations, m.ToolDuration, m.SandboxOutcomes, m.FeedRefreshes)
	return m
}

// Registry exposes the underlying registry for the HTTP handler and for
// gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveInvocation records one tool call.
func (m *Metrics) ObserveInvocation(tool, status string, duration time.Duration) {
	m.ToolInvocations.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// ObserveSandbox records one command execution outcome.
func (m *Metrics) ObserveSandbox(outcome string) {
	m.SandboxOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveFeedRefresh records one upstream feed fetch.
func (m *Metrics) ObserveFeedRefresh(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.FeedRefreshes.WithLabelValues(status).Inc()
}
