// Package metrics records tool invocation metrics for Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Invocation outcomes.
const (
	OutcomeSuccess        = "success"
	OutcomeUnsupported    = "unsupported"
	OutcomeInvalid        = "invalid_arguments"
	OutcomeTransportError = "transport_error"
)

// Collector holds the tool invocation metrics.
type Collector struct {
	registry *prometheus.Registry

	invocationsTotal   *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	upstreamResponses  *prometheus.CounterVec
	toolsRegistered    prometheus.Gauge

	logger *zap.Logger
}

// NewCollector creates a collector registered on its own registry.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.invocationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Total number of tool invocations",
		},
		[]string{"tool", "outcome"},
	)

	c.invocationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_invocation_duration_seconds",
			Help:      "Tool invocation duration in seconds, upstream call included",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tool"},
	)

	c.upstreamResponses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_responses_total",
			Help:      "Upstream HTTP responses by status class",
		},
		[]string{"tool", "status_class"},
	)

	c.toolsRegistered = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tools_registered",
			Help:      "Number of tools in the current tool table",
		},
	)

	return c
}

// RecordInvocation records one finished invocation.
func (c *Collector) RecordInvocation(tool, outcome string, duration time.Duration) {
	c.invocationsTotal.WithLabelValues(tool, outcome).Inc()
	c.invocationDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordUpstreamStatus records the status code returned by the upstream API.
func (c *Collector) RecordUpstreamStatus(tool string, status int) {
	c.upstreamResponses.WithLabelValues(tool, statusClass(status)).Inc()
}

// SetToolsRegistered records the size of the active tool table.
func (c *Collector) SetToolsRegistered(n int) {
	c.toolsRegistered.Set(float64(n))
	c.logger.Debug("tool table size updated", zap.Int("tools", n))
}

// Registry returns the registry holding the metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
