package metrics

import (
	"net/http"
	"time"

	"github.com/WoodPyle/wayneos-vm-app/pkg/intent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the kernel
type Metrics struct {
	registry *prometheus.Registry

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration prometheus.Histogram
	InvalidRecords  *prometheus.CounterVec

	// Routing metrics
	IntentsTotal   *prometheus.CounterVec
	FallbacksTotal prometheus.Counter

	// Agent metrics
	AgentCallsTotal   *prometheus.CounterVec
	AgentCallDuration *prometheus.HistogramVec

	// Gateway metrics
	GatewayConnections prometheus.Gauge
	GatewayRateLimited prometheus.Counter
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayneos_commands_total",
				Help: "Total number of processed commands",
			},
			[]string{"type", "status"},
		),
		CommandDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wayneos_command_duration_seconds",
				Help:    "Duration of command processing in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		InvalidRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayneos_invalid_records_total",
				Help: "Total number of input records rejected before processing",
			},
			[]string{"reason"},
		),

		IntentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayneos_intents_total",
				Help: "Total number of classified intents",
			},
			[]string{"category", "action"},
		),
		FallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wayneos_fallbacks_total",
				Help: "Total number of commands answered with the generic result",
			},
		),

		AgentCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayneos_agent_calls_total",
				Help: "Total number of agent calls",
			},
			[]string{"agent", "action", "status"},
		),
		AgentCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wayneos_agent_call_duration_seconds",
				Help:    "Duration of agent calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"agent"},
		),

		GatewayConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wayneos_gateway_connections",
				Help: "Number of open gateway connections",
			},
		),
		GatewayRateLimited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "wayneos_gateway_rate_limited_total",
				Help: "Total number of gateway frames rejected by the rate limiter",
			},
		),
	}

	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.CommandsTotal)
	m.registry.MustRegister(m.CommandDuration)
	m.registry.MustRegister(m.InvalidRecords)

	m.registry.MustRegister(m.IntentsTotal)
	m.registry.MustRegister(m.FallbacksTotal)

	m.registry.MustRegister(m.AgentCallsTotal)
	m.registry.MustRegister(m.AgentCallDuration)

	m.registry.MustRegister(m.GatewayConnections)
	m.registry.MustRegister(m.GatewayRateLimited)
}

// ObserveCommand records one processed command
func (m *Metrics) ObserveCommand(commandType string, success bool, duration time.Duration) {
	m.CommandsTotal.WithLabelValues(commandType, statusLabel(success)).Inc()
	m.CommandDuration.Observe(duration.Seconds())
}

// IntentClassified counts a classification
func (m *Metrics) IntentClassified(in intent.Intent) {
	m.IntentsTotal.WithLabelValues(string(in.Category), in.Action).Inc()
}

// AgentCalled counts an agent call and records its duration
func (m *Metrics) AgentCalled(agentName, action string, duration time.Duration, err error) {
	m.AgentCallsTotal.WithLabelValues(agentName, action, statusLabel(err == nil)).Inc()
	m.AgentCallDuration.WithLabelValues(agentName).Observe(duration.Seconds())
}

// Fallback counts a command answered with the generic result
func (m *Metrics) Fallback(string) {
	m.FallbacksTotal.Inc()
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
