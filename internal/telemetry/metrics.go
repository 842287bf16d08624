package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the orchestration counters and gauges.
type Metrics struct {
	RunningFeatures  *prometheus.GaugeVec
	DispatchesTotal  *prometheus.CounterVec
	CompletionsTotal *prometheus.CounterVec
	FailuresTotal    *prometheus.CounterVec
	InterruptsTotal  *prometheus.CounterVec
	RecoveriesTotal  *prometheus.CounterVec
	OrphansDetected  *prometheus.GaugeVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all orchestration metrics on a private
// registry, so multiple instances can exist in tests.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.RunningFeatures = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "overseer_running_features",
			Help: "Number of features currently executing",
		},
		[]string{"project"},
	)
	m.DispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overseer_dispatches_total",
			Help: "Total features handed to the agent executor",
		},
		[]string{"project"},
	)
	m.CompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overseer_completions_total",
			Help: "Total features that completed successfully",
		},
		[]string{"project"},
	)
	m.FailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overseer_failures_total",
			Help: "Total features that failed during execution",
		},
		[]string{"project"},
	)
	m.InterruptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overseer_interrupts_total",
			Help: "Total features marked interrupted",
		},
		[]string{"project"},
	)
	m.RecoveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overseer_recoveries_total",
			Help: "Total interrupted features resumed",
		},
		[]string{"project"},
	)
	m.OrphansDetected = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "overseer_orphaned_features",
			Help: "Features whose backing branch no longer exists, per last scan",
		},
		[]string{"project"},
	)

	m.registry.MustRegister(
		m.RunningFeatures,
		m.DispatchesTotal,
		m.CompletionsTotal,
		m.FailuresTotal,
		m.InterruptsTotal,
		m.RecoveriesTotal,
		m.OrphansDetected,
	)
	return m
}

// Handler returns an HTTP handler exposing this instance's metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartMetricsServer serves /metrics on addr. Blocks.
func (m *Metrics) StartMetricsServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, mux)
}
