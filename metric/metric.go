// Package metric provides Prometheus-based metrics for the sync server: how
// many updates were applied, quarantined, or rejected, where deserialization
// problems surface, and how large full-sync payloads run.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics contains the sync-server metric set
type Metrics struct {
	UpdatesApplied     *prometheus.CounterVec
	UpdatesQuarantined *prometheus.CounterVec
	UpdatesRejected    *prometheus.CounterVec
	DeserializeErrors  *prometheus.CounterVec
	RegisteredConfigs  prometheus.Gauge
	SyncPayloadBytes   prometheus.Histogram
	TransportConnected prometheus.Gauge
}

// NewMetrics creates the metric set
func NewMetrics() *Metrics {
	return &Metrics{
		UpdatesApplied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "confsync",
				Subsystem: "updates",
				Name:      "applied_total",
				Help:      "Total config updates applied to authoritative configs",
			},
			[]string{"scope"},
		),
		UpdatesQuarantined: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "confsync",
				Subsystem: "updates",
				Name:      "quarantined_total",
				Help:      "Total config updates held in quarantine",
			},
			[]string{"scope"},
		),
		UpdatesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "confsync",
				Subsystem: "updates",
				Name:      "rejected_total",
				Help:      "Total config updates rejected",
			},
			[]string{"scope"},
		),
		DeserializeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "confsync",
				Subsystem: "serialization",
				Name:      "errors_total",
				Help:      "Total per-field deserialization problems",
			},
			[]string{"scope"},
		),
		RegisteredConfigs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "confsync",
				Subsystem: "registry",
				Name:      "configs",
				Help:      "Number of registered synced configs",
			},
		),
		SyncPayloadBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "confsync",
				Subsystem: "sync",
				Name:      "payload_bytes",
				Help:      "Size of full-sync payloads in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
			},
		),
		TransportConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "confsync",
				Subsystem: "transport",
				Name:      "connected",
				Help:      "Transport connection status (0=disconnected, 1=connected)",
			},
		),
	}
}

// Registry bundles the metric set with its prometheus registry
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
}

// NewRegistry creates a registry with the sync metric set and Go runtime
// collectors registered
func NewRegistry() *Registry {
	r := &Registry{
		prometheusRegistry: prometheus.NewRegistry(),
		Metrics:            NewMetrics(),
	}
	r.prometheusRegistry.MustRegister(
		r.Metrics.UpdatesApplied,
		r.Metrics.UpdatesQuarantined,
		r.Metrics.UpdatesRejected,
		r.Metrics.DeserializeErrors,
		r.Metrics.RegisteredConfigs,
		r.Metrics.SyncPayloadBytes,
		r.Metrics.TransportConnected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// PrometheusRegistry returns the underlying prometheus registry for the
// promhttp handler
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// RecordUpdateApplied increments the applied-update counter for scope
func (m *Metrics) RecordUpdateApplied(scope string) {
	m.UpdatesApplied.WithLabelValues(scope).Inc()
}

// RecordUpdateQuarantined increments the quarantined-update counter for scope
func (m *Metrics) RecordUpdateQuarantined(scope string) {
	m.UpdatesQuarantined.WithLabelValues(scope).Inc()
}

// RecordUpdateRejected increments the rejected-update counter for scope
func (m *Metrics) RecordUpdateRejected(scope string) {
	m.UpdatesRejected.WithLabelValues(scope).Inc()
}

// RecordDeserializeErrors adds n per-field problems for scope
func (m *Metrics) RecordDeserializeErrors(scope string, n int) {
	if n > 0 {
		m.DeserializeErrors.WithLabelValues(scope).Add(float64(n))
	}
}

// RecordRegisteredConfigs sets the registered-config gauge
func (m *Metrics) RecordRegisteredConfigs(n int) {
	m.RegisteredConfigs.Set(float64(n))
}

// RecordSyncPayload observes a full-sync payload size
func (m *Metrics) RecordSyncPayload(bytes int) {
	m.SyncPayloadBytes.Observe(float64(bytes))
}

// RecordTransportStatus sets the transport connection gauge
func (m *Metrics) RecordTransportStatus(connected bool) {
	v := 0.0
	if connected {
		v = 1.0
	}
	m.TransportConnected.Set(v)
}
