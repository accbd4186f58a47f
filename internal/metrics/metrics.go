// Package metrics exposes synchronization counters for Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dashboard"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics groups every collector the dashboard updates.
type Metrics struct {
	registry       *prometheus.Registry
	snapshotPulls  *prometheus.CounterVec
	streamMessages *prometheus.CounterVec
	reconnects     prometheus.Counter
	connected      prometheus.Gauge
	storeRecords   *prometheus.GaugeVec
	resolutions    *prometheus.CounterVec
}

// New builds the collectors on a fresh registry (plus Go/process collectors).
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		snapshotPulls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_pulls_total",
			Help:      "Snapshot pulls by collection and result.",
		}, []string{"collection", "result"}),
		streamMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_messages_total",
			Help:      "Stream frames by kind (malformed and unknown included).",
		}, []string{"kind"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_reconnects_total",
			Help:      "Stream reconnection attempts.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_connected",
			Help:      "1 while the event stream is connected.",
		}),
		storeRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_records",
			Help:      "Records currently retained per store.",
		}, []string{"store"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manual_resolutions_total",
			Help:      "Manual safety resolution actions by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.snapshotPulls,
		m.streamMessages,
		m.reconnects,
		m.connected,
		m.storeRecords,
		m.resolutions,
	)
	return m
}

// Registry returns the underlying registry (used by tests).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SnapshotPull records one pull outcome for collection.
func (m *Metrics) SnapshotPull(collection string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.snapshotPulls.WithLabelValues(collection, result).Inc()
}

// StreamMessage records one received frame by kind.
func (m *Metrics) StreamMessage(kind string) {
	if m == nil {
		return
	}
	m.streamMessages.WithLabelValues(kind).Inc()
}

// StreamReconnect records a reconnection attempt.
func (m *Metrics) StreamReconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

// StreamConnected flips the connection gauge.
func (m *Metrics) StreamConnected(up bool) {
	if m == nil {
		return
	}
	if up {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}

// StoreSizes publishes the per-store record counts.
func (m *Metrics) StoreSizes(counts map[string]int) {
	if m == nil {
		return
	}
	for store, n := range counts {
		m.storeRecords.WithLabelValues(store).Set(float64(n))
	}
}

// Resolution records a manual resolution outcome.
func (m *Metrics) Resolution(err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.resolutions.WithLabelValues(result).Inc()
}
