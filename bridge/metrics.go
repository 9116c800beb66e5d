package bridge

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fermi-controls/extapi-acsys/metric"
)

// bridgeMetrics records per-bridge item accounting on top of the core
// backend call metrics. A nil *bridgeMetrics records nothing.
type bridgeMetrics struct {
	backend string
	core    *metric.Metrics
	items   *prometheus.CounterVec
	dropped prometheus.Counter
}

// newBridgeMetrics creates and registers the metrics for one bridge. It
// returns nil when registry is nil.
func newBridgeMetrics(registry *metric.MetricsRegistry, name, backend string, logger *slog.Logger) *bridgeMetrics {
	if registry == nil {
		return nil
	}

	m := &bridgeMetrics{
		backend: backend,
		core:    registry.CoreMetrics(),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "extapi",
			Subsystem:   "bridge",
			Name:        "items_total",
			ConstLabels: prometheus.Labels{"bridge": name},
			Help:        "Items delivered by the bridge, by outcome",
		}, []string{"status"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "extapi",
			Subsystem:   "bridge",
			Name:        "items_dropped_total",
			ConstLabels: prometheus.Labels{"bridge": name},
			Help:        "Backend items that could not be delivered in any form",
		}),
	}

	if err := registry.RegisterCounterVec(name, "items", m.items); err != nil {
		logger.Warn("bridge metrics not registered", "error", err)
	}
	if err := registry.RegisterCounter(name, "items_dropped", m.dropped); err != nil {
		logger.Warn("bridge metrics not registered", "error", err)
	}

	return m
}

func (m *bridgeMetrics) item(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.items.WithLabelValues(status).Inc()
}

func (m *bridgeMetrics) drop() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *bridgeMetrics) callFailed() {
	if m == nil {
		return
	}
	m.core.RecordBackendCall(m.backend, "failed")
	m.core.RecordError(m.backend, "connection")
}

func (m *bridgeMetrics) callDone(d time.Duration) {
	if m == nil {
		return
	}
	m.core.RecordBackendCall(m.backend, "opened")
	m.core.RecordBackendDuration(m.backend, d)
}

// streamOpened returns the function that marks the stream closed.
func (m *bridgeMetrics) streamOpened() func(end streamEnd) {
	if m == nil {
		return func(streamEnd) {}
	}
	start := time.Now()
	m.core.RecordBackendCall(m.backend, "opened")
	m.core.StreamOpened(m.backend)
	return func(end streamEnd) {
		m.core.StreamClosed(m.backend, time.Since(start))
		if end == endInterrupted {
			m.core.RecordError(m.backend, "interrupted")
		}
	}
}
