package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Service status values reported by RecordServiceStatus
const (
	StatusStopped = iota
	StatusStarting
	StatusRunning
	StatusStopping
	StatusFailed
)

// Metrics contains the process-level metrics shared by every component
type Metrics struct {
	ServiceStatus     *prometheus.GaugeVec
	ErrorsTotal       *prometheus.CounterVec
	HealthCheckStatus *prometheus.GaugeVec

	// Backend call metrics
	BackendCalls    *prometheus.CounterVec
	BackendStreams  *prometheus.GaugeVec
	BackendDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		ServiceStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "extapi",
				Subsystem: "service",
				Name:      "status",
				Help:      "Service status (0=stopped, 1=starting, 2=running, 3=stopping, 4=failed)",
			},
			[]string{"service"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "extapi",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"service", "type"},
		),

		HealthCheckStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "extapi",
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"service"},
		),

		BackendCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "extapi",
				Subsystem: "backend",
				Name:      "calls_total",
				Help:      "Backend calls opened, by backend and outcome",
			},
			[]string{"backend", "outcome"},
		),

		BackendStreams: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "extapi",
				Subsystem: "backend",
				Name:      "open_streams",
				Help:      "Backend streams currently open",
			},
			[]string{"backend"},
		),

		BackendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "extapi",
				Subsystem: "backend",
				Name:      "call_duration_seconds",
				Help:      "Backend call duration in seconds, from open to completion",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend"},
		),
	}
}

// RecordServiceStatus updates service status metric
func (c *Metrics) RecordServiceStatus(service string, status int) {
	c.ServiceStatus.WithLabelValues(service).Set(float64(status))
}

// RecordError increments error counter
func (c *Metrics) RecordError(service, errorType string) {
	c.ErrorsTotal.WithLabelValues(service, errorType).Inc()
}

// RecordHealthStatus updates health check status
func (c *Metrics) RecordHealthStatus(service string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.HealthCheckStatus.WithLabelValues(service).Set(value)
}

// RecordBackendCall counts one backend call open attempt
func (c *Metrics) RecordBackendCall(backend, outcome string) {
	c.BackendCalls.WithLabelValues(backend, outcome).Inc()
}

// StreamOpened marks one more open stream on backend
func (c *Metrics) StreamOpened(backend string) {
	c.BackendStreams.WithLabelValues(backend).Inc()
}

// StreamClosed marks a stream on backend as released and records its lifetime
func (c *Metrics) StreamClosed(backend string, lifetime time.Duration) {
	c.BackendStreams.WithLabelValues(backend).Dec()
	c.BackendDuration.WithLabelValues(backend).Observe(lifetime.Seconds())
}

// RecordBackendDuration records the duration of a unary backend call
func (c *Metrics) RecordBackendDuration(backend string, duration time.Duration) {
	c.BackendDuration.WithLabelValues(backend).Observe(duration.Seconds())
}
