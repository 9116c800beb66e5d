// Package metric provides Prometheus-based metrics collection and the HTTP
// server that exposes them.
//
// The package offers a centralized registry holding the core process metrics
// (service status, errors, backend call and stream accounting) and any
// component-specific metrics registered through MetricsRegistrar.
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        logger.Error("metrics server failed", "error", err)
//	    }
//	}()
//
//	core := registry.CoreMetrics()
//	core.RecordBackendCall("dpm", "opened")
//	core.StreamOpened("dpm")
//
// The server exposes Prometheus-formatted metrics at the configured path and
// a health check at /health.
//
// # Core Metrics
//
//   - extapi_service_status{service}
//   - extapi_errors_total{service,type}
//   - extapi_health_status{service}
//   - extapi_backend_calls_total{backend,outcome}
//   - extapi_backend_open_streams{backend}
//   - extapi_backend_call_duration_seconds{backend}
//
// # Component Metrics
//
// Components register their own collectors keyed by component and metric
// name. Registering the same key twice is an invalid error, as is a
// collector whose Prometheus name is already taken:
//
//	items := prometheus.NewCounterVec(opts, []string{"status"})
//	if err := registry.RegisterCounterVec("acquisition", "items", items); err != nil {
//	    return nil, err
//	}
//
// A nil *MetricsRegistry is accepted wherever a registry is optional;
// CoreMetrics then returns nil and callers skip recording.
package metric
