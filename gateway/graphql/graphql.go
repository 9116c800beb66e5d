package graphql

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fermi-controls/extapi-acsys/errors"
	"github.com/fermi-controls/extapi-acsys/health"
	"github.com/fermi-controls/extapi-acsys/metric"
)

// Stats is a point-in-time view of gateway activity
type Stats struct {
	Running             bool
	Uptime              time.Duration
	RequestsTotal       uint64
	RequestsFailed      uint64
	ActiveSubscriptions int64
	LastActivity        time.Time
}

// Gateway serves the ACSys schema over HTTP and websocket
type Gateway struct {
	name   string
	config Config
	logger *slog.Logger

	// Components
	resolver *Resolver
	schema   *ExecutableSchema
	server   *Server
	metrics  *gatewayMetrics

	// Lifecycle state (atomic operations, no mutex needed for running flag)
	running atomic.Bool

	// Protects startTime and lastActivity for concurrent reads
	mu           sync.RWMutex
	startTime    time.Time
	lastActivity time.Time

	// Metrics (atomic operations)
	requestsTotal       atomic.Uint64
	requestsSuccess     atomic.Uint64
	requestsFailed      atomic.Uint64
	activeSubscriptions atomic.Int64
}

// NewGateway creates a GraphQL gateway over sources. registry may be nil.
func NewGateway(config Config, sources Sources, logger *slog.Logger, registry *metric.MetricsRegistry) (*Gateway, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "GraphQLGateway", "NewGateway", "config validation")
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "graphql-gateway")

	g := &Gateway{
		name:    "graphql-gateway",
		config:  config,
		logger:  logger,
		metrics: newGatewayMetrics(registry, logger),
	}

	g.resolver = NewResolver(sources, g, config.Timeout(), config.SnapshotTimeout())

	schema, err := NewExecutableSchema(g.resolver)
	if err != nil {
		return nil, errors.WrapFatal(err, "GraphQLGateway", "NewGateway", "create schema")
	}
	g.schema = schema

	server, err := NewServer(config, schema, g.Stats, logger)
	if err != nil {
		return nil, errors.WrapFatal(err, "GraphQLGateway", "NewGateway", "create server")
	}
	if err := server.Setup(); err != nil {
		return nil, errors.WrapFatal(err, "GraphQLGateway", "NewGateway", "server setup")
	}
	g.server = server

	return g, nil
}

// Start serves until ctx is cancelled, then shuts the server down
func (g *Gateway) Start(ctx context.Context) error {
	if g.running.Swap(true) {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "GraphQLGateway", "Start",
			"gateway already running")
	}

	g.mu.Lock()
	g.startTime = time.Now()
	g.mu.Unlock()
	g.metrics.status(g.name, metric.StatusStarting)

	g.logger.Info("GraphQL gateway starting",
		"address", g.config.BindAddress,
		"path", g.config.Path)

	ready := make(chan struct{})
	errChan := make(chan error, 1)
	go func() {
		errChan <- g.server.Start(ctx, ready)
	}()

	select {
	case <-ready:
		g.metrics.status(g.name, metric.StatusRunning)
		g.logger.Info("GraphQL gateway started successfully", "address", g.server.Addr())
	case err := <-errChan:
		g.running.Store(false)
		g.metrics.status(g.name, metric.StatusFailed)
		return err
	}

	err := <-errChan
	g.running.Store(false)
	if err != nil {
		g.metrics.status(g.name, metric.StatusFailed)
	} else {
		g.metrics.status(g.name, metric.StatusStopped)
	}
	g.logger.Info("GraphQL gateway stopped")
	return err
}

// SetHealthCheck reports check's status on /health
func (g *Gateway) SetHealthCheck(check func() health.Status) {
	g.server.SetHealthCheck(check)
}

// Stop gracefully stops the GraphQL gateway
func (g *Gateway) Stop(timeout time.Duration) error {
	if !g.running.Load() {
		return nil // Already stopped
	}
	g.logger.Info("GraphQL gateway stopping")
	g.metrics.status(g.name, metric.StatusStopping)
	return g.server.Stop(timeout)
}

// Handler returns the gateway's HTTP handler, for mounting or testing
func (g *Gateway) Handler() http.Handler {
	return g.server.Handler()
}

// Addr returns the address the gateway listens on
func (g *Gateway) Addr() string {
	return g.server.Addr()
}

// Stats returns current activity counters
func (g *Gateway) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var uptime time.Duration
	if !g.startTime.IsZero() {
		uptime = time.Since(g.startTime)
	}
	return Stats{
		Running:             g.running.Load(),
		Uptime:              uptime,
		RequestsTotal:       g.requestsTotal.Load(),
		RequestsFailed:      g.requestsFailed.Load(),
		ActiveSubscriptions: g.activeSubscriptions.Load(),
		LastActivity:        g.lastActivity,
	}
}

// RecordMetrics wraps a GraphQL operation to record metrics
func (g *Gateway) RecordMetrics(_ context.Context, operation string, fn func() error) error {
	start := time.Now()

	g.requestsTotal.Add(1)

	err := fn()
	duration := time.Since(start)

	if err != nil {
		g.requestsFailed.Add(1)
		g.logger.Warn("GraphQL operation failed",
			"operation", operation,
			"duration", duration,
			"error", err)
	} else {
		g.requestsSuccess.Add(1)
		g.logger.Debug("GraphQL operation succeeded",
			"operation", operation,
			"duration", duration)
	}
	g.metrics.request(operation, duration, err)

	g.mu.Lock()
	g.lastActivity = time.Now()
	g.mu.Unlock()

	return err
}

// TrackSubscription counts operation as active until done is called
func (g *Gateway) TrackSubscription(operation string) (done func()) {
	g.activeSubscriptions.Add(1)
	g.metrics.subscriptionStarted(operation)
	g.logger.Debug("subscription started", "operation", operation)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.activeSubscriptions.Add(-1)
			g.metrics.subscriptionEnded(operation)
			g.logger.Debug("subscription ended", "operation", operation)
		})
	}
}

// gatewayMetrics holds the Prometheus metrics of the gateway. A nil
// *gatewayMetrics records nothing.
type gatewayMetrics struct {
	core          *metric.Metrics
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	subscriptions *prometheus.GaugeVec
}

func newGatewayMetrics(registry *metric.MetricsRegistry, logger *slog.Logger) *gatewayMetrics {
	if registry == nil {
		return nil
	}

	labels := prometheus.Labels{"component": "graphql-gateway"}
	m := &gatewayMetrics{
		core: registry.CoreMetrics(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "extapi",
			Subsystem:   "graphql",
			Name:        "requests_total",
			Help:        "GraphQL resolver calls by operation and status",
			ConstLabels: labels,
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "extapi",
			Subsystem:   "graphql",
			Name:        "request_duration_seconds",
			Help:        "GraphQL resolver call duration",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"operation"}),
		subscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "extapi",
			Subsystem:   "graphql",
			Name:        "active_subscriptions",
			Help:        "Subscriptions currently streaming to clients",
			ConstLabels: labels,
		}, []string{"operation"}),
	}

	if err := registry.RegisterCounterVec("graphql", "requests", m.requests); err != nil {
		logger.Warn("gateway metrics not registered", "error", err)
	}
	if err := registry.RegisterHistogramVec("graphql", "request_duration", m.duration); err != nil {
		logger.Warn("gateway metrics not registered", "error", err)
	}
	if err := registry.RegisterGaugeVec("graphql", "active_subscriptions", m.subscriptions); err != nil {
		logger.Warn("gateway metrics not registered", "error", err)
	}

	return m
}

func (m *gatewayMetrics) status(service string, status int) {
	if m == nil {
		return
	}
	m.core.RecordServiceStatus(service, status)
}

func (m *gatewayMetrics) request(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.requests.WithLabelValues(operation, status).Inc()
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *gatewayMetrics) subscriptionStarted(operation string) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(operation).Inc()
}

func (m *gatewayMetrics) subscriptionEnded(operation string) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(operation).Dec()
}
