package graphql

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gorilla/websocket"

	"github.com/fermi-controls/extapi-acsys/errors"
	"github.com/fermi-controls/extapi-acsys/health"
)

// Server manages the HTTP server for the GraphQL endpoint
type Server struct {
	config     Config
	schema     *ExecutableSchema
	stats      func() Stats
	logger     *slog.Logger
	httpServer *http.Server
	handler    http.Handler
	mux        *http.ServeMux
	listener   net.Listener
	check      func() health.Status

	// Websocket connections outlive their HTTP request; cancelling connCtx closes them
	connCtx     context.Context
	cancelConns context.CancelFunc

	// Lifecycle
	running  bool
	mu       sync.RWMutex
	stopChan chan struct{}
	stopOnce sync.Once // Ensures stopChan is closed exactly once
}

// NewServer creates a new GraphQL HTTP server. stats may be nil.
func NewServer(config Config, schema *ExecutableSchema, stats func() Stats, logger *slog.Logger) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "Server", "NewServer", "config validation")
	}

	if schema == nil {
		return nil, errors.WrapFatal(fmt.Errorf("schema is nil"), "Server", "NewServer",
			"executable schema is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	connCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:      config,
		schema:      schema,
		stats:       stats,
		logger:      logger,
		mux:         http.NewServeMux(),
		connCtx:     connCtx,
		cancelConns: cancel,
		stopChan:    make(chan struct{}),
	}
	return s, nil
}

// Setup configures the HTTP server and routes
func (s *Server) Setup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return nil
	}

	s.mux.HandleFunc("/health", s.handleHealth)
	gql := s.withConnContext(s.newHandler())
	s.mux.Handle(s.config.Path, gql)
	s.mux.Handle(s.config.SubscriptionPath, upgradeOnly(gql))

	// GraphQL Playground (if enabled)
	if s.config.EnablePlayground {
		s.mux.Handle("/", playground.Handler("ACSys GraphQL", s.config.Path))
		s.logger.Info("GraphQL Playground enabled",
			"url", fmt.Sprintf("http://%s/", s.config.BindAddress))
	}

	// CORS middleware wrapper
	var handler http.Handler = s.mux
	if s.config.EnableCORS {
		handler = s.corsMiddleware(handler)
	}
	s.handler = s.loggingMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:              s.config.BindAddress,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.config.Timeout(),
		WriteTimeout:      s.config.Timeout() + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("Server configured",
		"address", s.config.BindAddress,
		"path", s.config.Path,
		"subscription_path", s.config.SubscriptionPath,
		"timeout", s.config.Timeout())

	return nil
}

// Handler returns the routed handler, configuring it on first use
func (s *Server) Handler() http.Handler {
	if err := s.Setup(); err != nil {
		return http.NotFoundHandler()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handler
}

// Start starts the HTTP server.
// The ready channel is closed once the listener is bound.
func (s *Server) Start(ctx context.Context, ready chan<- struct{}) error {
	if err := s.Setup(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Server", "Start", "server already running")
	}
	ln, err := net.Listen("tcp", s.config.BindAddress)
	if err != nil {
		s.mu.Unlock()
		return errors.WrapFatal(err, "Server", "Start", "listen")
	}
	s.listener = ln
	s.running = true
	server := s.httpServer
	s.mu.Unlock()

	s.logger.Info("Server starting", "address", ln.Addr().String())
	if ready != nil {
		close(ready)
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Server context cancelled, shutting down")
		return s.Stop(30 * time.Second)

	case <-s.stopChan:
		s.logger.Info("Server stop requested")
		return nil

	case err, ok := <-errChan:
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		if !ok {
			return nil
		}
		return errors.WrapFatal(err, "Server", "Start", "HTTP server failed")
	}
}

// Stop gracefully shuts down the HTTP server and closes open subscriptions
func (s *Server) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil // Already stopped
	}
	server := s.httpServer
	s.mu.Unlock()

	s.logger.Info("Server stopping")

	// Signal stop channel (idempotent - safe to call multiple times)
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.cancelConns()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to shutdown server gracefully", "error", err)
		return errors.WrapTransient(err, "Server", "Stop", "graceful shutdown failed")
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Server stopped")
	return nil
}

// Addr returns the bound listener address, or the configured one before Start
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.BindAddress
}

// withConnContext ties the request context to the server, so Stop ends
// websocket connections that outlive their handshake. Upgraded connections
// drop the server's read and write timeouts.
func (s *Server) withConnContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			rc := http.NewResponseController(w)
			_ = rc.SetReadDeadline(time.Time{})
			_ = rc.SetWriteDeadline(time.Time{})
		}
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		stop := context.AfterFunc(s.connCtx, cancel)
		defer stop()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// upgradeOnly accepts only websocket handshakes
func upgradeOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !websocket.IsWebSocketUpgrade(r) {
			transport.SendErrorf(w, http.StatusBadRequest, "subscriptions require a websocket upgrade")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": health.StateHealthy}
	code := http.StatusOK

	s.mu.RLock()
	check := s.check
	s.mu.RUnlock()
	if check != nil {
		st := check()
		body["status"] = st.Status
		body["message"] = st.Message
		body["backends"] = st.SubStatuses
		if st.IsUnhealthy() {
			code = http.StatusServiceUnavailable
		}
	}

	if s.stats != nil {
		st := s.stats()
		body["uptime"] = st.Uptime.Round(time.Second).String()
		body["requests_total"] = st.RequestsTotal
		body["requests_failed"] = st.RequestsFailed
		body["active_subscriptions"] = st.ActiveSubscriptions
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// SetHealthCheck makes /health report check's status. An unhealthy status
// is served as 503.
func (s *Server) SetHealthCheck(check func() health.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.check = check
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowedOrigin := range s.config.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}
	return false
}

// checkOrigin applies the CORS origin list to websocket handshakes
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || !s.config.EnableCORS {
		return true
	}
	return s.originAllowed(origin)
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if s.originAllowed(origin) {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request at debug level once it completes
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", r.RemoteAddr,
			"duration", time.Since(start))
	})
}

// IsRunning returns whether the server is currently running
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// statusRecorder captures the response status. It passes Hijack through
// so websocket upgrades work behind it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
