package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/teemow/meetingmate/internal/instrumentation"
)

const (
	// DefaultAddr is the default address for the application server.
	DefaultAddr = ":8080"

	// DefaultReadHeaderTimeout bounds how long a client may take to send
	// request headers.
	DefaultReadHeaderTimeout = 10 * time.Second

	// DefaultIdleTimeout is the keep-alive idle timeout.
	DefaultIdleTimeout = 120 * time.Second
)

// Config holds configuration for the application HTTP server.
type Config struct {
	// Addr is the address to bind to (e.g., ":8080").
	Addr string

	// Metrics records HTTP request metrics when set.
	Metrics *instrumentation.Metrics
}

// HTTPServer is the application-facing HTTP server: the Drive webhook, the
// dashboard JSON API and the health probes. Prometheus metrics are served
// separately by MetricsServer.
type HTTPServer struct {
	httpServer *http.Server
	health     *HealthChecker
	logger     *slog.Logger
	addr       string
}

// NewHTTPServer assembles the server over the given context.
func NewHTTPServer(sc *ServerContext, config Config, logger *slog.Logger) *HTTPServer {
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	health := NewHealthChecker(sc)
	health.RegisterHealthEndpoints(mux)
	NewWebhookHandler(sc, config.Metrics, logger).RegisterRoutes(mux)
	NewDashboardHandler(sc, logger).RegisterRoutes(mux)

	return &HTTPServer{
		httpServer: &http.Server{
			Addr:              config.Addr,
			Handler:           MetricsMiddleware(config.Metrics, mux),
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			IdleTimeout:       DefaultIdleTimeout,
		},
		health: health,
		logger: logger,
		addr:   config.Addr,
	}
}

// Health returns the health checker so the lifecycle code can flip
// readiness during shutdown.
func (s *HTTPServer) Health() *HealthChecker {
	return s.health
}

// Addr returns the configured listen address.
func (s *HTTPServer) Addr() string {
	return s.addr
}

// Start serves until Shutdown is called. Blocking; run in a goroutine for
// non-blocking operation. A clean shutdown returns nil.
func (s *HTTPServer) Start() error {
	s.logger.Info("starting http server", slog.String("addr", s.addr))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}
