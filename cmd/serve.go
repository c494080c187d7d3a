package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/meetingmate/internal/extract"
	"github.com/teemow/meetingmate/internal/ingest"
	"github.com/teemow/meetingmate/internal/instrumentation"
	"github.com/teemow/meetingmate/internal/logging"
	"github.com/teemow/meetingmate/internal/notify"
	"github.com/teemow/meetingmate/internal/server"
	"github.com/teemow/meetingmate/internal/tasksync"
)

const (
	// shutdownTimeout bounds graceful HTTP shutdown on SIGTERM.
	shutdownTimeout = 30 * time.Second

	// queueWorkers is the number of ingestion workers draining the job queue.
	queueWorkers = 2
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		debugMode          bool
		httpAddr           string
		dbPath             string
		accounts           []string
		baseURL            string
		pollInterval       time.Duration
		geminiAPIKey       string
		geminiModel        string
		googleClientID     string
		googleClientSecret string
		// Metrics server configuration
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the meetingmate server",
		Long: `Start the long-running meetingmate server: the Drive webhook receiver,
the dashboard JSON API, periodic source polling, and the metrics endpoint.

Ingestion runs on two triggers:
  - Drive push notifications delivered to /webhooks/drive (requires --base-url)
  - A periodic poll of Drive and Gmail for every configured account

OAuth Configuration:
  Google client credentials (required):
    --google-client-id and --google-client-secret flags
    OR GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars

  Per-account tokens must exist before serving; obtain them with
  'meetingmate auth --account <name>'.

Extraction:
  --gemini-api-key flag OR GEMINI_API_KEY env var (required).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load accounts from the environment if not set via flags
			if len(accounts) == 0 {
				accounts = parseCommaSeparatedList(os.Getenv("MEETINGMATE_ACCOUNTS"))
			}
			if len(accounts) == 0 {
				accounts = []string{"default"}
			}

			if baseURL == "" {
				baseURL = os.Getenv("MEETINGMATE_BASE_URL")
			}
			baseURL = strings.TrimRight(baseURL, "/")

			metricsConfig := MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			}
			if addr := os.Getenv("METRICS_ADDR"); addr != "" && !cmd.Flags().Changed("metrics-addr") {
				metricsConfig.Addr = addr
			}

			return runServe(serveOptions{
				debug:              debugMode,
				httpAddr:           httpAddr,
				dbPath:             dbPath,
				accounts:           accounts,
				baseURL:            baseURL,
				pollInterval:       pollInterval,
				geminiAPIKey:       geminiAPIKey,
				geminiModel:        geminiModel,
				googleClientID:     googleClientID,
				googleClientSecret: googleClientSecret,
				metrics:            metricsConfig,
			})
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&httpAddr, "http-addr", server.DefaultAddr, "HTTP server address for the webhook and dashboard API")
	cmd.Flags().StringVar(&dbPath, "db", "", "Path to the SQLite database. Can also use MEETINGMATE_DB env var.")
	cmd.Flags().StringSliceVar(&accounts, "accounts", nil, "Google account names to serve (comma-separated). Can also use MEETINGMATE_ACCOUNTS env var. Default: 'default'")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Public base URL for Drive push notifications (e.g. https://meetingmate.example.com). Can also use MEETINGMATE_BASE_URL env var. Without it, ingestion is poll-only.")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", ingest.DefaultPollInterval, "Interval between periodic source scans")
	cmd.Flags().StringVar(&geminiAPIKey, "gemini-api-key", "", "Gemini API key for task extraction. Can also use GEMINI_API_KEY env var.")
	cmd.Flags().StringVar(&geminiModel, "gemini-model", extract.DefaultModel, "Gemini model for task extraction")
	cmd.Flags().StringVar(&googleClientID, "google-client-id", "", "Google OAuth Client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&googleClientSecret, "google-client-secret", "", "Google OAuth Client Secret. Can also use GOOGLE_CLIENT_SECRET env var.")

	// Metrics server flags
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

type serveOptions struct {
	debug              bool
	httpAddr           string
	dbPath             string
	accounts           []string
	baseURL            string
	pollInterval       time.Duration
	geminiAPIKey       string
	geminiModel        string
	googleClientID     string
	googleClientSecret string
	metrics            MetricsConfig
}

func runServe(opts serveOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newServeLogger(opts.debug)
	applyGoogleCredentials(opts.googleClientID, opts.googleClientSecret)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Error("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	// Start metrics server
	var metricsServer *server.MetricsServer
	if opts.metrics.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.metrics.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
		logger.Info("metrics server listening", "addr", metricsServer.Addr())
	}

	st, err := openStore(opts.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	engine, err := newExtractionEngine(shutdownCtx, opts.geminiAPIKey, opts.geminiModel)
	if err != nil {
		return err
	}

	// Assemble the ingestion pipeline
	emitter := notify.NewEmitter(st, logger)
	coordinator := ingest.NewCoordinator(st, ingest.NewGoogleSourceFactory(), engine, emitter, logger)
	coordinator.SetMetrics(provider.Metrics())
	queue := ingest.NewQueue(coordinator, queueWorkers, logger)
	queue.SetMetrics(provider.Metrics())
	queue.Start(shutdownCtx)
	poller := ingest.NewPoller(queue, opts.accounts, opts.pollInterval, logger)
	poller.Start(shutdownCtx)

	syncer := tasksync.NewSyncer(st, tasksync.NewGoogleClientFactory(), nil, emitter, logger)
	syncer.SetMetrics(provider.Metrics())

	serverContext := server.NewServerContext(shutdownCtx, st, coordinator, queue, poller, syncer, opts.accounts)
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", logging.Err(err))
		}
	}()

	// Register Drive push channels when a public URL is configured
	if opts.baseURL != "" {
		webhookURL := opts.baseURL + "/webhooks/drive"
		for _, account := range opts.accounts {
			if err := coordinator.EnsureWatch(shutdownCtx, account, webhookURL); err != nil {
				logger.Warn("drive watch registration failed, falling back to polling",
					logging.Account(account), logging.Err(err))
			}
		}
	} else {
		logger.Info("no base URL configured, ingestion is poll-only")
	}

	httpServer := server.NewHTTPServer(serverContext, server.Config{
		Addr:    opts.httpAddr,
		Metrics: provider.Metrics(),
	}, logger)

	logger.Info("server listening",
		"addr", httpServer.Addr(),
		"accounts", strings.Join(opts.accounts, ","))

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received, stopping server")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if opts.baseURL != "" {
			coordinator.StopWatches(ctx, opts.accounts)
		}
		if err := httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Error("metrics server shutdown failed", logging.Err(err))
			}
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	return nil
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
