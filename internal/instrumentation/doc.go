// Package instrumentation provides comprehensive OpenTelemetry instrumentation
// for the meetingmate server.
//
// This package enables production-grade observability through:
//   - OpenTelemetry metrics for HTTP requests, OAuth operations, Google API
//     calls, and the meeting-processing pipeline
//   - Distributed tracing for request flows and API calls
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// The package exposes the following metric categories:
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//
// OAuth Authentication Metrics:
//   - oauth_auth_total: Counter of OAuth authentication events by result
//   - oauth_token_refresh_total: Counter of token refresh attempts by result
//
// Pipeline Metrics:
//   - summaries_processed_total: Counter of artifacts processed by source and outcome
//   - extraction_duration_seconds: Histogram of task extraction durations
//   - tasks_extracted_total: Counter of extracted action items
//   - sync_operations_total: Counter of task sync operations by direction and status
//   - sync_duration_seconds: Histogram of sync operation durations
//   - webhook_notifications_total: Counter of inbound push notifications
//   - ingest_queue_depth: Gauge of queued ingestion jobs
//
// # Tracing
//
// Distributed tracing spans are created for:
//   - HTTP request handling
//   - Pipeline operations (pipeline.<name>)
//   - Google API calls (google.<service>.<operation>)
//   - OAuth token operations
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: meetingmate)
//
// # Example Usage
//
//	// Initialize instrumentation
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
//		ServiceName:    "meetingmate",
//		ServiceVersion: "0.1.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	// Get metrics recorder
//	recorder := provider.Metrics()
//
//	// Record an HTTP request
//	recorder.RecordHTTPRequest(ctx, "POST", "/webhooks/drive", 204, time.Since(start))
//
//	// Record a Google API operation
//	recorder.RecordGoogleAPIOperation(ctx, "drive", "list", "success", time.Since(start))
//
//	// Record a processed artifact
//	recorder.RecordSummaryProcessed(ctx, "drive", "created", account)
package instrumentation
