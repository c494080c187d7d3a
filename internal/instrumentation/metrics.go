package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	// Common attributes (reused across metrics)
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrSource    = "source"
	attrKind      = "kind"
	attrAccount   = "account"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Google API metrics
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	// OAuth metrics
	oauthAuthTotal         metric.Int64Counter
	oauthTokenRefreshTotal metric.Int64Counter

	// Pipeline metrics
	summariesProcessedTotal   metric.Int64Counter
	extractionDuration        metric.Float64Histogram
	tasksExtractedTotal       metric.Int64Counter
	syncOperationsTotal       metric.Int64Counter
	syncDuration              metric.Float64Histogram
	webhookNotificationsTotal metric.Int64Counter
	queueDepth                metric.Int64UpDownCounter

	// Configuration
	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	// HTTP Metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	// Google API Metrics
	m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	// OAuth Metrics
	m.oauthAuthTotal, err = meter.Int64Counter(
		"oauth_auth_total",
		metric.WithDescription("Total number of OAuth authentication attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_auth_total counter: %w", err)
	}

	m.oauthTokenRefreshTotal, err = meter.Int64Counter(
		"oauth_token_refresh_total",
		metric.WithDescription("Total number of OAuth token refresh attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth_token_refresh_total counter: %w", err)
	}

	// Pipeline Metrics
	m.summariesProcessedTotal, err = meter.Int64Counter(
		"summaries_processed_total",
		metric.WithDescription("Total number of meeting artifacts processed"),
		metric.WithUnit("{summary}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create summaries_processed_total counter: %w", err)
	}

	m.extractionDuration, err = meter.Float64Histogram(
		"extraction_duration_seconds",
		metric.WithDescription("Task extraction duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction_duration_seconds histogram: %w", err)
	}

	m.tasksExtractedTotal, err = meter.Int64Counter(
		"tasks_extracted_total",
		metric.WithDescription("Total number of action items extracted from meetings"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks_extracted_total counter: %w", err)
	}

	m.syncOperationsTotal, err = meter.Int64Counter(
		"sync_operations_total",
		metric.WithDescription("Total number of task sync operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync_operations_total counter: %w", err)
	}

	m.syncDuration, err = meter.Float64Histogram(
		"sync_duration_seconds",
		metric.WithDescription("Task sync operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync_duration_seconds histogram: %w", err)
	}

	m.webhookNotificationsTotal, err = meter.Int64Counter(
		"webhook_notifications_total",
		metric.WithDescription("Total number of inbound webhook notifications"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook_notifications_total counter: %w", err)
	}

	m.queueDepth, err = meter.Int64UpDownCounter(
		"ingest_queue_depth",
		metric.WithDescription("Number of ingestion jobs waiting or in flight"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest_queue_depth gauge: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordGoogleAPIOperation records a Google API operation with service, operation,
// status, and duration.
//
// Parameters:
//   - service: Google service name (drive, gmail, tasks, calendar, gemini)
//   - operation: Operation type (list, get, create, update, delete, watch, etc.)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.googleAPIOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordOAuthAuth records an OAuth authentication attempt with result.
// Result should be one of: "success", "failure"
func (m *Metrics) RecordOAuthAuth(ctx context.Context, result string) {
	if m.oauthAuthTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrResult, result),
	}

	m.oauthAuthTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordOAuthTokenRefresh records an OAuth token refresh attempt with result.
// Result should be one of: "success", "failure", "expired"
func (m *Metrics) RecordOAuthTokenRefresh(ctx context.Context, result string) {
	if m.oauthTokenRefreshTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrResult, result),
	}

	m.oauthTokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSummaryProcessed records the outcome of one artifact run through the
// pipeline.
//
// Parameters:
//   - source: Artifact source ("drive" or "gmail")
//   - status: Outcome ("created", "skipped" or "failed")
//   - account: Account the artifact belongs to (only included if detailedLabels is true)
func (m *Metrics) RecordSummaryProcessed(ctx context.Context, source, status, account string) {
	if m.summariesProcessedTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrSource, source),
		attribute.String(attrStatus, status),
	}

	// Only add high-cardinality labels if explicitly enabled
	if m.detailedLabels && account != "" {
		attrs = append(attrs, attribute.String(attrAccount, account))
	}

	m.summariesProcessedTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordExtraction records one extraction engine call with its duration and
// the number of tasks it produced.
func (m *Metrics) RecordExtraction(ctx context.Context, status string, taskCount int, duration time.Duration) {
	if m.extractionDuration == nil || m.tasksExtractedTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrStatus, status),
	}

	m.extractionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	if taskCount > 0 {
		m.tasksExtractedTotal.Add(ctx, int64(taskCount), metric.WithAttributes(attrs...))
	}
}

// RecordSyncOperation records a task sync operation with its direction,
// status, and duration.
//
// Parameters:
//   - operation: Sync operation (push, refresh, status_update)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordSyncOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m.syncOperationsTotal == nil || m.syncDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.syncOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordWebhookNotification records an inbound push notification.
//
// Parameters:
//   - kind: Notification kind ("sync" for channel handshakes, "change" for
//     content, "invalid" for unparseable requests)
//   - status: Result status ("accepted", "dropped" or "rejected")
func (m *Metrics) RecordWebhookNotification(ctx context.Context, kind, status string) {
	if m.webhookNotificationsTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrKind, kind),
		attribute.String(attrStatus, status),
	}

	m.webhookNotificationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// IncrementQueueDepth increments the ingestion queue depth gauge.
func (m *Metrics) IncrementQueueDepth(ctx context.Context) {
	if m.queueDepth == nil {
		return // Instrumentation not initialized
	}

	m.queueDepth.Add(ctx, 1)
}

// DecrementQueueDepth decrements the ingestion queue depth gauge.
func (m *Metrics) DecrementQueueDepth(ctx context.Context) {
	if m.queueDepth == nil {
		return // Instrumentation not initialized
	}

	m.queueDepth.Add(ctx, -1)
}
