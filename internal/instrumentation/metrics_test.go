package instrumentation

import (
	"context"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, detailedLabels bool) *Provider {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: "prometheus",
		TracingExporter: "none",
		DetailedLabels:  detailedLabels,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}

	// Should not panic
	metrics.RecordHTTPRequest(ctx, "GET", "/api/summaries", 200, 100*time.Millisecond)
	metrics.RecordHTTPRequest(ctx, "POST", "/webhooks/drive", 500, 50*time.Millisecond)
}

func TestMetrics_RecordGoogleAPIOperation(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()

	// Should not panic
	metrics.RecordGoogleAPIOperation(ctx, ServiceGmail, "list", StatusSuccess, 200*time.Millisecond)
	metrics.RecordGoogleAPIOperation(ctx, ServiceCalendar, "create", StatusError, 500*time.Millisecond)
	metrics.RecordGoogleAPIOperation(ctx, ServiceDrive, "get", StatusSuccess, 100*time.Millisecond)
}

func TestMetrics_RecordOAuthAuth(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()

	// Should not panic
	metrics.RecordOAuthAuth(ctx, OAuthResultSuccess)
	metrics.RecordOAuthAuth(ctx, OAuthResultFailure)
}

func TestMetrics_RecordOAuthTokenRefresh(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()

	// Should not panic
	metrics.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
	metrics.RecordOAuthTokenRefresh(ctx, OAuthResultFailure)
	metrics.RecordOAuthTokenRefresh(ctx, OAuthResultExpired)
}

func TestMetrics_RecordSummaryProcessed(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()

	// Should not panic - account should be ignored without detailed labels
	metrics.RecordSummaryProcessed(ctx, "drive", "created", "user@example.com")
	metrics.RecordSummaryProcessed(ctx, "gmail", "skipped", "")
	metrics.RecordSummaryProcessed(ctx, "drive", "failed", "user@example.com")
}

func TestMetrics_RecordSummaryProcessed_DetailedLabels(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, true).Metrics()

	// Should not panic - account should be included
	metrics.RecordSummaryProcessed(ctx, "drive", "created", "user@example.com")
}

func TestMetrics_RecordExtraction(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()

	// Should not panic
	metrics.RecordExtraction(ctx, StatusSuccess, 3, 2*time.Second)
	metrics.RecordExtraction(ctx, StatusError, 0, 500*time.Millisecond)
}

func TestMetrics_RecordSyncOperation(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()

	// Should not panic
	metrics.RecordSyncOperation(ctx, "push", StatusSuccess, 100*time.Millisecond)
	metrics.RecordSyncOperation(ctx, "refresh", StatusError, 500*time.Millisecond)
}

func TestMetrics_RecordWebhookNotification(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()

	// Should not panic
	metrics.RecordWebhookNotification(ctx, "change", "accepted")
	metrics.RecordWebhookNotification(ctx, "sync", "accepted")
	metrics.RecordWebhookNotification(ctx, "change", "rejected")
}

func TestMetrics_QueueDepth(t *testing.T) {
	ctx := context.Background()
	metrics := newTestProvider(t, false).Metrics()

	// Should not panic
	metrics.IncrementQueueDepth(ctx)
	metrics.IncrementQueueDepth(ctx)
	metrics.DecrementQueueDepth(ctx)
}

func TestMetrics_NoOp_WhenDisabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewProvider(ctx, Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil even when disabled")
	}

	// All these should not panic even with nil underlying metrics
	metrics.RecordHTTPRequest(ctx, "GET", "/api/summaries", 200, 100*time.Millisecond)
	metrics.RecordGoogleAPIOperation(ctx, ServiceGmail, "list", StatusSuccess, 200*time.Millisecond)
	metrics.RecordOAuthAuth(ctx, OAuthResultSuccess)
	metrics.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)
	metrics.RecordSummaryProcessed(ctx, "drive", "created", "user@example.com")
	metrics.RecordExtraction(ctx, StatusSuccess, 2, time.Second)
	metrics.RecordSyncOperation(ctx, "push", StatusSuccess, 100*time.Millisecond)
	metrics.RecordWebhookNotification(ctx, "change", "accepted")
	metrics.IncrementQueueDepth(ctx)
	metrics.DecrementQueueDepth(ctx)
}
