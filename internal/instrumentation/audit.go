package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// OperationRecord captures all information about a pipeline operation for
// audit logging. This provides an audit trail for every scan, extraction and
// sync run against a user's Google data.
//
// # Privacy Considerations
//
// The UserEmail field contains PII. When logging, consider:
//   - Using UserDomain() to get only the domain for metrics/general logs
//   - Only logging full email in audit-specific log streams
//   - Ensuring audit logs have appropriate access controls
type OperationRecord struct {
	// Operation name (scan_drive, scan_gmail, process_artifact, sync_tasks,
	// refresh_tasks, update_task_status)
	Name string

	// User identity (from OAuth)
	UserEmail string

	// Target information for Google services
	Account     string // Account name (default, work, personal)
	ServiceName string // Google service (drive, gmail, tasks, calendar, gemini)
	SummaryID   string // Meeting summary the operation touched, when applicable

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// UserDomain returns the domain portion of the user's email for lower-cardinality logging.
func (op *OperationRecord) UserDomain() string {
	return ExtractUserDomain(op.UserEmail)
}

// Status returns "success" or "error" based on the Success field.
func (op *OperationRecord) Status() string {
	if op.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging.
// This provides a consistent set of fields for all operation logs.
//
// # Cardinality
//
// This function uses cardinality-controlled values (user_domain)
// for metrics-compatible logging. For full audit logging, use LogAuditAttrs.
func (op *OperationRecord) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("operation", op.Name),
		slog.String("user_domain", op.UserDomain()),
		slog.Duration("duration", op.Duration),
		slog.Bool("success", op.Success),
	}

	// Add optional fields only if present
	if op.Account != "" && op.Account != "default" {
		attrs = append(attrs, slog.String("account", op.Account))
	}
	if op.ServiceName != "" {
		attrs = append(attrs, slog.String("service", op.ServiceName))
	}
	if op.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", op.TraceID))
	}
	if op.Error != "" {
		attrs = append(attrs, slog.String("error", op.Error))
	}

	return attrs
}

// LogAuditAttrs returns slog attributes for full audit logging.
// This includes the full user email for compliance/audit purposes.
//
// # Security Warning
//
// This method includes PII (full email). Ensure audit logs are:
//   - Stored securely with appropriate access controls
//   - Not exposed to general monitoring dashboards
//   - Retained according to compliance requirements
func (op *OperationRecord) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("operation", op.Name),
		slog.String("user", op.UserEmail),
		slog.Duration("duration", op.Duration),
		slog.Bool("success", op.Success),
	}

	// Add all optional fields
	if op.Account != "" {
		attrs = append(attrs, slog.String("account", op.Account))
	}
	if op.ServiceName != "" {
		attrs = append(attrs, slog.String("service", op.ServiceName))
	}
	if op.SummaryID != "" {
		attrs = append(attrs, slog.String("summary_id", op.SummaryID))
	}
	if op.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", op.TraceID))
	}
	if op.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", op.SpanID))
	}
	if op.Error != "" {
		attrs = append(attrs, slog.String("error", op.Error))
	}

	return attrs
}

// NewOperationRecord creates a new OperationRecord with timing started.
// Call Complete() when the operation finishes.
func NewOperationRecord(name string) *OperationRecord {
	return &OperationRecord{
		Name:      name,
		StartTime: time.Now(),
	}
}

// WithUser sets the user identity information.
func (op *OperationRecord) WithUser(email string) *OperationRecord {
	op.UserEmail = email
	return op
}

// WithAccount sets the Google account name.
func (op *OperationRecord) WithAccount(account string) *OperationRecord {
	op.Account = account
	return op
}

// WithService sets the Google service touched by the operation.
func (op *OperationRecord) WithService(serviceName string) *OperationRecord {
	op.ServiceName = serviceName
	return op
}

// WithSummary sets the meeting summary the operation touched.
func (op *OperationRecord) WithSummary(summaryID string) *OperationRecord {
	op.SummaryID = summaryID
	return op
}

// WithSpanContext extracts trace context from the current span.
func (op *OperationRecord) WithSpanContext(ctx context.Context) *OperationRecord {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		op.TraceID = span.SpanContext().TraceID().String()
		op.SpanID = span.SpanContext().SpanID().String()
	}
	return op
}

// Complete marks the operation as completed and calculates duration.
// Returns the same OperationRecord for method chaining.
func (op *OperationRecord) Complete(success bool, err error) *OperationRecord {
	op.Duration = time.Since(op.StartTime)
	op.Success = success
	if err != nil {
		op.Error = err.Error()
	}
	return op
}

// CompleteWithError marks the operation as failed with the given error.
func (op *OperationRecord) CompleteWithError(err error) *OperationRecord {
	return op.Complete(false, err)
}

// CompleteSuccess marks the operation as successful.
func (op *OperationRecord) CompleteSuccess() *OperationRecord {
	return op.Complete(true, nil)
}

// AuditLogger provides structured audit logging for pipeline operations.
// It wraps slog.Logger with convenience methods for logging operations.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with the given slog.Logger.
// By default, PII is not included in logs (anonymized identifiers are used instead).
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: false,
		enabled:    true,
	}
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// SetIncludePII sets whether to include full email addresses in audit logs.
func (al *AuditLogger) SetIncludePII(include bool) {
	al.includePII = include
}

// SetEnabled sets whether audit logging is enabled.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogOperation logs a pipeline operation using the standard log attributes.
// This is suitable for general operational logging with cardinality controls.
// If the logger is configured with IncludePII, full user emails are logged;
// otherwise, only domain-based anonymized identifiers are used.
func (al *AuditLogger) LogOperation(op *OperationRecord) {
	if !al.enabled {
		return
	}

	// Choose between PII and anonymized logging based on configuration
	var attrs []slog.Attr
	if al.includePII {
		attrs = op.LogAuditAttrs()
	} else {
		attrs = op.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if op.Success {
		al.logger.Info("operation_executed", args...)
	} else {
		al.logger.Warn("operation_failed", args...)
	}
}

// LogOperationAudit logs a pipeline operation with full audit details.
// This includes PII (full email addresses) for compliance/audit purposes.
// SECURITY: Ensure audit logs are routed to secure storage with appropriate access controls.
//
// Note: This method respects the enabled flag but always includes PII when called,
// regardless of the IncludePII configuration. Use LogOperation for
// configuration-aware logging.
func (al *AuditLogger) LogOperationAudit(op *OperationRecord) {
	if !al.enabled {
		return
	}

	attrs := op.LogAuditAttrs()
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	al.logger.Info("operation_audit", args...)
}
