package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Audit action names for access events.
const (
	ActionLogin         = "login"
	ActionLogout        = "logout"
	ActionTokenRefresh  = "token_refresh"
	ActionProvision     = "provision"
	ActionShareResolved = "share_resolved"
	ActionCacheReset    = "cache_reset"
)

// AccessEvent captures all information about an identity-relevant operation
// for audit logging: logins, logouts, meeting provisioning, share link
// resolutions, and cache resets.
//
// # Privacy Considerations
//
// The UserEmail field contains PII. When logging, consider:
//   - Using UserDomain() to get only the domain for metrics/general logs
//   - Only logging full email in audit-specific log streams
//   - Ensuring audit logs have appropriate access controls
type AccessEvent struct {
	// Action name (login, logout, token_refresh, provision, share_resolved, cache_reset)
	Action string

	// User identity (from OAuth)
	UserEmail string

	// Alias is the opaque share alias involved, if any.
	// Aliases are random identifiers and carry no PII.
	Alias string

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
func (ev *AccessEvent) UserDomain() string {
	return ExtractUserDomain(ev.UserEmail)
}

// Status returns "success" or "error" based on the Success field.
func (ev *AccessEvent) Status() string {
	if ev.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging.
// This provides a consistent set of fields for all access event logs.
//
// # Cardinality
//
// This function uses cardinality-controlled values (user_domain)
// for metrics-compatible logging. For full audit logging, use LogAuditAttrs.
func (ev *AccessEvent) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("action", ev.Action),
		slog.String("user_domain", ev.UserDomain()),
		slog.Duration("duration", ev.Duration),
		slog.Bool("success", ev.Success),
	}

	// Add optional fields only if present
	if ev.Alias != "" {
		attrs = append(attrs, slog.String("alias", ev.Alias))
	}
	if ev.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ev.TraceID))
	}
	if ev.Error != "" {
		attrs = append(attrs, slog.String("error", ev.Error))
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
func (ev *AccessEvent) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("action", ev.Action),
		slog.String("user", ev.UserEmail),
		slog.Duration("duration", ev.Duration),
		slog.Bool("success", ev.Success),
	}

	// Add all optional fields
	if ev.Alias != "" {
		attrs = append(attrs, slog.String("alias", ev.Alias))
	}
	if ev.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ev.TraceID))
	}
	if ev.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ev.SpanID))
	}
	if ev.Error != "" {
		attrs = append(attrs, slog.String("error", ev.Error))
	}

	return attrs
}

// NewAccessEvent creates a new AccessEvent with timing started.
// Call Complete() when the operation finishes.
func NewAccessEvent(action string) *AccessEvent {
	return &AccessEvent{
		Action:    action,
		StartTime: time.Now(),
	}
}

// WithUser sets the user identity information.
func (ev *AccessEvent) WithUser(email string) *AccessEvent {
	ev.UserEmail = email
	return ev
}

// WithAlias sets the share alias involved in the event.
func (ev *AccessEvent) WithAlias(alias string) *AccessEvent {
	ev.Alias = alias
	return ev
}

// WithSpanContext extracts trace context from the current span.
func (ev *AccessEvent) WithSpanContext(ctx context.Context) *AccessEvent {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ev.TraceID = span.SpanContext().TraceID().String()
		ev.SpanID = span.SpanContext().SpanID().String()
	}
	return ev
}

// Complete marks the event as completed and calculates duration.
// Returns the same AccessEvent for method chaining.
func (ev *AccessEvent) Complete(success bool, err error) *AccessEvent {
	ev.Duration = time.Since(ev.StartTime)
	ev.Success = success
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// CompleteWithError marks the event as failed with the given error.
func (ev *AccessEvent) CompleteWithError(err error) *AccessEvent {
	return ev.Complete(false, err)
}

// CompleteSuccess marks the event as successful.
func (ev *AccessEvent) CompleteSuccess() *AccessEvent {
	return ev.Complete(true, nil)
}

// AuditLogger provides structured audit logging for access events.
// It wraps slog.Logger with convenience methods for logging identity operations.
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

// LogAccess logs an access event using the standard log attributes.
// This is suitable for general operational logging with cardinality controls.
// If the logger is configured with IncludePII, full user emails are logged;
// otherwise, only domain-based anonymized identifiers are used.
func (al *AuditLogger) LogAccess(ev *AccessEvent) {
	if !al.enabled {
		return
	}

	// Choose between PII and anonymized logging based on configuration
	var attrs []slog.Attr
	if al.includePII {
		attrs = ev.LogAuditAttrs()
	} else {
		attrs = ev.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ev.Success {
		al.logger.Info("access_event", args...)
	} else {
		al.logger.Warn("access_denied", args...)
	}
}

// LogAccessAudit logs an access event with full audit details.
// This includes PII (full email addresses) for compliance/audit purposes.
// SECURITY: Ensure audit logs are routed to secure storage with appropriate access controls.
//
// Note: This method respects the enabled flag but always includes PII when called,
// regardless of the IncludePII configuration. Use LogAccess for
// configuration-aware logging.
func (al *AuditLogger) LogAccessAudit(ev *AccessEvent) {
	if !al.enabled {
		return
	}

	attrs := ev.LogAuditAttrs()
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	al.logger.Info("access_audit", args...)
}
