package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/platinummonkey/gatekeep/pkg/contextkeys"
	"github.com/platinummonkey/gatekeep/pkg/httputil"
)

// Logger is the interface for audit logging
type Logger interface {
	// LogAuthorization records an authorization decision
	LogAuthorization(ctx context.Context, event *AuditEvent) error

	// Close closes the logger and flushes any buffered logs
	Close() error
}

// WithLogger adds an audit logger to the context
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return contextkeys.WithAuditLogger(ctx, logger)
}

// FromContext retrieves the audit logger from context
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(contextkeys.AuditLoggerKey).(Logger); ok {
		return logger
	}
	return &noOpLogger{}
}

// noOpLogger is used when no logger is configured
type noOpLogger struct{}

func (l *noOpLogger) LogAuthorization(ctx context.Context, event *AuditEvent) error {
	return nil
}

func (l *noOpLogger) Close() error {
	return nil
}

// NewEvent creates an event with the request context populated
func NewEvent(r *http.Request, eventType EventType, status EventStatus) *AuditEvent {
	event := &AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Status:    status,
		Metadata:  make(map[string]interface{}),
	}

	if r != nil {
		event.Method = r.Method
		event.Path = r.URL.Path
		event.IPAddress = getClientIP(r)
		event.UserAgent = r.UserAgent()
		event.RequestID = contextkeys.GetRequestID(r.Context())
	}

	return event
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	return httputil.ClientIP(r, nil)
}
