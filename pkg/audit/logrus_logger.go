package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogrusLogger writes one JSON line per audit event through logrus
type LogrusLogger struct {
	log    *logrus.Logger
	closer io.Closer
	mu     sync.Mutex
	closed bool
}

// NewLogrusLogger creates an audit logger writing to out. A nil writer
// means stdout.
func NewLogrusLogger(out io.Writer) *LogrusLogger {
	if out == nil {
		out = os.Stdout
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyMsg: "message",
		},
	})

	return &LogrusLogger{log: log}
}

// NewFileLogger creates an audit logger appending to the file at path
func NewFileLogger(path string) (*LogrusLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	l := NewLogrusLogger(file)
	l.closer = file
	return l, nil
}

// LogAuthorization writes the event. Denials are logged at warn level.
func (l *LogrusLogger) LogAuthorization(ctx context.Context, event *AuditEvent) error {
	if event == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return fmt.Errorf("audit logger is closed")
	}

	fields := logrus.Fields{
		"event_type": event.EventType,
		"status":     event.Status,
	}
	addField(fields, "principal_id", event.PrincipalID)
	addField(fields, "role", event.Role)
	addField(fields, "tenant_id", event.TenantID)
	addField(fields, "guard", event.Guard)
	addField(fields, "denial_kind", event.DenialKind)
	addField(fields, "resource_type", event.ResourceType)
	addField(fields, "resource_id", event.ResourceID)
	addField(fields, "ip_address", event.IPAddress)
	addField(fields, "user_agent", event.UserAgent)
	addField(fields, "request_id", event.RequestID)
	addField(fields, "method", event.Method)
	addField(fields, "path", event.Path)
	if event.StatusCode != 0 {
		fields["status_code"] = event.StatusCode
	}
	if len(event.Metadata) > 0 {
		fields["metadata"] = event.Metadata
	}

	entry := l.log.WithFields(fields).WithTime(event.Timestamp)
	switch event.Status {
	case EventStatusDenied, EventStatusFailure:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}
	return nil
}

// Close closes the underlying file, if any
func (l *LogrusLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func addField(fields logrus.Fields, key, value string) {
	if value != "" {
		fields[key] = value
	}
}
