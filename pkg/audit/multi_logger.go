package audit

import (
	"context"
	"fmt"
	"sync"
)

// MultiLogger logs to multiple audit loggers simultaneously
type MultiLogger struct {
	loggers []Logger
	async   bool
	wg      sync.WaitGroup
	errChan chan error
}

// NewMultiLogger creates a new multi-logger that writes to multiple destinations.
// Logging is synchronous unless SetAsync(true) is called.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{
		loggers: loggers,
		errChan: make(chan error, len(loggers)+1),
	}
}

// SetAsync sets whether logging should be asynchronous
func (m *MultiLogger) SetAsync(async bool) {
	m.async = async
}

// LogAuthorization logs an event to every configured logger
func (m *MultiLogger) LogAuthorization(ctx context.Context, event *AuditEvent) error {
	if len(m.loggers) == 0 {
		return nil
	}
	if m.async {
		m.logAsync(ctx, event)
		return nil
	}
	return m.logSync(ctx, event)
}

// logSync keeps going after a failure and returns the first error
func (m *MultiLogger) logSync(ctx context.Context, event *AuditEvent) error {
	var firstErr error
	for _, logger := range m.loggers {
		if err := logger.LogAuthorization(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *MultiLogger) logAsync(ctx context.Context, event *AuditEvent) {
	// The request context is usually cancelled before the write happens
	ctx = context.WithoutCancel(ctx)
	for _, logger := range m.loggers {
		m.wg.Add(1)
		go func(l Logger) {
			defer m.wg.Done()
			if err := l.LogAuthorization(ctx, event); err != nil {
				select {
				case m.errChan <- err:
				default:
				}
			}
		}(logger)
	}
}

// Wait waits for all async logging operations to complete
func (m *MultiLogger) Wait() {
	m.wg.Wait()
}

// GetErrors drains errors that occurred during async logging
func (m *MultiLogger) GetErrors() []error {
	var errs []error
	for {
		select {
		case err := <-m.errChan:
			errs = append(errs, err)
		default:
			return errs
		}
	}
}

// Close waits for pending writes and closes all loggers
func (m *MultiLogger) Close() error {
	m.wg.Wait()

	var firstErr error
	for _, logger := range m.loggers {
		if err := logger.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close logger: %w", err)
		}
	}
	return firstErr
}
