package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/WoodPyle/wayneos-vm-app/internal/tracing"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AuditEvent represents a structured event for the audit log
type AuditEvent struct {
	Type      string                 `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Actor     string                 `json:"actor,omitempty"` // kernel session ID
	Action    string                 `json:"action"`          // e.g. "execute"
	Status    string                 `json:"status"`          // "success" or "failure"
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// Redactor masks secrets in free text
type Redactor interface {
	Redact(s string) string
}

// AuditLogger writes one JSON line per audit event
type AuditLogger struct {
	logger   zerolog.Logger
	mu       sync.Mutex
	closer   io.Closer
	now      func() time.Time
	redactor Redactor
}

// AuditOption configures an AuditLogger
type AuditOption func(*AuditLogger)

// WithRedactor masks command text and error messages before they are written
func WithRedactor(r Redactor) AuditOption {
	return func(a *AuditLogger) {
		a.redactor = r
	}
}

// NewAuditLogger appends audit events to the file at path
func NewAuditLogger(path string, opts ...AuditOption) (*AuditLogger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create audit directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit file: %w", err)
	}

	a := NewAuditWriter(file, opts...)
	a.closer = file
	return a, nil
}

// NewAuditWriter writes audit events to w
func NewAuditWriter(w io.Writer, opts ...AuditOption) *AuditLogger {
	a := &AuditLogger{
		logger: zerolog.New(w),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Record emits an audit event and mirrors it as an event on the active span
func (a *AuditLogger) Record(ctx context.Context, event AuditEvent) {
	if a == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = a.now()
	}
	if event.RequestID == "" {
		event.RequestID = tracing.GetRequestID(ctx)
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		event.TraceID = span.SpanContext().TraceID().String()

		span.AddEvent(event.Action, trace.WithAttributes(
			attribute.String("audit.type", event.Type),
			attribute.String("audit.status", event.Status),
			attribute.String("audit.actor", event.Actor),
		))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry := a.logger.Log().
		Time("timestamp", event.Timestamp).
		Str("type", event.Type).
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("status", event.Status)

	if event.TraceID != "" {
		entry.Str("trace_id", event.TraceID)
	}
	if event.RequestID != "" {
		entry.Str("request_id", event.RequestID)
	}
	if event.Metadata != nil {
		entry.Interface("metadata", event.Metadata)
	}

	entry.Msg("")
}

// RecordCommand records the outcome of one processed command
func (a *AuditLogger) RecordCommand(ctx context.Context, sessionID, commandType, command string, success bool, duration time.Duration, errMsg string) {
	if a == nil {
		return
	}

	status := "success"
	if !success {
		status = "failure"
	}

	metadata := map[string]interface{}{
		"command":     a.redact(command),
		"duration_ms": duration.Milliseconds(),
	}
	if errMsg != "" {
		metadata["error"] = a.redact(errMsg)
	}

	a.Record(ctx, AuditEvent{
		Type:     "command",
		Actor:    sessionID,
		Action:   commandType,
		Status:   status,
		Metadata: metadata,
	})
}

func (a *AuditLogger) redact(s string) string {
	if a.redactor == nil {
		return s
	}
	return a.redactor.Redact(s)
}

// Close closes the audit logger's file handle
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
