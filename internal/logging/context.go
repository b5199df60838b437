// internal/logging/context.go
package logging

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 8)

	// Trace correlation (from OpenTelemetry)
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}

	// Ingestion correlation
	if fileID := FileIDFromContext(ctx); fileID != "" {
		fields = append(fields, zap.String("file.id", fileID))
	}

	// Retrieval correlation
	if conversationID := ConversationIDFromContext(ctx); conversationID != "" {
		fields = append(fields, zap.String("conversation.id", conversationID))
	}

	// Request ID
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request.id", requestID))
	}

	return fields
}

// Context key types
type fileCtxKey struct{}
type conversationCtxKey struct{}
type requestCtxKey struct{}

// Validation constants
const maxIDLen = 128

// idPattern allows only alphanumeric, hyphen, and underscore characters.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateID validates a file, conversation, or request ID.
func validateID(id, name string) error {
	if id == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("%s contains invalid UTF-8", name)
	}
	if len(id) > maxIDLen {
		return fmt.Errorf("%s exceeds max length %d", name, maxIDLen)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (must be alphanumeric, hyphen, underscore)", name)
	}
	return nil
}

// FileIDFromContext extracts the ingestion file_id from context.
func FileIDFromContext(ctx context.Context) string {
	if f, ok := ctx.Value(fileCtxKey{}).(string); ok {
		return f
	}
	return ""
}

// WithFileID adds the ingestion file_id to context so every log line
// emitted by the orchestrator's pipeline for this file carries it.
// Panics if fileID is empty or contains invalid characters.
func WithFileID(ctx context.Context, fileID string) context.Context {
	if err := validateID(fileID, "fileID"); err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return context.WithValue(ctx, fileCtxKey{}, fileID)
}

// ConversationIDFromContext extracts the conversation_id from context.
func ConversationIDFromContext(ctx context.Context) string {
	if c, ok := ctx.Value(conversationCtxKey{}).(string); ok {
		return c
	}
	return ""
}

// WithConversationID adds a conversation_id to context so a multi-turn
// ask() request's query rewriting and retrieval logs correlate.
// Panics if conversationID is empty or contains invalid characters.
func WithConversationID(ctx context.Context, conversationID string) context.Context {
	if err := validateID(conversationID, "conversationID"); err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return context.WithValue(ctx, conversationCtxKey{}, conversationID)
}

// RequestIDFromContext extracts request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if r, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return r
	}
	return ""
}

// WithRequestID adds request ID to context.
// Panics if requestID is empty or contains invalid characters.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if err := validateID(requestID, "requestID"); err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

// loggerCtxKey is the context key for Logger.
type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a default nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return &Logger{zap: zap.NewNop(), config: NewDefaultConfig()}
}
