package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func TestContextFields_Trace(t *testing.T) {
	ctx := context.Background()
	fields := ContextFields(ctx)
	assert.Empty(t, fields)
}

func TestContextFields_OTELTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)
	tracer := provider.Tracer("test")

	ctx, span := tracer.Start(context.Background(), "test-operation")
	defer span.End()

	fields := ContextFields(ctx)

	var hasTraceID, hasSpanID bool
	for _, f := range fields {
		if f.Key == "trace_id" {
			hasTraceID = true
			assert.NotEmpty(t, f.String, "trace_id should not be empty")
		}
		if f.Key == "span_id" {
			hasSpanID = true
			assert.NotEmpty(t, f.String, "span_id should not be empty")
		}
	}
	assert.True(t, hasTraceID, "trace_id field missing from context fields")
	assert.True(t, hasSpanID, "span_id field missing from context fields")
}

func TestContextFields_OTELSampling(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := trace.NewTracerProvider(
		trace.WithSampler(trace.AlwaysSample()),
		trace.WithBatcher(exporter),
	)
	tracer := provider.Tracer("test")

	ctx, span := tracer.Start(context.Background(), "sampled-operation")
	defer span.End()

	fields := ContextFields(ctx)

	assertBoolFieldExists(t, fields, "trace_sampled", true)
}

func TestContextFields_FileID(t *testing.T) {
	ctx := context.WithValue(context.Background(), fileCtxKey{}, "file_123")

	fields := ContextFields(ctx)

	assert.Len(t, fields, 1)
	assertFieldExists(t, fields, "file.id", "file_123")
}

func TestContextFields_ConversationID(t *testing.T) {
	ctx := context.WithValue(context.Background(), conversationCtxKey{}, "conv_123")

	fields := ContextFields(ctx)

	assert.Len(t, fields, 1)
	assertFieldExists(t, fields, "conversation.id", "conv_123")
}

func TestContextFields_Request(t *testing.T) {
	ctx := context.WithValue(context.Background(), requestCtxKey{}, "req_456")

	fields := ContextFields(ctx)

	assert.Len(t, fields, 1)
	assertFieldExists(t, fields, "request.id", "req_456")
}

func assertFieldExists(t *testing.T, fields []zap.Field, key, expected string) {
	t.Helper()
	for _, field := range fields {
		if field.Key == key && field.String == expected {
			return
		}
	}
	t.Errorf("field %q with value %q not found", key, expected)
}

func assertBoolFieldExists(t *testing.T, fields []zap.Field, key string, expected bool) {
	t.Helper()
	for _, field := range fields {
		if field.Key == key {
			if expected && field.Integer == 1 {
				return
			} else if !expected && field.Integer == 0 {
				return
			}
		}
	}
	t.Errorf("bool field %q with value %v not found", key, expected)
}

func TestLogger_InContext(t *testing.T) {
	logger := &Logger{zap: zap.NewNop(), config: NewDefaultConfig()}
	ctx := WithLogger(context.Background(), logger)

	retrieved := FromContext(ctx)
	assert.Equal(t, logger, retrieved)
}

func TestLogger_FromContextMissing(t *testing.T) {
	ctx := context.Background()
	retrieved := FromContext(ctx)

	assert.NotNil(t, retrieved)
}

// Validation tests

func TestWithFileID_Valid(t *testing.T) {
	tests := []struct {
		name   string
		fileID string
	}{
		{"simple", "file_123"},
		{"with hyphens", "file-abc-123"},
		{"with underscores", "file_abc_123"},
		{"alphanumeric", "fileABC123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithFileID(context.Background(), tt.fileID)
			retrieved := FileIDFromContext(ctx)
			assert.Equal(t, tt.fileID, retrieved)
		})
	}
}

func TestWithFileID_EmptyPanics(t *testing.T) {
	assert.PanicsWithValue(t, "logging: fileID cannot be empty", func() {
		WithFileID(context.Background(), "")
	})
}

func TestWithFileID_InvalidCharactersPanics(t *testing.T) {
	tests := []struct {
		name   string
		fileID string
	}{
		{"with spaces", "file 123"},
		{"with slash", "file/123"},
		{"with special chars", "file@123"},
		{"with dots", "file.123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() {
				WithFileID(context.Background(), tt.fileID)
			})
		})
	}
}

func TestWithFileID_TooLongPanics(t *testing.T) {
	longID := string(make([]byte, 129)) // 129 chars, max is 128
	for i := range longID {
		longID = longID[:i] + "a" + longID[i+1:]
	}

	assert.Panics(t, func() {
		WithFileID(context.Background(), longID)
	})
}

func TestWithConversationID_Valid(t *testing.T) {
	ctx := WithConversationID(context.Background(), "conv-abc-123")
	retrieved := ConversationIDFromContext(ctx)
	assert.Equal(t, "conv-abc-123", retrieved)
}

func TestWithConversationID_EmptyPanics(t *testing.T) {
	assert.PanicsWithValue(t, "logging: conversationID cannot be empty", func() {
		WithConversationID(context.Background(), "")
	})
}

func TestWithRequestID_Valid(t *testing.T) {
	tests := []struct {
		name      string
		requestID string
	}{
		{"simple", "req_456"},
		{"with hyphens", "req-abc-456"},
		{"with underscores", "req_abc_456"},
		{"alphanumeric", "reqABC456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := WithRequestID(context.Background(), tt.requestID)
			retrieved := RequestIDFromContext(ctx)
			assert.Equal(t, tt.requestID, retrieved)
		})
	}
}

func TestWithRequestID_EmptyPanics(t *testing.T) {
	assert.PanicsWithValue(t, "logging: requestID cannot be empty", func() {
		WithRequestID(context.Background(), "")
	})
}

func TestWithRequestID_InvalidCharactersPanics(t *testing.T) {
	tests := []struct {
		name      string
		requestID string
	}{
		{"with spaces", "req 456"},
		{"with slash", "req/456"},
		{"with special chars", "req@456"},
		{"with dots", "req.456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() {
				WithRequestID(context.Background(), tt.requestID)
			})
		})
	}
}

func TestWithRequestID_TooLongPanics(t *testing.T) {
	longID := string(make([]byte, 129)) // 129 chars, max is 128
	for i := range longID {
		longID = longID[:i] + "a" + longID[i+1:]
	}

	assert.Panics(t, func() {
		WithRequestID(context.Background(), longID)
	})
}
