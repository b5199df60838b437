// Package logging provides structured logging with OpenTelemetry integration.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Dual output (stdout + OpenTelemetry)
//   - Automatic context field injection (trace_id, file_id, conversation_id)
//   - Defense-in-depth secret redaction
//   - Level-aware sampling (errors never sampled)
//
// # Usage
//
// Create logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, otelProvider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx := logging.WithFileID(ctx, fileID)
//	ctx = logging.WithConversationID(ctx, conversationID)
//	logger.Info(ctx, "chunk embedded", zap.Duration("duration", d))
//
// Output includes automatic correlation:
//
//	{
//	  "ts": "2025-11-24T10:15:30Z",
//	  "level": "info",
//	  "msg": "chunk embedded",
//	  "trace_id": "abc123",
//	  "file.id": "file_abc123",
//	  "conversation.id": "conv_abc123",
//	  "duration": "45ms"
//	}
//
// # Configuration
//
// Config carries koanf tags, but nothing in ragvault loads it from
// config.yaml or the environment: callers build it with NewDefaultConfig
// and adjust fields in code.
//
// # Secret Redaction
//
// Secrets are redacted at multiple layers:
//  1. Domain primitives (config.Secret type)
//  2. Encoder-level field name filtering
//  3. Encoder-level pattern matching
//
// Use helpers for manual redaction:
//
//	logger.Info(ctx, "auth received",
//	    logging.RedactedString("authorization", authHeader))
//
// # Sampling
//
// Sampling prevents log floods:
//   - Trace, Debug, Info, Warn: one shared sampler using the Info entry of
//     SamplingConfig.Levels (default: first 100 per tick, then 1 every 10);
//     the other entries of Levels are not applied
//   - Error+: never sampled
//
// Disable for debugging:
//
//	cfg.Sampling.Enabled = false
//
// # Testing
//
// Use TestLogger for test assertions:
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertField(t, "test message", "key", "value")
//	tl.AssertNoSecrets(t)
//
// # Concurrency Safety
//
// Logger is safe for concurrent use. Child loggers (With, Named) are
// independent and do not affect parent or siblings.
//
// # Performance
//
// Logging overhead: <1ms per entry in hot paths
// Trace builds no fields when Trace is disabled; the other levels build
// context fields before zap's level check
// Sampling reduces volume by ~90% in high-throughput scenarios
package logging
