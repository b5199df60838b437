package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.NotEmpty(t, cfg.DataRoot)
	assert.Equal(t, "ragvault", cfg.Observability.ServiceName)
	assert.Equal(t, 1000, cfg.Chunking.TargetTokens)
	assert.Equal(t, 200, cfg.Chunking.MinTokens)
	assert.Equal(t, 150, cfg.Chunking.OverlapTokens)
	assert.Equal(t, 12, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.15, cfg.Retrieval.MinScore, 1e-9)
	assert.InDelta(t, 0.5, cfg.Retrieval.MMRLambda, 1e-9)
	assert.Equal(t, 240, cfg.Retrieval.SnippetWindowChars)
	assert.Equal(t, 4000, cfg.Retrieval.MaxContextChars)
	assert.Equal(t, 6, cfg.Reranker.KeepTopN)
	assert.Equal(t, 3600, cfg.Cache.TTLSeconds)
	assert.Equal(t, 100, cfg.Ingest.MaxFileSizeMB)
	assert.Equal(t, 60, cfg.Ingest.MaxAudioDurationMinutes)
	assert.Equal(t, []string{".txt", ".md", ".pdf", ".docx"}, cfg.Ingest.SupportedTextFormats)
	assert.Equal(t, []string{".mp3"}, cfg.Ingest.SupportedAudioFormats)
	assert.Equal(t, "local", cfg.Embeddings.Provider)
	assert.Equal(t, 384, cfg.VectorStore.VectorSize)

	require.NoError(t, cfg.Validate())
}

func TestConfigPaths(t *testing.T) {
	cfg := &Config{DataRoot: "/data/ragvault"}

	p := cfg.Paths()

	assert.Equal(t, filepath.Join("/data/ragvault", "uploads"), p.Uploads)
	assert.Equal(t, filepath.Join("/data/ragvault", "chunks"), p.Chunks)
	assert.Equal(t, filepath.Join("/data/ragvault", "transcripts"), p.Transcripts)
	assert.Equal(t, filepath.Join("/data/ragvault", "vectorstore"), p.VectorStore)
	assert.Equal(t, filepath.Join("/data/ragvault", "keystore"), p.Keystore)
	assert.Equal(t, filepath.Join("/data/ragvault", "privacy"), p.Privacy)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty data root", func(c *Config) { c.DataRoot = "" }, "data_root"},
		{"path traversal in data root", func(c *Config) { c.DataRoot = "/data/../etc" }, "DATA_ROOT"},
		{"negative vector size", func(c *Config) { c.VectorStore.VectorSize = -1 }, "vectorstore"},
		{"zero target tokens", func(c *Config) { c.Chunking.TargetTokens = 0 }, "chunking"},
		{"overlap exceeds target", func(c *Config) { c.Chunking.OverlapTokens = c.Chunking.TargetTokens }, "chunking"},
		{"min score out of range", func(c *Config) { c.Retrieval.MinScore = 1.5 }, "retrieval"},
		{"telemetry without service name", func(c *Config) {
			c.Observability.EnableTelemetry = true
			c.Observability.ServiceName = ""
		}, "service name"},
		{"bad embeddings base url", func(c *Config) { c.Embeddings.BaseURL = "ftp://x" }, "EMBEDDINGS_BASE_URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
