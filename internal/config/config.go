// Package config provides configuration loading for ragvault.
//
// Configuration is loaded from a YAML file with environment variable
// overrides, following the same precedence and safety rules regardless of
// which component reads it: environment variables win, then the YAML file,
// then hardcoded defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the complete ragvault configuration.
type Config struct {
	// DataRoot is the user-data root directory. All persisted state lives
	// under it: uploads/, chunks/, transcripts/, vectorstore/, keystore/,
	// privacy/.
	DataRoot string

	Observability ObservabilityConfig
	Keystore      KeystoreConfig
	VectorStore   VectorStoreConfig
	Embeddings    EmbeddingsConfig
	Chunking      ChunkingConfig
	Retrieval     RetrievalConfig
	Reranker      RerankerConfig
	Cache         CacheConfig
	Ingest        IngestConfig
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry   bool   `koanf:"enable_telemetry"`
	ServiceName       string `koanf:"service_name"`
	OTLPEndpoint      string `koanf:"otlp_endpoint"`
	OTLPProtocol      string `koanf:"otlp_protocol"`
	OTLPInsecure      bool   `koanf:"otlp_insecure"`
	OTLPTLSSkipVerify bool   `koanf:"otlp_tls_skip_verify"`
}

// KeystoreConfig holds the at-rest encryption key location.
type KeystoreConfig struct {
	// Path is the file the 256-bit key is persisted to, with 0600
	// permissions. Default: <DataRoot>/keystore/enc_key.bin.
	Path string `koanf:"path"`
}

// VectorStoreConfig holds chromem-go embedded vector database configuration.
type VectorStoreConfig struct {
	// Path is the directory for persistent storage.
	// Default: <DataRoot>/vectorstore
	Path string `koanf:"path"`

	// Compress enables gzip compression for stored data.
	Compress bool `koanf:"compress"`

	// DefaultCollection is the default collection name.
	DefaultCollection string `koanf:"default_collection"`

	// VectorSize is the expected embedding dimension. Must match the
	// embedder's output dimension for the corpus.
	VectorSize int `koanf:"vector_size"`
}

// Validate validates VectorStoreConfig.
func (c *VectorStoreConfig) Validate() error {
	if c.VectorSize <= 0 {
		return fmt.Errorf("vector_size must be positive, got %d", c.VectorSize)
	}
	return nil
}

// EmbeddingsConfig holds embedder provider configuration.
type EmbeddingsConfig struct {
	// Provider selects "local" (in-process FastEmbed ONNX, default) or
	// "store-native" (delegated to the vector index's own embedding
	// integration).
	Provider string `koanf:"provider"`
	Model    string `koanf:"model"`
	// BaseURL is used only by the store-native provider.
	BaseURL string `koanf:"base_url"`
	// CacheDir is the fixed, installer-provisioned model directory used
	// only by the local provider. It is never populated by a network fetch.
	CacheDir string `koanf:"cache_dir"`
}

// ChunkingConfig controls chunker sizing.
type ChunkingConfig struct {
	TargetTokens  int `koanf:"target_tokens"`
	MinTokens     int `koanf:"min_tokens"`
	OverlapTokens int `koanf:"overlap_tokens"`
}

// Validate validates ChunkingConfig.
func (c *ChunkingConfig) Validate() error {
	if c.TargetTokens <= 0 {
		return fmt.Errorf("chunking.target_tokens must be positive, got %d", c.TargetTokens)
	}
	if c.MinTokens <= 0 || c.MinTokens > c.TargetTokens {
		return fmt.Errorf("chunking.min_tokens must be in (0, target_tokens], got %d", c.MinTokens)
	}
	if c.OverlapTokens < 0 || c.OverlapTokens >= c.TargetTokens {
		return fmt.Errorf("chunking.overlap_tokens must be in [0, target_tokens), got %d", c.OverlapTokens)
	}
	return nil
}

// RetrievalConfig holds retrieval engine defaults.
type RetrievalConfig struct {
	TopK              int     `koanf:"topk"`
	MinScore          float64 `koanf:"min_score"`
	MMRLambda         float64 `koanf:"mmr_lambda"`
	SnippetWindowChars int    `koanf:"snippet_window_chars"`
	MaxContextChars    int    `koanf:"max_context_chars"`
}

// Validate validates RetrievalConfig.
func (c *RetrievalConfig) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("retrieval.topk must be positive, got %d", c.TopK)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("retrieval.min_score must be in [0,1], got %f", c.MinScore)
	}
	if c.MMRLambda < 0 || c.MMRLambda > 1 {
		return fmt.Errorf("retrieval.mmr_lambda must be in [0,1], got %f", c.MMRLambda)
	}
	if c.SnippetWindowChars <= 0 {
		return fmt.Errorf("retrieval.snippet_window_chars must be positive, got %d", c.SnippetWindowChars)
	}
	if c.MaxContextChars <= 0 {
		return fmt.Errorf("retrieval.max_context_chars must be positive, got %d", c.MaxContextChars)
	}
	return nil
}

// RerankerConfig controls the MMR re-rank stage.
type RerankerConfig struct {
	Enabled    bool `koanf:"enabled"`
	KeepTopN   int  `koanf:"keep_topn"`
}

// CacheConfig controls the query-embedding cache.
type CacheConfig struct {
	Enabled    bool `koanf:"enabled"`
	TTLSeconds int  `koanf:"ttl_seconds"`
}

// IngestConfig holds ingestion caps and supported formats.
type IngestConfig struct {
	MaxFileSizeMB           int      `koanf:"max_file_size_mb"`
	MaxAudioDurationMinutes int      `koanf:"max_audio_duration_minutes"`
	SupportedTextFormats    []string `koanf:"supported_text_formats"`
	SupportedAudioFormats   []string `koanf:"supported_audio_formats"`
}

// Validate validates IngestConfig.
func (c *IngestConfig) Validate() error {
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("ingest.max_file_size_mb must be positive, got %d", c.MaxFileSizeMB)
	}
	if c.MaxAudioDurationMinutes <= 0 {
		return fmt.Errorf("ingest.max_audio_duration_minutes must be positive, got %d", c.MaxAudioDurationMinutes)
	}
	return nil
}

// Paths returns the fixed subdirectory layout under DataRoot.
type Paths struct {
	Uploads     string
	Chunks      string
	Transcripts string
	VectorStore string
	Keystore    string
	Privacy     string
}

// Paths computes the persisted layout rooted at c.DataRoot.
func (c *Config) Paths() Paths {
	return Paths{
		Uploads:     filepath.Join(c.DataRoot, "uploads"),
		Chunks:      filepath.Join(c.DataRoot, "chunks"),
		Transcripts: filepath.Join(c.DataRoot, "transcripts"),
		VectorStore: filepath.Join(c.DataRoot, "vectorstore"),
		Keystore:    filepath.Join(c.DataRoot, "keystore"),
		Privacy:     filepath.Join(c.DataRoot, "privacy"),
	}
}

// Load returns a Config populated entirely with defaults. Callers that need
// file/env overrides should use LoadWithFile instead.
func Load() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataRoot == "" {
		return errors.New("data_root must not be empty")
	}
	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}
	if err := validatePath(c.DataRoot); err != nil {
		return fmt.Errorf("invalid DATA_ROOT: %w", err)
	}
	if err := validatePath(c.VectorStore.Path); err != nil {
		return fmt.Errorf("invalid VECTORSTORE_PATH: %w", err)
	}
	if c.Embeddings.CacheDir != "" {
		if err := validatePath(c.Embeddings.CacheDir); err != nil {
			return fmt.Errorf("invalid EMBEDDINGS_CACHE_DIR: %w", err)
		}
	}
	if c.Embeddings.BaseURL != "" {
		if err := validateURL(c.Embeddings.BaseURL); err != nil {
			return fmt.Errorf("invalid EMBEDDINGS_BASE_URL: %w", err)
		}
	}
	if err := c.VectorStore.Validate(); err != nil {
		return fmt.Errorf("vectorstore config validation failed: %w", err)
	}
	if err := c.Chunking.Validate(); err != nil {
		return fmt.Errorf("chunking config validation failed: %w", err)
	}
	if err := c.Retrieval.Validate(); err != nil {
		return fmt.Errorf("retrieval config validation failed: %w", err)
	}
	if err := c.Ingest.Validate(); err != nil {
		return fmt.Errorf("ingest config validation failed: %w", err)
	}
	return nil
}

// applyDefaults sets default values matching the documented configuration
// table: chunker sizing, retrieval defaults, re-rank, context sizing,
// query-embed cache, and ingest caps.
func applyDefaults(cfg *Config) {
	if cfg.DataRoot == "" {
		cfg.DataRoot = defaultDataRoot()
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "ragvault"
	}

	if cfg.Keystore.Path == "" {
		cfg.Keystore.Path = filepath.Join(cfg.DataRoot, "keystore", "enc_key.bin")
	}

	if cfg.VectorStore.Path == "" {
		cfg.VectorStore.Path = filepath.Join(cfg.DataRoot, "vectorstore")
	}
	if cfg.VectorStore.DefaultCollection == "" {
		cfg.VectorStore.DefaultCollection = "ragvault_chunks"
	}
	if cfg.VectorStore.VectorSize == 0 {
		cfg.VectorStore.VectorSize = 384
	}

	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = "local"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "BAAI/bge-small-en-v1.5"
	}
	if cfg.Embeddings.CacheDir == "" {
		cfg.Embeddings.CacheDir = filepath.Join(cfg.DataRoot, "models")
	}

	if cfg.Chunking.TargetTokens == 0 {
		cfg.Chunking.TargetTokens = 1000
	}
	if cfg.Chunking.MinTokens == 0 {
		cfg.Chunking.MinTokens = 200
	}
	if cfg.Chunking.OverlapTokens == 0 {
		cfg.Chunking.OverlapTokens = 150
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 12
	}
	if cfg.Retrieval.MinScore == 0 {
		cfg.Retrieval.MinScore = 0.15
	}
	if cfg.Retrieval.MMRLambda == 0 {
		cfg.Retrieval.MMRLambda = 0.5
	}
	if cfg.Retrieval.SnippetWindowChars == 0 {
		cfg.Retrieval.SnippetWindowChars = 240
	}
	if cfg.Retrieval.MaxContextChars == 0 {
		cfg.Retrieval.MaxContextChars = 4000
	}

	// Enabled flags default true in the documented configuration table, but
	// the zero value of bool is false and indistinguishable from "unset"
	// once koanf has merged env/yaml; LoadWithFile handles ENABLE_RERANKER
	// and ENABLE_MEMORY_CACHE explicitly for that reason (see loader.go).
	if cfg.Reranker.KeepTopN == 0 {
		cfg.Reranker.KeepTopN = 6
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 3600
	}

	if cfg.Ingest.MaxFileSizeMB == 0 {
		cfg.Ingest.MaxFileSizeMB = 100
	}
	if cfg.Ingest.MaxAudioDurationMinutes == 0 {
		cfg.Ingest.MaxAudioDurationMinutes = 60
	}
	if len(cfg.Ingest.SupportedTextFormats) == 0 {
		cfg.Ingest.SupportedTextFormats = []string{".txt", ".md", ".pdf", ".docx"}
	}
	if len(cfg.Ingest.SupportedAudioFormats) == 0 {
		cfg.Ingest.SupportedAudioFormats = []string{".mp3"}
	}
}

func defaultDataRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "ragvault")
	}
	return filepath.Join(home, ".local", "share", "ragvault")
}

// validatePath checks if a path is safe (no path traversal).
func validatePath(path string) error {
	if strings.Contains(path, "..") {
		return fmt.Errorf("path contains traversal sequence: %s", path)
	}
	if filepath.IsAbs(path) {
		clean := filepath.Clean(path)
		origDepth := strings.Count(path, string(filepath.Separator))
		cleanDepth := strings.Count(clean, string(filepath.Separator))
		if cleanDepth < origDepth-1 {
			return fmt.Errorf("path traversal detected: %s (resolves to %s)", path, clean)
		}
	}
	return nil
}

// validateURL checks if a URL uses allowed schemes (http/https only).
func validateURL(urlStr string) error {
	if !strings.HasPrefix(urlStr, "http://") && !strings.HasPrefix(urlStr, "https://") {
		return fmt.Errorf("URL must use http:// or https:// scheme, got: %s", urlStr)
	}
	return nil
}

