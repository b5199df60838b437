package embeddings

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/ragvault/internal/vectorstore"
)

// Sentinel errors shared by the embedding providers.
var (
	// ErrInvalidConfig indicates invalid provider configuration.
	ErrInvalidConfig = errors.New("embeddings: invalid configuration")

	// ErrEmptyInput indicates a request with no text to embed.
	ErrEmptyInput = errors.New("embeddings: empty input")

	// ErrEmbeddingFailed indicates the underlying model failed to embed text.
	ErrEmbeddingFailed = errors.New("embeddings: failed to generate embedding")

	// ErrModelNotProvisioned indicates the local model cache directory does
	// not contain a usable model. FastEmbedProvider never fetches a model
	// over the network to recover from this; the installer is responsible
	// for provisioning the cache directory ahead of time.
	ErrModelNotProvisioned = errors.New("embeddings: local model not provisioned, refusing network fetch")
)

// Provider is the interface for embedding providers.
type Provider interface {
	vectorstore.Embedder
	// Dimension returns the embedding dimension for the current model.
	Dimension() int
	// Close releases resources held by the provider.
	Close() error
}

// ProviderConfig holds configuration for creating an embedding provider.
type ProviderConfig struct {
	// Provider selects the implementation: "local" (default) for the
	// in-process FastEmbed ONNX model, or "store-native" to delegate
	// embedding to the vector index's own embedding integration.
	Provider string

	// Model is the embedding model name. For "local" this is a FastEmbed
	// model name (e.g. BAAI/bge-small-en-v1.5). For "store-native" this is
	// the model name passed to the store's embedding integration.
	Model string

	// BaseURL is the store-native embedding endpoint (e.g. a local Ollama
	// server). Unused for "local".
	BaseURL string

	// CacheDir is the fixed, installer-provisioned directory FastEmbed
	// loads its model files from. Unused for "store-native".
	CacheDir string

	// ShowProgress is not passed to either provider: FastEmbedProvider
	// never downloads and always runs without a progress bar.
	ShowProgress bool
}

// detectDimensionFromModel returns the embedding dimension for a model name.
// Falls back to 384 if the model is unknown.
func detectDimensionFromModel(model string) int {
	if dim, ok := fastEmbedModelDimension(model); ok {
		return dim
	}
	switch {
	case contains(model, "base"):
		return 768
	case contains(model, "large"):
		return 1024
	case contains(model, "small"), contains(model, "mini"):
		return 384
	default:
		return 384
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > 0 && containsImpl(s, substr))
}

func containsImpl(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// NewProvider creates an embedding provider based on the configuration. A
// corpus must commit to one provider kind for its lifetime; the vector
// index carries no record of which one produced its vectors.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "local", "":
		return NewFastEmbedProvider(FastEmbedConfig{
			Model:    cfg.Model,
			CacheDir: cfg.CacheDir,
		})
	case "store-native":
		dim := detectDimensionFromModel(cfg.Model)
		return NewStoreNativeProvider(StoreNativeConfig{
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			Dimension: dim,
		})
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
