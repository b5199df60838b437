package embeddings

import (
	"context"
	"fmt"

	chromem "github.com/philippgille/chromem-go"
)

// StoreNativeConfig holds configuration for the store-native embedding
// provider, which delegates embedding generation to the vector index's own
// embedding integration instead of running a model in-process.
type StoreNativeConfig struct {
	// BaseURL is the local embedding server's base URL, e.g. a locally
	// running Ollama instance at "http://localhost:11434/api". Unlike the
	// FastEmbed provider this implementation does make network calls, but
	// only to a server the user runs on their own machine; the
	// local-first guarantee is about data never leaving the device, not
	// about the absence of loopback HTTP.
	BaseURL string

	// Model is the embedding model name served by BaseURL.
	Model string

	// Dimension is the embedding dimension produced by Model. chromem-go's
	// embedding functions don't report this themselves, so the caller must
	// know it ahead of time to size the vector index.
	Dimension int
}

// StoreNativeProvider implements Provider by calling into chromem-go's own
// embedding function rather than an in-process model. It is the second of
// the two interchangeable embedder implementations: where FastEmbedProvider
// runs ONNX in-process and refuses network fetches, StoreNativeProvider asks
// the vector index's configured embedding backend to do the work.
type StoreNativeProvider struct {
	embed     chromem.EmbeddingFunc
	dimension int
}

// NewStoreNativeProvider builds a StoreNativeProvider backed by a local
// Ollama embedding server.
func NewStoreNativeProvider(cfg StoreNativeConfig) (*StoreNativeProvider, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: Model is required for the store-native provider", ErrInvalidConfig)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434/api"
	}
	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = 384
	}

	return &StoreNativeProvider{
		embed:     chromem.NewEmbeddingFuncOllama(cfg.Model, baseURL),
		dimension: dimension,
	}, nil
}

// EmbedDocuments generates embeddings for multiple texts, one call per text:
// chromem.EmbeddingFunc embeds a single string at a time.
func (p *StoreNativeProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		vec, err := p.embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
		}
		out[i] = vec
	}
	return out, nil
}

// EmbedQuery generates an embedding for a single query.
func (p *StoreNativeProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	vec, err := p.embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return vec, nil
}

// Dimension returns the embedding dimension configured for this provider.
func (p *StoreNativeProvider) Dimension() int {
	return p.dimension
}

// Close is a no-op: the store-native provider holds no resources beyond an
// HTTP client chromem-go manages internally.
func (p *StoreNativeProvider) Close() error {
	return nil
}

var _ Provider = (*StoreNativeProvider)(nil)
