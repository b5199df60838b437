// Package vectorstore defines the interface for vector storage operations.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrCollectionNotFound is returned when the corpus collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")
)

// Embedder generates vector embeddings from text.
//
// Embeddings are dense numerical representations that capture semantic
// meaning, enabling similarity search. The two interchangeable
// implementations are a local FastEmbed ONNX model (applying passage/query
// prefixes) and store-native embedding, where the vector store generates
// embeddings internally at insert/query time. An ingestion corpus must
// commit to one implementation; querying a corpus embedded under the other
// is undefined.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	// Returns a slice of embeddings (one per input text) or an error.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	// Some models optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the interface for vector storage operations.
//
// This is the logical counterpart of the chunk store: both are keyed by
// chunk_id, giving a join between encrypted plaintext and searchable
// embedding without either owning the other's data. The ingestion
// orchestrator is the sole writer; the retrieval engine only reads. The
// surface is deliberately narrow: one corpus, one collection, so there
// are no per-collection management methods.
//
// Implementations:
//   - ChromemStore: embedded chromem-go (the only implementation; see
//     ChromemConfig.VectorSize which must be fixed per corpus).
type Store interface {
	// AddDocuments adds documents to the corpus collection. Upsert is
	// idempotent by id: re-adding the same (id, content, metadata) does
	// not grow Count().
	//
	// Documents are embedded and stored with their metadata. The document
	// ID is used as the unique identifier in the vector store.
	//
	// Returns the IDs of added documents and an error if the operation fails.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// Search performs similarity search against raw query text, letting
	// the store's own embedding integration vectorize it. Returns up to k
	// results ordered by similarity score (highest first).
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)

	// SearchByVector performs similarity search against a precomputed
	// query embedding, skipping the store's internal embedding step. The
	// retrieval engine uses this to honor its query-embedding TTL cache:
	// embedding the same raw query text twice within the cache TTL must
	// not re-invoke the embedder.
	SearchByVector(ctx context.Context, embedding []float32, k int, filters map[string]interface{}) ([]SearchResult, error)

	// Count returns the number of vectors in the corpus. The retrieval
	// engine uses this to size smart-k (k_base = clamp(round(2*sqrt(N)), 6, 24)).
	Count(ctx context.Context) (int, error)

	// Reset destructively drops the corpus collection and all its vector
	// records. Used by purge; idempotent on an already-empty store.
	Reset(ctx context.Context) error

	// Warmup opens the corpus collection and runs a throwaway top-1 query
	// so index structures are paged in before the first real request.
	Warmup(ctx context.Context) error

	// Close closes the vector store connection and releases resources.
	Close() error
}
