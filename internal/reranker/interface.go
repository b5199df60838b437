// Package reranker implements the diversity re-rank stage of the retrieval
// engine: maximal-marginal-relevance-style rescaling that rewards the first
// candidate seen from each file while otherwise preserving the retrieval
// engine's score ordering.
package reranker

import (
	"context"
)

// Document represents a retrieval candidate entering the re-rank stage.
type Document struct {
	ChunkID string
	FileID  string
	Content string
	Score   float32
}

// ScoredDocument represents a document after re-ranking.
type ScoredDocument struct {
	Document
	RerankerScore float32 // Rescaled score after the λ and diversity adjustments.
	OriginalRank  int     // Rank position before re-ranking (0-indexed).
}

// Reranker re-ranks retrieval candidates for diversity.
type Reranker interface {
	// Rerank rescales each candidate's score by lambda and adds a
	// diversity bonus the first time a file_id is selected, then returns
	// the top topK candidates by rescaled score.
	//
	// The caller is responsible for ensuring ctx is not nil.
	Rerank(ctx context.Context, docs []Document, lambda float64, topK int) ([]ScoredDocument, error)

	// Close releases any resources held by the reranker.
	Close() error
}
