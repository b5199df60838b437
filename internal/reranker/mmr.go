package reranker

import (
	"context"
	"errors"
)

// ErrNilContext is returned when a nil context is passed to Rerank.
var ErrNilContext = errors.New("context cannot be nil")

// diversityBonus is added to a candidate's rescaled score the first time
// its file_id is selected.
const diversityBonus = 0.05

// MMRReranker implements the retrieval engine's diversity re-rank: greedily
// select the best remaining candidate at each step, where a candidate's
// value is its similarity score scaled by lambda plus a flat bonus the
// first time its file_id appears among selections. Unlike classic MMR this
// doesn't measure pairwise similarity between candidates directly (the
// retrieval engine's own scoring already encodes that) but the greedy,
// selection-order-dependent bonus gives the same "don't return five chunks
// from the same file before trying a second file" effect.
type MMRReranker struct{}

// NewMMRReranker creates a new MMRReranker instance.
func NewMMRReranker() *MMRReranker {
	return &MMRReranker{}
}

// Rerank implements Reranker.
func (r *MMRReranker) Rerank(ctx context.Context, docs []Document, lambda float64, topK int) ([]ScoredDocument, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if topK <= 0 {
		topK = len(docs)
	}
	if len(docs) == 0 {
		return []ScoredDocument{}, nil
	}

	remaining := make([]Document, len(docs))
	copy(remaining, docs)
	originalRank := make(map[string]int, len(docs))
	for i, d := range docs {
		originalRank[d.ChunkID] = i
	}

	seenFile := make(map[string]bool, len(docs))
	limit := topK
	if limit > len(remaining) {
		limit = len(remaining)
	}

	result := make([]ScoredDocument, 0, limit)
	for len(result) < limit && len(remaining) > 0 {
		bestIdx := -1
		var bestScore float32
		for i, d := range remaining {
			rescaled := float32(lambda) * d.Score
			if !seenFile[d.FileID] {
				rescaled += diversityBonus
			}
			if bestIdx == -1 || rescaled > bestScore {
				bestIdx = i
				bestScore = rescaled
			}
		}

		chosen := remaining[bestIdx]
		seenFile[chosen.FileID] = true
		result = append(result, ScoredDocument{
			Document:      chosen,
			RerankerScore: bestScore,
			OriginalRank:  originalRank[chosen.ChunkID],
		})

		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return result, nil
}

// Close releases resources. MMRReranker holds none.
func (r *MMRReranker) Close() error {
	return nil
}

var _ Reranker = (*MMRReranker)(nil)
