package reranker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMMRReranker_DiversifiesAcrossFiles(t *testing.T) {
	r := NewMMRReranker()
	docs := []Document{
		{ChunkID: "c1", FileID: "fileA", Score: 0.95},
		{ChunkID: "c2", FileID: "fileA", Score: 0.60},
		{ChunkID: "c3", FileID: "fileA", Score: 0.58},
		{ChunkID: "c4", FileID: "fileB", Score: 0.60},
	}

	result, err := r.Rerank(context.Background(), docs, 0.5, 3)
	require.NoError(t, err)
	require.Len(t, result, 3)

	// c1 wins first. On the second pick fileA's bonus is spent, so c4
	// (0.5*0.60+0.05 = 0.35) beats c2 (0.5*0.60 = 0.30) despite the tie
	// in raw score; c2 then takes third.
	assert.Equal(t, "c1", result[0].ChunkID)
	assert.Equal(t, "c4", result[1].ChunkID)
	assert.Equal(t, "c2", result[2].ChunkID)
}

func TestMMRReranker_BonusPromotesOtherFile(t *testing.T) {
	r := NewMMRReranker()
	docs := []Document{
		{ChunkID: "c1", FileID: "fileA", Score: 0.95},
		{ChunkID: "c2", FileID: "fileA", Score: 0.70},
		{ChunkID: "c3", FileID: "fileB", Score: 0.68},
	}

	result, err := r.Rerank(context.Background(), docs, 0.5, 3)
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, "c1", result[0].ChunkID)
	// c3 (0.5*0.68+0.05=0.39) beats c2 (0.5*0.70=0.35) thanks to the bonus.
	assert.Equal(t, "c3", result[1].ChunkID)
	assert.Equal(t, "c2", result[2].ChunkID)
}

func TestMMRReranker_EmptyInput(t *testing.T) {
	r := NewMMRReranker()
	result, err := r.Rerank(context.Background(), nil, 0.5, 5)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestMMRReranker_TopKCapsResults(t *testing.T) {
	r := NewMMRReranker()
	docs := []Document{
		{ChunkID: "c1", FileID: "fileA", Score: 0.9},
		{ChunkID: "c2", FileID: "fileB", Score: 0.8},
		{ChunkID: "c3", FileID: "fileC", Score: 0.7},
	}

	result, err := r.Rerank(context.Background(), docs, 0.5, 2)
	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestMMRReranker_NilContext(t *testing.T) {
	r := NewMMRReranker()
	_, err := r.Rerank(nil, []Document{{ChunkID: "c1"}}, 0.5, 1)
	assert.ErrorIs(t, err, ErrNilContext)
}
