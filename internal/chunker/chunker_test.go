package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedCharChunking2500x1000x200(t *testing.T) {
	text := strings.Repeat("a", 2500)
	c, err := New(Config{Strategy: StrategyFixedChar, Size: 1000, Overlap: 200})
	require.NoError(t, err)

	chunks, err := c.Split(text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	want := [][2]int{{0, 1000}, {800, 1800}, {1600, 2500}}
	for i, w := range want {
		assert.Equal(t, w[0], chunks[i].Start, "chunk %d start", i)
		assert.Equal(t, w[1], chunks[i].End, "chunk %d end", i)
	}
}

func TestFixedCharRejectsOverlapTooLarge(t *testing.T) {
	c, err := New(Config{Strategy: StrategyFixedChar, Size: 100, Overlap: 100})
	require.NoError(t, err)
	_, err = c.Split("x")
	assert.Error(t, err)
}

func TestFixedCharEmptyText(t *testing.T) {
	c, err := New(Config{Strategy: StrategyFixedChar, Size: 100, Overlap: 10})
	require.NoError(t, err)
	chunks, err := c.Split("")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestTokenWindowCoverageAndOverlap(t *testing.T) {
	words := make([]string, 0, 500)
	for i := 0; i < 500; i++ {
		words = append(words, "word")
	}
	text := strings.Join(words, " ")

	c, err := New(Config{Strategy: StrategyTokenWindow, TargetTokens: 100, MinTokens: 20, OverlapTokens: 15})
	require.NoError(t, err)
	chunks, err := c.Split(text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	assert.Equal(t, 0, chunks[0].Start)
	for i := 0; i < len(chunks)-1; i++ {
		assert.LessOrEqual(t, chunks[i+1].Start, chunks[i].End,
			"chunk %d+1 must start at or before chunk %d ends", i, i)
	}
}

func TestTokenWindowTailMerge(t *testing.T) {
	// 210 tokens, target=100, overlap=0 -> windows at [0,100),[100,200),[200,210)
	// last window has 10 tokens < min=20, so it must merge into predecessor.
	words := make([]string, 0, 210)
	for i := 0; i < 210; i++ {
		words = append(words, "w")
	}
	text := strings.Join(words, " ")

	c, err := New(Config{Strategy: StrategyTokenWindow, TargetTokens: 100, MinTokens: 20, OverlapTokens: 0})
	require.NoError(t, err)
	chunks, err := c.Split(text)
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, len(text), chunks[len(chunks)-1].End)
}

func TestTokenWindowEmptyText(t *testing.T) {
	c, err := New(Config{Strategy: StrategyTokenWindow, TargetTokens: 100, MinTokens: 20, OverlapTokens: 10})
	require.NoError(t, err)
	chunks, err := c.Split("   \n\t  ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestNewUnknownStrategy(t *testing.T) {
	_, err := New(Config{Strategy: "bogus"})
	assert.Error(t, err)
}
