package chunker

import (
	"fmt"
	"unicode"
)

// tokenWindowChunker implements the default chunking strategy: sliding
// windows of up to target whitespace-delimited tokens, stepping by
// max(1, target-overlap), with a tail-merge rule: if the final window
// holds fewer than min tokens and a predecessor exists, it is folded
// into that predecessor instead of standing alone.
type tokenWindowChunker struct {
	target  int
	min     int
	overlap int
}

type token struct {
	start, end int
}

func (c *tokenWindowChunker) Split(text string) ([]Chunk, error) {
	if c.target <= 0 {
		return nil, fmt.Errorf("chunker: token-window target must be positive, got %d", c.target)
	}
	if c.min <= 0 || c.min > c.target {
		return nil, fmt.Errorf("chunker: token-window min must be in (0, target], got %d", c.min)
	}
	if c.overlap < 0 || c.overlap >= c.target {
		return nil, fmt.Errorf("chunker: token-window overlap must be in [0, target), got %d", c.overlap)
	}

	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	step := c.target - c.overlap
	if step < 1 {
		step = 1
	}

	var chunks []Chunk
	for start := 0; start < len(tokens); {
		end := start + c.target
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, Chunk{
			Start: tokens[start].start,
			End:   tokens[end-1].end,
			Text:  text[tokens[start].start:tokens[end-1].end],
		})
		if end == len(tokens) {
			break
		}
		start += step
	}

	return mergeShortTail(chunks, tokens, text, c.min), nil
}

// mergeShortTail folds the final window into its predecessor when the
// final window holds fewer than min tokens.
func mergeShortTail(chunks []Chunk, tokens []token, text string, min int) []Chunk {
	if len(chunks) < 2 {
		return chunks
	}

	lastTokenCount := countTokensInSpan(tokens, chunks[len(chunks)-1].Start, chunks[len(chunks)-1].End)
	if lastTokenCount >= min {
		return chunks
	}

	n := len(chunks)
	merged := chunks[n-2]
	merged.End = chunks[n-1].End
	merged.Text = text[merged.Start:merged.End]
	return append(chunks[:n-2], merged)
}

func countTokensInSpan(tokens []token, start, end int) int {
	count := 0
	for _, tk := range tokens {
		if tk.start >= start && tk.end <= end {
			count++
		}
	}
	return count
}

// tokenize splits text into whitespace-delimited tokens, recording byte
// offsets so chunk boundaries map back onto the original string.
func tokenize(text string) []token {
	var tokens []token
	inToken := false
	tokenStart := 0

	runes := []rune(text)
	byteOffset := 0
	for _, r := range runes {
		size := len(string(r))
		if unicode.IsSpace(r) {
			if inToken {
				tokens = append(tokens, token{start: tokenStart, end: byteOffset})
				inToken = false
			}
		} else if !inToken {
			tokenStart = byteOffset
			inToken = true
		}
		byteOffset += size
	}
	if inToken {
		tokens = append(tokens, token{start: tokenStart, end: byteOffset})
	}
	return tokens
}
