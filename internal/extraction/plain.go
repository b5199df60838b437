package extraction

import (
	"context"
	"fmt"
	"os"
)

// PlainExtractor reads a text file verbatim.
type PlainExtractor struct{}

// Extract implements Extractor.
func (PlainExtractor) Extract(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("extraction: reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", ErrEmptyDocument
	}
	return string(data), nil
}

var _ Extractor = PlainExtractor{}
