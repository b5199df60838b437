package extraction

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/go-docx"
)

// xmlTag matches a run of one or more adjacent XML/HTML-style tags that
// go-docx's Editable().GetContent leaves in its output, which reflects the
// raw document.xml paragraph markup rather than plain text. Each run is
// replaced by a single newline.
var xmlTag = regexp.MustCompile(`(?:<[^>]*>)+`)

// DocxExtractor extracts paragraph text from a .docx file with
// nguyenthenguyen/go-docx.
type DocxExtractor struct{}

// Extract implements Extractor.
func (DocxExtractor) Extract(ctx context.Context, path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("extraction: opening docx %s: %w", path, err)
	}
	defer r.Close()

	raw := r.Editable().GetContent()
	text := xmlTag.ReplaceAllString(raw, "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

var _ Extractor = DocxExtractor{}
