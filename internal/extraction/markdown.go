package extraction

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// blockTags triggers a paragraph break in the flattened text output so
// headings, list items, and paragraphs don't run together.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "br": true, "tr": true, "blockquote": true,
}

// MarkdownExtractor renders Markdown to HTML with goldmark, then strips
// tags with golang.org/x/net/html's tokenizer to recover plain text,
// preserving block-level line breaks.
type MarkdownExtractor struct {
	md goldmark.Markdown
}

// NewMarkdownExtractor creates a MarkdownExtractor with goldmark's
// default parser/renderer configuration.
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{md: goldmark.New()}
}

// Extract implements Extractor.
func (m *MarkdownExtractor) Extract(ctx context.Context, path string) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("extraction: reading %s: %w", path, err)
	}

	var rendered bytes.Buffer
	if err := m.md.Convert(source, &rendered); err != nil {
		return "", fmt.Errorf("extraction: rendering markdown %s: %w", path, err)
	}

	text := stripHTML(rendered.Bytes())
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// stripHTML walks an HTML fragment's token stream and concatenates text
// nodes, inserting a newline at each block-level tag boundary.
func stripHTML(doc []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(doc))
	var b strings.Builder

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(tokenizer.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if blockTags[string(name)] {
				b.WriteByte('\n')
			}
		}
	}
}

var _ Extractor = (*MarkdownExtractor)(nil)
