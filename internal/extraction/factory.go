package extraction

import "fmt"

// New returns the Extractor variant for format. Audio requires NewAudioExtractor
// directly, since it needs a Transcriber and duration cap the other variants don't.
func New(format Format) (Extractor, error) {
	switch format {
	case FormatPlain:
		return PlainExtractor{}, nil
	case FormatMarkdown:
		return NewMarkdownExtractor(), nil
	case FormatPDF:
		return PDFExtractor{}, nil
	case FormatDocx:
		return DocxExtractor{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
