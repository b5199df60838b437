package extraction

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// audioExtensions names the audio suffixes detection recognizes.
// IngestConfig.SupportedAudioFormats also gates this set, but detection
// must work even when that config hasn't loaded yet, e.g. in tests.
var audioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".flac": true, ".ogg": true,
}

// DetectFormat resolves the file at path by its extension first (audio,
// .md/.markdown, .pdf, .docx), and sniffs the MIME type only for other
// suffixes; a .txt or suffix-less file that sniffs as neither PDF nor
// plain text is still treated as plain text.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(extOf(path))
	if audioExtensions[ext] {
		return FormatAudio, nil
	}
	if ext == ".md" || ext == ".markdown" {
		return FormatMarkdown, nil
	}
	if ext == ".pdf" {
		return FormatPDF, nil
	}
	if ext == ".docx" {
		return FormatDocx, nil
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	switch {
	case mtype.Is("application/pdf"):
		return FormatPDF, nil
	case mtype.Is("text/plain"):
		return FormatPlain, nil
	default:
		if ext == ".txt" || ext == "" {
			return FormatPlain, nil
		}
		return "", ErrUnsupportedFormat
	}
}

func extOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return path[idx:]
}
