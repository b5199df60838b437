// Package extraction turns a file on disk into plain text for the
// normalizer and chunker downstream: one Extractor implementation per
// supported format (plain, markdown, pdf, docx, audio), selected by
// MIME/extension detection.
package extraction

import (
	"context"
	"errors"
)

// Format is a detected or requested extraction variant.
type Format string

const (
	FormatPlain    Format = "plain"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatDocx     Format = "docx"
	FormatAudio    Format = "audio"
)

// Sentinel errors for extraction failures.
var (
	// ErrUnsupportedFormat is returned when no extractor variant matches
	// the detected MIME type or extension.
	ErrUnsupportedFormat = errors.New("extraction: unsupported file format")

	// ErrEmptyDocument is returned when extraction succeeds but produces
	// no usable text (e.g. a scanned, textless PDF).
	ErrEmptyDocument = errors.New("extraction: document contains no extractable text")

	// ErrTranscriptionUnavailable is returned by NullTranscriber; no
	// speech-to-text engine is wired into this corpus.
	ErrTranscriptionUnavailable = errors.New("extraction: audio transcription unavailable")

	// ErrAudioDurationExceeded is returned when an audio file's duration
	// exceeds IngestConfig.MaxAudioDurationMinutes, checked before a
	// transcriber is ever invoked.
	ErrAudioDurationExceeded = errors.New("extraction: audio duration exceeds configured maximum")
)

// Extractor produces plain text from the file at path.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}
