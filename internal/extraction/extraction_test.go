package extraction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDetectFormatByExtension(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"a.md", FormatMarkdown},
		{"a.markdown", FormatMarkdown},
		{"a.pdf", FormatPDF},
		{"a.docx", FormatDocx},
		{"a.mp3", FormatAudio},
	}
	for _, tt := range tests {
		path := writeFile(t, tt.name, "placeholder")
		got, err := DetectFormat(path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestDetectFormatPlainText(t *testing.T) {
	path := writeFile(t, "notes.txt", "hello world")
	got, err := DetectFormat(path)
	require.NoError(t, err)
	assert.Equal(t, FormatPlain, got)
}

func TestPlainExtractorReadsFile(t *testing.T) {
	path := writeFile(t, "notes.txt", "hello world")
	text, err := PlainExtractor{}.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestPlainExtractorEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.txt", "")
	_, err := PlainExtractor{}.Extract(context.Background(), path)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestMarkdownExtractorStripsTagsAndKeepsText(t *testing.T) {
	path := writeFile(t, "doc.md", "# Title\n\nSome **bold** paragraph text.\n")
	text, err := NewMarkdownExtractor().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "Some")
	assert.Contains(t, text, "bold")
	assert.NotContains(t, text, "<h1>")
	assert.NotContains(t, text, "<strong>")
}

func TestDocxExtractorStripsTags(t *testing.T) {
	raw := `<w:p><w:r><w:t>Hello world</w:t></w:r></w:p>`
	cleaned := xmlTag.ReplaceAllString(raw, "\n")
	assert.Equal(t, "\nHello world\n", cleaned)
}

func TestNullTranscriberAlwaysFails(t *testing.T) {
	_, err := NullTranscriber{}.Transcribe(context.Background(), "irrelevant.mp3")
	assert.ErrorIs(t, err, ErrTranscriptionUnavailable)
}

type fixedDurationProber struct {
	dur time.Duration
	err error
}

func (f fixedDurationProber) Duration(path string) (time.Duration, error) {
	return f.dur, f.err
}

func TestAudioExtractorEnforcesDurationCapBeforeTranscribing(t *testing.T) {
	calledTranscriber := &countingTranscriber{}
	ext := NewAudioExtractor(calledTranscriber, fixedDurationProber{dur: 2 * time.Hour}, time.Hour)
	_, err := ext.Extract(context.Background(), "long.mp3")
	assert.ErrorIs(t, err, ErrAudioDurationExceeded)
	assert.Equal(t, 0, calledTranscriber.calls, "transcriber must not run once the duration cap is exceeded")
}

func TestAudioExtractorTranscribesWithinCap(t *testing.T) {
	calledTranscriber := &countingTranscriber{}
	ext := NewAudioExtractor(calledTranscriber, fixedDurationProber{dur: time.Minute}, time.Hour)
	_, err := ext.Extract(context.Background(), "short.mp3")
	assert.True(t, errors.Is(err, ErrTranscriptionUnavailable))
	assert.Equal(t, 1, calledTranscriber.calls)
}

type countingTranscriber struct{ calls int }

func (c *countingTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	c.calls++
	return NullTranscriber{}.Transcribe(ctx, path)
}

func TestFactoryDispatchesByFormat(t *testing.T) {
	for _, f := range []Format{FormatPlain, FormatMarkdown, FormatPDF, FormatDocx} {
		ext, err := New(f)
		require.NoError(t, err)
		assert.NotNil(t, ext)
	}
	_, err := New(Format("unknown"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
