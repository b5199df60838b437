package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// FileMeta is the JSON sidecar persisted at uploads/<file_id>.meta.
type FileMeta struct {
	FileID           string `json:"file_id"`
	OriginalFilename string `json:"original_filename"`
	StorageFilename  string `json:"storage_filename"`
	FileExtension    string `json:"file_extension"`
	UploadTimestamp  string `json:"upload_timestamp"`
	FileSize         int64  `json:"file_size"`
}

func writeFileMeta(uploadsDir string, meta FileMeta) error {
	path := filepath.Join(uploadsDir, meta.FileID+".meta")
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("ingest: marshaling file metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("ingest: writing file metadata %s: %w", path, err)
	}
	return nil
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// normalizedFilename lowercases name, maps punctuation to spaces, and
// collapses whitespace runs, producing the normalized_filename metadata
// field carried on every vector record.
func normalizedFilename(name string) string {
	lower := strings.ToLower(name)
	collapsed := nonAlnum.ReplaceAllString(lower, " ")
	return strings.TrimSpace(collapsed)
}

func extOf(name string) string {
	ext := filepath.Ext(name)
	return strings.ToLower(ext)
}

func isoNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
