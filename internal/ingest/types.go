// Package ingest implements ragvault's ingestion orchestrator: the
// staged pipeline that turns an uploaded file into encrypted, indexed,
// citable chunks. A background worker pool drives per-file stage
// transitions; the status cell is the single source of truth for a
// file's progress; nothing is ever inferred from on-disk side effects.
package ingest

import (
	"errors"
	"time"
)

// Stage is a file's position in the ingestion pipeline.
type Stage string

const (
	StageReceived     Stage = "received"
	StageExtracting   Stage = "extracting"
	StageTranscribing Stage = "transcribing"
	StageChunking     Stage = "chunking"
	StageEmbedding    Stage = "embedding"
	StageUpserting    Stage = "upserting"
	StageComplete     Stage = "complete"
	StageError        Stage = "error"
)

// maxErrorMessageLen caps a pipeline failure message stored in a
// file's status.
const maxErrorMessageLen = 200

// Status is the queryable state of one file's ingestion.
type Status struct {
	FileID    string
	Stage     Stage
	Progress  int
	Error     string
	UpdatedAt time.Time
}

// Sentinel errors for rejected uploads. ErrUnsupportedFormat,
// ErrFileTooLarge and ErrEmptyFilename are returned before anything is
// written to disk; ErrOrchestratorClosed is returned after the upload and
// its metadata sidecar have been written.
var (
	ErrUnsupportedFormat  = errors.New("ingest: unsupported file format")
	ErrFileTooLarge       = errors.New("ingest: file exceeds configured maximum size")
	ErrEmptyFilename      = errors.New("ingest: filename must not be empty")
	ErrOrchestratorClosed = errors.New("ingest: orchestrator is shut down")
)

// CacheInvalidator is implemented by the retrieval engine's query cache.
// Kept as a narrow interface here rather than an import of
// internal/retrieval, so the ingestion pipeline doesn't need to know
// anything about retrieval beyond "invalidate everything you've cached."
type CacheInvalidator interface {
	InvalidateAll()
}

func truncateError(err error) string {
	msg := err.Error()
	if len(msg) <= maxErrorMessageLen {
		return msg
	}
	return msg[:maxErrorMessageLen]
}
