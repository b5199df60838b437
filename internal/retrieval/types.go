// Package retrieval implements ragvault's retrieval engine: the
// pipeline from a raw query string to a ranked, snippet-bearing list of
// citations: smart-k sizing, overfetch, filter/boost, per-doc quota,
// file diversification, MMR rerank, snippet assembly, with a
// filterless fallback and a confidence-based retry.
package retrieval

import (
	"github.com/fyrsmithlabs/ragvault/internal/classifier"
)

// Citation is one retrieval result: a chunk plus enough provenance and
// context for the caller to present or ground a downstream answer on.
type Citation struct {
	ChunkID  string
	FileID   string
	FileName string
	FileExt  string
	Start    int
	End      int
	Score    float32
	Snippet  string
}

// FileFilter narrows which chunks are eligible before scoring. A nil
// FileFilter (or one with both slices empty) matches everything.
type FileFilter struct {
	FileIDs  []string
	ChunkIDs []string
}

func (f *FileFilter) allowsFile(fileID string) bool {
	if f == nil || len(f.FileIDs) == 0 {
		return true
	}
	for _, id := range f.FileIDs {
		if id == fileID {
			return true
		}
	}
	return false
}

func (f *FileFilter) allowsChunk(chunkID string) bool {
	if f == nil || len(f.ChunkIDs) == 0 {
		return true
	}
	for _, id := range f.ChunkIDs {
		if id == chunkID {
			return true
		}
	}
	return false
}

func (f *FileFilter) isEmpty() bool {
	return f == nil || (len(f.FileIDs) == 0 && len(f.ChunkIDs) == 0)
}

// Options configures a single Retrieve call.
type Options struct {
	// Query is the caller's raw search text. Required.
	Query string

	// RequestedK, if > 0, overrides smart-k sizing entirely: it is
	// clamped to [6, 32] and class adjustments are skipped.
	RequestedK int

	// TargetedDocs is the count of documents the caller explicitly
	// scoped the query to, used both by the classifier (is_multi_doc)
	// and by the per-doc quota step. nil means unknown.
	TargetedDocs *int

	// Filter restricts eligible chunks by file or chunk id.
	Filter *FileFilter

	// FileBoosts multiplies a chunk's score by the named file_id's
	// boost factor, default 1.0.
	FileBoosts map[string]float64

	// DisableRetry skips the confidence-based retry, for callers that
	// want a single deterministic pass (e.g. tests).
	DisableRetry bool
}

// classKAdjust is the smart-k table: how each query class widens or
// narrows k_base. The re-rank keep count and lambda stay fixed at their
// configured values (RERANK_KEEP_TOPN, MMR_LAMBDA) regardless of class.
var classKAdjust = map[classifier.QueryClass]func(kBase int) int{
	classifier.ClassFactoid:        func(k int) int { return maxInt(k-2, 6) },
	classifier.ClassSectionSummary: func(k int) int { return minInt(k+4, 32) },
	classifier.ClassBroadSummary:   func(k int) int { return minInt(k+6, 32) },
	classifier.ClassCompare:        func(k int) int { return minInt(k+6, 32) },
	classifier.ClassFiltering:      func(k int) int { return k },
	classifier.ClassMultiDoc:       func(k int) int { return minInt(k+4, 28) },
	classifier.ClassDefault:        func(k int) int { return k },
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
