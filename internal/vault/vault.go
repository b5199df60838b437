// Package vault is ragvault's facade: it wires the core components into
// the operations a transport layer calls (ingest, status, search, ask,
// purge, export) and is itself transport-agnostic. HTTP or CLI
// frontends stay thin adapters over it.
package vault

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragvault/internal/config"
	"github.com/fyrsmithlabs/ragvault/internal/ingest"
	"github.com/fyrsmithlabs/ragvault/internal/retrieval"
	"github.com/fyrsmithlabs/ragvault/internal/vectorstore"
)

const instrumentationName = "github.com/fyrsmithlabs/ragvault/internal/vault"

// AnswerFn is the caller-supplied hook that turns retrieved context into
// a final answer. The remote language model stays a black box returning
// text: Vault.Ask performs retrieval and leaves the actual model call to
// this hook so the core engine never imports a network client.
type AnswerFn func(ctx context.Context, prompt string, citations []retrieval.Citation) (string, error)

// AskResult is Vault.Ask's return value.
type AskResult struct {
	Content        string                `json:"content"`
	Citations      []retrieval.Citation  `json:"citations"`
	QueryType      string                `json:"query_type"`
	RetrievalStats RetrievalStats        `json:"retrieval_stats"`
}

// RetrievalStats is a small diagnostic summary of one retrieval call.
type RetrievalStats struct {
	CandidatesReturned int `json:"candidates_returned"`
}

// Vault is the facade over ragvault's core engine.
type Vault struct {
	paths      config.Paths
	orch       *ingest.Orchestrator
	engine     *retrieval.Engine
	store      vectorstore.Store
	logger     *zap.Logger
	tracer     trace.Tracer
}

// New builds a Vault from its already-constructed dependencies. Callers
// (cmd/ragvaultd, tests) are responsible for wiring the Keystore,
// ChunkStore, ChromemStore, Embedder, and Orchestrator beforehand.
func New(paths config.Paths, orch *ingest.Orchestrator, engine *retrieval.Engine, store vectorstore.Store, logger *zap.Logger) *Vault {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Vault{
		paths:  paths,
		orch:   orch,
		engine: engine,
		store:  store,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
	}
}

// Ingest registers an uploaded file and returns its file_id; the
// pipeline runs in the background. content_type is accepted for parity
// with upload-style callers but unused: format is resolved by
// suffix/MIME sniffing in internal/extraction, not by the caller
// -declared type.
func (v *Vault) Ingest(ctx context.Context, filename string, contentType string, data []byte) (string, error) {
	ctx, span := v.tracer.Start(ctx, "Vault.Ingest")
	defer span.End()
	span.SetAttributes(attribute.String("filename", filename))

	fileID, err := v.orch.Ingest(ctx, filename, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.String("file_id", fileID))
	return fileID, nil
}

// Status reports a file's current ingestion stage and progress.
func (v *Vault) Status(fileID string) (ingest.Status, bool) {
	return v.orch.Status(fileID)
}

// Search runs the retrieval pipeline for query and returns citations,
// delegating straight to the retrieval engine.
func (v *Vault) Search(ctx context.Context, query string, k int) ([]retrieval.Citation, error) {
	ctx, span := v.tracer.Start(ctx, "Vault.Search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	citations, err := v.engine.Retrieve(ctx, retrieval.Options{Query: query, RequestedK: k})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("results_count", len(citations)))
	return citations, nil
}

// AskOptions configures one Ask call.
type AskOptions struct {
	K            int
	FileFilter   *retrieval.FileFilter
	FileBoosts   map[string]float64
	TargetedDocs *int
}

// Ask retrieves context for prompt and optionally generates an answer.
// Conversational state (history, rolling summary, anchor pins) lives
// with the caller; this facade accepts only the retrieval-relevant
// subset: k, file filter/boosts, targeted docs. answer is invoked with
// the retrieved context; a nil answer returns the assembled citations
// with an empty Content field.
func (v *Vault) Ask(ctx context.Context, prompt string, opts AskOptions, answer AnswerFn) (AskResult, error) {
	ctx, span := v.tracer.Start(ctx, "Vault.Ask")
	defer span.End()
	span.SetAttributes(attribute.String("prompt", prompt))

	// A file filter names the documents the question targets, so its
	// length doubles as targeted_docs when the caller didn't say
	// explicitly; a two-file filter should trigger the per-doc quota.
	targeted := opts.TargetedDocs
	if targeted == nil && opts.FileFilter != nil && len(opts.FileFilter.FileIDs) > 0 {
		n := len(opts.FileFilter.FileIDs)
		targeted = &n
	}

	citations, err := v.engine.Retrieve(ctx, retrieval.Options{
		Query:        prompt,
		RequestedK:   opts.K,
		Filter:       opts.FileFilter,
		FileBoosts:   opts.FileBoosts,
		TargetedDocs: targeted,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return AskResult{}, err
	}

	result := AskResult{
		Citations:      citations,
		RetrievalStats: RetrievalStats{CandidatesReturned: len(citations)},
	}
	if answer != nil {
		content, err := answer(ctx, prompt, citations)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return result, fmt.Errorf("vault: answer generation: %w", err)
		}
		result.Content = content
	}
	return result, nil
}

// Purge resets the vector index then recursively deletes uploads,
// chunks, transcripts, and vectorstore, recreating the directory
// structure. Idempotent; keystore/ is never touched.
func (v *Vault) Purge(ctx context.Context) error {
	ctx, span := v.tracer.Start(ctx, "Vault.Purge")
	defer span.End()

	if err := v.store.Reset(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("vault: resetting vector store: %w", err)
	}

	for _, dir := range []string{v.paths.Uploads, v.paths.Chunks, v.paths.Transcripts, v.paths.VectorStore} {
		if err := os.RemoveAll(dir); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("vault: purging %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("vault: recreating %s: %w", dir, err)
		}
	}
	if v.engine != nil {
		v.engine.InvalidateCache()
	}
	span.SetStatus(codes.Ok, "success")
	return nil
}

// manifestEntry is one row of export's manifest.json.
type manifestEntry struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Export writes a zip of uploads, chunks, transcripts, vectorstore, and
// privacy/consent.json plus a manifest.json to destPath. keystore/ is
// never included.
func (v *Vault) Export(ctx context.Context, destPath string) error {
	ctx, span := v.tracer.Start(ctx, "Vault.Export")
	defer span.End()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("vault: creating export archive %s: %w", destPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	defer zw.Close()

	var manifest []manifestEntry
	dirs := map[string]string{
		"uploads":     v.paths.Uploads,
		"chunks":      v.paths.Chunks,
		"transcripts": v.paths.Transcripts,
		"vectorstore": v.paths.VectorStore,
	}
	for archivePrefix, dir := range dirs {
		entries, err := addDirToZip(zw, dir, archivePrefix)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		manifest = append(manifest, entries...)
	}

	consentPath := filepath.Join(v.paths.Privacy, "consent.json")
	if entry, err := addFileToZip(zw, consentPath, "privacy/consent.json"); err == nil {
		manifest = append(manifest, entry)
	}

	manifestData, err := json.MarshalIndent(struct {
		GeneratedAt string          `json:"generated_at"`
		Entries     []manifestEntry `json:"entries"`
	}{GeneratedAt: time.Now().UTC().Format(time.RFC3339), Entries: manifest}, "", "  ")
	if err != nil {
		return fmt.Errorf("vault: marshaling export manifest: %w", err)
	}
	mw, err := zw.Create("manifest.json")
	if err != nil {
		return fmt.Errorf("vault: creating manifest entry: %w", err)
	}
	if _, err := mw.Write(manifestData); err != nil {
		return fmt.Errorf("vault: writing manifest entry: %w", err)
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}

func addDirToZip(zw *zip.Writer, dir, archivePrefix string) ([]manifestEntry, error) {
	var entries []manifestEntry
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return entries, nil
	}
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		archivePath := filepath.ToSlash(filepath.Join(archivePrefix, rel))
		entry, err := addFileToZip(zw, path, archivePath)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		return nil
	})
	return entries, err
}

func addFileToZip(zw *zip.Writer, path, archivePath string) (manifestEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return manifestEntry{}, err
	}
	w, err := zw.Create(archivePath)
	if err != nil {
		return manifestEntry{}, err
	}
	if _, err := w.Write(data); err != nil {
		return manifestEntry{}, err
	}
	return manifestEntry{Path: archivePath, Size: int64(len(data))}, nil
}
