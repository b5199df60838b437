package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragvault/internal/chunker"
	"github.com/fyrsmithlabs/ragvault/internal/chunkstore"
	"github.com/fyrsmithlabs/ragvault/internal/config"
	"github.com/fyrsmithlabs/ragvault/internal/extraction"
	"github.com/fyrsmithlabs/ragvault/internal/ids"
	"github.com/fyrsmithlabs/ragvault/internal/normalize"
	"github.com/fyrsmithlabs/ragvault/internal/vectorstore"
)

const instrumentationName = "github.com/fyrsmithlabs/ragvault/internal/ingest"

// jobQueueDepth bounds how many pending ingestions can queue before
// Ingest blocks the caller.
const jobQueueDepth = 64

type job struct {
	fileID   string
	path     string
	fileExt  string
	fileName string
	original string
	storage  string
}

// Orchestrator drives files through detect -> extract -> normalize ->
// chunk -> encrypt -> upsert. A bounded, GOMAXPROCS-sized worker pool
// drains a buffered job queue; Ingest enqueues and returns immediately
// with a file_id.
type Orchestrator struct {
	paths  config.Paths
	ingest config.IngestConfig
	chunk  chunker.Chunker

	audio   *extraction.AudioExtractor
	chunks  *chunkstore.Store
	store   vectorstore.Store
	cache   CacheInvalidator
	logger  *zap.Logger
	tracer  trace.Tracer

	statuses sync.Map // file_id -> Status
	jobs     chan job
	wg       sync.WaitGroup

	closeOnce sync.Once
	closed    chan struct{}
}

// New builds an Orchestrator and starts its worker pool. cache may be
// nil if no retrieval engine is wired up (e.g. in tests).
func New(paths config.Paths, ingestCfg config.IngestConfig, chunkCfg chunker.Config, audio *extraction.AudioExtractor, chunks *chunkstore.Store, store vectorstore.Store, cache CacheInvalidator, logger *zap.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := chunker.New(chunkCfg)
	if err != nil {
		return nil, fmt.Errorf("ingest: building chunker: %w", err)
	}
	if audio == nil {
		audio = extraction.NewAudioExtractor(nil, nil, 0)
	}

	o := &Orchestrator{
		paths:  paths,
		ingest: ingestCfg,
		chunk:  c,
		audio:  audio,
		chunks: chunks,
		store:  store,
		cache:  cache,
		logger: logger,
		tracer: otel.Tracer(instrumentationName),
		jobs:   make(chan job, jobQueueDepth),
		closed: make(chan struct{}),
	}

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		o.wg.Add(1)
		go o.worker()
	}
	return o, nil
}

// Ingest validates and persists the uploaded file, enqueues it for
// background processing, and returns its file_id immediately. data is
// read fully upfront so the configured size cap can be enforced before
// any bytes are written to disk.
func (o *Orchestrator) Ingest(ctx context.Context, filename string, data []byte) (string, error) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.Ingest")
	defer span.End()

	if filename == "" {
		return "", ErrEmptyFilename
	}

	maxBytes := int64(o.ingest.MaxFileSizeMB) * 1024 * 1024
	if int64(len(data)) > maxBytes {
		return "", ErrFileTooLarge
	}

	ext := extOf(filename)
	if !o.isSupportedExt(ext) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	fileID := ids.New()
	storageFilename := fileID + ext

	if err := os.MkdirAll(o.paths.Uploads, 0700); err != nil {
		return "", fmt.Errorf("ingest: creating uploads dir: %w", err)
	}
	path := filepath.Join(o.paths.Uploads, storageFilename)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("ingest: writing upload %s: %w", path, err)
	}

	meta := FileMeta{
		FileID:           fileID,
		OriginalFilename: filename,
		StorageFilename:  storageFilename,
		FileExtension:    ext,
		UploadTimestamp:  isoNow(),
		FileSize:         int64(len(data)),
	}
	if err := writeFileMeta(o.paths.Uploads, meta); err != nil {
		return "", err
	}

	o.setStatus(Status{FileID: fileID, Stage: StageReceived, Progress: 0})
	span.SetAttributes(attribute.String("file_id", fileID), attribute.String("file_ext", ext))

	select {
	case o.jobs <- job{fileID: fileID, path: path, fileExt: ext, fileName: filename, original: filename, storage: storageFilename}:
	case <-o.closed:
		return "", ErrOrchestratorClosed
	}

	return fileID, nil
}

// Status returns the current ingestion status for fileID.
func (o *Orchestrator) Status(fileID string) (Status, bool) {
	v, ok := o.statuses.Load(fileID)
	if !ok {
		return Status{}, false
	}
	return v.(Status), true
}

// Close stops accepting new jobs and waits for in-flight work to drain.
func (o *Orchestrator) Close() error {
	o.closeOnce.Do(func() {
		close(o.closed)
		close(o.jobs)
	})
	o.wg.Wait()
	return nil
}

func (o *Orchestrator) isSupportedExt(ext string) bool {
	for _, e := range o.ingest.SupportedTextFormats {
		if e == ext {
			return true
		}
	}
	for _, e := range o.ingest.SupportedAudioFormats {
		if e == ext {
			return true
		}
	}
	return false
}

func (o *Orchestrator) setStatus(s Status) {
	s.UpdatedAt = time.Now().UTC()
	o.statuses.Store(s.FileID, s)
}

func (o *Orchestrator) worker() {
	defer o.wg.Done()
	for j := range o.jobs {
		o.process(context.Background(), j)
	}
}

// process drives one file through extraction, normalization, chunking,
// embedding, and upserting. Any stage failure sets a terminal error
// status and does not roll back already-written blobs or index entries;
// ingestion is at-least-once and chunk ids never collide.
func (o *Orchestrator) process(ctx context.Context, j job) {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.process")
	defer span.End()
	span.SetAttributes(attribute.String("file_id", j.fileID))

	isAudio := false
	for _, e := range o.ingest.SupportedAudioFormats {
		if e == j.fileExt {
			isAudio = true
		}
	}

	var text string
	var err error
	if isAudio {
		o.setStatus(Status{FileID: j.fileID, Stage: StageTranscribing, Progress: 10})
		text, err = o.audio.Extract(ctx, j.path)
	} else {
		o.setStatus(Status{FileID: j.fileID, Stage: StageExtracting, Progress: 10})
		format, detErr := extraction.DetectFormat(j.path)
		if detErr != nil {
			o.fail(span, j.fileID, detErr)
			return
		}
		extractor, newErr := extraction.New(format)
		if newErr != nil {
			o.fail(span, j.fileID, newErr)
			return
		}
		text, err = extractor.Extract(ctx, j.path)
	}
	if err != nil {
		o.fail(span, j.fileID, err)
		return
	}

	o.setStatus(Status{FileID: j.fileID, Stage: StageChunking, Progress: 40})
	normalized := normalize.Text(text)
	chunks, err := o.chunk.Split(normalized)
	if err != nil {
		o.fail(span, j.fileID, err)
		return
	}

	docs := make([]vectorstore.Document, 0, len(chunks))
	normName := normalizedFilename(j.original)
	for _, c := range chunks {
		chunkID := ids.New()
		if err := o.chunks.Put(chunkID, c.Text); err != nil {
			o.fail(span, j.fileID, err)
			return
		}
		docs = append(docs, vectorstore.Document{
			ID:      chunkID,
			Content: c.Text,
			Metadata: map[string]interface{}{
				"chunk_id":            chunkID,
				"file_id":             j.fileID,
				"file_name":           j.fileName,
				"original_filename":   j.original,
				"normalized_filename": normName,
				"storage_filename":    j.storage,
				"file_ext":            j.fileExt,
				"start":               c.Start,
				"end":                 c.End,
				"extract_strategy":    extractStrategyFor(j.fileExt, isAudio),
			},
		})
	}

	o.setStatus(Status{FileID: j.fileID, Stage: StageEmbedding, Progress: 70})
	o.setStatus(Status{FileID: j.fileID, Stage: StageUpserting, Progress: 85})
	if len(docs) > 0 {
		if _, err := o.store.AddDocuments(ctx, docs); err != nil {
			o.fail(span, j.fileID, err)
			return
		}
	}

	o.setStatus(Status{FileID: j.fileID, Stage: StageComplete, Progress: 100})
	if o.cache != nil {
		o.cache.InvalidateAll()
	}
	span.SetStatus(codes.Ok, "success")
}

func (o *Orchestrator) fail(span trace.Span, fileID string, err error) {
	o.logger.Warn("ingest: stage failed", zap.String("file_id", fileID), zap.Error(err))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	o.setStatus(Status{FileID: fileID, Stage: StageError, Progress: 100, Error: truncateError(err)})
}

func extractStrategyFor(ext string, isAudio bool) string {
	switch {
	case isAudio:
		return "audio"
	case ext == ".md" || ext == ".markdown":
		return "markdown"
	case ext == ".pdf":
		return "pdf"
	case ext == ".docx":
		return "docx"
	default:
		return "plain"
	}
}
