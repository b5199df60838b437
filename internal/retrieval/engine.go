package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragvault/internal/chunkstore"
	"github.com/fyrsmithlabs/ragvault/internal/classifier"
	"github.com/fyrsmithlabs/ragvault/internal/config"
	"github.com/fyrsmithlabs/ragvault/internal/reranker"
	"github.com/fyrsmithlabs/ragvault/internal/vectorstore"
)

const instrumentationName = "github.com/fyrsmithlabs/ragvault/internal/retrieval"

// sectionBoostPerMatch and sectionBoostCap control section-term biasing
// for section/broad-summary/multi-doc queries.
const (
	sectionBoostPerMatch = 0.05
	sectionBoostCap      = 0.15
	overfetchFloor       = 32
)

// Engine runs the retrieval pipeline: embed, overfetch, filter/boost,
// quota, diversify, rerank, snippet assembly, with fallback and retry.
type Engine struct {
	store    vectorstore.Store
	embedder vectorstore.Embedder
	chunks   *chunkstore.Store
	rerank   reranker.Reranker
	cache    *QueryCache

	cfg    config.RetrievalConfig
	rcfg   config.RerankerConfig
	logger *zap.Logger
	tracer trace.Tracer
}

// New builds an Engine. cache may be nil, in which case queries are
// always embedded fresh (equivalent to ENABLE_MEMORY_CACHE=false).
func New(store vectorstore.Store, embedder vectorstore.Embedder, chunks *chunkstore.Store, rerank reranker.Reranker, cache *QueryCache, cfg config.RetrievalConfig, rcfg config.RerankerConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = NewQueryCache(time.Hour, false)
	}
	return &Engine{
		store:    store,
		embedder: embedder,
		chunks:   chunks,
		rerank:   rerank,
		cache:    cache,
		cfg:      cfg,
		rcfg:     rcfg,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
	}
}

// candidate is a search hit annotated through the pipeline.
type candidate struct {
	chunkID  string
	fileID   string
	fileName string
	fileExt  string
	start    int
	end      int
	score    float32
}

// Retrieve runs the full pipeline and returns citations ready to
// present or hand to an answer generator.
func (e *Engine) Retrieve(ctx context.Context, opts Options) ([]Citation, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.String("query", opts.Query))

	if opts.Query == "" {
		return nil, fmt.Errorf("retrieval: query must not be empty")
	}

	class := classifier.Classify(classifier.Input{
		Query:        opts.Query,
		TargetedDocs: opts.TargetedDocs,
	})
	span.SetAttributes(attribute.String("query_class", string(class.Class)))

	queryVec, err := e.embedQuery(ctx, opts.Query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("retrieval: embedding query: %w", err)
	}

	n, err := e.store.Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("retrieval: counting corpus: %w", err)
	}
	if n == 0 {
		return []Citation{}, nil
	}

	k := sizeK(class, opts.RequestedK, n)
	targetedDocs := 1
	if opts.TargetedDocs != nil && *opts.TargetedDocs > 1 {
		targetedDocs = *opts.TargetedDocs
	}
	quota := 0
	if targetedDocs > 1 {
		quota = maxInt(int(math.Ceil(float64(k)/float64(targetedDocs))), 2)
		k = minInt(k, quota*targetedDocs)
	}
	span.SetAttributes(attribute.Int("k", k))

	citations, err := e.runPipeline(ctx, queryVec, k, class, opts, opts.Filter, quota)
	if err != nil {
		return nil, err
	}

	// Global fallback: a non-empty filter that zeroed out the result set
	// is retried once without it rather than returned empty.
	if len(citations) == 0 && !opts.Filter.isEmpty() {
		e.logger.Info("retrieval: filter produced no results, retrying without filter",
			zap.String("query", opts.Query))
		citations, err = e.runPipeline(ctx, queryVec, maxInt(k, e.cfg.TopK), class, opts, nil, quota)
		if err != nil {
			return nil, err
		}
	}

	// Confidence-based retry: widen k once, adopt only a strictly larger
	// result set.
	if !opts.DisableRetry && needsRetry(citations) {
		retryK := minInt(int(math.Floor(float64(k)*1.5)), 32)
		e.logger.Debug("retrieval: low confidence result, retrying with widened k",
			zap.String("query", opts.Query), zap.Int("retry_k", retryK))
		retried, err := e.runPipeline(ctx, queryVec, retryK, class, opts, opts.Filter, quota)
		if err == nil && len(retried) > len(citations) {
			citations = retried
		}
	}

	if len(citations) > k {
		citations = citations[:k]
	}

	span.SetAttributes(attribute.Int("results_count", len(citations)))
	span.SetStatus(codes.Ok, "success")
	return citations, nil
}

// embedQuery honors the query-embedding TTL cache.
func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if vec, ok := e.cache.Get(query); ok {
		return vec, nil
	}
	vec, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	e.cache.Put(query, vec)
	return vec, nil
}

// InvalidateCache drops every cached query embedding. Called by
// Vault.Purge; the ingestion orchestrator invalidates the cache through
// its own CacheInvalidator after a successful upsert.
func (e *Engine) InvalidateCache() {
	e.cache.InvalidateAll()
}

// sizeK computes k from the query class and corpus size: k_base =
// clamp(round(2*sqrt(N)), 6, 24), then the per-class adjustment. An
// explicit requestedK overrides class sizing.
func sizeK(class classifier.Result, requestedK, n int) int {
	if requestedK > 0 {
		return minInt(clamp(requestedK, 6, 32), n)
	}

	kBase := clamp(int(math.Round(2*math.Sqrt(float64(n)))), 6, 24)
	adjust, ok := classKAdjust[class.Class]
	if !ok {
		adjust = classKAdjust[classifier.ClassDefault]
	}
	return minInt(adjust(kBase), n)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// runPipeline executes one retrieval pass: overfetch, filter/boost,
// confidence floor, per-doc quota, file diversification, MMR rerank, and
// snippet assembly. It's reused for the global-fallback and
// confidence-retry passes with different (k, filter) inputs.
func (e *Engine) runPipeline(ctx context.Context, queryVec []float32, k int, class classifier.Result, opts Options, filter *FileFilter, quota int) ([]Citation, error) {
	overfetchK := maxInt(k, overfetchFloor)
	hits, err := e.store.SearchByVector(ctx, queryVec, overfetchK, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieval: overfetch search: %w", err)
	}

	cands := e.filterAndBoost(hits, filter, opts.FileBoosts, class)
	cands = applyConfidenceFloor(cands, e.cfg.MinScore)

	if quota > 0 {
		cands = applyPerDocQuota(cands, quota)
	}

	limit := maxInt(k, e.cfg.TopK)
	cands = diversifyByFile(cands, limit)

	if e.rcfg.Enabled && e.rerank != nil {
		cands, err = e.rerankCandidates(ctx, cands)
		if err != nil {
			return nil, err
		}
	}

	citations := make([]Citation, 0, len(cands))
	for _, c := range cands {
		snippet, err := e.snippetFor(c.chunkID)
		if err != nil {
			e.logger.Warn("retrieval: snippet assembly failed, returning empty snippet",
				zap.String("chunk_id", c.chunkID), zap.Error(err))
			snippet = ""
		}
		citations = append(citations, Citation{
			ChunkID:  c.chunkID,
			FileID:   c.fileID,
			FileName: c.fileName,
			FileExt:  c.fileExt,
			Start:    c.start,
			End:      c.end,
			Score:    c.score,
			Snippet:  snippet,
		})
	}
	return citations, nil
}

// rerankCandidates applies the MMR diversity re-rank with the configured
// lambda, keeping the top RERANK_KEEP_TOPN candidates.
func (e *Engine) rerankCandidates(ctx context.Context, cands []candidate) ([]candidate, error) {
	docs := make([]reranker.Document, len(cands))
	for i, c := range cands {
		docs[i] = reranker.Document{ChunkID: c.chunkID, FileID: c.fileID, Score: c.score}
	}
	scored, err := e.rerank.Rerank(ctx, docs, e.cfg.MMRLambda, e.rcfg.KeepTopN)
	if err != nil {
		return nil, fmt.Errorf("retrieval: reranking: %w", err)
	}

	byChunk := make(map[string]candidate, len(cands))
	for _, c := range cands {
		byChunk[c.chunkID] = c
	}

	out := make([]candidate, 0, len(scored))
	for _, s := range scored {
		c, ok := byChunk[s.ChunkID]
		if !ok {
			continue
		}
		c.score = s.RerankerScore
		out = append(out, c)
	}
	return out, nil
}

// filterAndBoost drops chunks outside filter, applies per-file score
// boosts, and biases section/broad-summary/multi-doc queries toward
// files whose name echoes a matched section term.
func (e *Engine) filterAndBoost(hits []vectorstore.SearchResult, filter *FileFilter, boosts map[string]float64, class classifier.Result) []candidate {
	biasEligible := class.Class == classifier.ClassSectionSummary ||
		class.Class == classifier.ClassBroadSummary ||
		class.Class == classifier.ClassMultiDoc

	out := make([]candidate, 0, len(hits))
	for _, h := range hits {
		fileID, _ := h.Metadata["file_id"].(string)
		if !filter.allowsFile(fileID) || !filter.allowsChunk(h.ID) {
			continue
		}

		fileName, _ := h.Metadata["file_name"].(string)
		fileExt, _ := h.Metadata["file_ext"].(string)
		start := metaInt(h.Metadata, "start")
		end := metaInt(h.Metadata, "end")

		score := h.Score
		if boost, ok := boosts[fileID]; ok {
			score = float32(float64(score) * boost)
		}
		if biasEligible {
			score += sectionBias(fileName, class.MatchedSections)
		}

		out = append(out, candidate{
			chunkID:  h.ID,
			fileID:   fileID,
			fileName: fileName,
			fileExt:  fileExt,
			start:    start,
			end:      end,
			score:    score,
		})
	}
	return out
}

func sectionBias(fileName string, matched []string) float32 {
	if len(matched) == 0 || fileName == "" {
		return 0
	}
	lower := fileName
	count := 0
	for _, term := range matched {
		if containsFold(lower, term) {
			count++
		}
	}
	bonus := float32(count) * sectionBoostPerMatch
	if bonus > sectionBoostCap {
		bonus = sectionBoostCap
	}
	return bonus
}

func containsFold(s, substr string) bool {
	ls, lsub := toLower(s), toLower(substr)
	return indexOf(ls, lsub) >= 0
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func indexOf(s, substr string) int {
	n, m := len(s), len(substr)
	if m == 0 {
		return 0
	}
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == substr {
			return i
		}
	}
	return -1
}

// metaInt reads a numeric metadata value. The chromem store persists
// metadata as strings, so offsets come back as "123" on the real search
// path; in-memory doubles hand the original ints through.
func metaInt(meta map[string]interface{}, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// applyConfidenceFloor drops candidates scoring below minScore.
func applyConfidenceFloor(cands []candidate, minScore float64) []candidate {
	out := cands[:0:0]
	for _, c := range cands {
		if float64(c.score) >= minScore {
			out = append(out, c)
		}
	}
	return out
}

// applyPerDocQuota keeps at most quota chunks per file_id, highest
// score first.
func applyPerDocQuota(cands []candidate, quota int) []candidate {
	sorted := make([]candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].score > sorted[j].score })

	perFile := make(map[string]int, len(sorted))
	out := make([]candidate, 0, len(sorted))
	for _, c := range sorted {
		if perFile[c.fileID] >= quota {
			continue
		}
		perFile[c.fileID]++
		out = append(out, c)
	}
	return out
}

// diversifyByFile takes one candidate per distinct file_id in
// descending score order first, then the remaining candidates by score,
// capped at limit.
func diversifyByFile(cands []candidate, limit int) []candidate {
	sorted := make([]candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].score > sorted[j].score })

	seen := make(map[string]bool, len(sorted))
	var first, rest []candidate
	for _, c := range sorted {
		if !seen[c.fileID] {
			seen[c.fileID] = true
			first = append(first, c)
		} else {
			rest = append(rest, c)
		}
	}
	out := append(first, rest...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// snippetFor decrypts a chunk and returns a window of up to
// SNIPPET_WINDOW_CHARS characters on each side of its own midpoint,
// since the stored chunk text is already text[start:end] of the
// normalized document, so its own midpoint is the midpoint of [start,end]
// in document coordinates. cryptostore.ErrIntegrityFailure and
// chunkstore.ErrChunkNotFound both yield an empty snippet, not a hard
// failure of the overall request.
func (e *Engine) snippetFor(chunkID string) (string, error) {
	text, err := e.chunks.Get(chunkID)
	if err != nil {
		return "", err
	}
	return windowSnippet(text, e.cfg.SnippetWindowChars), nil
}

func windowSnippet(text string, halfWidth int) string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return ""
	}
	if halfWidth <= 0 || n <= 2*halfWidth {
		return text
	}

	mid := n / 2
	start := mid - halfWidth
	end := mid + halfWidth
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < n {
		snippet = snippet + "…"
	}
	return snippet
}

// needsRetry reports whether a result set is low-confidence: fewer than
// 3 results, every score below 0.3, or (with at least 3 results) every
// result drawn from a single file.
func needsRetry(citations []Citation) bool {
	if len(citations) < 3 {
		return true
	}
	allLow := true
	sameFile := true
	first := citations[0].FileID
	for _, c := range citations {
		if c.Score >= 0.3 {
			allLow = false
		}
		if c.FileID != first {
			sameFile = false
		}
	}
	return allLow || sameFile
}
