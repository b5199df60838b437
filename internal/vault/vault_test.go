package vault

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fyrsmithlabs/ragvault/internal/chunker"
	"github.com/fyrsmithlabs/ragvault/internal/chunkstore"
	"github.com/fyrsmithlabs/ragvault/internal/config"
	"github.com/fyrsmithlabs/ragvault/internal/cryptostore"
	"github.com/fyrsmithlabs/ragvault/internal/ingest"
	"github.com/fyrsmithlabs/ragvault/internal/reranker"
	"github.com/fyrsmithlabs/ragvault/internal/retrieval"
	"github.com/fyrsmithlabs/ragvault/internal/vectorstore"
)

// fakeStore is a minimal vectorstore.Store double: it stores documents
// in memory and serves SearchByVector by returning everything it holds,
// letting the retrieval engine's own scoring/ranking logic do the real
// work.
type fakeStore struct {
	docs []vectorstore.Document
}

func (f *fakeStore) AddDocuments(ctx context.Context, docs []vectorstore.Document) ([]string, error) {
	ids := make([]string, len(docs))
	for i, d := range docs {
		f.docs = append(f.docs, d)
		ids[i] = d.ID
	}
	return ids, nil
}
func (f *fakeStore) Search(ctx context.Context, query string, k int) ([]vectorstore.SearchResult, error) {
	return nil, nil
}
func (f *fakeStore) SearchByVector(ctx context.Context, embedding []float32, k int, filters map[string]interface{}) ([]vectorstore.SearchResult, error) {
	out := make([]vectorstore.SearchResult, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, vectorstore.SearchResult{ID: d.ID, Content: d.Content, Score: 0.9, Metadata: d.Metadata})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}
func (f *fakeStore) Count(ctx context.Context) (int, error) { return len(f.docs), nil }
func (f *fakeStore) Reset(ctx context.Context) error        { f.docs = nil; return nil }
func (f *fakeStore) Warmup(ctx context.Context) error       { return nil }
func (f *fakeStore) Close() error                           { return nil }

var _ vectorstore.Store = (*fakeStore)(nil)

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}
func (fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func newTestVault(t *testing.T) (*Vault, *fakeStore) {
	t.Helper()
	dir := t.TempDir()
	paths := config.Paths{
		Uploads:     filepath.Join(dir, "uploads"),
		Chunks:      filepath.Join(dir, "chunks"),
		Transcripts: filepath.Join(dir, "transcripts"),
		VectorStore: filepath.Join(dir, "vectorstore"),
		Keystore:    filepath.Join(dir, "keystore"),
		Privacy:     filepath.Join(dir, "privacy"),
	}

	ks := cryptostore.NewKeystore(filepath.Join(paths.Keystore, "enc_key.bin"), zaptest.NewLogger(t))
	cipher, err := ks.Cipher()
	require.NoError(t, err)
	cs := chunkstore.New(paths.Chunks, cipher, zaptest.NewLogger(t))

	store := &fakeStore{}
	ingestCfg := config.IngestConfig{
		MaxFileSizeMB:           10,
		MaxAudioDurationMinutes: 60,
		SupportedTextFormats:    []string{".txt"},
		SupportedAudioFormats:   []string{".mp3"},
	}
	chunkCfg := chunker.Config{Strategy: chunker.StrategyTokenWindow, TargetTokens: 50, MinTokens: 5, OverlapTokens: 5}

	orch, err := ingest.New(paths, ingestCfg, chunkCfg, nil, cs, store, nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	retrievalCfg := config.RetrievalConfig{TopK: 12, MinScore: 0.1, MMRLambda: 0.5, SnippetWindowChars: 80, MaxContextChars: 4000}
	rerankCfg := config.RerankerConfig{Enabled: true, KeepTopN: 6}
	engine := retrieval.New(store, fakeEmbedder{}, cs, reranker.NewMMRReranker(), retrieval.NewQueryCache(time.Minute, false), retrievalCfg, rerankCfg, zaptest.NewLogger(t))

	v := New(paths, orch, engine, store, zaptest.NewLogger(t))
	return v, store
}

func waitComplete(t *testing.T, v *Vault, fileID string) ingest.Status {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st, ok := v.Status(fileID)
		if ok && (st.Stage == ingest.StageComplete || st.Stage == ingest.StageError) {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("ingestion never reached a terminal state")
	return ingest.Status{}
}

func TestVaultIngestAndSearchRoundTrip(t *testing.T) {
	v, _ := newTestVault(t)

	fileID, err := v.Ingest(context.Background(), "alice.txt", "text/plain", []byte("Alice was born in 1970 in Paris and lived there most of her life among friends."))
	require.NoError(t, err)
	st := waitComplete(t, v, fileID)
	require.Equal(t, ingest.StageComplete, st.Stage)

	citations, err := v.Search(context.Background(), "Where was Alice born", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, citations)
}

func TestVaultAskInvokesAnswerFnWithCitations(t *testing.T) {
	v, _ := newTestVault(t)

	fileID, err := v.Ingest(context.Background(), "alice.txt", "text/plain", []byte("Alice was born in 1970 in Paris and lived there most of her life among friends."))
	require.NoError(t, err)
	waitComplete(t, v, fileID)

	var gotCitations []retrieval.Citation
	result, err := v.Ask(context.Background(), "Where was Alice born", AskOptions{}, func(ctx context.Context, prompt string, citations []retrieval.Citation) (string, error) {
		gotCitations = citations
		return "Paris", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Paris", result.Content)
	assert.Equal(t, gotCitations, result.Citations)
}

func TestVaultAskWithoutAnswerFnReturnsCitationsOnly(t *testing.T) {
	v, _ := newTestVault(t)
	fileID, err := v.Ingest(context.Background(), "alice.txt", "text/plain", []byte("Alice was born in 1970 in Paris and lived there most of her life among friends."))
	require.NoError(t, err)
	waitComplete(t, v, fileID)

	result, err := v.Ask(context.Background(), "Where was Alice born", AskOptions{}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Content)
	assert.NotEmpty(t, result.Citations)
}

// A multi-file filter implies the question targets those documents, so
// Ask derives targeted_docs from it and the per-doc quota keeps one file
// from crowding out the other.
func TestVaultAskDerivesTargetedDocsFromFileFilter(t *testing.T) {
	v, _ := newTestVault(t)

	long := strings.Repeat("alpha report content with plenty of words to span several chunks ", 20)
	fileA, err := v.Ingest(context.Background(), "alpha.txt", "text/plain", []byte(long))
	require.NoError(t, err)
	waitComplete(t, v, fileA)

	fileB, err := v.Ingest(context.Background(), "beta.txt", "text/plain", []byte("beta report content, short and single-chunked for contrast."))
	require.NoError(t, err)
	waitComplete(t, v, fileB)

	result, err := v.Ask(context.Background(), "compare the alpha and beta reports", AskOptions{
		FileFilter: &retrieval.FileFilter{FileIDs: []string{fileA, fileB}},
	}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Citations)

	perFile := map[string]int{}
	for _, c := range result.Citations {
		perFile[c.FileID]++
	}
	// Five of the six indexed chunks belong to fileA; with a derived
	// targeted_docs of 2 the quota holds it to ceil(k/2) = 3.
	assert.LessOrEqual(t, perFile[fileA], 3)
	assert.GreaterOrEqual(t, perFile[fileB], 1)
}

func TestVaultPurgeClearsStoreAndDirectories(t *testing.T) {
	v, store := newTestVault(t)
	fileID, err := v.Ingest(context.Background(), "alice.txt", "text/plain", []byte("Alice was born in 1970 in Paris and lived there most of her life among friends."))
	require.NoError(t, err)
	waitComplete(t, v, fileID)
	require.NotEmpty(t, store.docs)

	require.NoError(t, v.Purge(context.Background()))
	assert.Empty(t, store.docs)

	_, err = os.Stat(v.paths.Uploads)
	assert.NoError(t, err, "purge recreates the uploads directory")
	entries, err := os.ReadDir(v.paths.Uploads)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestVaultExportExcludesKeystore(t *testing.T) {
	v, _ := newTestVault(t)
	fileID, err := v.Ingest(context.Background(), "alice.txt", "text/plain", []byte("Alice was born in 1970 in Paris and lived there most of her life among friends."))
	require.NoError(t, err)
	waitComplete(t, v, fileID)

	destPath := filepath.Join(t.TempDir(), "export.zip")
	require.NoError(t, v.Export(context.Background(), destPath))

	info, err := os.Stat(destPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	zr, err := zip.OpenReader(destPath)
	require.NoError(t, err)
	defer zr.Close()

	foundManifest := false
	for _, f := range zr.File {
		assert.NotContains(t, f.Name, "keystore/", "export archive must never include keystore/")
		if f.Name == "manifest.json" {
			foundManifest = true
		}
	}
	assert.True(t, foundManifest)
}
