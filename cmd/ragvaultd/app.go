package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragvault/internal/chunker"
	"github.com/fyrsmithlabs/ragvault/internal/chunkstore"
	"github.com/fyrsmithlabs/ragvault/internal/config"
	"github.com/fyrsmithlabs/ragvault/internal/cryptostore"
	"github.com/fyrsmithlabs/ragvault/internal/embeddings"
	"github.com/fyrsmithlabs/ragvault/internal/extraction"
	"github.com/fyrsmithlabs/ragvault/internal/ingest"
	"github.com/fyrsmithlabs/ragvault/internal/reranker"
	"github.com/fyrsmithlabs/ragvault/internal/retrieval"
	"github.com/fyrsmithlabs/ragvault/internal/vault"
	"github.com/fyrsmithlabs/ragvault/internal/vectorstore"
)

// buildVault loads configuration and wires every core component into a
// Vault, leaves first: keystore -> chunk store -> embedder -> vector
// store -> chunker -> orchestrator -> retrieval engine -> vault facade.
func buildVault(logger *zap.Logger) (*vault.Vault, func() error, error) {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validating config: %w", err)
	}
	paths := cfg.Paths()

	ks := cryptostore.NewKeystore(cfg.Keystore.Path, logger)
	cipher, err := ks.Cipher()
	if err != nil {
		return nil, nil, fmt.Errorf("loading keystore: %w", err)
	}
	chunks := chunkstore.New(paths.Chunks, cipher, logger)

	embedder, err := embeddings.NewProvider(embeddings.ProviderConfig{
		Provider: cfg.Embeddings.Provider,
		Model:    cfg.Embeddings.Model,
		BaseURL:  cfg.Embeddings.BaseURL,
		CacheDir: cfg.Embeddings.CacheDir,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("building embedding provider: %w", err)
	}

	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
		Path:              cfg.VectorStore.Path,
		Compress:          cfg.VectorStore.Compress,
		DefaultCollection: cfg.VectorStore.DefaultCollection,
		VectorSize:        cfg.VectorStore.VectorSize,
	}, embedder, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening vector store: %w", err)
	}

	chunkCfg := chunker.Config{
		Strategy:      chunker.StrategyTokenWindow,
		TargetTokens:  cfg.Chunking.TargetTokens,
		MinTokens:     cfg.Chunking.MinTokens,
		OverlapTokens: cfg.Chunking.OverlapTokens,
	}

	// No real speech-to-text backend is wired: audio files are accepted
	// and duration-capped but fail at the NullTranscriber stub.
	audio := extraction.NewAudioExtractor(nil, nil, time.Duration(cfg.Ingest.MaxAudioDurationMinutes)*time.Minute)

	cacheTTL := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	cache := retrieval.NewQueryCache(cacheTTL, cfg.Cache.Enabled)

	orch, err := ingest.New(paths, cfg.Ingest, chunkCfg, audio, chunks, store, cache, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("building orchestrator: %w", err)
	}

	engine := retrieval.New(store, embedder, chunks, reranker.NewMMRReranker(), cache, cfg.Retrieval, cfg.Reranker, logger)

	v := vault.New(paths, orch, engine, store, logger)
	closeFn := func() error {
		if err := orch.Close(); err != nil {
			return err
		}
		return store.Close()
	}
	return v, closeFn, nil
}
