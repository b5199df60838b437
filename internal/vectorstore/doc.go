// Package vectorstore provides the persistent approximate-nearest-neighbor
// index used by ragvault's ingestion and retrieval engines.
//
// The package exposes a single Store interface so the ingestion orchestrator
// and the retrieval engine can share one embedded index without depending on
// a concrete backend. The only implementation is ChromemStore, backed by
// philippgille/chromem-go, a pure-Go embedded vector database with on-disk
// persistence and no external service dependency - a good fit for a
// single-process, single-user desktop assistant.
//
// # Usage
//
//	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
//	    Path:              "~/.local/share/ragvault/vectorstore",
//	    DefaultCollection: "ragvault_chunks",
//	    VectorSize:        384,
//	}, embedder, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	ids, err := store.AddDocuments(ctx, []vectorstore.Document{{
//	    ID:      chunkID,
//	    Content: chunkText,
//	    Metadata: map[string]interface{}{"file_id": fileID},
//	}})
//
//	results, err := store.Search(ctx, "where was alice born?", 12)
//
// # Consistency
//
// There is exactly one writer per process: the ingestion orchestrator. The
// retrieval engine only reads. Readers may observe a chunk whose vector
// record has not yet landed, or a vector record whose encrypted blob has
// not yet been flushed; the latter surfaces as an empty snippet rather than
// an error, never as a crash.
package vectorstore
