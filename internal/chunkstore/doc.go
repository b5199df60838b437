// Package chunkstore persists one encrypted blob per chunk on disk,
// addressed by chunk_id, under <root>/<chunk_id>.enc. It exclusively owns
// encrypted blob data; the vector index (internal/vectorstore) exclusively
// owns vector records, and the two are joined only logically by sharing
// chunk_id as their key.
package chunkstore
