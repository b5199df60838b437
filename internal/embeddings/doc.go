// Package embeddings provides the two interchangeable embedder
// implementations ragvault can build a corpus with.
//
// FastEmbedProvider loads a local ONNX dense model from a fixed,
// installer-provisioned cache directory and refuses to fetch anything over
// the network. StoreNativeProvider delegates embedding generation to the
// vector index itself at insert/query time.
//
// A corpus must commit to one implementation: the vector index's on-disk
// vectors are meaningless under the other model's embedding space, and
// querying a corpus embedded under one with the other is undefined
// (see vectorstore.Embedder).
package embeddings
