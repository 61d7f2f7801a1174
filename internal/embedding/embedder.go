// Package embedding provides text embedding via ONNX and caching.
package embedding

import "context"

// Embedder produces fixed-dimension vector embeddings for text. Dimensions
// must match the vector store's configured dimension; the wiring refuses to
// start otherwise.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	// ModelName identifies the embedding model; it is recorded on every
	// stored record.
	ModelName() string
	Close() error
}
