// Package store provides pluggable vector stores for chunk embeddings and
// similarity search over them.
package store

import (
	"context"
	"fmt"

	"github.com/docfold/vectorizer/internal/models"
)

// VectorStore is the contract every storage backend implements. A store owns
// one backend session for the lifetime of the process and is used by one
// caller sequentially; no operation is safe for concurrent invocation against
// the same store.
//
// Write operations (StoreEmbeddings) fail loudly with *OperationError.
// Read operations are resilient: an engine failure during SimilaritySearch or
// GetStatistics is logged and absorbed into empty/zeroed results rather than
// propagated, so interactive callers degrade instead of crashing.
type VectorStore interface {
	// StoreEmbeddings persists one record per chunk/embedding pair and returns
	// one backend-assigned identifier per record, in input order. chunks and
	// embeddings must be the same length and positionally aligned, and every
	// embedding must match the store's configured dimension; violations are
	// rejected with *OperationError before anything is written.
	StoreEmbeddings(ctx context.Context, chunks []*models.Chunk, embeddings [][]float32, documentName string) ([]string, error)

	// SimilaritySearch returns up to topK results ranked by similarity score
	// descending. fileTypeFilter restricts results to one file type; the zero
	// value means no filter. The returned error reports caller misuse only
	// (bad query dimension, topK < 1); backend query failures yield an empty
	// result set and a logged event, never an error.
	//
	// The MongoDB backend answers this with a full collection scan: cost is
	// proportional to the (filtered) corpus size in both time and memory.
	SimilaritySearch(ctx context.Context, queryEmbedding []float32, topK int, fileTypeFilter models.FileType) ([]models.SearchResult, error)

	// GetStatistics reports point-in-time corpus counts. Backend failures are
	// logged and absorbed into zeroed statistics.
	GetStatistics(ctx context.Context) *models.Statistics

	// Name returns the backend identifier ("mongodb" or "redis").
	Name() string

	// Close releases the backend session. No other operation may be called
	// afterward.
	Close() error
}

// validateStorePayload enforces the StoreEmbeddings preconditions shared by
// all backends. Must be called before any write is issued so a rejected call
// leaves the store unchanged.
func validateStorePayload(chunks []*models.Chunk, embeddings [][]float32, dimensions int) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to store")
	}
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunks and embeddings length mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	for i, emb := range embeddings {
		if len(emb) != dimensions {
			return fmt.Errorf("embedding %d: %w: got %d, expected %d", i, ErrDimensionMismatch, len(emb), dimensions)
		}
	}
	return nil
}

// validateQuery enforces the SimilaritySearch preconditions.
func validateQuery(queryEmbedding []float32, topK, dimensions int) error {
	if topK < 1 {
		return fmt.Errorf("top_k must be positive, got %d", topK)
	}
	if len(queryEmbedding) != dimensions {
		return fmt.Errorf("query %w: got %d, expected %d", ErrDimensionMismatch, len(queryEmbedding), dimensions)
	}
	return nil
}
