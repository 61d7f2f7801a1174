package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/docfold/vectorizer/internal/config"
)

// Backend identifies a vector store backend. The set is closed; selection
// happens once at startup and is never re-checked per call.
type Backend string

const (
	// BackendMongo stores chunks in a MongoDB collection and answers searches
	// with an exact full-collection cosine scan.
	BackendMongo Backend = "mongodb"
	// BackendRedis stores chunks as Redis hashes and delegates nearest-neighbor
	// ranking to a RediSearch vector index.
	BackendRedis Backend = "redis"
)

// New resolves the configured backend and connects it. The embedding
// dimension and model name come from the embedding config so every backend
// records the same derived metadata.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (VectorStore, error) {
	switch Backend(cfg.Store.Backend) {
	case BackendMongo:
		return NewMongoStore(ctx, cfg.Mongo, cfg.Embedding.Dimensions, cfg.Embedding.ModelName, logger)
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis, cfg.Embedding.Dimensions, cfg.Embedding.ModelName, logger)
	default:
		return nil, fmt.Errorf("unsupported store backend: %q (supported: mongodb, redis)", cfg.Store.Backend)
	}
}
