package store

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/docfold/vectorizer/internal/config"
	"github.com/docfold/vectorizer/internal/models"
)

const redisBackendName = "redis"

// noPageSentinel encodes an absent page number in the hash schema, which has
// no optional-numeric concept. It exists only at this serialization boundary;
// everywhere else absence is a nil *int.
const noPageSentinel = -1

// RedisStore is the ANN backend. Chunks are hash records under a
// deterministic key pattern and nearest-neighbor ranking is delegated to a
// RediSearch FLAT vector index with cosine distance. The engine's distance
// score is converted to the contract's similarity convention on the way out.
type RedisStore struct {
	client     *redis.Client
	indexName  string
	keyPrefix  string
	dimensions int
	modelName  string
	logger     *zap.Logger
}

// NewRedisStore connects to Redis, ensures the search index exists, and
// returns the store. Connection failures and index bootstrap failures surface
// as *ConnectionError.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig, dimensions int, modelName string, logger *zap.Logger) (*RedisStore, error) {
	opts := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		DB:       cfg.DB,
		Password: cfg.Password,
	}
	if cfg.TLS.Enabled {
		tlsConfig, err := buildTLSConfig(cfg.TLS)
		if err != nil {
			return nil, &ConnectionError{Backend: redisBackendName, Err: err}
		}
		opts.TLSConfig = tlsConfig
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Error("redis connection failed",
			zap.String("addr", opts.Addr),
			zap.Int("db", cfg.DB),
			zap.Error(err))
		return nil, &ConnectionError{Backend: redisBackendName, Err: err}
	}

	s := &RedisStore{
		client:     client,
		indexName:  cfg.IndexName,
		keyPrefix:  cfg.KeyPrefix,
		dimensions: dimensions,
		modelName:  modelName,
		logger:     logger,
	}
	if err := s.ensureIndex(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	logger.Info("redis vector store initialized",
		zap.String("addr", opts.Addr),
		zap.Int("db", cfg.DB),
		zap.String("index", cfg.IndexName),
		zap.Int("dimensions", dimensions))
	return s, nil
}

// buildTLSConfig loads the optional client certificate and CA bundle.
func buildTLSConfig(cfg config.TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	if cfg.CAFile != "" {
		caPEM, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("no certificates parsed from %s", cfg.CAFile)
		}
		tlsConfig.RootCAs = pool
	}
	return tlsConfig, nil
}

// ensureIndex probes for the search index by name and creates it when the
// probe reports it does not exist. A probe failure that is not "unknown
// index" (e.g. a transport error) is a connection error, never an excuse to
// issue a conflicting create.
func (s *RedisStore) ensureIndex(ctx context.Context) error {
	_, err := s.client.FTInfo(ctx, s.indexName).Result()
	if err == nil {
		s.logger.Debug("search index already exists", zap.String("index", s.indexName))
		return nil
	}
	if !isUnknownIndexErr(err) {
		return &ConnectionError{Backend: redisBackendName, Err: fmt.Errorf("index probe failed: %w", err)}
	}

	createErr := s.client.FTCreate(ctx, s.indexName,
		&redis.FTCreateOptions{
			OnHash: true,
			Prefix: []interface{}{s.keyPrefix},
		},
		&redis.FieldSchema{FieldName: "document_name", FieldType: redis.SearchFieldTypeText},
		&redis.FieldSchema{FieldName: "text", FieldType: redis.SearchFieldTypeText},
		&redis.FieldSchema{FieldName: "page_number", FieldType: redis.SearchFieldTypeNumeric},
		&redis.FieldSchema{FieldName: "chunk_index", FieldType: redis.SearchFieldTypeNumeric},
		&redis.FieldSchema{FieldName: "source", FieldType: redis.SearchFieldTypeText},
		&redis.FieldSchema{FieldName: "file_type", FieldType: redis.SearchFieldTypeTag},
		&redis.FieldSchema{FieldName: "embedding_model", FieldType: redis.SearchFieldTypeText},
		&redis.FieldSchema{FieldName: "embedding_dimension", FieldType: redis.SearchFieldTypeNumeric},
		&redis.FieldSchema{FieldName: "created_at", FieldType: redis.SearchFieldTypeText},
		&redis.FieldSchema{
			FieldName: "embedding",
			FieldType: redis.SearchFieldTypeVector,
			VectorArgs: &redis.FTVectorArgs{
				FlatOptions: &redis.FTFlatOptions{
					Type:           "FLOAT32",
					Dim:            s.dimensions,
					DistanceMetric: "COSINE",
				},
			},
		},
	).Err()
	if createErr != nil {
		return &ConnectionError{Backend: redisBackendName, Err: fmt.Errorf("create index: %w", createErr)}
	}
	s.logger.Info("created search index",
		zap.String("index", s.indexName),
		zap.String("prefix", s.keyPrefix))
	return nil
}

// isUnknownIndexErr reports whether err is the engine's "index does not
// exist" reply (message wording varies across RediSearch versions).
func isUnknownIndexErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown index") || strings.Contains(msg, "no such index")
}

// recordKey builds the hash key for one stored record. The positional offset
// keeps keys unique even if a batch repeats a chunk index.
func recordKey(prefix, documentName string, chunkIndex, offset int) string {
	return fmt.Sprintf("%s%s:%d:%d", prefix, documentName, chunkIndex, offset)
}

// encodePageNumber maps nil to the schema sentinel.
func encodePageNumber(p *int) int {
	if p == nil {
		return noPageSentinel
	}
	return *p
}

// decodePageNumber maps the schema sentinel back to nil.
func decodePageNumber(v int) *int {
	if v == noPageSentinel {
		return nil
	}
	return &v
}

// knnQuery builds the vector search query string: an optional tag filter on
// file_type combined with a KNN clause against the embedding field, with the
// engine distance aliased as "score".
func knnQuery(fileTypeFilter models.FileType, topK int) string {
	base := "*"
	if fileTypeFilter != "" {
		base = fmt.Sprintf("(@file_type:{%s})", fileTypeFilter)
	}
	return fmt.Sprintf("%s=>[KNN %d @embedding $vec AS score]", base, topK)
}

// Name returns the backend identifier.
func (s *RedisStore) Name() string { return redisBackendName }

// StoreEmbeddings writes one hash record per chunk/embedding pair and returns
// the record keys in input order. The embedding travels as raw little-endian
// float32 bytes for the index to consume natively.
func (s *RedisStore) StoreEmbeddings(ctx context.Context, chunks []*models.Chunk, embeddings [][]float32, documentName string) ([]string, error) {
	if err := validateStorePayload(chunks, embeddings, s.dimensions); err != nil {
		return nil, &OperationError{Backend: redisBackendName, Op: "store_embeddings", Err: err}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	ids := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		key := recordKey(s.keyPrefix, documentName, chunk.ChunkIndex, i)
		fields := map[string]interface{}{
			"document_name":       documentName,
			"text":                chunk.Text,
			"page_number":         encodePageNumber(chunk.PageNumber),
			"chunk_index":         chunk.ChunkIndex,
			"source":              chunk.Source,
			"file_type":           string(chunk.FileType),
			"embedding_model":     s.modelName,
			"embedding_dimension": len(embeddings[i]),
			"created_at":          now,
			"embedding":           Float32sToBytes(embeddings[i]),
		}
		if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
			return nil, &OperationError{Backend: redisBackendName, Op: "store_embeddings", Err: fmt.Errorf("hset %s: %w", key, err)}
		}
		ids = append(ids, key)
	}
	s.logger.Debug("stored embeddings",
		zap.String("document", documentName),
		zap.Int("records", len(ids)))
	return ids, nil
}

// SimilaritySearch runs a KNN query against the vector index and converts the
// engine's ascending distance ranking to descending similarity.
func (s *RedisStore) SimilaritySearch(ctx context.Context, queryEmbedding []float32, topK int, fileTypeFilter models.FileType) ([]models.SearchResult, error) {
	if err := validateQuery(queryEmbedding, topK, s.dimensions); err != nil {
		return nil, err
	}

	res, err := s.client.FTSearchWithArgs(ctx, s.indexName,
		knnQuery(fileTypeFilter, topK),
		&redis.FTSearchOptions{
			Return: []redis.FTSearchReturn{
				{FieldName: "document_name"},
				{FieldName: "text"},
				{FieldName: "page_number"},
				{FieldName: "file_type"},
				{FieldName: "score"},
			},
			SortBy:         []redis.FTSearchSortBy{{FieldName: "score", Asc: true}},
			LimitOffset:    0,
			Limit:          topK,
			DialectVersion: 2,
			Params:         map[string]interface{}{"vec": Float32sToBytes(queryEmbedding)},
		},
	).Result()
	if err != nil {
		s.logger.Error("similarity search degraded: query failed",
			zap.String("index", s.indexName), zap.Error(err))
		return nil, nil
	}

	results := make([]models.SearchResult, 0, len(res.Docs))
	for _, doc := range res.Docs {
		r, perr := parseSearchDoc(doc.ID, doc.Fields)
		if perr != nil {
			s.logger.Warn("skipping malformed search hit",
				zap.String("key", doc.ID), zap.Error(perr))
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

// parseSearchDoc converts one engine hit into a SearchResult.
func parseSearchDoc(id string, fields map[string]string) (models.SearchResult, error) {
	distance, err := strconv.ParseFloat(fields["score"], 64)
	if err != nil {
		return models.SearchResult{}, fmt.Errorf("parse score %q: %w", fields["score"], err)
	}
	page := noPageSentinel
	if raw, ok := fields["page_number"]; ok {
		page, err = strconv.Atoi(raw)
		if err != nil {
			return models.SearchResult{}, fmt.Errorf("parse page_number %q: %w", raw, err)
		}
	}
	return models.SearchResult{
		Text:            fields["text"],
		DocumentName:    fields["document_name"],
		PageNumber:      decodePageNumber(page),
		FileType:        models.FileType(fields["file_type"]),
		SimilarityScore: distanceToSimilarity(distance),
		ID:              id,
	}, nil
}

// GetStatistics reads the total from the index metadata and per-type counts
// from content-free tag queries. Failures are logged and absorbed.
func (s *RedisStore) GetStatistics(ctx context.Context) *models.Statistics {
	stats := &models.Statistics{ByFileType: make(map[models.FileType]int64)}

	info, err := s.client.FTInfo(ctx, s.indexName).Result()
	if err != nil {
		s.logger.Error("statistics degraded: index info failed",
			zap.String("index", s.indexName), zap.Error(err))
		return stats
	}
	stats.TotalChunks = int64(info.NumDocs)

	for _, ft := range models.KnownFileTypes() {
		res, err := s.client.FTSearchWithArgs(ctx, s.indexName,
			fmt.Sprintf("@file_type:{%s}", ft),
			&redis.FTSearchOptions{NoContent: true},
		).Result()
		if err != nil {
			s.logger.Error("statistics degraded: per-type count failed",
				zap.String("file_type", string(ft)), zap.Error(err))
			continue
		}
		if res.Total > 0 {
			stats.ByFileType[ft] = int64(res.Total)
		}
	}
	return stats
}

// Close releases the client session.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
