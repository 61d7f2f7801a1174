package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/docfold/vectorizer/internal/config"
	"github.com/docfold/vectorizer/internal/models"
)

const mongoBackendName = "mongodb"

// MongoStore is the exact-scan backend. Each chunk is one document in a
// collection with its embedding stored as a decimal array, and similarity
// search loads the whole (filtered) collection and computes cosine similarity
// in the caller. Correct for any corpus, O(n) per query; prefer the Redis
// backend when corpus size matters.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	dimensions int
	modelName  string
	logger     *zap.Logger
}

// mongoRecord is the persisted unit. The embedding is a []float64 array so it
// round-trips through BSON as plain numbers and can be re-materialized for
// scanning without a binary decode step.
type mongoRecord struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	DocumentName       string             `bson:"document_name"`
	Text               string             `bson:"text"`
	PageNumber         *int               `bson:"page_number"`
	ChunkIndex         int                `bson:"chunk_index"`
	Source             string             `bson:"source"`
	FileType           string             `bson:"file_type"`
	Embedding          []float64          `bson:"embedding"`
	EmbeddingModel     string             `bson:"embedding_model"`
	EmbeddingDimension int                `bson:"embedding_dimension"`
	CreatedAt          time.Time          `bson:"created_at"`
}

// NewMongoStore connects to MongoDB and returns the store. Connection or
// authentication failures surface as *ConnectionError; the caller must not
// proceed to any other operation after a failed construction.
func NewMongoStore(ctx context.Context, cfg config.MongoConfig, dimensions int, modelName string, logger *zap.Logger) (*MongoStore, error) {
	uri := buildMongoURI(cfg)
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, &ConnectionError{Backend: mongoBackendName, Err: err}
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		logger.Error("mongodb connection failed",
			zap.String("host", cfg.Host),
			zap.String("database", cfg.Database),
			zap.Error(err))
		return nil, &ConnectionError{Backend: mongoBackendName, Err: err}
	}

	s := &MongoStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		dimensions: dimensions,
		modelName:  modelName,
		logger:     logger,
	}
	logger.Info("mongodb vector store initialized",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection),
		zap.Int("dimensions", dimensions))
	return s, nil
}

// buildMongoURI assembles the connection URI. The "mongodb" scheme carries
// host:port and optional query params; "mongodb+srv" carries the host only,
// with port and params resolved through DNS.
func buildMongoURI(cfg config.MongoConfig) string {
	if cfg.Scheme == "mongodb+srv" {
		if cfg.Username != "" {
			return fmt.Sprintf("%s://%s:%s@%s", cfg.Scheme, cfg.Username, cfg.Password, cfg.Host)
		}
		return fmt.Sprintf("%s://%s", cfg.Scheme, cfg.Host)
	}
	if cfg.Username != "" {
		return fmt.Sprintf("%s://%s:%s@%s:%d/?%s", cfg.Scheme, cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.DirectParams)
	}
	return fmt.Sprintf("%s://%s:%d/?%s", cfg.Scheme, cfg.Host, cfg.Port, cfg.DirectParams)
}

// Name returns the backend identifier.
func (s *MongoStore) Name() string { return mongoBackendName }

// StoreEmbeddings inserts one record per chunk/embedding pair and returns the
// assigned ObjectID hex strings in input order.
func (s *MongoStore) StoreEmbeddings(ctx context.Context, chunks []*models.Chunk, embeddings [][]float32, documentName string) ([]string, error) {
	if err := validateStorePayload(chunks, embeddings, s.dimensions); err != nil {
		return nil, &OperationError{Backend: mongoBackendName, Op: "store_embeddings", Err: err}
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(chunks))
	for i, chunk := range chunks {
		docs[i] = mongoRecord{
			DocumentName:       documentName,
			Text:               chunk.Text,
			PageNumber:         chunk.PageNumber,
			ChunkIndex:         chunk.ChunkIndex,
			Source:             chunk.Source,
			FileType:           string(chunk.FileType),
			Embedding:          Float32sToFloat64s(embeddings[i]),
			EmbeddingModel:     s.modelName,
			EmbeddingDimension: len(embeddings[i]),
			CreatedAt:          now,
		}
	}

	res, err := s.collection.InsertMany(ctx, docs)
	if err != nil {
		return nil, &OperationError{Backend: mongoBackendName, Op: "store_embeddings", Err: err}
	}
	ids := make([]string, len(res.InsertedIDs))
	for i, id := range res.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok {
			ids[i] = oid.Hex()
		} else {
			ids[i] = fmt.Sprintf("%v", id)
		}
	}
	s.logger.Debug("stored embeddings",
		zap.String("document", documentName),
		zap.Int("records", len(ids)))
	return ids, nil
}

// SimilaritySearch scans every (optionally filtered) record, scores it with
// cosine similarity against the query, and returns the topK best.
func (s *MongoStore) SimilaritySearch(ctx context.Context, queryEmbedding []float32, topK int, fileTypeFilter models.FileType) ([]models.SearchResult, error) {
	if err := validateQuery(queryEmbedding, topK, s.dimensions); err != nil {
		return nil, err
	}

	filter := bson.M{}
	if fileTypeFilter != "" {
		filter["file_type"] = string(fileTypeFilter)
	}
	cur, err := s.collection.Find(ctx, filter)
	if err != nil {
		s.logger.Error("similarity search degraded: find failed", zap.Error(err))
		return nil, nil
	}
	var records []mongoRecord
	if err := cur.All(ctx, &records); err != nil {
		s.logger.Error("similarity search degraded: cursor decode failed", zap.Error(err))
		return nil, nil
	}
	if len(records) == 0 {
		return nil, nil
	}

	query := Float32sToFloat64s(queryEmbedding)
	results := make([]models.SearchResult, 0, len(records))
	for _, rec := range records {
		results = append(results, models.SearchResult{
			Text:            rec.Text,
			DocumentName:    rec.DocumentName,
			PageNumber:      rec.PageNumber,
			FileType:        models.FileType(rec.FileType),
			SimilarityScore: Cosine(query, rec.Embedding),
			ID:              rec.ID.Hex(),
		})
	}
	return rankTopK(results, topK), nil
}

// GetStatistics counts stored chunks overall and per file type. File types
// with zero chunks are omitted. Count failures are logged and absorbed.
func (s *MongoStore) GetStatistics(ctx context.Context) *models.Statistics {
	stats := &models.Statistics{ByFileType: make(map[models.FileType]int64)}

	total, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		s.logger.Error("statistics degraded: total count failed", zap.Error(err))
		return stats
	}
	stats.TotalChunks = total

	for _, ft := range models.KnownFileTypes() {
		count, err := s.collection.CountDocuments(ctx, bson.M{"file_type": string(ft)})
		if err != nil {
			s.logger.Error("statistics degraded: per-type count failed",
				zap.String("file_type", string(ft)), zap.Error(err))
			continue
		}
		if count > 0 {
			stats.ByFileType[ft] = count
		}
	}
	return stats
}

// Close releases the client session.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
