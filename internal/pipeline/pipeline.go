// Package pipeline orchestrates document processing: extraction, embedding,
// and storage, plus query-side search and statistics.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docfold/vectorizer/internal/embedding"
	"github.com/docfold/vectorizer/internal/extract"
	"github.com/docfold/vectorizer/internal/models"
	"github.com/docfold/vectorizer/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sampledIDCount limits how many backend record IDs an IngestResult carries.
const sampledIDCount = 3

// Pipeline wires the extractor, embedder, and vector store together.
type Pipeline struct {
	store     store.VectorStore
	embedder  embedding.Embedder
	extractor *extract.Extractor
	logger    *zap.Logger
}

// New creates a pipeline over the given store and embedder.
func New(s store.VectorStore, e embedding.Embedder, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		store:     s,
		embedder:  e,
		extractor: extract.NewExtractor(),
		logger:    logger,
	}
}

// ProcessDocument extracts, embeds, and stores one document. A document that
// yields no chunks (empty or whitespace-only content) is rejected without
// touching the store.
func (p *Pipeline) ProcessDocument(ctx context.Context, path string) (*models.IngestResult, error) {
	ingestID := uuid.New().String()
	docName := filepath.Base(path)
	p.logger.Info("processing document",
		zap.String("ingest_id", ingestID),
		zap.String("document", docName),
	)

	chunks, err := p.extractor.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", docName, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no text chunks extracted from %s", docName)
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	embeddings, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", docName, err)
	}

	ids, err := p.store.StoreEmbeddings(ctx, chunks, embeddings, docName)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", docName, err)
	}

	p.logger.Info("document stored",
		zap.String("ingest_id", ingestID),
		zap.String("document", docName),
		zap.Int("chunks", len(chunks)),
		zap.String("store", p.store.Name()),
	)

	sample := ids
	if len(sample) > sampledIDCount {
		sample = sample[:sampledIDCount]
	}
	return &models.IngestResult{
		DocumentName:       docName,
		FileType:           chunks[0].FileType,
		TotalChunks:        len(chunks),
		InsertedIDs:        sample,
		EmbeddingDimension: p.embedder.Dimensions(),
		Store:              p.store.Name(),
	}, nil
}

// ProcessDirectory processes every matching document under dir in sorted
// order. Per-document failures are logged and counted, not fatal; the walk
// itself failing is. Returns the results for successfully processed documents
// and the number of failures.
func (p *Pipeline) ProcessDirectory(ctx context.Context, dir string, extensions []string, recursive bool) ([]*models.IngestResult, int, error) {
	paths, err := DocumentsFromPath(dir, extensions, recursive)
	if err != nil {
		return nil, 0, err
	}
	var results []*models.IngestResult
	failed := 0
	for _, path := range paths {
		res, err := p.ProcessDocument(ctx, path)
		if err != nil {
			p.logger.Warn("document processing failed",
				zap.String("path", path),
				zap.Error(err),
			)
			failed++
			continue
		}
		results = append(results, res)
	}
	return results, failed, nil
}

// Search embeds the query and runs a similarity search against the store.
func (p *Pipeline) Search(ctx context.Context, query string, topK int, fileTypeFilter models.FileType) ([]models.SearchResult, error) {
	queryEmbedding, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return p.store.SimilaritySearch(ctx, queryEmbedding, topK, fileTypeFilter)
}

// Statistics reports the store's current corpus counts.
func (p *Pipeline) Statistics(ctx context.Context) *models.Statistics {
	return p.store.GetStatistics(ctx)
}

// Close releases the embedder and the store.
func (p *Pipeline) Close() error {
	var firstErr error
	if err := p.embedder.Close(); err != nil {
		firstErr = err
	}
	if err := p.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// DocumentsFromPath lists the regular files under dir whose extension is in
// extensions (case-insensitive, with or without leading dot), sorted by path.
// When recursive is false only dir's immediate entries are considered.
func DocumentsFromPath(dir string, extensions []string, recursive bool) ([]string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absDir)
	}
	var paths []string
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if !recursive && path != absDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !extensionAllowed(filepath.Ext(path), extensions) {
			return nil
		}
		// Resolve symlinks so only regular files are processed
		finfo, statErr := os.Stat(path)
		if statErr != nil {
			return nil
		}
		if !finfo.Mode().IsRegular() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
