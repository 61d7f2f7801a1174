package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/docfold/vectorizer/internal/config"
	"github.com/docfold/vectorizer/internal/embedding"
	"github.com/docfold/vectorizer/internal/models"
	"github.com/docfold/vectorizer/internal/pipeline"
	"github.com/docfold/vectorizer/internal/server"
	"github.com/docfold/vectorizer/internal/store"
	"go.uber.org/zap"
)

const (
	e2eDimensions = 32
	e2eCorpusSize = 20
)

// memoryStore is an in-process VectorStore used to run the full ingest and
// search flow without external backends. Search is a brute-force cosine scan,
// mirroring the exact backend's semantics.
type memoryStore struct {
	chunks     []*models.Chunk
	embeddings [][]float32
	docNames   []string
}

func (m *memoryStore) StoreEmbeddings(ctx context.Context, chunks []*models.Chunk, embeddings [][]float32, documentName string) ([]string, error) {
	ids := make([]string, len(chunks))
	for i, ch := range chunks {
		m.chunks = append(m.chunks, ch)
		m.embeddings = append(m.embeddings, embeddings[i])
		m.docNames = append(m.docNames, documentName)
		ids[i] = documentName
	}
	return ids, nil
}

func (m *memoryStore) SimilaritySearch(ctx context.Context, queryEmbedding []float32, topK int, fileTypeFilter models.FileType) ([]models.SearchResult, error) {
	q := store.Float32sToFloat64s(queryEmbedding)
	var results []models.SearchResult
	for i, ch := range m.chunks {
		if fileTypeFilter != "" && ch.FileType != fileTypeFilter {
			continue
		}
		results = append(results, models.SearchResult{
			Text:            ch.Text,
			DocumentName:    m.docNames[i],
			PageNumber:      ch.PageNumber,
			FileType:        ch.FileType,
			SimilarityScore: store.Cosine(q, store.Float32sToFloat64s(m.embeddings[i])),
		})
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].SimilarityScore > results[b].SimilarityScore
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *memoryStore) GetStatistics(ctx context.Context) *models.Statistics {
	stats := &models.Statistics{TotalChunks: int64(len(m.chunks)), ByFileType: map[models.FileType]int64{}}
	for _, ch := range m.chunks {
		stats.ByFileType[ch.FileType]++
	}
	return stats
}

func (m *memoryStore) Name() string { return "memory" }
func (m *memoryStore) Close() error { return nil }

func writeCorpus(t *testing.T, dir string, corpus *Corpus) {
	t.Helper()
	for _, doc := range corpus.Documents {
		content := MinimalFile(doc.Ext, doc.Body)
		if err := os.WriteFile(filepath.Join(dir, doc.Name), content, 0600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestE2E_IngestAndSearchCorpus(t *testing.T) {
	dir := t.TempDir()
	corpus := BuildCorpus(e2eCorpusSize)
	writeCorpus(t, dir, corpus)

	ms := &memoryStore{}
	p := pipeline.New(ms, embedding.NewMockEmbedder(e2eDimensions), zap.NewNop())
	ctx := context.Background()

	results, failed, err := p.ProcessDirectory(ctx, dir, []string{".txt", ".docx"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if failed != 0 {
		t.Fatalf("%d documents failed to process", failed)
	}
	if len(results) != e2eCorpusSize {
		t.Fatalf("processed %d documents, want %d", len(results), e2eCorpusSize)
	}

	for _, tc := range corpus.Cases {
		hits, err := p.Search(ctx, tc.Query, 3, "")
		if err != nil {
			t.Fatalf("search %q: %v", tc.Query, err)
		}
		if len(hits) == 0 {
			t.Fatalf("search %q: no results", tc.Query)
		}
		if hits[0].DocumentName != tc.ExpectedDoc {
			t.Errorf("search %q: top result %s, want %s (score %f)",
				tc.Query, hits[0].DocumentName, tc.ExpectedDoc, hits[0].SimilarityScore)
		}
		if hits[0].SimilarityScore < 0.999 {
			t.Errorf("search %q: identical text should score ~1, got %f", tc.Query, hits[0].SimilarityScore)
		}
	}

	stats := p.Statistics(ctx)
	if stats.TotalChunks < int64(e2eCorpusSize) {
		t.Errorf("TotalChunks=%d, want >= %d", stats.TotalChunks, e2eCorpusSize)
	}
	if stats.ByFileType[models.FileTypeTXT] == 0 || stats.ByFileType[models.FileTypeDOCX] == 0 {
		t.Errorf("ByFileType=%v, want both txt and docx counted", stats.ByFileType)
	}
}

func TestE2E_FileTypeFilter(t *testing.T) {
	dir := t.TempDir()
	corpus := BuildCorpus(10)
	writeCorpus(t, dir, corpus)

	ms := &memoryStore{}
	p := pipeline.New(ms, embedding.NewMockEmbedder(e2eDimensions), zap.NewNop())
	ctx := context.Background()
	if _, _, err := p.ProcessDirectory(ctx, dir, nil, false); err != nil {
		t.Fatal(err)
	}

	hits, err := p.Search(ctx, "signature phrase", 100, models.FileTypeDOCX)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 {
		t.Fatal("expected docx results")
	}
	for _, h := range hits {
		if h.FileType != models.FileTypeDOCX {
			t.Errorf("filter leaked %s result: %s", h.FileType, h.DocumentName)
		}
	}
}

func TestE2E_HTTPAPI(t *testing.T) {
	dir := t.TempDir()
	corpus := BuildCorpus(4)
	writeCorpus(t, dir, corpus)

	ms := &memoryStore{}
	p := pipeline.New(ms, embedding.NewMockEmbedder(e2eDimensions), zap.NewNop())
	cfg := &config.Config{}
	cfg.Search.DefaultTopK = 5
	cfg.Search.MaxTopK = 100
	srv := server.NewServer(p, cfg, zap.NewNop())
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	for _, doc := range corpus.Documents {
		body, _ := json.Marshal(map[string]string{"path": filepath.Join(dir, doc.Name)})
		resp, err := http.Post(ts.URL+"/api/v1/documents", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("ingest %s: status %d", doc.Name, resp.StatusCode)
		}
	}

	query := corpus.Cases[0]
	body, _ := json.Marshal(map[string]string{"query": query.Query})
	resp, err := http.Post(ts.URL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: status %d", resp.StatusCode)
	}
	var out struct {
		Results []models.SearchResult `json:"results"`
		Count   int                   `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Count == 0 || out.Results[0].DocumentName != query.ExpectedDoc {
		t.Errorf("search via API: got %+v, want top result %s", out, query.ExpectedDoc)
	}

	statsResp, err := http.Get(ts.URL + "/api/v1/statistics")
	if err != nil {
		t.Fatal(err)
	}
	defer statsResp.Body.Close()
	var stats models.Statistics
	if err := json.NewDecoder(statsResp.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalChunks < 4 {
		t.Errorf("TotalChunks=%d", stats.TotalChunks)
	}
}
