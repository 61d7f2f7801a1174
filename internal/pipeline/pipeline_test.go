package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/docfold/vectorizer/internal/embedding"
	"github.com/docfold/vectorizer/internal/models"
	"github.com/docfold/vectorizer/internal/store"
	"go.uber.org/zap"
)

// fakeStore records stored chunks in memory and answers searches by cosine.
type fakeStore struct {
	chunks     []*models.Chunk
	embeddings [][]float32
	docNames   []string
	closed     bool
}

func (f *fakeStore) StoreEmbeddings(ctx context.Context, chunks []*models.Chunk, embeddings [][]float32, documentName string) ([]string, error) {
	ids := make([]string, len(chunks))
	for i, ch := range chunks {
		f.chunks = append(f.chunks, ch)
		f.embeddings = append(f.embeddings, embeddings[i])
		f.docNames = append(f.docNames, documentName)
		ids[i] = documentName + ":" + string(rune('0'+ch.ChunkIndex))
	}
	return ids, nil
}

func (f *fakeStore) SimilaritySearch(ctx context.Context, queryEmbedding []float32, topK int, fileTypeFilter models.FileType) ([]models.SearchResult, error) {
	var results []models.SearchResult
	for i, ch := range f.chunks {
		if fileTypeFilter != "" && ch.FileType != fileTypeFilter {
			continue
		}
		results = append(results, models.SearchResult{
			Text:            ch.Text,
			DocumentName:    f.docNames[i],
			FileType:        ch.FileType,
			SimilarityScore: store.Cosine(toFloat64(queryEmbedding), toFloat64(f.embeddings[i])),
		})
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

func (f *fakeStore) GetStatistics(ctx context.Context) *models.Statistics {
	stats := &models.Statistics{
		TotalChunks: int64(len(f.chunks)),
		ByFileType:  map[models.FileType]int64{},
	}
	for _, ch := range f.chunks {
		stats.ByFileType[ch.FileType]++
	}
	return stats
}

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func testPipeline(t *testing.T) (*Pipeline, *fakeStore) {
	t.Helper()
	fs := &fakeStore{}
	return New(fs, embedding.NewMockEmbedder(8), zap.NewNop()), fs
}

func TestProcessDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	if err := os.WriteFile(path, []byte("First paragraph.\n\nSecond paragraph."), 0600); err != nil {
		t.Fatal(err)
	}

	p, fs := testPipeline(t)
	res, err := p.ProcessDocument(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if res.DocumentName != "report.txt" {
		t.Errorf("DocumentName=%q", res.DocumentName)
	}
	if res.FileType != models.FileTypeTXT {
		t.Errorf("FileType=%q", res.FileType)
	}
	if res.TotalChunks != 2 {
		t.Errorf("TotalChunks=%d, want 2", res.TotalChunks)
	}
	if res.EmbeddingDimension != 8 {
		t.Errorf("EmbeddingDimension=%d", res.EmbeddingDimension)
	}
	if res.Store != "fake" {
		t.Errorf("Store=%q", res.Store)
	}
	if len(res.InsertedIDs) != 2 {
		t.Errorf("InsertedIDs=%v", res.InsertedIDs)
	}
	if len(fs.chunks) != 2 {
		t.Fatalf("stored %d chunks, want 2", len(fs.chunks))
	}
	if fs.chunks[0].ChunkIndex != 0 || fs.chunks[1].ChunkIndex != 1 {
		t.Errorf("chunk indices %d, %d", fs.chunks[0].ChunkIndex, fs.chunks[1].ChunkIndex)
	}
}

func TestProcessDocument_SamplesInsertedIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "long.txt")
	content := "p1\n\np2\n\np3\n\np4\n\np5"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	p, _ := testPipeline(t)
	res, err := p.ProcessDocument(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if res.TotalChunks != 5 {
		t.Errorf("TotalChunks=%d, want 5", res.TotalChunks)
	}
	if len(res.InsertedIDs) != sampledIDCount {
		t.Errorf("len(InsertedIDs)=%d, want %d", len(res.InsertedIDs), sampledIDCount)
	}
}

func TestProcessDocument_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(path, []byte("   \n\n  "), 0600); err != nil {
		t.Fatal(err)
	}

	p, fs := testPipeline(t)
	if _, err := p.ProcessDocument(context.Background(), path); err == nil {
		t.Fatal("expected error for document with no extractable text")
	}
	if len(fs.chunks) != 0 {
		t.Error("empty document must not reach the store")
	}
}

func TestSearchAndStatistics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("alpha content here"), 0600); err != nil {
		t.Fatal(err)
	}

	p, _ := testPipeline(t)
	if _, err := p.ProcessDocument(context.Background(), path); err != nil {
		t.Fatal(err)
	}

	results, err := p.Search(context.Background(), "alpha content here", 5, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].SimilarityScore < 0.999 {
		t.Errorf("identical text should score ~1, got %f", results[0].SimilarityScore)
	}

	stats := p.Statistics(context.Background())
	if stats.TotalChunks != 1 {
		t.Errorf("TotalChunks=%d", stats.TotalChunks)
	}
	if stats.ByFileType[models.FileTypeTXT] != 1 {
		t.Errorf("ByFileType=%v", stats.ByFileType)
	}
}

func TestPipelineClose(t *testing.T) {
	p, fs := testPipeline(t)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !fs.closed {
		t.Error("store not closed")
	}
}

func TestDocumentsFromPath(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", "skip.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "c.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	flat, err := DocumentsFromPath(dir, []string{".txt"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(flat) != 2 {
		t.Fatalf("non-recursive: got %d paths %v, want 2", len(flat), flat)
	}
	if filepath.Base(flat[0]) != "a.txt" || filepath.Base(flat[1]) != "b.txt" {
		t.Errorf("paths not sorted: %v", flat)
	}

	deep, err := DocumentsFromPath(dir, []string{"txt"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(deep) != 3 {
		t.Errorf("recursive: got %d paths %v, want 3", len(deep), deep)
	}
}

func TestDocumentsFromPath_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := DocumentsFromPath(path, nil, false); err == nil {
		t.Error("expected error for non-directory path")
	}
}

func TestProcessDirectory_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "good.txt"), []byte("some text"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.txt"), []byte("  "), 0600); err != nil {
		t.Fatal(err)
	}

	p, _ := testPipeline(t)
	results, failed, err := p.ProcessDirectory(context.Background(), dir, []string{".txt"}, false)
	if err != nil {
		t.Fatalf("ProcessDirectory: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
	if failed != 1 {
		t.Errorf("failed=%d, want 1", failed)
	}
}
