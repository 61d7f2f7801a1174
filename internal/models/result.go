package models

// SearchResult is a single similarity search hit. Results are always ordered
// by SimilarityScore descending; ties keep scan/insertion order.
type SearchResult struct {
	Text         string   `json:"text"`
	DocumentName string   `json:"document_name"`
	PageNumber   *int     `json:"page_number,omitempty"`
	FileType     FileType `json:"file_type"`
	// SimilarityScore is cosine similarity in [-1, 1]; higher is more similar.
	// Both backends report this convention regardless of how their engine scores.
	SimilarityScore float64 `json:"similarity_score"`
	ID              string  `json:"id"`
}

// Statistics summarizes the stored corpus at a point in time.
// File types with zero stored chunks are omitted from ByFileType.
type Statistics struct {
	TotalChunks int64              `json:"total_chunks"`
	ByFileType  map[FileType]int64 `json:"by_file_type"`
}

// IngestResult summarizes one processed document.
type IngestResult struct {
	DocumentName string   `json:"document_name"`
	FileType     FileType `json:"file_type"`
	TotalChunks  int      `json:"total_chunks"`
	// InsertedIDs holds the first few backend-assigned record IDs (sample, not all).
	InsertedIDs        []string `json:"inserted_ids"`
	EmbeddingDimension int      `json:"embedding_dimension"`
	Store              string   `json:"store"`
}
