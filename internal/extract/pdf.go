package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/docfold/vectorizer/internal/models"
)

// extractPDF extracts one chunk per paragraph, page by page. Page numbers are
// 1-based; chunk indices run continuously across the whole document.
func extractPDF(content []byte, source string) ([]*models.Chunk, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	var chunks []*models.Chunk
	chunkIndex := 0
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		pageNum := i
		for _, paragraph := range splitParagraphs(text) {
			chunks = append(chunks, &models.Chunk{
				Text:       paragraph,
				PageNumber: &pageNum,
				ChunkIndex: chunkIndex,
				Source:     source,
				FileType:   models.FileTypePDF,
			})
			chunkIndex++
		}
	}
	return chunks, nil
}
