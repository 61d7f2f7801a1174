package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/docfold/vectorizer/internal/models"
)

// extractTXT extracts one chunk per paragraph from plain text content.
// Invalid UTF-8 sequences are replaced with the replacement character.
// Plain text has no pagination, so PageNumber stays nil.
func extractTXT(content []byte, source string) ([]*models.Chunk, error) {
	text := string(content)
	if !utf8.Valid(content) {
		text = strings.ToValidUTF8(text, "�")
	}
	var chunks []*models.Chunk
	for i, paragraph := range splitParagraphs(text) {
		chunks = append(chunks, &models.Chunk{
			Text:       paragraph,
			ChunkIndex: i,
			Source:     source,
			FileType:   models.FileTypeTXT,
		})
	}
	return chunks, nil
}
