// Package extract provides chunked text extraction from document files.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docfold/vectorizer/internal/models"
)

// Extractor extracts text chunks from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its content as chunks.
// PDF chunks carry their originating page number; TXT and DOCX chunks do not
// (those formats have no pagination). ChunkIndex is assigned in document
// order starting at 0 and is unique within the document.
// Returns an error if the file cannot be read or the format is unsupported.
func (e *Extractor) Extract(path string) ([]*models.Chunk, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path), path)
}

// ExtractBytes extracts chunks from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"); source is recorded as
// chunk provenance.
func (e *Extractor) ExtractBytes(content []byte, ext, source string) ([]*models.Chunk, error) {
	fileType, err := models.ParseFileType(strings.ToLower(ext))
	if err != nil {
		return nil, err
	}
	switch fileType {
	case models.FileTypePDF:
		return extractPDF(content, source)
	case models.FileTypeDOCX:
		return extractDOCX(content, source)
	default:
		return extractTXT(content, source)
	}
}

// splitParagraphs splits text on blank lines and returns trimmed, non-empty
// paragraphs.
func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}
