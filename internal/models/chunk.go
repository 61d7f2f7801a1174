// Package models defines core data structures for chunks, search results, and statistics.
package models

import (
	"fmt"
	"strings"
)

// FileType identifies the source document format of a chunk.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeTXT  FileType = "txt"
	FileTypeDOCX FileType = "docx"
)

// KnownFileTypes returns all supported file types in a stable order.
// Statistics breakdowns iterate this set.
func KnownFileTypes() []FileType {
	return []FileType{FileTypePDF, FileTypeTXT, FileTypeDOCX}
}

// ParseFileType returns the FileType for s (case-insensitive, optional leading dot).
// Returns an error for anything outside the supported set.
func ParseFileType(s string) (FileType, error) {
	switch FileType(strings.ToLower(strings.TrimPrefix(s, "."))) {
	case FileTypePDF:
		return FileTypePDF, nil
	case FileTypeTXT:
		return FileTypeTXT, nil
	case FileTypeDOCX:
		return FileTypeDOCX, nil
	default:
		return "", fmt.Errorf("unsupported file type: %q (supported: pdf, txt, docx)", s)
	}
}

// Chunk is a contiguous span of extracted text with provenance metadata.
type Chunk struct {
	Text string `json:"text"`
	// PageNumber is nil for formats without pagination (txt, docx).
	PageNumber *int `json:"page_number,omitempty"`
	// ChunkIndex is the ordinal position within the source document, starting at 0.
	ChunkIndex int      `json:"chunk_index"`
	Source     string   `json:"source"`
	FileType   FileType `json:"file_type"`
}
