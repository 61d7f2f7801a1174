// Package e2e provides end-to-end tests; this file builds minimal files for
// the supported document types.
package e2e

import (
	"archive/zip"
	"bytes"
)

// SupportedFileExtensions is the list of file extensions used in file-based
// end-to-end tests. PDF is not generated here (no minimal PDF with
// extractable text).
var SupportedFileExtensions = []string{".txt", ".docx"}

// MinimalFile returns the bytes of a minimal file of the given extension
// containing the given text. For .txt the content is the raw text; for .docx
// it is a minimal OOXML archive.
func MinimalFile(ext, text string) []byte {
	switch ext {
	case ".docx":
		return minimalDocx(text)
	default:
		return []byte(text)
	}
}

func minimalDocx(text string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}
