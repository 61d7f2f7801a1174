package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/docfold/vectorizer/internal/models"
)

func TestExtractTXT(t *testing.T) {
	content := []byte("First paragraph here.\n\nSecond paragraph.\n\n\n\nThird.")
	e := NewExtractor()
	chunks, err := e.ExtractBytes(content, ".txt", "notes.txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, c.ChunkIndex)
		}
		if c.PageNumber != nil {
			t.Errorf("txt chunk %d should have no page number", i)
		}
		if c.FileType != models.FileTypeTXT {
			t.Errorf("chunk %d file type = %s", i, c.FileType)
		}
		if c.Source != "notes.txt" {
			t.Errorf("chunk %d source = %s", i, c.Source)
		}
	}
	if chunks[0].Text != "First paragraph here." {
		t.Errorf("first chunk = %q", chunks[0].Text)
	}
	if chunks[2].Text != "Third." {
		t.Errorf("third chunk = %q", chunks[2].Text)
	}
}

func TestExtractTXT_InvalidUTF8(t *testing.T) {
	content := []byte{'h', 'i', 0xff, 0xfe}
	chunks, err := NewExtractor().ExtractBytes(content, ".txt", "bad.txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestExtract_UnsupportedExtension(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("x"), ".xlsx", "sheet.xlsx"); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

// makeDocx builds a minimal .docx zip with the given document.xml body.
func makeDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	docXML := `<w:document><w:body>` +
		`<w:p w:rsidR="00A"><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve">world</w:t></w:r></w:p>` +
		`<w:p></w:p>` +
		`<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	chunks, err := NewExtractor().ExtractBytes(makeDocx(t, docXML), ".docx", "report.docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "Hello world" {
		t.Errorf("first chunk = %q", chunks[0].Text)
	}
	if chunks[1].Text != "Second paragraph" {
		t.Errorf("second chunk = %q", chunks[1].Text)
	}
	if chunks[1].ChunkIndex != 1 {
		t.Errorf("second chunk index = %d", chunks[1].ChunkIndex)
	}
	if chunks[0].PageNumber != nil {
		t.Error("docx chunks should have no page number")
	}
	if chunks[0].FileType != models.FileTypeDOCX {
		t.Errorf("file type = %s", chunks[0].FileType)
	}
}

func TestExtractDOCX_NotAZip(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("plain bytes"), ".docx", "x.docx"); err == nil {
		t.Fatal("expected error for non-zip docx")
	}
}

func TestExtractPDF_Malformed(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("not a pdf"), ".pdf", "x.pdf"); err == nil {
		t.Fatal("expected error for malformed pdf")
	}
}

func TestSplitParagraphs(t *testing.T) {
	got := splitParagraphs("  a  \n\n\n\nb\n\n   \n\nc")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("splitParagraphs = %v", got)
	}
	if got := splitParagraphs("   \n\n  "); len(got) != 0 {
		t.Errorf("blank input should yield no paragraphs, got %v", got)
	}
}
