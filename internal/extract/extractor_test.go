package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	doc := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + body + `</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestDocxExtractorReadsDocumentXML(t *testing.T) {
	data := buildDocx(t, "Hello ingestion")
	ex := &DocxExtractor{}

	text, err := ex.Extract(context.Background(), data, mimeDOCX)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(text, "Hello ingestion") {
		t.Fatalf("expected extracted text, got %q", text)
	}
}

func TestNormalizeContentTypeResolvesZipToDocx(t *testing.T) {
	data := buildDocx(t, "x")
	got := NormalizeContentType("application/zip", "report.docx", data)
	if got != mimeDOCX {
		t.Fatalf("expected docx mime, got %s", got)
	}
}

func TestNormalizeContentTypeStripsParameters(t *testing.T) {
	got := NormalizeContentType("Text/Plain; charset=utf-8", "notes.txt", nil)
	if got != "text/plain" {
		t.Fatalf("expected text/plain, got %s", got)
	}
}

func TestRegistryExtractsPlainText(t *testing.T) {
	reg := DefaultRegistry()
	text, name, err := reg.Extract(context.Background(), []byte("plain body"), "text/plain", "notes.txt")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if name != "plaintext" {
		t.Fatalf("expected plaintext strategy, got %s", name)
	}
	if text != "plain body" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestRegistrySkipsUnsupportedType(t *testing.T) {
	reg := DefaultRegistry()
	text, name, err := reg.Extract(context.Background(), []byte{0x1, 0x2}, "application/octet-stream", "blob.bin")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if name != "" || text != "" {
		t.Fatalf("expected skip, got name=%q text=%q", name, text)
	}
}

type stubExtractor struct {
	name     string
	supports bool
	text     string
	err      error
}

func (s *stubExtractor) Name() string                         { return s.name }
func (s *stubExtractor) Supports(contentType, _ string) bool  { return s.supports }
func (s *stubExtractor) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	return s.text, s.err
}

func TestRegistryFirstMatchWins(t *testing.T) {
	first := &stubExtractor{name: "first", supports: true, text: "from first"}
	second := &stubExtractor{name: "second", supports: true, text: "from second"}
	reg := NewRegistry(first, second)

	text, name, err := reg.Extract(context.Background(), nil, "text/plain", "a.txt")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if name != "first" || text != "from first" {
		t.Fatalf("expected first strategy to win, got name=%q text=%q", name, text)
	}
}

func TestRegistryPropagatesStrategyError(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry(&stubExtractor{name: "broken", supports: true, err: boom})

	_, name, err := reg.Extract(context.Background(), nil, "text/plain", "a.txt")
	if !errors.Is(err, boom) {
		t.Fatalf("expected strategy error, got %v", err)
	}
	if name != "broken" {
		t.Fatalf("expected strategy name with error, got %q", name)
	}
}

func TestHTMLExtractorSupports(t *testing.T) {
	ex := &HTMLExtractor{}
	if !ex.Supports("text/html", "page.html") {
		t.Fatalf("expected text/html support")
	}
	if ex.Supports("text/plain", "notes.txt") {
		t.Fatalf("did not expect text/plain support")
	}
}

func TestRegistryOrderPrefersHTMLOverPlainText(t *testing.T) {
	// text/html matches both the html strategy and the text/* fallback;
	// registration order must pick html.
	reg := DefaultRegistry()
	_, name, _ := reg.Extract(context.Background(), []byte("<html><body><p>hi</p></body></html>"), "text/html", "page.html")
	if name != "html" {
		t.Fatalf("expected html strategy, got %s", name)
	}
}
