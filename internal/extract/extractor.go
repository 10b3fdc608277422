// Package extract turns raw document bytes into plain text using a set of
// interchangeable, content-type keyed strategies.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"path/filepath"
	"strings"
)

// Extractor is a text-extraction strategy for one family of content types.
type Extractor interface {
	// Name identifies the strategy for logging.
	Name() string

	// Supports reports whether the strategy can handle the content type.
	Supports(contentType, fileName string) bool

	// Extract produces plain text from the payload. Calling Extract with an
	// unsupported content type is an error.
	Extract(ctx context.Context, data []byte, contentType string) (string, error)
}

// Registry dispatches to the first registered strategy whose Supports
// predicate matches. Registration order is fixed and meaningful: more
// specific strategies must be registered before broader ones.
type Registry struct {
	extractors []Extractor
}

// NewRegistry builds a registry from the given strategies, in order.
func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// DefaultRegistry returns the standard strategy set: PDF, DOCX, HTML, then
// plain text as the broad fallback for textual types.
func DefaultRegistry() *Registry {
	return NewRegistry(
		&PDFExtractor{},
		&DocxExtractor{},
		&HTMLExtractor{},
		&PlainTextExtractor{},
	)
}

// Extract normalizes the content type, picks the first matching strategy,
// and runs it. No matching strategy is not an error: it returns empty text
// and an empty strategy name.
func (r *Registry) Extract(ctx context.Context, data []byte, contentType, fileName string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	normalized := NormalizeContentType(contentType, fileName, data)
	for _, ex := range r.extractors {
		if !ex.Supports(normalized, fileName) {
			continue
		}
		text, err := ex.Extract(ctx, data, normalized)
		if err != nil {
			return "", ex.Name(), err
		}
		return text, ex.Name(), nil
	}
	return "", "", nil
}

// NormalizeContentType lowercases and strips parameters from a MIME type,
// and resolves the generic zip type to the matching OOXML type when the
// archive layout or file extension identifies one.
func NormalizeContentType(contentType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if clean != "application/zip" {
		return clean
	}

	if mapped := mapOOXMLFromZip(data); mapped != "" {
		return mapped
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".docx":
		return mimeDOCX
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	default:
		return clean
	}
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		switch name {
		case "word/document.xml":
			return mimeDOCX
		case "xl/workbook.xml":
			return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		case "ppt/presentation.xml":
			return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
		}
	}
	return ""
}
