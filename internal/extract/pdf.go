package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

const mimePDF = "application/pdf"

// PDFExtractor extracts plain text from PDF payloads using
// github.com/ledongthuc/pdf.
type PDFExtractor struct{}

// Name identifies the strategy.
func (e *PDFExtractor) Name() string { return "pdf" }

// Supports matches the PDF MIME type.
func (e *PDFExtractor) Supports(contentType, fileName string) bool {
	return contentType == mimePDF
}

// Extract pulls the plain-text stream out of the PDF.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !e.Supports(contentType, "") {
		return "", fmt.Errorf("pdf extractor: unsupported content type %s", contentType)
	}

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("copy pdf text: %w", err)
	}
	return buf.String(), nil
}

var _ Extractor = (*PDFExtractor)(nil)
