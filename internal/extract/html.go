package extract

import (
	"bytes"
	"context"
	"fmt"

	"code.sajari.com/docconv"
)

// HTMLExtractor converts HTML payloads to plain text via docconv.
type HTMLExtractor struct{}

// Name identifies the strategy.
func (e *HTMLExtractor) Name() string { return "html" }

// Supports matches HTML content types.
func (e *HTMLExtractor) Supports(contentType, fileName string) bool {
	return contentType == "text/html" || contentType == "application/xhtml+xml"
}

// Extract converts the markup to readable plain text.
func (e *HTMLExtractor) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !e.Supports(contentType, "") {
		return "", fmt.Errorf("html extractor: unsupported content type %s", contentType)
	}

	text, _, err := docconv.ConvertHTML(bytes.NewReader(data), true)
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return text, nil
}

var _ Extractor = (*HTMLExtractor)(nil)
