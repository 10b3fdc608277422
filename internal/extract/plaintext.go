package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// PlainTextExtractor passes textual payloads through unchanged.
type PlainTextExtractor struct{}

// Name identifies the strategy.
func (e *PlainTextExtractor) Name() string { return "plaintext" }

// Supports matches text/* and the common structured-text application types.
func (e *PlainTextExtractor) Supports(contentType, fileName string) bool {
	if strings.HasPrefix(contentType, "text/") {
		return true
	}
	switch contentType {
	case "application/json", "application/xml", "application/x-ndjson", "application/csv":
		return true
	}
	return false
}

// Extract returns the payload as a string, dropping invalid UTF-8.
func (e *PlainTextExtractor) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !e.Supports(contentType, "") {
		return "", fmt.Errorf("plaintext extractor: unsupported content type %s", contentType)
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

var _ Extractor = (*PlainTextExtractor)(nil)
