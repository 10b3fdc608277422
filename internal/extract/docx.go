package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// DocxExtractor extracts text from DOCX payloads by reading
// word/document.xml out of the OOXML archive and stripping the markup.
type DocxExtractor struct{}

// Name identifies the strategy.
func (e *DocxExtractor) Name() string { return "docx" }

// Supports matches the DOCX MIME type.
func (e *DocxExtractor) Supports(contentType, fileName string) bool {
	return contentType == mimeDOCX
}

// Extract reads the main document part and flattens it to plain text.
func (e *DocxExtractor) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !e.Supports(contentType, "") {
		return "", fmt.Errorf("docx extractor: unsupported content type %s", contentType)
	}
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}

	readerAt := bytes.NewReader(data)
	zr, err := zip.NewReader(readerAt, int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}

	return stripDocxXML(string(raw)), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if last := buf.Len(); last > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

var _ Extractor = (*DocxExtractor)(nil)
