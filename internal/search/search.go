// Package search defines the search engine boundary and the indexed
// document schema shared by the synchronizer and the read API.
package search

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"dms-backend/internal/records"
)

// Document is the denormalized shape pushed into the search index. Its ID
// is the record id, so re-upserting the same record is idempotent.
type Document struct {
	ID             string   `json:"id"`
	TenantID       int64    `json:"tenantId"`
	DocumentTypeID int64    `json:"documentTypeId"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	FileName       string   `json:"fileName"`
	MimeType       string   `json:"mimeType"`
	SizeBytes      int64    `json:"sizeBytes"`
	Content        string   `json:"content"`
	Tags           []string `json:"tags"`
	MetadataText   string   `json:"metadataText"`
	IsCurrent      bool     `json:"isCurrent"`
	CreatedAt      int64    `json:"createdAt"`
	UpdatedAt      int64    `json:"updatedAt"`
}

// Attribute sets applied to the index. Filter and sort attributes must be
// declared before queries can use them.
var (
	SearchableAttributes = []string{"title", "description", "content", "fileName", "tags", "metadataText"}
	FilterableAttributes = []string{"tenantId", "documentTypeId", "mimeType", "isCurrent", "createdAt", "updatedAt", "tags"}
	SortableAttributes   = []string{"createdAt", "updatedAt", "title", "sizeBytes"}
	DisplayedAttributes  = []string{"id", "tenantId", "documentTypeId", "title", "description", "fileName", "mimeType", "sizeBytes", "tags", "isCurrent", "createdAt", "updatedAt"}
)

// Query is a search request against the index.
type Query struct {
	Text   string
	Filter string
	Sort   []string
	Limit  int64
	Offset int64
}

// Result is one page of search hits.
type Result struct {
	Hits          []Document
	EstimatedHits int64
	Limit         int64
	Offset        int64
}

// Engine is the external search engine boundary.
type Engine interface {
	// EnsureIndex creates the index and applies its settings. It is
	// idempotent; an existing index is reconfigured, never an error.
	EnsureIndex(ctx context.Context) error

	// Upsert adds or replaces documents by id. It returns only after the
	// engine confirms the write succeeded.
	Upsert(ctx context.Context, docs []Document) error

	// Delete removes a document by id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// Search runs a query against the index.
	Search(ctx context.Context, q Query) (Result, error)

	// Health reports whether the engine is reachable and serving.
	Health(ctx context.Context) error
}

// FromRecord maps a document record to its indexed shape. Content is
// passed separately so callers can substitute the extracted text or a
// freshly downloaded body.
func FromRecord(doc records.Document, content string) Document {
	return Document{
		ID:             doc.ID,
		TenantID:       doc.TenantID,
		DocumentTypeID: doc.DocumentTypeID,
		Title:          doc.Title,
		Description:    doc.Description,
		FileName:       doc.OriginalFilename,
		MimeType:       doc.MimeType,
		SizeBytes:      doc.SizeBytes,
		Content:        content,
		Tags:           doc.Tags,
		MetadataText:   flattenMetadata(doc.Metadata),
		IsCurrent:      doc.IsCurrent,
		CreatedAt:      doc.CreatedAt.Unix(),
		UpdatedAt:      doc.UpdatedAt.Unix(),
	}
}

// flattenMetadata renders free-form metadata values into one searchable
// string. Nested values are skipped; only scalars carry search value.
func flattenMetadata(meta map[string]any) string {
	if len(meta) == 0 {
		return ""
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(meta))
	for _, k := range keys {
		switch val := meta[k].(type) {
		case string:
			if val != "" {
				parts = append(parts, val)
			}
		case float64:
			parts = append(parts, strconv.FormatFloat(val, 'f', -1, 64))
		case bool:
			if val {
				parts = append(parts, "true")
			} else {
				parts = append(parts, "false")
			}
		}
	}
	return strings.Join(parts, " ")
}
