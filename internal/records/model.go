package records

import (
	"errors"
	"time"
)

// ErrNotFound indicates no matching document record exists.
var ErrNotFound = errors.New("document record not found")

// Index status values. The status only ever advances unindexed -> indexed.
const (
	IndexStatusUnindexed = "unindexed"
	IndexStatusIndexed   = "indexed"
)

// Document is a durable, deduplicated content record. At most one
// non-deleted Document exists per (tenant, content hash) pair.
type Document struct {
	ID               string
	TenantID         int64
	DocumentTypeID   int64
	Title            string
	Description      string
	StorageKey       string
	ContentHash      string
	SizeBytes        int64
	MimeType         string
	OriginalFilename string
	ExtractedText    string
	Tags             []string
	Metadata         map[string]any
	Version          int
	IsCurrent        bool
	IndexStatus      string
	IndexedAt        *time.Time
	SearchIndexUID   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}
