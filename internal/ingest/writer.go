package ingest

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"dms-backend/internal/records"
	"dms-backend/internal/shared/storage/object"
	"dms-backend/internal/shared/util"
)

// Writer persists an ingested document: the raw bytes to durable object
// storage under a content-addressed key, and a record row next to them.
type Writer struct {
	Store object.Store
	Repo  records.Repo

	// NewID and Now are overridable for tests.
	NewID func() string
	Now   func() time.Time
}

// NewWriter wires a Writer with uuid ids and wall-clock time.
func NewWriter(store object.Store, repo records.Repo) *Writer {
	return &Writer{
		Store: store,
		Repo:  repo,
		NewID: uuid.NewString,
		Now:   time.Now,
	}
}

// Write uploads the document bytes and creates its record. The durable key
// embeds tenant, date, and a random segment so that concurrent uploads of
// the same filename never collide.
func (w *Writer) Write(ctx context.Context, data []byte, meta Metadata, src object.Info, contentHash, extractedText string) (records.Document, error) {
	now := w.Now().UTC()
	fileName, err := util.SanitizeFileName(path.Base(src.Key))
	if err != nil {
		fileName = "document"
	}
	storageKey := fmt.Sprintf("documents/tenant-%d/%04d/%02d/%02d/%s/%s",
		meta.TenantID, now.Year(), now.Month(), now.Day(), w.NewID(), fileName)

	if _, err := w.Store.Put(ctx, storageKey, src.ContentType, bytes.NewReader(data), nil); err != nil {
		return records.Document{}, fmt.Errorf("store document bytes key=%s: %w", storageKey, err)
	}

	doc := records.Document{
		ID:               w.NewID(),
		TenantID:         meta.TenantID,
		DocumentTypeID:   meta.DocumentTypeID,
		Title:            meta.Title,
		Description:      meta.Description,
		StorageKey:       storageKey,
		ContentHash:      contentHash,
		SizeBytes:        int64(len(data)),
		MimeType:         src.ContentType,
		OriginalFilename: fileName,
		ExtractedText:    extractedText,
		Tags:             meta.Tags,
		Metadata:         meta.Extra,
		Version:          1,
		IsCurrent:        true,
		IndexStatus:      records.IndexStatusUnindexed,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := w.Repo.Create(ctx, doc); err != nil {
		return records.Document{}, fmt.Errorf("create document record id=%s: %w", doc.ID, err)
	}
	return doc, nil
}
