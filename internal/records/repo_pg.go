package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `
id, tenant_id, document_type_id, title, description, storage_key, content_hash,
size_bytes, mime_type, original_filename, extracted_text, tags, metadata,
version, is_current, index_status, indexed_at, search_index_uid,
created_at, updated_at, deleted_at`

// Create inserts a new document record.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    tenant_id,
    document_type_id,
    title,
    description,
    storage_key,
    content_hash,
    size_bytes,
    mime_type,
    original_filename,
    extracted_text,
    tags,
    metadata,
    version,
    is_current,
    index_status,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	status := doc.IndexStatus
	if status == "" {
		status = IndexStatusUnindexed
	}
	version := doc.Version
	if version <= 0 {
		version = 1
	}

	tagsJSON, err := json.Marshal(tagsOrEmpty(doc.Tags))
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	metaJSON, err := json.Marshal(metadataOrEmpty(doc.Metadata))
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	updatedAt := doc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = doc.CreatedAt
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.TenantID,
		doc.DocumentTypeID,
		doc.Title,
		doc.Description,
		doc.StorageKey,
		doc.ContentHash,
		doc.SizeBytes,
		doc.MimeType,
		doc.OriginalFilename,
		doc.ExtractedText,
		tagsJSON,
		metaJSON,
		version,
		doc.IsCurrent,
		status,
		doc.CreatedAt,
		updatedAt,
	)
	return err
}

// GetByID fetches a non-deleted record by id.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`
	return r.queryOne(ctx, query, id)
}

// FindByTenantAndHash returns the newest non-deleted record for (tenant, hash).
func (r *PGRepo) FindByTenantAndHash(ctx context.Context, tenantID int64, contentHash string) (Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE tenant_id = $1 AND content_hash = $2 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT 1`
	return r.queryOne(ctx, query, tenantID, contentHash)
}

// ListByTenant lists records for a tenant, newest first.
func (r *PGRepo) ListByTenant(ctx context.Context, tenantID int64, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE tenant_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	return r.queryMany(ctx, query, tenantID, limit, offset)
}

// ListUnindexed lists unindexed non-deleted records, oldest first.
func (r *PGRepo) ListUnindexed(ctx context.Context, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
SELECT ` + documentColumns + `
FROM documents
WHERE index_status = $1 AND deleted_at IS NULL
ORDER BY created_at ASC
LIMIT $2`
	return r.queryMany(ctx, query, IndexStatusUnindexed, limit)
}

// MarkIndexed advances a record from unindexed to indexed.
func (r *PGRepo) MarkIndexed(ctx context.Context, id string, indexedAt time.Time, indexUID string) error {
	const query = `
UPDATE documents
SET index_status = $1, indexed_at = $2, search_index_uid = $3, updated_at = $2
WHERE id = $4 AND index_status = $5`
	_, err := r.DB.ExecContext(ctx, query, IndexStatusIndexed, indexedAt, indexUID, id, IndexStatusUnindexed)
	return err
}

// SoftDelete marks a record deleted.
func (r *PGRepo) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	const query = `
UPDATE documents
SET deleted_at = $1, updated_at = $1, is_current = FALSE
WHERE id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, deletedAt, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) queryOne(ctx context.Context, query string, args ...any) (Document, error) {
	row := r.DB.QueryRowContext(ctx, query, args...)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

func (r *PGRepo) queryMany(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var tagsJSON, metaJSON []byte
	var indexedAt, deletedAt sql.NullTime
	var indexUID sql.NullString

	err := row.Scan(
		&doc.ID,
		&doc.TenantID,
		&doc.DocumentTypeID,
		&doc.Title,
		&doc.Description,
		&doc.StorageKey,
		&doc.ContentHash,
		&doc.SizeBytes,
		&doc.MimeType,
		&doc.OriginalFilename,
		&doc.ExtractedText,
		&tagsJSON,
		&metaJSON,
		&doc.Version,
		&doc.IsCurrent,
		&doc.IndexStatus,
		&indexedAt,
		&indexUID,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return Document{}, err
	}

	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &doc.Tags); err != nil {
			return Document{}, fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &doc.Metadata); err != nil {
			return Document{}, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if indexedAt.Valid {
		doc.IndexedAt = &indexedAt.Time
	}
	if indexUID.Valid {
		doc.SearchIndexUID = indexUID.String
	}
	if deletedAt.Valid {
		doc.DeletedAt = &deletedAt.Time
	}
	return doc, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func metadataOrEmpty(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}

var _ Repo = (*PGRepo)(nil)
