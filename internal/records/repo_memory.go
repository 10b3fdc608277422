package records

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document // id -> record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Document),
	}
}

// Create stores a new document record.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.IndexStatus == "" {
		doc.IndexStatus = IndexStatusUnindexed
	}
	if doc.Version <= 0 {
		doc.Version = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.ID] = doc
	return nil
}

// GetByID returns a non-deleted record by id.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[id]
	if !ok || doc.DeletedAt != nil {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// FindByTenantAndHash returns the newest non-deleted record for (tenant, hash).
func (r *MemoryRepo) FindByTenantAndHash(ctx context.Context, tenantID int64, contentHash string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *Document
	for id := range r.data {
		doc := r.data[id]
		if doc.TenantID != tenantID || doc.ContentHash != contentHash || doc.DeletedAt != nil {
			continue
		}
		if found == nil || doc.CreatedAt.After(found.CreatedAt) {
			copied := doc
			found = &copied
		}
	}
	if found == nil {
		return Document{}, ErrNotFound
	}
	return *found, nil
}

// ListByTenant returns records for a tenant, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByTenant(ctx context.Context, tenantID int64, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}

	r.mu.RLock()
	var docs []Document
	for id := range r.data {
		doc := r.data[id]
		if doc.TenantID == tenantID && doc.DeletedAt == nil {
			docs = append(docs, doc)
		}
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	if offset >= len(docs) {
		return []Document{}, nil
	}
	end := len(docs)
	if offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

// ListUnindexed returns unindexed non-deleted records, oldest first.
func (r *MemoryRepo) ListUnindexed(ctx context.Context, limit int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	r.mu.RLock()
	var docs []Document
	for id := range r.data {
		doc := r.data[id]
		if doc.IndexStatus == IndexStatusUnindexed && doc.DeletedAt == nil {
			docs = append(docs, doc)
		}
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})

	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// MarkIndexed advances a record from unindexed to indexed.
func (r *MemoryRepo) MarkIndexed(ctx context.Context, id string, indexedAt time.Time, indexUID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[id]
	if !ok {
		return nil
	}
	if doc.IndexStatus != IndexStatusUnindexed {
		return nil
	}
	doc.IndexStatus = IndexStatusIndexed
	doc.IndexedAt = &indexedAt
	doc.SearchIndexUID = indexUID
	doc.UpdatedAt = indexedAt
	r.data[id] = doc
	return nil
}

// SoftDelete marks a record deleted.
func (r *MemoryRepo) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[id]
	if !ok || doc.DeletedAt != nil {
		return ErrNotFound
	}
	doc.DeletedAt = &deletedAt
	doc.UpdatedAt = deletedAt
	doc.IsCurrent = false
	r.data[id] = doc
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
