package records

import (
	"context"
	"time"
)

// Repo defines persistence operations for document records.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id string) (Document, error)

	// FindByTenantAndHash returns the most recently created non-deleted
	// record sharing (tenant, content hash), or ErrNotFound.
	FindByTenantAndHash(ctx context.Context, tenantID int64, contentHash string) (Document, error)

	ListByTenant(ctx context.Context, tenantID int64, limit, offset int) ([]Document, error)

	// ListUnindexed returns up to limit unindexed, non-deleted records,
	// oldest first.
	ListUnindexed(ctx context.Context, limit int) ([]Document, error)

	// MarkIndexed advances a record to indexed. It never moves a record
	// backward; marking an already-indexed record is a no-op.
	MarkIndexed(ctx context.Context, id string, indexedAt time.Time, indexUID string) error

	SoftDelete(ctx context.Context, id string, deletedAt time.Time) error
}
