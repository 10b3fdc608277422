package records

import (
	"context"
	"time"

	"dms-backend/internal/shared/telemetry"
)

// SearchIndex is the slice of the search engine the service needs for
// delete propagation.
type SearchIndex interface {
	Delete(ctx context.Context, id string) error
}

// Service exposes read and delete operations over document records.
type Service struct {
	Repo  Repo
	Index SearchIndex

	Now func() time.Time
}

// NewService constructs a Service with wall-clock time.
func NewService(repo Repo, index SearchIndex) *Service {
	return &Service{Repo: repo, Index: index, Now: time.Now}
}

// List returns a tenant's records, newest first.
func (s *Service) List(ctx context.Context, tenantID int64, limit, offset int) ([]Document, error) {
	return s.Repo.ListByTenant(ctx, tenantID, limit, offset)
}

// Get returns one record by id.
func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	return s.Repo.GetByID(ctx, id)
}

// Delete soft-deletes a record and removes it from the search index. The
// index delete is best-effort: the record row is the source of truth and
// a stale index entry points at a record that no longer resolves.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Repo.SoftDelete(ctx, id, s.Now().UTC()); err != nil {
		return err
	}
	if s.Index != nil {
		if err := s.Index.Delete(ctx, id); err != nil {
			telemetry.Warn("search index delete failed", map[string]any{
				"documentId": id, "error": err.Error(),
			})
		}
	}
	return nil
}
