package records

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRepoFindByTenantAndHashReturnsNewest(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Now().UTC()

	older := Document{ID: "a", TenantID: 5, ContentHash: "h1", CreatedAt: base.Add(-time.Hour)}
	newer := Document{ID: "b", TenantID: 5, ContentHash: "h1", CreatedAt: base}
	otherTenant := Document{ID: "c", TenantID: 6, ContentHash: "h1", CreatedAt: base}
	for _, doc := range []Document{older, newer, otherTenant} {
		if err := repo.Create(ctx, doc); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.FindByTenantAndHash(ctx, 5, "h1")
	if err != nil {
		t.Fatalf("FindByTenantAndHash: %v", err)
	}
	if got.ID != "b" {
		t.Fatalf("expected newest record b, got %s", got.ID)
	}

	if _, err := repo.FindByTenantAndHash(ctx, 5, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoFindByTenantAndHashSkipsDeleted(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, Document{ID: "a", TenantID: 5, ContentHash: "h1", CreatedAt: now}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.SoftDelete(ctx, "a", now); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}

	if _, err := repo.FindByTenantAndHash(ctx, 5, "h1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after soft delete, got %v", err)
	}
}

func TestMemoryRepoListUnindexedOldestFirstAndBounded(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Now().UTC()

	for i, id := range []string{"a", "b", "c"} {
		doc := Document{ID: id, TenantID: 1, ContentHash: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Create(ctx, doc); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := repo.MarkIndexed(ctx, "a", base, "documents"); err != nil {
		t.Fatalf("MarkIndexed: %v", err)
	}

	docs, err := repo.ListUnindexed(ctx, 1)
	if err != nil {
		t.Fatalf("ListUnindexed: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "b" {
		t.Fatalf("expected oldest unindexed record b, got %+v", docs)
	}
}

func TestMemoryRepoMarkIndexedIsMonotonic(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	first := time.Now().UTC()

	if err := repo.Create(ctx, Document{ID: "a", TenantID: 1, ContentHash: "h", CreatedAt: first}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.MarkIndexed(ctx, "a", first, "documents"); err != nil {
		t.Fatalf("MarkIndexed: %v", err)
	}

	second := first.Add(time.Hour)
	if err := repo.MarkIndexed(ctx, "a", second, "other"); err != nil {
		t.Fatalf("MarkIndexed repeat: %v", err)
	}

	doc, err := repo.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.IndexedAt == nil || !doc.IndexedAt.Equal(first) {
		t.Fatalf("expected first indexed timestamp to stick, got %v", doc.IndexedAt)
	}
	if doc.SearchIndexUID != "documents" {
		t.Fatalf("expected original index uid, got %s", doc.SearchIndexUID)
	}
}
