package indexsync

import (
	"context"
	"strings"
	"testing"
	"time"

	"dms-backend/internal/records"
	"dms-backend/internal/search"
	"dms-backend/internal/shared/storage/object/memory"
)

func newTestSyncer(repo records.Repo, store *memory.Store, engine search.Engine) *Syncer {
	s := NewSyncer(repo, store, engine, "documents")
	s.BatchSize = 50
	s.MaxBytes = 1 << 20
	return s
}

func seedRecord(t *testing.T, repo records.Repo, id, text string, createdAt time.Time) {
	t.Helper()
	err := repo.Create(context.Background(), records.Document{
		ID:            id,
		TenantID:      1,
		Title:         "doc " + id,
		StorageKey:    "documents/tenant-1/" + id + "/file.txt",
		MimeType:      "text/plain",
		ExtractedText: text,
		IndexStatus:   records.IndexStatusUnindexed,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestSyncerIndexesAndMarks(t *testing.T) {
	repo := records.NewMemoryRepo()
	store := memory.NewStore()
	engine := search.NewMemoryEngine()
	s := newTestSyncer(repo, store, engine)
	seedRecord(t, repo, "a", "alpha body", time.Now())

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if engine.Len() != 1 {
		t.Fatalf("expected one indexed document, got %d", engine.Len())
	}
	doc, err := repo.GetByID(context.Background(), "a")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if doc.IndexStatus != records.IndexStatusIndexed {
		t.Fatalf("expected indexed status, got %s", doc.IndexStatus)
	}
	if doc.IndexedAt == nil || doc.SearchIndexUID != "documents" {
		t.Fatalf("index audit fields not set: %+v", doc)
	}
}

func TestSyncerDoesNotMarkOnUpsertFailure(t *testing.T) {
	repo := records.NewMemoryRepo()
	store := memory.NewStore()
	engine := search.NewMemoryEngine()
	engine.FailUpsert = true
	s := newTestSyncer(repo, store, engine)
	seedRecord(t, repo, "a", "alpha body", time.Now())

	if err := s.RunCycle(context.Background()); err == nil {
		t.Fatalf("expected cycle error on failed upsert")
	}

	doc, _ := repo.GetByID(context.Background(), "a")
	if doc.IndexStatus != records.IndexStatusUnindexed {
		t.Fatalf("record must stay unindexed after failed upsert, got %s", doc.IndexStatus)
	}

	// Recovery: the next cycle picks the same record up again.
	engine.FailUpsert = false
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("recovery cycle: %v", err)
	}
	doc, _ = repo.GetByID(context.Background(), "a")
	if doc.IndexStatus != records.IndexStatusIndexed {
		t.Fatalf("expected indexed after recovery, got %s", doc.IndexStatus)
	}
}

func TestSyncerRerunIsNoOp(t *testing.T) {
	repo := records.NewMemoryRepo()
	store := memory.NewStore()
	engine := search.NewMemoryEngine()
	s := newTestSyncer(repo, store, engine)
	seedRecord(t, repo, "a", "alpha body", time.Now())

	for i := 0; i < 3; i++ {
		if err := s.RunCycle(context.Background()); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
	}
	if engine.Len() != 1 {
		t.Fatalf("expected one indexed document, got %d", engine.Len())
	}
}

func TestSyncerDownloadsSmallTextualContent(t *testing.T) {
	repo := records.NewMemoryRepo()
	store := memory.NewStore()
	engine := search.NewMemoryEngine()
	s := newTestSyncer(repo, store, engine)

	seedRecord(t, repo, "a", "", time.Now())
	if _, err := store.Put(context.Background(), "documents/tenant-1/a/file.txt", "text/plain", strings.NewReader("raw file body"), nil); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	doc, ok := engine.Get("a")
	if !ok {
		t.Fatalf("document not indexed")
	}
	if doc.Content != "raw file body" {
		t.Fatalf("expected downloaded content, got %q", doc.Content)
	}
}

func TestSyncerSkipsDownloadOverSizeCeiling(t *testing.T) {
	repo := records.NewMemoryRepo()
	store := memory.NewStore()
	engine := search.NewMemoryEngine()
	s := newTestSyncer(repo, store, engine)
	s.MaxBytes = 4

	err := repo.Create(context.Background(), records.Document{
		ID:          "big",
		TenantID:    1,
		StorageKey:  "documents/tenant-1/big/file.txt",
		MimeType:    "text/plain",
		SizeBytes:   1000,
		IndexStatus: records.IndexStatusUnindexed,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.Put(context.Background(), "documents/tenant-1/big/file.txt", "text/plain", strings.NewReader("very large body"), nil); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	doc, _ := engine.Get("big")
	if doc.Content != "" {
		t.Fatalf("oversized content must not be downloaded, got %q", doc.Content)
	}
}

func TestSyncerHonorsBatchSize(t *testing.T) {
	repo := records.NewMemoryRepo()
	store := memory.NewStore()
	engine := search.NewMemoryEngine()
	s := newTestSyncer(repo, store, engine)
	s.BatchSize = 2

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"a", "b", "c"} {
		seedRecord(t, repo, id, "body "+id, base.Add(time.Duration(i)*time.Minute))
	}

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if engine.Len() != 2 {
		t.Fatalf("expected batch of 2, got %d", engine.Len())
	}
	// Oldest first: c waits for the next cycle.
	if _, ok := engine.Get("c"); ok {
		t.Fatalf("newest record should not be in the first batch")
	}

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if engine.Len() != 3 {
		t.Fatalf("expected all indexed after second cycle, got %d", engine.Len())
	}
}
