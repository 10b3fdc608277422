package records

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateDefaultsVersionAndStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	created := time.Now().UTC()
	doc := Document{
		ID:               "4f2c8f6a-0000-0000-0000-000000000001",
		TenantID:         5,
		DocumentTypeID:   2,
		Title:            "report",
		StorageKey:       "documents/tenant-5/2026/08/30/abc/report.pdf",
		ContentHash:      "deadbeef",
		SizeBytes:        1024,
		MimeType:         "application/pdf",
		OriginalFilename: "report.pdf",
		ExtractedText:    "hello",
		IsCurrent:        true,
		CreatedAt:        created,
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(
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
			sqlmock.AnyArg(), // tags json
			sqlmock.AnyArg(), // metadata json
			1,                // version defaulted
			doc.IsCurrent,
			IndexStatusUnindexed,
			created,
			created,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoMarkIndexedGuardsStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	at := time.Now().UTC()

	mock.ExpectExec("UPDATE documents").
		WithArgs(IndexStatusIndexed, at, "documents", "doc-1", IndexStatusUnindexed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkIndexed(context.Background(), "doc-1", at, "documents"); err != nil {
		t.Fatalf("MarkIndexed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoFindByTenantAndHashNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT").
		WithArgs(int64(7), "cafebabe").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.FindByTenantAndHash(context.Background(), 7, "cafebabe"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListUnindexedScansRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	created := time.Now().UTC()

	cols := []string{
		"id", "tenant_id", "document_type_id", "title", "description",
		"storage_key", "content_hash", "size_bytes", "mime_type",
		"original_filename", "extracted_text", "tags", "metadata",
		"version", "is_current", "index_status", "indexed_at",
		"search_index_uid", "created_at", "updated_at", "deleted_at",
	}
	rows := sqlmock.NewRows(cols).AddRow(
		"doc-1", int64(5), int64(2), "report", "",
		"documents/tenant-5/report.pdf", "deadbeef", int64(10), "text/plain",
		"report.txt", "hello", []byte(`["a","b"]`), []byte(`{"k":"v"}`),
		1, true, IndexStatusUnindexed, nil,
		nil, created, created, nil,
	)

	mock.ExpectQuery("SELECT").
		WithArgs(IndexStatusUnindexed, 50).
		WillReturnRows(rows)

	docs, err := repo.ListUnindexed(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListUnindexed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(docs))
	}
	if docs[0].Tags[1] != "b" {
		t.Fatalf("unexpected tags: %v", docs[0].Tags)
	}
	if docs[0].Metadata["k"] != "v" {
		t.Fatalf("unexpected metadata: %v", docs[0].Metadata)
	}
}
