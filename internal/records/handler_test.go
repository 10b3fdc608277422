package records

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakeIndex struct {
	deleted []string
	err     error
}

func (f *fakeIndex) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func newTestRouter(repo Repo, index SearchIndex) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	NewHandler(NewService(repo, index)).RegisterRoutes(api)
	return router
}

func seedDoc(t *testing.T, repo Repo, id string, tenantID int64) {
	t.Helper()
	err := repo.Create(context.Background(), Document{
		ID:               id,
		TenantID:         tenantID,
		DocumentTypeID:   1,
		Title:            "title " + id,
		OriginalFilename: id + ".txt",
		MimeType:         "text/plain",
		IsCurrent:        true,
		IndexStatus:      IndexStatusUnindexed,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestListDocumentsRequiresTenantID(t *testing.T) {
	router := newTestRouter(NewMemoryRepo(), &fakeIndex{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestListDocumentsByTenant(t *testing.T) {
	repo := NewMemoryRepo()
	seedDoc(t, repo, "a", 7)
	seedDoc(t, repo, "b", 7)
	seedDoc(t, repo, "c", 8)
	router := newTestRouter(repo, &fakeIndex{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents?tenantId=7", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var body struct {
		Documents []documentResponse `json:"documents"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(body.Documents))
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	router := newTestRouter(NewMemoryRepo(), &fakeIndex{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/missing", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestDeleteDocumentRemovesFromIndex(t *testing.T) {
	repo := NewMemoryRepo()
	seedDoc(t, repo, "a", 7)
	index := &fakeIndex{}
	router := newTestRouter(repo, index)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/a", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}
	if len(index.deleted) != 1 || index.deleted[0] != "a" {
		t.Fatalf("expected index delete for a, got %v", index.deleted)
	}
	if _, err := repo.GetByID(context.Background(), "a"); err != ErrNotFound {
		t.Fatalf("expected record soft-deleted, got %v", err)
	}
}

func TestDeleteSurvivesIndexFailure(t *testing.T) {
	repo := NewMemoryRepo()
	seedDoc(t, repo, "a", 7)
	index := &fakeIndex{err: context.DeadlineExceeded}
	router := newTestRouter(repo, index)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/a", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// The record row is authoritative; index cleanup is best-effort.
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}
}
