package records

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dms-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the records service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents", h.listDocuments)
	rg.GET("/documents/:id", h.getDocument)
	rg.DELETE("/documents/:id", h.deleteDocument)
}

// documentResponse is the public shape of a record. Extracted text stays
// internal; search serves content queries.
type documentResponse struct {
	ID               string         `json:"id"`
	TenantID         int64          `json:"tenantId"`
	DocumentTypeID   int64          `json:"documentTypeId"`
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	OriginalFilename string         `json:"fileName"`
	MimeType         string         `json:"mimeType"`
	SizeBytes        int64          `json:"sizeBytes"`
	ContentHash      string         `json:"contentHash"`
	Tags             []string       `json:"tags,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Version          int            `json:"version"`
	IsCurrent        bool           `json:"isCurrent"`
	IndexStatus      string         `json:"indexStatus"`
	IndexedAt        *time.Time     `json:"indexedAt,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func toResponse(doc Document) documentResponse {
	return documentResponse{
		ID:               doc.ID,
		TenantID:         doc.TenantID,
		DocumentTypeID:   doc.DocumentTypeID,
		Title:            doc.Title,
		Description:      doc.Description,
		OriginalFilename: doc.OriginalFilename,
		MimeType:         doc.MimeType,
		SizeBytes:        doc.SizeBytes,
		ContentHash:      doc.ContentHash,
		Tags:             doc.Tags,
		Metadata:         doc.Metadata,
		Version:          doc.Version,
		IsCurrent:        doc.IsCurrent,
		IndexStatus:      doc.IndexStatus,
		IndexedAt:        doc.IndexedAt,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
}

func (h *Handler) listDocuments(c *gin.Context) {
	tenantID, err := strconv.ParseInt(c.Query("tenantId"), 10, 64)
	if err != nil || tenantID <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "tenantId query parameter is required", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	docs, err := h.Svc.List(c.Request.Context(), tenantID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	items := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toResponse(doc))
	}
	respond.OK(c, gin.H{"documents": items, "limit": limit, "offset": offset})
}

func (h *Handler) getDocument(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document id is required", nil)
		return
	}

	doc, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		}
		return
	}
	respond.OK(c, toResponse(doc))
}

func (h *Handler) deleteDocument(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document id is required", nil)
		return
	}

	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete document", nil)
		}
		return
	}
	c.Status(http.StatusNoContent)
}
