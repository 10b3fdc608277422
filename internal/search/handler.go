package search

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"dms-backend/internal/shared/server/respond"
)

// Handler exposes the search passthrough endpoint.
type Handler struct {
	Engine Engine
}

// NewHandler constructs a Handler.
func NewHandler(engine Engine) *Handler {
	return &Handler{Engine: engine}
}

// RegisterRoutes attaches search routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.search)
}

func (h *Handler) search(c *gin.Context) {
	q := Query{
		Text:   c.Query("q"),
		Limit:  parseInt64(c.DefaultQuery("limit", "20"), 20),
		Offset: parseInt64(c.DefaultQuery("offset", "0"), 0),
	}

	if raw := c.Query("tenantId"); raw != "" {
		tenantID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || tenantID <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "tenantId must be a positive integer", nil)
			return
		}
		q.Filter = fmt.Sprintf("tenantId = %d", tenantID)
	}
	if raw := c.Query("sort"); raw != "" {
		q.Sort = parseSort(raw)
	}

	res, err := h.Engine.Search(c.Request.Context(), q)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "search_unavailable", "search request failed", nil)
		return
	}

	respond.OK(c, gin.H{
		"hits":          res.Hits,
		"estimatedHits": res.EstimatedHits,
		"limit":         res.Limit,
		"offset":        res.Offset,
	})
}

// parseSort accepts "field:asc,field2:desc" and emits the engine's
// "field:asc" clause list, dropping malformed entries.
func parseSort(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, dir, ok := strings.Cut(part, ":")
		if !ok {
			dir = "asc"
		}
		if dir != "asc" && dir != "desc" {
			continue
		}
		out = append(out, field+":"+dir)
	}
	return out
}

func parseInt64(raw string, def int64) int64 {
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || val < 0 {
		return def
	}
	return val
}
