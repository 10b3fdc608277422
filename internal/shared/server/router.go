package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dms-backend/internal/records"
	"dms-backend/internal/search"
	"dms-backend/internal/shared/config"
	"dms-backend/internal/shared/metrics"
	"dms-backend/internal/shared/server/middleware"
	"dms-backend/internal/shared/server/respond"
)

// RouterDeps carries the wired handlers and probes the router needs.
type RouterDeps struct {
	Config          config.Config
	DocumentHandler *records.Handler
	SearchHandler   *search.Handler
	DB              *sql.DB
	Engine          search.Engine
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(deps))
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.SearchHandler != nil {
		deps.SearchHandler.RegisterRoutes(api)
	}

	return r
}

// healthHandler reports process liveness plus the state of the database
// and the search engine. Degraded dependencies do not flip the status
// code; the poller and syncer tolerate their absence.
func healthHandler(deps RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "absent"
		if deps.DB != nil {
			dbStatus = "up"
			if err := deps.DB.PingContext(ctx); err != nil {
				dbStatus = "down"
			}
		}

		searchStatus := "absent"
		if deps.Engine != nil {
			searchStatus = "up"
			if err := deps.Engine.Health(ctx); err != nil {
				searchStatus = "down"
			}
		}

		respond.JSON(c, http.StatusOK, gin.H{
			"ok":     true,
			"db":     dbStatus,
			"search": searchStatus,
		})
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
