package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dms-backend/internal/shared/config"
)

func devConfig() config.Config {
	return config.Config{
		Env:             "dev",
		ObjectStoreType: "memory",
		InboxPrefix:     "inbox",
		ProcessedPrefix: "processed",
		FailedPrefix:    "failed",
		ProcessedBy:     "test-worker",
		IngestEnabled:   true,
		PollInterval:    time.Second,
		IngestBatchSize: 25,
		DefaultTenantID: 1,
		MeiliIndex:      "documents",
	}
}

func TestBuildWiresDevDependencies(t *testing.T) {
	app, err := Build(context.Background(), devConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.DB != nil {
		t.Fatalf("dev build without DATABASE_URL must not open a database")
	}
	if app.Store == nil || app.Repo == nil || app.Engine == nil {
		t.Fatalf("missing dependencies: %+v", app)
	}
	if app.Poller == nil || app.Syncer == nil {
		t.Fatalf("worker loops not wired")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("health returned %d", resp.Code)
	}
}

func TestBuildRequiresDatabaseInProduction(t *testing.T) {
	cfg := devConfig()
	cfg.Env = "production"
	if _, err := Build(context.Background(), cfg); err == nil {
		t.Fatalf("production build without DATABASE_URL must fail")
	}
}
