// Package bootstrap wires configuration into the application's shared
// dependencies: database, object store, search engine, repositories, the
// ingestion pipeline, and the HTTP router.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"dms-backend/internal/extract"
	"dms-backend/internal/indexsync"
	"dms-backend/internal/ingest"
	"dms-backend/internal/records"
	"dms-backend/internal/search"
	"dms-backend/internal/shared/config"
	"dms-backend/internal/shared/server"
	"dms-backend/internal/shared/storage/db"
	"dms-backend/internal/shared/storage/object"
	memorystore "dms-backend/internal/shared/storage/object/memory"
	s3store "dms-backend/internal/shared/storage/object/s3"
)

// Startup delays keep the loops from hammering dependencies that are
// still coming up alongside the worker. Offset so the first cycles do
// not coincide.
const (
	pollerStartupDelay = 5 * time.Second
	syncerStartupDelay = 10 * time.Second
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.Store
	Repo   records.Repo
	Engine search.Engine

	Poller *ingest.Poller
	Syncer *indexsync.Syncer
}

// Build prepares shared dependencies for the API server.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	return build(ctx, cfg, db.DefaultServerOptions())
}

// BuildWorker is Build with a database pool sized for the worker's two
// scheduling loops.
func BuildWorker(ctx context.Context, cfg config.Config) (*App, error) {
	return build(ctx, cfg, db.DefaultWorkerOptions())
}

func build(ctx context.Context, cfg config.Config, dbOpts db.Options) (*App, error) {
	sqlDB, err := buildDB(ctx, cfg, dbOpts)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var repo records.Repo
	if sqlDB != nil {
		repo = &records.PGRepo{DB: sqlDB}
	} else {
		repo = records.NewMemoryRepo()
	}

	engine := buildEngine(cfg)

	mover := ingest.NewMover(store, cfg.ProcessedPrefix, cfg.FailedPrefix, cfg.ProcessedBy)
	pipeline := &ingest.Pipeline{
		Store:    store,
		Repo:     repo,
		Registry: extract.DefaultRegistry(),
		Writer:   ingest.NewWriter(store, repo),
		Mover:    mover,
		Meta: &ingest.MetadataExtractor{
			DefaultTenantID:  cfg.DefaultTenantID,
			DefaultDocTypeID: cfg.DefaultDocTypeID,
			InboxPrefix:      cfg.InboxPrefix,
		},
		InboxPrefix: cfg.InboxPrefix,
		BatchSize:   cfg.IngestBatchSize,
	}
	poller := &ingest.Poller{
		Pipeline:     pipeline,
		Enabled:      cfg.IngestEnabled,
		Interval:     cfg.PollInterval,
		StartupDelay: pollerStartupDelay,
	}

	syncer := indexsync.NewSyncer(repo, store, engine, cfg.MeiliIndex)
	syncer.BatchSize = cfg.IndexBatchSize
	syncer.MaxBytes = cfg.MaxIndexableBytes
	syncer.Enabled = cfg.IndexSyncEnabled
	syncer.Interval = cfg.IndexSyncInterval
	syncer.StartupDelay = syncerStartupDelay

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Repo:   repo,
		Engine: engine,
		Poller: poller,
		Syncer: syncer,
	}

	recordSvc := records.NewService(repo, engine)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		DocumentHandler: records.NewHandler(recordSvc),
		SearchHandler:   search.NewHandler(engine),
		DB:              sqlDB,
		Engine:          engine,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config, defaults db.Options) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repository")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(defaults)
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repository: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return memorystore.NewStore(), nil
	}
}

// buildEngine picks the search engine. An explicitly empty MEILI_HOST
// selects the in-memory engine for local runs without a Meilisearch
// instance.
func buildEngine(cfg config.Config) search.Engine {
	if strings.TrimSpace(cfg.MeiliHost) == "" {
		log.Printf("bootstrap: MEILI_HOST empty; using in-memory search engine")
		return search.NewMemoryEngine()
	}
	return search.NewMeiliEngine(cfg.MeiliHost, cfg.MeiliAPIKey, cfg.MeiliIndex)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
