package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"dms-backend/internal/bootstrap"
	"dms-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildWorker(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	log.Printf("worker starting (ingest=%v indexSync=%v store=%s)",
		cfg.IngestEnabled, cfg.IndexSyncEnabled, cfg.ObjectStoreType)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.Poller.Run(gctx) })
	g.Go(func() error { return app.Syncer.Run(gctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("worker: %v", err)
	}

	if app.DB != nil {
		app.DB.Close()
	}
	log.Printf("worker stopped")
}
