// Package indexsync runs the loop that pushes unindexed document records
// into the search engine and marks them indexed once the engine confirms
// the write. It delivers at-least-once: a crash between upsert and mark
// re-upserts the same id on the next cycle, which the engine treats as a
// replace.
package indexsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dms-backend/internal/records"
	"dms-backend/internal/search"
	"dms-backend/internal/shared/metrics"
	"dms-backend/internal/shared/storage/object"
	"dms-backend/internal/shared/telemetry"
)

// Syncer synchronizes unindexed records into the search engine.
type Syncer struct {
	Repo   records.Repo
	Store  object.Store
	Engine search.Engine

	IndexUID     string
	BatchSize    int
	MaxBytes     int64
	Enabled      bool
	Interval     time.Duration
	StartupDelay time.Duration

	Now func() time.Time

	indexReady bool
}

// NewSyncer wires a Syncer with wall-clock time.
func NewSyncer(repo records.Repo, store object.Store, engine search.Engine, indexUID string) *Syncer {
	return &Syncer{
		Repo:     repo,
		Store:    store,
		Engine:   engine,
		IndexUID: indexUID,
		Now:      time.Now,
	}
}

// Run blocks until ctx is canceled. When syncing is disabled it returns
// immediately with nil. Cycle errors are logged and counted, never fatal.
func (s *Syncer) Run(ctx context.Context) error {
	if !s.Enabled {
		telemetry.Info("index synchronization disabled", nil)
		return nil
	}

	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}

	telemetry.Info("index synchronizer starting", map[string]any{
		"intervalSeconds": interval.Seconds(),
		"index":           s.IndexUID,
	})

	if s.StartupDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.StartupDelay):
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.IncIndexSyncError()
			telemetry.Error("index sync cycle failed", map[string]any{"error": err.Error()})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle pushes one bounded batch of unindexed records. The index is
// configured lazily on the first successful cycle; a configuration
// failure is retried on the next.
func (s *Syncer) RunCycle(ctx context.Context) error {
	if !s.indexReady {
		if err := s.Engine.EnsureIndex(ctx); err != nil {
			return fmt.Errorf("ensure index %s: %w", s.IndexUID, err)
		}
		s.indexReady = true
	}

	batch := s.BatchSize
	if batch <= 0 {
		batch = 50
	}
	docs, err := s.Repo.ListUnindexed(ctx, batch)
	if err != nil {
		return fmt.Errorf("list unindexed: %w", err)
	}
	if len(docs) == 0 {
		return nil
	}

	searchDocs := make([]search.Document, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		searchDocs = append(searchDocs, search.FromRecord(doc, s.contentFor(ctx, doc)))
	}

	if err := s.Engine.Upsert(ctx, searchDocs); err != nil {
		return fmt.Errorf("upsert %d documents: %w", len(searchDocs), err)
	}

	// The engine confirmed the batch; only now do records advance.
	now := s.Now().UTC()
	marked := 0
	for _, doc := range docs {
		if err := s.Repo.MarkIndexed(ctx, doc.ID, now, s.IndexUID); err != nil {
			// The document stays unindexed and is re-upserted next cycle.
			telemetry.Error("mark indexed failed", map[string]any{
				"documentId": doc.ID, "error": err.Error(),
			})
			continue
		}
		marked++
	}

	metrics.IncRecordsIndexed(marked)
	telemetry.Info("index sync cycle complete", map[string]any{
		"batch": len(docs), "marked": marked, "index": s.IndexUID,
	})
	return nil
}

// contentFor picks the indexable body for a record: extracted text when
// present, otherwise a best-effort download of small textual originals.
// Failures degrade to metadata-only indexing, never block the record.
func (s *Syncer) contentFor(ctx context.Context, doc records.Document) string {
	if doc.ExtractedText != "" {
		return doc.ExtractedText
	}
	if !isTextual(doc.MimeType) {
		return ""
	}
	if s.MaxBytes > 0 && doc.SizeBytes > s.MaxBytes {
		telemetry.Info("skipping content download, document too large", map[string]any{
			"documentId": doc.ID, "sizeBytes": doc.SizeBytes,
		})
		return ""
	}

	data, _, err := s.Store.Get(ctx, doc.StorageKey)
	if err != nil {
		if !errors.Is(err, object.ErrNotFound) {
			telemetry.Warn("content download failed", map[string]any{
				"documentId": doc.ID, "key": doc.StorageKey, "error": err.Error(),
			})
		}
		return ""
	}
	return string(data)
}

func isTextual(mimeType string) bool {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if strings.HasPrefix(clean, "text/") {
		return true
	}
	switch clean {
	case "application/json", "application/xml", "application/x-ndjson", "text/csv":
		return true
	}
	return false
}
