package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"dms-backend/internal/extract"
	"dms-backend/internal/records"
	"dms-backend/internal/shared/metrics"
	"dms-backend/internal/shared/storage/object"
	"dms-backend/internal/shared/telemetry"
)

// Pipeline processes inbox objects one at a time: derive metadata, hash,
// dedup, extract text, persist, then move the source out of the inbox.
// Every failure routes the item to the failed area; failures never stop
// the batch.
type Pipeline struct {
	Store    object.Store
	Repo     records.Repo
	Registry *extract.Registry
	Writer   *Writer
	Mover    *Mover
	Meta     *MetadataExtractor

	InboxPrefix string
	BatchSize   int
}

// RunCycle lists one bounded batch from the inbox and processes each item
// in listing order. Item failures are logged and counted; only listing
// errors fail the cycle.
func (p *Pipeline) RunCycle(ctx context.Context) error {
	metrics.IncIngestCycle()

	infos, err := p.Store.List(ctx, p.InboxPrefix, p.BatchSize)
	if err != nil {
		return fmt.Errorf("list inbox prefix=%s: %w", p.InboxPrefix, err)
	}
	if len(infos) == 0 {
		return nil
	}

	telemetry.Info("ingest cycle started", map[string]any{
		"prefix": p.InboxPrefix, "items": len(infos),
	})

	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.ProcessItem(ctx, info); err != nil {
			telemetry.Error("inbox item failed", map[string]any{
				"key": info.Key, "error": err.Error(),
			})
		}
	}
	return nil
}

// ProcessItem ingests a single inbox object end to end. The listed info
// carries enough of the object (key, last-modified) to route it to the
// failed area even when its content cannot be fetched.
func (p *Pipeline) ProcessItem(ctx context.Context, listed object.Info) error {
	key := listed.Key
	started := time.Now()
	defer func() {
		metrics.ObserveItemDurationMs(float64(time.Since(started).Milliseconds()))
	}()

	data, info, err := p.Store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			// Another worker or a previous retry already moved it.
			telemetry.Info("inbox object gone, skipping", map[string]any{"key": key})
			return nil
		}
		return p.fail(ctx, listed, fmt.Errorf("fetch inbox object key=%s: %w", key, err))
	}

	meta := p.Meta.FromObject(info)
	sum := sha256.Sum256(data)
	contentHash := hex.EncodeToString(sum[:])

	existing, err := p.Repo.FindByTenantAndHash(ctx, meta.TenantID, contentHash)
	switch {
	case err == nil:
		telemetry.Info("duplicate content, skipping ingest", map[string]any{
			"key": key, "tenantId": meta.TenantID, "existingId": existing.ID,
		})
		metrics.IncInboxItemDuplicate()
		if moveErr := p.Mover.MoveProcessed(ctx, info); moveErr != nil {
			return fmt.Errorf("move duplicate key=%s: %w", key, moveErr)
		}
		return nil
	case errors.Is(err, records.ErrNotFound):
		// new content, continue
	default:
		return p.fail(ctx, info, fmt.Errorf("dedup lookup key=%s: %w", key, err))
	}

	text, strategy, err := p.Registry.Extract(ctx, data, info.ContentType, info.Key)
	if err != nil {
		// Extraction failures degrade to an unsearchable-body document.
		telemetry.Warn("text extraction failed", map[string]any{
			"key": key, "strategy": strategy, "error": err.Error(),
		})
		text = ""
	}

	doc, err := p.Writer.Write(ctx, data, meta, info, contentHash, text)
	if err != nil {
		return p.fail(ctx, info, err)
	}

	if err := p.Mover.MoveProcessed(ctx, info); err != nil {
		// The document is durable; leaving the source in the inbox is
		// safe because the dedup gate short-circuits the retry.
		return fmt.Errorf("move processed key=%s: %w", key, err)
	}

	metrics.IncInboxItemProcessed()
	telemetry.Info("inbox item ingested", map[string]any{
		"key": key, "documentId": doc.ID, "tenantId": doc.TenantID,
		"strategy": strategy, "sizeBytes": doc.SizeBytes,
	})
	return nil
}

// fail moves the item to the failed area and records the cause. A failure
// of the move itself is logged, not returned in its place, so the original
// cause survives to the caller.
func (p *Pipeline) fail(ctx context.Context, info object.Info, cause error) error {
	metrics.IncInboxItemFailed()
	if moveErr := p.Mover.MoveFailed(ctx, info, cause); moveErr != nil {
		telemetry.Error("failed-area move failed", map[string]any{
			"key": info.Key, "cause": cause.Error(), "error": moveErr.Error(),
		})
	}
	return cause
}
