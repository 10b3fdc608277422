package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dms-backend/internal/shared/storage/object"
	"dms-backend/internal/shared/telemetry"
)

// Enrichment tag keys attached to moved objects.
const (
	tagProcessedAt  = "ProcessedAt"
	tagProcessedBy  = "ProcessedBy"
	tagSourceKey    = "SourceKey"
	tagErrorMessage = "ErrorMessage"
	tagErrorTime    = "ErrorTime"
)

// maxErrorTagLen keeps the ErrorMessage tag inside S3's 256-character
// tag value limit.
const maxErrorTagLen = 256

// Mover relocates inbox objects to the processed or failed area with a
// copy-verify-delete sequence. The destination key derives from the source
// object's last-modified time, so retrying a crashed move lands on the
// same destination: an existing destination means the copy already
// happened and only the delete remains.
type Mover struct {
	Store           object.Store
	ProcessedPrefix string
	FailedPrefix    string
	ProcessedBy     string

	VerifyAttempts int
	VerifyDelay    time.Duration
	Now            func() time.Time
}

// NewMover wires a Mover with default verification bounds.
func NewMover(store object.Store, processedPrefix, failedPrefix, processedBy string) *Mover {
	return &Mover{
		Store:           store,
		ProcessedPrefix: processedPrefix,
		FailedPrefix:    failedPrefix,
		ProcessedBy:     processedBy,
		VerifyAttempts:  5,
		VerifyDelay:     200 * time.Millisecond,
		Now:             time.Now,
	}
}

// MoveProcessed relocates a successfully ingested inbox object.
func (m *Mover) MoveProcessed(ctx context.Context, src object.Info) error {
	return m.move(ctx, src, m.ProcessedPrefix, nil)
}

// MoveFailed relocates a failed inbox object, recording the cause in its
// tags so operators can triage from the failed area alone.
func (m *Mover) MoveFailed(ctx context.Context, src object.Info, cause error) error {
	extra := map[string]string{
		tagErrorMessage: sanitizeTagValue(cause.Error()),
		tagErrorTime:    m.Now().UTC().Format(time.RFC3339),
	}
	return m.move(ctx, src, m.FailedPrefix, extra)
}

func (m *Mover) move(ctx context.Context, src object.Info, destPrefix string, extraTags map[string]string) error {
	dstKey := m.DestinationKey(destPrefix, src)

	tags := map[string]string{
		tagProcessedAt: m.Now().UTC().Format(time.RFC3339),
		tagProcessedBy: m.ProcessedBy,
		tagSourceKey:   src.Key,
	}
	for k, v := range extraTags {
		tags[k] = v
	}

	exists, err := m.Store.Exists(ctx, dstKey)
	if err != nil {
		return fmt.Errorf("check destination key=%s: %w", dstKey, err)
	}
	if exists {
		telemetry.Info("destination already exists, completing delete only", map[string]any{
			"sourceKey": src.Key, "destKey": dstKey,
		})
	} else {
		if err := m.Store.Copy(ctx, src.Key, dstKey, tags); err != nil {
			return fmt.Errorf("copy key=%s to %s: %w", src.Key, dstKey, err)
		}
		if err := m.verify(ctx, dstKey); err != nil {
			return err
		}
	}

	if err := m.Store.Delete(ctx, src.Key); err != nil {
		return fmt.Errorf("delete source key=%s: %w", src.Key, err)
	}
	return nil
}

// verify polls the destination a bounded number of times. Copies are
// synchronous on S3 but listing consistency is checked anyway; a missing
// destination after the last attempt aborts the move so the source is
// never deleted without a confirmed copy.
func (m *Mover) verify(ctx context.Context, dstKey string) error {
	attempts := m.VerifyAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		exists, err := m.Store.Exists(ctx, dstKey)
		if err != nil {
			return fmt.Errorf("verify destination key=%s: %w", dstKey, err)
		}
		if exists {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.VerifyDelay):
			}
		}
	}
	return fmt.Errorf("destination key=%s not visible after copy", dstKey)
}

// DestinationKey builds the deterministic destination for a source object:
// <prefix>/<UTC-timestamp>_<flattened source key>.
func (m *Mover) DestinationKey(destPrefix string, src object.Info) string {
	ts := src.LastModified.UTC().Format("20060102T150405Z")
	flattened := strings.ReplaceAll(src.Key, "/", "_")
	return strings.Trim(destPrefix, "/") + "/" + ts + "_" + flattened
}

// sanitizeTagValue trims an error message to the characters and length S3
// accepts in tag values.
func sanitizeTagValue(msg string) string {
	var b strings.Builder
	for _, r := range msg {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune(" +-=._:/@", r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
		if b.Len() >= maxErrorTagLen {
			break
		}
	}
	return strings.TrimSpace(b.String())
}
