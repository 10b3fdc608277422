package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"dms-backend/internal/shared/telemetry"
)

// MeiliEngine implements Engine against a Meilisearch instance.
type MeiliEngine struct {
	client   *meilisearch.Client
	indexUID string
}

// NewMeiliEngine builds an engine for the given host, key, and index uid.
func NewMeiliEngine(host, apiKey, indexUID string) *MeiliEngine {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})
	return &MeiliEngine{client: client, indexUID: indexUID}
}

// EnsureIndex creates the index if missing and applies the attribute
// settings. Reapplying identical settings is a cheap no-op server-side,
// so this runs unconditionally at startup.
func (e *MeiliEngine) EnsureIndex(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := e.client.GetIndex(e.indexUID); err != nil {
		task, createErr := e.client.CreateIndex(&meilisearch.IndexConfig{
			Uid:        e.indexUID,
			PrimaryKey: "id",
		})
		if createErr != nil {
			if strings.Contains(createErr.Error(), "index_already_exists") {
				telemetry.Info("search index already exists", map[string]any{"index": e.indexUID})
			} else {
				return fmt.Errorf("create index %s: %w", e.indexUID, createErr)
			}
		} else if err := e.waitForTask(ctx, task.TaskUID); err != nil {
			return fmt.Errorf("create index %s: %w", e.indexUID, err)
		}
	}

	settings := &meilisearch.Settings{
		SearchableAttributes: SearchableAttributes,
		FilterableAttributes: FilterableAttributes,
		SortableAttributes:   SortableAttributes,
		DisplayedAttributes:  DisplayedAttributes,
	}
	task, err := e.client.Index(e.indexUID).UpdateSettings(settings)
	if err != nil {
		return fmt.Errorf("update index settings %s: %w", e.indexUID, err)
	}
	if err := e.waitForTask(ctx, task.TaskUID); err != nil {
		return fmt.Errorf("update index settings %s: %w", e.indexUID, err)
	}
	return nil
}

// Upsert adds or replaces documents and waits for the engine to confirm
// the task succeeded. A completed call means the documents are durable in
// the index.
func (e *MeiliEngine) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	task, err := e.client.Index(e.indexUID).AddDocuments(docs, "id")
	if err != nil {
		return fmt.Errorf("add documents to %s: %w", e.indexUID, err)
	}
	if err := e.waitForTask(ctx, task.TaskUID); err != nil {
		return fmt.Errorf("add documents to %s: %w", e.indexUID, err)
	}
	return nil
}

// Delete removes one document by id. A missing id still succeeds.
func (e *MeiliEngine) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	task, err := e.client.Index(e.indexUID).DeleteDocument(id)
	if err != nil {
		return fmt.Errorf("delete document %s from %s: %w", id, e.indexUID, err)
	}
	if err := e.waitForTask(ctx, task.TaskUID); err != nil {
		return fmt.Errorf("delete document %s from %s: %w", id, e.indexUID, err)
	}
	return nil
}

// Search runs a query against the index.
func (e *MeiliEngine) Search(ctx context.Context, q Query) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	req := &meilisearch.SearchRequest{
		Limit:  q.Limit,
		Offset: q.Offset,
		Sort:   q.Sort,
	}
	if q.Filter != "" {
		req.Filter = q.Filter
	}

	resp, err := e.client.Index(e.indexUID).Search(q.Text, req)
	if err != nil {
		return Result{}, fmt.Errorf("search %s: %w", e.indexUID, err)
	}

	hits := make([]Document, 0, len(resp.Hits))
	for _, raw := range resp.Hits {
		data, err := json.Marshal(raw)
		if err != nil {
			continue
		}
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}
		hits = append(hits, doc)
	}

	return Result{
		Hits:          hits,
		EstimatedHits: resp.EstimatedTotalHits,
		Limit:         resp.Limit,
		Offset:        resp.Offset,
	}, nil
}

// Health reports whether the engine is reachable.
func (e *MeiliEngine) Health(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := e.client.Health(); err != nil {
		return fmt.Errorf("meilisearch health: %w", err)
	}
	return nil
}

// waitForTask blocks until the async task settles and fails on any
// terminal status other than succeeded.
func (e *MeiliEngine) waitForTask(ctx context.Context, taskUID int64) error {
	task, err := e.client.WaitForTask(taskUID, meilisearch.WaitParams{
		Context:  ctx,
		Interval: 100 * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("wait for task %d: %w", taskUID, err)
	}
	if task.Status != meilisearch.TaskStatusSucceeded {
		return fmt.Errorf("task %d finished with status %s: %s", taskUID, task.Status, task.Error.Message)
	}
	return nil
}

var _ Engine = (*MeiliEngine)(nil)
