package search

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryEngine is an in-memory Engine for tests and dev mode. Matching is
// substring-based over the searchable fields; filters and sorts beyond the
// tenant filter are not interpreted.
type MemoryEngine struct {
	mu         sync.RWMutex
	docs       map[string]Document
	ensured    bool
	FailUpsert bool
}

// NewMemoryEngine constructs an empty MemoryEngine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{docs: make(map[string]Document)}
}

// EnsureIndex marks the index as configured.
func (e *MemoryEngine) EnsureIndex(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ensured = true
	return nil
}

// Upsert stores documents by id.
func (e *MemoryEngine) Upsert(ctx context.Context, docs []Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FailUpsert {
		return context.DeadlineExceeded
	}
	for _, doc := range docs {
		e.docs[doc.ID] = doc
	}
	return nil
}

// Delete removes a document by id.
func (e *MemoryEngine) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.docs, id)
	return nil
}

// Search matches the query text against searchable fields.
func (e *MemoryEngine) Search(ctx context.Context, q Query) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	needle := strings.ToLower(q.Text)
	var hits []Document
	for _, doc := range e.docs {
		if needle == "" || matches(doc, needle) {
			hits = append(hits, doc)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })

	total := int64(len(hits))
	if q.Offset > 0 {
		if q.Offset >= total {
			hits = nil
		} else {
			hits = hits[q.Offset:]
		}
	}
	if q.Limit > 0 && int64(len(hits)) > q.Limit {
		hits = hits[:q.Limit]
	}
	return Result{Hits: hits, EstimatedHits: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// Health always succeeds.
func (e *MemoryEngine) Health(ctx context.Context) error {
	return ctx.Err()
}

// Len reports the number of indexed documents.
func (e *MemoryEngine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docs)
}

// Get returns an indexed document by id.
func (e *MemoryEngine) Get(id string) (Document, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	doc, ok := e.docs[id]
	return doc, ok
}

func matches(doc Document, needle string) bool {
	for _, field := range []string{doc.Title, doc.Description, doc.Content, doc.FileName, doc.MetadataText} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	for _, tag := range doc.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

var _ Engine = (*MemoryEngine)(nil)
