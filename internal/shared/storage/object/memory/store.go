package memory

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"dms-backend/internal/shared/storage/object"
)

type entry struct {
	data     []byte
	info     object.Info
	sequence uint64
}

// Store is an in-memory implementation of object.Store used in tests
// and as the dev-mode fallback when no bucket is configured.
type Store struct {
	mu      sync.RWMutex
	objects map[string]*entry
	seq     uint64

	// Now is overridable so tests can control object timestamps.
	Now func() time.Time
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		objects: make(map[string]*entry),
		Now:     time.Now,
	}
}

// List returns up to max objects under prefix, oldest first.
func (s *Store) List(ctx context.Context, prefix string, max int) ([]object.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if max <= 0 {
		max = 100
	}

	cleanPrefix := strings.TrimSuffix(prefix, "/") + "/"

	s.mu.RLock()
	matched := make([]*entry, 0)
	for key, e := range s.objects {
		if strings.HasPrefix(key, cleanPrefix) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].info.LastModified.Equal(matched[j].info.LastModified) {
			return matched[i].sequence < matched[j].sequence
		}
		return matched[i].info.LastModified.Before(matched[j].info.LastModified)
	})

	if len(matched) > max {
		matched = matched[:max]
	}
	out := make([]object.Info, 0, len(matched))
	for _, e := range matched {
		out = append(out, copyInfo(e.info))
	}
	return out, nil
}

// Stat returns object metadata including its tags.
func (s *Store) Stat(ctx context.Context, key string) (object.Info, error) {
	if err := ctx.Err(); err != nil {
		return object.Info{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.objects[key]
	if !ok {
		return object.Info{}, object.ErrNotFound
	}
	return copyInfo(e.info), nil
}

// Get fetches the full object body along with its metadata.
func (s *Store) Get(ctx context.Context, key string) ([]byte, object.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, object.Info{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.objects[key]
	if !ok {
		return nil, object.Info{}, object.ErrNotFound
	}
	data := make([]byte, len(e.data))
	copy(data, e.data)
	return data, copyInfo(e.info), nil
}

// Put stores the reader contents under key with the given tags.
func (s *Store) Put(ctx context.Context, key string, contentType string, r io.Reader, tags map[string]string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return 0, err
	}
	data := buf.Bytes()
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.objects[key] = &entry{
		data: data,
		info: object.Info{
			Key:          key,
			SizeBytes:    int64(len(data)),
			ContentType:  contentType,
			LastModified: s.Now().UTC(),
			Tags:         copyTags(tags),
		},
		sequence: s.seq,
	}
	return int64(len(data)), nil
}

// Copy duplicates srcKey to dstKey, replacing the destination's tags.
func (s *Store) Copy(ctx context.Context, srcKey, dstKey string, tags map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.objects[srcKey]
	if !ok {
		return object.ErrNotFound
	}
	data := make([]byte, len(src.data))
	copy(data, src.data)
	s.seq++
	s.objects[dstKey] = &entry{
		data: data,
		info: object.Info{
			Key:          dstKey,
			SizeBytes:    src.info.SizeBytes,
			ContentType:  src.info.ContentType,
			LastModified: s.Now().UTC(),
			Tags:         copyTags(tags),
		},
		sequence: s.seq,
	}
	return nil
}

// Delete removes an object. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Exists reports whether the key currently exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok, nil
}

// Len reports the number of stored objects.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func copyTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}

func copyInfo(info object.Info) object.Info {
	out := info
	out.Tags = copyTags(info.Tags)
	return out
}

var _ object.Store = (*Store)(nil)
