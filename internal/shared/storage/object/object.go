package object

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound indicates the requested object key does not exist.
var ErrNotFound = errors.New("object not found")

// Info describes a stored object.
type Info struct {
	Key          string
	SizeBytes    int64
	ContentType  string
	LastModified time.Time
	Tags         map[string]string
}

// Store defines the contract for the object storage backing both the
// ingestion inbox and durable document storage.
type Store interface {
	// List returns up to max objects under the given key prefix, oldest first.
	List(ctx context.Context, prefix string, max int) ([]Info, error)

	// Stat returns object metadata, including its tags.
	Stat(ctx context.Context, key string) (Info, error)

	// Get fetches the full object body along with its metadata.
	Get(ctx context.Context, key string) ([]byte, Info, error)

	// Put stores the reader contents under key with the given tags.
	Put(ctx context.Context, key string, contentType string, r io.Reader, tags map[string]string) (int64, error)

	// Copy duplicates srcKey to dstKey, replacing the destination's tags.
	Copy(ctx context.Context, srcKey, dstKey string, tags map[string]string) error

	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether the key currently exists.
	Exists(ctx context.Context, key string) (bool, error)
}
