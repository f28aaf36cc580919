package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// ErrObjectNotFound is returned when a key does not exist in the bucket.
var ErrObjectNotFound = errors.New("object not found in storage")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// ObjectStorage defines the interface for object storage operations.
// Keys are bucket-relative, slash separated paths.
type ObjectStorage interface {
	// PutObject stores body under key. size may be -1 when unknown.
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error

	// GetObject opens an object for reading. The caller must close the reader.
	GetObject(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)

	// StatObject returns the metadata of an object without reading it.
	StatObject(ctx context.Context, key string) (*ObjectInfo, error)

	// DeleteObject removes an object. Deleting a missing key is not an error.
	DeleteObject(ctx context.Context, key string) error

	// DeleteObjects removes several objects in as few round trips as the backend allows.
	DeleteObjects(ctx context.Context, keys []string) error

	// ListObjects lists every object under prefix, recursively, sorted by key.
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, key string, expires time.Duration) (string, error)
}
