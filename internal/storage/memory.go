package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// MemoryStorage is a process-local ObjectStorage. It backs the "memory"
// driver for local development and is used throughout the tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string]memoryObject),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStorage) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("put object %q: size mismatch, declared %d, read %d", key, size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType, lastModified: m.now()}
	return nil
}

func (m *MemoryStorage) GetObject(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.info(key), nil
}

func (m *MemoryStorage) StatObject(ctx context.Context, key string) (*ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return obj.info(key), nil
}

func (m *MemoryStorage) DeleteObject(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStorage) DeleteObjects(ctx context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.objects, key)
	}
	return nil
}

func (m *MemoryStorage) ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var objects []ObjectInfo
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, *obj.info(key))
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (m *MemoryStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	if _, err := m.StatObject(ctx, key); err != nil {
		return "", err
	}
	q := url.Values{"expires": {m.now().Add(expires).Format(time.RFC3339)}}
	return "memory:///" + key + "?" + q.Encode(), nil
}

// Len returns the number of stored objects.
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (o memoryObject) info(key string) *ObjectInfo {
	sum := md5.Sum(o.data)
	return &ObjectInfo{
		Key:          key,
		Size:         int64(len(o.data)),
		ContentType:  o.contentType,
		LastModified: o.lastModified,
		ETag:         hex.EncodeToString(sum[:]),
	}
}
