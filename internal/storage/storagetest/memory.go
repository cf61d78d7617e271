// Package storagetest provides an in-memory storage.ObjectStore for tests.
package storagetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/abduss/filegate/internal/storage"
)

type entry struct {
	data        []byte
	size        int64
	contentType string
}

// Memory is a map-backed ObjectStore. Failure hooks let tests inject
// backend errors per operation.
type Memory struct {
	mu      sync.Mutex
	objects map[string]entry

	PutErr    error
	GetErr    error
	ListErr   error
	DeleteErr error
	PingErr   error

	// UnknownSize makes Get report Size -1, as for a chunked backend response.
	UnknownSize bool

	// ListCalls and Deleted record traffic for assertions.
	ListCalls int
	Deleted   []string
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]entry)}
}

// Seed stores an object directly, bypassing failure hooks.
func (m *Memory) Seed(key string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = entry{data: append([]byte(nil), data...), size: int64(len(data)), contentType: contentType}
}

// SeedSize stores a metadata-only object of the given size (its body is empty).
func (m *Memory) SeedSize(key string, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = entry{size: size, contentType: "application/octet-stream"}
}

// Has reports whether key is stored.
func (m *Memory) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func (m *Memory) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("put object: %w: %w", storage.ErrStoreUnavailable, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = entry{data: data, size: int64(len(data)), contentType: contentType}
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) (*storage.Object, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("get object: %w", storage.ErrNotFound)
	}
	size := int64(len(e.data))
	if m.UnknownSize {
		size = -1
	}
	return &storage.Object{
		Key:         key,
		Size:        size,
		ContentType: e.contentType,
		Body:        io.NopCloser(bytes.NewReader(e.data)),
	}, nil
}

// List pages through keys in lexical order; the continuation token is the
// last key of the previous page, so deletions between pages do not skip keys.
func (m *Memory) List(ctx context.Context, continuationToken string, maxKeys int) (storage.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.ListErr != nil {
		return storage.Page{}, m.ListErr
	}

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if maxKeys < 1 {
		maxKeys = 1000
	}
	start := 0
	if continuationToken != "" {
		start = sort.Search(len(keys), func(i int) bool { return keys[i] > continuationToken })
	}
	end := start + maxKeys
	if end > len(keys) {
		end = len(keys)
	}

	page := storage.Page{}
	for _, k := range keys[start:end] {
		page.Objects = append(page.Objects, storage.ObjectInfo{Key: k, Size: m.objects[k].size})
	}
	if end < len(keys) {
		page.Truncated = true
		page.NextToken = keys[end-1]
	}
	return page, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return m.PingErr
}

var _ storage.ObjectStore = (*Memory)(nil)
