package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ErrObjectNotFound is returned by MemoryStore for unknown keys.
var ErrObjectNotFound = errors.New("object not found")

// MemoryStore keeps objects in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	objects    map[string]memoryObject
	publicBase string
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryStore returns an empty store whose public links start with
// publicBase.
func NewMemoryStore(publicBase string) *MemoryStore {
	return &MemoryStore{
		objects:    make(map[string]memoryObject),
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

func (m *MemoryStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("get object %s: %w", key, ErrObjectNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

func (m *MemoryStore) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	if !m.Has(key) {
		return "", fmt.Errorf("presign get %s: %w", key, ErrObjectNotFound)
	}
	return fmt.Sprintf("%s?expires=%d", m.PublicURL(key), int(expiry.Seconds())), nil
}

func (m *MemoryStore) PublicURL(key string) string {
	return joinURL(m.publicBase, key)
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Has reports whether key is stored.
func (m *MemoryStore) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

// Keys lists stored keys.
func (m *MemoryStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}

var (
	_ ObjectStore = (*MinioStore)(nil)
	_ ObjectStore = (*MemoryStore)(nil)
)
