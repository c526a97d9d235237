package media

import (
	"context"
	"sync"
)

// Object is a stored upload.
type Object struct {
	Body        []byte
	ContentType string
}

// MemoryStorage keeps objects in process memory. It backs the "memory"
// storage mode and tests.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string]Object
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]Object)}
}

func (m *MemoryStorage) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b := make([]byte, len(body))
	copy(b, body)
	m.objects[key] = Object{Body: b, ContentType: contentType}
	return nil
}

func (m *MemoryStorage) DeleteObject(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)
	return nil
}

// Get returns the object stored under key.
func (m *MemoryStorage) Get(key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.objects[key]
	return o, ok
}

// Len is the number of stored objects.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.objects)
}
