package assets

import (
	"context"
	"sync"
)

// Object is a stored asset.
type Object struct {
	Body        []byte
	ContentType string
}

// InMemoryStore implements Store using an in-memory map. Used by the memory driver and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string
}

// NewInMemoryStore creates an InMemoryStore whose URLs are rooted at baseURL.
func NewInMemoryStore(baseURL string) *InMemoryStore {
	return &InMemoryStore{
		objects: make(map[string]Object),
		baseURL: baseURL,
	}
}

// Upload stores a copy of body.
func (s *InMemoryStore) Upload(_ context.Context, key string, body []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = Object{Body: append([]byte(nil), body...), ContentType: contentType}
	return ObjectURL(s.baseURL, key), nil
}

// Delete removes the object if present.
func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

// Get returns the object stored under key.
func (s *InMemoryStore) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.objects[key]
	return o, ok
}

// Len returns the number of stored objects.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.objects)
}
