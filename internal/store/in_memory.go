package store

import (
	"context"
	"sync"

	"github.com/abgdnv/catalog/internal/errors"
)

// InMemoryStore implements ProductStore using an in-memory map.
type InMemoryStore struct {
	mu       sync.RWMutex
	products map[string]Product
}

// NewInMemoryStore creates a new instance of InMemoryStore
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		products: make(map[string]Product),
	}
}

// Put stores a copy of the product.
func (s *InMemoryStore) Put(_ context.Context, product Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products[product.ProductID] = product
	return nil
}

// Get retrieves a product by its ID.
func (s *InMemoryStore) Get(_ context.Context, id string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, errors.ErrProductNotFound
	}
	return &p, nil
}

// Scan retrieves all products.
func (s *InMemoryStore) Scan(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		list = append(list, p)
	}
	return list, nil
}

// Delete deletes a product by its ID.
func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.products, id)
	return nil
}
