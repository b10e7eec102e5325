package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/example/jewel-storefront/internal/catalog"
)

// CatalogStore is the read model the storefront queries.
type CatalogStore interface {
	Upsert(ctx context.Context, p catalog.Product) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (catalog.Product, bool, error)
	// List returns every product, newest first.
	List(ctx context.Context) ([]catalog.Product, error)
}

// MemoryCatalogStore keeps the read model in a map.
type MemoryCatalogStore struct {
	mu       sync.RWMutex
	products map[string]catalog.Product
}

func NewMemoryCatalogStore() *MemoryCatalogStore {
	return &MemoryCatalogStore{products: make(map[string]catalog.Product)}
}

func (s *MemoryCatalogStore) Upsert(ctx context.Context, p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Images = slices.Clone(p.Images)
	s.products[p.ID] = p
	return nil
}

func (s *MemoryCatalogStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	return nil
}

func (s *MemoryCatalogStore) Get(ctx context.Context, id string) (catalog.Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if ok {
		p.Images = slices.Clone(p.Images)
	}
	return p, ok, nil
}

func (s *MemoryCatalogStore) List(ctx context.Context) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		p.Images = slices.Clone(p.Images)
		out = append(out, p)
	}
	sortNewestFirst(out)
	return out, nil
}

// sortNewestFirst orders by createdAt descending with id as the tie breaker,
// so listings are stable across map iteration.
func sortNewestFirst(products []catalog.Product) {
	slices.SortFunc(products, func(a, b catalog.Product) int {
		if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
