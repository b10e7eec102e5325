package mocks

import (
	"context"
	"sync"

	"github.com/example/jewel-storefront/internal/catalog"
	"github.com/example/jewel-storefront/internal/infrastructure/store"
)

// MockCatalogStore wraps the in-memory read store and records writes.
type MockCatalogStore struct {
	inner *store.MemoryCatalogStore

	mu          sync.Mutex
	UpsertCalls []catalog.Product
	DeleteCalls []string
	Err         error
}

func NewMockCatalogStore() *MockCatalogStore {
	return &MockCatalogStore{inner: store.NewMemoryCatalogStore()}
}

func (m *MockCatalogStore) Upsert(ctx context.Context, p catalog.Product) error {
	m.mu.Lock()
	m.UpsertCalls = append(m.UpsertCalls, p)
	err := m.Err
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.inner.Upsert(ctx, p)
}

func (m *MockCatalogStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	m.DeleteCalls = append(m.DeleteCalls, id)
	err := m.Err
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.inner.Delete(ctx, id)
}

func (m *MockCatalogStore) Get(ctx context.Context, id string) (catalog.Product, bool, error) {
	if err := m.currentErr(); err != nil {
		return catalog.Product{}, false, err
	}
	return m.inner.Get(ctx, id)
}

func (m *MockCatalogStore) List(ctx context.Context) ([]catalog.Product, error) {
	if err := m.currentErr(); err != nil {
		return nil, err
	}
	return m.inner.List(ctx)
}

func (m *MockCatalogStore) currentErr() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}
