package cart

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/example/jewel-storefront/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStorage rejects every write, like a browser store over quota.
type failingStorage struct {
	SetCalls int
}

func (s *failingStorage) Get(key string) ([]byte, bool, error) { return nil, false, nil }

func (s *failingStorage) Set(key string, value []byte) error {
	s.SetCalls++
	return errors.New("quota exceeded")
}

func newTestManager() (*Manager, *MemoryStorage) {
	storage := NewMemoryStorage()
	return NewManager(storage), storage
}

func ring(id, p string) catalog.Product {
	return catalog.Product{
		ID:     id,
		Name:   "Ring " + id,
		Price:  decimal.RequireFromString(p),
		Image:  "https://cdn.example.com/" + id + ".jpg",
		Images: []string{"https://cdn.example.com/" + id + "-front.jpg"},
	}
}

func storedLines(t *testing.T, s *MemoryStorage) []Line {
	t.Helper()
	data, ok, err := s.Get(StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	var lines []Line
	require.NoError(t, json.Unmarshal(data, &lines))
	return lines
}

// ============================================
// Add Tests
// ============================================

func TestManager_Add_NewLineSnapshotsProduct(t *testing.T) {
	m, storage := newTestManager()

	require.NoError(t, m.Add(ring("a", "500"), 1))

	lines := m.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "a", lines[0].ProductID)
	assert.Equal(t, "Ring a", lines[0].Name)
	assert.True(t, lines[0].Price.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 1, lines[0].Quantity)
	assert.Equal(t, "https://cdn.example.com/a-front.jpg", lines[0].Image)
	assert.Len(t, storedLines(t, storage), 1)
}

func TestManager_Add_SameProductTwiceMergesLines(t *testing.T) {
	m, storage := newTestManager()

	require.NoError(t, m.Add(ring("a", "500"), 1))
	require.NoError(t, m.Add(ring("a", "500"), 1))

	lines := m.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 2, storedLines(t, storage)[0].Quantity)
}

func TestManager_Add_KeepsSnapshotPrice(t *testing.T) {
	m, _ := newTestManager()

	require.NoError(t, m.Add(ring("a", "500"), 1))
	require.NoError(t, m.Add(ring("a", "900"), 2))

	lines := m.Lines()
	assert.True(t, lines[0].Price.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestManager_Add_InvalidInput(t *testing.T) {
	m, storage := newTestManager()

	assert.ErrorIs(t, m.Add(ring("a", "500"), 0), ErrInvalidQuantity)
	assert.ErrorIs(t, m.Add(ring("a", "500"), -2), ErrInvalidQuantity)
	assert.ErrorIs(t, m.Add(catalog.Product{Name: "nameless"}, 1), ErrInvalidProduct)

	assert.Empty(t, m.Lines())
	_, ok, _ := storage.Get(StorageKey)
	assert.False(t, ok, "rejected adds must not write")
}

// ============================================
// Remove / AdjustQuantity Tests
// ============================================

func TestManager_Remove(t *testing.T) {
	m, storage := newTestManager()
	require.NoError(t, m.Add(ring("a", "500"), 3))
	require.NoError(t, m.Add(ring("b", "1200"), 1))

	m.Remove("a")

	lines := m.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "b", lines[0].ProductID)
	assert.Len(t, storedLines(t, storage), 1)
}

func TestManager_Remove_UnknownIsNoop(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.Add(ring("a", "500"), 1))

	m.Remove("missing")

	assert.Len(t, m.Lines(), 1)
}

func TestManager_AdjustQuantity(t *testing.T) {
	tests := []struct {
		name          string
		delta         int
		expectedLines int
		expectedQty   int
	}{
		{"increase", 2, 1, 5},
		{"decrease", -1, 1, 2},
		{"to exactly zero removes", -3, 0, 0},
		{"below zero removes", -10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, storage := newTestManager()
			require.NoError(t, m.Add(ring("a", "500"), 3))

			m.AdjustQuantity("a", tt.delta)

			lines := m.Lines()
			require.Len(t, lines, tt.expectedLines)
			if tt.expectedLines > 0 {
				assert.Equal(t, tt.expectedQty, lines[0].Quantity)
			}
			for _, l := range storedLines(t, storage) {
				assert.Positive(t, l.Quantity)
			}
		})
	}
}

func TestManager_AdjustQuantity_UnknownIsNoop(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.Add(ring("a", "500"), 1))

	m.AdjustQuantity("missing", -1)

	assert.Equal(t, 1, m.Lines()[0].Quantity)
}

// ============================================
// Total / Count / Clear Tests
// ============================================

func TestManager_Total(t *testing.T) {
	m, _ := newTestManager()
	assert.True(t, m.Total().IsZero())

	require.NoError(t, m.Add(ring("a", "500"), 2))
	require.NoError(t, m.Add(ring("b", "1200.50"), 1))

	assert.Equal(t, "2200.5", m.Total().String())
	assert.Equal(t, 2, m.Count())
}

func TestManager_Clear(t *testing.T) {
	m, storage := newTestManager()
	require.NoError(t, m.Add(ring("a", "500"), 2))

	m.Clear()

	assert.Empty(t, m.Lines())
	data, _, _ := storage.Get(StorageKey)
	assert.JSONEq(t, `[]`, string(data))
}

func TestManager_Lines_ReturnsCopy(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.Add(ring("a", "500"), 1))

	lines := m.Lines()
	lines[0].Quantity = 99

	assert.Equal(t, 1, m.Lines()[0].Quantity)
}

// ============================================
// Persistence Failure Tests
// ============================================

func TestManager_PersistFailureKeepsInMemoryState(t *testing.T) {
	storage := &failingStorage{}
	m := NewManager(storage)

	require.NoError(t, m.Add(ring("a", "500"), 1))
	m.AdjustQuantity("a", 1)

	assert.Equal(t, 2, storage.SetCalls)
	require.Len(t, m.Lines(), 1)
	assert.Equal(t, 2, m.Lines()[0].Quantity)
}

// ============================================
// Hydrate Tests
// ============================================

func TestManager_Hydrate_RestoresLines(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(StorageKey, []byte(
		`[{"productId":"a","name":"Ring A","price":500,"quantity":2,"image":"a.jpg"}]`,
	)))
	m := NewManager(storage)

	m.Hydrate()

	lines := m.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Ring A", lines[0].Name)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, lines[0].Price.Equal(decimal.NewFromInt(500)))
}

func TestManager_Hydrate_MalformedFallsBackToEmpty(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"string", `"hello"`},
		{"object", `{"productId":"a"}`},
		{"number", `42`},
		{"null", `null`},
		{"empty", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewMemoryStorage()
			require.NoError(t, storage.Set(StorageKey, []byte(tt.data)))
			m := NewManager(storage)

			assert.NotPanics(t, m.Hydrate)
			assert.Empty(t, m.Lines())
		})
	}
}

func TestManager_Hydrate_DropsInvalidAndMergesDuplicates(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(StorageKey, []byte(`[
		{"productId":"a","name":"A","price":100,"quantity":1},
		{"productId":"","name":"ghost","price":100,"quantity":1},
		{"productId":"b","name":"B","price":100,"quantity":0},
		{"productId":"a","name":"A","price":100,"quantity":2}
	]`)))
	m := NewManager(storage)

	m.Hydrate()

	lines := m.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "a", lines[0].ProductID)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestManager_Hydrate_MergedQuantitySaturates(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(StorageKey, []byte(`[
		{"productId":"a","name":"A","price":100,"quantity":9223372036854775807},
		{"productId":"a","name":"A","price":100,"quantity":1}
	]`)))
	m := NewManager(storage)

	m.Hydrate()

	lines := m.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, math.MaxInt, lines[0].Quantity)
}

func TestManager_QuantityNeverWraps(t *testing.T) {
	m, _ := newTestManager()
	require.NoError(t, m.Add(ring("a", "1"), math.MaxInt))

	require.NoError(t, m.Add(ring("a", "1"), 1))
	assert.Equal(t, math.MaxInt, m.Lines()[0].Quantity)

	m.AdjustQuantity("a", math.MaxInt)
	assert.Equal(t, math.MaxInt, m.Lines()[0].Quantity)

	m.AdjustQuantity("a", math.MinInt)
	assert.Empty(t, m.Lines())
}

func TestManager_Hydrate_NothingStored(t *testing.T) {
	m, _ := newTestManager()

	m.Hydrate()

	assert.Empty(t, m.Lines())
}

func TestManager_Hydrate_ReplacesInMemoryCart(t *testing.T) {
	storage := NewMemoryStorage()
	first := NewManager(storage)
	second := NewManager(storage)

	require.NoError(t, first.Add(ring("a", "500"), 1))
	require.NoError(t, second.Add(ring("b", "900"), 1))

	// Last writer wins; re-hydrating picks up the other process's write.
	first.Hydrate()

	lines := first.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "b", lines[0].ProductID)
}
