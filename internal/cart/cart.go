package cart

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"slices"
	"sync"

	"github.com/example/jewel-storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

// StorageKey is the key the cart is persisted under.
const StorageKey = "cart"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product id is required")
)

// Line is one product in the cart. Name, price and image are copied from the
// product when the line is created and are not refreshed afterwards.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
}

// Subtotal is price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Manager holds the shopper's cart and writes it back to storage after every change.
// A failed write is logged and the in-memory cart keeps the change.
type Manager struct {
	mu      sync.Mutex
	storage Storage
	lines   []Line
}

func NewManager(storage Storage) *Manager {
	return &Manager{storage: storage}
}

// Hydrate replaces the in-memory cart with what storage holds. Missing or
// unreadable data leaves an empty cart. Lines with no product id or a
// quantity below one are dropped, and duplicate lines are merged.
func (m *Manager) Hydrate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lines = nil

	data, ok, err := m.storage.Get(StorageKey)
	if err != nil {
		log.Printf("[Cart] Failed to load cart from storage: %v", err)
		return
	}
	if !ok || len(data) == 0 {
		return
	}

	var stored []Line
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Printf("[Cart] Ignoring malformed stored cart: %v", err)
		return
	}

	for _, l := range stored {
		if l.ProductID == "" || l.Quantity < 1 {
			continue
		}
		if i := m.indexOf(l.ProductID); i >= 0 {
			m.lines[i].Quantity = addQuantity(m.lines[i].Quantity, l.Quantity)
			continue
		}
		m.lines = append(m.lines, l)
	}
}

// Add puts quantity units of p in the cart, merging with an existing line.
func (m *Manager) Add(p catalog.Product, quantity int) error {
	if p.ID == "" {
		return ErrInvalidProduct
	}
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(p.ID); i >= 0 {
		m.lines[i].Quantity = addQuantity(m.lines[i].Quantity, quantity)
	} else {
		m.lines = append(m.lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  quantity,
			Image:     p.ListingImage(),
		})
	}
	m.persist()
	return nil
}

// Remove drops the line for productID whatever its quantity.
func (m *Manager) Remove(productID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lines = slices.DeleteFunc(m.lines, func(l Line) bool {
		return l.ProductID == productID
	})
	m.persist()
}

// AdjustQuantity adds delta to the line for productID. A line that reaches
// zero or below is removed.
func (m *Manager) AdjustQuantity(productID string, delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(productID); i >= 0 {
		m.lines[i].Quantity = addQuantity(m.lines[i].Quantity, delta)
		if m.lines[i].Quantity <= 0 {
			m.lines = slices.Delete(m.lines, i, i+1)
		}
	}
	m.persist()
}

// Clear empties the cart.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lines = nil
	m.persist()
}

// Lines returns a copy of the cart in the order products were first added.
func (m *Manager) Lines() []Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.lines)
}

// Count is the number of distinct products in the cart.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines)
}

// Total is the sum of every line's subtotal.
func (m *Manager) Total() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := decimal.Zero
	for _, l := range m.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// addQuantity saturates at math.MaxInt. q is always a stored quantity of at least one.
func addQuantity(q, delta int) int {
	if delta > 0 && q > math.MaxInt-delta {
		return math.MaxInt
	}
	return q + delta
}

func (m *Manager) indexOf(productID string) int {
	return slices.IndexFunc(m.lines, func(l Line) bool {
		return l.ProductID == productID
	})
}

// persist must be called with mu held.
func (m *Manager) persist() {
	lines := m.lines
	if lines == nil {
		lines = []Line{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		log.Printf("[Cart] Failed to encode cart: %v", err)
		return
	}
	if err := m.storage.Set(StorageKey, data); err != nil {
		log.Printf("[Cart] Failed to persist cart: %v", err)
	}
}
