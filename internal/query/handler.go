package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/jewel-storefront/internal/catalog"
	"github.com/example/jewel-storefront/internal/infrastructure/store"
	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

type Handler struct {
	catalog store.CatalogStore
}

func NewHandler(catalog store.CatalogStore) *Handler {
	return &Handler{catalog: catalog}
}

// ListProducts returns the whole catalog, newest first.
func (h *Handler) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	products, err := h.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// ListFiltered applies c to the catalog.
func (h *Handler) ListFiltered(ctx context.Context, c catalog.Criteria) ([]catalog.Product, error) {
	products, err := h.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Filter(products, c), nil
}

func (h *Handler) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	p, ok, err := h.catalog.Get(ctx, id)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	if !ok {
		return catalog.Product{}, ErrProductNotFound
	}
	return p, nil
}

// Facets summarizes the catalog for the filter sidebar.
type Facets struct {
	Categories []CategoryCount `json:"categories"`
	MinPrice   decimal.Decimal `json:"minPrice"`
	MaxPrice   decimal.Decimal `json:"maxPrice"`
	Total      int             `json:"total"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Facets counts products per category in display order and reports the
// catalog's price range. Both prices are zero for an empty catalog.
func (h *Handler) Facets(ctx context.Context) (Facets, error) {
	products, err := h.ListProducts(ctx)
	if err != nil {
		return Facets{}, err
	}

	counts := make(map[string]int, len(catalog.Categories))
	for _, p := range products {
		counts[p.Category]++
	}

	f := Facets{Categories: make([]CategoryCount, 0, len(catalog.Categories)), Total: len(products)}
	for _, c := range catalog.Categories {
		f.Categories = append(f.Categories, CategoryCount{Category: c, Count: counts[c]})
	}
	if lo, hi, ok := catalog.PriceRange(products); ok {
		f.MinPrice, f.MaxPrice = lo, hi
	}
	return f, nil
}
