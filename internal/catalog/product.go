package catalog

import (
	"slices"

	"github.com/shopspring/decimal"
)

func init() {
	// Storefront clients send and expect prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Category values. CategoryAll is a filter selector, never stored on a product.
const (
	CategoryAll       = "all"
	CategoryRings     = "rings"
	CategoryNecklaces = "necklaces"
	CategoryBracelets = "bracelets"
	CategoryEarrings  = "earrings"
	CategoryPendants  = "pendants"
)

// MaxImages is the largest gallery a product may carry.
const MaxImages = 6

// Categories lists the categories a product may belong to, in display order.
var Categories = []string{
	CategoryRings,
	CategoryNecklaces,
	CategoryBracelets,
	CategoryEarrings,
	CategoryPendants,
}

// IsValidCategory reports whether c can be stored on a product.
func IsValidCategory(c string) bool {
	return slices.Contains(Categories, c)
}

// Product is the catalog record served to storefront clients.
// Timestamps are epoch milliseconds.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Images      []string        `json:"images,omitempty"`
	CreatedAt   int64           `json:"createdAt"`
	UpdatedAt   int64           `json:"updatedAt"`
}

// Gallery returns the ordered image list, falling back to the primary image.
func (p Product) Gallery() []string {
	if len(p.Images) > 0 {
		return slices.Clone(p.Images)
	}
	if p.Image == "" {
		return nil
	}
	return []string{p.Image}
}

// ListingImage is the image shown on cards and snapshotted into cart lines.
func (p Product) ListingImage() string {
	if len(p.Images) > 0 && p.Images[0] != "" {
		return p.Images[0]
	}
	return p.Image
}
