package catalog

import (
	"cmp"
	"net/url"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the ordering applied after filtering.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortNameAsc   SortKey = "name-asc"
	SortNameDesc  SortKey = "name-desc"
)

// ParseSortKey maps a query value to a SortKey. Unknown values sort newest first.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc:
		return k
	default:
		return SortNewest
	}
}

// Criteria describes what the shopper asked to see.
// A nil price bound is unset; both bounds are inclusive.
type Criteria struct {
	Search   string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     SortKey
}

// DefaultCriteria shows every category, newest first.
func DefaultCriteria() Criteria {
	return Criteria{Category: CategoryAll, Sort: SortNewest}
}

// ParseCriteria reads q, category, min, max and sort from query values.
// Unparseable prices are treated as unset.
func ParseCriteria(v url.Values) Criteria {
	c := DefaultCriteria()
	c.Search = v.Get("q")
	if cat := v.Get("category"); cat != "" {
		c.Category = cat
	}
	c.MinPrice = parsePrice(v.Get("min"))
	c.MaxPrice = parsePrice(v.Get("max"))
	c.Sort = ParseSortKey(v.Get("sort"))
	return c
}

func parsePrice(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// Filter returns the products matching c in the order c asks for.
// The input slice is never modified.
func Filter(products []Product, c Criteria) []Product {
	res := make([]Product, 0, len(products))

	var query string
	if strings.TrimSpace(c.Search) != "" {
		query = strings.ToLower(c.Search)
	}

	for _, p := range products {
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		if c.Category != "" && c.Category != CategoryAll && p.Category != c.Category {
			continue
		}
		if c.MinPrice != nil && p.Price.LessThan(*c.MinPrice) {
			continue
		}
		if c.MaxPrice != nil && p.Price.GreaterThan(*c.MaxPrice) {
			continue
		}
		res = append(res, p)
	}

	sortProducts(res, c.Sort)
	return res
}

func sortProducts(products []Product, key SortKey) {
	switch key {
	case SortPriceAsc:
		slices.SortStableFunc(products, func(a, b Product) int {
			return a.Price.Cmp(b.Price)
		})
	case SortPriceDesc:
		slices.SortStableFunc(products, func(a, b Product) int {
			return b.Price.Cmp(a.Price)
		})
	case SortNameAsc, SortNameDesc:
		// Collators keep internal buffers and are not safe to share.
		col := collate.New(language.English)
		desc := key == SortNameDesc
		slices.SortStableFunc(products, func(a, b Product) int {
			if desc {
				return col.CompareString(b.Name, a.Name)
			}
			return col.CompareString(a.Name, b.Name)
		})
	default:
		slices.SortStableFunc(products, func(a, b Product) int {
			return cmp.Compare(b.CreatedAt, a.CreatedAt)
		})
	}
}

// PriceRange returns the cheapest and dearest price in products.
// ok is false for an empty slice.
func PriceRange(products []Product) (lo, hi decimal.Decimal, ok bool) {
	for i, p := range products {
		if i == 0 {
			lo, hi = p.Price, p.Price
			continue
		}
		lo = decimal.Min(lo, p.Price)
		hi = decimal.Max(hi, p.Price)
	}
	return lo, hi, len(products) > 0
}
