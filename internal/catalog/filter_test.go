package catalog

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pricePtr(s string) *decimal.Decimal {
	d := price(s)
	return &d
}

func testProducts() []Product {
	return []Product{
		{ID: "p1", Name: "Gold Ring", Description: "18k band", Price: price("1200"), Category: CategoryRings, CreatedAt: 1000},
		{ID: "p2", Name: "silver necklace", Description: "Fine chain", Price: price("800"), Category: CategoryNecklaces, CreatedAt: 3000},
		{ID: "p3", Name: "Pearl Earrings", Description: "Freshwater pearls with a gold hook", Price: price("500"), Category: CategoryEarrings, CreatedAt: 2000},
		{ID: "p4", Name: "Diamond Ring", Description: "Solitaire", Price: price("5000"), Category: CategoryRings, CreatedAt: 4000},
		{ID: "p5", Name: "Charm Bracelet", Description: "Sterling", Price: price("800"), Category: CategoryBracelets, CreatedAt: 500},
	}
}

func ids(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

// ============================================
// Filter Tests
// ============================================

func TestFilter_DefaultCriteria_NewestFirst(t *testing.T) {
	res := Filter(testProducts(), DefaultCriteria())

	assert.Equal(t, []string{"p4", "p2", "p3", "p1", "p5"}, ids(res))
}

func TestFilter_SearchMatchesNameOrDescription(t *testing.T) {
	tests := []struct {
		name     string
		search   string
		expected []string
	}{
		{"name match is case-insensitive", "RING", []string{"p4", "p3", "p1"}},
		{"description match", "gold", []string{"p3", "p1"}},
		{"substring inside word", "lace", []string{"p2"}},
		{"whitespace only is ignored", "   ", []string{"p4", "p2", "p3", "p1", "p5"}},
		{"no match", "platinum", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultCriteria()
			c.Search = tt.search
			assert.Equal(t, tt.expected, ids(Filter(testProducts(), c)))
		})
	}
}

func TestFilter_Category(t *testing.T) {
	c := DefaultCriteria()
	c.Category = CategoryRings

	assert.Equal(t, []string{"p4", "p1"}, ids(Filter(testProducts(), c)))
}

func TestFilter_EmptyCategoryMeansAll(t *testing.T) {
	c := DefaultCriteria()
	c.Category = ""

	assert.Len(t, Filter(testProducts(), c), 5)
}

func TestFilter_PriceBoundsAreInclusive(t *testing.T) {
	c := DefaultCriteria()
	c.MinPrice = pricePtr("800")
	c.MaxPrice = pricePtr("1200")

	assert.Equal(t, []string{"p2", "p1", "p5"}, ids(Filter(testProducts(), c)))
}

func TestFilter_SortByPrice(t *testing.T) {
	c := DefaultCriteria()
	c.Sort = SortPriceAsc
	res := Filter(testProducts(), c)

	for i := 1; i < len(res); i++ {
		assert.False(t, res[i].Price.LessThan(res[i-1].Price), "prices must not decrease at %d", i)
	}
	// p2 and p5 share a price; stable sort keeps input order.
	assert.Equal(t, []string{"p3", "p2", "p5", "p1", "p4"}, ids(res))

	c.Sort = SortPriceDesc
	assert.Equal(t, []string{"p4", "p1", "p2", "p5", "p3"}, ids(Filter(testProducts(), c)))
}

func TestFilter_SortByNameIsCollated(t *testing.T) {
	c := DefaultCriteria()
	c.Sort = SortNameAsc

	// Collation ignores case, so the lowercase "silver necklace" still sorts last.
	assert.Equal(t, []string{"p5", "p4", "p1", "p3", "p2"}, ids(Filter(testProducts(), c)))

	c.Sort = SortNameDesc
	assert.Equal(t, []string{"p2", "p3", "p1", "p4", "p5"}, ids(Filter(testProducts(), c)))
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	input := testProducts()
	before := ids(input)

	c := DefaultCriteria()
	c.Sort = SortPriceAsc
	_ = Filter(input, c)

	assert.Equal(t, before, ids(input))
}

func TestFilter_SubsetAndIdempotent(t *testing.T) {
	all := testProducts()
	known := map[string]bool{}
	for _, p := range all {
		known[p.ID] = true
	}

	criteria := []Criteria{
		DefaultCriteria(),
		{Search: "ring", Category: CategoryAll, Sort: SortNameAsc},
		{Category: CategoryRings, MinPrice: pricePtr("1000"), Sort: SortPriceDesc},
		{Search: "e", MaxPrice: pricePtr("800"), Sort: SortPriceAsc},
	}

	for _, c := range criteria {
		once := Filter(all, c)
		for _, p := range once {
			assert.True(t, known[p.ID])
		}
		assert.Equal(t, ids(once), ids(Filter(once, c)))
	}
}

func TestFilter_EmptyInput(t *testing.T) {
	res := Filter(nil, DefaultCriteria())

	require.NotNil(t, res)
	assert.Empty(t, res)
}

// ============================================
// ParseCriteria Tests
// ============================================

func TestParseCriteria(t *testing.T) {
	v := url.Values{}
	v.Set("q", "pearl")
	v.Set("category", CategoryEarrings)
	v.Set("min", "100")
	v.Set("max", "abc")
	v.Set("sort", "price-desc")

	c := ParseCriteria(v)

	assert.Equal(t, "pearl", c.Search)
	assert.Equal(t, CategoryEarrings, c.Category)
	require.NotNil(t, c.MinPrice)
	assert.True(t, c.MinPrice.Equal(price("100")))
	assert.Nil(t, c.MaxPrice)
	assert.Equal(t, SortPriceDesc, c.Sort)
}

func TestParseCriteria_Defaults(t *testing.T) {
	c := ParseCriteria(url.Values{})

	assert.Equal(t, CategoryAll, c.Category)
	assert.Equal(t, SortNewest, c.Sort)
	assert.Nil(t, c.MinPrice)
}

func TestParseSortKey_UnknownFallsBackToNewest(t *testing.T) {
	assert.Equal(t, SortNewest, ParseSortKey("cheapest"))
	assert.Equal(t, SortNameDesc, ParseSortKey("name-desc"))
}

// ============================================
// PriceRange / Product Tests
// ============================================

func TestPriceRange(t *testing.T) {
	lo, hi, ok := PriceRange(testProducts())

	require.True(t, ok)
	assert.True(t, lo.Equal(price("500")))
	assert.True(t, hi.Equal(price("5000")))

	_, _, ok = PriceRange(nil)
	assert.False(t, ok)
}

func TestProduct_ListingImage(t *testing.T) {
	p := Product{Image: "a.jpg", Images: []string{"b.jpg", "a.jpg"}}
	assert.Equal(t, "b.jpg", p.ListingImage())

	p.Images = nil
	assert.Equal(t, "a.jpg", p.ListingImage())
	assert.Equal(t, []string{"a.jpg"}, p.Gallery())
}

func TestProduct_PriceIsJSONNumber(t *testing.T) {
	data, err := json.Marshal(Product{ID: "p1", Price: price("1200.5")})
	require.NoError(t, err)

	assert.Contains(t, string(data), `"price":1200.5`)
	assert.Contains(t, string(data), `"createdAt":0`)
}

func TestIsValidCategory(t *testing.T) {
	assert.True(t, IsValidCategory(CategoryPendants))
	assert.False(t, IsValidCategory(CategoryAll))
	assert.False(t, IsValidCategory("watches"))
}
