package product

import "github.com/example/jewel-storefront/internal/catalog"

const (
	EventProductCreated = "ProductCreated"
	EventProductUpdated = "ProductUpdated"
	EventProductDeleted = "ProductDeleted"
)

// ProductCreated and ProductUpdated carry the full record so the projector
// never needs the previous state.
type ProductCreated struct {
	Product catalog.Product `json:"product"`
}

type ProductUpdated struct {
	Product catalog.Product `json:"product"`
}

type ProductDeleted struct {
	ProductID string `json:"productId"`
	DeletedAt int64  `json:"deletedAt"`
}
