package command

import "github.com/example/jewel-storefront/internal/domain/product"

// Product Commands
type CreateProduct struct {
	product.Input
}

type UpdateProduct struct {
	ProductID string `json:"productId"`
	product.Input
}

type DeleteProduct struct {
	ProductID string `json:"productId"`
}
