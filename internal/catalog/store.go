package catalog

import "context"

// Store is the persistence contract for products outside the reservation
// transaction. Implementations return ErrProductNotFound for missing rows and
// ErrDuplicateSKU when the unique sku constraint fires.
type Store interface {
	CreateProduct(ctx context.Context, in ProductInput) (Product, error)
	FindProductByID(ctx context.Context, id int64) (Product, error)
	FindProductBySKU(ctx context.Context, sku string) (Product, error)
	ListProducts(ctx context.Context, page Page) ([]Product, int, error)
	UpdateProduct(ctx context.Context, id int64, in ProductInput) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}
