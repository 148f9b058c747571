package catalog

import "github.com/ariefcatur/go-order-catalog/internal/apperr"

var (
	ErrProductNotFound = apperr.New(apperr.KindNotFound, "product not found")
	ErrDuplicateSKU    = apperr.New(apperr.KindConflict, "product with this SKU already exists")
	ErrProductInUse    = apperr.New(apperr.KindConflict, "product is referenced by existing orders")
)
