package orders

import (
	"github.com/ariefcatur/go-order-catalog/internal/apperr"
	"github.com/ariefcatur/go-order-catalog/internal/catalog"
)

var (
	ErrOrderNotFound   = apperr.New(apperr.KindNotFound, "order not found")
	ErrInvalidQuantity = apperr.Newf(apperr.KindInvalidInput, "quantity must be between 1 and %d", catalog.MaxQuantity)
	ErrTerminalDelete  = apperr.New(apperr.KindTerminalState, "cannot delete order in terminal state")
)

func insufficientStock(p catalog.Product, requested int) error {
	return apperr.Newf(apperr.KindInsufficientStock,
		"insufficient stock for product %d: requested %d, available %d",
		p.ID, requested, p.StockQuantity)
}
