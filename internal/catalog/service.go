package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ariefcatur/go-order-catalog/internal/apperr"
	"github.com/ariefcatur/go-order-catalog/internal/logger"
)

type Service struct {
	Store Store
	Log   *slog.Logger
	Now   func() time.Time
}

func NewService(store Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{Store: store, Log: log, Now: time.Now}
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	in, err := normalize(in)
	if err != nil {
		return Product{}, err
	}
	if _, err := s.Store.FindProductBySKU(ctx, in.SKU); err == nil {
		return Product{}, ErrDuplicateSKU
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return Product{}, err
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = s.Now().UTC()
	}

	p, err := s.Store.CreateProduct(ctx, in)
	if err != nil {
		return Product{}, err
	}
	logger.FromCtxOr(ctx, s.Log).InfoContext(ctx, "product created", "product_id", p.ID, "sku", p.SKU)
	return p, nil
}

func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, ErrProductNotFound
	}
	return s.Store.FindProductByID(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, page Page) ([]Product, int, error) {
	return s.Store.ListProducts(ctx, page.Normalize())
}

// UpdateProduct replaces the mutable fields of a product. created_at is never
// rewritten.
func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput) (Product, error) {
	in, err := normalize(in)
	if err != nil {
		return Product{}, err
	}
	if _, err := s.GetProduct(ctx, id); err != nil {
		return Product{}, err
	}
	if other, err := s.Store.FindProductBySKU(ctx, in.SKU); err == nil && other.ID != id {
		return Product{}, ErrDuplicateSKU
	} else if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return Product{}, err
	}

	p, err := s.Store.UpdateProduct(ctx, id, in)
	if err != nil {
		return Product{}, err
	}
	logger.FromCtxOr(ctx, s.Log).InfoContext(ctx, "product updated", "product_id", p.ID, "stock_quantity", p.StockQuantity)
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	if err := s.Store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	logger.FromCtxOr(ctx, s.Log).InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}

func normalize(in ProductInput) (ProductInput, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.SKU == "":
		return in, apperr.New(apperr.KindInvalidInput, "sku must not be empty")
	case in.Name == "":
		return in, apperr.New(apperr.KindInvalidInput, "product name must not be empty")
	case !(in.Price > 0):
		return in, apperr.New(apperr.KindInvalidInput, "price must be greater than 0")
	case in.StockQuantity < 0:
		return in, apperr.New(apperr.KindInvalidInput, "stock quantity must be greater than or equal to 0")
	case in.StockQuantity > MaxQuantity:
		return in, apperr.Newf(apperr.KindInvalidInput, "stock quantity must be at most %d", MaxQuantity)
	}
	return in, nil
}
