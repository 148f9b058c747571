package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-order-catalog/internal/apperr"
	"github.com/ariefcatur/go-order-catalog/internal/postgres"
)

// Repo is the Postgres catalog store.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const productColumns = `product_id, sku, product_name, price, stock_quantity, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, apperr.Storage(err, "read product")
	}
	return p, nil
}

func (r *Repo) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	row := r.DB.QueryRow(ctx, `
		INSERT INTO products(sku, product_name, price, stock_quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING `+productColumns,
		in.SKU, in.Name, in.Price, in.StockQuantity, in.CreatedAt)
	p, err := scanProduct(row)
	if err != nil {
		return Product{}, productWriteErr(err)
	}
	return p, nil
}

func (r *Repo) FindProductByID(ctx context.Context, id int64) (Product, error) {
	return scanProduct(r.DB.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE product_id=$1`, id))
}

func (r *Repo) FindProductBySKU(ctx context.Context, sku string) (Product, error) {
	return scanProduct(r.DB.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE sku=$1`, sku))
}

func (r *Repo) ListProducts(ctx context.Context, page Page) ([]Product, int, error) {
	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, apperr.Storage(err, "count products")
	}

	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+`
		FROM products ORDER BY product_id LIMIT $1 OFFSET $2`, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, apperr.Storage(err, "list products")
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Storage(err, "list products")
	}
	return out, total, nil
}

func (r *Repo) UpdateProduct(ctx context.Context, id int64, in ProductInput) (Product, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE products
		SET sku=$2, product_name=$3, price=$4, stock_quantity=$5, updated_at=NOW()
		WHERE product_id=$1
		RETURNING `+productColumns,
		id, in.SKU, in.Name, in.Price, in.StockQuantity)
	p, err := scanProduct(row)
	if err != nil {
		return Product{}, productWriteErr(err)
	}
	return p, nil
}

func (r *Repo) DeleteProduct(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE product_id=$1`, id)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return ErrProductInUse
		}
		return apperr.Storage(err, "delete product")
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// productWriteErr turns constraint violations into client errors. The CHECK
// constraints mirror the service validation, so they fire only for writers
// that bypass it.
func productWriteErr(err error) error {
	switch {
	case postgres.IsUniqueViolation(err):
		return ErrDuplicateSKU
	case postgres.IsCheckViolation(err):
		return apperr.New(apperr.KindInvalidInput, "price must be greater than 0 and stock quantity at least 0")
	}
	return err
}
