package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-order-catalog/internal/apperr"
	"github.com/ariefcatur/go-order-catalog/internal/catalog"
	"github.com/ariefcatur/go-order-catalog/internal/postgres"
)

// Repo is the Postgres order store. Reservation writes run through WithinTx.
type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

const orderColumns = `order_id, product_id, quantity, status, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var status string
	err := row.Scan(&o.ID, &o.ProductID, &o.Quantity, &status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, apperr.Storage(err, "read order")
	}
	o.Status = Status(status)
	return o, nil
}

func (r *Repo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return apperr.Storage(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Storage(err, "commit transaction")
	}
	return nil
}

func (r *Repo) FindOrder(ctx context.Context, id int64) (Order, error) {
	return scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id=$1`, id))
}

func (r *Repo) ListOrders(ctx context.Context, f ListFilter) ([]Order, int, error) {
	var (
		where []string
		args  []any
	)
	if f.ProductID != 0 {
		args = append(args, f.ProductID)
		where = append(where, fmt.Sprintf("product_id=$%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+cond, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Storage(err, "count orders")
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders`+cond+
		fmt.Sprintf(" ORDER BY order_id LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, apperr.Storage(err, "list orders")
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Storage(err, "list orders")
	}
	return out, total, nil
}

type pgTx struct{ tx pgx.Tx }

// LockProduct takes the row lock that serialises concurrent reservations of
// the same product.
func (t *pgTx) LockProduct(ctx context.Context, productID int64) (catalog.Product, error) {
	var p catalog.Product
	err := t.tx.QueryRow(ctx, `
		SELECT product_id, sku, product_name, price, stock_quantity, created_at, updated_at
		FROM products WHERE product_id=$1 FOR UPDATE`, productID).
		Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	if err != nil {
		return catalog.Product{}, apperr.Storage(err, "lock product")
	}
	return p, nil
}

func (t *pgTx) DecrementStock(ctx context.Context, productID int64, qty int) (catalog.Product, error) {
	var p catalog.Product
	err := t.tx.QueryRow(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = NOW()
		WHERE product_id=$1 AND stock_quantity >= $2
		RETURNING product_id, sku, product_name, price, stock_quantity, created_at, updated_at`,
		productID, qty).
		Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Product{}, apperr.Newf(apperr.KindInsufficientStock,
			"insufficient stock for product %d", productID)
	}
	if err != nil {
		return catalog.Product{}, apperr.Storage(err, "decrement stock")
	}
	return p, nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o Order) (Order, error) {
	created, err := scanOrder(t.tx.QueryRow(ctx, `
		INSERT INTO orders(product_id, quantity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+orderColumns,
		o.ProductID, o.Quantity, string(o.Status), o.CreatedAt, o.UpdatedAt))
	if err != nil {
		return Order{}, orderWriteErr(err)
	}
	return created, nil
}

func (t *pgTx) LockOrder(ctx context.Context, id int64) (Order, error) {
	return scanOrder(t.tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_id=$1 FOR UPDATE`, id))
}

func (t *pgTx) SetOrderStatus(ctx context.Context, id int64, s Status, at time.Time) (Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, `
		UPDATE orders SET status=$2, updated_at=$3 WHERE order_id=$1
		RETURNING `+orderColumns, id, string(s), at))
	if err != nil {
		return Order{}, orderWriteErr(err)
	}
	return o, nil
}

func (t *pgTx) DeleteOrder(ctx context.Context, id int64) error {
	ct, err := t.tx.Exec(ctx, `DELETE FROM orders WHERE order_id=$1`, id)
	if err != nil {
		return apperr.Storage(err, "delete order")
	}
	if ct.RowsAffected() != 1 {
		return ErrOrderNotFound
	}
	return nil
}

func orderWriteErr(err error) error {
	switch {
	case postgres.IsForeignKeyViolation(err):
		return catalog.ErrProductNotFound
	case postgres.IsCheckViolation(err):
		if postgres.ConstraintName(err) == "check_status_known" {
			return apperr.New(apperr.KindInvalidStatus, "status rejected by the orders table")
		}
		return ErrInvalidQuantity
	}
	return err
}
