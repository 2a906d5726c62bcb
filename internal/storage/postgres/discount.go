package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/local-market/internal/domain/discount"
)

const (
	discountColumns = `id, title, product_id, percentage, start_date, end_date, active, created_at`

	listDiscountsSQL           = `SELECT ` + discountColumns + ` FROM discounts ORDER BY created_at, id`
	getDiscountSQL             = `SELECT ` + discountColumns + ` FROM discounts WHERE id = $1`
	listDiscountsByProductsSQL = `SELECT ` + discountColumns + ` FROM discounts WHERE product_id = ANY($1)`
	listActiveDiscountsSQL     = `SELECT ` + discountColumns + ` FROM discounts WHERE product_id = $1 AND active`

	// Serializes discount writers per product until the transaction ends.
	lockProductDiscountsSQL = `SELECT pg_advisory_xact_lock(hashtext('discounts:' || $1))`

	createDiscountSQL = `INSERT INTO discounts (` + discountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	updateDiscountSQL = `UPDATE discounts
		SET title = $2, product_id = $3, percentage = $4, start_date = $5, end_date = $6, active = $7
		WHERE id = $1`
	deleteDiscountSQL = `DELETE FROM discounts WHERE id = $1`
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	db *DB
}

func (r *DiscountRepository) List(ctx context.Context) ([]discount.Discount, error) {
	rows, err := r.db.conn(ctx).Query(ctx, listDiscountsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing discounts: %w", err)
	}
	return pgx.CollectRows(rows, scanDiscount)
}

func (r *DiscountRepository) GetByID(ctx context.Context, id string) (*discount.Discount, error) {
	rows, err := r.db.conn(ctx).Query(ctx, getDiscountSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting discount %q: %w", id, err)
	}
	d, err := pgx.CollectExactlyOneRow(rows, scanDiscount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrNotFound
		}
		return nil, fmt.Errorf("getting discount %q: %w", id, err)
	}
	return &d, nil
}

func (r *DiscountRepository) ListByProducts(ctx context.Context, productIDs []string) ([]discount.Discount, error) {
	rows, err := r.db.conn(ctx).Query(ctx, listDiscountsByProductsSQL, productIDs)
	if err != nil {
		return nil, fmt.Errorf("listing discounts by products: %w", err)
	}
	return pgx.CollectRows(rows, scanDiscount)
}

// ListActiveByProduct takes a transaction-scoped advisory lock on the
// product before reading, so two overlapping writes cannot both pass the
// overlap check.
func (r *DiscountRepository) ListActiveByProduct(ctx context.Context, productID string) ([]discount.Discount, error) {
	q := r.db.conn(ctx)
	if _, err := q.Exec(ctx, lockProductDiscountsSQL, productID); err != nil {
		return nil, fmt.Errorf("locking discounts of product %q: %w", productID, err)
	}
	rows, err := q.Query(ctx, listActiveDiscountsSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing active discounts of product %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanDiscount)
}

func (r *DiscountRepository) Create(ctx context.Context, d *discount.Discount) error {
	_, err := r.db.conn(ctx).Exec(ctx, createDiscountSQL,
		d.ID, d.Title, d.ProductID, d.Percentage, d.StartDate, d.EndDate, d.Active, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating discount: %w", err)
	}
	return nil
}

func (r *DiscountRepository) Update(ctx context.Context, d *discount.Discount) error {
	tag, err := r.db.conn(ctx).Exec(ctx, updateDiscountSQL,
		d.ID, d.Title, d.ProductID, d.Percentage, d.StartDate, d.EndDate, d.Active,
	)
	if err != nil {
		return fmt.Errorf("updating discount %q: %w", d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrNotFound
	}
	return nil
}

func (r *DiscountRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, deleteDiscountSQL, id)
	if err != nil {
		return fmt.Errorf("deleting discount %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrNotFound
	}
	return nil
}

func scanDiscount(row pgx.CollectableRow) (discount.Discount, error) {
	var d discount.Discount
	err := row.Scan(&d.ID, &d.Title, &d.ProductID, &d.Percentage, &d.StartDate, &d.EndDate, &d.Active, &d.CreatedAt)
	return d, err
}
