package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/local-market/internal/domain/product"
)

const (
	productColumns = `p.id, p.name, p.brand, p.description, p.price, p.amount, p.rating, p.is_available, p.category_id, p.created_at`

	getProductByIDSQL   = `SELECT ` + productColumns + ` FROM products p WHERE p.id = $1`
	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products p WHERE p.id = ANY($1)`

	createProductSQL = `INSERT INTO products
		(id, name, brand, description, price, amount, rating, is_available, category_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	updateProductSQL = `UPDATE products
		SET name = $2, brand = $3, description = $4, price = $5, amount = $6, is_available = $7, category_id = $8
		WHERE id = $1`

	setProductRatingSQL = `UPDATE products SET rating = $2 WHERE id = $1`
	deleteProductSQL    = `DELETE FROM products WHERE id = $1`
)

var orderClauses = map[product.Ordering]string{
	product.OrderByPrice:         "p.price ASC",
	product.OrderByPriceDesc:     "p.price DESC",
	product.OrderByRating:        "p.rating ASC",
	product.OrderByRatingDesc:    "p.rating DESC",
	product.OrderByCreatedAt:     "p.created_at ASC",
	product.OrderByCreatedAtDesc: "p.created_at DESC",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	db *DB
}

// List returns the products matching f in the requested order.
func (r *ProductRepository) List(ctx context.Context, f product.Filter) ([]product.Product, error) {
	query, args := buildProductQuery(f)
	rows, err := r.db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func buildProductQuery(f product.Filter) (string, []any) {
	var (
		b     strings.Builder
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	b.WriteString(`SELECT ` + productColumns + ` FROM products p`)
	if f.Search != "" {
		b.WriteString(` JOIN categories c ON c.id = p.category_id`)
		n := arg("%" + likeEscaper.Replace(f.Search) + "%")
		where = append(where, fmt.Sprintf("(p.name ILIKE %[1]s OR p.brand ILIKE %[1]s OR c.name ILIKE %[1]s)", n))
	}
	if f.CategoryID != "" {
		where = append(where, "p.category_id = "+arg(f.CategoryID))
	}
	if f.MinPrice != nil {
		where = append(where, "p.price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		where = append(where, "p.price <= "+arg(*f.MaxPrice))
	}
	if f.Available != nil {
		where = append(where, "p.is_available = "+arg(*f.Available))
	}
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	clause, ok := orderClauses[f.Ordering]
	if !ok {
		clause = orderClauses[product.DefaultOrdering]
	}
	b.WriteString(" ORDER BY " + clause + ", p.created_at, p.id")
	return b.String(), args
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.db.conn(ctx).Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.db.conn(ctx).Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.db.conn(ctx).Exec(ctx, createProductSQL,
		p.ID, p.Name, p.Brand, p.Description, p.Price, p.Amount, p.Rating, p.IsAvailable, p.CategoryID, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.db.conn(ctx).Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Brand, p.Description, p.Price, p.Amount, p.IsAvailable, p.CategoryID,
	)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product. Images, discounts, reviews and cart items go
// with it; order items and wishlist entries keep a NULL reference.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) SetRating(ctx context.Context, id string, rating decimal.Decimal) error {
	tag, err := r.db.conn(ctx).Exec(ctx, setProductRatingSQL, id, rating)
	if err != nil {
		return fmt.Errorf("setting rating of product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Brand, &p.Description, &p.Price, &p.Amount,
		&p.Rating, &p.IsAvailable, &p.CategoryID, &p.CreatedAt,
	)
	return p, err
}
