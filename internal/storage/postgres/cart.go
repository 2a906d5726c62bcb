package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/local-market/internal/domain/cart"
)

const (
	getOrCreateCartSQL = `INSERT INTO carts (id, user_id, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, created_at`

	cartItemColumns = `id, cart_id, product_id, quantity, created_at`

	listCartItemsSQL = `SELECT ` + cartItemColumns + ` FROM cart_items WHERE cart_id = $1 ORDER BY created_at, id`
	getCartItemSQL   = `SELECT ` + cartItemColumns + ` FROM cart_items WHERE cart_id = $1 AND id = $2`

	// Duplicate adds accumulate on the existing line in one statement. A merge
	// past the line limit updates nothing and returns no row.
	addCartItemSQL = `INSERT INTO cart_items (` + cartItemColumns + `) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		WHERE cart_items.quantity + EXCLUDED.quantity <= $6
		RETURNING ` + cartItemColumns

	setCartItemQuantitySQL = `UPDATE cart_items SET quantity = $2 WHERE id = $1`
	deleteCartItemSQL      = `DELETE FROM cart_items WHERE id = $1`
	clearCartSQL           = `DELETE FROM cart_items WHERE cart_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	db *DB
}

func (r *CartRepository) GetOrCreate(ctx context.Context, userID string) (*cart.Cart, error) {
	var c cart.Cart
	err := r.db.conn(ctx).QueryRow(ctx, getOrCreateCartSQL, uuid.New().String(), userID, time.Now().UTC()).
		Scan(&c.ID, &c.UserID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting cart of user %q: %w", userID, err)
	}
	return &c, nil
}

func (r *CartRepository) Items(ctx context.Context, cartID string) ([]cart.Item, error) {
	rows, err := r.db.conn(ctx).Query(ctx, listCartItemsSQL, cartID)
	if err != nil {
		return nil, fmt.Errorf("listing items of cart %q: %w", cartID, err)
	}
	return pgx.CollectRows(rows, scanCartItem)
}

func (r *CartRepository) AddItem(ctx context.Context, cartID, productID string, quantity int) (*cart.Item, error) {
	rows, err := r.db.conn(ctx).Query(ctx, addCartItemSQL,
		uuid.New().String(), cartID, productID, quantity, time.Now().UTC(), cart.MaxQuantity,
	)
	if err != nil {
		return nil, fmt.Errorf("adding product %q to cart %q: %w", productID, cartID, err)
	}
	it, err := pgx.CollectExactlyOneRow(rows, scanCartItem)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, cart.ErrQuantityLimit
	}
	if err != nil {
		return nil, fmt.Errorf("adding product %q to cart %q: %w", productID, cartID, err)
	}
	return &it, nil
}

func (r *CartRepository) GetItem(ctx context.Context, cartID, itemID string) (*cart.Item, error) {
	rows, err := r.db.conn(ctx).Query(ctx, getCartItemSQL, cartID, itemID)
	if err != nil {
		return nil, fmt.Errorf("getting cart item %q: %w", itemID, err)
	}
	it, err := pgx.CollectExactlyOneRow(rows, scanCartItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrItemNotFound
		}
		return nil, fmt.Errorf("getting cart item %q: %w", itemID, err)
	}
	return &it, nil
}

func (r *CartRepository) SetQuantity(ctx context.Context, itemID string, quantity int) error {
	tag, err := r.db.conn(ctx).Exec(ctx, setCartItemQuantitySQL, itemID, quantity)
	if err != nil {
		return fmt.Errorf("updating cart item %q: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

func (r *CartRepository) DeleteItem(ctx context.Context, itemID string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, deleteCartItemSQL, itemID)
	if err != nil {
		return fmt.Errorf("deleting cart item %q: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, cartID string) error {
	if _, err := r.db.conn(ctx).Exec(ctx, clearCartSQL, cartID); err != nil {
		return fmt.Errorf("clearing cart %q: %w", cartID, err)
	}
	return nil
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var it cart.Item
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.CreatedAt)
	return it, err
}
