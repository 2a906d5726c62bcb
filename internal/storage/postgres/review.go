package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/local-market/internal/domain/review"
	"github.com/xenking/local-market/internal/domain/wishlist"
)

const (
	reviewColumns = `id, product_id, user_id, rating, comment, created_at`

	getReviewSQL     = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	createReviewSQL  = `INSERT INTO reviews (` + reviewColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	deleteReviewSQL  = `DELETE FROM reviews WHERE id = $1`
	reviewRatingsSQL = `SELECT rating FROM reviews WHERE product_id = $1`

	wishlistColumns = `id, user_id, product_id, created_at`

	listWishlistSQL   = `SELECT ` + wishlistColumns + ` FROM wishlists WHERE user_id = $1 ORDER BY created_at, id`
	getWishlistSQL    = `SELECT ` + wishlistColumns + ` FROM wishlists WHERE id = $1`
	createWishlistSQL = `INSERT INTO wishlists (` + wishlistColumns + `) VALUES ($1, $2, $3, $4)`
	deleteWishlistSQL = `DELETE FROM wishlists WHERE id = $1`
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository backed by PostgreSQL.
type ReviewRepository struct {
	db *DB
}

func (r *ReviewRepository) List(ctx context.Context, f review.Filter) ([]review.Review, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.ProductID != "" {
		args = append(args, f.ProductID)
		where = append(where, fmt.Sprintf("product_id = $%d", len(args)))
	}
	query := `SELECT ` + reviewColumns + ` FROM reviews`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	return pgx.CollectRows(rows, scanReview)
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*review.Review, error) {
	rows, err := r.db.conn(ctx).Query(ctx, getReviewSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting review %q: %w", id, err)
	}
	rv, err := pgx.CollectExactlyOneRow(rows, scanReview)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, review.ErrNotFound
		}
		return nil, fmt.Errorf("getting review %q: %w", id, err)
	}
	return &rv, nil
}

func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	_, err := r.db.conn(ctx).Exec(ctx, createReviewSQL,
		rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Comment, rv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, deleteReviewSQL, id)
	if err != nil {
		return fmt.Errorf("deleting review %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return review.ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) RatingsByProduct(ctx context.Context, productID string) ([]int, error) {
	rows, err := r.db.conn(ctx).Query(ctx, reviewRatingsSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing ratings of product %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int])
}

func scanReview(row pgx.CollectableRow) (review.Review, error) {
	var rv review.Review
	err := row.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	return rv, err
}

var _ wishlist.Repository = (*WishlistRepository)(nil)

// WishlistRepository implements wishlist.Repository backed by PostgreSQL.
type WishlistRepository struct {
	db *DB
}

func (r *WishlistRepository) List(ctx context.Context, userID string) ([]wishlist.Entry, error) {
	rows, err := r.db.conn(ctx).Query(ctx, listWishlistSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing wishlist of user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanWishlistEntry)
}

func (r *WishlistRepository) GetByID(ctx context.Context, id string) (*wishlist.Entry, error) {
	rows, err := r.db.conn(ctx).Query(ctx, getWishlistSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting wishlist entry %q: %w", id, err)
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanWishlistEntry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wishlist.ErrNotFound
		}
		return nil, fmt.Errorf("getting wishlist entry %q: %w", id, err)
	}
	return &e, nil
}

func (r *WishlistRepository) Create(ctx context.Context, e *wishlist.Entry) error {
	_, err := r.db.conn(ctx).Exec(ctx, createWishlistSQL, e.ID, e.UserID, e.ProductID, e.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return wishlist.ErrDuplicate
		}
		return fmt.Errorf("creating wishlist entry: %w", err)
	}
	return nil
}

func (r *WishlistRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, deleteWishlistSQL, id)
	if err != nil {
		return fmt.Errorf("deleting wishlist entry %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return wishlist.ErrNotFound
	}
	return nil
}

func scanWishlistEntry(row pgx.CollectableRow) (wishlist.Entry, error) {
	var e wishlist.Entry
	err := row.Scan(&e.ID, &e.UserID, &e.ProductID, &e.CreatedAt)
	return e, err
}
