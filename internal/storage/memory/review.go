package memory

import (
	"context"
	"slices"

	"github.com/xenking/local-market/internal/domain/product"
	"github.com/xenking/local-market/internal/domain/review"
	"github.com/xenking/local-market/internal/domain/wishlist"
)

var (
	_ review.Repository   = (*ReviewRepository)(nil)
	_ wishlist.Repository = (*WishlistRepository)(nil)
)

// ReviewRepository implements review.Repository in memory.
type ReviewRepository struct {
	s *Store
}

func (r *ReviewRepository) List(ctx context.Context, f review.Filter) ([]review.Review, error) {
	defer r.s.rlock(ctx)()
	out := make([]review.Review, 0)
	for _, rv := range r.s.t.reviews {
		if f.UserID != "" && rv.OwnerID() != f.UserID {
			continue
		}
		if f.ProductID != "" && rv.ProductID != f.ProductID {
			continue
		}
		out = append(out, rv)
	}
	slices.SortFunc(out, func(a, b review.Review) int { return -byCreation(a.CreatedAt, b.CreatedAt, b.ID, a.ID) })
	return out, nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*review.Review, error) {
	defer r.s.rlock(ctx)()
	rv, ok := r.s.t.reviews[id]
	if !ok {
		return nil, review.ErrNotFound
	}
	return &rv, nil
}

func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	defer r.s.wlock(ctx)()
	if _, ok := r.s.t.products[rv.ProductID]; !ok {
		return product.ErrNotFound
	}
	r.s.t.reviews[rv.ID] = *rv
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	defer r.s.wlock(ctx)()
	if _, ok := r.s.t.reviews[id]; !ok {
		return review.ErrNotFound
	}
	delete(r.s.t.reviews, id)
	return nil
}

func (r *ReviewRepository) RatingsByProduct(ctx context.Context, productID string) ([]int, error) {
	defer r.s.rlock(ctx)()
	var out []int
	for _, rv := range r.s.t.reviews {
		if rv.ProductID == productID {
			out = append(out, rv.Rating)
		}
	}
	return out, nil
}

// WishlistRepository implements wishlist.Repository in memory.
type WishlistRepository struct {
	s *Store
}

func (r *WishlistRepository) List(ctx context.Context, userID string) ([]wishlist.Entry, error) {
	defer r.s.rlock(ctx)()
	out := make([]wishlist.Entry, 0)
	for _, e := range r.s.t.wishlists {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b wishlist.Entry) int { return byCreation(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (r *WishlistRepository) GetByID(ctx context.Context, id string) (*wishlist.Entry, error) {
	defer r.s.rlock(ctx)()
	e, ok := r.s.t.wishlists[id]
	if !ok {
		return nil, wishlist.ErrNotFound
	}
	return &e, nil
}

func (r *WishlistRepository) Create(ctx context.Context, e *wishlist.Entry) error {
	defer r.s.wlock(ctx)()
	if e.ProductID != nil {
		for _, other := range r.s.t.wishlists {
			if other.UserID == e.UserID && other.ProductID != nil && *other.ProductID == *e.ProductID {
				return wishlist.ErrDuplicate
			}
		}
	}
	r.s.t.wishlists[e.ID] = *e
	return nil
}

func (r *WishlistRepository) Delete(ctx context.Context, id string) error {
	defer r.s.wlock(ctx)()
	if _, ok := r.s.t.wishlists[id]; !ok {
		return wishlist.ErrNotFound
	}
	delete(r.s.t.wishlists, id)
	return nil
}
