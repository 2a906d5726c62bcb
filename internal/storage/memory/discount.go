package memory

import (
	"context"
	"slices"

	"github.com/xenking/local-market/internal/domain/discount"
	"github.com/xenking/local-market/internal/domain/product"
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository in memory.
type DiscountRepository struct {
	s *Store
}

func (r *DiscountRepository) collect(keep func(discount.Discount) bool) []discount.Discount {
	out := make([]discount.Discount, 0)
	for _, d := range r.s.t.discounts {
		if keep(d) {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b discount.Discount) int { return byCreation(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out
}

func (r *DiscountRepository) List(ctx context.Context) ([]discount.Discount, error) {
	defer r.s.rlock(ctx)()
	return r.collect(func(discount.Discount) bool { return true }), nil
}

func (r *DiscountRepository) GetByID(ctx context.Context, id string) (*discount.Discount, error) {
	defer r.s.rlock(ctx)()
	d, ok := r.s.t.discounts[id]
	if !ok {
		return nil, discount.ErrNotFound
	}
	return &d, nil
}

func (r *DiscountRepository) ListByProducts(ctx context.Context, productIDs []string) ([]discount.Discount, error) {
	defer r.s.rlock(ctx)()
	return r.collect(func(d discount.Discount) bool { return slices.Contains(productIDs, d.ProductID) }), nil
}

// ListActiveByProduct relies on the caller's transaction holding the store
// lock for serialization.
func (r *DiscountRepository) ListActiveByProduct(ctx context.Context, productID string) ([]discount.Discount, error) {
	defer r.s.rlock(ctx)()
	return r.collect(func(d discount.Discount) bool { return d.Active && d.ProductID == productID }), nil
}

func (r *DiscountRepository) Create(ctx context.Context, d *discount.Discount) error {
	defer r.s.wlock(ctx)()
	if _, ok := r.s.t.products[d.ProductID]; !ok {
		return product.ErrNotFound
	}
	r.s.t.discounts[d.ID] = *d
	return nil
}

func (r *DiscountRepository) Update(ctx context.Context, d *discount.Discount) error {
	defer r.s.wlock(ctx)()
	cur, ok := r.s.t.discounts[d.ID]
	if !ok {
		return discount.ErrNotFound
	}
	next := *d
	next.CreatedAt = cur.CreatedAt
	r.s.t.discounts[d.ID] = next
	return nil
}

func (r *DiscountRepository) Delete(ctx context.Context, id string) error {
	defer r.s.wlock(ctx)()
	if _, ok := r.s.t.discounts[id]; !ok {
		return discount.ErrNotFound
	}
	delete(r.s.t.discounts, id)
	return nil
}
