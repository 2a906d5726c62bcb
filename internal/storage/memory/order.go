package memory

import (
	"context"
	"slices"

	"github.com/xenking/local-market/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository in memory. Returned orders
// own their item slices.
type OrderRepository struct {
	s *Store
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	defer r.s.wlock(ctx)()
	stored := *o
	stored.Items = slices.Clone(o.Items)
	r.s.t.orders[o.ID] = stored
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	defer r.s.rlock(ctx)()
	o, ok := r.s.t.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Items = slices.Clone(o.Items)
	return &o, nil
}

func (r *OrderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	defer r.s.rlock(ctx)()
	out := make([]order.Order, 0)
	for _, o := range r.s.t.orders {
		if f.UserID != "" && o.OwnerID() != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		o.Items = slices.Clone(o.Items)
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b order.Order) int { return -byCreation(a.CreatedAt, b.CreatedAt, b.ID, a.ID) })
	return out, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	defer r.s.wlock(ctx)()
	o, ok := r.s.t.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	r.s.t.orders[id] = o
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	defer r.s.wlock(ctx)()
	if _, ok := r.s.t.orders[id]; !ok {
		return order.ErrNotFound
	}
	delete(r.s.t.orders, id)
	return nil
}
