package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/xenking/local-market/internal/domain/cart"
	"github.com/xenking/local-market/internal/domain/product"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository in memory.
type CartRepository struct {
	s *Store
}

func (r *CartRepository) GetOrCreate(ctx context.Context, userID string) (*cart.Cart, error) {
	defer r.s.wlock(ctx)()
	for _, c := range r.s.t.carts {
		if c.UserID == userID {
			return &c, nil
		}
	}
	c := cart.Cart{ID: uuid.New().String(), UserID: userID, CreatedAt: r.s.now().UTC()}
	r.s.t.carts[c.ID] = c
	return &c, nil
}

func (r *CartRepository) Items(ctx context.Context, cartID string) ([]cart.Item, error) {
	defer r.s.rlock(ctx)()
	out := make([]cart.Item, 0)
	for _, it := range r.s.t.cartItems {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b cart.Item) int { return byCreation(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

// AddItem merges into the existing line for the product under the write
// lock, so concurrent adds never produce two lines.
func (r *CartRepository) AddItem(ctx context.Context, cartID, productID string, quantity int) (*cart.Item, error) {
	defer r.s.wlock(ctx)()
	t := r.s.t
	if _, ok := t.products[productID]; !ok {
		return nil, product.ErrNotFound
	}
	for id, it := range t.cartItems {
		if it.CartID == cartID && it.ProductID == productID {
			if it.Quantity+quantity > cart.MaxQuantity {
				return nil, cart.ErrQuantityLimit
			}
			it.Quantity += quantity
			t.cartItems[id] = it
			return &it, nil
		}
	}
	it := cart.Item{
		ID:        uuid.New().String(),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: r.s.now().UTC(),
	}
	t.cartItems[it.ID] = it
	return &it, nil
}

func (r *CartRepository) GetItem(ctx context.Context, cartID, itemID string) (*cart.Item, error) {
	defer r.s.rlock(ctx)()
	it, ok := r.s.t.cartItems[itemID]
	if !ok || it.CartID != cartID {
		return nil, cart.ErrItemNotFound
	}
	return &it, nil
}

func (r *CartRepository) SetQuantity(ctx context.Context, itemID string, quantity int) error {
	defer r.s.wlock(ctx)()
	it, ok := r.s.t.cartItems[itemID]
	if !ok {
		return cart.ErrItemNotFound
	}
	it.Quantity = quantity
	r.s.t.cartItems[itemID] = it
	return nil
}

func (r *CartRepository) DeleteItem(ctx context.Context, itemID string) error {
	defer r.s.wlock(ctx)()
	if _, ok := r.s.t.cartItems[itemID]; !ok {
		return cart.ErrItemNotFound
	}
	delete(r.s.t.cartItems, itemID)
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, cartID string) error {
	defer r.s.wlock(ctx)()
	for id, it := range r.s.t.cartItems {
		if it.CartID == cartID {
			delete(r.s.t.cartItems, id)
		}
	}
	return nil
}
