package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/local-market/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository in memory.
type ProductRepository struct {
	s *Store
}

func (r *ProductRepository) List(ctx context.Context, f product.Filter) ([]product.Product, error) {
	defer r.s.rlock(ctx)()
	t := r.s.t
	search := strings.ToLower(f.Search)

	out := make([]product.Product, 0)
	for _, p := range t.products {
		if search != "" {
			category := strings.ToLower(t.categories[p.CategoryID].Name)
			if !strings.Contains(strings.ToLower(p.Name), search) &&
				!strings.Contains(strings.ToLower(p.Brand), search) &&
				!strings.Contains(category, search) {
				continue
			}
		}
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if f.Available != nil && p.IsAvailable != *f.Available {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, productOrder(f.Ordering))
	return out, nil
}

func productOrder(o product.Ordering) func(a, b product.Product) int {
	primary := func(a, b product.Product) int {
		switch strings.TrimPrefix(string(o), "-") {
		case "price":
			return a.Price.Cmp(b.Price)
		case "created_at":
			return a.CreatedAt.Compare(b.CreatedAt)
		default:
			return a.Rating.Cmp(b.Rating)
		}
	}
	desc := o == "" || strings.HasPrefix(string(o), "-")
	return func(a, b product.Product) int {
		c := primary(a, b)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return byCreation(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	}
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	defer r.s.rlock(ctx)()
	p, ok := r.s.t.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	defer r.s.rlock(ctx)()
	out := make([]product.Product, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if p, ok := r.s.t.products[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	defer r.s.wlock(ctx)()
	r.s.t.products[p.ID] = *p
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	defer r.s.wlock(ctx)()
	cur, ok := r.s.t.products[p.ID]
	if !ok {
		return product.ErrNotFound
	}
	next := *p
	next.Rating = cur.Rating
	next.CreatedAt = cur.CreatedAt
	r.s.t.products[p.ID] = next
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	defer r.s.wlock(ctx)()
	if _, ok := r.s.t.products[id]; !ok {
		return product.ErrNotFound
	}
	r.s.t.deleteProduct(id)
	return nil
}

func (r *ProductRepository) SetRating(ctx context.Context, id string, rating decimal.Decimal) error {
	defer r.s.wlock(ctx)()
	p, ok := r.s.t.products[id]
	if !ok {
		return product.ErrNotFound
	}
	p.Rating = rating
	r.s.t.products[id] = p
	return nil
}

// deleteProduct removes a product with the records it owns and detaches the
// records that only reference it.
func (t *tables) deleteProduct(id string) {
	delete(t.products, id)
	for k, v := range t.images {
		if v.ProductID == id {
			delete(t.images, k)
		}
	}
	for k, v := range t.discounts {
		if v.ProductID == id {
			delete(t.discounts, k)
		}
	}
	for k, v := range t.reviews {
		if v.ProductID == id {
			delete(t.reviews, k)
		}
	}
	for k, v := range t.cartItems {
		if v.ProductID == id {
			delete(t.cartItems, k)
		}
	}
	for k, v := range t.wishlists {
		if v.ProductID != nil && *v.ProductID == id {
			v.ProductID = nil
			t.wishlists[k] = v
		}
	}
	for k, o := range t.orders {
		var touched bool
		items := slices.Clone(o.Items)
		for i := range items {
			if items[i].ProductID != nil && *items[i].ProductID == id {
				items[i].ProductID = nil
				touched = true
			}
		}
		if touched {
			o.Items = items
			t.orders[k] = o
		}
	}
}
