// Package pricing resolves the effective unit price of a product from its
// list price and discounts.
package pricing

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/local-market/internal/domain/discount"
	"github.com/xenking/local-market/internal/domain/product"
)

var hundred = decimal.NewFromInt(100)

// Quote is the price of one unit of a product at a given instant.
type Quote struct {
	ListPrice decimal.Decimal
	UnitPrice decimal.Decimal
	// Discount is the winning discount, nil when none qualified.
	Discount *discount.Discount
}

// Discounted reports whether a discount was applied.
func (q Quote) Discounted() bool { return q.Discount != nil }

// Best returns the qualifying discount with the highest percentage, or nil.
// Discounts never stack. Equal percentages resolve to the earliest start.
func Best(discounts []discount.Discount, at time.Time) *discount.Discount {
	var best *discount.Discount
	for i := range discounts {
		d := &discounts[i]
		if !d.Covers(at) {
			continue
		}
		if best == nil ||
			d.Percentage.GreaterThan(best.Percentage) ||
			(d.Percentage.Equal(best.Percentage) && d.StartDate.Before(best.StartDate)) {
			best = d
		}
	}
	return best
}

// Apply reduces list by pct percent, rounded to 2 decimal places.
func Apply(list, pct decimal.Decimal) decimal.Decimal {
	return list.Mul(hundred.Sub(pct)).Div(hundred).Round(2)
}

// Resolve computes the quote for list price under the given discounts.
func Resolve(list decimal.Decimal, discounts []discount.Discount, at time.Time) Quote {
	q := Quote{ListPrice: list, UnitPrice: list}
	best := Best(discounts, at)
	if best == nil {
		return q
	}
	d := *best
	q.Discount = &d
	q.UnitPrice = Apply(list, d.Percentage)
	return q
}

// DiscountSource loads discounts for a set of products.
type DiscountSource interface {
	ListByProducts(ctx context.Context, productIDs []string) ([]discount.Discount, error)
}

// Resolver quotes products against the discounts stored for them.
type Resolver struct {
	discounts DiscountSource
	now       func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithClock replaces the wall clock used by Now.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a Resolver. It prices at the wall clock unless
// WithClock is given.
func NewResolver(discounts DiscountSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{discounts: discounts, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Now returns the instant the resolver prices at.
func (r *Resolver) Now() time.Time { return r.now() }

// EffectivePrice returns the quote for p at the given instant.
func (r *Resolver) EffectivePrice(ctx context.Context, p product.Product, at time.Time) (Quote, error) {
	ds, err := r.discounts.ListByProducts(ctx, []string{p.ID})
	if err != nil {
		return Quote{}, errors.Wrap(err, "load discounts")
	}
	return Resolve(p.Price, ds, at), nil
}

// QuoteMany prices every product with a single discount lookup. The result
// is keyed by product ID.
func (r *Resolver) QuoteMany(ctx context.Context, products []product.Product, at time.Time) (map[string]Quote, error) {
	out := make(map[string]Quote, len(products))
	if len(products) == 0 {
		return out, nil
	}
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	ds, err := r.discounts.ListByProducts(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "load discounts")
	}
	byProduct := make(map[string][]discount.Discount, len(products))
	for _, d := range ds {
		byProduct[d.ProductID] = append(byProduct[d.ProductID], d)
	}
	for _, p := range products {
		out[p.ID] = Resolve(p.Price, byProduct[p.ID], at)
	}
	return out, nil
}
