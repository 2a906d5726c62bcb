package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/local-market/internal/domain/access"
	"github.com/xenking/local-market/internal/domain/apperr"
	"github.com/xenking/local-market/internal/domain/order"
	"github.com/xenking/local-market/internal/domain/pricing"
	"github.com/xenking/local-market/internal/domain/product"
	"github.com/xenking/local-market/internal/domain/txn"
)

// Service manages carts.
type Service struct {
	carts    Repository
	products product.Repository
	prices   *pricing.Resolver
	orders   *order.Service
	tx       txn.Manager
}

// NewService creates a cart Service.
func NewService(
	carts Repository,
	products product.Repository,
	prices *pricing.Resolver,
	orders *order.Service,
	tx txn.Manager,
) *Service {
	return &Service{
		carts:    carts,
		products: products,
		prices:   prices,
		orders:   orders,
		tx:       tx,
	}
}

func (s *Service) open(ctx context.Context, actor access.Actor, action access.Action) (*Cart, error) {
	if err := access.Authorize(actor, action, access.OwnedBy(access.KindCart, actor.UserID)); err != nil {
		return nil, err
	}
	c, err := s.carts.GetOrCreate(ctx, actor.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	return c, nil
}

// Get returns the actor's cart priced at the current instant.
func (s *Service) Get(ctx context.Context, actor access.Actor) (*View, error) {
	c, err := s.open(ctx, actor, access.ActionRetrieve)
	if err != nil {
		return nil, err
	}
	items, err := s.carts.Items(ctx, c.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}
	lines, err := s.price(ctx, items)
	if err != nil {
		return nil, err
	}
	return &View{Cart: *c, Lines: lines, Total: Total(lines)}, nil
}

func (s *Service) price(ctx context.Context, items []Item) ([]Line, error) {
	if len(items) == 0 {
		return []Line{}, nil
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	quotes, err := s.prices.QuoteMany(ctx, products, s.prices.Now())
	if err != nil {
		return nil, errors.Wrap(err, "quote products")
	}
	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]Line, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		q := quotes[p.ID]
		lines = append(lines, Line{Item: it, Product: p, Quote: q, Total: LineTotal(q, it.Quantity)})
	}
	return lines, nil
}

// Add puts quantity units of a product into the actor's cart, merging with
// an existing line for the same product.
func (s *Service) Add(ctx context.Context, actor access.Actor, productID string, quantity int) (*Item, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return nil, ErrQuantityLimit
	}
	c, err := s.open(ctx, actor, access.ActionCreate)
	if err != nil {
		return nil, err
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, apperr.Validationf("product %s does not exist", productID)
		}
		return nil, errors.Wrap(err, "get product")
	}
	it, err := s.carts.AddItem(ctx, c.ID, productID, quantity)
	if err != nil {
		if errors.Is(err, ErrQuantityLimit) {
			return nil, err
		}
		return nil, errors.Wrap(err, "add item")
	}
	return it, nil
}

// UpdateQuantity replaces the quantity of one of the actor's cart items.
func (s *Service) UpdateQuantity(ctx context.Context, actor access.Actor, itemID string, quantity int) (*Item, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return nil, ErrQuantityLimit
	}
	c, err := s.open(ctx, actor, access.ActionUpdate)
	if err != nil {
		return nil, err
	}
	it, err := s.carts.GetItem(ctx, c.ID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.carts.SetQuantity(ctx, it.ID, quantity); err != nil {
		return nil, errors.Wrap(err, "set quantity")
	}
	it.Quantity = quantity
	return it, nil
}

// Remove deletes one of the actor's cart items.
func (s *Service) Remove(ctx context.Context, actor access.Actor, itemID string) error {
	c, err := s.open(ctx, actor, access.ActionDelete)
	if err != nil {
		return err
	}
	it, err := s.carts.GetItem(ctx, c.ID, itemID)
	if err != nil {
		return err
	}
	return s.carts.DeleteItem(ctx, it.ID)
}

// Checkout turns the actor's cart into a pending order and empties the cart.
// Both happen in one transaction.
func (s *Service) Checkout(ctx context.Context, actor access.Actor, contact order.Contact) (*order.Order, error) {
	c, err := s.open(ctx, actor, access.ActionUpdate)
	if err != nil {
		return nil, err
	}

	var placed *order.Order
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		items, err := s.carts.Items(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("list cart items: %w", err)
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}
		lines := make([]order.LineRequest, len(items))
		for i, it := range items {
			lines[i] = order.LineRequest{ProductID: it.ProductID, Quantity: it.Quantity}
		}
		o, err := s.orders.Create(ctx, actor, contact, lines)
		if err != nil {
			return err
		}
		placed = o
		return s.carts.Clear(ctx, c.ID)
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}
