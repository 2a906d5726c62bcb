// Package cart keeps each customer's pending selection of products and
// turns it into an order at checkout.
package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/local-market/internal/domain/apperr"
	"github.com/xenking/local-market/internal/domain/order"
	"github.com/xenking/local-market/internal/domain/pricing"
	"github.com/xenking/local-market/internal/domain/product"
)

// MaxQuantity bounds one cart line, merged adds included.
const MaxQuantity = order.MaxQuantity

var (
	ErrItemNotFound  = apperr.NotFound("cart item not found")
	ErrEmptyCart     = apperr.Validation("cart is empty")
	ErrQuantityLimit = apperr.Validationf("quantity must be between 1 and %d", MaxQuantity)
)

// Cart belongs to exactly one user and is created on first access.
type Cart struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

// Item is a product in a cart. A cart holds at most one item per product.
type Item struct {
	ID        string
	CartID    string
	ProductID string
	Quantity  int
	CreatedAt time.Time
}

// Line is an item priced at the current instant.
type Line struct {
	Item    Item
	Product product.Product
	Quote   pricing.Quote
	Total   decimal.Decimal
}

// View is a cart with its priced lines.
type View struct {
	Cart  Cart
	Lines []Line
	Total decimal.Decimal
}

// LineTotal is the effective unit price times quantity, rounded to cents.
func LineTotal(q pricing.Quote, quantity int) decimal.Decimal {
	return q.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// Total sums line totals. An empty cart totals zero.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total)
	}
	return total.Round(2)
}

// Repository defines persistence operations for carts.
type Repository interface {
	GetOrCreate(ctx context.Context, userID string) (*Cart, error)
	Items(ctx context.Context, cartID string) ([]Item, error)
	// AddItem inserts a line or, when the product is already in the cart,
	// adds quantity to the existing line. It returns the resulting item, or
	// ErrQuantityLimit when the merged line would exceed MaxQuantity.
	AddItem(ctx context.Context, cartID, productID string, quantity int) (*Item, error)
	// GetItem returns ErrItemNotFound unless the item belongs to the cart.
	GetItem(ctx context.Context, cartID, itemID string) (*Item, error)
	SetQuantity(ctx context.Context, itemID string, quantity int) error
	DeleteItem(ctx context.Context, itemID string) error
	Clear(ctx context.Context, cartID string) error
}
