package order

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/local-market/internal/domain/apperr"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusDelivering Status = "delivering"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// MaxQuantity bounds the quantity of a single order or cart line.
const MaxQuantity = 100

// ParseStatus validates a status value.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusDelivering, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", apperr.Validationf("unknown order status %q", s)
	}
}

// Contact is the delivery information captured with an order.
type Contact struct {
	FirstName string
	LastName  string
	Phone     string
	Address   string
}

// Validate requires every contact field.
func (c Contact) Validate() error {
	for _, f := range []struct{ name, v string }{
		{"first_name", c.FirstName},
		{"last_name", c.LastName},
		{"phone", c.Phone},
		{"address", c.Address},
	} {
		if strings.TrimSpace(f.v) == "" {
			return apperr.Validationf("%s is required", f.name)
		}
	}
	return nil
}

// Order is a placed order. Its items and contact fields never change after
// creation; only Status does.
type Order struct {
	ID string
	// UserID is nil once the customer account is gone.
	UserID    *string
	Contact   Contact
	Status    Status
	CreatedAt time.Time
	Items     []Item
}

// OverallPrice sums the frozen item totals.
func (o *Order) OverallPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.TotalPrice)
	}
	return total.Round(2)
}

// OwnerID returns the ordering user's ID, empty when detached.
func (o *Order) OwnerID() string {
	if o.UserID == nil {
		return ""
	}
	return *o.UserID
}

// Item is one materialized order line.
type Item struct {
	ID      string
	OrderID string
	// ProductID is nil once the product is deleted.
	ProductID   *string
	ProductName string
	Quantity    int
	// TotalPrice is the discounted unit price times quantity at creation.
	TotalPrice decimal.Decimal
}

// LineRequest asks for quantity units of a product.
type LineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Filter narrows an order listing.
type Filter struct {
	// UserID restricts the listing to one customer; empty lists everyone.
	UserID string
	Status Status
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create writes the order and all its items.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f Filter) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error
}
