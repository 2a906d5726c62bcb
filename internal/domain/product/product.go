package product

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/local-market/internal/domain/apperr"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = apperr.NotFound("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Brand       string
	Description string
	Price       decimal.Decimal
	Amount      int
	// Rating is derived from the product's reviews and is only written
	// through Repository.SetRating.
	Rating      decimal.Decimal
	IsAvailable bool
	CategoryID  string
	CreatedAt   time.Time
}

// Ordering selects the sort order of a product listing.
type Ordering string

const (
	OrderByPrice         Ordering = "price"
	OrderByPriceDesc     Ordering = "-price"
	OrderByRating        Ordering = "rating"
	OrderByRatingDesc    Ordering = "-rating"
	OrderByCreatedAt     Ordering = "created_at"
	OrderByCreatedAtDesc Ordering = "-created_at"
)

// DefaultOrdering lists the best rated products first.
const DefaultOrdering = OrderByRatingDesc

// ParseOrdering validates an ordering parameter. Empty input selects
// DefaultOrdering.
func ParseOrdering(s string) (Ordering, error) {
	switch o := Ordering(s); o {
	case "":
		return DefaultOrdering, nil
	case OrderByPrice, OrderByPriceDesc, OrderByRating, OrderByRatingDesc, OrderByCreatedAt, OrderByCreatedAtDesc:
		return o, nil
	default:
		return "", apperr.Validationf("unsupported ordering %q", s)
	}
}

// Filter narrows a product listing.
type Filter struct {
	// Search matches name, brand or category name, case-insensitively.
	Search     string
	CategoryID string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Available  *bool
	Ordering   Ordering
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Create(ctx context.Context, p *Product) error
	// Update writes every editable field. It never touches Rating.
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	SetRating(ctx context.Context, id string, rating decimal.Decimal) error
}

// CategoryLookup reports whether a category exists.
type CategoryLookup interface {
	CategoryExists(ctx context.Context, id string) (bool, error)
}
