// Package discount holds time-boxed percentage reductions on products and
// the rules that keep them consistent.
package discount

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/local-market/internal/domain/apperr"
)

// ErrNotFound is returned when a requested discount does not exist.
var ErrNotFound = apperr.NotFound("discount not found")

var hundred = decimal.NewFromInt(100)

// Discount is a percentage reduction of one product's list price that
// applies between StartDate and EndDate, both inclusive, while Active.
type Discount struct {
	ID         string
	Title      string
	ProductID  string
	Percentage decimal.Decimal
	StartDate  time.Time
	EndDate    time.Time
	Active     bool
	CreatedAt  time.Time
}

// Covers reports whether the discount qualifies at the given instant.
func (d Discount) Covers(at time.Time) bool {
	return d.Active && !at.Before(d.StartDate) && !at.After(d.EndDate)
}

// Overlaps reports whether the two discount windows share at least one
// instant. Activity is not considered.
func (d Discount) Overlaps(other Discount) bool {
	return !other.StartDate.After(d.EndDate) && !other.EndDate.Before(d.StartDate)
}

// Validate checks the discount's own fields.
func (d Discount) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return apperr.Validation("title is required")
	}
	if d.ProductID == "" {
		return apperr.Validation("product is required")
	}
	if d.Percentage.IsNegative() || d.Percentage.GreaterThan(hundred) {
		return apperr.Validation("percentage must be between 0 and 100")
	}
	if !d.Percentage.Equal(d.Percentage.Round(2)) {
		return apperr.Validation("percentage must have at most 2 decimal places")
	}
	if !d.EndDate.After(d.StartDate) {
		return apperr.Validation("end date must be after start date")
	}
	return nil
}

// OverlapError reports an active discount window colliding with another.
type OverlapError struct {
	ProductID  string
	ConflictID string
}

func (e *OverlapError) Error() string {
	return "product " + e.ProductID + " already has an active discount in this period (" + e.ConflictID + ")"
}

// Kind classifies the error as a validation failure.
func (e *OverlapError) Kind() apperr.Kind { return apperr.KindValidation }

// CheckOverlap returns an OverlapError when d is active and any other active
// discount in existing shares part of its window. Entries with d's ID are
// skipped so an update does not collide with its previous version.
func CheckOverlap(d Discount, existing []Discount) error {
	if !d.Active {
		return nil
	}
	for _, other := range existing {
		if other.ID == d.ID || !other.Active || other.ProductID != d.ProductID {
			continue
		}
		if d.Overlaps(other) {
			return &OverlapError{ProductID: d.ProductID, ConflictID: other.ID}
		}
	}
	return nil
}

// Repository defines persistence operations for discounts.
type Repository interface {
	List(ctx context.Context) ([]Discount, error)
	GetByID(ctx context.Context, id string) (*Discount, error)
	// ListByProducts returns every discount, active or not, of the given products.
	ListByProducts(ctx context.Context, productIDs []string) ([]Discount, error)
	// ListActiveByProduct returns the active discounts of one product. Inside
	// a transaction it serializes concurrent writers for that product.
	ListActiveByProduct(ctx context.Context, productID string) ([]Discount, error)
	Create(ctx context.Context, d *Discount) error
	Update(ctx context.Context, d *Discount) error
	Delete(ctx context.Context, id string) error
}
