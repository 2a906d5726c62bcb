// Package review stores product reviews and keeps every product's rating
// equal to the mean of its reviews.
package review

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/local-market/internal/domain/apperr"
)

// ErrNotFound is returned when a requested review does not exist.
var ErrNotFound = apperr.NotFound("review not found")

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a customer's rating of a product.
type Review struct {
	ID        string
	ProductID string
	// UserID is nil once the author's account is gone.
	UserID    *string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// OwnerID returns the author's ID, empty when detached.
func (r *Review) OwnerID() string {
	if r.UserID == nil {
		return ""
	}
	return *r.UserID
}

// Filter narrows a review listing. Empty fields match everything.
type Filter struct {
	UserID    string
	ProductID string
}

// Repository defines persistence operations for reviews.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Review, error)
	GetByID(ctx context.Context, id string) (*Review, error)
	Create(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id string) error
	// RatingsByProduct returns the rating value of every current review of
	// the product.
	RatingsByProduct(ctx context.Context, productID string) ([]int, error)
}

// RatingWriter stores a product's derived rating.
type RatingWriter interface {
	SetRating(ctx context.Context, productID string, rating decimal.Decimal) error
}

// Mean is the arithmetic mean of ratings rounded to one decimal place.
// No ratings yield zero.
func Mean(ratings []int) decimal.Decimal {
	if len(ratings) == 0 {
		return decimal.Zero
	}
	var sum int64
	for _, r := range ratings {
		sum += int64(r)
	}
	return decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(ratings)))).Round(1)
}

// Aggregator recomputes product ratings from reviews.
type Aggregator struct {
	reviews  Repository
	products RatingWriter
}

// NewAggregator creates an Aggregator.
func NewAggregator(reviews Repository, products RatingWriter) *Aggregator {
	return &Aggregator{reviews: reviews, products: products}
}

// Recompute sets the product's rating to the mean of its current reviews.
func (a *Aggregator) Recompute(ctx context.Context, productID string) error {
	ratings, err := a.reviews.RatingsByProduct(ctx, productID)
	if err != nil {
		return err
	}
	return a.products.SetRating(ctx, productID, Mean(ratings))
}
