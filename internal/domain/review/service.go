package review

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/local-market/internal/domain/access"
	"github.com/xenking/local-market/internal/domain/apperr"
	"github.com/xenking/local-market/internal/domain/product"
	"github.com/xenking/local-market/internal/domain/txn"
)

// Service manages reviews. Every mutation recomputes the product rating in
// the same transaction.
type Service struct {
	reviews  Repository
	products product.Repository
	agg      *Aggregator
	tx       txn.Manager
	now      func() time.Time
}

// NewService creates a review Service.
func NewService(reviews Repository, products product.Repository, tx txn.Manager) *Service {
	return &Service{
		reviews:  reviews,
		products: products,
		agg:      NewAggregator(reviews, products),
		tx:       tx,
		now:      time.Now,
	}
}

// List returns the actor's reviews, optionally for one product. Admins see
// every author's reviews.
func (s *Service) List(ctx context.Context, actor access.Actor, productID string) ([]Review, error) {
	f := Filter{ProductID: productID}
	if !actor.IsAdmin() {
		f.UserID = actor.UserID
	}
	if err := access.Authorize(actor, access.ActionList, access.OwnedBy(access.KindReview, f.UserID)); err != nil {
		return nil, err
	}
	reviews, err := s.reviews.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	return reviews, nil
}

// Get returns one review visible to the actor.
func (s *Service) Get(ctx context.Context, actor access.Actor, id string) (*Review, error) {
	if err := access.Authorize(actor, access.ActionRetrieve, access.OwnedBy(access.KindReview, actor.UserID)); err != nil {
		return nil, err
	}
	r, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, access.ActionRetrieve, access.OwnedBy(access.KindReview, r.OwnerID())); err != nil {
		return nil, err
	}
	return r, nil
}

// Create stores a review by the actor and refreshes the product rating.
func (s *Service) Create(ctx context.Context, actor access.Actor, productID string, rating int, comment string) (*Review, error) {
	if err := access.Authorize(actor, access.ActionCreate, access.OwnedBy(access.KindReview, actor.UserID)); err != nil {
		return nil, err
	}
	if rating < MinRating || rating > MaxRating {
		return nil, apperr.Validationf("rating must be between %d and %d", MinRating, MaxRating)
	}

	userID := actor.UserID
	r := &Review{
		ID:        uuid.New().String(),
		ProductID: productID,
		UserID:    &userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: s.now().UTC(),
	}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.products.GetByID(ctx, productID); err != nil {
			return err
		}
		if err := s.reviews.Create(ctx, r); err != nil {
			return err
		}
		return s.agg.Recompute(ctx, productID)
	})
	if err != nil {
		return nil, errors.Wrap(err, "create review")
	}
	return r, nil
}

// Delete removes a review written by the actor, or any review for admins,
// and refreshes the product rating.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	if err := access.Authorize(actor, access.ActionDelete, access.OwnedBy(access.KindReview, actor.UserID)); err != nil {
		return err
	}
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		r, err := s.reviews.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := access.Authorize(actor, access.ActionDelete, access.OwnedBy(access.KindReview, r.OwnerID())); err != nil {
			return err
		}
		if err := s.reviews.Delete(ctx, id); err != nil {
			return err
		}
		return s.agg.Recompute(ctx, r.ProductID)
	})
}
