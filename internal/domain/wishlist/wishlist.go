// Package wishlist records products a customer wants to keep an eye on.
package wishlist

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/local-market/internal/domain/access"
	"github.com/xenking/local-market/internal/domain/apperr"
	"github.com/xenking/local-market/internal/domain/product"
)

var (
	ErrNotFound  = apperr.NotFound("wishlist entry not found")
	ErrDuplicate = apperr.Validation("product is already in the wishlist")
)

// Entry is one wishlisted product. ProductID is nil once the product is gone.
type Entry struct {
	ID        string
	UserID    string
	ProductID *string
	CreatedAt time.Time
}

// Repository defines persistence operations for wishlists.
type Repository interface {
	List(ctx context.Context, userID string) ([]Entry, error)
	GetByID(ctx context.Context, id string) (*Entry, error)
	// Create returns ErrDuplicate when the user already wishlisted the product.
	Create(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id string) error
}

// Service manages wishlists.
type Service struct {
	entries  Repository
	products product.Repository
	now      func() time.Time
}

// NewService creates a wishlist Service.
func NewService(entries Repository, products product.Repository) *Service {
	return &Service{entries: entries, products: products, now: time.Now}
}

// List returns the actor's wishlist.
func (s *Service) List(ctx context.Context, actor access.Actor) ([]Entry, error) {
	if err := access.Authorize(actor, access.ActionList, access.OwnedBy(access.KindWishlist, actor.UserID)); err != nil {
		return nil, err
	}
	return s.entries.List(ctx, actor.UserID)
}

// Add wishlists a product for the actor.
func (s *Service) Add(ctx context.Context, actor access.Actor, productID string) (*Entry, error) {
	if err := access.Authorize(actor, access.ActionCreate, access.OwnedBy(access.KindWishlist, actor.UserID)); err != nil {
		return nil, err
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	pid := productID
	e := &Entry{
		ID:        uuid.New().String(),
		UserID:    actor.UserID,
		ProductID: &pid,
		CreatedAt: s.now().UTC(),
	}
	if err := s.entries.Create(ctx, e); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, err
		}
		return nil, errors.Wrap(err, "create wishlist entry")
	}
	return e, nil
}

// Remove deletes one of the actor's wishlist entries.
func (s *Service) Remove(ctx context.Context, actor access.Actor, id string) error {
	if err := access.Authorize(actor, access.ActionDelete, access.OwnedBy(access.KindWishlist, actor.UserID)); err != nil {
		return err
	}
	e, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := access.Authorize(actor, access.ActionDelete, access.OwnedBy(access.KindWishlist, e.UserID)); err != nil {
		return err
	}
	return s.entries.Delete(ctx, id)
}
