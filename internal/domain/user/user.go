// Package user exposes the customer directory and self-service profiles.
package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/local-market/internal/domain/access"
	"github.com/xenking/local-market/internal/domain/apperr"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = apperr.NotFound("user not found")

// User is a customer or administrator account.
type User struct {
	ID        string
	Username  string
	Role      access.Role
	Phone     string
	FirstName string
	LastName  string
	City      string
	Country   string
	CreatedAt time.Time
}

// Actor returns the identity the user acts under.
func (u *User) Actor() access.Actor {
	return access.Actor{UserID: u.ID, Role: u.Role}
}

// Profile holds the self-editable fields of an account. Nil fields keep
// their stored value.
type Profile struct {
	Phone     *string
	FirstName *string
	LastName  *string
	City      *string
	Country   *string
}

func (p Profile) apply(u *User) {
	for _, f := range []struct {
		src *string
		dst *string
	}{
		{p.Phone, &u.Phone},
		{p.FirstName, &u.FirstName},
		{p.LastName, &u.LastName},
		{p.City, &u.City},
		{p.Country, &u.Country},
	} {
		if f.src != nil {
			*f.dst = strings.TrimSpace(*f.src)
		}
	}
}

// Repository defines persistence operations for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
	// Update stores the profile fields of u.
	Update(ctx context.Context, u *User) error
	// Delete removes the account with its cart, wishlist and API keys.
	// Orders and reviews are kept with their user reference cleared.
	Delete(ctx context.Context, id string) error
}

// Service serves the user directory.
type Service struct {
	users Repository
}

// NewService creates a user Service.
func NewService(users Repository) *Service {
	return &Service{users: users}
}

// Me returns the actor's own account.
func (s *Service) Me(ctx context.Context, actor access.Actor) (*User, error) {
	if err := access.Authorize(actor, access.ActionRetrieve, access.OwnedBy(access.KindUser, actor.UserID)); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, actor.UserID)
}

// List returns every account. Only admins may list users.
func (s *Service) List(ctx context.Context, actor access.Actor) ([]User, error) {
	if err := access.Authorize(actor, access.ActionList, access.Of(access.KindUser)); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// UpdateProfile edits the actor's own profile.
func (s *Service) UpdateProfile(ctx context.Context, actor access.Actor, p Profile) (*User, error) {
	if err := access.Authorize(actor, access.ActionUpdate, access.OwnedBy(access.KindUser, actor.UserID)); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	p.apply(u)
	if err := s.users.Update(ctx, u); err != nil {
		return nil, errors.Wrap(err, "update user")
	}
	return u, nil
}

// Delete removes the actor's own account.
func (s *Service) Delete(ctx context.Context, actor access.Actor) error {
	if err := access.Authorize(actor, access.ActionDelete, access.OwnedBy(access.KindUser, actor.UserID)); err != nil {
		return err
	}
	return s.users.Delete(ctx, actor.UserID)
}
