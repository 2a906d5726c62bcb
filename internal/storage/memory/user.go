package memory

import (
	"context"
	"slices"

	"github.com/xenking/local-market/internal/domain/auth"
	"github.com/xenking/local-market/internal/domain/user"
)

var (
	_ user.Repository = (*UserRepository)(nil)
	_ auth.Repository = (*APIKeyRepository)(nil)
)

// UserRepository implements user.Repository in memory.
type UserRepository struct {
	s *Store
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	defer r.s.rlock(ctx)()
	u, ok := r.s.t.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	defer r.s.rlock(ctx)()
	out := make([]user.User, 0, len(r.s.t.users))
	for _, u := range r.s.t.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b user.User) int { return byCreation(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

// Create inserts a user unless one with the same ID exists.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	defer r.s.wlock(ctx)()
	if _, ok := r.s.t.users[u.ID]; !ok {
		r.s.t.users[u.ID] = *u
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	defer r.s.wlock(ctx)()
	if _, ok := r.s.t.users[u.ID]; !ok {
		return user.ErrNotFound
	}
	r.s.t.users[u.ID] = *u
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	defer r.s.wlock(ctx)()
	if _, ok := r.s.t.users[id]; !ok {
		return user.ErrNotFound
	}
	r.s.t.deleteUser(id)
	return nil
}

// deleteUser removes a user with the records it owns and detaches its
// orders and reviews.
func (t *tables) deleteUser(id string) {
	delete(t.users, id)
	for k, v := range t.apiKeys {
		if v.UserID == id {
			delete(t.apiKeys, k)
		}
	}
	for k, c := range t.carts {
		if c.UserID != id {
			continue
		}
		delete(t.carts, k)
		for ik, it := range t.cartItems {
			if it.CartID == c.ID {
				delete(t.cartItems, ik)
			}
		}
	}
	for k, v := range t.wishlists {
		if v.UserID == id {
			delete(t.wishlists, k)
		}
	}
	for k, v := range t.orders {
		if v.UserID != nil && *v.UserID == id {
			v.UserID = nil
			t.orders[k] = v
		}
	}
	for k, v := range t.reviews {
		if v.UserID != nil && *v.UserID == id {
			v.UserID = nil
			t.reviews[k] = v
		}
	}
}

// APIKeyRepository implements auth.Repository in memory.
type APIKeyRepository struct {
	s *Store
}

func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.APIKeyInfo, error) {
	defer r.s.rlock(ctx)()
	info, ok := r.s.t.apiKeys[hash]
	if !ok {
		return nil, auth.ErrUnknownKey
	}
	return &info, nil
}

// Create stores an API key unless its hash is already present.
func (r *APIKeyRepository) Create(ctx context.Context, info *auth.APIKeyInfo) error {
	defer r.s.wlock(ctx)()
	if _, ok := r.s.t.apiKeys[info.KeyHash]; !ok {
		r.s.t.apiKeys[info.KeyHash] = *info
	}
	return nil
}
