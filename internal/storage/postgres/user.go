package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/local-market/internal/domain/access"
	"github.com/xenking/local-market/internal/domain/auth"
	"github.com/xenking/local-market/internal/domain/user"
)

const (
	userColumns = `id, username, role, phone, first_name, last_name, city, country, created_at`

	getUserSQL   = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	listUsersSQL = `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`

	createUserSQL = `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	updateUserSQL = `UPDATE users SET phone = $2, first_name = $3, last_name = $4, city = $5, country = $6
		WHERE id = $1`
	// Foreign keys cascade to carts, wishlists and API keys and null out
	// orders.user_id and reviews.user_id.
	deleteUserSQL = `DELETE FROM users WHERE id = $1`

	getAPIKeyByHashSQL = `SELECT id, key_hash, name, user_id
		FROM api_keys WHERE key_hash = $1 AND active = TRUE`

	createAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, user_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key_hash) DO NOTHING`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	db *DB
}

// GetByID returns a single user.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	rows, err := r.db.conn(ctx).Query(ctx, getUserSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting user %q: %w", id, err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user %q: %w", id, err)
	}
	return &u, nil
}

// List returns every user in creation order.
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.db.conn(ctx).Query(ctx, listUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return pgx.CollectRows(rows, scanUser)
}

// Create inserts a user unless one with the same ID exists.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.db.conn(ctx).Exec(ctx, createUserSQL,
		u.ID, u.Username, string(u.Role), u.Phone, u.FirstName, u.LastName, u.City, u.Country, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating user %q: %w", u.ID, err)
	}
	return nil
}

// Update stores the profile fields of u.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	tag, err := r.db.conn(ctx).Exec(ctx, updateUserSQL, u.ID, u.Phone, u.FirstName, u.LastName, u.City, u.Country)
	if err != nil {
		return fmt.Errorf("updating user %q: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// Delete removes a user. Owned rows go through the schema's foreign keys.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, deleteUserSQL, id)
	if err != nil {
		return fmt.Errorf("deleting user %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var (
		u    user.User
		role string
	)
	err := row.Scan(&u.ID, &u.Username, &role, &u.Phone, &u.FirstName, &u.LastName, &u.City, &u.Country, &u.CreatedAt)
	u.Role = access.Role(role)
	return u, err
}

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository provides API key lookups backed by PostgreSQL.
type APIKeyRepository struct {
	db *DB
}

// FindByHash looks up an active API key by its HMAC-SHA256 hash.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.APIKeyInfo, error) {
	var info auth.APIKeyInfo
	err := r.db.conn(ctx).QueryRow(ctx, getAPIKeyByHashSQL, hash).Scan(
		&info.ID, &info.KeyHash, &info.Name, &info.UserID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUnknownKey
		}
		return nil, fmt.Errorf("finding api key by hash: %w", err)
	}
	return &info, nil
}

// Create stores an API key unless its hash is already present.
func (r *APIKeyRepository) Create(ctx context.Context, info *auth.APIKeyInfo) error {
	_, err := r.db.conn(ctx).Exec(ctx, createAPIKeySQL, info.ID, info.KeyHash, info.Name, info.UserID)
	if err != nil {
		return fmt.Errorf("creating api key %q: %w", info.Name, err)
	}
	return nil
}
