package app

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/local-market/internal/domain/access"
	"github.com/xenking/local-market/internal/domain/auth"
	"github.com/xenking/local-market/internal/domain/cart"
	"github.com/xenking/local-market/internal/domain/catalog"
	"github.com/xenking/local-market/internal/domain/discount"
	"github.com/xenking/local-market/internal/domain/order"
	"github.com/xenking/local-market/internal/domain/product"
	"github.com/xenking/local-market/internal/domain/review"
	"github.com/xenking/local-market/internal/domain/txn"
	"github.com/xenking/local-market/internal/domain/user"
	"github.com/xenking/local-market/internal/domain/wishlist"
	"github.com/xenking/local-market/internal/storage/memory"
	"github.com/xenking/local-market/internal/storage/postgres"
)

// categoryStore is what both backends' category repositories provide.
type categoryStore interface {
	catalog.CategoryRepository
	product.CategoryLookup
}

// userStore is the user repository plus account creation.
type userStore interface {
	user.Repository
	Create(ctx context.Context, u *user.User) error
}

// apiKeyStore is the API key repository plus key registration.
type apiKeyStore interface {
	auth.Repository
	Create(ctx context.Context, info *auth.APIKeyInfo) error
}

// storage is the backend-independent view of a store.
type storage struct {
	tx         txn.Manager
	ping       func(ctx context.Context) error
	users      userStore
	apikeys    apiKeyStore
	banners    catalog.BannerRepository
	categories categoryStore
	images     catalog.ImageRepository
	products   product.Repository
	discounts  discount.Repository
	carts      cart.Repository
	orders     order.Repository
	reviews    review.Repository
	wishlists  wishlist.Repository
	close      func()
}

func (s *storage) Ping(ctx context.Context) error { return s.ping(ctx) }

// openStorage connects the backend named by cfg.Storage. PostgreSQL is
// migrated before use.
func openStorage(ctx context.Context, lg *zap.Logger, cfg *Config) (*storage, error) {
	switch cfg.Storage {
	case StorageMemory:
		lg.Warn("Using in-memory storage, data is lost on restart")
		r := memory.NewRepositories()
		return &storage{
			tx:         r.Store,
			ping:       r.Store.Ping,
			users:      r.Users,
			apikeys:    r.APIKeys,
			banners:    r.Banners,
			categories: r.Categories,
			images:     r.Images,
			products:   r.Products,
			discounts:  r.Discounts,
			carts:      r.Carts,
			orders:     r.Orders,
			reviews:    r.Reviews,
			wishlists:  r.Wishlists,
			close:      func() {},
		}, nil
	case StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		r := postgres.NewRepositories(pool)
		return &storage{
			tx:         r.DB,
			ping:       r.DB.Ping,
			users:      r.Users,
			apikeys:    r.APIKeys,
			banners:    r.Banners,
			categories: r.Categories,
			images:     r.Images,
			products:   r.Products,
			discounts:  r.Discounts,
			carts:      r.Carts,
			orders:     r.Orders,
			reviews:    r.Reviews,
			wishlists:  r.Wishlists,
			close:      pool.Close,
		}, nil
	default:
		return nil, errors.Errorf("unknown storage %q", cfg.Storage)
	}
}

// bootstrapAdmin creates an admin account reachable with key, unless the key
// is already registered.
func bootstrapAdmin(ctx context.Context, st *storage, pepper []byte, key string) error {
	hash := auth.HashKey(pepper, key)
	if _, err := st.apikeys.FindByHash(ctx, hash); err == nil {
		return nil
	} else if !errors.Is(err, auth.ErrUnknownKey) {
		return errors.Wrap(err, "find bootstrap key")
	}

	return st.tx.WithTransaction(ctx, func(ctx context.Context) error {
		u := &user.User{
			ID:        uuid.NewString(),
			Username:  "admin-" + uuid.NewString()[:8],
			Role:      access.RoleAdmin,
			CreatedAt: time.Now().UTC(),
		}
		if err := st.users.Create(ctx, u); err != nil {
			return errors.Wrap(err, "create admin")
		}
		if err := st.apikeys.Create(ctx, &auth.APIKeyInfo{
			ID:      uuid.NewString(),
			KeyHash: hash,
			Name:    "bootstrap",
			UserID:  u.ID,
		}); err != nil {
			return errors.Wrap(err, "create admin key")
		}
		return nil
	})
}
