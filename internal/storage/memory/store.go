// Package memory implements the domain repositories in process memory. It
// backs tests and the "memory" storage mode.
package memory

import (
	"cmp"
	"context"
	"maps"
	"sync"
	"time"

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
)

type tables struct {
	users      map[string]user.User
	apiKeys    map[string]auth.APIKeyInfo // by hash
	banners    map[string]catalog.Banner
	categories map[string]catalog.Category
	images     map[string]catalog.Image
	products   map[string]product.Product
	discounts  map[string]discount.Discount
	carts      map[string]cart.Cart
	cartItems  map[string]cart.Item
	orders     map[string]order.Order
	reviews    map[string]review.Review
	wishlists  map[string]wishlist.Entry
}

func newTables() *tables {
	return &tables{
		users:      map[string]user.User{},
		apiKeys:    map[string]auth.APIKeyInfo{},
		banners:    map[string]catalog.Banner{},
		categories: map[string]catalog.Category{},
		images:     map[string]catalog.Image{},
		products:   map[string]product.Product{},
		discounts:  map[string]discount.Discount{},
		carts:      map[string]cart.Cart{},
		cartItems:  map[string]cart.Item{},
		orders:     map[string]order.Order{},
		reviews:    map[string]review.Review{},
		wishlists:  map[string]wishlist.Entry{},
	}
}

// clone copies every table. Stored values are never mutated in place, so a
// shallow copy of each map is a consistent snapshot.
func (t *tables) clone() *tables {
	return &tables{
		users:      maps.Clone(t.users),
		apiKeys:    maps.Clone(t.apiKeys),
		banners:    maps.Clone(t.banners),
		categories: maps.Clone(t.categories),
		images:     maps.Clone(t.images),
		products:   maps.Clone(t.products),
		discounts:  maps.Clone(t.discounts),
		carts:      maps.Clone(t.carts),
		cartItems:  maps.Clone(t.cartItems),
		orders:     maps.Clone(t.orders),
		reviews:    maps.Clone(t.reviews),
		wishlists:  maps.Clone(t.wishlists),
	}
}

var _ txn.Manager = (*Store)(nil)

// Store holds every table behind one lock. A transaction holds the write
// lock for its whole duration; repositories called with a transaction
// context skip locking.
type Store struct {
	mu  sync.RWMutex
	t   *tables
	now func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{t: newTables(), now: time.Now}
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

func (s *Store) rlock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) wlock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithTransaction runs fn with exclusive access to the store. When fn fails
// every change it made is discarded. Nested calls join the outer
// transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.t.clone()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.t = snapshot
		return err
	}
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Repositories bundles every repository over one Store.
type Repositories struct {
	Store      *Store
	Users      *UserRepository
	APIKeys    *APIKeyRepository
	Banners    *BannerRepository
	Categories *CategoryRepository
	Images     *ImageRepository
	Products   *ProductRepository
	Discounts  *DiscountRepository
	Carts      *CartRepository
	Orders     *OrderRepository
	Reviews    *ReviewRepository
	Wishlists  *WishlistRepository
}

// NewRepositories builds every repository over a fresh Store.
func NewRepositories() *Repositories {
	s := New()
	return &Repositories{
		Store:      s,
		Users:      &UserRepository{s: s},
		APIKeys:    &APIKeyRepository{s: s},
		Banners:    &BannerRepository{s: s},
		Categories: &CategoryRepository{s: s},
		Images:     &ImageRepository{s: s},
		Products:   &ProductRepository{s: s},
		Discounts:  &DiscountRepository{s: s},
		Carts:      &CartRepository{s: s},
		Orders:     &OrderRepository{s: s},
		Reviews:    &ReviewRepository{s: s},
		Wishlists:  &WishlistRepository{s: s},
	}
}

// byCreation orders records by creation time, then ID.
func byCreation(at1, at2 time.Time, id1, id2 string) int {
	if c := at1.Compare(at2); c != 0 {
		return c
	}
	return cmp.Compare(id1, id2)
}
