// Package postgres implements the domain repositories on PostgreSQL with
// raw SQL over pgx. Transactions travel in the context so repositories
// join the caller's transaction when there is one.
package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/local-market/db"
	"github.com/xenking/local-market/internal/domain/txn"
)

const uniqueViolation = "23505"

// NewPool creates a pgxpool.Pool configured with shopspring/decimal support
// for NUMERIC columns.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, db.Schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type txKey struct{}

var _ txn.Manager = (*DB)(nil)

// DB hands out the pool or the transaction bound to a context.
type DB struct {
	pool *pgxpool.Pool
}

// New wraps pool.
func New(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// Ping checks connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

func (d *DB) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return d.pool
}

// WithTransaction runs fn in a transaction that is committed when fn returns
// nil and rolled back otherwise. Calls nested inside fn reuse the outer
// transaction.
func (d *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	return pgx.BeginFunc(ctx, d.pool, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Repositories bundles every repository over one DB.
type Repositories struct {
	DB         *DB
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

// NewRepositories builds every repository over pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	d := New(pool)
	return &Repositories{
		DB:         d,
		Users:      &UserRepository{db: d},
		APIKeys:    &APIKeyRepository{db: d},
		Banners:    &BannerRepository{db: d},
		Categories: &CategoryRepository{db: d},
		Images:     &ImageRepository{db: d},
		Products:   &ProductRepository{db: d},
		Discounts:  &DiscountRepository{db: d},
		Carts:      &CartRepository{db: d},
		Orders:     &OrderRepository{db: d},
		Reviews:    &ReviewRepository{db: d},
		Wishlists:  &WishlistRepository{db: d},
	}
}
