// Package txn declares the transaction boundary shared by domain services.
package txn

import "context"

// Manager runs fn inside a single transactional scope. The context passed to
// fn carries the transaction; repositories called with it join the scope.
// Nested calls join the outer transaction instead of opening a new one.
type Manager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
