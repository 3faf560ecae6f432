package database

import "context"

// Transactor runs fn in one atomic scope. Repositories called with the ctx
// passed to fn join the scope; if fn returns an error every write is undone.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
