// Package pg holds the postgres plumbing shared by the repositories. The open
// transaction travels in the context, so repositories stay unaware of it.
package pg

//go:generate mockgen -source=pg.go -destination=mock_pg.go -package=pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of pgxpool.Pool used by repositories. pgxmock pools
// satisfy it as well.
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type TransactionalFn func(ctx context.Context) error

// TXManager runs fn inside a transaction. Nested calls join the outer one.
type TXManager interface {
	Begin(ctx context.Context, fn TransactionalFn) error
}
