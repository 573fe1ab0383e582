package store

import (
	"context"
	"database/sql"
)

// DBTX is the query surface the task stores need. Both *sql.DB and *sql.Tx
// satisfy it, so a task status transition can run on the shared pool or
// inside a caller's transaction alongside a thing update.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
