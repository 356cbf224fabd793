package store

import (
	"context"
	"database/sql"
)

// DBTX is the intersection of *sql.DB and *sql.Tx. Store functions take it
// so the service layer can run them standalone or compose several inside one
// transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
