package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
// The session manager is the only writer; stores are the readers.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Querier is the subset of *sql.Tx and *sql.DB that stores issue statements
// through.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// QuerierFrom returns the transaction bound to ctx, or fallback when none is
// bound. Tenant-scoped stores must only ever run inside a scoped transaction;
// they pass a nil fallback and let a nil Querier panic surface the misuse.
func QuerierFrom(ctx context.Context, fallback Querier) Querier {
	if t, ok := From(ctx); ok {
		return t
	}
	return fallback
}
