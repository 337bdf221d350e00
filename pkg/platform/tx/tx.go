package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context so stores participating in a
// multi-entity cascade share it.
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

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Postgres stores resolve it per call so the same store code runs inside or
// outside a cascade transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Resolve returns the context transaction when present, the database otherwise.
func Resolve(ctx context.Context, db *sql.DB) Querier {
	if t, ok := From(ctx); ok {
		return t
	}
	return db
}

// Runner runs a function within a transaction boundary. The memory-backed
// implementation is a passthrough; the postgres implementation opens a real
// transaction and injects it into the context for participating stores.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type passthroughRunner struct{}

// NewPassthroughRunner returns a Runner that simply invokes fn. Used with
// memory stores, where cascades rely on idempotent steps instead of
// transactional rollback.
func NewPassthroughRunner() Runner {
	return passthroughRunner{}
}

func (passthroughRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type sqlRunner struct {
	db *sql.DB
}

// NewSQLRunner returns a Runner that wraps fn in a database transaction and
// exposes it to stores via the context.
func NewSQLRunner(db *sql.DB) Runner {
	return sqlRunner{db: db}
}

func (r sqlRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()
	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	return sqlTx.Commit()
}
