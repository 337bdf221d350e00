package counter

import (
	"context"
	"database/sql"
	"fmt"

	"roboreg/pkg/platform/tx"
)

// PostgresStore persists named counters in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed counter store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// IncrementAndGet increments the named counter and returns the new value.
// The upsert is a single statement, so two concurrent allocations for the
// same sequence serialize inside the database and can never observe the same
// value.
func (s *PostgresStore) IncrementAndGet(ctx context.Context, name string) (int64, error) {
	q := tx.Resolve(ctx, s.db)
	var value int64
	err := q.QueryRowContext(ctx, `
		INSERT INTO counters (name, value)
		VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value
	`, name).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w", name, err)
	}
	return value, nil
}
