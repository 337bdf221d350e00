package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"roboreg/pkg/platform/tx"
)

// PostgresStore persists audit events. Details are stored as JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	details := event.Details
	if details == nil {
		details = map[string]any{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	q := tx.Resolve(ctx, s.db)
	_, err = q.ExecContext(ctx, `
		INSERT INTO audit_events (id, occurred_at, actor, action, subject, request_id, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.ID, event.OccurredAt, event.Actor, event.Action, event.Subject, event.RequestID, payload)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subject string) ([]Event, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT id, occurred_at, actor, action, subject, request_id, details
		FROM audit_events
		WHERE subject = $1
		ORDER BY occurred_at
	`, subject)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var payload []byte
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.Actor, &e.Action, &e.Subject, &e.RequestID, &payload); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if err := json.Unmarshal(payload, &e.Details); err != nil {
			return nil, fmt.Errorf("unmarshal audit details: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
