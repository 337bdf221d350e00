package payment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	"roboreg/pkg/platform/sentinel"
	"roboreg/pkg/platform/tx"
)

// PostgresStore persists payments in PostgreSQL. The covered team set lives
// in a text[] column; the rejection cascade rewrites it through Update so a
// payment row always mirrors the teams that point back at it.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed payment store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const paymentColumns = `id, organisation_id, event_id, receipt_url, amount, team_ids, status, submitted_at, reviewed_at, reviewed_by, notes`

// Create inserts a payment.
func (s *PostgresStore) Create(ctx context.Context, p *models.Payment) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, uuid.UUID(p.ID), p.OrganisationID.String(), uuid.UUID(p.EventID), p.ReceiptURL, p.Amount,
		pq.Array(teamStrings(p.TeamIDs)), string(p.Status), p.SubmittedAt, p.ReviewedAt, p.ReviewedBy, p.Notes)
	if err != nil {
		return fmt.Errorf("create payment %s: %w", p.ID, err)
	}
	return nil
}

// FindByID resolves a payment.
func (s *PostgresStore) FindByID(ctx context.Context, paymentID id.PaymentID) (*models.Payment, error) {
	q := tx.Resolve(ctx, s.db)
	p, err := scanPayment(q.QueryRowContext(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE id = $1
	`, uuid.UUID(paymentID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find payment %s: %w", paymentID, err)
	}
	return p, nil
}

// ListByOrgEvent returns an organisation's payments for one event.
func (s *PostgresStore) ListByOrgEvent(ctx context.Context, orgID id.OrganisationID, eventID id.EventID) ([]*models.Payment, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE organisation_id = $1 AND event_id = $2
		ORDER BY submitted_at
	`, orgID.String(), uuid.UUID(eventID))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return collectPayments(rows)
}

// ListAll returns every payment, oldest submission first.
func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Payment, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT `+paymentColumns+` FROM payments ORDER BY submitted_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list all payments: %w", err)
	}
	return collectPayments(rows)
}

// FindReferencingTeam returns the payments whose covered set includes the team.
func (s *PostgresStore) FindReferencingTeam(ctx context.Context, teamID id.TeamID) ([]*models.Payment, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE $1 = ANY(team_ids)
		ORDER BY submitted_at
	`, teamID.String())
	if err != nil {
		return nil, fmt.Errorf("find payments for team %s: %w", teamID, err)
	}
	return collectPayments(rows)
}

// Update persists the mutable payment fields.
func (s *PostgresStore) Update(ctx context.Context, p *models.Payment) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE payments
		SET team_ids = $1, status = $2, reviewed_at = $3, reviewed_by = $4, notes = $5
		WHERE id = $6
	`, pq.Array(teamStrings(p.TeamIDs)), string(p.Status), p.ReviewedAt, p.ReviewedBy, p.Notes, uuid.UUID(p.ID))
	if err != nil {
		return fmt.Errorf("update payment %s: %w", p.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Delete removes a payment. Idempotent.
func (s *PostgresStore) Delete(ctx context.Context, paymentID id.PaymentID) error {
	q := tx.Resolve(ctx, s.db)
	if _, err := q.ExecContext(ctx, `DELETE FROM payments WHERE id = $1`, uuid.UUID(paymentID)); err != nil {
		return fmt.Errorf("delete payment %s: %w", paymentID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	var paymentID, eventID uuid.UUID
	var orgID, status string
	var teams pq.StringArray
	err := row.Scan(&paymentID, &orgID, &eventID, &p.ReceiptURL, &p.Amount, &teams, &status,
		&p.SubmittedAt, &p.ReviewedAt, &p.ReviewedBy, &p.Notes)
	if err != nil {
		return nil, err
	}
	p.ID = id.PaymentID(paymentID)
	p.OrganisationID = id.OrganisationID(orgID)
	p.EventID = id.EventID(eventID)
	p.Status = models.PaymentStatus(status)
	p.TeamIDs = make([]id.TeamID, len(teams))
	for i, t := range teams {
		p.TeamIDs[i] = id.TeamID(t)
	}
	return &p, nil
}

func collectPayments(rows *sql.Rows) ([]*models.Payment, error) {
	defer rows.Close()
	var out []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func teamStrings(ids []id.TeamID) []string {
	out := make([]string, len(ids))
	for i, tid := range ids {
		out[i] = tid.String()
	}
	return out
}
