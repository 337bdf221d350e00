package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	"roboreg/pkg/platform/sentinel"
	"roboreg/pkg/platform/tx"
)

// PostgresStore persists events in PostgreSQL. Category snapshots are stored
// as JSONB on the event row; registrations get their own table so the
// approval workflow can update a single row without rewriting the event.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed event store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts an event with its category snapshot.
func (s *PostgresStore) Create(ctx context.Context, e *models.Event) error {
	categories, err := json.Marshal(e.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	q := tx.Resolve(ctx, s.db)
	_, err = q.ExecContext(ctx, `
		INSERT INTO events (id, name, registration_start, registration_end, allow_late_registration, categories, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(e.ID), e.Name, e.RegistrationStart, e.RegistrationEnd, e.AllowLateRegistration, categories, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create event %s: %w", e.ID, err)
	}
	return nil
}

// FindByID resolves an event and loads its registrations.
func (s *PostgresStore) FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	q := tx.Resolve(ctx, s.db)
	e, err := scanEvent(q.QueryRowContext(ctx, `
		SELECT id, name, registration_start, registration_end, allow_late_registration, categories, created_at
		FROM events
		WHERE id = $1
	`, uuid.UUID(eventID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find event %s: %w", eventID, err)
	}
	e.Registrations, err = s.loadRegistrations(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List returns all events with their registrations, oldest first.
func (s *PostgresStore) List(ctx context.Context) ([]*models.Event, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, registration_start, registration_end, allow_late_registration, categories, created_at
		FROM events
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, e := range out {
		e.Registrations, err = s.loadRegistrations(ctx, e.ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// AppendRegistration inserts an embedded registration row. ON CONFLICT keeps
// the call idempotent per registration ID.
func (s *PostgresStore) AppendRegistration(ctx context.Context, eventID id.EventID, reg models.Registration) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO registrations (id, event_id, organisation_id, category, contestant_ids, coach_id, team_id, status, rejection_reason, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`, uuid.UUID(reg.ID), uuid.UUID(eventID), reg.OrganisationID.String(), reg.Category,
		pq.Array(contestantStrings(reg.ContestantIDs)), reg.CoachID.String(), reg.TeamID.String(),
		string(reg.Status), reg.RejectionReason, reg.RegisteredAt)
	if err != nil {
		return fmt.Errorf("append registration %s: %w", reg.ID, err)
	}
	return nil
}

// UpdateRegistration persists the mutable registration fields.
func (s *PostgresStore) UpdateRegistration(ctx context.Context, eventID id.EventID, reg models.Registration) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE registrations
		SET status = $1, rejection_reason = $2
		WHERE id = $3 AND event_id = $4
	`, string(reg.Status), reg.RejectionReason, uuid.UUID(reg.ID), uuid.UUID(eventID))
	if err != nil {
		return fmt.Errorf("update registration %s: %w", reg.ID, err)
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

// Delete removes an event and its registrations. Idempotent.
func (s *PostgresStore) Delete(ctx context.Context, eventID id.EventID) error {
	q := tx.Resolve(ctx, s.db)
	if _, err := q.ExecContext(ctx, `DELETE FROM registrations WHERE event_id = $1`, uuid.UUID(eventID)); err != nil {
		return fmt.Errorf("delete registrations for event %s: %w", eventID, err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, uuid.UUID(eventID)); err != nil {
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var e models.Event
	var eventID uuid.UUID
	var categories []byte
	if err := row.Scan(&eventID, &e.Name, &e.RegistrationStart, &e.RegistrationEnd, &e.AllowLateRegistration, &categories, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.ID = id.EventID(eventID)
	if err := json.Unmarshal(categories, &e.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal categories: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) loadRegistrations(ctx context.Context, eventID id.EventID) ([]models.Registration, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT id, organisation_id, category, contestant_ids, coach_id, team_id, status, rejection_reason, registered_at
		FROM registrations
		WHERE event_id = $1
		ORDER BY registered_at
	`, uuid.UUID(eventID))
	if err != nil {
		return nil, fmt.Errorf("load registrations: %w", err)
	}
	defer rows.Close()

	var out []models.Registration
	for rows.Next() {
		var r models.Registration
		var regID uuid.UUID
		var orgID, coachID, teamID, status string
		var contestants pq.StringArray
		if err := rows.Scan(&regID, &orgID, &r.Category, &contestants, &coachID, &teamID, &status, &r.RejectionReason, &r.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		r.ID = id.RegistrationID(regID)
		r.OrganisationID = id.OrganisationID(orgID)
		r.CoachID = id.CoachID(coachID)
		r.TeamID = id.TeamID(teamID)
		r.Status = models.RegistrationStatus(status)
		r.ContestantIDs = make([]id.ContestantID, len(contestants))
		for i, c := range contestants {
			r.ContestantIDs[i] = id.ContestantID(c)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func contestantStrings(ids []id.ContestantID) []string {
	out := make([]string, len(ids))
	for i, cid := range ids {
		out[i] = cid.String()
	}
	return out
}
