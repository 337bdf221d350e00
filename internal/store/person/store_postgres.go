package person

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

// PostgresStore persists contestants and coaches in PostgreSQL.
// Participations live in their own table keyed by (person_type, person_id);
// inserts use ON CONFLICT DO NOTHING so cascade retries stay idempotent.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed person store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	personTypeContestant = "contestant"
	personTypeCoach      = "coach"
)

// CreateContestant inserts a contestant record.
func (s *PostgresStore) CreateContestant(ctx context.Context, c *models.Contestant) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO contestants (id, organisation_id, first_name, last_name, birth_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID.String(), c.OrganisationID.String(), c.FirstName, c.LastName, c.BirthDate, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create contestant %s: %w", c.ID, err)
	}
	return nil
}

// CreateCoach inserts a coach record.
func (s *PostgresStore) CreateCoach(ctx context.Context, c *models.Coach) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO coaches (id, organisation_id, first_name, last_name, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID.String(), c.OrganisationID.String(), c.FirstName, c.LastName, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create coach %s: %w", c.ID, err)
	}
	return nil
}

// FindContestantsOwned resolves the requested contestants owned by the
// organisation, participations included.
func (s *PostgresStore) FindContestantsOwned(ctx context.Context, orgID id.OrganisationID, ids []id.ContestantID) ([]*models.Contestant, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := tx.Resolve(ctx, s.db)
	requested := make([]string, len(ids))
	for i, cid := range ids {
		requested[i] = cid.String()
	}
	rows, err := q.QueryContext(ctx, `
		SELECT id, organisation_id, first_name, last_name, birth_date, created_at
		FROM contestants
		WHERE organisation_id = $1 AND id = ANY($2)
	`, orgID.String(), pq.Array(requested))
	if err != nil {
		return nil, fmt.Errorf("find contestants: %w", err)
	}
	defer rows.Close()

	var out []*models.Contestant
	for rows.Next() {
		var c models.Contestant
		var cid, oid string
		if err := rows.Scan(&cid, &oid, &c.FirstName, &c.LastName, &c.BirthDate, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contestant: %w", err)
		}
		c.ID = id.ContestantID(cid)
		c.OrganisationID = id.OrganisationID(oid)
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, c := range out {
		participations, err := s.loadParticipations(ctx, personTypeContestant, c.ID.String())
		if err != nil {
			return nil, err
		}
		c.Participations = participations
	}
	return out, nil
}

// FindCoachOwned resolves a coach owned by the organisation.
func (s *PostgresStore) FindCoachOwned(ctx context.Context, orgID id.OrganisationID, coachID id.CoachID) (*models.Coach, error) {
	q := tx.Resolve(ctx, s.db)
	var c models.Coach
	var cid, oid string
	err := q.QueryRowContext(ctx, `
		SELECT id, organisation_id, first_name, last_name, created_at
		FROM coaches
		WHERE organisation_id = $1 AND id = $2
	`, orgID.String(), coachID.String()).Scan(&cid, &oid, &c.FirstName, &c.LastName, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find coach %s: %w", coachID, err)
	}
	c.ID = id.CoachID(cid)
	c.OrganisationID = id.OrganisationID(oid)
	participations, err := s.loadParticipations(ctx, personTypeCoach, c.ID.String())
	if err != nil {
		return nil, err
	}
	c.Participations = participations
	return &c, nil
}

// AddContestantParticipation records a participation entry. Idempotent.
func (s *PostgresStore) AddContestantParticipation(ctx context.Context, contestantID id.ContestantID, p models.Participation) error {
	return s.addParticipation(ctx, personTypeContestant, contestantID.String(), p)
}

// AddCoachParticipation records a participation entry. Idempotent.
func (s *PostgresStore) AddCoachParticipation(ctx context.Context, coachID id.CoachID, p models.Participation) error {
	return s.addParticipation(ctx, personTypeCoach, coachID.String(), p)
}

// RemoveContestantParticipation removes the entry for an event/category. Idempotent.
func (s *PostgresStore) RemoveContestantParticipation(ctx context.Context, contestantID id.ContestantID, eventID id.EventID, categoryCode string) error {
	return s.removeParticipation(ctx, personTypeContestant, contestantID.String(), eventID, categoryCode)
}

// RemoveCoachParticipation removes the entry for an event/category. Idempotent.
func (s *PostgresStore) RemoveCoachParticipation(ctx context.Context, coachID id.CoachID, eventID id.EventID, categoryCode string) error {
	return s.removeParticipation(ctx, personTypeCoach, coachID.String(), eventID, categoryCode)
}

// RemoveParticipationsForEvent strips every participation entry for the event.
func (s *PostgresStore) RemoveParticipationsForEvent(ctx context.Context, eventID id.EventID) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `DELETE FROM participations WHERE event_id = $1`, uuid.UUID(eventID))
	if err != nil {
		return fmt.Errorf("remove participations for event %s: %w", eventID, err)
	}
	return nil
}

func (s *PostgresStore) addParticipation(ctx context.Context, personType, personID string, p models.Participation) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO participations (person_type, person_id, event_id, category, registered_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (person_type, person_id, event_id, category) DO NOTHING
	`, personType, personID, uuid.UUID(p.EventID), p.Category, p.RegisteredAt)
	if err != nil {
		return fmt.Errorf("add %s participation: %w", personType, err)
	}
	return nil
}

func (s *PostgresStore) removeParticipation(ctx context.Context, personType, personID string, eventID id.EventID, category string) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		DELETE FROM participations
		WHERE person_type = $1 AND person_id = $2 AND event_id = $3 AND category = $4
	`, personType, personID, uuid.UUID(eventID), category)
	if err != nil {
		return fmt.Errorf("remove %s participation: %w", personType, err)
	}
	return nil
}

func (s *PostgresStore) loadParticipations(ctx context.Context, personType, personID string) ([]models.Participation, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT event_id, category, registered_at
		FROM participations
		WHERE person_type = $1 AND person_id = $2
		ORDER BY registered_at
	`, personType, personID)
	if err != nil {
		return nil, fmt.Errorf("load participations: %w", err)
	}
	defer rows.Close()

	var out []models.Participation
	for rows.Next() {
		var p models.Participation
		var eventID uuid.UUID
		if err := rows.Scan(&eventID, &p.Category, &p.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan participation: %w", err)
		}
		p.EventID = id.EventID(eventID)
		out = append(out, p)
	}
	return out, rows.Err()
}
