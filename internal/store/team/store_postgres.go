package team

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	"roboreg/pkg/platform/sentinel"
	"roboreg/pkg/platform/tx"
)

// PostgresStore persists teams in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed team store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const teamColumns = `id, organisation_id, event_id, category_code, category_name,
	contestant_ids, coach_id, status, payment_id, created_at, updated_at`

// CreateIfWithinCap inserts the team guarded by the per-organisation cap in
// a single conditional statement, so two concurrent admissions cannot both
// slip under the cap. Returns sentinel.ErrConflict if the cap is reached.
func (s *PostgresStore) CreateIfWithinCap(ctx context.Context, team *models.Team, maxTeamsPerOrg int) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		INSERT INTO teams (`+teamColumns+`)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		WHERE (
			SELECT count(*) FROM teams
			WHERE organisation_id = $2 AND event_id = $3
			  AND category_code = $4 AND status = 'active'
		) < $12
	`,
		team.ID.String(), team.OrganisationID.String(), uuid.UUID(team.EventID),
		team.CategoryCode, team.CategoryName,
		pq.Array(contestantStrings(team.ContestantIDs)), team.CoachID.String(),
		string(team.Status), paymentUUID(team.PaymentID),
		team.CreatedAt, team.UpdatedAt,
		maxTeamsPerOrg,
	)
	if err != nil {
		return fmt.Errorf("create team %s: %w", team.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create team %s: %w", team.ID, err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

// FindByID returns a team by its identifier.
func (s *PostgresStore) FindByID(ctx context.Context, teamID id.TeamID) (*models.Team, error) {
	q := tx.Resolve(ctx, s.db)
	row := q.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, teamID.String())
	return scanTeam(row)
}

// ListByOrgEvent returns all teams an organisation fields in an event.
func (s *PostgresStore) ListByOrgEvent(ctx context.Context, orgID id.OrganisationID, eventID id.EventID) ([]*models.Team, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT `+teamColumns+` FROM teams
		WHERE organisation_id = $1 AND event_id = $2
		ORDER BY created_at
	`, orgID.String(), uuid.UUID(eventID))
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()
	return collectTeams(rows)
}

// ListActiveByEventCategory returns every active team in an event/category.
func (s *PostgresStore) ListActiveByEventCategory(ctx context.Context, eventID id.EventID, categoryCode string) ([]*models.Team, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT `+teamColumns+` FROM teams
		WHERE event_id = $1 AND category_code = $2 AND status = 'active'
	`, uuid.UUID(eventID), categoryCode)
	if err != nil {
		return nil, fmt.Errorf("list active teams: %w", err)
	}
	defer rows.Close()
	return collectTeams(rows)
}

// CountActive counts an organisation's active teams in an event/category.
func (s *PostgresStore) CountActive(ctx context.Context, orgID id.OrganisationID, eventID id.EventID, categoryCode string) (int, error) {
	q := tx.Resolve(ctx, s.db)
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT count(*) FROM teams
		WHERE organisation_id = $1 AND event_id = $2
		  AND category_code = $3 AND status = 'active'
	`, orgID.String(), uuid.UUID(eventID), categoryCode).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active teams: %w", err)
	}
	return count, nil
}

// Update persists team field changes (status, payment link).
func (s *PostgresStore) Update(ctx context.Context, team *models.Team) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE teams SET status = $2, payment_id = $3, updated_at = $4
		WHERE id = $1
	`, team.ID.String(), string(team.Status), paymentUUID(team.PaymentID), team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update team %s: %w", team.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update team %s: %w", team.ID, err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// LinkPayment stamps the payment onto the team only while payment_id is
// still NULL, so two concurrent submissions for the same team cannot both
// link. Returns sentinel.ErrAlreadyUsed when the team is already paid; the
// caller resolves team existence before linking.
func (s *PostgresStore) LinkPayment(ctx context.Context, teamID id.TeamID, paymentID id.PaymentID, now time.Time) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `
		UPDATE teams SET payment_id = $2, updated_at = $3
		WHERE id = $1 AND payment_id IS NULL
	`, teamID.String(), uuid.UUID(paymentID), now)
	if err != nil {
		return fmt.Errorf("link payment to team %s: %w", teamID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("link payment to team %s: %w", teamID, err)
	}
	if affected == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTeam(row rowScanner) (*models.Team, error) {
	var (
		team         models.Team
		orgID        string
		eventID      uuid.UUID
		contestants  pq.StringArray
		coachID      string
		status       string
		paymentID    uuid.NullUUID
		teamIDString string
	)
	err := row.Scan(&teamIDString, &orgID, &eventID, &team.CategoryCode, &team.CategoryName,
		&contestants, &coachID, &status, &paymentID, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan team: %w", err)
	}
	team.ID = id.TeamID(teamIDString)
	team.OrganisationID = id.OrganisationID(orgID)
	team.EventID = id.EventID(eventID)
	team.CoachID = id.CoachID(coachID)
	team.Status = models.TeamStatus(status)
	team.ContestantIDs = make([]id.ContestantID, len(contestants))
	for i, c := range contestants {
		team.ContestantIDs[i] = id.ContestantID(c)
	}
	if paymentID.Valid {
		pid := id.PaymentID(paymentID.UUID)
		team.PaymentID = &pid
	}
	return &team, nil
}

func collectTeams(rows *sql.Rows) ([]*models.Team, error) {
	var out []*models.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, team)
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

func paymentUUID(paymentID *id.PaymentID) uuid.NullUUID {
	if paymentID == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*paymentID), Valid: true}
}
