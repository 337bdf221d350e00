package organisation

import (
	"context"
	"database/sql"
	"fmt"

	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	"roboreg/pkg/platform/sentinel"
	"roboreg/pkg/platform/tx"
)

// PostgresStore persists organisations in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed organisation store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts an organisation.
func (s *PostgresStore) Create(ctx context.Context, o *models.Organisation) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO organisations (id, name, type, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, o.ID.String(), o.Name, string(o.Type), o.Email, o.Phone, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create organisation %s: %w", o.ID, err)
	}
	return nil
}

// FindByID resolves an organisation.
func (s *PostgresStore) FindByID(ctx context.Context, orgID id.OrganisationID) (*models.Organisation, error) {
	q := tx.Resolve(ctx, s.db)
	var o models.Organisation
	var oid, orgType string
	err := q.QueryRowContext(ctx, `
		SELECT id, name, type, email, phone, created_at, updated_at
		FROM organisations
		WHERE id = $1
	`, orgID.String()).Scan(&oid, &o.Name, &orgType, &o.Email, &o.Phone, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find organisation %s: %w", orgID, err)
	}
	o.ID = id.OrganisationID(oid)
	o.Type = models.OrganisationType(orgType)
	return &o, nil
}
