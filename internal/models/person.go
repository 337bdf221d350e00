package models

import (
	"strings"
	"time"

	id "roboreg/pkg/domain"
	dErrors "roboreg/pkg/domain-errors"
)

// Participation records one event/category a person was fielded in. Entries
// are appended on team creation and pruned when the team is withdrawn or the
// owning event is deleted.
type Participation struct {
	EventID      id.EventID `json:"event_id"`
	Category     string     `json:"category"`
	RegisteredAt time.Time  `json:"registered_at"`
}

// Contestant belongs to exactly one organisation; the reference is immutable.
type Contestant struct {
	ID             id.ContestantID   `json:"id"`
	OrganisationID id.OrganisationID `json:"organisation_id"`
	FirstName      string            `json:"first_name"`
	LastName       string            `json:"last_name"`
	BirthDate      *time.Time        `json:"birth_date,omitempty"`
	Participations []Participation   `json:"participations"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Coach belongs to exactly one organisation; the reference is immutable.
// Unlike contestants, coaches may serve several teams at once.
type Coach struct {
	ID             id.CoachID        `json:"id"`
	OrganisationID id.OrganisationID `json:"organisation_id"`
	FirstName      string            `json:"first_name"`
	LastName       string            `json:"last_name"`
	Participations []Participation   `json:"participations"`
	CreatedAt      time.Time         `json:"created_at"`
}

// NewContestant validates and constructs a contestant record.
func NewContestant(contestantID id.ContestantID, orgID id.OrganisationID, firstName, lastName string, now time.Time) (*Contestant, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "contestant name cannot be empty")
	}
	if orgID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "contestant must belong to an organisation")
	}
	return &Contestant{
		ID:             contestantID,
		OrganisationID: orgID,
		FirstName:      firstName,
		LastName:       lastName,
		CreatedAt:      now,
	}, nil
}

// NewCoach validates and constructs a coach record.
func NewCoach(coachID id.CoachID, orgID id.OrganisationID, firstName, lastName string, now time.Time) (*Coach, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "coach name cannot be empty")
	}
	if orgID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "coach must belong to an organisation")
	}
	return &Coach{
		ID:             coachID,
		OrganisationID: orgID,
		FirstName:      firstName,
		LastName:       lastName,
		CreatedAt:      now,
	}, nil
}
