package models

import (
	"strings"
	"time"

	id "roboreg/pkg/domain"
	dErrors "roboreg/pkg/domain-errors"
)

// RegistrationStatus tracks one organisation's claim on a category.
type RegistrationStatus string

const (
	RegistrationStatusPending  RegistrationStatus = "pending"
	RegistrationStatusApproved RegistrationStatus = "approved"
	RegistrationStatusRejected RegistrationStatus = "rejected"
)

// CanTransitionTo restricts the approval state machine: pending is the only
// non-terminal state.
func (s RegistrationStatus) CanTransitionTo(target RegistrationStatus) bool {
	if s != RegistrationStatusPending {
		return false
	}
	return target == RegistrationStatusApproved || target == RegistrationStatusRejected
}

// Registration is an embedded, independently-identified record inside an
// Event. A rejected registration is terminal for this instance, but does not
// block the organisation from fielding a new team in the same category.
type Registration struct {
	ID              id.RegistrationID  `json:"id"`
	OrganisationID  id.OrganisationID  `json:"organisation_id"`
	Category        string             `json:"category"`
	ContestantIDs   []id.ContestantID  `json:"contestant_ids"`
	CoachID         id.CoachID         `json:"coach_id"`
	TeamID          id.TeamID          `json:"team_id,omitempty"`
	Status          RegistrationStatus `json:"status"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	RegisteredAt    time.Time          `json:"registered_at"`
}

// NewRegistration constructs a pending registration for a team. The payment
// linker synthesizes registrations through the same constructor so they carry
// the same shape regardless of which path created them.
func NewRegistration(team *Team, now time.Time) Registration {
	return Registration{
		ID:             id.NewRegistrationID(),
		OrganisationID: team.OrganisationID,
		Category:       team.CategoryCode,
		ContestantIDs:  append([]id.ContestantID(nil), team.ContestantIDs...),
		CoachID:        team.CoachID,
		TeamID:         team.ID,
		Status:         RegistrationStatusPending,
		RegisteredAt:   now,
	}
}

// Approve transitions a pending registration to approved and clears any
// stale rejection reason.
func (r *Registration) Approve() error {
	if !r.Status.CanTransitionTo(RegistrationStatusApproved) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "registration is %s, only pending registrations can be approved", r.Status)
	}
	r.Status = RegistrationStatusApproved
	r.RejectionReason = ""
	return nil
}

// Reject transitions a pending registration to rejected. The reason is
// mandatory.
func (r *Registration) Reject(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return dErrors.New(dErrors.CodeValidation, "rejection reason is required")
	}
	if !r.Status.CanTransitionTo(RegistrationStatusRejected) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "registration is %s, only pending registrations can be rejected", r.Status)
	}
	r.Status = RegistrationStatusRejected
	r.RejectionReason = reason
	return nil
}

// Event holds category snapshots and the embedded registration sub-list.
type Event struct {
	ID                    id.EventID     `json:"id"`
	Name                  string         `json:"name"`
	RegistrationStart     time.Time      `json:"registration_start"`
	RegistrationEnd       time.Time      `json:"registration_end"`
	AllowLateRegistration bool           `json:"allow_late_registration"`
	Categories            []Category     `json:"categories"`
	Registrations         []Registration `json:"registrations"`
	CreatedAt             time.Time      `json:"created_at"`
}

// NewEvent validates and constructs an event, snapshotting the given
// category definitions.
func NewEvent(eventID id.EventID, name string, start, end time.Time, categories []Category, now time.Time) (*Event, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event name cannot be empty")
	}
	if end.Before(start) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "registration window ends before it starts")
	}
	if len(categories) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event needs at least one category")
	}
	for _, c := range categories {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return &Event{
		ID:                eventID,
		Name:              name,
		RegistrationStart: start,
		RegistrationEnd:   end,
		Categories:        append([]Category(nil), categories...),
		CreatedAt:         now,
	}, nil
}

// RegistrationOpen reports whether the given time lies within the event's
// registration window.
func (e *Event) RegistrationOpen(at time.Time) bool {
	if e.AllowLateRegistration {
		return true
	}
	return !at.Before(e.RegistrationStart) && !at.After(e.RegistrationEnd)
}

// CategoryByCode resolves a snapshot category by its code.
func (e *Event) CategoryByCode(code string) (Category, bool) {
	for _, c := range e.Categories {
		if c.Code == code {
			return c, true
		}
	}
	return Category{}, false
}

// FindRegistration locates an embedded registration by its ID.
func (e *Event) FindRegistration(regID id.RegistrationID) (*Registration, bool) {
	for i := range e.Registrations {
		if e.Registrations[i].ID == regID {
			return &e.Registrations[i], true
		}
	}
	return nil, false
}

// RegistrationForTeam locates an embedded registration linked to a team.
func (e *Event) RegistrationForTeam(teamID id.TeamID) (*Registration, bool) {
	for i := range e.Registrations {
		if e.Registrations[i].TeamID == teamID {
			return &e.Registrations[i], true
		}
	}
	return nil, false
}
