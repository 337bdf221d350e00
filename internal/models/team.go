package models

import (
	"time"

	id "roboreg/pkg/domain"
	dErrors "roboreg/pkg/domain-errors"
)

// TeamStatus tracks whether a team counts toward its organisation's
// per-category capacity. Withdrawal is uniform soft-withdraw: nothing in this
// system hard-deletes a team, and only active teams count for capacity and
// contestant locking.
type TeamStatus string

const (
	TeamStatusActive    TeamStatus = "active"
	TeamStatusWithdrawn TeamStatus = "withdrawn"
)

func (s TeamStatus) CanTransitionTo(target TeamStatus) bool {
	return s == TeamStatusActive && target == TeamStatusWithdrawn
}

// Team is the concrete roster an organisation fields for one category of one
// event.
//
// Invariants:
//   - roster size within the category's bounds (checked at construction)
//   - every contestant and the coach belong to the owning organisation
//     (checked by the admission controller, which resolves them by owner)
//   - PaymentID, when set, names a payment whose TeamIDs contains this team
type Team struct {
	ID             id.TeamID         `json:"id"`
	OrganisationID id.OrganisationID `json:"organisation_id"`
	EventID        id.EventID        `json:"event_id"`
	CategoryCode   string            `json:"category_code"`
	CategoryName   string            `json:"category_name"`
	ContestantIDs  []id.ContestantID `json:"contestant_ids"`
	CoachID        id.CoachID        `json:"coach_id"`
	Status         TeamStatus        `json:"status"`
	PaymentID      *id.PaymentID     `json:"payment_id,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// NewTeam validates the roster against the category snapshot and constructs
// an active team.
func NewTeam(teamID id.TeamID, orgID id.OrganisationID, eventID id.EventID, category Category, contestantIDs []id.ContestantID, coachID id.CoachID, now time.Time) (*Team, error) {
	if !category.AllowsTeamSize(len(contestantIDs)) {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
			"category %s requires between %d and %d contestants, got %d",
			category.Code, category.MinContestantsPerTeam, category.MaxContestantsPerTeam, len(contestantIDs))
	}
	if coachID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "team needs a coach")
	}
	return &Team{
		ID:             teamID,
		OrganisationID: orgID,
		EventID:        eventID,
		CategoryCode:   category.Code,
		CategoryName:   category.Name,
		ContestantIDs:  append([]id.ContestantID(nil), contestantIDs...),
		CoachID:        coachID,
		Status:         TeamStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (t *Team) IsActive() bool {
	return t.Status == TeamStatusActive
}

func (t *Team) IsPaid() bool {
	return t.PaymentID != nil
}

// Withdraw transitions the team out of the active pool, freeing capacity and
// releasing its contestants' locks.
func (t *Team) Withdraw(now time.Time) error {
	if !t.Status.CanTransitionTo(TeamStatusWithdrawn) {
		return dErrors.New(dErrors.CodeInvariantViolation, "team is already withdrawn")
	}
	t.Status = TeamStatusWithdrawn
	t.UpdatedAt = now
	return nil
}

// AttachPayment stamps the payment reference. Fails if the team is already
// covered by another payment.
func (t *Team) AttachPayment(paymentID id.PaymentID, now time.Time) error {
	if t.PaymentID != nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "team already has a payment attached")
	}
	t.PaymentID = &paymentID
	t.UpdatedAt = now
	return nil
}

// DetachPayment clears the payment reference. Idempotent so the rejection
// cascade can be re-run safely.
func (t *Team) DetachPayment(now time.Time) {
	if t.PaymentID == nil {
		return
	}
	t.PaymentID = nil
	t.UpdatedAt = now
}

// HasContestant reports whether the roster contains the given contestant.
func (t *Team) HasContestant(contestantID id.ContestantID) bool {
	for _, cid := range t.ContestantIDs {
		if cid == contestantID {
			return true
		}
	}
	return false
}
