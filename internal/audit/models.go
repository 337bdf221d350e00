package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID         uuid.UUID
	OccurredAt time.Time
	Actor      string
	Action     string
	Subject    string
	RequestID  string
	Details    map[string]any
}

// Actions recorded by the registration workflow.
const (
	ActionTeamAdmitted         = "team.admitted"
	ActionTeamWithdrawn        = "team.withdrawn"
	ActionPaymentSubmitted     = "payment.submitted"
	ActionPaymentReviewed      = "payment.reviewed"
	ActionRegistrationApproved = "registration.approved"
	ActionRegistrationRejected = "registration.rejected"
	ActionEventDeleted         = "event.deleted"
)
