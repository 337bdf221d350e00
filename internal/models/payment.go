package models

import (
	"strings"
	"time"

	id "roboreg/pkg/domain"
	dErrors "roboreg/pkg/domain-errors"
)

// PaymentStatus tracks admin review of a receipt submission.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusApproved, PaymentStatusRejected:
		return true
	}
	return false
}

func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	if s != PaymentStatusPending {
		return false
	}
	return target == PaymentStatusApproved || target == PaymentStatusRejected
}

// Payment is a receipt submission covering the registration fee of one or
// more teams.
//
// Invariant (bidirectional consistency): TeamIDs is always the set of teams
// whose PaymentID equals this payment's ID. The payment linker establishes
// the link; the rejection cascade trims it, and deletes the payment outright
// once TeamIDs empties.
type Payment struct {
	ID             id.PaymentID      `json:"id"`
	OrganisationID id.OrganisationID `json:"organisation_id"`
	EventID        id.EventID        `json:"event_id"`
	ReceiptURL     string            `json:"receipt_url"`
	Amount         int64             `json:"amount"`
	TeamIDs        []id.TeamID       `json:"team_ids"`
	Status         PaymentStatus     `json:"status"`
	SubmittedAt    time.Time         `json:"submitted_at"`
	ReviewedAt     *time.Time        `json:"reviewed_at,omitempty"`
	ReviewedBy     string            `json:"reviewed_by,omitempty"`
	Notes          string            `json:"notes,omitempty"`
}

// NewPayment validates and constructs a pending payment.
func NewPayment(paymentID id.PaymentID, orgID id.OrganisationID, eventID id.EventID, receiptURL string, amount int64, teamIDs []id.TeamID, now time.Time) (*Payment, error) {
	receiptURL = strings.TrimSpace(receiptURL)
	if receiptURL == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "receipt URL cannot be empty")
	}
	if amount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "payment amount must be positive")
	}
	if len(teamIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "payment must cover at least one team")
	}
	return &Payment{
		ID:             paymentID,
		OrganisationID: orgID,
		EventID:        eventID,
		ReceiptURL:     receiptURL,
		Amount:         amount,
		TeamIDs:        append([]id.TeamID(nil), teamIDs...),
		Status:         PaymentStatusPending,
		SubmittedAt:    now,
	}, nil
}

// Review applies an admin status transition, stamping reviewer and time.
func (p *Payment) Review(target PaymentStatus, reviewedBy, notes string, now time.Time) error {
	if !target.Valid() || target == PaymentStatusPending {
		return dErrors.New(dErrors.CodeValidation, "payment status must be approved or rejected")
	}
	if !p.Status.CanTransitionTo(target) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "payment is %s, only pending payments can be reviewed", p.Status)
	}
	p.Status = target
	p.ReviewedAt = &now
	p.ReviewedBy = reviewedBy
	p.Notes = strings.TrimSpace(notes)
	return nil
}

// RemoveTeam drops a team from the covered set, returning whether the
// payment still covers anything. Idempotent.
func (p *Payment) RemoveTeam(teamID id.TeamID) (remaining bool) {
	kept := p.TeamIDs[:0]
	for _, tid := range p.TeamIDs {
		if tid != teamID {
			kept = append(kept, tid)
		}
	}
	p.TeamIDs = kept
	return len(p.TeamIDs) > 0
}

// Covers reports whether the payment references the given team.
func (p *Payment) Covers(teamID id.TeamID) bool {
	for _, tid := range p.TeamIDs {
		if tid == teamID {
			return true
		}
	}
	return false
}
