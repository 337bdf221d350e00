package payment

import (
	"strings"

	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	dErrors "roboreg/pkg/domain-errors"
	pstrings "roboreg/pkg/platform/strings"
)

// SubmitPaymentRequest is the payload for linking a receipt to teams. The
// organisation comes from the authenticated token, never from the body.
type SubmitPaymentRequest struct {
	EventID    id.EventID `json:"event_id"`
	ReceiptURL string     `json:"receipt_url"`
	TeamIDs    []string   `json:"team_ids"`
	Amount     int64      `json:"amount"`
}

func (r *SubmitPaymentRequest) Normalize() {
	r.ReceiptURL = strings.TrimSpace(r.ReceiptURL)
	r.TeamIDs = pstrings.DedupeAndTrim(r.TeamIDs)
}

func (r *SubmitPaymentRequest) Validate() error {
	if r.EventID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "event_id is required")
	}
	if r.ReceiptURL == "" {
		return dErrors.New(dErrors.CodeValidation, "receipt_url is required")
	}
	if len(r.TeamIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "team_ids is required")
	}
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	return nil
}

func (r *SubmitPaymentRequest) teamIDs() []id.TeamID {
	out := make([]id.TeamID, len(r.TeamIDs))
	for i, t := range r.TeamIDs {
		out[i] = id.TeamID(t)
	}
	return out
}

// ReviewPaymentRequest is the admin payload for a status transition.
type ReviewPaymentRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (r *ReviewPaymentRequest) Normalize() {
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
	r.Notes = strings.TrimSpace(r.Notes)
}

func (r *ReviewPaymentRequest) Validate() error {
	target := models.PaymentStatus(r.Status)
	if !target.Valid() || target == models.PaymentStatusPending {
		return dErrors.New(dErrors.CodeValidation, "status must be approved or rejected")
	}
	return nil
}
