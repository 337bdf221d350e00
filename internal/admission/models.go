package admission

import (
	"strings"
	"time"

	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	dErrors "roboreg/pkg/domain-errors"
	pstrings "roboreg/pkg/platform/strings"
)

// CreateTeamRequest is the payload for fielding a new team. The organisation
// comes from the authenticated token, never from the body.
type CreateTeamRequest struct {
	EventID       id.EventID `json:"event_id"`
	CategoryCode  string     `json:"category_code"`
	ContestantIDs []string   `json:"contestant_ids"`
	CoachID       string     `json:"coach_id"`
}

func (r *CreateTeamRequest) Normalize() {
	r.CategoryCode = strings.ToUpper(strings.TrimSpace(r.CategoryCode))
	for i, c := range r.ContestantIDs {
		r.ContestantIDs[i] = strings.TrimSpace(c)
	}
	r.CoachID = strings.TrimSpace(r.CoachID)
}

func (r *CreateTeamRequest) Validate() error {
	if r.EventID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "event_id is required")
	}
	if r.CategoryCode == "" {
		return dErrors.New(dErrors.CodeValidation, "category_code is required")
	}
	if len(r.ContestantIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "contestant_ids is required")
	}
	for _, c := range r.ContestantIDs {
		if c == "" {
			return dErrors.New(dErrors.CodeValidation, "contestant_ids contains an empty entry")
		}
	}
	// a roster listing the same contestant twice is rejected, not deduped
	if len(pstrings.DedupeAndTrim(r.ContestantIDs)) != len(r.ContestantIDs) {
		return dErrors.New(dErrors.CodeValidation, "contestant_ids contains duplicates")
	}
	if r.CoachID == "" {
		return dErrors.New(dErrors.CodeValidation, "coach_id is required")
	}
	return nil
}

func (r *CreateTeamRequest) contestantIDs() []id.ContestantID {
	out := make([]id.ContestantID, len(r.ContestantIDs))
	for i, c := range r.ContestantIDs {
		out[i] = id.ContestantID(c)
	}
	return out
}

// TeamResponse is the API shape of an admitted team, registration status
// included when one exists.
type TeamResponse struct {
	ID                 id.TeamID         `json:"id"`
	OrganisationID     id.OrganisationID `json:"organisation_id"`
	EventID            id.EventID        `json:"event_id"`
	CategoryCode       string            `json:"category_code"`
	CategoryName       string            `json:"category_name"`
	ContestantIDs      []id.ContestantID `json:"contestant_ids"`
	CoachID            id.CoachID        `json:"coach_id"`
	Status             models.TeamStatus `json:"status"`
	PaymentID          *id.PaymentID     `json:"payment_id,omitempty"`
	RegistrationStatus string            `json:"registration_status,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}

func teamResponse(t *models.Team, reg *models.Registration) TeamResponse {
	resp := TeamResponse{
		ID:             t.ID,
		OrganisationID: t.OrganisationID,
		EventID:        t.EventID,
		CategoryCode:   t.CategoryCode,
		CategoryName:   t.CategoryName,
		ContestantIDs:  t.ContestantIDs,
		CoachID:        t.CoachID,
		Status:         t.Status,
		PaymentID:      t.PaymentID,
		CreatedAt:      t.CreatedAt,
	}
	if reg != nil {
		resp.RegistrationStatus = string(reg.Status)
	}
	return resp
}
