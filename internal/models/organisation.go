package models

import (
	"strings"
	"time"

	id "roboreg/pkg/domain"
	dErrors "roboreg/pkg/domain-errors"
)

// OrganisationType classifies the registering entity.
type OrganisationType string

const (
	OrganisationTypeSchool     OrganisationType = "school"
	OrganisationTypeCompany    OrganisationType = "company"
	OrganisationTypeIndividual OrganisationType = "individual"
)

func (t OrganisationType) Valid() bool {
	switch t {
	case OrganisationTypeSchool, OrganisationTypeCompany, OrganisationTypeIndividual:
		return true
	}
	return false
}

// Organisation is the registering entity that owns contestants, coaches,
// teams and payments. Never hard-deleted.
type Organisation struct {
	ID        id.OrganisationID `json:"id"`
	Name      string            `json:"name"`
	Type      OrganisationType  `json:"type"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewOrganisation validates and constructs an organisation record.
func NewOrganisation(orgID id.OrganisationID, name string, orgType OrganisationType, email, phone string, now time.Time) (*Organisation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organisation name cannot be empty")
	}
	if !orgType.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown organisation type")
	}
	return &Organisation{
		ID:        orgID,
		Name:      name,
		Type:      orgType,
		Email:     strings.TrimSpace(email),
		Phone:     strings.TrimSpace(phone),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
