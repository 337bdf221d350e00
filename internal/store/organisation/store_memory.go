package organisation

import (
	"context"
	"sync"

	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	"roboreg/pkg/platform/sentinel"
)

// InMemory keeps organisations in a mutex-guarded map.
type InMemory struct {
	mu   sync.RWMutex
	orgs map[id.OrganisationID]*models.Organisation
}

// NewInMemory constructs an empty in-memory organisation store.
func NewInMemory() *InMemory {
	return &InMemory{orgs: make(map[id.OrganisationID]*models.Organisation)}
}

// Create inserts an organisation.
func (s *InMemory) Create(_ context.Context, o *models.Organisation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orgs[o.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *o
	s.orgs[o.ID] = &cp
	return nil
}

// FindByID resolves an organisation.
func (s *InMemory) FindByID(_ context.Context, orgID id.OrganisationID) (*models.Organisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orgs[orgID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *o
	return &cp, nil
}
