package payment

import (
	"context"
	"sort"
	"sync"

	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	"roboreg/pkg/platform/sentinel"
)

// InMemory keeps payments in a mutex-guarded map. Suitable for tests and
// single-node development.
type InMemory struct {
	mu       sync.RWMutex
	payments map[id.PaymentID]*models.Payment
}

// NewInMemory constructs an empty in-memory payment store.
func NewInMemory() *InMemory {
	return &InMemory{payments: make(map[id.PaymentID]*models.Payment)}
}

// Create inserts a payment.
func (s *InMemory) Create(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.payments[p.ID]; exists {
		return sentinel.ErrConflict
	}
	s.payments[p.ID] = copyPayment(p)
	return nil
}

// FindByID resolves a payment.
func (s *InMemory) FindByID(_ context.Context, paymentID id.PaymentID) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyPayment(p), nil
}

// ListByOrgEvent returns an organisation's payments for one event, oldest
// submission first.
func (s *InMemory) ListByOrgEvent(_ context.Context, orgID id.OrganisationID, eventID id.EventID) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Payment
	for _, p := range s.payments {
		if p.OrganisationID == orgID && p.EventID == eventID {
			out = append(out, copyPayment(p))
		}
	}
	sortBySubmission(out)
	return out, nil
}

// ListAll returns every payment, oldest submission first. Admin review path.
func (s *InMemory) ListAll(_ context.Context) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, copyPayment(p))
	}
	sortBySubmission(out)
	return out, nil
}

// FindReferencingTeam returns the payments whose covered set includes the
// team. The rejection cascade uses this to unwind links.
func (s *InMemory) FindReferencingTeam(_ context.Context, teamID id.TeamID) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Payment
	for _, p := range s.payments {
		if p.Covers(teamID) {
			out = append(out, copyPayment(p))
		}
	}
	sortBySubmission(out)
	return out, nil
}

// Update replaces a payment record.
func (s *InMemory) Update(_ context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.payments[p.ID] = copyPayment(p)
	return nil
}

// Delete removes a payment. Idempotent.
func (s *InMemory) Delete(_ context.Context, paymentID id.PaymentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.payments, paymentID)
	return nil
}

func sortBySubmission(ps []*models.Payment) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].SubmittedAt.Before(ps[j].SubmittedAt) })
}

func copyPayment(p *models.Payment) *models.Payment {
	cp := *p
	cp.TeamIDs = append([]id.TeamID(nil), p.TeamIDs...)
	if p.ReviewedAt != nil {
		t := *p.ReviewedAt
		cp.ReviewedAt = &t
	}
	return &cp
}
