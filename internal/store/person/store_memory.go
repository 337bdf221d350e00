package person

import (
	"context"
	"sync"

	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	"roboreg/pkg/platform/sentinel"
)

// InMemory implements the contestant/coach store with mutex-guarded maps.
type InMemory struct {
	mu          sync.RWMutex
	contestants map[id.ContestantID]*models.Contestant
	coaches     map[id.CoachID]*models.Coach
}

// NewInMemory creates an empty in-memory person store.
func NewInMemory() *InMemory {
	return &InMemory{
		contestants: make(map[id.ContestantID]*models.Contestant),
		coaches:     make(map[id.CoachID]*models.Coach),
	}
}

// CreateContestant inserts a contestant record.
func (s *InMemory) CreateContestant(_ context.Context, c *models.Contestant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.contestants[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.contestants[c.ID] = copyContestant(c)
	return nil
}

// CreateCoach inserts a coach record.
func (s *InMemory) CreateCoach(_ context.Context, c *models.Coach) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.coaches[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.coaches[c.ID] = copyCoach(c)
	return nil
}

// FindContestantsOwned resolves the requested contestants, returning only
// those owned by the given organisation. Callers compare the resolved count
// against the requested count to detect foreign or nonexistent contestants
// without leaking which.
func (s *InMemory) FindContestantsOwned(_ context.Context, orgID id.OrganisationID, ids []id.ContestantID) ([]*models.Contestant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Contestant
	for _, cid := range ids {
		if c, ok := s.contestants[cid]; ok && c.OrganisationID == orgID {
			out = append(out, copyContestant(c))
		}
	}
	return out, nil
}

// FindCoachOwned resolves a coach owned by the given organisation.
func (s *InMemory) FindCoachOwned(_ context.Context, orgID id.OrganisationID, coachID id.CoachID) (*models.Coach, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.coaches[coachID]
	if !ok || c.OrganisationID != orgID {
		return nil, sentinel.ErrNotFound
	}
	return copyCoach(c), nil
}

// AddContestantParticipation appends a participation entry unless an entry
// for the same event/category already exists. Idempotent so cascades can be
// re-run.
func (s *InMemory) AddContestantParticipation(_ context.Context, contestantID id.ContestantID, p models.Participation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contestants[contestantID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !hasParticipation(c.Participations, p.EventID, p.Category) {
		c.Participations = append(c.Participations, p)
	}
	return nil
}

// AddCoachParticipation appends a participation entry unless one already
// exists for the same event/category.
func (s *InMemory) AddCoachParticipation(_ context.Context, coachID id.CoachID, p models.Participation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coaches[coachID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !hasParticipation(c.Participations, p.EventID, p.Category) {
		c.Participations = append(c.Participations, p)
	}
	return nil
}

// RemoveContestantParticipation removes the entry for an event/category.
// Idempotent.
func (s *InMemory) RemoveContestantParticipation(_ context.Context, contestantID id.ContestantID, eventID id.EventID, categoryCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contestants[contestantID]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.Participations = removeParticipation(c.Participations, eventID, categoryCode)
	return nil
}

// RemoveCoachParticipation removes the entry for an event/category. Idempotent.
func (s *InMemory) RemoveCoachParticipation(_ context.Context, coachID id.CoachID, eventID id.EventID, categoryCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coaches[coachID]
	if !ok {
		return sentinel.ErrNotFound
	}
	c.Participations = removeParticipation(c.Participations, eventID, categoryCode)
	return nil
}

// RemoveParticipationsForEvent strips every participation entry for the
// event, across all contestants and coaches. Runs when an event is deleted.
func (s *InMemory) RemoveParticipationsForEvent(_ context.Context, eventID id.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.contestants {
		c.Participations = removeEventParticipations(c.Participations, eventID)
	}
	for _, c := range s.coaches {
		c.Participations = removeEventParticipations(c.Participations, eventID)
	}
	return nil
}

func hasParticipation(list []models.Participation, eventID id.EventID, category string) bool {
	for _, p := range list {
		if p.EventID == eventID && p.Category == category {
			return true
		}
	}
	return false
}

func removeParticipation(list []models.Participation, eventID id.EventID, category string) []models.Participation {
	kept := list[:0]
	for _, p := range list {
		if p.EventID != eventID || p.Category != category {
			kept = append(kept, p)
		}
	}
	return kept
}

func removeEventParticipations(list []models.Participation, eventID id.EventID) []models.Participation {
	kept := list[:0]
	for _, p := range list {
		if p.EventID != eventID {
			kept = append(kept, p)
		}
	}
	return kept
}

func copyContestant(c *models.Contestant) *models.Contestant {
	dup := *c
	dup.Participations = append([]models.Participation(nil), c.Participations...)
	return &dup
}

func copyCoach(c *models.Coach) *models.Coach {
	dup := *c
	dup.Participations = append([]models.Participation(nil), c.Participations...)
	return &dup
}
