package team

import (
	"context"
	"sync"
	"time"

	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	"roboreg/pkg/platform/sentinel"
)

// InMemory implements the team store with mutex-guarded maps.
//
// CreateIfWithinCap holds the lock across the count and the insert, so the
// capacity guard is atomic here just as the conditional insert makes it
// atomic in postgres.
type InMemory struct {
	mu    sync.RWMutex
	teams map[id.TeamID]*models.Team
}

// NewInMemory creates an empty in-memory team store.
func NewInMemory() *InMemory {
	return &InMemory{teams: make(map[id.TeamID]*models.Team)}
}

// CreateIfWithinCap inserts the team only while the organisation still has
// fewer than maxTeamsPerOrg active teams in the event/category. Returns
// sentinel.ErrConflict when the cap is already reached.
func (s *InMemory) CreateIfWithinCap(_ context.Context, team *models.Team, maxTeamsPerOrg int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.teams[team.ID]; exists {
		return sentinel.ErrConflict
	}

	active := 0
	for _, existing := range s.teams {
		if existing.OrganisationID == team.OrganisationID &&
			existing.EventID == team.EventID &&
			existing.CategoryCode == team.CategoryCode &&
			existing.IsActive() {
			active++
		}
	}
	if active >= maxTeamsPerOrg {
		return sentinel.ErrConflict
	}

	s.teams[team.ID] = copyTeam(team)
	return nil
}

// FindByID returns a team by its identifier.
func (s *InMemory) FindByID(_ context.Context, teamID id.TeamID) (*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.teams[teamID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyTeam(team), nil
}

// ListByOrgEvent returns all teams an organisation fields in an event,
// regardless of status.
func (s *InMemory) ListByOrgEvent(_ context.Context, orgID id.OrganisationID, eventID id.EventID) ([]*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Team
	for _, team := range s.teams {
		if team.OrganisationID == orgID && team.EventID == eventID {
			out = append(out, copyTeam(team))
		}
	}
	return out, nil
}

// ListActiveByEventCategory returns every active team in an event/category,
// across organisations. Used for contestant lock checks.
func (s *InMemory) ListActiveByEventCategory(_ context.Context, eventID id.EventID, categoryCode string) ([]*models.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Team
	for _, team := range s.teams {
		if team.EventID == eventID && team.CategoryCode == categoryCode && team.IsActive() {
			out = append(out, copyTeam(team))
		}
	}
	return out, nil
}

// CountActive counts an organisation's active teams in an event/category.
func (s *InMemory) CountActive(_ context.Context, orgID id.OrganisationID, eventID id.EventID, categoryCode string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, team := range s.teams {
		if team.OrganisationID == orgID && team.EventID == eventID &&
			team.CategoryCode == categoryCode && team.IsActive() {
			count++
		}
	}
	return count, nil
}

// LinkPayment stamps the payment onto the team only while no payment is
// attached yet. The check and the write happen under one lock, mirroring the
// conditional update in postgres, so two concurrent submissions for the same
// team cannot both link. Returns sentinel.ErrAlreadyUsed when the team is
// already paid.
func (s *InMemory) LinkPayment(_ context.Context, teamID id.TeamID, paymentID id.PaymentID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[teamID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if team.PaymentID != nil {
		return sentinel.ErrAlreadyUsed
	}
	pid := paymentID
	team.PaymentID = &pid
	team.UpdatedAt = now
	return nil
}

// Update persists team field changes (status, payment link).
func (s *InMemory) Update(_ context.Context, team *models.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[team.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.teams[team.ID] = copyTeam(team)
	return nil
}

func copyTeam(t *models.Team) *models.Team {
	dup := *t
	dup.ContestantIDs = append([]id.ContestantID(nil), t.ContestantIDs...)
	if t.PaymentID != nil {
		pid := *t.PaymentID
		dup.PaymentID = &pid
	}
	return &dup
}
