package event

import (
	"context"
	"sort"
	"sync"

	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	"roboreg/pkg/platform/sentinel"
)

// InMemory keeps events and their embedded registrations in a mutex-guarded
// map. Suitable for tests and single-node development.
type InMemory struct {
	mu     sync.RWMutex
	events map[id.EventID]*models.Event
}

// NewInMemory constructs an empty in-memory event store.
func NewInMemory() *InMemory {
	return &InMemory{events: make(map[id.EventID]*models.Event)}
}

// Create inserts an event.
func (s *InMemory) Create(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[e.ID]; exists {
		return sentinel.ErrConflict
	}
	s.events[e.ID] = copyEvent(e)
	return nil
}

// FindByID resolves an event with its registrations.
func (s *InMemory) FindByID(_ context.Context, eventID id.EventID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyEvent(e), nil
}

// List returns all events ordered by creation time.
func (s *InMemory) List(_ context.Context) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, copyEvent(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// AppendRegistration adds an embedded registration to the event. Appending a
// registration ID that already exists is a no-op so retried cascades do not
// duplicate entries.
func (s *InMemory) AppendRegistration(_ context.Context, eventID id.EventID, reg models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if _, exists := e.FindRegistration(reg.ID); exists {
		return nil
	}
	e.Registrations = append(e.Registrations, reg)
	return nil
}

// UpdateRegistration replaces the embedded registration matching reg.ID.
func (s *InMemory) UpdateRegistration(_ context.Context, eventID id.EventID, reg models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return sentinel.ErrNotFound
	}
	existing, ok := e.FindRegistration(reg.ID)
	if !ok {
		return sentinel.ErrNotFound
	}
	*existing = reg
	return nil
}

// Delete removes an event and its registrations. Idempotent.
func (s *InMemory) Delete(_ context.Context, eventID id.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.events, eventID)
	return nil
}

func copyEvent(e *models.Event) *models.Event {
	cp := *e
	cp.Categories = append([]models.Category(nil), e.Categories...)
	cp.Registrations = make([]models.Registration, len(e.Registrations))
	for i, r := range e.Registrations {
		r.ContestantIDs = append([]id.ContestantID(nil), r.ContestantIDs...)
		cp.Registrations[i] = r
	}
	return &cp
}
