package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"roboreg/internal/category"
	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	"roboreg/pkg/platform/sentinel"
)

type MemoryEventStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestMemoryEventStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryEventStoreSuite))
}

func (s *MemoryEventStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Now().UTC()
}

func (s *MemoryEventStoreSuite) newEvent(name string) *models.Event {
	e, err := models.NewEvent(id.NewEventID(), name, s.now.Add(-time.Hour), s.now.Add(time.Hour), category.Default().All(), s.now)
	s.Require().NoError(err)
	return e
}

func (s *MemoryEventStoreSuite) newRegistration(e *models.Event) models.Registration {
	team := &models.Team{
		ID:             "TMNR0001",
		OrganisationID: "MN00001",
		EventID:        e.ID,
		CategoryCode:   "MNR",
		ContestantIDs:  []id.ContestantID{"CN0001", "CN0002"},
		CoachID:        "CH0001",
		Status:         models.TeamStatusActive,
	}
	return models.NewRegistration(team, s.now)
}

func (s *MemoryEventStoreSuite) TestCreateAndFind() {
	e := s.newEvent("Regional Cup")
	s.Require().NoError(s.store.Create(s.ctx, e))
	s.Require().ErrorIs(s.store.Create(s.ctx, e), sentinel.ErrConflict)

	got, err := s.store.FindByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(e.Name, got.Name)
	s.Len(got.Categories, 4)

	_, err = s.store.FindByID(s.ctx, id.NewEventID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryEventStoreSuite) TestFindReturnsCopies() {
	e := s.newEvent("Regional Cup")
	s.Require().NoError(s.store.Create(s.ctx, e))

	got, err := s.store.FindByID(s.ctx, e.ID)
	s.Require().NoError(err)
	got.Name = "mutated"
	got.Categories[0].MaxTeamsPerOrg = 99

	again, err := s.store.FindByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal("Regional Cup", again.Name)
	s.NotEqual(99, again.Categories[0].MaxTeamsPerOrg)
}

func (s *MemoryEventStoreSuite) TestAppendRegistrationIdempotent() {
	e := s.newEvent("Regional Cup")
	s.Require().NoError(s.store.Create(s.ctx, e))
	reg := s.newRegistration(e)

	s.Require().NoError(s.store.AppendRegistration(s.ctx, e.ID, reg))
	s.Require().NoError(s.store.AppendRegistration(s.ctx, e.ID, reg))

	got, err := s.store.FindByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Registrations, 1)
	s.Equal(reg.ID, got.Registrations[0].ID)
}

func (s *MemoryEventStoreSuite) TestUpdateRegistration() {
	e := s.newEvent("Regional Cup")
	s.Require().NoError(s.store.Create(s.ctx, e))
	reg := s.newRegistration(e)
	s.Require().NoError(s.store.AppendRegistration(s.ctx, e.ID, reg))

	s.Require().NoError(reg.Approve())
	s.Require().NoError(s.store.UpdateRegistration(s.ctx, e.ID, reg))

	got, err := s.store.FindByID(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(models.RegistrationStatusApproved, got.Registrations[0].Status)

	unknown := reg
	unknown.ID = id.NewRegistrationID()
	s.Require().ErrorIs(s.store.UpdateRegistration(s.ctx, e.ID, unknown), sentinel.ErrNotFound)
}

func (s *MemoryEventStoreSuite) TestDeleteIdempotent() {
	e := s.newEvent("Regional Cup")
	s.Require().NoError(s.store.Create(s.ctx, e))

	s.Require().NoError(s.store.Delete(s.ctx, e.ID))
	s.Require().NoError(s.store.Delete(s.ctx, e.ID))

	_, err := s.store.FindByID(s.ctx, e.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryEventStoreSuite) TestListOrdered() {
	first := s.newEvent("Spring Open")
	first.CreatedAt = s.now.Add(-time.Minute)
	second := s.newEvent("Autumn Finals")
	s.Require().NoError(s.store.Create(s.ctx, second))
	s.Require().NoError(s.store.Create(s.ctx, first))

	got, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("Spring Open", got[0].Name)
}
