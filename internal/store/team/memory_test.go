package team

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	"roboreg/pkg/platform/sentinel"
)

type TeamStoreSuite struct {
	suite.Suite
	store   *InMemory
	ctx     context.Context
	eventID id.EventID
}

func (s *TeamStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.eventID = id.NewEventID()
}

func TestTeamStoreSuite(t *testing.T) {
	suite.Run(t, new(TeamStoreSuite))
}

func (s *TeamStoreSuite) newTeam(teamID id.TeamID, orgID id.OrganisationID) *models.Team {
	now := time.Now()
	return &models.Team{
		ID:             teamID,
		OrganisationID: orgID,
		EventID:        s.eventID,
		CategoryCode:   "MNR",
		CategoryName:   "Mini Robots",
		ContestantIDs:  []id.ContestantID{"CN0001", "CN0002"},
		CoachID:        "CH0001",
		Status:         models.TeamStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (s *TeamStoreSuite) TestCreateAndFind() {
	team := s.newTeam("TMNR0001", "MN00001")
	s.Require().NoError(s.store.CreateIfWithinCap(s.ctx, team, 2))

	found, err := s.store.FindByID(s.ctx, team.ID)
	s.Require().NoError(err)
	s.Equal(team.ContestantIDs, found.ContestantIDs)

	_, err = s.store.FindByID(s.ctx, "TMNR9999")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *TeamStoreSuite) TestCapGuardRejectsOverflow() {
	s.Require().NoError(s.store.CreateIfWithinCap(s.ctx, s.newTeam("TMNR0001", "MN00001"), 1))

	err := s.store.CreateIfWithinCap(s.ctx, s.newTeam("TMNR0002", "MN00001"), 1)
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	// Cap is per organisation
	s.Require().NoError(s.store.CreateIfWithinCap(s.ctx, s.newTeam("TMNR0003", "MN00002"), 1))
}

func (s *TeamStoreSuite) TestWithdrawnTeamsFreeCapacity() {
	team := s.newTeam("TMNR0001", "MN00001")
	s.Require().NoError(s.store.CreateIfWithinCap(s.ctx, team, 1))

	s.Require().NoError(team.Withdraw(time.Now()))
	s.Require().NoError(s.store.Update(s.ctx, team))

	count, err := s.store.CountActive(s.ctx, "MN00001", s.eventID, "MNR")
	s.Require().NoError(err)
	s.Equal(0, count)

	s.Require().NoError(s.store.CreateIfWithinCap(s.ctx, s.newTeam("TMNR0002", "MN00001"), 1))
}

// TestConcurrentCapGuard verifies only maxTeamsPerOrg concurrent creates
// succeed for the same organisation/event/category.
func (s *TeamStoreSuite) TestConcurrentCapGuard() {
	const goroutines = 20
	const maxPerOrg = 3

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32
	alloc := atomic.Int32{}

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n := alloc.Add(1)
			team := s.newTeam(id.TeamID(fmt.Sprintf("TMNR%04d", n)), "MN00001")
			err := s.store.CreateIfWithinCap(s.ctx, team, maxPerOrg)
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(maxPerOrg), successCount.Load())
	s.Equal(int32(goroutines-maxPerOrg), conflictCount.Load())
}

func (s *TeamStoreSuite) TestLinkPaymentIsFirstWriterWins() {
	team := s.newTeam("TMNR0001", "MN00001")
	s.Require().NoError(s.store.CreateIfWithinCap(s.ctx, team, 2))

	first := id.NewPaymentID()
	s.Require().NoError(s.store.LinkPayment(s.ctx, team.ID, first, time.Now()))

	err := s.store.LinkPayment(s.ctx, team.ID, id.NewPaymentID(), time.Now())
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)

	found, err := s.store.FindByID(s.ctx, team.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.PaymentID)
	s.Equal(first, *found.PaymentID)

	err = s.store.LinkPayment(s.ctx, "TMNR9999", id.NewPaymentID(), time.Now())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *TeamStoreSuite) TestConcurrentLinkPaymentSingleWinner() {
	team := s.newTeam("TMNR0001", "MN00001")
	s.Require().NoError(s.store.CreateIfWithinCap(s.ctx, team, 2))

	const goroutines = 20
	var wg sync.WaitGroup
	var linked, alreadyUsed atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.LinkPayment(s.ctx, team.ID, id.NewPaymentID(), time.Now())
			if err == nil {
				linked.Add(1)
			} else if errors.Is(err, sentinel.ErrAlreadyUsed) {
				alreadyUsed.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), linked.Load())
	s.Equal(int32(goroutines-1), alreadyUsed.Load())
}

func (s *TeamStoreSuite) TestListActiveByEventCategory() {
	s.Require().NoError(s.store.CreateIfWithinCap(s.ctx, s.newTeam("TMNR0001", "MN00001"), 5))
	s.Require().NoError(s.store.CreateIfWithinCap(s.ctx, s.newTeam("TMNR0002", "MN00002"), 5))

	withdrawn := s.newTeam("TMNR0003", "MN00003")
	s.Require().NoError(s.store.CreateIfWithinCap(s.ctx, withdrawn, 5))
	s.Require().NoError(withdrawn.Withdraw(time.Now()))
	s.Require().NoError(s.store.Update(s.ctx, withdrawn))

	active, err := s.store.ListActiveByEventCategory(s.ctx, s.eventID, "MNR")
	s.Require().NoError(err)
	s.Len(active, 2)
}
