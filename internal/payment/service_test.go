package payment

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"roboreg/internal/category"
	"roboreg/internal/models"
	eventstore "roboreg/internal/store/event"
	paymentstore "roboreg/internal/store/payment"
	teamstore "roboreg/internal/store/team"
	id "roboreg/pkg/domain"
	dErrors "roboreg/pkg/domain-errors"
	"roboreg/pkg/platform/tx"
	"roboreg/pkg/requestcontext"
)

type PaymentServiceSuite struct {
	suite.Suite
	ctx      context.Context
	events   *eventstore.InMemory
	teams    *teamstore.InMemory
	payments *paymentstore.InMemory
	service  *Service
	orgID    id.OrganisationID
	event    *models.Event
	now      time.Time
	nextTeam int
}

func TestPaymentServiceSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.events = eventstore.NewInMemory()
	s.teams = teamstore.NewInMemory()
	s.payments = paymentstore.NewInMemory()
	s.orgID = id.OrganisationID("MN00001")
	s.now = time.Now().UTC()
	s.nextTeam = 0

	s.service = New(s.payments, s.teams, s.events, tx.NewPassthroughRunner())

	event, err := models.NewEvent(id.NewEventID(), "Regional Cup", s.now.Add(-time.Hour), s.now.Add(time.Hour), category.Default().All(), s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.events.Create(s.ctx, event))
	s.event = event
}

// admitTeam persists a team the way the admission controller would,
// optionally with its pending registration already embedded.
func (s *PaymentServiceSuite) admitTeam(registered bool) *models.Team {
	s.nextTeam++
	cat, ok := s.event.CategoryByCode("LFW")
	s.Require().True(ok)
	team, err := models.NewTeam(
		id.TeamID(fmt.Sprintf("TLFW%04d", s.nextTeam)),
		s.orgID, s.event.ID, cat,
		[]id.ContestantID{id.ContestantID(fmt.Sprintf("CN%04d", s.nextTeam))},
		"CH0001", s.now,
	)
	s.Require().NoError(err)
	s.Require().NoError(s.teams.CreateIfWithinCap(s.ctx, team, cat.MaxTeamsPerOrg))
	if registered {
		s.Require().NoError(s.events.AppendRegistration(s.ctx, s.event.ID, models.NewRegistration(team, s.now)))
	}
	return team
}

func (s *PaymentServiceSuite) submitRequest(teams ...*models.Team) SubmitPaymentRequest {
	ids := make([]string, len(teams))
	for i, t := range teams {
		ids[i] = string(t.ID)
	}
	return SubmitPaymentRequest{
		EventID:    s.event.ID,
		ReceiptURL: "https://bank.example/receipt.pdf",
		TeamIDs:    ids,
		Amount:     15000,
	}
}

func (s *PaymentServiceSuite) TestSubmitPaymentLinksTeams() {
	a := s.admitTeam(true)
	b := s.admitTeam(true)

	payment, err := s.service.SubmitPayment(s.ctx, s.orgID, s.submitRequest(a, b))
	s.Require().NoError(err)
	s.Equal(models.PaymentStatusPending, payment.Status)
	s.ElementsMatch([]id.TeamID{a.ID, b.ID}, payment.TeamIDs)

	for _, tid := range []id.TeamID{a.ID, b.ID} {
		team, err := s.teams.FindByID(s.ctx, tid)
		s.Require().NoError(err)
		s.Require().NotNil(team.PaymentID)
		s.Equal(payment.ID, *team.PaymentID)
	}
}

func (s *PaymentServiceSuite) TestSubmitPaymentSynthesizesMissingRegistration() {
	unregistered := s.admitTeam(false)

	_, err := s.service.SubmitPayment(s.ctx, s.orgID, s.submitRequest(unregistered))
	s.Require().NoError(err)

	event, err := s.events.FindByID(s.ctx, s.event.ID)
	s.Require().NoError(err)
	reg, ok := event.RegistrationForTeam(unregistered.ID)
	s.Require().True(ok)
	s.Equal(models.RegistrationStatusPending, reg.Status)
	s.Equal(unregistered.CategoryCode, reg.Category)
	s.Equal(unregistered.ContestantIDs, reg.ContestantIDs)
	s.Equal(unregistered.CoachID, reg.CoachID)
}

func (s *PaymentServiceSuite) TestSubmitPaymentLeavesExistingRegistrationUntouched() {
	registered := s.admitTeam(true)
	before, err := s.events.FindByID(s.ctx, s.event.ID)
	s.Require().NoError(err)
	s.Require().Len(before.Registrations, 1)

	_, err = s.service.SubmitPayment(s.ctx, s.orgID, s.submitRequest(registered))
	s.Require().NoError(err)

	after, err := s.events.FindByID(s.ctx, s.event.ID)
	s.Require().NoError(err)
	s.Len(after.Registrations, 1)
}

func (s *PaymentServiceSuite) TestSubmitPaymentRejectsDoublePay() {
	team := s.admitTeam(true)
	_, err := s.service.SubmitPayment(s.ctx, s.orgID, s.submitRequest(team))
	s.Require().NoError(err)

	_, err = s.service.SubmitPayment(s.ctx, s.orgID, s.submitRequest(team))
	s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
}

// TestConcurrentSubmitSingleWinner races two submissions for the same team
// past the sequential precheck; the conditional link in the store must let
// exactly one through and leave exactly one payment behind.
func (s *PaymentServiceSuite) TestConcurrentSubmitSingleWinner() {
	team := s.admitTeam(true)

	const goroutines = 8
	var wg sync.WaitGroup
	var succeeded atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.service.SubmitPayment(s.ctx, s.orgID, s.submitRequest(team)); err == nil {
				succeeded.Add(1)
			} else {
				s.True(dErrors.HasCode(err, dErrors.CodeValidation))
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), succeeded.Load())

	payments, err := s.payments.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(payments, 1)

	linked, err := s.teams.FindByID(s.ctx, team.ID)
	s.Require().NoError(err)
	s.Require().NotNil(linked.PaymentID)
	s.Equal(payments[0].ID, *linked.PaymentID)
}

func (s *PaymentServiceSuite) TestSubmitPaymentRejectsForeignTeams() {
	team := s.admitTeam(true)

	_, err := s.service.SubmitPayment(s.ctx, "MN00002", s.submitRequest(team))
	s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *PaymentServiceSuite) TestSubmitPaymentRejectsUnknownTeams() {
	req := SubmitPaymentRequest{
		EventID:    s.event.ID,
		ReceiptURL: "https://bank.example/receipt.pdf",
		TeamIDs:    []string{"TLFW9999"},
		Amount:     5000,
	}
	_, err := s.service.SubmitPayment(s.ctx, s.orgID, req)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *PaymentServiceSuite) TestSubmitPaymentUnknownEvent() {
	team := s.admitTeam(true)
	req := s.submitRequest(team)
	req.EventID = id.NewEventID()

	_, err := s.service.SubmitPayment(s.ctx, s.orgID, req)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PaymentServiceSuite) TestListByEvent() {
	team := s.admitTeam(true)
	payment, err := s.service.SubmitPayment(s.ctx, s.orgID, s.submitRequest(team))
	s.Require().NoError(err)

	got, err := s.service.ListByEvent(s.ctx, s.orgID, s.event.ID)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(payment.ID, got[0].ID)

	foreign, err := s.service.ListByEvent(s.ctx, "MN00002", s.event.ID)
	s.Require().NoError(err)
	s.Empty(foreign)
}

func (s *PaymentServiceSuite) TestReviewApproves() {
	team := s.admitTeam(true)
	payment, err := s.service.SubmitPayment(s.ctx, s.orgID, s.submitRequest(team))
	s.Require().NoError(err)

	ctx := requestcontext.WithAdminID(s.ctx, "admin-1")
	reviewed, err := s.service.Review(ctx, payment.ID, ReviewPaymentRequest{Status: "approved", Notes: "receipt checks out"})
	s.Require().NoError(err)
	s.Equal(models.PaymentStatusApproved, reviewed.Status)
	s.Equal("admin-1", reviewed.ReviewedBy)
	s.Require().NotNil(reviewed.ReviewedAt)
	s.Equal("receipt checks out", reviewed.Notes)
}

func (s *PaymentServiceSuite) TestReviewTwiceFails() {
	team := s.admitTeam(true)
	payment, err := s.service.SubmitPayment(s.ctx, s.orgID, s.submitRequest(team))
	s.Require().NoError(err)

	_, err = s.service.Review(s.ctx, payment.ID, ReviewPaymentRequest{Status: "rejected"})
	s.Require().NoError(err)
	_, err = s.service.Review(s.ctx, payment.ID, ReviewPaymentRequest{Status: "approved"})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *PaymentServiceSuite) TestReviewUnknownPayment() {
	_, err := s.service.Review(s.ctx, id.NewPaymentID(), ReviewPaymentRequest{Status: "approved"})
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
