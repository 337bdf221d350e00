package registration

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roboreg/internal/admission"
	"roboreg/internal/approval"
	"roboreg/internal/audit"
	httpapi "roboreg/internal/http"
	jwttoken "roboreg/internal/jwt_token"
	"roboreg/internal/models"
	"roboreg/internal/payment"
	"roboreg/internal/sequence"
	"roboreg/internal/store"
	counterstore "roboreg/internal/store/counter"
	eventstore "roboreg/internal/store/event"
	organisationstore "roboreg/internal/store/organisation"
	personstore "roboreg/internal/store/person"
	paymentstore "roboreg/internal/store/payment"
	teamstore "roboreg/internal/store/team"
	id "roboreg/pkg/domain"
	"roboreg/pkg/platform/tx"
	"roboreg/pkg/testutil"
)

const adminToken = "test-admin-token"

// stack wires the full service with in-memory stores behind the real router,
// auth middleware included.
type stack struct {
	handler  http.Handler
	token    string
	events   *eventstore.InMemory
	payments *paymentstore.InMemory
	teams    *teamstore.InMemory
	seeded   *store.SeedResult
}

func newStack(t *testing.T) *stack {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	counters := counterstore.NewInMemory()
	organisations := organisationstore.NewInMemory()
	people := personstore.NewInMemory()
	events := eventstore.NewInMemory()
	teams := teamstore.NewInMemory()
	payments := paymentstore.NewInMemory()
	runner := tx.NewPassthroughRunner()
	allocator := sequence.NewAllocator(counters)
	publisher := audit.NewPublisher(audit.NewInMemoryStore())

	seeded, err := store.SeedDev(ctx, organisations, people, events, allocator, logger)
	require.NoError(t, err)

	admissionSvc := admission.New(events, teams, people, allocator, admission.NewMemoryLease(), runner,
		admission.WithLogger(logger),
		admission.WithAuditPublisher(publisher),
	)
	paymentSvc := payment.New(payments, teams, events, runner,
		payment.WithLogger(logger),
		payment.WithAuditPublisher(publisher),
	)
	approvalSvc := approval.New(events, teams, people, payments, runner,
		approval.WithLogger(logger),
		approval.WithAuditPublisher(publisher),
	)

	jwtService := jwttoken.NewJWTService("test-signing-key", "roboreg")
	token, err := jwtService.GenerateAccessToken(seeded.OrganisationID, "organisation", time.Hour)
	require.NoError(t, err)

	handler := httpapi.NewRouter(httpapi.Deps{
		Logger:         logger,
		TokenValidator: jwtService,
		AdminToken:     adminToken,
		Admission:      admission.NewHandler(admissionSvc, logger),
		Payment:        payment.NewHandler(paymentSvc, logger),
		Approval:       approval.NewHandler(approvalSvc, logger),
	})

	return &stack{
		handler:  handler,
		token:    token,
		events:   events,
		payments: payments,
		teams:    teams,
		seeded:   seeded,
	}
}

func (s *stack) orgRequest(t *testing.T, method, path string, body any) *http.Request {
	req := testutil.NewJSONRequest(t, method, path, body)
	req.Header.Set("Authorization", "Bearer "+s.token)
	return req
}

func (s *stack) adminRequest(t *testing.T, method, path string, body any) *http.Request {
	req := testutil.NewJSONRequest(t, method, path, body)
	req.Header.Set("X-Admin-Token", adminToken)
	req.Header.Set("X-Admin-ID", "reviewer-7")
	return req
}

func (s *stack) admitTeam(t *testing.T, category string, contestants []id.ContestantID) *admission.TeamResponse {
	t.Helper()
	ids := make([]string, len(contestants))
	for i, c := range contestants {
		ids[i] = c.String()
	}
	req := s.orgRequest(t, http.MethodPost, "/api/teams", map[string]any{
		"event_id":       s.seeded.EventID,
		"category_code":  category,
		"contestant_ids": ids,
		"coach_id":       s.seeded.CoachID,
	})
	rr := testutil.DoRequest(s.handler, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return testutil.UnmarshalResponse[admission.TeamResponse](t, rr)
}

func (s *stack) registrationFor(t *testing.T, teamID id.TeamID) *models.Registration {
	t.Helper()
	event, err := s.events.FindByID(context.Background(), s.seeded.EventID)
	require.NoError(t, err)
	reg, ok := event.RegistrationForTeam(teamID)
	require.True(t, ok, "no registration recorded for team %s", teamID)
	return reg
}

func TestRegistrationLifecycle(t *testing.T) {
	s := newStack(t)

	team := s.admitTeam(t, "MNR", s.seeded.ContestantIDs[:2])
	assert.Equal(t, "TMNR0001", team.ID.String())
	assert.Equal(t, string(models.RegistrationStatusPending), team.RegistrationStatus)

	// The team shows up for its organisation with the pending registration.
	rr := testutil.DoRequest(s.handler, s.orgRequest(t, http.MethodGet, "/api/teams/event/"+s.seeded.EventID.String(), nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	teams := testutil.UnmarshalResponse[[]admission.TeamResponse](t, rr)
	require.Len(t, *teams, 1)

	// Submit the payment receipt covering the team.
	rr = testutil.DoRequest(s.handler, s.orgRequest(t, http.MethodPost, "/api/payments", map[string]any{
		"event_id":    s.seeded.EventID,
		"receipt_url": "https://bank.example/receipt/1",
		"team_ids":    []string{team.ID.String()},
		"amount":      15000,
	}))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	paid := testutil.UnmarshalResponse[models.Payment](t, rr)
	assert.Equal(t, models.PaymentStatusPending, paid.Status)

	// Admin approves the registration.
	reg := s.registrationFor(t, team.ID)
	rr = testutil.DoRequest(s.handler, s.adminRequest(t, http.MethodPost,
		"/api/events/"+s.seeded.EventID.String()+"/registrations/"+reg.ID.String()+"/approve", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	reg = s.registrationFor(t, team.ID)
	assert.Equal(t, models.RegistrationStatusApproved, reg.Status)

	// Admin approves the payment.
	rr = testutil.DoRequest(s.handler, s.adminRequest(t, http.MethodPut,
		"/api/payments/admin/"+paid.ID.String(), map[string]string{"status": "approved", "notes": "matches bank statement"}))
	testutil.AssertStatus(t, rr, http.StatusOK)
	reviewed := testutil.UnmarshalResponse[models.Payment](t, rr)
	assert.Equal(t, models.PaymentStatusApproved, reviewed.Status)
	assert.Equal(t, "reviewer-7", reviewed.ReviewedBy)
}

func TestRejectionUnwindsTeamAndPayment(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	team := s.admitTeam(t, "FRE", s.seeded.ContestantIDs[:3])

	rr := testutil.DoRequest(s.handler, s.orgRequest(t, http.MethodPost, "/api/payments", map[string]any{
		"event_id":    s.seeded.EventID,
		"receipt_url": "https://bank.example/receipt/2",
		"team_ids":    []string{team.ID.String()},
		"amount":      9000,
	}))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	paid := testutil.UnmarshalResponse[models.Payment](t, rr)

	reg := s.registrationFor(t, team.ID)
	rr = testutil.DoRequest(s.handler, s.adminRequest(t, http.MethodPost,
		"/api/events/"+s.seeded.EventID.String()+"/registrations/"+reg.ID.String()+"/reject",
		map[string]string{"rejection_reason": "duplicate entry"}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	// The team is withdrawn, its payment link cleared and the emptied payment gone.
	got, err := s.teams.FindByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TeamStatusWithdrawn, got.Status)
	assert.Nil(t, got.PaymentID)

	_, err = s.payments.FindByID(ctx, paid.ID)
	assert.Error(t, err)

	// Freestyle allows one team per organisation; rejection freed the slot.
	s.admitTeam(t, "FRE", s.seeded.ContestantIDs[3:6])
}

func TestRejectionRequiresReason(t *testing.T) {
	s := newStack(t)

	team := s.admitTeam(t, "LFW", s.seeded.ContestantIDs[:1])
	reg := s.registrationFor(t, team.ID)

	rr := testutil.DoRequest(s.handler, s.adminRequest(t, http.MethodPost,
		"/api/events/"+s.seeded.EventID.String()+"/registrations/"+reg.ID.String()+"/reject",
		map[string]string{}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestWithdrawTeam(t *testing.T) {
	s := newStack(t)

	team := s.admitTeam(t, "SMO", s.seeded.ContestantIDs[:2])

	rr := testutil.DoRequest(s.handler, s.orgRequest(t, http.MethodPut, "/api/teams/"+team.ID.String()+"/withdraw", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	withdrawn := testutil.UnmarshalResponse[admission.TeamResponse](t, rr)
	assert.Equal(t, models.TeamStatusWithdrawn, withdrawn.Status)

	// The freed contestants can join a new team in the same category.
	s.admitTeam(t, "SMO", s.seeded.ContestantIDs[:2])
}

func TestAuthenticationGuards(t *testing.T) {
	s := newStack(t)

	// Organisation surface without a token.
	rr := testutil.DoRequest(s.handler, testutil.NewRequest(t, http.MethodGet, "/api/teams/event/"+s.seeded.EventID.String()))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	testutil.AssertErrorCode(t, rr, "unauthorized")

	// Admin surface with the wrong token.
	req := testutil.NewRequest(t, http.MethodGet, "/api/payments/admin/all")
	req.Header.Set("X-Admin-Token", "wrong")
	rr = testutil.DoRequest(s.handler, req)
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	// Organisation tokens do not open the admin surface.
	rr = testutil.DoRequest(s.handler, s.orgRequest(t, http.MethodGet, "/api/payments/admin/all", nil))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestPaymentRejectsForeignOrUnknownTeams(t *testing.T) {
	s := newStack(t)

	rr := testutil.DoRequest(s.handler, s.orgRequest(t, http.MethodPost, "/api/payments", map[string]any{
		"event_id":    s.seeded.EventID,
		"receipt_url": "https://bank.example/receipt/3",
		"team_ids":    []string{"TMNR9999"},
		"amount":      5000,
	}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertErrorCode(t, rr, "validation_error")
}
