package approval

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"roboreg/internal/audit"
	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	dErrors "roboreg/pkg/domain-errors"
	"roboreg/pkg/platform/sentinel"
	"roboreg/pkg/platform/tx"
	"roboreg/pkg/requestcontext"
)

type EventStore interface {
	FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error)
	UpdateRegistration(ctx context.Context, eventID id.EventID, reg models.Registration) error
	Delete(ctx context.Context, eventID id.EventID) error
}

type TeamStore interface {
	ListByOrgEvent(ctx context.Context, orgID id.OrganisationID, eventID id.EventID) ([]*models.Team, error)
	ListActiveByEventCategory(ctx context.Context, eventID id.EventID, categoryCode string) ([]*models.Team, error)
	Update(ctx context.Context, team *models.Team) error
}

type PersonStore interface {
	RemoveContestantParticipation(ctx context.Context, contestantID id.ContestantID, eventID id.EventID, categoryCode string) error
	RemoveCoachParticipation(ctx context.Context, coachID id.CoachID, eventID id.EventID, categoryCode string) error
	RemoveParticipationsForEvent(ctx context.Context, eventID id.EventID) error
}

type PaymentStore interface {
	FindReferencingTeam(ctx context.Context, teamID id.TeamID) ([]*models.Payment, error)
	Update(ctx context.Context, p *models.Payment) error
	Delete(ctx context.Context, paymentID id.PaymentID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service runs the admin approval workflow: approving registrations,
// rejecting them with the payment-unwind cascade, and deleting events.
type Service struct {
	events         EventStore
	teams          TeamStore
	people         PersonStore
	payments       PaymentStore
	runner         tx.Runner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(events EventStore, teams TeamStore, people PersonStore, payments PaymentStore, runner tx.Runner, opts ...Option) *Service {
	s := &Service{events: events, teams: teams, people: people, payments: payments, runner: runner}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Approve transitions a pending registration to approved. No cascade.
func (s *Service) Approve(ctx context.Context, eventID id.EventID, registrationID id.RegistrationID) (*models.Registration, error) {
	event, registration, err := s.findRegistration(ctx, eventID, registrationID)
	if err != nil {
		return nil, err
	}

	if err := registration.Approve(); err != nil {
		return nil, err
	}
	if err := s.events.UpdateRegistration(ctx, event.ID, *registration); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registration")
	}

	s.logAudit(ctx, audit.ActionRegistrationApproved, registration.ID.String(), map[string]any{
		"event_id":        event.ID.String(),
		"organisation_id": registration.OrganisationID.String(),
		"category":        registration.Category,
	})
	s.incrementApproved()

	return registration, nil
}

// Reject transitions a pending registration to rejected and runs the
// payment-unwind cascade: the organisation's teams in the rejected category
// are withdrawn, their payment links cleared, and every payment referencing
// them is trimmed or deleted once it covers nothing. Each step sets a target
// state, so a partially applied cascade is repaired by re-running it.
func (s *Service) Reject(ctx context.Context, eventID id.EventID, registrationID id.RegistrationID, reason string) (*models.Registration, error) {
	event, registration, err := s.findRegistration(ctx, eventID, registrationID)
	if err != nil {
		return nil, err
	}

	if err := registration.Reject(reason); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.events.UpdateRegistration(ctx, event.ID, *registration); err != nil {
			return err
		}
		return s.unwind(ctx, event, registration, now)
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reject registration")
	}

	s.logAudit(ctx, audit.ActionRegistrationRejected, registration.ID.String(), map[string]any{
		"event_id":        event.ID.String(),
		"organisation_id": registration.OrganisationID.String(),
		"category":        registration.Category,
		"reason":          registration.RejectionReason,
	})
	s.incrementRejected()

	return registration, nil
}

// DeleteEvent removes an event, its registrations and every participation
// entry pointing at it.
func (s *Service) DeleteEvent(ctx context.Context, eventID id.EventID) error {
	if _, err := s.events.FindByID(ctx, eventID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}

	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.people.RemoveParticipationsForEvent(ctx, eventID); err != nil {
			return err
		}
		return s.events.Delete(ctx, eventID)
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete event")
	}

	s.logAudit(ctx, audit.ActionEventDeleted, eventID.String(), nil)
	return nil
}

func (s *Service) findRegistration(ctx context.Context, eventID id.EventID, registrationID id.RegistrationID) (*models.Event, *models.Registration, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	registration, ok := event.FindRegistration(registrationID)
	if !ok {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
	}
	return event, registration, nil
}

// unwind withdraws the rejected registration's teams and detaches their
// payments. The category is matched by code or display name since older
// registrations may carry either.
func (s *Service) unwind(ctx context.Context, event *models.Event, registration *models.Registration, now time.Time) error {
	teams, err := s.teams.ListByOrgEvent(ctx, registration.OrganisationID, event.ID)
	if err != nil {
		return err
	}

	var affected []*models.Team
	for _, team := range teams {
		if matchesCategory(team, registration.Category) {
			affected = append(affected, team)
		}
	}

	for _, team := range affected {
		if team.IsActive() {
			if err := team.Withdraw(now); err != nil {
				return err
			}
		}
		team.DetachPayment(now)
		if err := s.teams.Update(ctx, team); err != nil {
			return err
		}
		if err := s.pruneParticipations(ctx, team); err != nil {
			return err
		}
		if err := s.unwindPayments(ctx, team.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) unwindPayments(ctx context.Context, teamID id.TeamID) error {
	payments, err := s.payments.FindReferencingTeam(ctx, teamID)
	if err != nil {
		return err
	}
	for _, payment := range payments {
		if payment.RemoveTeam(teamID) {
			if err := s.payments.Update(ctx, payment); err != nil {
				return err
			}
		} else {
			if err := s.payments.Delete(ctx, payment.ID); err != nil {
				return err
			}
		}
		s.incrementUnwound()
	}
	return nil
}

func (s *Service) pruneParticipations(ctx context.Context, team *models.Team) error {
	for _, cid := range team.ContestantIDs {
		if err := s.people.RemoveContestantParticipation(ctx, cid, team.EventID, team.CategoryCode); err != nil {
			return err
		}
	}
	active, err := s.teams.ListActiveByEventCategory(ctx, team.EventID, team.CategoryCode)
	if err != nil {
		return err
	}
	for _, t := range active {
		if t.CoachID == team.CoachID {
			return nil
		}
	}
	return s.people.RemoveCoachParticipation(ctx, team.CoachID, team.EventID, team.CategoryCode)
}

func matchesCategory(team *models.Team, category string) bool {
	return strings.EqualFold(team.CategoryCode, category) || strings.EqualFold(team.CategoryName, category)
}

func (s *Service) logAudit(ctx context.Context, action, subject string, details map[string]any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, action,
			"subject", subject,
			"request_id", requestcontext.RequestID(ctx),
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Action:  action,
		Subject: subject,
		Details: details,
	})
}

func (s *Service) incrementApproved() {
	if s.metrics != nil {
		s.metrics.RegistrationsApproved.Inc()
	}
}

func (s *Service) incrementRejected() {
	if s.metrics != nil {
		s.metrics.RegistrationsRejected.Inc()
	}
}

func (s *Service) incrementUnwound() {
	if s.metrics != nil {
		s.metrics.PaymentsUnwound.Inc()
	}
}
