package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"roboreg/internal/audit"
	"roboreg/internal/models"
	id "roboreg/pkg/domain"
	dErrors "roboreg/pkg/domain-errors"
	"roboreg/pkg/platform/sentinel"
	"roboreg/pkg/platform/tx"
	"roboreg/pkg/requestcontext"
)

type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	FindByID(ctx context.Context, paymentID id.PaymentID) (*models.Payment, error)
	ListByOrgEvent(ctx context.Context, orgID id.OrganisationID, eventID id.EventID) ([]*models.Payment, error)
	ListAll(ctx context.Context) ([]*models.Payment, error)
	Update(ctx context.Context, p *models.Payment) error
}

type TeamStore interface {
	FindByID(ctx context.Context, teamID id.TeamID) (*models.Team, error)
	LinkPayment(ctx context.Context, teamID id.TeamID, paymentID id.PaymentID, now time.Time) error
}

type EventStore interface {
	FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error)
	AppendRegistration(ctx context.Context, eventID id.EventID, reg models.Registration) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service links payment receipts to teams and event registrations, and runs
// the admin review transitions.
type Service struct {
	payments       PaymentStore
	teams          TeamStore
	events         EventStore
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
func New(payments PaymentStore, teams TeamStore, events EventStore, runner tx.Runner, opts ...Option) *Service {
	s := &Service{payments: payments, teams: teams, events: events, runner: runner}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitPayment creates a pending payment, stamps the payment onto every
// named team and synthesizes a pending registration for any team that lacks
// one. A team already carrying a payment fails the whole call.
func (s *Service) SubmitPayment(ctx context.Context, orgID id.OrganisationID, req SubmitPaymentRequest) (*models.Payment, error) {
	event, err := s.events.FindByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}

	teams, err := s.resolveOwnedTeams(ctx, orgID, event, req.teamIDs())
	if err != nil {
		return nil, err
	}

	for _, team := range teams {
		if team.IsPaid() {
			return nil, dErrors.Newf(dErrors.CodeValidation, "team %s already has a payment attached", team.ID)
		}
	}

	now := requestcontext.Now(ctx)
	payment, err := models.NewPayment(id.NewPaymentID(), orgID, event.ID, req.ReceiptURL, req.Amount, req.teamIDs(), now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	// Link before creating the payment row. The conditional link is the hard
	// guard against two concurrent submissions paying the same team, and
	// ordering it first means a lost race never leaves a payment behind even
	// on the non-rolling-back memory runner.
	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		for _, team := range teams {
			if err := s.teams.LinkPayment(ctx, team.ID, payment.ID, now); err != nil {
				return err
			}
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return err
		}
		for _, team := range teams {
			if _, registered := event.RegistrationForTeam(team.ID); !registered {
				if err := s.events.AppendRegistration(ctx, event.ID, models.NewRegistration(team, now)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeValidation, "one of the teams already has a payment attached")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to link payment")
	}

	s.logAudit(ctx, audit.ActionPaymentSubmitted, payment.ID.String(), map[string]any{
		"event_id":   event.ID.String(),
		"team_count": len(teams),
		"amount":     payment.Amount,
	})
	s.incrementSubmitted()

	return payment, nil
}

// resolveOwnedTeams fetches the referenced teams in parallel with shared
// cancellation. Unknown teams, foreign teams and teams from another event all
// fail the same way so receipt submissions cannot probe team IDs.
func (s *Service) resolveOwnedTeams(ctx context.Context, orgID id.OrganisationID, event *models.Event, teamIDs []id.TeamID) ([]*models.Team, error) {
	resolved := make([]*models.Team, len(teamIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, tid := range teamIDs {
		g.Go(func() error {
			team, err := s.teams.FindByID(gctx, tid)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return nil
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve team")
			}
			if team.OrganisationID == orgID && team.EventID == event.ID {
				resolved[i] = team
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	teams := make([]*models.Team, 0, len(teamIDs))
	for _, team := range resolved {
		if team != nil {
			teams = append(teams, team)
		}
	}
	if len(teams) != len(teamIDs) {
		return nil, dErrors.New(dErrors.CodeValidation, "team_ids contains invalid teams")
	}
	return teams, nil
}

// ListByEvent returns the acting organisation's payments for an event.
func (s *Service) ListByEvent(ctx context.Context, orgID id.OrganisationID, eventID id.EventID) ([]*models.Payment, error) {
	payments, err := s.payments.ListByOrgEvent(ctx, orgID, eventID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payments")
	}
	return payments, nil
}

// ListAll returns every payment for admin review.
func (s *Service) ListAll(ctx context.Context) ([]*models.Payment, error) {
	payments, err := s.payments.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payments")
	}
	return payments, nil
}

// Review applies an admin status transition to a pending payment.
func (s *Service) Review(ctx context.Context, paymentID id.PaymentID, req ReviewPaymentRequest) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "payment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payment")
	}

	now := requestcontext.Now(ctx)
	target := models.PaymentStatus(req.Status)
	if err := payment.Review(target, requestcontext.AdminID(ctx), req.Notes, now); err != nil {
		return nil, err
	}
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update payment")
	}

	s.logAudit(ctx, audit.ActionPaymentReviewed, payment.ID.String(), map[string]any{
		"status": string(target),
	})
	s.incrementReviewed(string(target))

	return payment, nil
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

func (s *Service) incrementSubmitted() {
	if s.metrics != nil {
		s.metrics.PaymentsSubmitted.Inc()
	}
}

func (s *Service) incrementReviewed(status string) {
	if s.metrics != nil {
		s.metrics.PaymentsReviewed.WithLabelValues(status).Inc()
	}
}
