package admission

import (
	"context"
	"errors"
	"log/slog"

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
	AppendRegistration(ctx context.Context, eventID id.EventID, reg models.Registration) error
}

type TeamStore interface {
	CreateIfWithinCap(ctx context.Context, team *models.Team, maxTeamsPerOrg int) error
	FindByID(ctx context.Context, teamID id.TeamID) (*models.Team, error)
	ListByOrgEvent(ctx context.Context, orgID id.OrganisationID, eventID id.EventID) ([]*models.Team, error)
	ListActiveByEventCategory(ctx context.Context, eventID id.EventID, categoryCode string) ([]*models.Team, error)
	Update(ctx context.Context, team *models.Team) error
}

type PersonStore interface {
	FindContestantsOwned(ctx context.Context, orgID id.OrganisationID, ids []id.ContestantID) ([]*models.Contestant, error)
	FindCoachOwned(ctx context.Context, orgID id.OrganisationID, coachID id.CoachID) (*models.Coach, error)
	AddContestantParticipation(ctx context.Context, contestantID id.ContestantID, p models.Participation) error
	AddCoachParticipation(ctx context.Context, coachID id.CoachID, p models.Participation) error
	RemoveContestantParticipation(ctx context.Context, contestantID id.ContestantID, eventID id.EventID, categoryCode string) error
	RemoveCoachParticipation(ctx context.Context, coachID id.CoachID, eventID id.EventID, categoryCode string) error
}

type TeamIDAllocator interface {
	NextTeamID(ctx context.Context, categoryCode string) (id.TeamID, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service admits, lists and withdraws teams. Capacity-sensitive admission is
// serialized per (organisation, event, category) through the lease, and the
// multi-entity write runs inside the transaction runner.
type Service struct {
	events         EventStore
	teams          TeamStore
	people         PersonStore
	allocator      TeamIDAllocator
	lease          Lease
	runner         tx.Runner
	windowBypass   bool
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

// WithWindowBypass disables the registration window check for every event.
// Meant for staging environments that rehearse registration out of season.
func WithWindowBypass(bypass bool) Option {
	return func(s *Service) {
		s.windowBypass = bypass
	}
}

// New constructs a Service.
func New(events EventStore, teams TeamStore, people PersonStore, allocator TeamIDAllocator, lease Lease, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		events:    events,
		teams:     teams,
		people:    people,
		allocator: allocator,
		lease:     lease,
		runner:    runner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTeam runs the admission checks in order; each is a hard precondition
// and a failure leaves no partial writes.
func (s *Service) CreateTeam(ctx context.Context, orgID id.OrganisationID, req CreateTeamRequest) (*TeamResponse, error) {
	event, err := s.events.FindByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}

	now := requestcontext.Now(ctx)
	if !s.windowBypass && !event.RegistrationOpen(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "registration window is closed for this event")
	}

	category, ok := event.CategoryByCode(req.CategoryCode)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown category %q for this event", req.CategoryCode)
	}

	contestantIDs := req.contestantIDs()
	if !category.AllowsTeamSize(len(contestantIDs)) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "category %s requires between %d and %d contestants",
			category.Code, category.MinContestantsPerTeam, category.MaxContestantsPerTeam)
	}

	contestants, err := s.people.FindContestantsOwned(ctx, orgID, contestantIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve contestants")
	}
	if len(contestants) != len(contestantIDs) {
		return nil, dErrors.New(dErrors.CodeValidation, "contestant_ids contains foreign or nonexistent contestants")
	}

	coach, err := s.people.FindCoachOwned(ctx, orgID, id.CoachID(req.CoachID))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "coach not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve coach")
	}

	release, err := s.lease.Acquire(ctx, orgID, event.ID, category.Code)
	if err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			s.incrementLeaseBusy()
			return nil, dErrors.New(dErrors.CodeConflict, "another registration for this category is in progress, retry shortly")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire admission lease")
	}
	defer release()

	// under the lease so two concurrent rosters cannot both pass
	if err := s.checkContestantLocks(ctx, event.ID, category.Code, contestantIDs); err != nil {
		return nil, err
	}

	teamID, err := s.allocator.NextTeamID(ctx, category.Code)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate team id")
	}

	team, err := models.NewTeam(teamID, orgID, event.ID, category, contestantIDs, coach.ID, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	registration := models.NewRegistration(team, now)

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.teams.CreateIfWithinCap(ctx, team, category.MaxTeamsPerOrg); err != nil {
			return err
		}
		participation := models.Participation{EventID: event.ID, Category: category.Code, RegisteredAt: now}
		for _, cid := range contestantIDs {
			if err := s.people.AddContestantParticipation(ctx, cid, participation); err != nil {
				return err
			}
		}
		if err := s.people.AddCoachParticipation(ctx, coach.ID, participation); err != nil {
			return err
		}
		return s.events.AppendRegistration(ctx, event.ID, registration)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.incrementCapRejection(category.Code)
			return nil, dErrors.Newf(dErrors.CodeValidation, "organisation already has the maximum of %d teams in category %s",
				category.MaxTeamsPerOrg, category.Code)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist team")
	}

	s.logAudit(ctx, audit.ActionTeamAdmitted, string(team.ID), map[string]any{
		"event_id": event.ID.String(),
		"category": category.Code,
	})
	s.incrementAdmitted(category.Code)

	resp := teamResponse(team, &registration)
	return &resp, nil
}

// ListTeams returns the acting organisation's teams for an event with their
// registration status.
func (s *Service) ListTeams(ctx context.Context, orgID id.OrganisationID, eventID id.EventID) ([]TeamResponse, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}

	teams, err := s.teams.ListByOrgEvent(ctx, orgID, eventID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list teams")
	}

	out := make([]TeamResponse, 0, len(teams))
	for _, t := range teams {
		reg, _ := event.RegistrationForTeam(t.ID)
		out = append(out, teamResponse(t, reg))
	}
	return out, nil
}

// WithdrawTeam soft-withdraws an owned team, freeing its capacity slot and
// releasing its contestants. An attached payment link is kept: the money was
// still received and the receipt stays traceable from the withdrawn team.
// Detaching payments is the admin rejection cascade's job, where the payment
// record itself is unwound.
func (s *Service) WithdrawTeam(ctx context.Context, orgID id.OrganisationID, teamID id.TeamID) (*TeamResponse, error) {
	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "team not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load team")
	}
	if team.OrganisationID != orgID {
		// ownership failures read as not-found so team IDs cannot be probed
		return nil, dErrors.New(dErrors.CodeNotFound, "team not found")
	}

	now := requestcontext.Now(ctx)
	if err := team.Withdraw(now); err != nil {
		return nil, err
	}

	err = s.runner.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.teams.Update(ctx, team); err != nil {
			return err
		}
		return s.pruneParticipations(ctx, team)
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to withdraw team")
	}

	s.logAudit(ctx, audit.ActionTeamWithdrawn, string(team.ID), map[string]any{
		"event_id": team.EventID.String(),
		"category": team.CategoryCode,
	})
	s.incrementWithdrawn()

	resp := teamResponse(team, nil)
	return &resp, nil
}

// checkContestantLocks rejects rosters naming a contestant who is already on
// an active team in the same event and category. Coaches are exempt.
func (s *Service) checkContestantLocks(ctx context.Context, eventID id.EventID, categoryCode string, contestantIDs []id.ContestantID) error {
	active, err := s.teams.ListActiveByEventCategory(ctx, eventID, categoryCode)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check contestant availability")
	}
	for _, t := range active {
		for _, cid := range contestantIDs {
			if t.HasContestant(cid) {
				return dErrors.Newf(dErrors.CodeValidation, "contestant %s is already on an active team in category %s", cid, categoryCode)
			}
		}
	}
	return nil
}

// pruneParticipations removes the withdrawn team's participation entries.
// The coach entry stays while any other active team in the same event and
// category still lists the coach.
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

func (s *Service) incrementAdmitted(category string) {
	if s.metrics != nil {
		s.metrics.TeamsAdmitted.WithLabelValues(category).Inc()
	}
}

func (s *Service) incrementWithdrawn() {
	if s.metrics != nil {
		s.metrics.TeamsWithdrawn.Inc()
	}
}

func (s *Service) incrementCapRejection(category string) {
	if s.metrics != nil {
		s.metrics.CapRejections.WithLabelValues(category).Inc()
	}
}

func (s *Service) incrementLeaseBusy() {
	if s.metrics != nil {
		s.metrics.LeaseBusy.Inc()
	}
}
