// Package store hosts the per-entity store implementations and development
// seeding shared by main.
package store

import (
	"context"
	"log/slog"
	"time"

	"roboreg/internal/category"
	"roboreg/internal/models"
	"roboreg/internal/sequence"
	id "roboreg/pkg/domain"
)

type OrganisationSeeder interface {
	Create(ctx context.Context, o *models.Organisation) error
}

type PersonSeeder interface {
	CreateContestant(ctx context.Context, c *models.Contestant) error
	CreateCoach(ctx context.Context, c *models.Coach) error
}

type EventSeeder interface {
	Create(ctx context.Context, e *models.Event) error
}

// SeedResult reports the identifiers minted while seeding so main can log
// them for local development.
type SeedResult struct {
	OrganisationID id.OrganisationID
	EventID        id.EventID
	ContestantIDs  []id.ContestantID
	CoachID        id.CoachID
}

// SeedDev populates a development organisation with a handful of contestants,
// a coach and an open event carrying the default category catalog. Only meant
// for memory-backed runs.
func SeedDev(ctx context.Context, orgs OrganisationSeeder, people PersonSeeder, events EventSeeder, allocator *sequence.Allocator, logger *slog.Logger) (*SeedResult, error) {
	now := time.Now().UTC()

	orgID, err := allocator.NextOrganisationID(ctx)
	if err != nil {
		return nil, err
	}
	org, err := models.NewOrganisation(orgID, "Dev Robotics Club", models.OrganisationTypeSchool, "dev@example.org", "", now)
	if err != nil {
		return nil, err
	}
	if err := orgs.Create(ctx, org); err != nil {
		return nil, err
	}

	names := []string{"Ada", "Grace", "Alan", "Edsger", "Barbara", "Donald"}
	contestantIDs := make([]id.ContestantID, 0, len(names))
	for _, name := range names {
		cid, err := allocator.NextContestantID(ctx)
		if err != nil {
			return nil, err
		}
		contestant, err := models.NewContestant(cid, orgID, name, "Dev", now)
		if err != nil {
			return nil, err
		}
		if err := people.CreateContestant(ctx, contestant); err != nil {
			return nil, err
		}
		contestantIDs = append(contestantIDs, cid)
	}

	coachID, err := allocator.NextCoachID(ctx)
	if err != nil {
		return nil, err
	}
	coach, err := models.NewCoach(coachID, orgID, "Head", "Coach", now)
	if err != nil {
		return nil, err
	}
	if err := people.CreateCoach(ctx, coach); err != nil {
		return nil, err
	}

	event, err := models.NewEvent(id.NewEventID(), "Dev Open", now.Add(-24*time.Hour), now.Add(30*24*time.Hour), category.Default().All(), now)
	if err != nil {
		return nil, err
	}
	if err := events.Create(ctx, event); err != nil {
		return nil, err
	}

	logger.Info("seeded development data",
		"organisation_id", orgID,
		"event_id", event.ID,
		"contestants", len(contestantIDs),
		"coach_id", coachID,
	)
	return &SeedResult{
		OrganisationID: orgID,
		EventID:        event.ID,
		ContestantIDs:  contestantIDs,
		CoachID:        coachID,
	}, nil
}
