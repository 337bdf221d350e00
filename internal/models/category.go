package models

import (
	dErrors "roboreg/pkg/domain-errors"
)

// Category describes one competition division: its team-size bounds and the
// per-organisation cap on active teams.
//
// The authoritative definitions live in the category catalog
// (internal/category); the copy embedded in an Event is a denormalized
// snapshot taken at event-creation time only and is never edited afterwards.
type Category struct {
	Code                  string `json:"code"`
	Name                  string `json:"name"`
	MinContestantsPerTeam int    `json:"min_contestants_per_team"`
	MaxContestantsPerTeam int    `json:"max_contestants_per_team"`
	MaxTeamsPerOrg        int    `json:"max_teams_per_org"`
}

// Validate checks the rule set is internally consistent.
func (c Category) Validate() error {
	if c.Code == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "category code cannot be empty")
	}
	if c.MinContestantsPerTeam < 1 {
		return dErrors.New(dErrors.CodeInvariantViolation, "category must require at least one contestant per team")
	}
	if c.MaxContestantsPerTeam < c.MinContestantsPerTeam {
		return dErrors.New(dErrors.CodeInvariantViolation, "category max team size below min team size")
	}
	if c.MaxTeamsPerOrg < 1 {
		return dErrors.New(dErrors.CodeInvariantViolation, "category must allow at least one team per organisation")
	}
	return nil
}

// AllowsTeamSize reports whether a roster of the given size fits the bounds.
func (c Category) AllowsTeamSize(n int) bool {
	return n >= c.MinContestantsPerTeam && n <= c.MaxContestantsPerTeam
}

// Matches reports whether the given value names this category by its code or
// display name. Registrations historically stored either, so cascade lookups
// accept both.
func (c Category) Matches(value string) bool {
	return value == c.Code || value == c.Name
}
