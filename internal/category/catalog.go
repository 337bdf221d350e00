// Package category holds the authoritative category configuration.
//
// Category rules are server-side configuration, independent of any event
// document. Events snapshot the catalog at creation time and admission
// validates against the event's snapshot, so later catalog edits never
// change the rules of an already-created event. The catalog itself serves
// lookups and seeds new events.
package category

import (
	"sort"
	"sync"

	"roboreg/internal/models"
	dErrors "roboreg/pkg/domain-errors"
)

// Catalog is the single source of truth for category rules.
type Catalog struct {
	mu         sync.RWMutex
	categories map[string]models.Category
}

// NewCatalog builds a catalog from the given definitions.
func NewCatalog(categories ...models.Category) (*Catalog, error) {
	c := &Catalog{categories: make(map[string]models.Category, len(categories))}
	for _, cat := range categories {
		if err := cat.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.categories[cat.Code]; exists {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "duplicate category code %s", cat.Code)
		}
		c.categories[cat.Code] = cat
	}
	return c, nil
}

// Default returns the competition's standard category set.
func Default() *Catalog {
	c, err := NewCatalog(
		models.Category{Code: "MNR", Name: "Mini Robots", MinContestantsPerTeam: 1, MaxContestantsPerTeam: 2, MaxTeamsPerOrg: 2},
		models.Category{Code: "LFW", Name: "Line Follower", MinContestantsPerTeam: 1, MaxContestantsPerTeam: 3, MaxTeamsPerOrg: 3},
		models.Category{Code: "SMO", Name: "Sumo", MinContestantsPerTeam: 2, MaxContestantsPerTeam: 4, MaxTeamsPerOrg: 2},
		models.Category{Code: "FRE", Name: "Freestyle", MinContestantsPerTeam: 1, MaxContestantsPerTeam: 5, MaxTeamsPerOrg: 1},
	)
	if err != nil {
		panic(err) // static definitions, cannot fail
	}
	return c
}

// ByCode resolves a category by its code.
func (c *Catalog) ByCode(code string) (models.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.categories[code]
	return cat, ok
}

// All returns the catalog sorted by code, for event snapshots and listings.
func (c *Catalog) All() []models.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Category, 0, len(c.categories))
	for _, cat := range c.categories {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Replace swaps a category definition, for operator reconfiguration. Existing
// event snapshots keep their original rules.
func (c *Catalog) Replace(cat models.Category) error {
	if err := cat.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories[cat.Code] = cat
	return nil
}
