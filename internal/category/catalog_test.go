package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roboreg/internal/models"
)

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	_, err := NewCatalog(
		models.Category{Code: "MNR", Name: "Mini Robots", MinContestantsPerTeam: 1, MaxContestantsPerTeam: 2, MaxTeamsPerOrg: 1},
		models.Category{Code: "MNR", Name: "Mini Robots Again", MinContestantsPerTeam: 1, MaxContestantsPerTeam: 2, MaxTeamsPerOrg: 1},
	)
	require.Error(t, err)
}

func TestNewCatalogRejectsInvalidRules(t *testing.T) {
	_, err := NewCatalog(
		models.Category{Code: "MNR", Name: "Mini Robots", MinContestantsPerTeam: 3, MaxContestantsPerTeam: 2, MaxTeamsPerOrg: 1},
	)
	require.Error(t, err)
}

func TestDefaultCatalogLookup(t *testing.T) {
	c := Default()

	cat, ok := c.ByCode("MNR")
	require.True(t, ok)
	assert.Equal(t, "Mini Robots", cat.Name)

	_, ok = c.ByCode("NOPE")
	assert.False(t, ok)

	all := c.All()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Code, all[i].Code, "All() must be sorted by code")
	}
}

func TestReplaceKeepsCatalogAuthoritative(t *testing.T) {
	c := Default()
	cat, _ := c.ByCode("MNR")
	cat.MaxTeamsPerOrg = 5
	require.NoError(t, c.Replace(cat))

	got, ok := c.ByCode("MNR")
	require.True(t, ok)
	assert.Equal(t, 5, got.MaxTeamsPerOrg)
}
