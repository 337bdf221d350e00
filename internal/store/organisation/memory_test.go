package organisation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"roboreg/internal/models"
	"roboreg/pkg/platform/sentinel"
)

func TestMemoryOrganisationStore(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()
	now := time.Now().UTC()

	org, err := models.NewOrganisation("MN00001", "Robots United", models.OrganisationTypeSchool, "team@example.org", "", now)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, org))

	require.ErrorIs(t, store.Create(ctx, org), sentinel.ErrConflict)

	got, err := store.FindByID(ctx, "MN00001")
	require.NoError(t, err)
	require.Equal(t, org.Name, got.Name)

	// Stored copy is isolated from caller mutation.
	got.Name = "changed"
	again, err := store.FindByID(ctx, "MN00001")
	require.NoError(t, err)
	require.Equal(t, "Robots United", again.Name)

	_, err = store.FindByID(ctx, "MN09999")
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}
