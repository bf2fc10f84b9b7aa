package sqlstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/doorbot/internal/db"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/store"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/store/sqlstore"
)

var _ store.LocationStore = (*sqlstore.LocationStore)(nil)

func TestLocationStore(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *db.DB) {
		ctx := context.Background()
		ls := sqlstore.NewLocationStore(d)

		empty, err := ls.ListLocations(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		require.NoError(t, ls.AddLocation(ctx, "frontdoor"))
		require.NoError(t, ls.AddLocation(ctx, "backdoor"))
		assert.ErrorIs(t, ls.AddLocation(ctx, "frontdoor"), store.ErrConflict)

		got, err := ls.ListLocations(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "backdoor", got[0].Name)
		assert.Equal(t, "frontdoor", got[1].Name)
		assert.NotZero(t, got[0].ID)
	})
}
