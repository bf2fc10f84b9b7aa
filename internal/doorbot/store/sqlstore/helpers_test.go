package sqlstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/doorbot/internal/db"
	"github.com/BrandonDHaskell/doorbot/internal/db/dbtest"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/types"
)

// forEachBackend runs fn on a fresh migrated database per backend.
// Postgres runs are skipped unless dbtest.PostgresEnv is set.
func forEachBackend(t *testing.T, fn func(t *testing.T, d *db.DB)) {
	t.Helper()
	for _, b := range dbtest.Backends() {
		t.Run(string(b), func(t *testing.T) {
			fn(t, dbtest.Open(t, b))
		})
	}
}

func seedLocation(t *testing.T, d *db.DB, name string) {
	t.Helper()
	_, err := d.Exec(context.Background(), `INSERT INTO locations(name) VALUES (?)`, name)
	require.NoError(t, err, "seedLocation %q", name)
}

func countRows(t *testing.T, d *db.DB, table string) int64 {
	t.Helper()
	row, err := d.QueryOne(context.Background(), "SELECT COUNT(*) AS n FROM "+table)
	require.NoError(t, err)
	require.NotNil(t, row)
	n, err := row.Int64("n")
	require.NoError(t, err)
	return n
}

func rfids(ms []types.Member) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.RFID)
	}
	return out
}
