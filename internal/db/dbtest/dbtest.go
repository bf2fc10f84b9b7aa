// Package dbtest opens migrated databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/BrandonDHaskell/doorbot/internal/db"
)

// PostgresEnv names the variable holding a DSN for Postgres-backed tests.
const PostgresEnv = "DOORBOT_TEST_POSTGRES_DSN"

// OpenSQLite returns a private in-memory SQLite database with the
// production PRAGMAs and schema. It is closed when the test finishes.
func OpenSQLite(t testing.TB) *db.DB {
	t.Helper()

	// Shared cache keeps the database alive while the pool recycles its
	// single connection; the uuid keeps parallel tests apart.
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		name,
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("dbtest: sql.Open: %v", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	return bind(t, conn, db.SQLite)
}

// OpenPostgres returns a database isolated in a throwaway schema, or skips
// the test when no Postgres DSN is configured.
func OpenPostgres(t testing.TB) *db.DB {
	t.Helper()

	base := os.Getenv(PostgresEnv)
	if base == "" {
		t.Skipf("%s not set", PostgresEnv)
	}

	schema := "doorbot_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := sql.Open("pgx", base)
	if err != nil {
		t.Fatalf("dbtest: sql.Open: %v", err)
	}
	if _, err := admin.Exec("CREATE SCHEMA " + schema); err != nil {
		admin.Close()
		t.Fatalf("dbtest: create schema: %v", err)
	}
	t.Cleanup(func() {
		_, _ = admin.Exec("DROP SCHEMA " + schema + " CASCADE")
		admin.Close()
	})

	conn, err := sql.Open("pgx", withSearchPath(base, schema))
	if err != nil {
		t.Fatalf("dbtest: sql.Open: %v", err)
	}
	return bind(t, conn, db.Postgres)
}

// Open returns a database for backend.
func Open(t testing.TB, backend db.Backend) *db.DB {
	t.Helper()
	if backend == db.Postgres {
		return OpenPostgres(t)
	}
	return OpenSQLite(t)
}

// Backends lists the backends a test should run against.
func Backends() []db.Backend {
	return []db.Backend{db.SQLite, db.Postgres}
}

func bind(t testing.TB, conn *sql.DB, backend db.Backend) *db.DB {
	t.Helper()

	d, err := db.New(conn, backend)
	if err != nil {
		conn.Close()
		t.Fatalf("dbtest: bind: %v", err)
	}
	if err := d.Ping(context.Background()); err != nil {
		d.Close()
		t.Fatalf("dbtest: ping: %v", err)
	}
	if err := db.Migrate(context.Background(), d); err != nil {
		d.Close()
		t.Fatalf("dbtest: migrate: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func withSearchPath(dsn, schema string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "search_path=" + schema
	}
	return dsn + " search_path=" + schema
}
