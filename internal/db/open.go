package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	Backend Backend
	Path    string // SQLite file, e.g. "./data/doorbot.db"
	DSN     string // Postgres connection string
}

// Open connects to the configured backend, verifies the connection and
// applies pending migrations.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if !cfg.Backend.valid() {
		return nil, fmt.Errorf("db: unknown backend %q", cfg.Backend)
	}

	dsn, err := cfg.dataSource()
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(cfg.Backend.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	if cfg.Backend == SQLite {
		// One connection: SQLite has a single writer and the worker owns it.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
	} else {
		conn.SetMaxOpenConns(16)
		conn.SetMaxIdleConns(4)
		conn.SetConnMaxIdleTime(5 * time.Minute)
	}

	d, err := New(conn, cfg.Backend)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := d.Ping(pingCtx); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if err := Migrate(ctx, d); err != nil {
		_ = d.Close()
		return nil, err
	}

	return d, nil
}

func (cfg Config) dataSource() (string, error) {
	if cfg.Backend == Postgres {
		if cfg.DSN == "" {
			return "", fmt.Errorf("db: postgres backend needs a DSN")
		}
		return cfg.DSN, nil
	}

	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	p := cfg.Path
	if p == "" {
		p = "./data/doorbot.db"
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("mkdir db dir: %w", err)
	}

	// Per-connection PRAGMAs for a single-process server: FK enforcement,
	// WAL, NORMAL sync and a busy timeout.
	return SQLiteDSN(p), nil
}

// SQLiteDSN builds a modernc.org/sqlite DSN for path with the server PRAGMAs.
func SQLiteDSN(path string) string {
	return fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		path,
	)
}
