package db

import (
	"context"
	"fmt"
)

type SeedDevOptions struct {
	// Locations are created if missing. Defaults to a single "frontdoor".
	Locations []string
}

// SeedDev prepares a development database with starter locations.
func SeedDev(ctx context.Context, d *DB, opt SeedDevOptions) error {
	names := opt.Locations
	if len(names) == 0 {
		names = []string{"frontdoor"}
	}

	for _, name := range names {
		row, err := d.QueryOne(ctx, "SELECT id FROM locations WHERE name = ?", name)
		if err != nil {
			return fmt.Errorf("seed location %s: %w", name, err)
		}
		if row != nil {
			continue
		}
		if _, err := d.Exec(ctx, "INSERT INTO locations(name) VALUES (?)", name); err != nil {
			return fmt.Errorf("seed location %s: %w", name, err)
		}
	}
	return nil
}
