package sqlstore

import (
	"context"
	"fmt"

	"github.com/BrandonDHaskell/doorbot/internal/db"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/types"
)

type LocationStore struct {
	db *db.DB
}

func NewLocationStore(d *db.DB) *LocationStore {
	return &LocationStore{db: d}
}

func (s *LocationStore) AddLocation(ctx context.Context, name string) error {
	_, err := s.db.Exec(ctx, `INSERT INTO locations(name) VALUES (?)`, name)
	return conflictOr("AddLocation", err)
}

func (s *LocationStore) ListLocations(ctx context.Context) ([]types.Location, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name FROM locations ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("ListLocations: %w", err)
	}

	out := make([]types.Location, 0, len(rows))
	for _, row := range rows {
		var l types.Location
		if l.ID, err = row.Int64("id"); err != nil {
			return nil, fmt.Errorf("ListLocations: %w", err)
		}
		if l.Name, err = row.String("name"); err != nil {
			return nil, fmt.Errorf("ListLocations: %w", err)
		}
		out = append(out, l)
	}
	return out, nil
}
