package store

import (
	"context"

	"github.com/BrandonDHaskell/doorbot/internal/doorbot/types"
)

type LocationStore interface {
	// AddLocation returns ErrConflict if name exists.
	AddLocation(ctx context.Context, name string) error
	ListLocations(ctx context.Context) ([]types.Location, error)
}
