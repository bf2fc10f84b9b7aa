// Package sqlstore implements the store contracts on the portable DAL. The
// same statements run on SQLite and Postgres; dialect differences are left
// to db.Backend.
package sqlstore

import (
	"errors"
	"fmt"

	"github.com/BrandonDHaskell/doorbot/internal/db"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/store"
)

// conflictOr maps a uniqueness violation to store.ErrConflict and wraps
// every other error with op.
func conflictOr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrUniqueViolation) {
		return fmt.Errorf("%s: %w: %w", op, store.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
