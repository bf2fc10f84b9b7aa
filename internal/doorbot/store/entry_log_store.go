package store

import (
	"context"

	"github.com/BrandonDHaskell/doorbot/internal/doorbot/types"
)

// EntryRecord is one access attempt as it is appended to the audit log.
// The entry time is assigned by the store, not the caller.
type EntryRecord struct {
	RFID         string
	LocationName string
	IsActiveTag  bool
	IsFoundTag   bool
}

// EntryFilter selects log rows for SearchEntries.
type EntryFilter struct {
	RFID   string // exact; empty matches every tag
	Offset int
	Limit  int
}

// EntryLogStore persists access attempts as an append-only audit log.
type EntryLogStore interface {
	// RecordEntry resolves LocationName (an unknown name is stored as a
	// NULL location, never an error) and appends exactly one row.
	RecordEntry(ctx context.Context, rec EntryRecord) error

	// SearchEntries returns rows newest first.
	SearchEntries(ctx context.Context, f EntryFilter) ([]types.EntryLogEntry, error)
}
