package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrandonDHaskell/doorbot/internal/db"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/store"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/types"
)

type EntryLogStore struct {
	db *db.DB
}

func NewEntryLogStore(d *db.DB) *EntryLogStore {
	return &EntryLogStore{db: d}
}

func (s *EntryLogStore) RecordEntry(ctx context.Context, rec store.EntryRecord) error {
	return s.db.Tx(ctx, func(ctx context.Context, tx *db.Tx) error {
		// Unknown location names are logged with a NULL location.
		var locationID any
		row, err := tx.QueryOne(ctx, `
SELECT id FROM locations
WHERE name = ?
ORDER BY id
LIMIT 1`, rec.LocationName)
		if err != nil {
			return fmt.Errorf("RecordEntry resolve location: %w", err)
		}
		if row != nil {
			id, err := row.Int64("id")
			if err != nil {
				return fmt.Errorf("RecordEntry resolve location: %w", err)
			}
			locationID = id
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO entry_log(rfid, location, is_active_tag, is_found_tag)
VALUES (?, ?, ?, ?)`,
			rec.RFID, locationID, rec.IsActiveTag, rec.IsFoundTag,
		); err != nil {
			return fmt.Errorf("RecordEntry insert: %w", err)
		}
		return nil
	})
}

func (s *EntryLogStore) SearchEntries(ctx context.Context, f store.EntryFilter) ([]types.EntryLogEntry, error) {
	var (
		q    strings.Builder
		args []any
	)
	q.WriteString(`
SELECT e.id, m.full_name, e.rfid, l.name AS location_name, e.entry_time,
       e.is_active_tag, e.is_found_tag
FROM entry_log e
LEFT OUTER JOIN members m ON m.rfid = e.rfid
LEFT OUTER JOIN locations l ON l.id = e.location`)
	if f.RFID != "" {
		q.WriteString("\nWHERE e.rfid = ?")
		args = append(args, f.RFID)
	}
	q.WriteString("\nORDER BY e.entry_time DESC, e.id DESC")
	if tail, targs := s.db.Backend().LimitOffset(f.Limit, f.Offset); tail != "" {
		q.WriteString("\n" + tail)
		args = append(args, targs...)
	}

	rows, err := s.db.Query(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("SearchEntries: %w", err)
	}

	out := make([]types.EntryLogEntry, 0, len(rows))
	for _, row := range rows {
		e, err := scanEntry(row)
		if err != nil {
			return nil, fmt.Errorf("SearchEntries: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func scanEntry(row db.Row) (types.EntryLogEntry, error) {
	var (
		e   types.EntryLogEntry
		err error
	)
	if e.ID, err = row.Int64("id"); err != nil {
		return e, err
	}
	if e.FullName, err = row.String("full_name"); err != nil {
		return e, err
	}
	if e.RFID, err = row.String("rfid"); err != nil {
		return e, err
	}
	if e.Location, err = row.String("location_name"); err != nil {
		return e, err
	}
	if e.EntryTime, err = row.ISOTime("entry_time"); err != nil {
		return e, err
	}
	if e.IsActiveTag, err = row.Bool("is_active_tag"); err != nil {
		return e, err
	}
	if e.IsFoundTag, err = row.Bool("is_found_tag"); err != nil {
		return e, err
	}
	return e, nil
}
