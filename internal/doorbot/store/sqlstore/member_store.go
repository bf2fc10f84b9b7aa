package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrandonDHaskell/doorbot/internal/db"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/store"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/types"
)

const memberColumns = "id, full_name, rfid, active, join_date, mms_id"

type MemberStore struct {
	db *db.DB
}

func NewMemberStore(d *db.DB) *MemberStore {
	return &MemberStore{db: d}
}

func (s *MemberStore) AddMember(ctx context.Context, fullName, rfid string) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO members(full_name, rfid, active)
VALUES (?, ?, ?)`, fullName, rfid, true)
	return conflictOr("AddMember", err)
}

func (s *MemberStore) FetchByRFID(ctx context.Context, rfid string) (*types.Member, error) {
	row, err := s.db.QueryOne(ctx, `
SELECT `+memberColumns+`
FROM members
WHERE rfid = ?`, rfid)
	if err != nil {
		return nil, fmt.Errorf("FetchByRFID: %w", err)
	}
	return memberOrNil(row)
}

func (s *MemberStore) FetchByName(ctx context.Context, prefix string) (*types.Member, error) {
	match, arg := s.db.Backend().PrefixMatch("full_name", prefix)
	row, err := s.db.QueryOne(ctx, `
SELECT `+memberColumns+`
FROM members
WHERE `+match+`
ORDER BY join_date, id
LIMIT 1`, arg)
	if err != nil {
		return nil, fmt.Errorf("FetchByName: %w", err)
	}
	return memberOrNil(row)
}

func (s *MemberStore) SetActive(ctx context.Context, rfid string, active bool) error {
	_, err := s.db.Exec(ctx, `
UPDATE members
SET active = ?
WHERE rfid = ?`, active, rfid)
	if err != nil {
		return fmt.Errorf("SetActive: %w", err)
	}
	return nil
}

func (s *MemberStore) ChangeTag(ctx context.Context, oldRFID, newRFID string) error {
	_, err := s.db.Exec(ctx, `
UPDATE members
SET rfid = ?
WHERE rfid = ?`, newRFID, oldRFID)
	return conflictOr("ChangeTag", err)
}

func (s *MemberStore) ChangeName(ctx context.Context, rfid, fullName string) error {
	_, err := s.db.Exec(ctx, `
UPDATE members
SET full_name = ?
WHERE rfid = ?`, fullName, rfid)
	if err != nil {
		return fmt.Errorf("ChangeName: %w", err)
	}
	return nil
}

func (s *MemberStore) Search(ctx context.Context, f store.MemberFilter) ([]types.Member, error) {
	b := s.db.Backend()

	var (
		where []string
		args  []any
	)
	if f.NamePrefix != "" {
		match, arg := b.PrefixMatch("full_name", f.NamePrefix)
		where = append(where, match)
		args = append(args, arg)
	}
	if f.RFID != "" {
		where = append(where, "rfid = ?")
		args = append(args, f.RFID)
	}

	var q strings.Builder
	q.WriteString("SELECT " + memberColumns + " FROM members")
	if len(where) > 0 {
		q.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	q.WriteString(" ORDER BY join_date, id")
	if tail, targs := b.LimitOffset(f.Limit, f.Offset); tail != "" {
		q.WriteString(" " + tail)
		args = append(args, targs...)
	}

	rows, err := s.db.Query(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}

	out := make([]types.Member, 0, len(rows))
	for _, row := range rows {
		m, err := scanMember(row)
		if err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *MemberStore) DumpActiveRFIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.Query(ctx,
		"SELECT rfid FROM members WHERE active = "+s.db.Backend().BoolLiteral(true))
	if err != nil {
		return nil, fmt.Errorf("DumpActiveRFIDs: %w", err)
	}

	out := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		rfid, err := row.String("rfid")
		if err != nil {
			return nil, fmt.Errorf("DumpActiveRFIDs: %w", err)
		}
		out[rfid] = struct{}{}
	}
	return out, nil
}

func memberOrNil(row *db.Row) (*types.Member, error) {
	if row == nil {
		return nil, nil
	}
	m, err := scanMember(*row)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanMember(row db.Row) (types.Member, error) {
	var (
		m   types.Member
		err error
	)
	if m.ID, err = row.Int64("id"); err != nil {
		return m, err
	}
	if m.FullName, err = row.String("full_name"); err != nil {
		return m, err
	}
	if m.RFID, err = row.String("rfid"); err != nil {
		return m, err
	}
	if m.Active, err = row.Bool("active"); err != nil {
		return m, err
	}
	if m.JoinDate, err = row.ISOTime("join_date"); err != nil {
		return m, err
	}
	ext, ok, err := row.NullString("mms_id")
	if err != nil {
		return m, err
	}
	if ok {
		m.ExternalID = &ext
	}
	return m, nil
}
