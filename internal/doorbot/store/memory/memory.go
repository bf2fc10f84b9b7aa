// Package memory is an in-process implementation of the store contracts.
// It keeps the same observable ordering and conflict rules as sqlstore.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/BrandonDHaskell/doorbot/internal/doorbot/store"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/types"
)

type entry struct {
	id          int64
	rfid        string
	locationID  int64 // 0 when the location did not resolve
	at          time.Time
	isActiveTag bool
	isFoundTag  bool
}

// Store satisfies store.MemberStore, store.EntryLogStore and
// store.LocationStore.
type Store struct {
	mu sync.RWMutex

	members   []types.Member // join order
	locations []types.Location
	entries   []entry // insertion order

	nextID int64
	now    func() time.Time
}

func New() *Store {
	return &Store{now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// ── Members ──────────────────────────────────────────────────────────────────

func (s *Store) AddMember(_ context.Context, fullName, rfid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.memberIndex(rfid); ok {
		return store.ErrConflict
	}
	s.members = append(s.members, types.Member{
		ID:       s.id(),
		FullName: fullName,
		RFID:     rfid,
		Active:   true,
		JoinDate: s.now().Format(time.RFC3339Nano),
	})
	return nil
}

func (s *Store) FetchByRFID(_ context.Context, rfid string) (*types.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.memberIndex(rfid)
	if !ok {
		return nil, nil
	}
	m := s.members[i]
	return &m, nil
}

func (s *Store) FetchByName(_ context.Context, prefix string) (*types.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := lo.Find(s.members, func(m types.Member) bool {
		return hasFoldPrefix(m.FullName, prefix)
	})
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *Store) SetActive(_ context.Context, rfid string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.memberIndex(rfid); ok {
		s.members[i].Active = active
	}
	return nil
}

func (s *Store) ChangeTag(_ context.Context, oldRFID, newRFID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.memberIndex(oldRFID)
	if !ok {
		return nil
	}
	if j, taken := s.memberIndex(newRFID); taken && j != i {
		return store.ErrConflict
	}
	s.members[i].RFID = newRFID
	return nil
}

func (s *Store) ChangeName(_ context.Context, rfid, fullName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.memberIndex(rfid); ok {
		s.members[i].FullName = fullName
	}
	return nil
}

func (s *Store) Search(_ context.Context, f store.MemberFilter) ([]types.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := lo.Filter(s.members, func(m types.Member, _ int) bool {
		if f.NamePrefix != "" && !hasFoldPrefix(m.FullName, f.NamePrefix) {
			return false
		}
		return f.RFID == "" || m.RFID == f.RFID
	})
	return page(matched, f.Offset, f.Limit), nil
}

func (s *Store) DumpActiveRFIDs(_ context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := lo.Filter(s.members, func(m types.Member, _ int) bool { return m.Active })
	return lo.SliceToMap(active, func(m types.Member) (string, struct{}) {
		return m.RFID, struct{}{}
	}), nil
}

func (s *Store) memberIndex(rfid string) (int, bool) {
	_, i, ok := lo.FindIndexOf(s.members, func(m types.Member) bool { return m.RFID == rfid })
	return i, ok
}

// ── Locations ────────────────────────────────────────────────────────────────

func (s *Store) AddLocation(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lo.ContainsBy(s.locations, func(l types.Location) bool { return l.Name == name }) {
		return store.ErrConflict
	}
	s.locations = append(s.locations, types.Location{ID: s.id(), Name: name})
	return nil
}

func (s *Store) ListLocations(_ context.Context) ([]types.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]types.Location(nil), s.locations...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ── Entry log ────────────────────────────────────────────────────────────────

func (s *Store) RecordEntry(_ context.Context, rec store.EntryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var locationID int64
	if l, ok := lo.Find(s.locations, func(l types.Location) bool { return l.Name == rec.LocationName }); ok {
		locationID = l.ID
	}
	s.entries = append(s.entries, entry{
		id:          s.id(),
		rfid:        rec.RFID,
		locationID:  locationID,
		at:          s.now(),
		isActiveTag: rec.IsActiveTag,
		isFoundTag:  rec.IsFoundTag,
	})
	return nil
}

func (s *Store) SearchEntries(_ context.Context, f store.EntryFilter) ([]types.EntryLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := lo.SliceToMap(s.members, func(m types.Member) (string, string) { return m.RFID, m.FullName })
	places := lo.SliceToMap(s.locations, func(l types.Location) (int64, string) { return l.ID, l.Name })

	newest := make([]entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		if e := s.entries[i]; f.RFID == "" || e.rfid == f.RFID {
			newest = append(newest, e)
		}
	}

	out := lo.Map(page(newest, f.Offset, f.Limit), func(e entry, _ int) types.EntryLogEntry {
		return types.EntryLogEntry{
			ID:          e.id,
			FullName:    names[e.rfid],
			RFID:        e.rfid,
			Location:    places[e.locationID],
			EntryTime:   e.at.Format(time.RFC3339Nano),
			IsActiveTag: e.isActiveTag,
			IsFoundTag:  e.isFoundTag,
		}
	})
	return out, nil
}

// page applies offset then limit; zero values are not applied.
func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return append([]T{}, items...)
}

func hasFoldPrefix(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), strings.ToLower(prefix))
}
