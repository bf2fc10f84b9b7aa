package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/doorbot/internal/doorbot/store"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/types"
)

// MemberQuery is raw client input for SearchMembers; paging is clamped.
type MemberQuery struct {
	Name   string
	Tag    string
	Offset int
	Limit  int
}

// EntryQuery is raw client input for SearchEntries; paging is clamped.
type EntryQuery struct {
	Tag    string
	Offset int
	Limit  int
}

// MemberService is the administrative surface over the member directory,
// the entry log and the location table. Every mutating call validates all
// of its fields before touching storage.
type MemberService struct {
	members   store.MemberStore
	entries   store.EntryLogStore
	locations store.LocationStore
	log       *zap.Logger
}

func NewMemberService(ms store.MemberStore, es store.EntryLogStore, ls store.LocationStore, log *zap.Logger) *MemberService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MemberService{members: ms, entries: es, locations: ls, log: log.Named("admin")}
}

// ── Members ──────────────────────────────────────────────────────────────────

func (s *MemberService) AddMember(ctx context.Context, tag, name string) error {
	var c checks
	c.tag("tag", tag)
	c.name("name", name)
	if err := c.err(); err != nil {
		return err
	}

	existing, err := s.members.FetchByRFID(ctx, tag)
	if err != nil {
		return fmt.Errorf("AddMember: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("AddMember: tag %s: %w", tag, store.ErrConflict)
	}

	if err := s.members.AddMember(ctx, name, tag); err != nil {
		return fmt.Errorf("AddMember: %w", err)
	}
	s.audit(ctx, "member added", zap.String("rfid", tag), zap.String("name", name))
	return nil
}

func (s *MemberService) Deactivate(ctx context.Context, tag string) error {
	return s.setActive(ctx, "Deactivate", tag, false)
}

func (s *MemberService) Reactivate(ctx context.Context, tag string) error {
	return s.setActive(ctx, "Reactivate", tag, true)
}

func (s *MemberService) setActive(ctx context.Context, op, tag string, active bool) error {
	var c checks
	c.tag("tag", tag)
	if err := c.err(); err != nil {
		return err
	}
	if err := s.members.SetActive(ctx, tag, active); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.audit(ctx, "member active changed", zap.String("rfid", tag), zap.Bool("active", active))
	return nil
}

// ChangeTag moves the member holding oldTag to newTag. An unknown oldTag is
// a no-op; a newTag held by someone else is store.ErrConflict.
func (s *MemberService) ChangeTag(ctx context.Context, oldTag, newTag string) error {
	var c checks
	c.tag("old tag", oldTag)
	c.tag("new tag", newTag)
	if err := c.err(); err != nil {
		return err
	}

	if oldTag != newTag {
		holder, err := s.members.FetchByRFID(ctx, newTag)
		if err != nil {
			return fmt.Errorf("ChangeTag: %w", err)
		}
		if holder != nil {
			return fmt.Errorf("ChangeTag: tag %s: %w", newTag, store.ErrConflict)
		}
	}

	if err := s.members.ChangeTag(ctx, oldTag, newTag); err != nil {
		return fmt.Errorf("ChangeTag: %w", err)
	}
	s.audit(ctx, "member retagged", zap.String("old_rfid", oldTag), zap.String("rfid", newTag))
	return nil
}

func (s *MemberService) ChangeName(ctx context.Context, tag, name string) error {
	var c checks
	c.tag("tag", tag)
	c.name("name", name)
	if err := c.err(); err != nil {
		return err
	}
	if err := s.members.ChangeName(ctx, tag, name); err != nil {
		return fmt.Errorf("ChangeName: %w", err)
	}
	s.audit(ctx, "member renamed", zap.String("rfid", tag), zap.String("name", name))
	return nil
}

func (s *MemberService) LookupByTag(ctx context.Context, tag string) (*types.Member, error) {
	var c checks
	c.tag("tag", tag)
	if err := c.err(); err != nil {
		return nil, err
	}
	return s.members.FetchByRFID(ctx, tag)
}

// LookupByName returns the earliest-joined member whose name starts with
// prefix, case-insensitively.
func (s *MemberService) LookupByName(ctx context.Context, prefix string) (*types.Member, error) {
	var c checks
	c.name("name", prefix)
	if err := c.err(); err != nil {
		return nil, err
	}
	return s.members.FetchByName(ctx, prefix)
}

func (s *MemberService) SearchMembers(ctx context.Context, q MemberQuery) ([]types.Member, error) {
	offset, limit := ClampPage(q.Offset, q.Limit)
	out, err := s.members.Search(ctx, store.MemberFilter{
		NamePrefix: q.Name,
		RFID:       q.Tag,
		Offset:     offset,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("SearchMembers: %w", err)
	}
	return out, nil
}

// DumpActive snapshots the tags of every active member.
func (s *MemberService) DumpActive(ctx context.Context) (map[string]struct{}, error) {
	out, err := s.members.DumpActiveRFIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("DumpActive: %w", err)
	}
	return out, nil
}

// ── Entry log ────────────────────────────────────────────────────────────────

func (s *MemberService) SearchEntries(ctx context.Context, q EntryQuery) ([]types.EntryLogEntry, error) {
	offset, limit := ClampPage(q.Offset, q.Limit)
	out, err := s.entries.SearchEntries(ctx, store.EntryFilter{
		RFID:   q.Tag,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("SearchEntries: %w", err)
	}
	return out, nil
}

// ── Locations ────────────────────────────────────────────────────────────────

func (s *MemberService) AddLocation(ctx context.Context, name string) error {
	var c checks
	c.name("location", name)
	if err := c.err(); err != nil {
		return err
	}
	if err := s.locations.AddLocation(ctx, name); err != nil {
		return fmt.Errorf("AddLocation: %w", err)
	}
	s.audit(ctx, "location added", zap.String("location", name))
	return nil
}

func (s *MemberService) Locations(ctx context.Context) ([]types.Location, error) {
	out, err := s.locations.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("Locations: %w", err)
	}
	return out, nil
}

func (s *MemberService) audit(ctx context.Context, msg string, fields ...zap.Field) {
	if caller := CallerFrom(ctx); caller != "" {
		fields = append(fields, zap.String("caller", caller))
	}
	s.log.Info(msg, fields...)
}
