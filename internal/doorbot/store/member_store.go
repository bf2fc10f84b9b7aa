package store

import (
	"context"

	"github.com/BrandonDHaskell/doorbot/internal/doorbot/types"
)

// MemberFilter selects members for Search. Empty strings and zero paging
// values are not applied.
type MemberFilter struct {
	NamePrefix string // case-insensitive, anchored at the start
	RFID       string // exact
	Offset     int
	Limit      int
}

// MemberStore is the member directory. Implementations do not validate tag
// or name syntax; callers do.
type MemberStore interface {
	// AddMember creates an active member. ErrConflict if rfid exists.
	AddMember(ctx context.Context, fullName, rfid string) error

	// FetchByRFID returns nil, nil when no member holds rfid.
	FetchByRFID(ctx context.Context, rfid string) (*types.Member, error)

	// FetchByName returns the earliest-joined member whose name starts
	// with prefix, or nil, nil.
	FetchByName(ctx context.Context, prefix string) (*types.Member, error)

	// SetActive succeeds without effect when rfid is unknown.
	SetActive(ctx context.Context, rfid string, active bool) error

	// ChangeTag moves a member to newRFID. ErrConflict if newRFID is held
	// by another member.
	ChangeTag(ctx context.Context, oldRFID, newRFID string) error

	ChangeName(ctx context.Context, rfid, fullName string) error

	// Search returns matches in join order.
	Search(ctx context.Context, f MemberFilter) ([]types.Member, error)

	// DumpActiveRFIDs snapshots every active member's tag.
	DumpActiveRFIDs(ctx context.Context) (map[string]struct{}, error)
}
