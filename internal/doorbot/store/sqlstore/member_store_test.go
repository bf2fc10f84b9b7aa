package sqlstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/doorbot/internal/db"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/store"
	"github.com/BrandonDHaskell/doorbot/internal/doorbot/store/sqlstore"
)

var _ store.MemberStore = (*sqlstore.MemberStore)(nil)

// addMembers enrolls in order, sleeping past the join_date resolution so
// join order is unambiguous.
func addMembers(t *testing.T, ms *sqlstore.MemberStore, pairs ...[2]string) {
	t.Helper()
	for _, p := range pairs {
		require.NoError(t, ms.AddMember(context.Background(), p[0], p[1]))
		time.Sleep(2 * time.Millisecond)
	}
}

// ── AddMember / FetchByRFID ──────────────────────────────────────────────────

func TestMemberStore_AddAndFetch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *db.DB) {
		ctx := context.Background()
		ms := sqlstore.NewMemberStore(d)

		require.NoError(t, ms.AddMember(ctx, "Ada Lovelace", "1234"))

		m, err := ms.FetchByRFID(ctx, "1234")
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, "Ada Lovelace", m.FullName)
		assert.Equal(t, "1234", m.RFID)
		assert.True(t, m.Active)
		assert.Nil(t, m.ExternalID)
		assert.NotZero(t, m.ID)

		joined, err := time.Parse(time.RFC3339Nano, m.JoinDate)
		require.NoError(t, err, "join_date %q", m.JoinDate)
		assert.WithinDuration(t, time.Now(), joined, time.Minute)
	})
}

func TestMemberStore_FetchByRFID_Unknown(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *db.DB) {
		m, err := sqlstore.NewMemberStore(d).FetchByRFID(context.Background(), "9999")
		require.NoError(t, err)
		assert.Nil(t, m)
	})
}

func TestMemberStore_AddMember_DuplicateTag(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *db.DB) {
		ctx := context.Background()
		ms := sqlstore.NewMemberStore(d)

		require.NoError(t, ms.AddMember(ctx, "Ada", "1234"))
		err := ms.AddMember(ctx, "Grace", "1234")
		assert.ErrorIs(t, err, store.ErrConflict)
		assert.ErrorIs(t, err, db.ErrUniqueViolation)

		m, err := ms.FetchByRFID(ctx, "1234")
		require.NoError(t, err)
		assert.Equal(t, "Ada", m.FullName)
		assert.EqualValues(t, 1, countRows(t, d, "members"))
	})
}

func TestMemberStore_ExternalIDRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *db.DB) {
		ctx := context.Background()
		ms := sqlstore.NewMemberStore(d)
		require.NoError(t, ms.AddMember(ctx, "Ada", "1234"))

		_, err := d.Exec(ctx, `UPDATE members SET mms_id = ? WHERE rfid = ?`, "mms-77", "1234")
		require.NoError(t, err)

		m, err := ms.FetchByRFID(ctx, "1234")
		require.NoError(t, err)
		require.NotNil(t, m.ExternalID)
		assert.Equal(t, "mms-77", *m.ExternalID)
		assert.Equal(t, "mms-77", m.ExternalIDOrEmpty())
	})
}

// ── FetchByName ──────────────────────────────────────────────────────────────

func TestMemberStore_FetchByName_EarliestPrefixMatch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *db.DB) {
		ctx := context.Background()
		ms := sqlstore.NewMemberStore(d)
		addMembers(t, ms,
			[2]string{"Bob Stone", "1"},
			[2]string{"Alice Smith", "2"},
			[2]string{"alfred Jones", "3"},
		)

		m, err := ms.FetchByName(ctx, "AL")
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, "2", m.RFID, "earliest joined of the two al* members")

		m, err = ms.FetchByName(ctx, "Stone")
		require.NoError(t, err)
		assert.Nil(t, m, "match is anchored at the start")
	})
}

func TestMemberStore_FetchByName_LiteralWildcards(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *db.DB) {
		ctx := context.Background()
		ms := sqlstore.NewMemberStore(d)
		addMembers(t, ms, [2]string{"Ada", "1"})

		m, err := ms.FetchByName(ctx, "%")
		require.NoError(t, err)
		assert.Nil(t, m)

		m, err = ms.FetchByName(ctx, "_da")
		require.NoError(t, err)
		assert.Nil(t, m)
	})
}

func TestMemberStore_NamePrefix_UnicodeCase(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *db.DB) {
		ctx := context.Background()
		ms := sqlstore.NewMemberStore(d)
		addMembers(t, ms,
			[2]string{"ÉMILE Zola", "1"},
			[2]string{"Zoë Ångström", "2"},
		)

		got, err := ms.Search(ctx, store.MemberFilter{NamePrefix: "émile"})
		require.NoError(t, err)
		assert.Equal(t, []string{"1"}, rfids(got))

		got, err = ms.Search(ctx, store.MemberFilter{NamePrefix: "ZOË å"})
		require.NoError(t, err)
		assert.Equal(t, []string{"2"}, rfids(got))

		m, err := ms.FetchByName(ctx, "émile z")
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, "1", m.RFID)
	})
}

// ── SetActive / ChangeTag / ChangeName ───────────────────────────────────────

func TestMemberStore_SetActive(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *db.DB) {
		ctx := context.Background()
		ms := sqlstore.NewMemberStore(d)
		addMembers(t, ms, [2]string{"Ada", "1"})

		require.NoError(t, ms.SetActive(ctx, "1", false))
		m, err := ms.FetchByRFID(ctx, "1")
		require.NoError(t, err)
		assert.False(t, m.Active)

		require.NoError(t, ms.SetActive(ctx, "1", true))
		m, err = ms.FetchByRFID(ctx, "1")
		require.NoError(t, err)
		assert.True(t, m.Active)

		assert.NoError(t, ms.SetActive(ctx, "404", false), "unknown tag is a no-op")
	})
}

func TestMemberStore_ChangeTag(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *db.DB) {
		ctx := context.Background()
		ms := sqlstore.NewMemberStore(d)
		addMembers(t, ms, [2]string{"Ada", "1"}, [2]string{"Grace", "2"})

		require.NoError(t, ms.ChangeTag(ctx, "1", "10"))

		old, err := ms.FetchByRFID(ctx, "1")
		require.NoError(t, err)
		assert.Nil(t, old)

		m, err := ms.FetchByRFID(ctx, "10")
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, "Ada", m.FullName)

		err = ms.ChangeTag(ctx, "10", "2")
		assert.ErrorIs(t, err, store.ErrConflict)

		m, err = ms.FetchByRFID(ctx, "10")
		require.NoError(t, err)
		assert.NotNil(t, m, "failed retag leaves the member in place")

		assert.NoError(t, ms.ChangeTag(ctx, "404", "405"))
	})
}

func TestMemberStore_ChangeName(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *db.DB) {
		ctx := context.Background()
		ms := sqlstore.NewMemberStore(d)
		addMembers(t, ms, [2]string{"Ada", "1"})

		require.NoError(t, ms.ChangeName(ctx, "1", "Ada King"))
		m, err := ms.FetchByRFID(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "Ada King", m.FullName)
	})
}

// ── Search ───────────────────────────────────────────────────────────────────

func TestMemberStore_Search(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *db.DB) {
		ctx := context.Background()
		ms := sqlstore.NewMemberStore(d)
		addMembers(t, ms,
			[2]string{"Alice", "1"},
			[2]string{"Bob", "2"},
			[2]string{"alan", "3"},
			[2]string{"Carol", "4"},
		)

		all, err := ms.Search(ctx, store.MemberFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2", "3", "4"}, rfids(all))

		byName, err := ms.Search(ctx, store.MemberFilter{NamePrefix: "al"})
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "3"}, rfids(byName))

		both, err := ms.Search(ctx, store.MemberFilter{NamePrefix: "al", RFID: "3"})
		require.NoError(t, err)
		assert.Equal(t, []string{"3"}, rfids(both))

		none, err := ms.Search(ctx, store.MemberFilter{NamePrefix: "bob", RFID: "3"})
		require.NoError(t, err)
		assert.Empty(t, none)

		page, err := ms.Search(ctx, store.MemberFilter{Offset: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "3"}, rfids(page))

		tail, err := ms.Search(ctx, store.MemberFilter{Offset: 3})
		require.NoError(t, err)
		assert.Equal(t, []string{"4"}, rfids(tail))
	})
}

// ── DumpActiveRFIDs ──────────────────────────────────────────────────────────

func TestMemberStore_DumpActiveRFIDs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, d *db.DB) {
		ctx := context.Background()
		ms := sqlstore.NewMemberStore(d)

		empty, err := ms.DumpActiveRFIDs(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		addMembers(t, ms, [2]string{"Ada", "1"}, [2]string{"Grace", "2"})
		require.NoError(t, ms.SetActive(ctx, "2", false))

		got, err := ms.DumpActiveRFIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{"1": {}}, got)
	})
}
