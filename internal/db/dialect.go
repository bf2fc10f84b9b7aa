package db

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Backend names one of the supported physical stores. Each backend carries
// its own placeholder style, boolean representation and timestamp encoding;
// the methods below are the only place those differences are spelled out.
type Backend string

const (
	SQLite   Backend = "sqlite"
	Postgres Backend = "postgres"
)

// sqliteTimeLayout keeps microseconds, the same precision Postgres stores.
// It shares the date-time shape of the schema DEFAULT expression, which only
// carries milliseconds.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

// ParseBackend maps a configured backend name (with the usual aliases) to a
// Backend.
func ParseBackend(kind string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pg", "pgx":
		return Postgres, nil
	default:
		return "", fmt.Errorf("db: unknown backend %q", kind)
	}
}

func (b Backend) valid() bool {
	return b == SQLite || b == Postgres
}

func (b Backend) driverName() string {
	if b == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// Rebind rewrites a query written with '?' placeholders into the backend's
// native positional style. Question marks inside single-quoted literals are
// left alone.
func (b Backend) Rebind(query string) string {
	if b != Postgres {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			sb.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// BoolLiteral is the SQL text for a constant boolean on this backend.
func (b Backend) BoolLiteral(v bool) string {
	if b == Postgres {
		if v {
			return "TRUE"
		}
		return "FALSE"
	}
	if v {
		return "1"
	}
	return "0"
}

// LimitOffset renders the paging tail of a SELECT. Zero values are omitted.
func (b Backend) LimitOffset(limit, offset int) (string, []any) {
	switch {
	case limit > 0 && offset > 0:
		return "LIMIT ? OFFSET ?", []any{limit, offset}
	case limit > 0:
		return "LIMIT ?", []any{limit}
	case offset > 0:
		if b == SQLite {
			// SQLite has no OFFSET without LIMIT.
			return "LIMIT -1 OFFSET ?", []any{offset}
		}
		return "OFFSET ?", []any{offset}
	default:
		return "", nil
	}
}

// PrefixMatch renders a case-insensitive, start-anchored match of col
// against prefix. LIKE metacharacters in prefix match literally. Case is
// folded with Unicode rules on both backends.
func (b Backend) PrefixMatch(col, prefix string) (string, any) {
	fold := "lower"
	if b == SQLite {
		fold = foldFunc
	}
	return fold + "(" + col + ") LIKE " + fold + `(?) ESCAPE '\'`, escapeLike(prefix) + "%"
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// bindArg converts application values into the backend's storage encoding.
func (b Backend) bindArg(v any) any {
	switch x := v.(type) {
	case bool:
		if b == Postgres {
			return x
		}
		if x {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		if b == Postgres {
			return x.UTC()
		}
		return x.UTC().Format(sqliteTimeLayout)
	default:
		return v
	}
}

func (b Backend) bindArgs(args []any) []any {
	if len(args) == 0 {
		return args
	}
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = b.bindArg(a)
	}
	return out
}

// NormalizeBool decodes a stored boolean. Postgres yields native bools,
// SQLite yields integers; both round-trip to the value written.
func (b Backend) NormalizeBool(v any) (bool, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case int:
		return x != 0, nil
	case float64:
		return x != 0, nil
	case []byte:
		return parseBoolText(string(x))
	case string:
		return parseBoolText(x)
	default:
		return false, fmt.Errorf("db: cannot decode %T as bool", v)
	}
}

func parseBoolText(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes":
		return true, nil
	case "0", "f", "false", "n", "no", "":
		return false, nil
	}
	return false, fmt.Errorf("db: cannot decode %q as bool", s)
}

var textTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// DecodeTime decodes a stored timestamp. Postgres yields time.Time; SQLite
// yields text which is parsed, with zone-less values taken as UTC.
func (b Backend) DecodeTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case []byte:
		return parseTimeText(string(x))
	case string:
		return parseTimeText(x)
	case int64:
		// Unix seconds, as written by strftime('%s').
		return time.Unix(x, 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("db: cannot decode %T as timestamp", v)
	}
}

func parseTimeText(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range textTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("db: cannot parse timestamp %q", s)
}

// NormalizeTime decodes a stored timestamp and renders it as ISO-8601 in UTC.
func (b Backend) NormalizeTime(v any) (string, error) {
	t, err := b.DecodeTime(v)
	if err != nil {
		return "", err
	}
	return t.Format(time.RFC3339Nano), nil
}

func (b Backend) isUniqueViolation(err error) bool {
	switch b {
	case SQLite:
		var se *sqlite.Error
		if errors.As(err, &se) {
			code := se.Code()
			if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
				return true
			}
			// Primary result code only when extended codes are off.
			return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
		}
	case Postgres:
		var pe *pgconn.PgError
		if errors.As(err, &pe) {
			return pe.Code == "23505"
		}
	}
	return false
}
