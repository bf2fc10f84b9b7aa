package db

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row is one result row addressed by column name. Decoding goes through the
// backend so booleans and timestamps come back the same way everywhere.
type Row struct {
	backend Backend
	index   map[string]int
	vals    []any
}

func (r Row) value(col string) (any, error) {
	i, ok := r.index[strings.ToLower(col)]
	if !ok {
		return nil, &QueryError{Op: "decode", Err: fmt.Errorf("column %q not in result", col)}
	}
	return r.vals[i], nil
}

func (r Row) Has(col string) bool {
	_, ok := r.index[strings.ToLower(col)]
	return ok
}

// IsNull reports whether col holds SQL NULL.
func (r Row) IsNull(col string) (bool, error) {
	v, err := r.value(col)
	if err != nil {
		return false, err
	}
	return v == nil, nil
}

// String returns col as text; NULL decodes to "".
func (r Row) String(col string) (string, error) {
	s, _, err := r.NullString(col)
	return s, err
}

// NullString returns col as text and whether it was non-NULL.
func (r Row) NullString(col string) (string, bool, error) {
	v, err := r.value(col)
	if err != nil {
		return "", false, err
	}
	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return x, true, nil
	case []byte:
		return string(x), true, nil
	case int64:
		return strconv.FormatInt(x, 10), true, nil
	default:
		return "", false, decodeErr(col, "string", v)
	}
}

func (r Row) Int64(col string) (int64, error) {
	v, err := r.value(col)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case int:
		return int64(x), nil
	case []byte:
		return parseInt(col, string(x))
	case string:
		return parseInt(col, x)
	default:
		return 0, decodeErr(col, "int64", v)
	}
}

func parseInt(col, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &QueryError{Op: "decode", Err: fmt.Errorf("column %q: %w", col, err)}
	}
	return n, nil
}

func (r Row) Bool(col string) (bool, error) {
	v, err := r.value(col)
	if err != nil {
		return false, err
	}
	b, err := r.backend.NormalizeBool(v)
	if err != nil {
		return false, &QueryError{Op: "decode", Err: fmt.Errorf("column %q: %w", col, err)}
	}
	return b, nil
}

// Time returns col as a UTC instant.
func (r Row) Time(col string) (time.Time, error) {
	v, err := r.value(col)
	if err != nil {
		return time.Time{}, err
	}
	t, err := r.backend.DecodeTime(v)
	if err != nil {
		return time.Time{}, &QueryError{Op: "decode", Err: fmt.Errorf("column %q: %w", col, err)}
	}
	return t, nil
}

// ISOTime returns col as an ISO-8601 UTC string; NULL decodes to "".
func (r Row) ISOTime(col string) (string, error) {
	v, err := r.value(col)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	s, err := r.backend.NormalizeTime(v)
	if err != nil {
		return "", &QueryError{Op: "decode", Err: fmt.Errorf("column %q: %w", col, err)}
	}
	return s, nil
}

func decodeErr(col, want string, v any) error {
	return &QueryError{Op: "decode", Err: fmt.Errorf("column %q: cannot decode %T as %s", col, v, want)}
}
