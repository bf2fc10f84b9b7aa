package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrConnection marks driver-level connection failures.
	ErrConnection = errors.New("db: connection unavailable")

	// ErrNotConfigured is returned when a query is issued on a DB that was
	// never bound to a backend and connection. It wraps ErrConnection.
	ErrNotConfigured = fmt.Errorf("%w: no backend configured", ErrConnection)

	// ErrUniqueViolation marks a uniqueness constraint collision. It is
	// always wrapped in a *QueryError.
	ErrUniqueViolation = errors.New("db: unique constraint violated")
)

// QueryError reports a statement the backend refused: malformed SQL, a
// constraint violation or an undecodable column.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *QueryError) Unwrap() error { return e.Err }

// Querier is the statement surface shared by DB and Tx.
type Querier interface {
	Backend() Backend
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
	QueryOne(ctx context.Context, query string, args ...any) (*Row, error)
	Exec(ctx context.Context, query string, args ...any) (int64, error)
}

type runner interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DB executes backend-neutral queries. Queries are written with '?'
// placeholders; Backend rewrites them and encodes bool and time.Time
// arguments. The backend is fixed at construction.
type DB struct {
	conn    *sql.DB
	backend Backend
	writer  *Worker
}

// New binds an open connection to a backend. SQLite handles get a
// single-writer worker so transactions never contend for the lock.
func New(conn *sql.DB, backend Backend) (*DB, error) {
	if conn == nil {
		return nil, ErrNotConfigured
	}
	if !backend.valid() {
		return nil, fmt.Errorf("db: unknown backend %q", backend)
	}

	d := &DB{conn: conn, backend: backend}
	if backend == SQLite {
		d.writer = NewWorker(conn)
	}
	return d, nil
}

func (d *DB) configured() bool {
	return d != nil && d.conn != nil && d.backend.valid()
}

func (d *DB) Backend() Backend {
	if d == nil {
		return ""
	}
	return d.backend
}

// Conn exposes the underlying handle for migrations and tests.
func (d *DB) Conn() *sql.DB {
	if d == nil {
		return nil
	}
	return d.conn
}

func (d *DB) Ping(ctx context.Context) error {
	if !d.configured() {
		return ErrNotConfigured
	}
	if err := d.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w: %w", ErrConnection, err)
	}
	return nil
}

func (d *DB) Close() error {
	if !d.configured() {
		return nil
	}
	if d.writer != nil {
		d.writer.Close()
	}
	return d.conn.Close()
}

func (d *DB) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if !d.configured() {
		return nil, ErrNotConfigured
	}
	return runQuery(ctx, d.conn, d.backend, query, args)
}

// QueryOne returns the first row, or nil when the result is empty.
func (d *DB) QueryOne(ctx context.Context, query string, args ...any) (*Row, error) {
	rows, err := d.Query(ctx, query, args...)
	return firstRow(rows, err)
}

// Exec runs a statement and returns the number of affected rows.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if !d.configured() {
		return 0, ErrNotConfigured
	}
	return runExec(ctx, d.conn, d.backend, query, args)
}

// Tx runs fn inside a single transaction. fn's error rolls back.
func (d *DB) Tx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	if !d.configured() {
		return ErrNotConfigured
	}

	body := func(ctx context.Context, stx *sql.Tx) error {
		return fn(ctx, &Tx{tx: stx, backend: d.backend})
	}

	if d.writer != nil {
		return d.writer.Do(ctx, body)
	}

	stx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return classify(d.backend, "begin", err)
	}
	if err := body(ctx, stx); err != nil {
		_ = stx.Rollback()
		return err
	}
	if err := stx.Commit(); err != nil {
		return classify(d.backend, "commit", err)
	}
	return nil
}

// Tx is an open transaction handed to DB.Tx callbacks.
type Tx struct {
	tx      *sql.Tx
	backend Backend
}

func (t *Tx) Backend() Backend { return t.backend }

func (t *Tx) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	return runQuery(ctx, t.tx, t.backend, query, args)
}

func (t *Tx) QueryOne(ctx context.Context, query string, args ...any) (*Row, error) {
	rows, err := t.Query(ctx, query, args...)
	return firstRow(rows, err)
}

func (t *Tx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return runExec(ctx, t.tx, t.backend, query, args)
}

func firstRow(rows []Row, err error) (*Row, error) {
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func runQuery(ctx context.Context, r runner, b Backend, query string, args []any) ([]Row, error) {
	rs, err := r.QueryContext(ctx, b.Rebind(query), b.bindArgs(args)...)
	if err != nil {
		return nil, classify(b, "query", err)
	}
	defer rs.Close()

	names, err := rs.Columns()
	if err != nil {
		return nil, classify(b, "columns", err)
	}
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[strings.ToLower(n)] = i
	}

	var out []Row
	for rs.Next() {
		vals := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, classify(b, "scan", err)
		}
		out = append(out, Row{backend: b, index: index, vals: vals})
	}
	if err := rs.Err(); err != nil {
		return nil, classify(b, "rows", err)
	}
	return out, nil
}

func runExec(ctx context.Context, r runner, b Backend, query string, args []any) (int64, error) {
	res, err := r.ExecContext(ctx, b.Rebind(query), b.bindArgs(args)...)
	if err != nil {
		return 0, classify(b, "exec", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		// Not every driver reports affected rows; the statement still ran.
		return 0, nil
	}
	return n, nil
}

func classify(b Backend, op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case isConnErr(err):
		return fmt.Errorf("%s: %w: %w", op, ErrConnection, err)
	case b.isUniqueViolation(err):
		return &QueryError{Op: op, Err: fmt.Errorf("%w: %w", ErrUniqueViolation, err)}
	default:
		return &QueryError{Op: op, Err: err}
	}
}

func isConnErr(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var ce *pgconn.ConnectError
	return errors.As(err, &ce)
}
