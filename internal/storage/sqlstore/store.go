// Package sqlstore implements storage.Provider on top of database/sql. The
// sqlite and postgres backends share it and differ only in placeholder
// format, transaction isolation and connection setup.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/julianstephens/nudge/internal/storage"
)

// Options configures dialect differences.
type Options struct {
	Placeholder sq.PlaceholderFormat
	// Isolation is used for RunInTx. sql.LevelDefault leaves it to the driver.
	Isolation sql.IsolationLevel
}

// Store is the shared database/sql implementation. The Init/Load/Close and
// GetConfigPath lifecycle methods belong to the embedding backend.
type Store struct {
	db   *sql.DB
	sb   sq.StatementBuilderType
	opts Options
}

func New(db *sql.DB, opts Options) *Store {
	if opts.Placeholder == nil {
		opts.Placeholder = sq.Question
	}
	return &Store{
		db:   db,
		sb:   sq.StatementBuilder.PlaceholderFormat(opts.Placeholder),
		opts: opts,
	}
}

// SetDB swaps the connection pool. Backends call it from Init, Load and
// Close.
func (s *Store) SetDB(db *sql.DB) {
	s.db = db
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// txState serializes statements issued on one transaction, which may come
// from several goroutines sharing the transaction context.
type txState struct {
	mu    sync.Mutex
	tx    *sql.Tx
	owner *Store
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if st, ok := ctx.Value(txKey{}).(*txState); ok && st.owner == s {
		// already inside one of our transactions
		return fn(ctx)
	}
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: s.opts.Isolation})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	txCtx := context.WithValue(ctx, txKey{}, &txState{tx: tx, owner: s})

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %w (original error: %v)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// conn returns the transaction carried by ctx, or the pool. release must be
// called once the statement and any rows are done.
func (s *Store) conn(ctx context.Context) (q querier, release func(), err error) {
	if s.db == nil {
		return nil, nil, storage.ErrNotLoaded
	}
	if st, ok := ctx.Value(txKey{}).(*txState); ok && st.owner == s {
		st.mu.Lock()
		return st.tx, st.mu.Unlock, nil
	}
	return s.db, func() {}, nil
}

func (s *Store) exec(ctx context.Context, b sq.Sqlizer) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	q, release, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return q.ExecContext(ctx, query, args...)
}

// query runs b and hands each row to scan.
func (s *Store) query(ctx context.Context, b sq.Sqlizer, scan func(*sql.Rows) error) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	q, release, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer release()

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) queryRow(ctx context.Context, b sq.Sqlizer, dest ...any) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	q, release, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer release()
	return q.QueryRowContext(ctx, query, args...).Scan(dest...)
}

// requireAffected turns a zero-row write into a not-found error.
func requireAffected(res sql.Result, what, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.NotFound(what, id)
	}
	return nil
}

// mapError converts driver errors for a single-record lookup.
func mapError(err error, what, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.NotFound(what, id)
	}
	return fmt.Errorf("%s %s: %w", what, id, err)
}

// timeLayout is fixed-width and always UTC so stored values sort
// lexicographically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
