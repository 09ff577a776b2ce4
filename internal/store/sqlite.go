package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperengineering/labbook/internal/types"
	_ "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore is the SQLite-backed lab book.
//
// The pool is limited to one connection: every transaction, read or write,
// runs alone. Transactions begin IMMEDIATE, taking the write lock up front,
// so the count-then-insert of sequence allocation is also serialized against
// other processes sharing the file; they wait up to busy_timeout.
type SQLiteStore struct {
	db       *sql.DB
	now      func() time.Time
	recorder Recorder
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithClock overrides the clock used for default recipe dates and
// recorded_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// WithRecorder attaches an activity recorder.
func WithRecorder(r Recorder) Option {
	return func(s *SQLiteStore) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewSQLiteStore creates a new SQLiteStore instance.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dataSourceName(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &SQLiteStore{
		db:       db,
		now:      time.Now,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// dataSourceName adds the connection parameters every connection needs:
// immediate transactions and a busy timeout that is in force before the
// first statement runs.
func dataSourceName(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_txlock=immediate&_pragma=busy_timeout(5000)"
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// kindTables maps an experiment kind to its fixed table names. Only these
// constants are ever formatted into SQL text; values are always bound.
type kindTables struct {
	entity      string
	observation string
}

var tables = map[types.Kind]kindTables{
	types.KindCulture:      {entity: "cultures", observation: "culture_observations"},
	types.KindIntermediate: {entity: "intermediate_units", observation: "intermediate_observations"},
	types.KindTerminal:     {entity: "terminal_units", observation: "terminal_observations"},
}

func tablesFor(kind types.Kind) (kindTables, error) {
	t, ok := tables[kind]
	if !ok {
		return kindTables{}, fmt.Errorf("%w: kind %q", ErrUnsupported, kind)
	}
	return t, nil
}

// readTx runs fn inside one transaction so that every query it issues sees
// the same snapshot.
func (s *SQLiteStore) readTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// sqliteCoder is implemented by driver errors that carry a result code.
type sqliteCoder interface {
	Code() int
}

// isBusy reports whether err is SQLITE_BUSY or SQLITE_LOCKED, including
// extended codes such as SQLITE_BUSY_SNAPSHOT.
func isBusy(err error) bool {
	var coder sqliteCoder
	if !errors.As(err, &coder) {
		return false
	}
	primary := coder.Code() & 0xff
	return primary == sqlite3.SQLITE_BUSY || primary == sqlite3.SQLITE_LOCKED
}

// classifyConstraint maps SQLite constraint and lock failures onto store
// errors. A lock held past busy_timeout by another writer is reported as a
// concurrency conflict.
func classifyConstraint(err error, kind types.Kind) error {
	if err == nil {
		return nil
	}
	if isBusy(err) {
		return fmt.Errorf("%w: %w", ErrConcurrencyConflict, err)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		if kind == types.KindRecipe {
			return fmt.Errorf("%w: %w", ErrDuplicateName, err)
		}
		return fmt.Errorf("%w: %w", ErrConcurrencyConflict, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "CHECK constraint failed"),
		strings.Contains(msg, "NOT NULL constraint failed"):
		return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	}
	return err
}

// failureReason labels a write failure for metrics.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidAction):
		return "invalid_action"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDuplicateName):
		return "duplicate_name"
	case errors.Is(err, ErrConcurrencyConflict):
		return "conflict"
	case errors.Is(err, ErrConstraintViolation):
		return "constraint"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	}
	return "internal"
}

const maxBatchIDs = 500

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// chunkIDs de-duplicates ids and splits them into bind-parameter sized groups.
func chunkIDs(ids []int64) [][]any {
	seen := make(map[int64]struct{}, len(ids))
	var chunks [][]any
	var cur []any
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		cur = append(cur, id)
		if len(cur) == maxBatchIDs {
			chunks = append(chunks, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}

func parseStoredTimestamp(table, value string) types.Timestamp {
	ts, err := types.ParseTimestamp(value)
	if err != nil {
		slog.Warn(table+": failed to parse created_at", "value", value, "error", err)
	}
	return ts
}

func parseStoredDate(table, column, value string) types.Date {
	d, err := types.ParseDate(value)
	if err != nil {
		slog.Warn(table+": failed to parse "+column, "value", value, "error", err)
	}
	return d
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func trimmedOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return strings.TrimSpace(*s)
}

func (s *SQLiteStore) recordedAt() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}
