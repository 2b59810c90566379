// Package sqlite implements types.Store on SQLite. Schema changes are
// managed by embedded migrations; every multi-step write runs in a single
// transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/workbench/pkg/types"
)

const (
	driverName = "sqlite"

	// DBFileName is the database file created inside the data directory.
	DBFileName = "workbench.db"

	// timeLayout is how timestamps are stored in TEXT columns.
	timeLayout = time.RFC3339Nano
)

var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on a SQLite database file.
type Backend struct {
	mu     sync.Mutex
	closed bool
	db     *sql.DB
	path   string
	now    func() time.Time
}

// Option configures a Backend at Open.
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger sets the logger used for schema migration messages.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// dsn builds the modernc connection string. Foreign keys are enabled on
// every connection and writers wait on a busy database instead of failing.
func dsn(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// DBPath returns the database file path for a data directory.
func DBPath(dataDir string) string {
	if dataDir == "" {
		dataDir = "."
	}
	return filepath.Join(dataDir, DBFileName)
}

// Open creates DataDir if needed, migrates the schema to the latest
// version and returns a ready Backend.
func Open(cfg types.Config, opts ...Option) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := DBPath(dataDir)

	if err := MigrateUp(path, o.logger); err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection serializes writers, which SQLite requires anyway,
	// and keeps transactions from contending for the file lock.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Backend{
		db:   db,
		path: path,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Path returns the database file path.
func (b *Backend) Path() string { return b.path }

// Close releases the database handle. Close is idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction, committing on success and rolling back
// on any error. Errors come back classified for op.
func (b *Backend) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Backend(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return types.Backend(op, err)
	}
	if err := tx.Commit(); err != nil {
		return types.Backend(op, err)
	}
	return nil
}

// exists reports whether a row with id exists in table. The table name is
// always a package constant.
func exists(ctx context.Context, q querier, table string, id int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func timePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}
