// Package dbpool provides a unified database connection manager that
// abstracts away engine-specific details (PostgreSQL, MySQL, SQLite, and
// CSV-as-SQL) behind a single *sql.DB surface.
//
// All code that needs a *sql.DB should go through DBManager instead of
// calling sql.Open directly. This gives us a single place to:
//   - dispatch on connection-string scheme to the right driver
//   - add retry/backoff for transient connection failures
//   - enforce connection pool settings
//   - auto-register CSV files as queryable tables in an embedded engine
package dbpool

import (
	"database/sql"
	"fmt"

	"sqlsaber/internal/logging"
)

// Engine identifies the database engine backing a gateway.
type Engine string

const (
	EnginePostgres Engine = "postgres"
	EngineMySQL    Engine = "mysql"
	EngineSQLite   Engine = "sqlite"
	EngineCSV      Engine = "csv"
)

// AccessMode controls whether the connection is read-only or read-write.
// Every gateway variant defaults to ModeReadOnly; callers opt into
// ModeReadWrite only for the dangerous-mode execute_sql path, and even then
// every statement still runs inside a transaction that is always rolled
// back (see gateway.go).
type AccessMode int

const (
	ModeReadOnly AccessMode = iota
	ModeReadWrite
)

// OpenOptions configures how a database connection is opened.
type OpenOptions struct {
	// Engine to use.
	Engine Engine
	// Path is the connection string / DSN for Postgres and MySQL, the file
	// path (or ":memory:") for SQLite, or the embedded engine's file path
	// for CSV (empty means ":memory:"; the CSV files come from CSVPaths).
	Path string
	// CSVPaths lists the CSV files to register as tables when Engine ==
	// EngineCSV. Each file becomes one table named by its stem.
	CSVPaths []string
	// Mode controls read-only vs read-write access.
	Mode AccessMode
	// MaxRetries overrides the default retry count (0 = use default).
	MaxRetries int
	// RetryBaseMs overrides the base retry interval in milliseconds (0 = use default).
	RetryBaseMs int
	// MaxOpenConns / MaxIdleConns bound the pool. Defaults: min 1, max 10.
	MaxOpenConns int
	MaxIdleConns int
}

// DBManager is the central connection manager.
type DBManager struct {
	log *logging.Logger
}

// New creates a new DBManager. A nil logger falls back to a no-op logger.
func New(log *logging.Logger) *DBManager {
	if log == nil {
		log = logging.NewNop()
	}
	return &DBManager{log: log}
}

// Open opens a database connection with the given options and applies pool
// bounds. It dispatches to the engine-specific opener.
func (m *DBManager) Open(opts OpenOptions) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch opts.Engine {
	case EnginePostgres:
		db, err = m.openPostgres(opts)
	case EngineMySQL:
		db, err = m.openMySQL(opts)
	case EngineSQLite:
		db, err = m.openSQLite(opts)
	case EngineCSV:
		db, err = m.openCSV(opts)
	default:
		return nil, fmt.Errorf("dbpool: unsupported engine %q", opts.Engine)
	}
	if err != nil {
		return nil, err
	}

	configurePool(db, opts)
	return db, nil
}

// configurePool sets connection pool parameters. Pooled engines (Postgres,
// MySQL) get a real pool (min 1, max 10 by default); the embedded engines
// (SQLite, CSV) are process-local and single-writer, so they keep a single
// connection regardless of the requested bounds.
func configurePool(db *sql.DB, opts OpenOptions) {
	switch opts.Engine {
	case EngineSQLite, EngineCSV:
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}

	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := opts.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
}

// retryParams returns (maxRetries, baseMs) from opts or defaults.
func retryParams(opts OpenOptions) (int, int) {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseMs := opts.RetryBaseMs
	if baseMs <= 0 {
		baseMs = 200
	}
	return maxRetries, baseMs
}
