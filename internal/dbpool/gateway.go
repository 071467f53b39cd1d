package dbpool

import (
	"context"
	"database/sql"
	"fmt"
)

// QueryResult is the tabular result of ExecuteQuery: column names in order,
// plus rows as ordered maps so callers (tools, JSON serialization) keep a
// stable column order without re-deriving it from the first row.
type QueryResult struct {
	Columns []string
	Rows    []map[string]any
}

// Gateway wraps a single *sql.DB connection with the rollback-isolated
// execution contract: every statement, read or write, runs inside a
// transaction that is always rolled back, never committed. The gateway
// checks no "read-only mode" flag before running a statement; any
// read-only session setting comes from the AccessMode the connection was
// opened with (see DBManager.Open).
type Gateway struct {
	db     *sql.DB
	engine Engine
	log    loggerIface
}

// loggerIface is the subset of *logging.Logger the gateway needs; any
// value with these methods, *logging.Logger included, can be passed.
type loggerIface interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// NewGateway wraps an opened *sql.DB for rollback-isolated execution.
func NewGateway(db *sql.DB, engine Engine, log loggerIface) *Gateway {
	return &Gateway{db: db, engine: engine, log: log}
}

// ExecuteQuery runs sqlText inside a transaction and always rolls it back,
// regardless of whether it was a SELECT or a mutating statement. Rows are
// materialized into []map[string]any before the rollback happens, so the
// caller sees the effects of the statement (e.g. a SELECT against a CTE
// that itself writes) without the database ever persisting them.
func (g *Gateway) ExecuteQuery(ctx context.Context, sqlText string, args ...any) (*QueryResult, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("dbpool: begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("dbpool: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dbpool: columns: %w", err)
	}

	result := &QueryResult{Columns: cols, Rows: make([]map[string]any, 0, 16)}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("dbpool: scan: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = normalizeValue(vals[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dbpool: row iteration: %w", err)
	}

	return result, nil
}

// normalizeValue converts driver-returned []byte (common for MySQL and
// SQLite text columns) into string so JSON serialization doesn't base64
// encode them.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Close closes the underlying connection pool.
func (g *Gateway) Close() error {
	return g.db.Close()
}

// Engine returns the gateway's backing engine.
func (g *Gateway) Engine() Engine {
	return g.engine
}
