package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"sqlsaber/internal/dbpool"
	"sqlsaber/internal/logging"
)

// dialectIntrospector is implemented once per supported engine. SQLite and
// CSV share the same implementation since CSV is SQLite underneath.
type dialectIntrospector interface {
	listTablesInfo(ctx context.Context, db *sql.DB) ([]TableRef, error)
	tablesMatching(ctx context.Context, db *sql.DB, pattern string) ([]TableRef, error)
	columnsInfo(ctx context.Context, db *sql.DB, tables []TableRef) (map[string]map[string]ColumnInfo, error)
	primaryKeysInfo(ctx context.Context, db *sql.DB, tables []TableRef) (map[string][]string, error)
	foreignKeysInfo(ctx context.Context, db *sql.DB, tables []TableRef) (map[string][]ForeignKey, error)
}

// Introspector extracts schema metadata from one live database connection,
// with a TTL cache pinned to this instance (spec §4.2 / §9: "avoid a
// global cache; pin to the gateway").
type Introspector struct {
	db     *sql.DB
	dialer dialectIntrospector
	cache  *cache
	log    *logging.Logger
}

// New builds an Introspector for the given engine and open connection.
// cacheTTL <= 0 uses the default of 15 minutes (spec §3 SchemaInfo
// lifecycle default).
func New(engine dbpool.Engine, db *sql.DB, cacheTTL time.Duration, log *logging.Logger) (*Introspector, error) {
	if log == nil {
		log = logging.NewNop()
	}
	var dialer dialectIntrospector
	switch engine {
	case dbpool.EnginePostgres:
		dialer = postgresIntrospector{}
	case dbpool.EngineMySQL:
		dialer = mysqlIntrospector{}
	case dbpool.EngineSQLite, dbpool.EngineCSV:
		dialer = sqliteIntrospector{}
	default:
		return nil, fmt.Errorf("introspect: unsupported engine %q", engine)
	}
	return &Introspector{db: db, dialer: dialer, cache: newCache(cacheTTL), log: log}, nil
}

// ListTables returns every user table/view, excluding system schemas.
func (in *Introspector) ListTables(ctx context.Context) (*TableListing, error) {
	key := cacheKey{kind: "list_tables"}
	if v, ok := in.cache.get(key); ok {
		in.log.Debugf("introspect: list_tables cache hit")
		listing := v.(TableListing)
		return &listing, nil
	}

	tables, err := in.dialer.listTablesInfo(ctx, in.db)
	if err != nil {
		return nil, fmt.Errorf("introspect: list_tables: %w", err)
	}
	tables = filterSystemSchemas(tables)

	listing := TableListing{Tables: tables, Total: len(tables)}
	in.cache.set(key, listing)
	return &listing, nil
}

// GetSchema returns full column/PK/FK metadata for tables matching pattern.
// An empty pattern matches all user tables. Pattern semantics per spec
// §4.2: "schema.table" filters on both parts; a bare "table" filters on
// the table name or the schema.table composite.
func (in *Introspector) GetSchema(ctx context.Context, pattern string) (SchemaInfo, error) {
	normalizedPattern := pattern
	if normalizedPattern == "" {
		normalizedPattern = "all"
	}
	key := cacheKey{kind: "schema", pattern: normalizedPattern}
	if v, ok := in.cache.get(key); ok {
		in.log.Debugf("introspect: schema cache hit for pattern %q", normalizedPattern)
		return v.(SchemaInfo), nil
	}

	var tables []TableRef
	var err error
	if pattern == "" {
		tables, err = in.dialer.listTablesInfo(ctx, in.db)
	} else {
		tables, err = in.dialer.tablesMatching(ctx, in.db, pattern)
	}
	if err != nil {
		return nil, fmt.Errorf("introspect: matching tables: %w", err)
	}
	tables = filterSystemSchemas(tables)

	cols, err := in.dialer.columnsInfo(ctx, in.db, tables)
	if err != nil {
		return nil, fmt.Errorf("introspect: columns: %w", err)
	}
	pks, err := in.dialer.primaryKeysInfo(ctx, in.db, tables)
	if err != nil {
		return nil, fmt.Errorf("introspect: primary keys: %w", err)
	}
	fks, err := in.dialer.foreignKeysInfo(ctx, in.db, tables)
	if err != nil {
		return nil, fmt.Errorf("introspect: foreign keys: %w", err)
	}

	info := make(SchemaInfo, len(tables))
	for _, t := range tables {
		info[t.FullName] = &TableSchema{
			Schema:      t.Schema,
			Name:        t.Name,
			Kind:        t.Kind,
			Columns:     cols[t.FullName],
			PrimaryKeys: pks[t.FullName],
			ForeignKeys: fks[t.FullName],
		}
	}

	in.cache.set(key, info)
	return info, nil
}

// ClearCache drops every cached entry for this introspector.
func (in *Introspector) ClearCache() {
	in.cache.clear()
}

func filterSystemSchemas(tables []TableRef) []TableRef {
	out := make([]TableRef, 0, len(tables))
	for _, t := range tables {
		if systemSchemas[strings.ToLower(t.Schema)] {
			continue
		}
		if strings.HasPrefix(t.Name, "sqlite_") {
			continue
		}
		out = append(out, t)
	}
	return out
}

// splitPattern splits a "schema.table" pattern into its two parts. A bare
// pattern with no dot returns ("", pattern).
func splitPattern(pattern string) (schemaPart, tablePart string) {
	if idx := strings.Index(pattern, "."); idx >= 0 {
		return pattern[:idx], pattern[idx+1:]
	}
	return "", pattern
}

// likePattern returns fragment unchanged for use as a SQL LIKE pattern:
// % and _ act as LIKE wildcards, and no glob syntax (such as *) is
// translated.
func likePattern(fragment string) string {
	return fragment
}
