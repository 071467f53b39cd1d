// Package knowledge implements a per-database, FTS5-indexed store of named
// knowledge entries (free text plus an optional SQL snippet), grounded on
// the reference sqlite_store.py implementation's schema and search
// fallback behavior.
package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"sqlsaber/internal/logging"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS knowledge (
	id TEXT PRIMARY KEY,
	database_name TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	sql TEXT,
	source TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_knowledge_database_name ON knowledge(database_name);
CREATE INDEX IF NOT EXISTS idx_knowledge_database_updated ON knowledge(database_name, updated_at DESC);

CREATE VIRTUAL TABLE IF NOT EXISTS knowledge_fts USING fts5(
	name, description, sql,
	content='knowledge', content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS knowledge_ai AFTER INSERT ON knowledge BEGIN
	INSERT INTO knowledge_fts(rowid, name, description, sql) VALUES (new.rowid, new.name, new.description, new.sql);
END;

CREATE TRIGGER IF NOT EXISTS knowledge_ad AFTER DELETE ON knowledge BEGIN
	INSERT INTO knowledge_fts(knowledge_fts, rowid, name, description, sql) VALUES ('delete', old.rowid, old.name, old.description, old.sql);
END;

CREATE TRIGGER IF NOT EXISTS knowledge_au AFTER UPDATE ON knowledge BEGIN
	INSERT INTO knowledge_fts(knowledge_fts, rowid, name, description, sql) VALUES ('delete', old.rowid, old.name, old.description, old.sql);
	INSERT INTO knowledge_fts(rowid, name, description, sql) VALUES (new.rowid, new.name, new.description, new.sql);
END;
`

// Entry is a KnowledgeEntry (spec §3): unique by (database_name, id).
type Entry struct {
	ID           string `json:"id"`
	DatabaseName string `json:"database_name"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	SQL          string `json:"sql,omitempty"`
	Source       string `json:"source,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// Store is a single-file SQLite knowledge store shared across databases,
// scoped per row by database_name.
type Store struct {
	db   *sql.DB
	log  *logging.Logger
	path string
}

// Open creates (if needed) and opens the knowledge store at path, applying
// the idempotent schema, a legacy-FTS-rebuild check, and POSIX-only
// secure file permissions (spec §4.7).
func Open(path string, log *logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.NewNop()
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("knowledge: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("knowledge: schema init: %w", err)
	}

	s := &Store{db: db, log: log, path: path}
	if err := s.maybeRebuildFTSIndex(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	setSecurePermissions(path, log)

	return s, nil
}

// needsFTSRebuild detects a legacy database where the base table has rows
// but the FTS shadow table is empty — the migration path named in spec
// §4.7's durability clause.
func (s *Store) needsFTSRebuild(ctx context.Context) (bool, error) {
	var baseCount, ftsCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM knowledge").Scan(&baseCount); err != nil {
		return false, err
	}
	if baseCount == 0 {
		return false, nil
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM knowledge_fts").Scan(&ftsCount); err != nil {
		return false, err
	}
	return ftsCount == 0, nil
}

func (s *Store) maybeRebuildFTSIndex(ctx context.Context) error {
	needs, err := s.needsFTSRebuild(ctx)
	if err != nil {
		return fmt.Errorf("knowledge: rebuild check: %w", err)
	}
	if !needs {
		return nil
	}
	s.log.Warnf("knowledge: rebuilding FTS index for legacy database %s", s.path)
	if _, err := s.db.ExecContext(ctx, "INSERT INTO knowledge_fts(knowledge_fts) VALUES ('rebuild')"); err != nil {
		return fmt.Errorf("knowledge: fts rebuild: %w", err)
	}
	return nil
}

// setSecurePermissions chmods the DB file 0600 and its parent directory
// 0700 on POSIX systems, silently ignoring errors (matches the reference
// implementation swallowing OSError/PermissionError).
func setSecurePermissions(path string, log *logging.Logger) {
	if runtime.GOOS == "windows" {
		return
	}
	if err := os.Chmod(path, 0o600); err != nil {
		log.Debugf("knowledge: could not chmod %s: %v", path, err)
	}
	dir := dirOf(path)
	if dir != "" {
		if err := os.Chmod(dir, 0o700); err != nil {
			log.Debugf("knowledge: could not chmod dir %s: %v", dir, err)
		}
	}
}

func dirOf(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add inserts a new knowledge entry. name and description must be
// non-empty after trimming (spec §3).
func (s *Store) Add(ctx context.Context, databaseName, name, description, sqlSnippet, source string) (*Entry, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" || description == "" {
		return nil, fmt.Errorf("knowledge: name and description are required")
	}

	now := timestamp()
	entry := &Entry{
		ID:           uuid.NewString(),
		DatabaseName: databaseName,
		Name:         name,
		Description:  description,
		SQL:          sqlSnippet,
		Source:       source,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO knowledge (id, database_name, name, description, sql, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.DatabaseName, entry.Name, entry.Description, nullable(entry.SQL), nullable(entry.Source), entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("knowledge: add: %w", err)
	}
	return entry, nil
}

// Get fetches a single entry by id, scoped to databaseName.
func (s *Store) Get(ctx context.Context, databaseName, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, database_name, name, description, sql, source, created_at, updated_at
		FROM knowledge WHERE database_name = ? AND id = ?`, databaseName, id)
	return scanEntry(row)
}

// Update mutates name/description/sql/source, bumping updated_at.
func (s *Store) Update(ctx context.Context, databaseName, id string, name, description, sqlSnippet, source *string) (*Entry, error) {
	existing, err := s.Get(ctx, databaseName, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("knowledge: entry %s not found", id)
	}
	if name != nil {
		existing.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		existing.Description = strings.TrimSpace(*description)
	}
	if sqlSnippet != nil {
		existing.SQL = *sqlSnippet
	}
	if source != nil {
		existing.Source = *source
	}
	if existing.Name == "" || existing.Description == "" {
		return nil, fmt.Errorf("knowledge: name and description are required")
	}
	existing.UpdatedAt = timestamp()

	_, err = s.db.ExecContext(ctx, `
		UPDATE knowledge SET name=?, description=?, sql=?, source=?, updated_at=?
		WHERE database_name=? AND id=?`,
		existing.Name, existing.Description, nullable(existing.SQL), nullable(existing.Source), existing.UpdatedAt,
		databaseName, id)
	if err != nil {
		return nil, fmt.Errorf("knowledge: update: %w", err)
	}
	return existing, nil
}

// Remove deletes one entry.
func (s *Store) Remove(ctx context.Context, databaseName, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM knowledge WHERE database_name=? AND id=?`, databaseName, id)
	if err != nil {
		return fmt.Errorf("knowledge: remove: %w", err)
	}
	return nil
}

// Clear deletes all entries for a database.
func (s *Store) Clear(ctx context.Context, databaseName string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM knowledge WHERE database_name=?`, databaseName)
	if err != nil {
		return fmt.Errorf("knowledge: clear: %w", err)
	}
	return nil
}

// ListAll returns every entry for a database, most recently updated first.
func (s *Store) ListAll(ctx context.Context, databaseName string) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, database_name, name, description, sql, source, created_at, updated_at
		FROM knowledge WHERE database_name = ? ORDER BY updated_at DESC`, databaseName)
	if err != nil {
		return nil, fmt.Errorf("knowledge: list_all: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntryRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Search runs a full-text query scoped to databaseName, ranked by BM25
// then updated_at descending, falling back to a quoted-token OR query on
// FTS syntax errors and to an empty result if that also fails (spec
// §4.7). Empty/whitespace queries return an empty result without
// touching the index.
func (s *Store) Search(ctx context.Context, databaseName, query string, limit int) ([]*Entry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	ftsQuery := prepareFTSQuery(query)
	results, err := s.runFTSQuery(ctx, databaseName, ftsQuery, limit)
	if err == nil {
		return results, nil
	}
	s.log.Debugf("knowledge: fts query %q failed (%v), falling back to quoted-token query", ftsQuery, err)

	fallback := quotedTokenQuery(query)
	results, err = s.runFTSQuery(ctx, databaseName, fallback, limit)
	if err != nil {
		s.log.Debugf("knowledge: fallback fts query %q also failed (%v)", fallback, err)
		return nil, nil
	}
	return results, nil
}

func (s *Store) runFTSQuery(ctx context.Context, databaseName, ftsQuery string, limit int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT k.id, k.database_name, k.name, k.description, k.sql, k.source, k.created_at, k.updated_at
		FROM knowledge k
		JOIN knowledge_fts ON k.rowid = knowledge_fts.rowid
		WHERE k.database_name = ? AND knowledge_fts MATCH ?
		ORDER BY bm25(knowledge_fts), k.updated_at DESC
		LIMIT ?`, databaseName, ftsQuery, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntryRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

var ftsOperatorPattern = regexp.MustCompile(`(?i)\s(AND|OR|NOT|NEAR)\s|["()]`)

// prepareFTSQuery passes queries that already contain FTS operators
// through verbatim; otherwise joins whitespace-separated tokens with OR.
// A single token is passed through raw.
func prepareFTSQuery(query string) string {
	if ftsOperatorPattern.MatchString(query) {
		return query
	}
	tokens := strings.Fields(query)
	if len(tokens) <= 1 {
		return query
	}
	return strings.Join(tokens, " OR ")
}

// quotedTokenQuery wraps each token in quotes (stripping embedded quotes)
// and joins with OR, as the fallback when the free-form query fails to
// parse as FTS5 syntax.
func quotedTokenQuery(query string) string {
	tokens := strings.Fields(query)
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(tok, `"`, "") + `"`
	}
	return strings.Join(quoted, " OR ")
}

func scanEntry(row *sql.Row) (*Entry, error) {
	var e Entry
	var sqlVal, source sql.NullString
	if err := row.Scan(&e.ID, &e.DatabaseName, &e.Name, &e.Description, &sqlVal, &source, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("knowledge: scan: %w", err)
	}
	e.SQL = sqlVal.String
	e.Source = source.String
	return &e, nil
}

func scanEntryRows(rows *sql.Rows) (*Entry, error) {
	var e Entry
	var sqlVal, source sql.NullString
	if err := rows.Scan(&e.ID, &e.DatabaseName, &e.Name, &e.Description, &sqlVal, &source, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, fmt.Errorf("knowledge: scan: %w", err)
	}
	e.SQL = sqlVal.String
	e.Source = source.String
	return &e, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
