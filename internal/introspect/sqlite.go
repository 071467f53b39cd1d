package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// sqliteIntrospector reads metadata via PRAGMA statements and
// sqlite_master, shared by the SQLite and CSV-as-SQL gateway variants
// (CSV is an embedded SQLite database under the hood — spec §9).
// SQLite has a single implicit schema, reported as "main" so full names
// read "main.<table>" consistently with the other dialects.
type sqliteIntrospector struct{}

func (sqliteIntrospector) listTablesInfo(ctx context.Context, db *sql.DB) ([]TableRef, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, type FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSQLiteTables(rows)
}

func scanSQLiteTables(rows *sql.Rows) ([]TableRef, error) {
	var out []TableRef
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return nil, err
		}
		out = append(out, TableRef{Schema: "main", Name: name, FullName: "main." + name, Kind: kind})
	}
	return out, rows.Err()
}

func (s sqliteIntrospector) tablesMatching(ctx context.Context, db *sql.DB, pattern string) ([]TableRef, error) {
	_, tablePart := splitPattern(pattern)
	rows, err := db.QueryContext(ctx, `
		SELECT name, type FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		  AND name LIKE ?
		ORDER BY name`, likePattern(tablePart))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSQLiteTables(rows)
}

func (sqliteIntrospector) columnsInfo(ctx context.Context, db *sql.DB, tables []TableRef) (map[string]map[string]ColumnInfo, error) {
	result := make(map[string]map[string]ColumnInfo, len(tables))
	for _, t := range tables {
		rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteSQLiteIdent(t.Name)))
		if err != nil {
			return nil, fmt.Errorf("table_info(%s): %w", t.Name, err)
		}
		cols := make(map[string]ColumnInfo)
		for rows.Next() {
			var cid int
			var name, colType string
			var notNull int
			var dflt sql.NullString
			var pk int
			if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
				rows.Close()
				return nil, err
			}
			cols[name] = ColumnInfo{Type: colType, Nullable: notNull == 0, Default: dflt.String}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
		result[t.FullName] = cols
	}
	return result, nil
}

func (sqliteIntrospector) primaryKeysInfo(ctx context.Context, db *sql.DB, tables []TableRef) (map[string][]string, error) {
	result := make(map[string][]string, len(tables))
	for _, t := range tables {
		rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteSQLiteIdent(t.Name)))
		if err != nil {
			return nil, fmt.Errorf("table_info(%s): %w", t.Name, err)
		}
		type pkCol struct {
			name string
			pos  int
		}
		var pkCols []pkCol
		for rows.Next() {
			var cid int
			var name, colType string
			var notNull int
			var dflt sql.NullString
			var pk int
			if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
				rows.Close()
				return nil, err
			}
			if pk > 0 {
				pkCols = append(pkCols, pkCol{name: name, pos: pk})
			}
		}
		rows.Close()
		// pk column in PRAGMA table_info is 1-indexed ordinal within the key.
		cols := make([]string, len(pkCols))
		for _, c := range pkCols {
			if c.pos-1 >= 0 && c.pos-1 < len(cols) {
				cols[c.pos-1] = c.name
			}
		}
		if len(cols) > 0 {
			result[t.FullName] = cols
		}
	}
	return result, nil
}

func (sqliteIntrospector) foreignKeysInfo(ctx context.Context, db *sql.DB, tables []TableRef) (map[string][]ForeignKey, error) {
	result := make(map[string][]ForeignKey, len(tables))
	for _, t := range tables {
		rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteSQLiteIdent(t.Name)))
		if err != nil {
			return nil, fmt.Errorf("foreign_key_list(%s): %w", t.Name, err)
		}
		var fks []ForeignKey
		for rows.Next() {
			var id, seq int
			var refTable, from, to string
			var onUpdate, onDelete, match string
			if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
				rows.Close()
				return nil, err
			}
			fk := ForeignKey{Column: from}
			fk.References.Table = "main." + refTable
			fk.References.Column = to
			fks = append(fks, fk)
		}
		rows.Close()
		if len(fks) > 0 {
			result[t.FullName] = fks
		}
	}
	return result, nil
}

func quoteSQLiteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
