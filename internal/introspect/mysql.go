package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// mysqlIntrospector reads metadata from information_schema, grounded on
// the reference Python introspector's MySQLSchemaIntrospector (FK query
// joins key_column_usage with referential_constraints on constraint
// schema/name and reads the referenced table/column from
// key_column_usage's referenced_* columns).
type mysqlIntrospector struct{}

func (mysqlIntrospector) listTablesInfo(ctx context.Context, db *sql.DB) ([]TableRef, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_schema, table_name, table_type
		FROM information_schema.tables
		WHERE table_schema NOT IN ('information_schema', 'performance_schema', 'mysql', 'sys')
		ORDER BY table_schema, table_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMySQLTables(rows)
}

func scanMySQLTables(rows *sql.Rows) ([]TableRef, error) {
	var out []TableRef
	for rows.Next() {
		var schema, name, tableType string
		if err := rows.Scan(&schema, &name, &tableType); err != nil {
			return nil, err
		}
		kind := "table"
		if strings.Contains(strings.ToUpper(tableType), "VIEW") {
			kind = "view"
		}
		out = append(out, TableRef{Schema: schema, Name: name, FullName: schema + "." + name, Kind: kind})
	}
	return out, rows.Err()
}

func (m mysqlIntrospector) tablesMatching(ctx context.Context, db *sql.DB, pattern string) ([]TableRef, error) {
	schemaPart, tablePart := splitPattern(pattern)

	var rows *sql.Rows
	var err error
	if schemaPart != "" {
		rows, err = db.QueryContext(ctx, `
			SELECT table_schema, table_name, table_type
			FROM information_schema.tables
			WHERE table_schema NOT IN ('information_schema', 'performance_schema', 'mysql', 'sys')
			  AND table_schema LIKE ? AND table_name LIKE ?
			ORDER BY table_schema, table_name`, likePattern(schemaPart), likePattern(tablePart))
	} else {
		combined := likePattern(pattern)
		rows, err = db.QueryContext(ctx, `
			SELECT table_schema, table_name, table_type
			FROM information_schema.tables
			WHERE table_schema NOT IN ('information_schema', 'performance_schema', 'mysql', 'sys')
			  AND (table_name LIKE ? OR CONCAT(table_schema, '.', table_name) LIKE ?)
			ORDER BY table_schema, table_name`, combined, combined)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMySQLTables(rows)
}

func (mysqlIntrospector) columnsInfo(ctx context.Context, db *sql.DB, tables []TableRef) (map[string]map[string]ColumnInfo, error) {
	result := make(map[string]map[string]ColumnInfo, len(tables))
	if len(tables) == 0 {
		return result, nil
	}

	args, placeholders, pairPlaceholders := mysqlPairArgs(tables)
	_ = placeholders
	query := fmt.Sprintf(`
		SELECT table_schema, table_name, column_name, data_type, is_nullable,
		       column_default, character_maximum_length, numeric_precision, numeric_scale
		FROM information_schema.columns
		WHERE (table_schema, table_name) IN (%s)
		ORDER BY table_schema, table_name, ordinal_position`, pairPlaceholders)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var schema, table, col, dataType, isNullable string
		var def sql.NullString
		var maxLen, precision, scale sql.NullInt64
		if err := rows.Scan(&schema, &table, &col, &dataType, &isNullable, &def, &maxLen, &precision, &scale); err != nil {
			return nil, err
		}
		full := schema + "." + table
		if result[full] == nil {
			result[full] = make(map[string]ColumnInfo)
		}
		ci := ColumnInfo{Type: dataType, Nullable: isNullable == "YES", Default: def.String}
		if maxLen.Valid {
			v := int(maxLen.Int64)
			ci.MaxLength = &v
		}
		if precision.Valid {
			v := int(precision.Int64)
			ci.Precision = &v
		}
		if scale.Valid {
			v := int(scale.Int64)
			ci.Scale = &v
		}
		result[full][col] = ci
	}
	return result, rows.Err()
}

func (mysqlIntrospector) primaryKeysInfo(ctx context.Context, db *sql.DB, tables []TableRef) (map[string][]string, error) {
	result := make(map[string][]string, len(tables))
	if len(tables) == 0 {
		return result, nil
	}

	args, _, pairPlaceholders := mysqlPairArgs(tables)
	query := fmt.Sprintf(`
		SELECT tc.table_schema, tc.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		  AND tc.table_schema = kcu.table_schema
		  AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND (tc.table_schema, tc.table_name) IN (%s)
		ORDER BY kcu.ordinal_position`, pairPlaceholders)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var schema, table, col string
		if err := rows.Scan(&schema, &table, &col); err != nil {
			return nil, err
		}
		full := schema + "." + table
		result[full] = append(result[full], col)
	}
	return result, rows.Err()
}

func (mysqlIntrospector) foreignKeysInfo(ctx context.Context, db *sql.DB, tables []TableRef) (map[string][]ForeignKey, error) {
	result := make(map[string][]ForeignKey, len(tables))
	if len(tables) == 0 {
		return result, nil
	}

	args, _, pairPlaceholders := mysqlPairArgs(tables)
	query := fmt.Sprintf(`
		SELECT kcu.table_schema, kcu.table_name, kcu.column_name,
		       kcu.referenced_table_schema, kcu.referenced_table_name, kcu.referenced_column_name
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
		  ON kcu.constraint_name = rc.constraint_name
		  AND kcu.constraint_schema = rc.constraint_schema
		WHERE kcu.referenced_table_name IS NOT NULL
		  AND (kcu.table_schema, kcu.table_name) IN (%s)`, pairPlaceholders)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var schema, table, col, refSchema, refTable, refCol string
		if err := rows.Scan(&schema, &table, &col, &refSchema, &refTable, &refCol); err != nil {
			return nil, err
		}
		full := schema + "." + table
		fk := ForeignKey{Column: col}
		fk.References.Table = refSchema + "." + refTable
		fk.References.Column = refCol
		result[full] = append(result[full], fk)
	}
	return result, rows.Err()
}

// mysqlPairArgs builds the (schema, table) tuple IN-list MySQL needs since
// it has no "schema.table" string concatenation index to rely on cheaply.
func mysqlPairArgs(tables []TableRef) (args []any, flatPlaceholders string, pairPlaceholders string) {
	args = make([]any, 0, len(tables)*2)
	pairs := make([]string, len(tables))
	for i, t := range tables {
		args = append(args, t.Schema, t.Name)
		pairs[i] = "(?, ?)"
	}
	pairPlaceholders = strings.Join(pairs, ", ")
	return args, "", pairPlaceholders
}
