package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// postgresIntrospector reads table/column/key metadata from
// information_schema, grounded on the reference Python introspector's
// PostgreSQLSchemaIntrospector (constraint_column_usage joins for FKs).
type postgresIntrospector struct{}

func (postgresIntrospector) listTablesInfo(ctx context.Context, db *sql.DB) ([]TableRef, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_schema, table_name, table_type
		FROM information_schema.tables
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY table_schema, table_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TableRef
	for rows.Next() {
		var schema, name, tableType string
		if err := rows.Scan(&schema, &name, &tableType); err != nil {
			return nil, err
		}
		out = append(out, TableRef{
			Schema:   schema,
			Name:     name,
			FullName: schema + "." + name,
			Kind:     tableKindFromPostgres(tableType),
		})
	}
	return out, rows.Err()
}

func tableKindFromPostgres(tableType string) string {
	if strings.Contains(strings.ToUpper(tableType), "VIEW") {
		return "view"
	}
	return "table"
}

func (p postgresIntrospector) tablesMatching(ctx context.Context, db *sql.DB, pattern string) ([]TableRef, error) {
	schemaPart, tablePart := splitPattern(pattern)

	var rows *sql.Rows
	var err error
	if schemaPart != "" {
		rows, err = db.QueryContext(ctx, `
			SELECT table_schema, table_name, table_type
			FROM information_schema.tables
			WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
			  AND table_schema LIKE $1 AND table_name LIKE $2
			ORDER BY table_schema, table_name`, likePattern(schemaPart), likePattern(tablePart))
	} else {
		combined := likePattern(pattern)
		rows, err = db.QueryContext(ctx, `
			SELECT table_schema, table_name, table_type
			FROM information_schema.tables
			WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
			  AND (table_name LIKE $1 OR (table_schema || '.' || table_name) LIKE $1)
			ORDER BY table_schema, table_name`, combined)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TableRef
	for rows.Next() {
		var schema, name, tableType string
		if err := rows.Scan(&schema, &name, &tableType); err != nil {
			return nil, err
		}
		out = append(out, TableRef{
			Schema:   schema,
			Name:     name,
			FullName: schema + "." + name,
			Kind:     tableKindFromPostgres(tableType),
		})
	}
	return out, rows.Err()
}

func (postgresIntrospector) columnsInfo(ctx context.Context, db *sql.DB, tables []TableRef) (map[string]map[string]ColumnInfo, error) {
	result := make(map[string]map[string]ColumnInfo, len(tables))
	if len(tables) == 0 {
		return result, nil
	}

	args, placeholders := inListArgs(tables, 1)
	query := fmt.Sprintf(`
		SELECT table_schema, table_name, column_name, data_type, is_nullable,
		       column_default, character_maximum_length, numeric_precision, numeric_scale
		FROM information_schema.columns
		WHERE (table_schema || '.' || table_name) IN (%s)
		ORDER BY table_schema, table_name, ordinal_position`, placeholders)

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

func (postgresIntrospector) primaryKeysInfo(ctx context.Context, db *sql.DB, tables []TableRef) (map[string][]string, error) {
	result := make(map[string][]string, len(tables))
	if len(tables) == 0 {
		return result, nil
	}

	args, placeholders := inListArgs(tables, 1)
	query := fmt.Sprintf(`
		SELECT tc.table_schema, tc.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND (tc.table_schema || '.' || tc.table_name) IN (%s)
		ORDER BY kcu.ordinal_position`, placeholders)

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

func (postgresIntrospector) foreignKeysInfo(ctx context.Context, db *sql.DB, tables []TableRef) (map[string][]ForeignKey, error) {
	result := make(map[string][]ForeignKey, len(tables))
	if len(tables) == 0 {
		return result, nil
	}

	args, placeholders := inListArgs(tables, 1)
	query := fmt.Sprintf(`
		SELECT tc.table_schema, tc.table_name, kcu.column_name,
		       ccu.table_schema, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND (tc.table_schema || '.' || tc.table_name) IN (%s)`, placeholders)

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

// inListArgs builds a parameterized IN-list from table full names, starting
// placeholder numbering at startIdx (Postgres uses $N placeholders).
func inListArgs(tables []TableRef, startIdx int) ([]any, string) {
	args := make([]any, len(tables))
	placeholders := make([]string, len(tables))
	for i, t := range tables {
		args[i] = t.FullName
		placeholders[i] = fmt.Sprintf("$%d", startIdx+i)
	}
	return args, strings.Join(placeholders, ", ")
}
