package dbpool

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var csvTableNameSanitizer = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// openCSV implements the csv:// gateway variant: an embedded SQLite engine
// with one table per registered CSV file, named after the file's stem.
// All columns are loaded as TEXT; callers relying on numeric comparisons
// get them via SQLite's type-coercing comparison rules, matching how the
// reference CSV-as-SQL tool treats untyped columnar data.
func (m *DBManager) openCSV(opts OpenOptions) (*sql.DB, error) {
	if len(opts.CSVPaths) == 0 {
		return nil, fmt.Errorf("dbpool: csv engine requires at least one CSVPaths entry")
	}

	path := opts.Path
	if path == "" {
		path = ":memory:"
	}
	db, err := openSQLiteFile(m, path, OpenOptions{Mode: ModeReadWrite, MaxRetries: opts.MaxRetries, RetryBaseMs: opts.RetryBaseMs})
	if err != nil {
		return nil, fmt.Errorf("dbpool: failed to open embedded CSV engine: %w", err)
	}

	for _, csvPath := range opts.CSVPaths {
		if err := registerCSVTable(db, csvPath); err != nil {
			db.Close()
			return nil, fmt.Errorf("dbpool: failed to register CSV file %q: %w", csvPath, err)
		}
	}

	return db, nil
}

func registerCSVTable(db *sql.DB, csvPath string) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	header = append([]string(nil), header...)

	table := csvTableName(csvPath)
	dialect := NewDialect(EngineCSV)

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = dialect.QuoteIdent(sanitizeCSVColumn(h, i)) + " TEXT"
	}
	createSQL := fmt.Sprintf("CREATE TABLE %s (%s)", dialect.QuoteIdent(table), strings.Join(cols, ", "))
	if _, err := db.Exec(createSQL); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(header)), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO %s VALUES (%s)", dialect.QuoteIdent(table), placeholders)

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		args := make([]any, len(record))
		for i, v := range record {
			args[i] = v
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting row: %w", err)
		}
	}

	return tx.Commit()
}

// csvTableName derives a SQL-safe table name from a CSV file path's stem.
func csvTableName(csvPath string) string {
	base := filepath.Base(csvPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := csvTableNameSanitizer.ReplaceAllString(base, "_")
	if name == "" {
		name = "csv_table"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "t_" + name
	}
	return name
}

func sanitizeCSVColumn(h string, idx int) string {
	name := csvTableNameSanitizer.ReplaceAllString(strings.TrimSpace(h), "_")
	if name == "" {
		name = fmt.Sprintf("col_%d", idx)
	}
	return name
}
