package dbpool

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ParseConnectionString dispatches a connection string to the matching
// OpenOptions: postgresql://, mysql://, sqlite:///path (including
// sqlite:///:memory:), csv:///path.csv (repeatable via
// comma-separated paths), or a bare file path dispatched by extension.
func ParseConnectionString(connStr string) (OpenOptions, error) {
	switch {
	case strings.HasPrefix(connStr, "postgresql://"), strings.HasPrefix(connStr, "postgres://"):
		return OpenOptions{Engine: EnginePostgres, Path: connStr}, nil

	case strings.HasPrefix(connStr, "mysql://"):
		return OpenOptions{Engine: EngineMySQL, Path: strings.TrimPrefix(connStr, "mysql://")}, nil

	case strings.HasPrefix(connStr, "sqlite://"):
		path := strings.TrimPrefix(connStr, "sqlite://")
		path = strings.TrimPrefix(path, "/")
		if path == "" || path == ":memory:" {
			path = ":memory:"
		}
		return OpenOptions{Engine: EngineSQLite, Path: path}, nil

	case strings.HasPrefix(connStr, "csv://"):
		raw := strings.TrimPrefix(connStr, "csv://")
		raw = strings.TrimPrefix(raw, "/")
		paths := strings.Split(raw, ",")
		for i := range paths {
			paths[i] = strings.TrimSpace(paths[i])
		}
		return OpenOptions{Engine: EngineCSV, Path: ":memory:", CSVPaths: paths}, nil

	default:
		return parseByExtension(connStr)
	}
}

func parseByExtension(path string) (OpenOptions, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return OpenOptions{Engine: EngineCSV, Path: ":memory:", CSVPaths: []string{path}}, nil
	case ".db", ".sqlite", ".sqlite3":
		return OpenOptions{Engine: EngineSQLite, Path: path}, nil
	default:
		return OpenOptions{}, fmt.Errorf("dbpool: cannot infer engine from connection string %q", path)
	}
}
