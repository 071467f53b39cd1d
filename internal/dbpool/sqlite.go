package dbpool

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// openSQLite opens a SQLite database with retry logic for SQLITE_BUSY.
// Uses WAL mode for better concurrency even though the pool is pinned to a
// single connection (see configurePool).
//
// NOTE: the application must import "modernc.org/sqlite" (registered
// driver name "sqlite").
func (m *DBManager) openSQLite(opts OpenOptions) (*sql.DB, error) {
	return openSQLiteFile(m, opts.Path, opts)
}

func openSQLiteFile(m *DBManager, path string, opts OpenOptions) (*sql.DB, error) {
	maxRetries, baseMs := retryParams(opts)

	connStr := path
	params := "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if opts.Mode == ModeReadOnly {
		params += "&mode=ro"
	}
	connStr += params

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		db, err := sql.Open("sqlite", connStr)
		if err != nil {
			lastErr = err
			m.log.Warnf("[dbpool] SQLite open attempt %d/%d failed: %v", i+1, maxRetries, err)
			if maxRetries > 1 {
				time.Sleep(time.Duration(baseMs*(i+1)) * time.Millisecond)
			}
			continue
		}

		if err := db.Ping(); err != nil {
			db.Close()
			lastErr = err
			m.log.Warnf("[dbpool] SQLite ping attempt %d/%d failed: %v", i+1, maxRetries, err)
			if maxRetries > 1 {
				time.Sleep(time.Duration(baseMs*(i+1)) * time.Millisecond)
			}
			continue
		}

		return db, nil
	}

	return nil, fmt.Errorf("dbpool: failed to open SQLite %q after %d retries: %w", path, maxRetries, lastErr)
}
