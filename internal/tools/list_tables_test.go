package tools

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/require"

	"sqlsaber/internal/dbpool"
	"sqlsaber/internal/introspect"
	"sqlsaber/internal/logging"
)

func openTestIntrospector(t *testing.T) *introspect.Introspector {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	in, err := introspect.New(dbpool.EngineSQLite, db, time.Minute, logging.NewNop())
	require.NoError(t, err)
	return in
}

func TestListTablesToolReturnsTables(t *testing.T) {
	deps := Deps{Introspector: openTestIntrospector(t)}
	tool := &ListTablesTool{deps: deps}

	out, err := tool.InvokableRun(context.Background(), "")
	require.NoError(t, err)
	require.Contains(t, out, "customers")
}
