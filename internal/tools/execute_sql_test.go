package tools

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/require"

	"sqlsaber/internal/dbpool"
	"sqlsaber/internal/logging"
)

func openTestGateway(t *testing.T) *dbpool.Gateway {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT, price REAL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO widgets (id, name, price) VALUES (1, 'sprocket', 9.5), (2, 'gizmo', 14.25)`)
	require.NoError(t, err)

	return dbpool.NewGateway(db, dbpool.EngineSQLite, logging.NewNop())
}

func TestExecuteSQLRunsSelect(t *testing.T) {
	deps := Deps{Gateway: openTestGateway(t), DefaultLimit: 1000}
	tool := NewExecuteSQLTool(deps)

	out, err := tool.InvokableRun(context.Background(), `{"query": "SELECT name FROM widgets ORDER BY id"}`)
	require.NoError(t, err)
	require.Contains(t, out, "sprocket")
	require.Contains(t, out, "gizmo")
	require.Contains(t, out, `"success":true`)
	require.Contains(t, out, `"row_count":2`)
	require.Contains(t, out, `"truncated":false`)
}

func TestExecuteSQLRefusesWriteWithoutDangerousMode(t *testing.T) {
	deps := Deps{Gateway: openTestGateway(t), DefaultLimit: 1000}
	tool := NewExecuteSQLTool(deps)

	_, err := tool.InvokableRun(context.Background(), `{"query": "DELETE FROM widgets"}`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "refusing")
}

func TestExecuteSQLAllowsWriteInDangerousModeAndStillRollsBack(t *testing.T) {
	gw := openTestGateway(t)
	deps := Deps{Gateway: gw, DefaultLimit: 1000, AllowDangerous: true}
	tool := NewExecuteSQLTool(deps)

	_, err := tool.InvokableRun(context.Background(), `{"query": "DELETE FROM widgets WHERE id = 1"}`)
	require.NoError(t, err)

	// Rollback isolation: a later SELECT still sees both rows.
	out, err := tool.InvokableRun(context.Background(), `{"query": "SELECT COUNT(*) AS n FROM widgets"}`)
	require.NoError(t, err)
	require.Contains(t, out, `"n":2`)
}

func TestExecuteSQLInjectsDefaultLimit(t *testing.T) {
	query, injected, limit := applyDefaultLimit("SELECT * FROM widgets", 5)
	require.Contains(t, query, "LIMIT 5")
	require.True(t, injected)
	require.Equal(t, 5, limit)
}

func TestExecuteSQLDoesNotDoubleLimit(t *testing.T) {
	query, injected, _ := applyDefaultLimit("SELECT * FROM widgets LIMIT 1;", 5)
	require.Equal(t, "SELECT * FROM widgets LIMIT 1", query)
	require.False(t, injected)
}

func TestExecuteSQLPerCallLimitOverridesDefault(t *testing.T) {
	deps := Deps{Gateway: openTestGateway(t), DefaultLimit: 1000}
	tool := NewExecuteSQLTool(deps)

	out, err := tool.InvokableRun(context.Background(), `{"query": "SELECT * FROM widgets", "limit": 1}`)
	require.NoError(t, err)
	require.Contains(t, out, `"row_count":1`)
	require.Contains(t, out, `"truncated":true`)
}

func TestExecuteSQLNotTruncatedWhenRowsBelowLimit(t *testing.T) {
	deps := Deps{Gateway: openTestGateway(t), DefaultLimit: 1000}
	tool := NewExecuteSQLTool(deps)

	out, err := tool.InvokableRun(context.Background(), `{"query": "SELECT * FROM widgets", "limit": 50}`)
	require.NoError(t, err)
	require.Contains(t, out, `"row_count":2`)
	require.Contains(t, out, `"truncated":false`)
}

func TestExecuteSQLStoresResultUnderToolCallHandle(t *testing.T) {
	cache := NewResultCache()
	deps := Deps{Gateway: openTestGateway(t), DefaultLimit: 1000, Results: cache}
	tool := NewExecuteSQLTool(deps)

	ctx := WithToolCallID(context.Background(), "call_1")
	_, err := tool.InvokableRun(ctx, `{"query": "SELECT id FROM widgets ORDER BY id"}`)
	require.NoError(t, err)

	cached, ok := cache.Get(Handle("call_1"))
	require.True(t, ok)
	require.Len(t, cached.Rows, 2)
}
