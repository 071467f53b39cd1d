package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sqlsaber/internal/knowledge"
	"sqlsaber/internal/logging"
)

func TestSearchKnowledgeToolFindsSavedEntry(t *testing.T) {
	store, err := knowledge.Open(filepath.Join(t.TempDir(), "knowledge.db"), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.Add(context.Background(), "analytics_db", "monthly_churn", "monthly churn by cohort", "SELECT 1", "user")
	require.NoError(t, err)

	tool := &SearchKnowledgeTool{deps: Deps{Knowledge: store, DatabaseName: "analytics_db"}}
	out, err := tool.InvokableRun(context.Background(), `{"query": "churn"}`)
	require.NoError(t, err)
	require.Contains(t, out, "monthly_churn")
}

func TestSearchKnowledgeToolMissingStoreReturnsEmptyList(t *testing.T) {
	tool := &SearchKnowledgeTool{deps: Deps{DatabaseName: "analytics_db"}}
	out, err := tool.InvokableRun(context.Background(), `{"query": "anything"}`)
	require.NoError(t, err)
	require.Equal(t, "[]", out)
}
