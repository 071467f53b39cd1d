package knowledge

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "knowledge.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndSearchScopedToDatabase(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, "db_a", "revenue definition", "monthly revenue is sum(total) grouped by month", "SELECT SUM(total) FROM orders", "")
	require.NoError(t, err)
	_, err = s.Add(ctx, "db_b", "revenue definition", "monthly revenue for db_b", "", "")
	require.NoError(t, err)

	results, err := s.Search(ctx, "db_a", "revenue", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "db_a", results[0].DatabaseName)
}

func TestSearchRanksAllTokenMatchesFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, "db_a", "churn cohort", "monthly active churn cohort analysis", "", "")
	require.NoError(t, err)
	_, err = s.Add(ctx, "db_a", "monthly report", "a monthly summary report", "", "")
	require.NoError(t, err)

	results, err := s.Search(ctx, "db_a", "monthly churn", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "churn cohort", results[0].Name)
}

func TestEmptyQueryReturnsEmpty(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.Add(ctx, "db_a", "n", "d", "", "")
	require.NoError(t, err)

	results, err := s.Search(ctx, "db_a", "   ", 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestUpdateAndRemove(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entry, err := s.Add(ctx, "db_a", "original", "original description", "", "")
	require.NoError(t, err)

	newName := "renamed"
	updated, err := s.Update(ctx, "db_a", entry.ID, &newName, nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Name)

	require.NoError(t, s.Remove(ctx, "db_a", entry.ID))
	fetched, err := s.Get(ctx, "db_a", entry.ID)
	require.NoError(t, err)
	require.Nil(t, fetched)
}

func TestAddRejectsEmptyNameOrDescription(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, "db_a", "  ", "description", "", "")
	require.Error(t, err)
	_, err = s.Add(ctx, "db_a", "name", "   ", "", "")
	require.Error(t, err)
}
