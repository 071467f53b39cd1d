package memory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAndFormatForPrompt(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "memories.json"))
	require.NoError(t, err)

	_, err = s.Add("sales_db", "revenue is recognized on invoice date, not payment date")
	require.NoError(t, err)
	_, err = s.Add("sales_db", "the orders table excludes refunded rows")
	require.NoError(t, err)

	formatted := s.FormatForPrompt("sales_db")
	require.Contains(t, formatted, "revenue is recognized")
	require.Contains(t, formatted, "excludes refunded rows")
}

func TestMemoryScopedPerDatabase(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "memories.json"))
	require.NoError(t, err)

	_, err = s.Add("db_a", "note for a")
	require.NoError(t, err)

	require.Empty(t, s.FormatForPrompt("db_b"))
	require.NotEmpty(t, s.FormatForPrompt("db_a"))
}

func TestLoadPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memories.json")

	s1, err := Open(path)
	require.NoError(t, err)
	_, err = s1.Add("db_a", "persisted note")
	require.NoError(t, err)

	s2, err := Open(path)
	require.NoError(t, err)
	require.Len(t, s2.List("db_a"), 1)
	require.Equal(t, "persisted note", s2.List("db_a")[0].Content)
}

func TestOpenMissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "does_not_exist.json"))
	require.NoError(t, err)
	require.Empty(t, s.List("db_a"))
}
