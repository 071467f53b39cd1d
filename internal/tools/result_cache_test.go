package tools

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResultCacheStoreAndGet(t *testing.T) {
	c := NewResultCache()
	c.Store("call_1", "SELECT 1", []map[string]any{{"n": int64(1)}})

	got, ok := c.Get(Handle("call_1"))
	require.True(t, ok)
	require.Equal(t, "SELECT 1", got.Query)
	require.Len(t, got.Rows, 1)
}

func TestResultCacheMissingHandle(t *testing.T) {
	c := NewResultCache()
	_, ok := c.Get("result_does_not_exist.json")
	require.False(t, ok)
}

func TestValidHandle(t *testing.T) {
	require.True(t, ValidHandle("result_abc-123.json"))
	require.False(t, ValidHandle("abc.json"))
	require.False(t, ValidHandle("result_abc/../etc.json"))
}
