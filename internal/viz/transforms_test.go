package viz

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func rows(jsonRows string) []map[string]any {
	var out []map[string]any
	if err := json.Unmarshal([]byte(jsonRows), &out); err != nil {
		panic(err)
	}
	return out
}

func fieldValues(rows []map[string]any, field string) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r[field]
	}
	return out
}

func TestApplySortNumericDescWithNullsLast(t *testing.T) {
	data := rows(`[
		{"name":"a","score":3},
		{"name":"b","score":null},
		{"name":"c","score":10},
		{"name":"d","score":1}
	]`)

	out := applySort(data, []SortItem{{Field: "score", Dir: "desc"}})
	require.Equal(t, []any{10.0, 3.0, 1.0, nil}, fieldValues(out, "score"))
}

func TestApplySortMultiKeyReverseOrderPrecedence(t *testing.T) {
	data := rows(`[
		{"group":"x","value":2},
		{"group":"y","value":1},
		{"group":"x","value":1}
	]`)

	// sort=[{group,asc},{value,asc}]: value is applied first (last in the
	// list is applied first), then group — so group is the final,
	// dominant ordering.
	out := applySort(data, []SortItem{
		{Field: "group", Dir: "asc"},
		{Field: "value", Dir: "asc"},
	})
	require.Equal(t, []any{"x", "x", "y"}, fieldValues(out, "group"))
	require.Equal(t, []any{1.0, 2.0, 1.0}, fieldValues(out, "value"))
}

func TestApplyLimitTruncatesHead(t *testing.T) {
	data := rows(`[{"v":1},{"v":2},{"v":3}]`)
	out := ApplyTransforms(data, []Transform{{Limit: &LimitTransform{Limit: 2}}})
	require.Len(t, out, 2)
	require.Equal(t, []any{1.0, 2.0}, fieldValues(out, "v"))
}

func TestApplyFilterNumericComparison(t *testing.T) {
	data := rows(`[{"v":1},{"v":5},{"v":10}]`)
	out := applyFilter(data, FilterConfig{Field: "v", Op: ">=", Value: 5.0})
	require.Equal(t, []any{5.0, 10.0}, fieldValues(out, "v"))
}

func TestApplyFilterEqualityFallsBackToValueEquality(t *testing.T) {
	data := rows(`[{"status":"open"},{"status":"closed"}]`)
	out := applyFilter(data, FilterConfig{Field: "status", Op: "==", Value: "open"})
	require.Len(t, out, 1)
	require.Equal(t, "open", out[0]["status"])
}

func TestCoerceTimeHandlesZSuffixAndBareYearMonth(t *testing.T) {
	_, ok := coerceTime("2024-01-01T00:00:00Z")
	require.True(t, ok)

	_, ok = coerceTime("2023-06")
	require.True(t, ok)

	_, ok = coerceTime("not a time")
	require.False(t, ok)
}

func TestCoerceNumberExcludesBooleans(t *testing.T) {
	_, ok := coerceNumber(true)
	require.False(t, ok)

	n, ok := coerceNumber("3.5")
	require.True(t, ok)
	require.Equal(t, 3.5, n)
}

func TestApplyTransformsFullPipeline(t *testing.T) {
	data := rows(`[
		{"name":"a","revenue":50},
		{"name":"b","revenue":200},
		{"name":"c","revenue":null},
		{"name":"d","revenue":10}
	]`)

	out := ApplyTransforms(data, []Transform{
		{Filter: &FilterTransform{Filter: FilterConfig{Field: "revenue", Op: "!=", Value: nil}}},
		{Sort: &SortTransform{Sort: []SortItem{{Field: "revenue", Dir: "desc"}}}},
		{Limit: &LimitTransform{Limit: 2}},
	})

	require.Equal(t, []any{"b", "a"}, fieldValues(out, "name"))
}
