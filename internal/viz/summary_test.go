package viz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func col(cols []ColumnSummary, name string) *ColumnSummary {
	for i := range cols {
		if cols[i].Name == name {
			return &cols[i]
		}
	}
	return nil
}

func TestExtractDataSummaryInfersTypesPerColumn(t *testing.T) {
	data := rows(`[
		{"id":1,"active":true,"created":"2024-01-01T00:00:00Z","label":"a"},
		{"id":2,"active":false,"created":"2024-02-01T00:00:00Z","label":"b"},
		{"id":3,"active":true,"created":"2024-03-01T00:00:00Z","label":null}
	]`)

	cols, rowCount := ExtractDataSummary(data)
	require.Equal(t, 3, rowCount)

	require.Equal(t, "number", col(cols, "id").Type)
	require.Equal(t, "boolean", col(cols, "active").Type)
	require.Equal(t, "time", col(cols, "created").Type)
	require.Equal(t, "string", col(cols, "label").Type)
}

func TestExtractDataSummaryAllNullColumnIsNullType(t *testing.T) {
	data := rows(`[{"x":null},{"x":null}]`)
	cols, _ := ExtractDataSummary(data)
	require.Equal(t, "null", col(cols, "x").Type)
}

func TestExtractDataSummaryNumericStringsAreNotNumbers(t *testing.T) {
	data := rows(`[{"code":"42"},{"code":"43"}]`)
	cols, _ := ExtractDataSummary(data)
	require.Equal(t, "string", col(cols, "code").Type)
}

func TestExtractDataSummaryColumnsAreAlphabeticallySorted(t *testing.T) {
	data := rows(`[{"zeta":1,"alpha":2,"mid":3}]`)
	cols, _ := ExtractDataSummary(data)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	require.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestExtractDataSummarySampleTruncatedToFive(t *testing.T) {
	data := rows(`[{"v":1},{"v":2},{"v":3},{"v":4},{"v":5},{"v":6},{"v":7}]`)
	cols, _ := ExtractDataSummary(data)
	require.Len(t, col(cols, "v").Sample, 5)
}

func TestExtractDataSummaryEmptyRowsReturnsNoColumns(t *testing.T) {
	cols, rowCount := ExtractDataSummary(nil)
	require.Nil(t, cols)
	require.Equal(t, 0, rowCount)
}
