package viz

import "sort"

// ExtractDataSummary builds the column metadata handed to the sub-agent
// (spec §4.5 step 1): "columns inferred by scanning union of keys in the
// first 50 rows; type inferred from first 20 values."
//
// Go's map[string]any does not preserve column order the way the
// reference implementation's dicts do, so columns are reported in
// alphabetical order instead of encounter order — a deliberate, harmless
// deviation, since the sub-agent only needs names and types, not order.
func ExtractDataSummary(rows []map[string]any) ([]ColumnSummary, int) {
	return extractColumns(rows), len(rows)
}

func extractColumns(rows []map[string]any) []ColumnSummary {
	if len(rows) == 0 {
		return nil
	}

	scanLimit := len(rows)
	if scanLimit > 50 {
		scanLimit = 50
	}
	seen := make(map[string]bool)
	var keys []string
	for _, row := range rows[:scanLimit] {
		for key := range row {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)

	sampleLimit := len(rows)
	if sampleLimit > 20 {
		sampleLimit = 20
	}

	columns := make([]ColumnSummary, 0, len(keys))
	for _, key := range keys {
		var samples []any
		for _, row := range rows[:sampleLimit] {
			if v, ok := row[key]; ok {
				samples = append(samples, v)
			}
		}
		columns = append(columns, ColumnSummary{
			Name:   key,
			Type:   inferColumnType(samples),
			Sample: truncateSamples(samples, 5),
		})
	}
	return columns
}

func inferColumnType(values []any) string {
	var cleaned []any
	for _, v := range values {
		if v != nil {
			cleaned = append(cleaned, v)
		}
	}
	if len(cleaned) == 0 {
		return "null"
	}

	allBool := true
	for _, v := range cleaned {
		if _, ok := v.(bool); !ok {
			allBool = false
			break
		}
	}
	if allBool {
		return "boolean"
	}

	allNumber := true
	for _, v := range cleaned {
		if _, ok := strictNumber(v); !ok {
			allNumber = false
			break
		}
	}
	if allNumber {
		return "number"
	}

	allTime := true
	for _, v := range cleaned {
		if _, ok := coerceTime(v); !ok {
			allTime = false
			break
		}
	}
	if allTime {
		return "time"
	}

	return "string"
}

// strictNumber only accepts actual numeric Go types, unlike coerceNumber
// (used for sort/filter), matching the reference's strict
// isinstance(value, (int, float)) check for type inference — a numeric
// string like "42" should infer as "string", not "number".
func strictNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func truncateSamples(values []any, n int) []any {
	if len(values) <= n {
		return values
	}
	return values[:n]
}
