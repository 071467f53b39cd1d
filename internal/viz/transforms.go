package viz

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var bareYearMonth = regexp.MustCompile(`^\d{4}-\d{2}$`)

var isoTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ApplyTransforms runs the sort/limit/filter pipeline in order (spec §4.5
// "Transforms semantics").
func ApplyTransforms(rows []map[string]any, transforms []Transform) []map[string]any {
	result := rows
	for _, t := range transforms {
		switch {
		case t.Sort != nil:
			result = applySort(result, t.Sort.Sort)
		case t.Limit != nil:
			if t.Limit.Limit < len(result) {
				result = result[:t.Limit.Limit]
			}
		case t.Filter != nil:
			result = applyFilter(result, t.Filter.Filter)
		}
	}
	return result
}

// applySort sorts by each field in reverse list order, so the first sort
// key wins as the final, stable pass — and always pushes rows with a nil
// value for that field to the end, regardless of direction.
func applySort(rows []map[string]any, items []SortItem) []map[string]any {
	result := append([]map[string]any(nil), rows...)
	for i := len(items) - 1; i >= 0; i-- {
		field := items[i].Field
		descending := items[i].Dir == "desc"

		sort.SliceStable(result, func(a, b int) bool {
			ka, kb := sortKeyFor(result[a][field]), sortKeyFor(result[b][field])
			if descending {
				return lessSortKey(kb, ka)
			}
			return lessSortKey(ka, kb)
		})

		present := make([]map[string]any, 0, len(result))
		missing := make([]map[string]any, 0)
		for _, row := range result {
			if row[field] == nil {
				missing = append(missing, row)
			} else {
				present = append(present, row)
			}
		}
		result = append(present, missing...)
	}
	return result
}

func reverseRows(rows []map[string]any) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

type sortKey struct {
	rank    int // 0=numeric, 1=time, 2=string, 3=nil
	numeric float64
	when    time.Time
	text    string
}

func sortKeyFor(value any) sortKey {
	if value == nil {
		return sortKey{rank: 3}
	}
	if n, ok := coerceNumber(value); ok {
		return sortKey{rank: 0, numeric: n}
	}
	if when, ok := coerceTime(value); ok {
		return sortKey{rank: 1, when: when}
	}
	return sortKey{rank: 2, text: strings.ToLower(stringify(value))}
}

func lessSortKey(a, b sortKey) bool {
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	switch a.rank {
	case 0:
		return a.numeric < b.numeric
	case 1:
		return a.when.Before(b.when)
	default:
		return a.text < b.text
	}
}

func applyFilter(rows []map[string]any, cfg FilterConfig) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if compareValues(row[cfg.Field], cfg.Op, cfg.Value) {
			out = append(out, row)
		}
	}
	return out
}

func compareValues(value any, op string, target any) bool {
	if op == "==" || op == "!=" {
		eq := valuesEqual(value, target)
		if op == "==" {
			return eq
		}
		return !eq
	}

	if lv, lok := coerceNumber(value); lok {
		if rv, rok := coerceNumber(target); rok {
			return compareOrderedNumbers(lv, rv, op)
		}
	}
	if lv, lok := coerceTime(value); lok {
		if rv, rok := coerceTime(target); rok {
			return compareOrderedTimes(lv, rv, op)
		}
	}
	return false
}

func valuesEqual(value, target any) bool {
	if value == nil || target == nil {
		return value == nil && target == nil
	}
	if lv, lok := coerceNumber(value); lok {
		if rv, rok := coerceNumber(target); rok {
			return lv == rv
		}
	}
	if lv, lok := coerceTime(value); lok {
		if rv, rok := coerceTime(target); rok {
			return lv.Equal(rv)
		}
	}
	return safeEqual(value, target)
}

func safeEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

func compareOrderedNumbers(a, b float64, op string) bool {
	switch op {
	case ">":
		return a > b
	case "<":
		return a < b
	case ">=":
		return a >= b
	case "<=":
		return a <= b
	}
	return false
}

func compareOrderedTimes(a, b time.Time, op string) bool {
	switch op {
	case ">":
		return a.After(b)
	case "<":
		return a.Before(b)
	case ">=":
		return !a.Before(b)
	case "<=":
		return !a.After(b)
	}
	return false
}

// coerceNumber mirrors the reference's _coerce_number: bools are
// explicitly excluded even though Go's json decoder never produces a bool
// for a numeric literal, because a filter target can still be a literal
// JSON `true`/`false`.
func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case bool:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// coerceTime mirrors the reference's _coerce_time: a trailing "Z" is
// normalized to "+00:00", then a handful of ISO-8601 layouts are tried,
// then a bare "YYYY-MM" is accepted by appending "-01".
func coerceTime(value any) (time.Time, bool) {
	if t, ok := value.(time.Time); ok {
		return t, true
	}
	s, ok := value.(string)
	if !ok {
		return time.Time{}, false
	}

	normalized := s
	if strings.HasSuffix(s, "Z") {
		normalized = s[:len(s)-1] + "+00:00"
	}
	for _, layout := range isoTimeLayouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t, true
		}
	}
	if bareYearMonth.MatchString(s) {
		if t, err := time.Parse("2006-01-02", s+"-01"); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
