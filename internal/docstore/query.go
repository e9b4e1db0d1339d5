package docstore

import (
	"reflect"
)

type query struct {
	hasFilter bool
	field     string
	value     any
	hasLimit  bool
	limit     int
}

// QueryOption narrows a Stream.
type QueryOption func(*query)

// Where keeps only documents whose field equals value. Numbers compare by
// numeric value regardless of Go type. A later Where replaces an earlier one.
func Where(field string, value any) QueryOption {
	return func(q *query) {
		q.hasFilter = true
		q.field = field
		q.value = value
	}
}

// Limit truncates the result to at most n documents.
func Limit(n int) QueryOption {
	return func(q *query) {
		q.hasLimit = true
		q.limit = n
	}
}

func (q query) matches(fields map[string]any) bool {
	if !q.hasFilter {
		return true
	}
	v, ok := fields[q.field]
	if !ok {
		return false
	}
	return valuesEqual(v, q.value)
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
