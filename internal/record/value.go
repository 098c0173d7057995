package record

import (
	"bytes"
	"fmt"
)

// Compare orders two non-NULL values of the same SQL type.
// Returns <0, 0, >0. Mixed int64/float64 compare numerically.
// A type mismatch is an error: the schema should have coerced already.
func Compare(a, b any) (int, error) {
	switch av := a.(type) {
	case int64:
		switch bv := b.(type) {
		case int64:
			return cmpOrdered(av, bv), nil
		case float64:
			return cmpOrdered(float64(av), bv), nil
		}
	case float64:
		switch bv := b.(type) {
		case float64:
			return cmpOrdered(av, bv), nil
		case int64:
			return cmpOrdered(av, float64(bv)), nil
		}
	case string:
		if bv, ok := b.(string); ok {
			return cmpOrdered(av, bv), nil
		}
	case bool:
		if bv, ok := b.(bool); ok {
			return cmpBool(av, bv), nil
		}
	case []byte:
		if bv, ok := b.([]byte); ok {
			return bytes.Compare(av, bv), nil
		}
	}
	return 0, fmt.Errorf("record: cannot compare %T with %T", a, b)
}

// CompareTotal is a total order over all storable values, used for index key
// ordering where a comparison must never fail: NULL sorts lowest, then values
// group by type rank, then by Compare within a rank.
func CompareTotal(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return cmpOrdered(ra, rb)
	}
	if a == nil {
		return 0
	}
	c, err := Compare(a, b)
	if err != nil {
		// same rank but incomparable: keep the order stable via formatting
		return cmpOrdered(FormatValue(a), FormatValue(b))
	}
	return c
}

// CompareKeys orders composite keys component-wise under CompareTotal.
func CompareKeys(a, b []any) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := CompareTotal(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpOrdered(len(a), len(b))
}

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int64, float64:
		return 2
	case string:
		return 3
	case []byte:
		return 4
	default:
		return 5
	}
}

func cmpOrdered[T int | int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
