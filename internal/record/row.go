package record

import (
	"fmt"
	"strings"
)

// TID (Tuple ID) row identity inside the heap:
// PageID: page logic ID
// Slot  : slot index of page
type TID struct {
	PageID uint32
	Slot   uint16
}

// Row is a decoded tuple plus its heap identity. Values are typed per the
// table schema; nil means SQL NULL.
type Row struct {
	TID    TID
	Values []any
}

// Get returns the value at the given column ordinal.
func (r Row) Get(pos int) any {
	return r.Values[pos]
}

// IsNull reports whether the value at the given ordinal is SQL NULL.
func (r Row) IsNull(pos int) bool {
	return r.Values[pos] == nil
}

// Project returns the values of the given column ordinals, in order.
func (r Row) Project(cols []int) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = r.Values[c]
	}
	return out
}

// Clone deep-copies the value slice (values themselves are immutable scalars,
// except []byte which is shared).
func (r Row) Clone() Row {
	vals := make([]any, len(r.Values))
	copy(vals, r.Values)
	return Row{TID: r.TID, Values: vals}
}

// FormatValues renders values for error messages, e.g. "1, NULL, 'bob'".
func FormatValues(vals []any) string {
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(FormatValue(v))
	}
	return b.String()
}

// FormatValue renders a single value as SQL-ish literal text.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case []byte:
		return fmt.Sprintf("X'%x'", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
