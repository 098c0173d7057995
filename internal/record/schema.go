package record

type ColumnType uint8

const (
	ColInt32 ColumnType = iota
	ColInt64
	ColBool
	ColFloat64
	ColText  // UTF-8
	ColBytes // opaque bytes
)

func (t ColumnType) String() string {
	switch t {
	case ColInt32:
		return "INT"
	case ColInt64:
		return "BIGINT"
	case ColBool:
		return "BOOLEAN"
	case ColFloat64:
		return "DOUBLE"
	case ColText:
		return "VARCHAR"
	case ColBytes:
		return "BINARY"
	default:
		return "UNKNOWN"
	}
}

type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

type Schema struct {
	Cols []Column
}

func (s Schema) NumCols() int { return len(s.Cols) }

// ColPos returns the ordinal of the named column, or -1 if absent.
func (s Schema) ColPos(name string) int {
	for i := range s.Cols {
		if s.Cols[i].Name == name {
			return i
		}
	}
	return -1
}

// ColName returns the name of the column at the given ordinal,
// or "" if the ordinal is out of range.
func (s Schema) ColName(pos int) string {
	if pos < 0 || pos >= len(s.Cols) {
		return ""
	}
	return s.Cols[pos].Name
}

// Clone returns a deep copy so callers can mutate column metadata
// (e.g. a rename) without aliasing the original.
func (s Schema) Clone() Schema {
	cols := make([]Column, len(s.Cols))
	copy(cols, s.Cols)
	return Schema{Cols: cols}
}
