package constraint

import (
	"fmt"
	"slices"

	"github.com/yudis/h2database/internal/expr"
	"github.com/yudis/h2database/internal/index"
	"github.com/yudis/h2database/internal/record"
	"github.com/yudis/h2database/internal/session"
)

// Unique forbids two rows sharing the same NULL-free key projection. A key
// with any NULL component never collides. The backing unique index remains
// the authoritative duplicate detector at insertion time; CheckRow is the
// early probe on top of it, run after the physical change so the index
// already contains the candidate row (the probe excludes the row's own TID).
type Unique struct {
	base
	cols []int
}

func NewUnique(id int, name string, tab Table, cols []int, backing *index.Index, owned bool) *Unique {
	u := &Unique{base: newBase(id, name, tab), cols: slices.Clone(cols)}
	u.idx = backing
	u.idxOwned = owned
	u.refreshSQL()
	return u
}

func (u *Unique) Kind() Kind     { return KindUnique }
func (u *Unique) IsBefore() bool { return false }

func (u *Unique) CheckRow(sess *session.Session, tab Table, oldRow, newRow *record.Row) error {
	if newRow == nil {
		// delete can never introduce a duplicate
		return nil
	}
	return checkDuplicate(u, u.cols, newRow)
}

func (u *Unique) CheckExistingData(sess *session.Session) error {
	return checkExistingKeys(sess, u, u.cols)
}

func (u *Unique) ContainsColumn(col int) bool { return slices.Contains(u.cols, col) }

func (u *Unique) Rebuild() error {
	if err := keyResolvable(u, u.cols, u.tab.Schema()); err != nil {
		return err
	}
	u.refreshSQL()
	return nil
}

func (u *Unique) refreshSQL() {
	u.createSQL = fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE(%s)",
		u.tab.Name(), u.name, expr.ColumnNames(u.tab.Schema(), u.cols))
}

// PrimaryKey is a unique key that additionally forbids NULL in every key
// component. At most one per table; the engine enforces that.
type PrimaryKey struct {
	base
	cols []int
}

func NewPrimaryKey(id int, name string, tab Table, cols []int, backing *index.Index, owned bool) *PrimaryKey {
	pk := &PrimaryKey{base: newBase(id, name, tab), cols: slices.Clone(cols)}
	pk.idx = backing
	pk.idxOwned = owned
	pk.refreshSQL()
	return pk
}

func (pk *PrimaryKey) Kind() Kind     { return KindPrimaryKey }
func (pk *PrimaryKey) IsBefore() bool { return false }

func (pk *PrimaryKey) CheckRow(sess *session.Session, tab Table, oldRow, newRow *record.Row) error {
	if newRow == nil {
		return nil
	}
	for _, col := range pk.cols {
		if newRow.IsNull(col) {
			return violation(pk, fmt.Sprintf("NULL not allowed in primary key column %s",
				pk.tab.Schema().ColName(col)))
		}
	}
	return checkDuplicate(pk, pk.cols, newRow)
}

func (pk *PrimaryKey) CheckExistingData(sess *session.Session) error {
	return checkExistingKeys(sess, pk, pk.cols)
}

func (pk *PrimaryKey) ContainsColumn(col int) bool { return slices.Contains(pk.cols, col) }

func (pk *PrimaryKey) Rebuild() error {
	if err := keyResolvable(pk, pk.cols, pk.tab.Schema()); err != nil {
		return err
	}
	pk.refreshSQL()
	return nil
}

func (pk *PrimaryKey) refreshSQL() {
	pk.createSQL = fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY(%s)",
		pk.tab.Name(), pk.name, expr.ColumnNames(pk.tab.Schema(), pk.cols))
}

// ----- shared key-constraint logic -----

func checkDuplicate(c Constraint, cols []int, newRow *record.Row) error {
	key := newRow.Project(cols)
	if index.KeyHasNull(key) {
		// NULL component: never collides
		return nil
	}
	ix := c.UniqueIndex()
	if ix == nil {
		return fmt.Errorf("constraint: %s constraint %q has no backing index", c.Kind(), c.Name())
	}
	if ix.HasOther(key, newRow.TID) {
		return violation(c, fmt.Sprintf("duplicate key (%s)", record.FormatValues(key)))
	}
	return nil
}

func checkExistingKeys(sess *session.Session, c Constraint, cols []int) error {
	return c.Table().Scan(sess.Context(), func(row record.Row) error {
		return c.CheckRow(sess, c.Table(), nil, &row)
	})
}

func keyResolvable(c Constraint, cols []int, sch record.Schema) error {
	for _, col := range cols {
		if sch.ColName(col) == "" {
			return &UnresolvableReferenceError{
				Constraint: c.Name(),
				Ref:        fmt.Sprintf("column ordinal %d", col),
			}
		}
	}
	return nil
}
