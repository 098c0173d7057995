package constraint

import (
	"fmt"
	"slices"

	"github.com/yudis/h2database/internal/expr"
	"github.com/yudis/h2database/internal/record"
	"github.com/yudis/h2database/internal/session"
)

// Check validates a boolean expression against each row. Standard SQL
// semantics: the row passes unless the expression is definitely FALSE, so
// NULL/UNKNOWN satisfies the constraint.
type Check struct {
	base
	expr expr.Expr
	cols []int
}

func NewCheck(id int, name string, tab Table, e expr.Expr) (*Check, error) {
	if err := e.Bind(tab.Schema()); err != nil {
		return nil, &UnresolvableReferenceError{Constraint: name, Ref: err.Error()}
	}
	c := &Check{base: newBase(id, name, tab), expr: e}
	cols := slices.Clone(e.Columns(nil))
	slices.Sort(cols)
	c.cols = slices.Compact(cols)
	c.refreshSQL()
	return c, nil
}

func (c *Check) Kind() Kind     { return KindCheck }
func (c *Check) IsBefore() bool { return false }

func (c *Check) CheckRow(sess *session.Session, tab Table, oldRow, newRow *record.Row) error {
	if newRow == nil {
		// deletes leave no row content to validate
		return nil
	}
	_, tb, err := c.expr.Eval(*newRow)
	if err != nil {
		return fmt.Errorf("constraint: evaluating %s constraint %q: %w", KindCheck, c.name, err)
	}
	if tb == expr.False {
		return violation(c, fmt.Sprintf("%s is false for row (%s)",
			c.expr.SQL(), record.FormatValues(newRow.Project(c.cols))))
	}
	return nil
}

func (c *Check) CheckExistingData(sess *session.Session) error {
	return c.tab.Scan(sess.Context(), func(row record.Row) error {
		return c.CheckRow(sess, c.tab, nil, &row)
	})
}

func (c *Check) ContainsColumn(col int) bool {
	return slices.Contains(c.cols, col)
}

func (c *Check) Rebuild() error {
	if err := c.expr.Refresh(c.tab.Schema()); err != nil {
		return &UnresolvableReferenceError{Constraint: c.name, Ref: err.Error()}
	}
	c.refreshSQL()
	return nil
}

func (c *Check) refreshSQL() {
	c.createSQL = fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)",
		c.tab.Name(), c.name, c.expr.SQL())
}
