// Package expr provides boolean expression trees used by CHECK constraints.
//
// Expressions evaluate against a single row under SQL three-valued logic:
// any comparison with NULL yields Unknown, and a CHECK passes unless the
// expression is definitely False.
//
// Column references are canonical by ordinal. The name is only a cached
// rendering detail: after a column rename, Refresh re-derives names from
// ordinals so the SQL text follows the catalog without changing semantics.
package expr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yudis/h2database/internal/record"
)

// TriBool is a SQL three-valued truth value.
type TriBool int8

const (
	Unknown TriBool = iota
	True
	False
)

func (t TriBool) String() string {
	switch t {
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	default:
		return "UNKNOWN"
	}
}

// ErrColumnUnresolved is returned by Bind/Refresh when a referenced column
// cannot be resolved against the schema.
var ErrColumnUnresolved = errors.New("expr: column cannot be resolved")

// Expr is a boolean or scalar expression node.
type Expr interface {
	// Eval evaluates against a row. Scalar nodes return the value via val;
	// boolean nodes return the truth value via tb (val is nil).
	Eval(row record.Row) (val any, tb TriBool, err error)

	// SQL renders the node as SQL text using currently cached column names.
	SQL() string

	// Bind resolves column names to ordinals. Called once when the
	// expression is attached to a table.
	Bind(sch record.Schema) error

	// Refresh re-derives column names from ordinals after a rename.
	Refresh(sch record.Schema) error

	// Columns appends the ordinals of all referenced columns.
	Columns(out []int) []int
}

// ----- column reference -----

type ColumnRef struct {
	Name string
	pos  int
}

// Col builds an unbound column reference by name.
func Col(name string) *ColumnRef {
	return &ColumnRef{Name: name, pos: -1}
}

func (c *ColumnRef) Eval(row record.Row) (any, TriBool, error) {
	if c.pos < 0 || c.pos >= len(row.Values) {
		return nil, Unknown, fmt.Errorf("%w: %s", ErrColumnUnresolved, c.Name)
	}
	return row.Values[c.pos], Unknown, nil
}

func (c *ColumnRef) SQL() string { return c.Name }

func (c *ColumnRef) Bind(sch record.Schema) error {
	pos := sch.ColPos(c.Name)
	if pos < 0 {
		return fmt.Errorf("%w: %s", ErrColumnUnresolved, c.Name)
	}
	c.pos = pos
	return nil
}

func (c *ColumnRef) Refresh(sch record.Schema) error {
	name := sch.ColName(c.pos)
	if name == "" {
		return fmt.Errorf("%w: ordinal %d", ErrColumnUnresolved, c.pos)
	}
	c.Name = name
	return nil
}

func (c *ColumnRef) Columns(out []int) []int { return append(out, c.pos) }

// Pos returns the bound ordinal, or -1 while unbound.
func (c *ColumnRef) Pos() int { return c.pos }

// ----- literal -----

type Literal struct {
	Value any
}

func Lit(v any) *Literal { return &Literal{Value: v} }

func (l *Literal) Eval(record.Row) (any, TriBool, error) { return l.Value, Unknown, nil }
func (l *Literal) SQL() string                           { return record.FormatValue(l.Value) }
func (l *Literal) Bind(record.Schema) error              { return nil }
func (l *Literal) Refresh(record.Schema) error           { return nil }
func (l *Literal) Columns(out []int) []int               { return out }

// ----- comparison -----

type CmpOp uint8

const (
	Eq CmpOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

func (op CmpOp) String() string {
	switch op {
	case Eq:
		return "="
	case Ne:
		return "<>"
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	default:
		return ">="
	}
}

type Compare struct {
	Op   CmpOp
	L, R Expr
}

func Cmp(l Expr, op CmpOp, r Expr) *Compare { return &Compare{Op: op, L: l, R: r} }

func (c *Compare) Eval(row record.Row) (any, TriBool, error) {
	lv, _, err := c.L.Eval(row)
	if err != nil {
		return nil, Unknown, err
	}
	rv, _, err := c.R.Eval(row)
	if err != nil {
		return nil, Unknown, err
	}
	if lv == nil || rv == nil {
		return nil, Unknown, nil
	}
	cmp, err := record.Compare(lv, rv)
	if err != nil {
		return nil, Unknown, err
	}
	var ok bool
	switch c.Op {
	case Eq:
		ok = cmp == 0
	case Ne:
		ok = cmp != 0
	case Lt:
		ok = cmp < 0
	case Le:
		ok = cmp <= 0
	case Gt:
		ok = cmp > 0
	case Ge:
		ok = cmp >= 0
	}
	if ok {
		return nil, True, nil
	}
	return nil, False, nil
}

func (c *Compare) SQL() string {
	return fmt.Sprintf("%s %s %s", c.L.SQL(), c.Op, c.R.SQL())
}

func (c *Compare) Bind(sch record.Schema) error    { return bindAll(sch, c.L, c.R) }
func (c *Compare) Refresh(sch record.Schema) error { return refreshAll(sch, c.L, c.R) }
func (c *Compare) Columns(out []int) []int         { return c.R.Columns(c.L.Columns(out)) }

// ----- AND / OR -----

type LogicOp uint8

const (
	And LogicOp = iota
	Or
)

func (op LogicOp) String() string {
	if op == And {
		return "AND"
	}
	return "OR"
}

type Logic struct {
	Op   LogicOp
	L, R Expr
}

func AndExpr(l, r Expr) *Logic { return &Logic{Op: And, L: l, R: r} }
func OrExpr(l, r Expr) *Logic  { return &Logic{Op: Or, L: l, R: r} }

func (l *Logic) Eval(row record.Row) (any, TriBool, error) {
	_, lt, err := l.L.Eval(row)
	if err != nil {
		return nil, Unknown, err
	}
	_, rt, err := l.R.Eval(row)
	if err != nil {
		return nil, Unknown, err
	}
	if l.Op == And {
		switch {
		case lt == False || rt == False:
			return nil, False, nil
		case lt == True && rt == True:
			return nil, True, nil
		default:
			return nil, Unknown, nil
		}
	}
	switch {
	case lt == True || rt == True:
		return nil, True, nil
	case lt == False && rt == False:
		return nil, False, nil
	default:
		return nil, Unknown, nil
	}
}

func (l *Logic) SQL() string {
	return fmt.Sprintf("(%s) %s (%s)", l.L.SQL(), l.Op, l.R.SQL())
}

func (l *Logic) Bind(sch record.Schema) error    { return bindAll(sch, l.L, l.R) }
func (l *Logic) Refresh(sch record.Schema) error { return refreshAll(sch, l.L, l.R) }
func (l *Logic) Columns(out []int) []int         { return l.R.Columns(l.L.Columns(out)) }

// ----- NOT -----

type Not struct {
	X Expr
}

func NotExpr(x Expr) *Not { return &Not{X: x} }

func (n *Not) Eval(row record.Row) (any, TriBool, error) {
	_, t, err := n.X.Eval(row)
	if err != nil {
		return nil, Unknown, err
	}
	switch t {
	case True:
		return nil, False, nil
	case False:
		return nil, True, nil
	default:
		return nil, Unknown, nil
	}
}

func (n *Not) SQL() string                     { return fmt.Sprintf("NOT (%s)", n.X.SQL()) }
func (n *Not) Bind(sch record.Schema) error    { return n.X.Bind(sch) }
func (n *Not) Refresh(sch record.Schema) error { return n.X.Refresh(sch) }
func (n *Not) Columns(out []int) []int         { return n.X.Columns(out) }

// ----- IS [NOT] NULL -----

type IsNull struct {
	X      Expr
	Negate bool
}

func IsNullExpr(x Expr) *IsNull    { return &IsNull{X: x} }
func IsNotNullExpr(x Expr) *IsNull { return &IsNull{X: x, Negate: true} }

func (i *IsNull) Eval(row record.Row) (any, TriBool, error) {
	v, _, err := i.X.Eval(row)
	if err != nil {
		return nil, Unknown, err
	}
	isNull := v == nil
	if isNull != i.Negate {
		return nil, True, nil
	}
	return nil, False, nil
}

func (i *IsNull) SQL() string {
	if i.Negate {
		return fmt.Sprintf("%s IS NOT NULL", i.X.SQL())
	}
	return fmt.Sprintf("%s IS NULL", i.X.SQL())
}

func (i *IsNull) Bind(sch record.Schema) error    { return i.X.Bind(sch) }
func (i *IsNull) Refresh(sch record.Schema) error { return i.X.Refresh(sch) }
func (i *IsNull) Columns(out []int) []int         { return i.X.Columns(out) }

// ----- helpers -----

func bindAll(sch record.Schema, exprs ...Expr) error {
	for _, e := range exprs {
		if err := e.Bind(sch); err != nil {
			return err
		}
	}
	return nil
}

func refreshAll(sch record.Schema, exprs ...Expr) error {
	for _, e := range exprs {
		if err := e.Refresh(sch); err != nil {
			return err
		}
	}
	return nil
}

// ColumnNames renders the names of the given ordinals as "A, B, C".
func ColumnNames(sch record.Schema, cols []int) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = sch.ColName(c)
	}
	return strings.Join(names, ", ")
}
