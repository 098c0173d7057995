package engine

import (
	"fmt"
	"strings"

	"github.com/yudis/h2database/internal/catalog"
	"github.com/yudis/h2database/internal/constraint"
	"github.com/yudis/h2database/internal/expr"
	"github.com/yudis/h2database/internal/index"
	"github.com/yudis/h2database/internal/record"
	"github.com/yudis/h2database/internal/session"
)

// ConstraintDef is the resolved "ADD CONSTRAINT" request handed to the
// engine by the DDL layer.
type ConstraintDef struct {
	Name  string // empty: system-generated
	Table string
	Kind  constraint.Kind

	// KindCheck
	Check expr.Expr

	// key constraints and foreign keys: column names in the owning table
	Columns []string

	// KindReferential
	RefTable   string
	RefColumns []string
	OnDelete   constraint.RefAction
	OnUpdate   constraint.RefAction
}

// AddConstraint validates existing data and registers the constraint. On any
// failure nothing is registered: the name reservation and any index created
// for the constraint are torn down and the table is left exactly as before.
func (e *Engine) AddConstraint(sess *session.Session, def ConstraintDef) (constraint.Constraint, error) {
	tab, ok := e.cat.Table(def.Table)
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrTableNotFound, def.Table)
	}

	id := e.cat.NextID()
	name := def.Name
	if name == "" {
		name = fmt.Sprintf("%s_%d", strings.ReplaceAll(def.Kind.String(), " ", "_"), id)
	}
	if err := e.cat.ReserveConstraintName(name, def.Table); err != nil {
		return nil, err
	}

	var created *index.Index // owned index built for this constraint, if any
	fail := func(err error) (constraint.Constraint, error) {
		e.cat.ReleaseConstraintName(name)
		if created != nil {
			_ = tab.RemoveIndex(created)
			created.Drop()
		}
		return nil, err
	}

	var cons constraint.Constraint
	switch def.Kind {
	case constraint.KindCheck:
		c, err := constraint.NewCheck(id, name, tab, def.Check)
		if err != nil {
			return fail(err)
		}
		cons = c

	case constraint.KindUnique, constraint.KindPrimaryKey:
		if def.Kind == constraint.KindPrimaryKey {
			for _, c := range tab.Constraints().All() {
				if c.Kind() == constraint.KindPrimaryKey {
					return fail(fmt.Errorf("engine: table %s already has a primary key (%s)", def.Table, c.Name()))
				}
			}
		}
		cols, err := resolveColumns(tab.Schema(), def.Columns)
		if err != nil {
			return fail(err)
		}
		backing := tab.UniqueIndexOn(cols)
		owned := false
		if backing == nil {
			backing, err = e.buildIndex(sess, tab, indexName(def.Table, name), cols, true)
			if err != nil {
				return fail(&constraint.BulkValidationError{Constraint: name, Err: err})
			}
			created = backing
			owned = true
		}
		if def.Kind == constraint.KindPrimaryKey {
			cons = constraint.NewPrimaryKey(id, name, tab, cols, backing, owned)
		} else {
			cons = constraint.NewUnique(id, name, tab, cols, backing, owned)
		}

	case constraint.KindReferential:
		cols, err := resolveColumns(tab.Schema(), def.Columns)
		if err != nil {
			return fail(err)
		}
		refTab, ok := e.cat.Table(def.RefTable)
		if !ok {
			return fail(fmt.Errorf("%w: %s", catalog.ErrTableNotFound, def.RefTable))
		}
		refCols, err := resolveColumns(refTab.Schema(), def.RefColumns)
		if err != nil {
			return fail(err)
		}
		if refTab.UniqueIndexOn(refCols) == nil {
			return fail(fmt.Errorf("engine: referenced columns %s(%s) are not unique or primary key",
				def.RefTable, strings.Join(def.RefColumns, ", ")))
		}
		fkIndex := tab.IndexOn(cols)
		owned := false
		if fkIndex == nil {
			fkIndex, err = e.buildIndex(sess, tab, indexName(def.Table, name), cols, false)
			if err != nil {
				return fail(err)
			}
			created = fkIndex
			owned = true
		}
		cons, err = constraint.NewReferential(id, name, tab, cols, e.cat,
			refTab.ID(), refCols, fkIndex, owned, def.OnDelete, def.OnUpdate)
		if err != nil {
			return fail(err)
		}

	default:
		return fail(fmt.Errorf("engine: unsupported constraint kind %v", def.Kind))
	}

	// Retroactive validation. Skipped when the table is provably empty;
	// the observable outcome is identical.
	if tab.RowCount() > 0 {
		if err := cons.CheckExistingData(sess); err != nil {
			return fail(&constraint.BulkValidationError{Constraint: name, Err: err})
		}
	}

	if err := tab.Constraints().Add(cons); err != nil {
		return fail(err)
	}
	e.log.Info("engine: constraint added",
		"table", def.Table, "constraint", name, "kind", cons.Kind().String())
	return cons, nil
}

// DropConstraint unregisters the constraint. An owned backing index is
// dropped with it unless another constraint still uses it, in which case
// ownership is handed over instead.
func (e *Engine) DropConstraint(sess *session.Session, table, name string) error {
	tab, ok := e.cat.Table(table)
	if !ok {
		return fmt.Errorf("%w: %s", catalog.ErrTableNotFound, table)
	}
	cons := tab.Constraints().Remove(name)
	if cons == nil {
		return fmt.Errorf("%w: %s on table %s", ErrConstraintNotFound, name, table)
	}
	e.cat.ReleaseConstraintName(name)

	ix := cons.UniqueIndex()
	if ix != nil && cons.OwnsIndex(ix) {
		handedOver := false
		for _, other := range tab.Constraints().All() {
			if other.UsesIndex(ix) {
				other.SetIndexOwner(ix)
				handedOver = true
				break
			}
		}
		if !handedOver {
			if err := tab.RemoveIndex(ix); err != nil {
				return err
			}
			ix.Drop()
		}
	}
	e.log.Info("engine: constraint dropped", "table", table, "constraint", name)
	return nil
}

// buildIndex creates an index over cols and backfills it from existing rows.
// For a unique index the backfill is the authoritative duplicate detector.
func (e *Engine) buildIndex(sess *session.Session, tab *catalog.Table, name string, cols []int, unique bool) (*index.Index, error) {
	ix := index.New(index.Spec{
		Name:    name,
		Table:   tab.Name(),
		Columns: cols,
		Unique:  unique,
	})
	err := tab.Scan(sess.Context(), func(row record.Row) error {
		return ix.Insert(row.Project(cols), row.TID)
	})
	if err != nil {
		ix.Drop()
		return nil, err
	}
	tab.AddIndex(ix)
	return ix, nil
}

func indexName(table, cons string) string {
	return fmt.Sprintf("%s__idx__%s", table, cons)
}

func resolveColumns(sch record.Schema, names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("engine: constraint requires at least one column")
	}
	out := make([]int, len(names))
	for i, n := range names {
		pos := sch.ColPos(n)
		if pos < 0 {
			return nil, fmt.Errorf("%w: %s", catalog.ErrColumnNotFound, n)
		}
		out[i] = pos
	}
	return out, nil
}
