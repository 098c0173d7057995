// Package engine wires the catalog, row store, indexes and the constraint
// subsystem into a DDL/DML surface. It also plays the transaction layer's
// part in this repo: it applies physical changes, rolls them back when a
// later validation phase fails, and executes cascading actions the
// constraint layer only signals.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/yudis/h2database/internal/catalog"
	"github.com/yudis/h2database/internal/constraint"
	"github.com/yudis/h2database/internal/record"
	"github.com/yudis/h2database/internal/session"
)

var (
	ErrConstraintNotFound = errors.New("engine: constraint not found")
	ErrTableReferenced    = errors.New("engine: table is referenced by a foreign key")
)

type Engine struct {
	cat *catalog.Catalog
	val *constraint.Validator
	log *slog.Logger
}

func New(log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		cat: catalog.New(),
		val: constraint.NewValidator(),
		log: log,
	}
}

// Catalog exposes the schema catalog (read paths, tests).
func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

func (e *Engine) CreateTable(name string, schema record.Schema, temporary bool) (*catalog.Table, error) {
	return e.cat.CreateTable(name, schema, temporary)
}

// DropTable drops a table and its constraints. If another table still
// references it, the drop is refused unless cascade is set, in which case
// the referencing constraints are dropped too.
func (e *Engine) DropTable(sess *session.Session, name string, cascade bool) error {
	tab, ok := e.cat.Table(name)
	if !ok {
		return fmt.Errorf("%w: %s", catalog.ErrTableNotFound, name)
	}
	refs := e.referencingConstraints(tab)
	if len(refs) > 0 && !cascade {
		return fmt.Errorf("%w: %s (constraint %s)", ErrTableReferenced, name, refs[0].Name())
	}
	for _, r := range refs {
		if err := e.DropConstraint(sess, r.Table().Name(), r.Name()); err != nil {
			return err
		}
	}
	return e.cat.DropTable(name)
}

// RenameTable renames and rebuilds every constraint whose cached SQL names
// the table: the table's own set plus foreign keys pointing at it. A failed
// rebuild reverts the rename.
func (e *Engine) RenameTable(sess *session.Session, oldName, newName string) error {
	tab, ok := e.cat.Table(oldName)
	if !ok {
		return fmt.Errorf("%w: %s", catalog.ErrTableNotFound, oldName)
	}
	if err := e.cat.RenameTable(oldName, newName); err != nil {
		return err
	}
	affected := append(tab.Constraints().All(), toConstraints(e.referencingConstraints(tab))...)
	if err := rebuildAll(affected); err != nil {
		if rerr := e.cat.RenameTable(newName, oldName); rerr == nil {
			_ = rebuildAll(affected)
		}
		return err
	}
	return nil
}

// RenameColumn renames one column and rebuilds the constraints whose
// definition involves it, on both sides of any foreign key. A failed
// rebuild reverts the rename.
func (e *Engine) RenameColumn(sess *session.Session, table, oldName, newName string) error {
	tab, ok := e.cat.Table(table)
	if !ok {
		return fmt.Errorf("%w: %s", catalog.ErrTableNotFound, table)
	}
	pos := tab.Schema().ColPos(oldName)
	if pos < 0 {
		return fmt.Errorf("%w: %s.%s", catalog.ErrColumnNotFound, table, oldName)
	}
	if err := e.cat.RenameColumn(table, oldName, newName); err != nil {
		return err
	}
	affected := tab.Constraints().ContainingColumn(pos)
	for _, r := range e.referencingConstraints(tab) {
		if r.ContainsRefColumn(pos) {
			affected = append(affected, r)
		}
	}
	if err := rebuildAll(affected); err != nil {
		if rerr := e.cat.RenameColumn(table, newName, oldName); rerr == nil {
			_ = rebuildAll(affected)
		}
		return err
	}
	return nil
}

// Constraints lists a table's own constraints in validation order.
func (e *Engine) Constraints(table string) ([]constraint.Constraint, error) {
	tab, ok := e.cat.Table(table)
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrTableNotFound, table)
	}
	return tab.Constraints().All(), nil
}

// referencingConstraints returns foreign keys on other tables whose
// referenced table is tab.
func (e *Engine) referencingConstraints(tab *catalog.Table) []*constraint.Referential {
	var out []*constraint.Referential
	for _, other := range e.cat.Tables() {
		for _, c := range other.Constraints().All() {
			r, ok := c.(*constraint.Referential)
			if !ok || r.Table().ID() == tab.ID() {
				continue
			}
			if ref := r.RefTable(); ref != nil && ref.ID() == tab.ID() {
				out = append(out, r)
			}
		}
	}
	return out
}

// mutationConstraints is the full list consulted for a mutation of tab: its
// own set plus foreign keys of other tables referencing it.
func (e *Engine) mutationConstraints(tab *catalog.Table) []constraint.Constraint {
	return append(tab.Constraints().All(), toConstraints(e.referencingConstraints(tab))...)
}

func toConstraints(rs []*constraint.Referential) []constraint.Constraint {
	out := make([]constraint.Constraint, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}

func rebuildAll(cs []constraint.Constraint) error {
	for _, c := range cs {
		if err := c.Rebuild(); err != nil {
			return err
		}
	}
	return nil
}
