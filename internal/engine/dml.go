package engine

import (
	"errors"
	"fmt"

	"github.com/yudis/h2database/internal/catalog"
	"github.com/yudis/h2database/internal/constraint"
	"github.com/yudis/h2database/internal/index"
	"github.com/yudis/h2database/internal/record"
	"github.com/yudis/h2database/internal/session"
)

// Insert validates and applies a new row:
// before-phase constraints -> heap + index apply -> after-phase constraints.
// Any failure removes the applied change again.
func (e *Engine) Insert(sess *session.Session, table string, values []any) (record.TID, error) {
	tab, ok := e.cat.Table(table)
	if !ok {
		return record.TID{}, fmt.Errorf("%w: %s", catalog.ErrTableNotFound, table)
	}
	vals, err := coerceValues(tab.Schema(), values)
	if err != nil {
		return record.TID{}, err
	}
	cs := e.mutationConstraints(tab)
	newRow := record.Row{Values: vals}

	if err := e.val.ValidateBefore(sess, tab, nil, &newRow, cs); err != nil {
		return record.TID{}, err
	}

	tid, err := tab.Store().Insert(vals)
	if err != nil {
		return record.TID{}, err
	}
	newRow.TID = tid

	var applied []*index.Index
	undo := func() {
		for _, ix := range applied {
			ix.Remove(projectSpec(ix, vals), tid)
		}
		_ = tab.Store().Delete(tid)
	}
	for _, ix := range tab.Indexes() {
		if err := ix.Insert(projectSpec(ix, vals), tid); err != nil {
			undo()
			return record.TID{}, e.indexError(tab, ix, err)
		}
		applied = append(applied, ix)
	}

	if err := e.val.ValidateAfter(sess, tab, nil, &newRow, cs); err != nil {
		undo()
		return record.TID{}, err
	}
	return tid, nil
}

// Update validates and applies an in-place row change. Referential
// constraints of referencing tables run in the before phase; CASCADE and
// SET NULL actions they signal are executed here, after the parent row is
// applied, through normal validated updates of the referencing rows.
func (e *Engine) Update(sess *session.Session, table string, tid record.TID, values []any) error {
	tab, ok := e.cat.Table(table)
	if !ok {
		return fmt.Errorf("%w: %s", catalog.ErrTableNotFound, table)
	}
	oldVals, err := tab.Store().Get(tid)
	if err != nil {
		return err
	}
	vals, err := coerceValues(tab.Schema(), values)
	if err != nil {
		return err
	}
	cs := e.mutationConstraints(tab)
	oldRow := record.Row{TID: tid, Values: oldVals}
	newRow := record.Row{TID: tid, Values: vals}

	cascades, err := e.runBefore(sess, tab, &oldRow, &newRow, cs)
	if err != nil {
		return err
	}

	if err := e.applyUpdate(tab, tid, oldVals, vals); err != nil {
		return err
	}
	undo := func() {
		_ = e.applyUpdate(tab, tid, vals, oldVals)
	}

	for _, ce := range cascades {
		if err := e.executeCascade(sess, cs, ce, &newRow); err != nil {
			undo()
			return err
		}
	}

	if err := e.val.ValidateAfter(sess, tab, &oldRow, &newRow, cs); err != nil {
		undo()
		return err
	}
	return nil
}

// Delete validates and removes a row. Cascading actions signalled by
// referencing tables are executed first, then the before phase is re-run
// against the cleaned-up state.
func (e *Engine) Delete(sess *session.Session, table string, tid record.TID) error {
	tab, ok := e.cat.Table(table)
	if !ok {
		return fmt.Errorf("%w: %s", catalog.ErrTableNotFound, table)
	}
	oldVals, err := tab.Store().Get(tid)
	if err != nil {
		return err
	}
	cs := e.mutationConstraints(tab)
	oldRow := record.Row{TID: tid, Values: oldVals}

	// Cascades mutate referencing rows; each pass re-validates until the
	// before phase comes back clean or refuses the delete.
	for {
		cascades, err := e.runBefore(sess, tab, &oldRow, nil, cs)
		if err != nil {
			return err
		}
		if len(cascades) == 0 {
			break
		}
		for _, ce := range cascades {
			if err := e.executeCascade(sess, cs, ce, nil); err != nil {
				return err
			}
		}
	}

	for _, ix := range tab.Indexes() {
		ix.Remove(projectSpec(ix, oldVals), tid)
	}
	if err := tab.Store().Delete(tid); err != nil {
		return err
	}
	return e.val.ValidateAfter(sess, tab, &oldRow, nil, cs)
}

// runBefore runs the before phase, separating cascade signals from hard
// failures. A hard failure aborts immediately.
func (e *Engine) runBefore(sess *session.Session, tab *catalog.Table, oldRow, newRow *record.Row, cs []constraint.Constraint) ([]*constraint.CascadeRequiredError, error) {
	before, _ := e.val.Partition(cs)
	var cascades []*constraint.CascadeRequiredError
	for _, c := range before {
		err := c.CheckRow(sess, tab, oldRow, newRow)
		if err == nil {
			continue
		}
		var ce *constraint.CascadeRequiredError
		if errors.As(err, &ce) {
			cascades = append(cascades, ce)
			continue
		}
		return nil, err
	}
	return cascades, nil
}

// executeCascade performs the action a referential constraint signalled:
// delete or fix up the referencing rows through normal validated mutations.
// newParent is the applied parent row for an update, nil for a delete.
func (e *Engine) executeCascade(sess *session.Session, cs []constraint.Constraint, ce *constraint.CascadeRequiredError, newParent *record.Row) error {
	r := findReferential(cs, ce.Constraint)
	if r == nil {
		return fmt.Errorf("%w: %s", ErrConstraintNotFound, ce.Constraint)
	}
	refTab, ok := e.cat.Table(r.Table().Name())
	if !ok {
		return fmt.Errorf("%w: %s", catalog.ErrTableNotFound, r.Table().Name())
	}
	e.log.Info("engine: executing cascade",
		"constraint", ce.Constraint, "action", ce.Action.String(), "rows", len(ce.Rows))

	var newKey []any
	if newParent != nil {
		newKey = newParent.Project(r.RefColumns())
	}
	for _, tid := range ce.Rows {
		if ce.Action == constraint.Cascade && newParent == nil {
			if err := e.Delete(sess, refTab.Name(), tid); err != nil {
				return err
			}
			continue
		}
		vals, err := refTab.Store().Get(tid)
		if err != nil {
			return err
		}
		for i, col := range r.Columns() {
			if ce.Action == constraint.SetNull {
				vals[col] = nil
			} else {
				vals[col] = newKey[i]
			}
		}
		if err := e.Update(sess, refTab.Name(), tid, vals); err != nil {
			return err
		}
	}
	return nil
}

// applyUpdate writes the new values and keeps every index in step. A unique
// conflict on an index rolls back the entries already moved.
func (e *Engine) applyUpdate(tab *catalog.Table, tid record.TID, oldVals, newVals []any) error {
	if err := tab.Store().Update(tid, newVals); err != nil {
		return err
	}
	var moved []*index.Index
	for _, ix := range tab.Indexes() {
		oldKey := projectSpec(ix, oldVals)
		newKey := projectSpec(ix, newVals)
		if record.CompareKeys(oldKey, newKey) == 0 {
			continue
		}
		ix.Remove(oldKey, tid)
		if err := ix.Insert(newKey, tid); err != nil {
			_ = ix.Insert(oldKey, tid)
			for _, prev := range moved {
				prev.Remove(projectSpec(prev, newVals), tid)
				_ = prev.Insert(projectSpec(prev, oldVals), tid)
			}
			_ = tab.Store().Update(tid, oldVals)
			return e.indexError(tab, ix, err)
		}
		moved = append(moved, ix)
	}
	return nil
}

// indexError maps an authoritative duplicate-key rejection onto the
// constraint backed by that index, so callers see one error taxonomy.
func (e *Engine) indexError(tab *catalog.Table, ix *index.Index, err error) error {
	if !errors.Is(err, index.ErrDuplicateKey) {
		return err
	}
	for _, c := range tab.Constraints().All() {
		if c.UsesIndex(ix) {
			return &constraint.Violation{
				Constraint: c.Name(),
				Kind:       c.Kind(),
				Table:      tab.Name(),
				Detail:     err.Error(),
			}
		}
	}
	return err
}

func findReferential(cs []constraint.Constraint, name string) *constraint.Referential {
	for _, c := range cs {
		if r, ok := c.(*constraint.Referential); ok && r.Name() == name {
			return r
		}
	}
	return nil
}

func projectSpec(ix *index.Index, vals []any) []any {
	cols := ix.Spec().Columns
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = vals[c]
	}
	return out
}

// coerceValues normalizes literals to the schema's storage types and
// enforces NOT NULL column metadata. Constraint checks run on the coerced
// values.
func coerceValues(sch record.Schema, raw []any) ([]any, error) {
	if len(raw) != sch.NumCols() {
		return nil, fmt.Errorf("engine: insert values count %d != schema %d", len(raw), sch.NumCols())
	}
	out := make([]any, len(raw))
	for i := range raw {
		v := raw[i]
		col := sch.Cols[i]
		if v == nil {
			if !col.Nullable {
				return nil, fmt.Errorf("engine: column %s is NOT NULL", col.Name)
			}
			out[i] = nil
			continue
		}
		switch col.Type {
		case record.ColInt32, record.ColInt64:
			switch x := v.(type) {
			case int64:
				out[i] = x
			case int:
				out[i] = int64(x)
			case int32:
				out[i] = int64(x)
			default:
				return nil, fmt.Errorf("engine: column %s expects %s, got %T", col.Name, col.Type, v)
			}
		case record.ColFloat64:
			switch x := v.(type) {
			case float64:
				out[i] = x
			case int:
				out[i] = float64(x)
			case int64:
				out[i] = float64(x)
			default:
				return nil, fmt.Errorf("engine: column %s expects %s, got %T", col.Name, col.Type, v)
			}
		case record.ColText:
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("engine: column %s expects %s, got %T", col.Name, col.Type, v)
			}
			out[i] = s
		case record.ColBool:
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("engine: column %s expects %s, got %T", col.Name, col.Type, v)
			}
			out[i] = b
		case record.ColBytes:
			b, ok := v.([]byte)
			if !ok {
				return nil, fmt.Errorf("engine: column %s expects %s, got %T", col.Name, col.Type, v)
			}
			out[i] = b
		default:
			return nil, fmt.Errorf("engine: unsupported column type %v", col.Type)
		}
	}
	return out, nil
}
