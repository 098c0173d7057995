package constraint

import (
	"fmt"
	"slices"

	"github.com/yudis/h2database/internal/expr"
	"github.com/yudis/h2database/internal/index"
	"github.com/yudis/h2database/internal/record"
	"github.com/yudis/h2database/internal/session"
)

// Referential is a foreign key: the owning (referencing) table's key
// projection must match an existing key in the referenced table, or contain
// a NULL component (MATCH SIMPLE).
//
// It is consulted from both sides. On the owning side it checks inserts and
// updates against the referenced table's unique index. On the referenced
// side it runs in the before phase: it must see the pre-mutation state to
// detect rows still pointing at the old key. It never mutates rows itself;
// CASCADE and SET NULL are signalled to the caller via CascadeRequiredError.
//
// The referenced table is held as a catalog id, resolved on every use, so
// its lifetime is governed solely by the catalog.
type Referential struct {
	base
	cols     []int // FK columns in the owning table
	refID    int
	refCols  []int // key columns in the referenced table
	refName  string
	refIndex *index.Index // unique index of the referenced table (borrowed)
	resolver Resolver

	onDelete RefAction
	onUpdate RefAction
}

func NewReferential(
	id int,
	name string,
	tab Table,
	cols []int,
	resolver Resolver,
	refID int,
	refCols []int,
	fkIndex *index.Index,
	owned bool,
	onDelete, onUpdate RefAction,
) (*Referential, error) {
	r := &Referential{
		base:     newBase(id, name, tab),
		cols:     slices.Clone(cols),
		refID:    refID,
		refCols:  slices.Clone(refCols),
		resolver: resolver,
		onDelete: onDelete,
		onUpdate: onUpdate,
	}
	r.idx = fkIndex
	r.idxOwned = owned
	if err := r.Rebuild(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Referential) Kind() Kind { return KindReferential }

// IsBefore: referenced-side checks need the pre-mutation state.
func (r *Referential) IsBefore() bool { return true }

// RefTable resolves the referenced table, or nil if it no longer exists.
func (r *Referential) RefTable() Table {
	ref, ok := r.resolver.TableByID(r.refID)
	if !ok {
		return nil
	}
	return ref
}

func (r *Referential) OnDelete() RefAction { return r.onDelete }
func (r *Referential) OnUpdate() RefAction { return r.onUpdate }

func (r *Referential) CheckRow(sess *session.Session, tab Table, oldRow, newRow *record.Row) error {
	if tab.ID() == r.tab.ID() {
		if err := r.checkOwningRow(newRow); err != nil {
			return err
		}
		if r.refID != r.tab.ID() {
			return nil
		}
		// Self-referencing: a mutation of the owning table is also a
		// mutation of the referenced table, so both sides apply.
	}
	return r.checkReferencedRow(oldRow, newRow)
}

// checkOwningRow verifies an inserted/updated referencing row points at an
// existing parent key.
func (r *Referential) checkOwningRow(newRow *record.Row) error {
	if newRow == nil {
		// deleting a referencing row never breaks the reference
		return nil
	}
	key := newRow.Project(r.cols)
	if index.KeyHasNull(key) {
		// MATCH SIMPLE: a NULL component satisfies the reference vacuously
		return nil
	}
	ref, ok := r.resolver.TableByID(r.refID)
	if !ok {
		return &UnresolvableReferenceError{Constraint: r.name, Ref: fmt.Sprintf("table id %d", r.refID)}
	}
	ix := r.refIndex
	if ix == nil || ix.Dropped() {
		ix = ref.UniqueIndexOn(r.refCols)
		if ix == nil {
			return &UnresolvableReferenceError{
				Constraint: r.name,
				Ref:        fmt.Sprintf("unique index on %s(%s)", ref.Name(), expr.ColumnNames(ref.Schema(), r.refCols)),
			}
		}
		r.refIndex = ix
	}
	// A self-referencing row may satisfy the constraint with its own key,
	// which is not in the index yet during the before phase.
	if r.refID == r.tab.ID() && record.CompareKeys(key, newRow.Project(r.refCols)) == 0 {
		return nil
	}
	if len(ix.Lookup(key)) == 0 {
		return violation(r, fmt.Sprintf("referenced row not found in %s for key (%s)",
			r.refName, record.FormatValues(key)))
	}
	return nil
}

// checkReferencedRow runs when a row of the referenced table is deleted or
// its key updated. Referencing rows still pointing at the old key either
// block the change (RESTRICT) or require a cascading action by the caller.
func (r *Referential) checkReferencedRow(oldRow, newRow *record.Row) error {
	if oldRow == nil {
		// insert into the referenced table cannot orphan anyone
		return nil
	}
	oldKey := oldRow.Project(r.refCols)
	if index.KeyHasNull(oldKey) {
		// a NULL key is never referenced under MATCH SIMPLE
		return nil
	}
	isUpdate := newRow != nil
	if isUpdate && record.CompareKeys(oldKey, newRow.Project(r.refCols)) == 0 {
		// key unchanged: nothing can dangle
		return nil
	}

	if r.idx == nil {
		return fmt.Errorf("constraint: %s constraint %q has no referencing index", r.Kind(), r.name)
	}
	// On a self-referencing table the mutated row may point at its own key.
	// It is not a surviving referencer when the row goes away with the key
	// (delete) or its foreign key moves off the old key together with it
	// (update). An update that keeps the foreign key on the old key leaves
	// the row dangling behind its own key change, so it counts.
	selfRef := r.refID == r.tab.ID()
	var refs []record.TID
	for _, tid := range r.idx.Lookup(oldKey) {
		if selfRef && tid == oldRow.TID {
			if !isUpdate || record.CompareKeys(newRow.Project(r.cols), oldKey) != 0 {
				continue
			}
		}
		refs = append(refs, tid)
	}
	if len(refs) == 0 {
		return nil
	}

	action := r.onDelete
	if isUpdate {
		action = r.onUpdate
	}
	if action == Restrict {
		return violation(r, fmt.Sprintf("row is still referenced by %s for key (%s)",
			r.tab.Name(), record.FormatValues(oldKey)))
	}
	return &CascadeRequiredError{
		Constraint: r.name,
		Action:     action,
		Rows:       refs,
		OldKey:     oldKey,
		Update:     isUpdate,
	}
}

// CheckExistingData validates every existing referencing row as a synthetic
// insert: each must point at a live parent key or carry a NULL component.
func (r *Referential) CheckExistingData(sess *session.Session) error {
	return r.tab.Scan(sess.Context(), func(row record.Row) error {
		return r.checkOwningRow(&row)
	})
}

// ContainsColumn reports membership against the owning table's FK columns.
func (r *Referential) ContainsColumn(col int) bool { return slices.Contains(r.cols, col) }

// ContainsRefColumn reports membership against the referenced key columns.
func (r *Referential) ContainsRefColumn(col int) bool { return slices.Contains(r.refCols, col) }

// Columns returns the FK column ordinals in the owning table.
func (r *Referential) Columns() []int { return slices.Clone(r.cols) }

// RefColumns returns the key column ordinals in the referenced table.
func (r *Referential) RefColumns() []int { return slices.Clone(r.refCols) }

func (r *Referential) Rebuild() error {
	ref, ok := r.resolver.TableByID(r.refID)
	if !ok {
		return &UnresolvableReferenceError{Constraint: r.name, Ref: fmt.Sprintf("table id %d", r.refID)}
	}
	if err := keyResolvable(r, r.cols, r.tab.Schema()); err != nil {
		return err
	}
	if err := keyResolvable(r, r.refCols, ref.Schema()); err != nil {
		return err
	}
	ix := ref.UniqueIndexOn(r.refCols)
	if ix == nil {
		return &UnresolvableReferenceError{
			Constraint: r.name,
			Ref:        fmt.Sprintf("unique index on %s(%s)", ref.Name(), expr.ColumnNames(ref.Schema(), r.refCols)),
		}
	}
	r.refIndex = ix
	r.refName = ref.Name()
	r.refreshSQL(ref)
	return nil
}

func (r *Referential) refreshSQL(ref Table) {
	sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY(%s) REFERENCES %s(%s)",
		r.tab.Name(), r.name,
		expr.ColumnNames(r.tab.Schema(), r.cols),
		ref.Name(),
		expr.ColumnNames(ref.Schema(), r.refCols))
	if r.onDelete != Restrict {
		sql += " ON DELETE " + r.onDelete.String()
	}
	if r.onUpdate != Restrict {
		sql += " ON UPDATE " + r.onUpdate.String()
	}
	r.createSQL = sql
}
