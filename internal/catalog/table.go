package catalog

import (
	"context"
	"fmt"
	"slices"

	"github.com/yudis/h2database/internal/constraint"
	"github.com/yudis/h2database/internal/heap"
	"github.com/yudis/h2database/internal/index"
	"github.com/yudis/h2database/internal/record"
)

// Table is a catalog relation: schema metadata, the row store, the physical
// indexes, and the table's constraint set. It implements constraint.Table.
type Table struct {
	id        int
	name      string
	temporary bool
	schema    record.Schema

	store       *heap.Table
	indexes     []*index.Index
	constraints *constraint.Set
}

var _ constraint.Table = (*Table)(nil)

func (t *Table) ID() int               { return t.id }
func (t *Table) Name() string          { return t.name }
func (t *Table) Temporary() bool       { return t.temporary }
func (t *Table) Schema() record.Schema { return t.schema }
func (t *Table) RowCount() int         { return t.store.Count() }

func (t *Table) Store() *heap.Table           { return t.store }
func (t *Table) Constraints() *constraint.Set { return t.constraints }
func (t *Table) Indexes() []*index.Index      { return slices.Clone(t.indexes) }

func (t *Table) Scan(ctx context.Context, fn func(row record.Row) error) error {
	return t.store.Scan(ctx, fn)
}

// AddIndex registers a physical index with the table.
func (t *Table) AddIndex(ix *index.Index) {
	t.indexes = append(t.indexes, ix)
}

// RemoveIndex detaches an index from the table. An index still used by a
// constraint cannot be removed; it must be detached from the constraint
// first (or dropped together with it).
func (t *Table) RemoveIndex(ix *index.Index) error {
	for _, c := range t.constraints.All() {
		if c.UsesIndex(ix) {
			return fmt.Errorf("catalog: index %s is used by constraint %s", ix.Name(), c.Name())
		}
	}
	for i, have := range t.indexes {
		if have == ix {
			t.indexes = slices.Delete(t.indexes, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrIndexNotFound, ix.Name())
}

// IndexOn returns an index covering exactly the given ordinals, or nil.
// Unique indexes are preferred so constraints borrow the strongest match.
func (t *Table) IndexOn(cols []int) *index.Index {
	var found *index.Index
	for _, ix := range t.indexes {
		if !ix.Columns(cols) {
			continue
		}
		if ix.Unique() {
			return ix
		}
		if found == nil {
			found = ix
		}
	}
	return found
}

// UniqueIndexOn returns a unique index covering exactly the given ordinals,
// or nil. Part of the constraint.Table contract.
func (t *Table) UniqueIndexOn(cols []int) *index.Index {
	for _, ix := range t.indexes {
		if ix.Unique() && ix.Columns(cols) {
			return ix
		}
	}
	return nil
}

// renameColumn updates schema metadata only; constraint rebuilds are driven
// by the engine, which owns the ordering of the two steps.
func (t *Table) renameColumn(oldName, newName string) error {
	pos := t.schema.ColPos(oldName)
	if pos < 0 {
		return fmt.Errorf("%w: %s.%s", ErrColumnNotFound, t.name, oldName)
	}
	if t.schema.ColPos(newName) >= 0 {
		return fmt.Errorf("%w: %s.%s", ErrColumnExists, t.name, newName)
	}
	t.schema = t.schema.Clone()
	t.schema.Cols[pos].Name = newName
	t.store.Schema = t.schema
	return nil
}
