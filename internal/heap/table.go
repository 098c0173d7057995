// Package heap stores table rows in memory, addressed by TID the same way a
// page heap would be. It stands in for the physical storage engine; the
// constraint layer only sees it through scans and point lookups.
package heap

import (
	"context"
	"errors"
	"fmt"

	"github.com/yudis/h2database/internal/record"
)

// SlotsPerPage bounds a logical page. Small enough that scans hit the
// context check often, large enough to keep TIDs compact.
const SlotsPerPage = 256

var (
	ErrRowNotFound = errors.New("heap: row not found")
	ErrBadArity    = errors.New("heap: value count does not match schema")
)

type slot struct {
	used   bool
	values []any
}

// Table is an in-memory heap relation: name, schema, pages of slots.
type Table struct {
	Name   string
	Schema record.Schema

	pages [][]slot
	count int
}

func NewTable(name string, schema record.Schema) *Table {
	return &Table{Name: name, Schema: schema}
}

// Count returns the number of live rows.
func (t *Table) Count() int { return t.count }

// Insert appends values to the last page, allocating a new page when full,
// and returns the new row's TID.
func (t *Table) Insert(values []any) (record.TID, error) {
	if len(values) != t.Schema.NumCols() {
		return record.TID{}, fmt.Errorf("%w: got %d, want %d",
			ErrBadArity, len(values), t.Schema.NumCols())
	}
	if len(t.pages) == 0 || len(t.pages[len(t.pages)-1]) >= SlotsPerPage {
		t.pages = append(t.pages, make([]slot, 0, SlotsPerPage))
	}
	pageID := uint32(len(t.pages) - 1)
	page := t.pages[pageID]
	cp := make([]any, len(values))
	copy(cp, values)
	t.pages[pageID] = append(page, slot{used: true, values: cp})
	t.count++
	return record.TID{PageID: pageID, Slot: uint16(len(page))}, nil
}

// Get returns a copy of the row at tid.
func (t *Table) Get(tid record.TID) ([]any, error) {
	s, err := t.slotAt(tid)
	if err != nil {
		return nil, err
	}
	cp := make([]any, len(s.values))
	copy(cp, s.values)
	return cp, nil
}

// Update replaces the row at tid in place (the TID is stable across updates).
func (t *Table) Update(tid record.TID, values []any) error {
	if len(values) != t.Schema.NumCols() {
		return fmt.Errorf("%w: got %d, want %d",
			ErrBadArity, len(values), t.Schema.NumCols())
	}
	s, err := t.slotAt(tid)
	if err != nil {
		return err
	}
	cp := make([]any, len(values))
	copy(cp, values)
	s.values = cp
	return nil
}

// Delete frees the slot at tid. The slot is not reused; TIDs stay unique
// for the table's lifetime.
func (t *Table) Delete(tid record.TID) error {
	s, err := t.slotAt(tid)
	if err != nil {
		return err
	}
	s.used = false
	s.values = nil
	t.count--
	return nil
}

// Scan visits every live row in TID order. The context is checked once per
// page so long scans abort promptly when the session is cancelled.
func (t *Table) Scan(ctx context.Context, fn func(row record.Row) error) error {
	for pageID := range t.pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		for slotID := range t.pages[pageID] {
			s := &t.pages[pageID][slotID]
			if !s.used {
				continue
			}
			row := record.Row{
				TID:    record.TID{PageID: uint32(pageID), Slot: uint16(slotID)},
				Values: s.values,
			}
			if err := fn(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Table) slotAt(tid record.TID) (*slot, error) {
	if int(tid.PageID) >= len(t.pages) || int(tid.Slot) >= len(t.pages[tid.PageID]) {
		return nil, fmt.Errorf("%w: page=%d slot=%d", ErrRowNotFound, tid.PageID, tid.Slot)
	}
	s := &t.pages[tid.PageID][tid.Slot]
	if !s.used {
		return nil, fmt.Errorf("%w: page=%d slot=%d", ErrRowNotFound, tid.PageID, tid.Slot)
	}
	return s, nil
}
