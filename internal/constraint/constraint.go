// Package constraint implements table integrity rules: CHECK, PRIMARY KEY,
// UNIQUE and REFERENTIAL constraints, their fixed validation order, live
// per-mutation checking and the one-time scan of existing data when a
// constraint is added to a table that already holds rows.
package constraint

import (
	"context"

	"github.com/yudis/h2database/internal/index"
	"github.com/yudis/h2database/internal/record"
	"github.com/yudis/h2database/internal/session"
)

// Kind is the constraint variant, fixed at construction.
type Kind uint8

const (
	KindCheck Kind = iota
	KindPrimaryKey
	KindUnique
	KindReferential
)

func (k Kind) String() string {
	switch k {
	case KindCheck:
		return "CHECK"
	case KindPrimaryKey:
		return "PRIMARY KEY"
	case KindUnique:
		return "UNIQUE"
	case KindReferential:
		return "REFERENTIAL"
	default:
		return "UNKNOWN"
	}
}

// Priority is the validation order between kinds. Cheap local rules first,
// key constraints before referential ones. Constraints of equal priority
// keep their registration order (Set sorts stably).
func (k Kind) Priority() int {
	switch k {
	case KindCheck:
		return 0
	case KindPrimaryKey:
		return 1
	case KindUnique:
		return 2
	default:
		return 3
	}
}

// Table is what the constraint layer needs from the catalog. The catalog's
// table type implements it; tests use lightweight fakes.
type Table interface {
	ID() int
	Name() string
	Schema() record.Schema
	Temporary() bool
	RowCount() int
	Scan(ctx context.Context, fn func(row record.Row) error) error

	// UniqueIndexOn returns a unique index covering exactly the given
	// column ordinals, or nil.
	UniqueIndexOn(cols []int) *index.Index
}

// Resolver looks tables up by id. Referential constraints hold the
// referenced table as an id, never a pointer, so table lifetime stays with
// the catalog and a dead reference is detectable instead of dangling.
type Resolver interface {
	TableByID(id int) (Table, bool)
}

// Constraint is one integrity rule bound to an owning table.
type Constraint interface {
	ID() int
	Name() string
	Kind() Kind
	Table() Table
	RefTable() Table
	Temporary() bool

	// CheckRow validates a single mutation. oldRow is nil for insert,
	// newRow is nil for delete, both are set for update. A failure is a
	// *Violation (or *CascadeRequiredError for referential actions);
	// no state is mutated either way.
	CheckRow(sess *session.Session, tab Table, oldRow, newRow *record.Row) error

	// CheckExistingData runs once when the constraint is added to a table
	// that already contains rows, treating every row as a synthetic insert.
	CheckExistingData(sess *session.Session) error

	// IsBefore reports whether the constraint must be validated before the
	// physical row change (referential) or after it (check, unique keys).
	IsBefore() bool

	UsesIndex(ix *index.Index) bool
	OwnsIndex(ix *index.Index) bool
	SetIndexOwner(ix *index.Index)

	// UniqueIndex returns the backing index whose lifecycle the constraint
	// participates in: the unique key index for PRIMARY KEY/UNIQUE, the
	// referencing-column index for REFERENTIAL (not necessarily unique;
	// the referenced table's unique index is borrowed separately), and nil
	// for CHECK.
	UniqueIndex() *index.Index

	ContainsColumn(col int) bool
	CreateSQLWithoutIndexes() string

	// Rebuild refreshes cached SQL text and name bindings after the owning
	// or referenced table (or a column) was renamed. Semantics never change;
	// an unresolvable name is reported as *UnresolvableReferenceError.
	Rebuild() error
}

// base carries the state shared by all variants.
type base struct {
	id       int
	name     string
	tab      Table
	temp     bool
	idx      *index.Index
	idxOwned bool

	createSQL string
}

func newBase(id int, name string, tab Table) base {
	return base{id: id, name: name, tab: tab, temp: tab.Temporary()}
}

func (b *base) ID() int         { return b.id }
func (b *base) Name() string    { return b.name }
func (b *base) Table() Table    { return b.tab }
func (b *base) RefTable() Table { return b.tab }
func (b *base) Temporary() bool { return b.temp }

func (b *base) UsesIndex(ix *index.Index) bool {
	return b.idx != nil && b.idx == ix
}

func (b *base) OwnsIndex(ix *index.Index) bool {
	return b.idxOwned && b.idx == ix
}

// SetIndexOwner rebinds the backing index and takes over its lifecycle.
// Idempotent: re-setting the same index changes nothing, so the index is
// never double-dropped.
func (b *base) SetIndexOwner(ix *index.Index) {
	if b.idx == ix && b.idxOwned {
		return
	}
	b.idx = ix
	b.idxOwned = true
}

func (b *base) UniqueIndex() *index.Index { return b.idx }

func (b *base) CreateSQLWithoutIndexes() string { return b.createSQL }
