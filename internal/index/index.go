// Package index provides the physical structures backing constraints: ordered
// composite-key indexes with equality lookup and insertion-time uniqueness
// enforcement. The tree itself is the final arbiter of uniqueness; constraint
// probes are an early fast-fail on top of it.
package index

import (
	"errors"
	"fmt"

	"github.com/google/btree"

	"github.com/yudis/h2database/internal/record"
)

const treeDegree = 32

var (
	ErrDuplicateKey = errors.New("index: duplicate key")
	ErrDropped      = errors.New("index: index is dropped")
)

// Spec describes an index over a table's column ordinals.
type Spec struct {
	Name    string `json:"name"`
	Table   string `json:"table"`
	Columns []int  `json:"columns"`
	Unique  bool   `json:"unique"`
}

// Index is an in-memory ordered index. Entries are (composite key, TID);
// the TID is part of the ordering so duplicate keys coexist on non-unique
// indexes and removals are exact.
type Index struct {
	spec    Spec
	tree    *btree.BTree
	dropped bool
}

type item struct {
	key []any
	tid record.TID
}

func (it item) Less(than btree.Item) bool {
	o := than.(item)
	if c := record.CompareKeys(it.key, o.key); c != 0 {
		return c < 0
	}
	if it.tid.PageID != o.tid.PageID {
		return it.tid.PageID < o.tid.PageID
	}
	return it.tid.Slot < o.tid.Slot
}

func New(spec Spec) *Index {
	return &Index{
		spec: spec,
		tree: btree.New(treeDegree),
	}
}

func (ix *Index) Spec() Spec   { return ix.spec }
func (ix *Index) Name() string { return ix.spec.Name }
func (ix *Index) Unique() bool { return ix.spec.Unique }
func (ix *Index) Len() int     { return ix.tree.Len() }

// Columns reports whether the index covers exactly the given ordinals,
// in order.
func (ix *Index) Columns(cols []int) bool {
	if len(cols) != len(ix.spec.Columns) {
		return false
	}
	for i, c := range cols {
		if ix.spec.Columns[i] != c {
			return false
		}
	}
	return true
}

// Insert adds an entry. On a unique index a NULL-free key that is already
// present under a different TID is rejected with ErrDuplicateKey.
func (ix *Index) Insert(key []any, tid record.TID) error {
	if ix.dropped {
		return fmt.Errorf("%w: %s", ErrDropped, ix.spec.Name)
	}
	if ix.spec.Unique && !KeyHasNull(key) {
		if ix.HasOther(key, tid) {
			return fmt.Errorf("%w: index %s, key (%s)",
				ErrDuplicateKey, ix.spec.Name, record.FormatValues(key))
		}
	}
	ix.tree.ReplaceOrInsert(item{key: cloneKey(key), tid: tid})
	return nil
}

// Remove deletes the exact (key, tid) entry if present.
func (ix *Index) Remove(key []any, tid record.TID) {
	if ix.dropped {
		return
	}
	ix.tree.Delete(item{key: key, tid: tid})
}

// Lookup returns the TIDs of all entries with the given key.
func (ix *Index) Lookup(key []any) []record.TID {
	var out []record.TID
	ix.ascendKey(key, func(tid record.TID) bool {
		out = append(out, tid)
		return true
	})
	return out
}

// HasOther reports whether any entry holds the key under a TID other than
// self. Used by unique probes after the mutated row is already indexed.
func (ix *Index) HasOther(key []any, self record.TID) bool {
	found := false
	ix.ascendKey(key, func(tid record.TID) bool {
		if tid != self {
			found = true
			return false
		}
		return true
	})
	return found
}

func (ix *Index) ascendKey(key []any, fn func(record.TID) bool) {
	ix.tree.AscendGreaterOrEqual(item{key: key}, func(i btree.Item) bool {
		it := i.(item)
		if record.CompareKeys(it.key, key) != 0 {
			return false
		}
		return fn(it.tid)
	})
}

// Drop releases the index contents. Further inserts fail; the owner is
// expected to discard the handle.
func (ix *Index) Drop() {
	ix.tree.Clear(false)
	ix.dropped = true
}

func (ix *Index) Dropped() bool { return ix.dropped }

// KeyHasNull reports whether any key component is SQL NULL. A unique key
// containing NULL never collides.
func KeyHasNull(key []any) bool {
	for _, v := range key {
		if v == nil {
			return true
		}
	}
	return false
}

func cloneKey(key []any) []any {
	out := make([]any, len(key))
	copy(out, key)
	return out
}
