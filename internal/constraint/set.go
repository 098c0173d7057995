package constraint

import (
	"slices"
	"sort"
)

// Set is the ordered collection of constraints owned by one table. Iteration
// order is the validation order: kinds by Priority, and within a kind the
// original registration order (Add sorts stably, so repeated calls are
// deterministic).
type Set struct {
	items []Constraint
}

func NewSet() *Set { return &Set{} }

// Add registers a constraint. The caller is responsible for schema-wide name
// uniqueness; Add only rejects a duplicate within this set.
func (s *Set) Add(c Constraint) error {
	if s.Get(c.Name()) != nil {
		return ErrDuplicateConstraintName
	}
	s.items = append(s.items, c)
	sort.SliceStable(s.items, func(i, j int) bool {
		return s.items[i].Kind().Priority() < s.items[j].Kind().Priority()
	})
	return nil
}

// Remove unregisters by name and returns the removed constraint, or nil.
func (s *Set) Remove(name string) Constraint {
	for i, c := range s.items {
		if c.Name() == name {
			s.items = slices.Delete(s.items, i, i+1)
			return c
		}
	}
	return nil
}

// Get returns the constraint with the given name, or nil.
func (s *Set) Get(name string) Constraint {
	for _, c := range s.items {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func (s *Set) Len() int { return len(s.items) }

// All returns the constraints in validation order. The slice is a copy.
func (s *Set) All() []Constraint {
	return slices.Clone(s.items)
}

// ContainingColumn returns the constraints whose definition involves the
// given column ordinal, in validation order.
func (s *Set) ContainingColumn(col int) []Constraint {
	var out []Constraint
	for _, c := range s.items {
		if c.ContainsColumn(col) {
			out = append(out, c)
		}
	}
	return out
}
