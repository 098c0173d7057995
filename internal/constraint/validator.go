package constraint

import (
	"sort"

	"github.com/yudis/h2database/internal/record"
	"github.com/yudis/h2database/internal/session"
)

// Validator runs a table's constraints against one row mutation. The caller
// drives the two phases around the physical change:
//
//	before-phase constraints -> physical row change -> after-phase constraints
//
// A failure in either phase aborts the mutation; the Validator only signals,
// it never rolls anything back (that is the transaction layer's job).
type Validator struct{}

func NewValidator() *Validator { return &Validator{} }

// Partition splits constraints into the before and after groups, each in
// priority order (stable, so equal-priority constraints keep their relative
// order from the input).
func (v *Validator) Partition(cs []Constraint) (before, after []Constraint) {
	for _, c := range cs {
		if c.IsBefore() {
			before = append(before, c)
		} else {
			after = append(after, c)
		}
	}
	sortByPriority(before)
	sortByPriority(after)
	return before, after
}

// ValidateBefore runs the before-phase constraints against the pre-mutation
// state. The first failure is returned.
func (v *Validator) ValidateBefore(sess *session.Session, tab Table, oldRow, newRow *record.Row, cs []Constraint) error {
	before, _ := v.Partition(cs)
	return runAll(sess, tab, oldRow, newRow, before)
}

// ValidateAfter runs the after-phase constraints against the applied row.
func (v *Validator) ValidateAfter(sess *session.Session, tab Table, oldRow, newRow *record.Row, cs []Constraint) error {
	_, after := v.Partition(cs)
	return runAll(sess, tab, oldRow, newRow, after)
}

func runAll(sess *session.Session, tab Table, oldRow, newRow *record.Row, cs []Constraint) error {
	for _, c := range cs {
		if err := c.CheckRow(sess, tab, oldRow, newRow); err != nil {
			return err
		}
	}
	return nil
}

func sortByPriority(cs []Constraint) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].Kind().Priority() < cs[j].Kind().Priority()
	})
}
