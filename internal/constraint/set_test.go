package constraint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yudis/h2database/internal/expr"
	"github.com/yudis/h2database/internal/index"
	"github.com/yudis/h2database/internal/record"
	"github.com/yudis/h2database/internal/session"
)

// stub satisfies Constraint with just a name and kind; enough for ordering
// and validator plumbing tests.
type stub struct {
	base
	kind   Kind
	before bool
	called *[]string
}

func newStub(name string, kind Kind, before bool, called *[]string) *stub {
	tab := usersTable()
	s := &stub{base: newBase(0, name, tab), kind: kind, before: before, called: called}
	return s
}

func (s *stub) Kind() Kind     { return s.kind }
func (s *stub) IsBefore() bool { return s.before }

func (s *stub) CheckRow(*session.Session, Table, *record.Row, *record.Row) error {
	if s.called != nil {
		*s.called = append(*s.called, s.name)
	}
	return nil
}

func (s *stub) CheckExistingData(*session.Session) error { return nil }
func (s *stub) ContainsColumn(int) bool                  { return false }
func (s *stub) Rebuild() error                           { return nil }
func (s *stub) UniqueIndex() *index.Index                { return nil }

func names(cs []Constraint) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name()
	}
	return out
}

func TestSet_PriorityOrderIndependentOfCreationOrder(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Add(newStub("FK", KindReferential, true, nil)))
	require.NoError(t, s.Add(newStub("U", KindUnique, false, nil)))
	require.NoError(t, s.Add(newStub("PK", KindPrimaryKey, false, nil)))
	require.NoError(t, s.Add(newStub("CHK", KindCheck, false, nil)))

	require.Equal(t, []string{"CHK", "PK", "U", "FK"}, names(s.All()))
	// repeated calls return the same order
	require.Equal(t, []string{"CHK", "PK", "U", "FK"}, names(s.All()))
}

func TestSet_EqualPriorityKeepsRegistrationOrder(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Add(newStub("C2", KindCheck, false, nil)))
	require.NoError(t, s.Add(newStub("C1", KindCheck, false, nil)))
	require.NoError(t, s.Add(newStub("C3", KindCheck, false, nil)))

	require.Equal(t, []string{"C2", "C1", "C3"}, names(s.All()))
}

func TestSet_DuplicateName(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Add(newStub("X", KindCheck, false, nil)))
	require.ErrorIs(t, s.Add(newStub("X", KindUnique, false, nil)), ErrDuplicateConstraintName)
}

func TestSet_RemoveAndGet(t *testing.T) {
	s := NewSet()
	c := newStub("X", KindCheck, false, nil)
	require.NoError(t, s.Add(c))

	require.Same(t, Constraint(c), s.Get("X"))
	require.Same(t, Constraint(c), s.Remove("X"))
	require.Nil(t, s.Get("X"))
	require.Nil(t, s.Remove("X"))
	require.Zero(t, s.Len())
}

func TestValidator_PartitionAndOrder(t *testing.T) {
	var called []string
	cs := []Constraint{
		newStub("FK", KindReferential, true, &called),
		newStub("U", KindUnique, false, &called),
		newStub("CHK", KindCheck, false, &called),
		newStub("PK", KindPrimaryKey, false, &called),
	}

	v := NewValidator()
	before, after := v.Partition(cs)
	require.Equal(t, []string{"FK"}, names(before))
	require.Equal(t, []string{"CHK", "PK", "U"}, names(after))

	sess := newSession(t)
	tab := usersTable()
	row := record.Row{Values: []any{int64(1), int64(2), "x"}}
	require.NoError(t, v.ValidateBefore(sess, tab, nil, &row, cs))
	require.NoError(t, v.ValidateAfter(sess, tab, nil, &row, cs))
	require.Equal(t, []string{"FK", "CHK", "PK", "U"}, called)
}

func TestValidator_FirstViolationAborts(t *testing.T) {
	tab := usersTable()
	chk, err := NewCheck(1, "NEG", tab, expr.Cmp(expr.Col("AGE"), expr.Ge, expr.Lit(int64(0))))
	require.NoError(t, err)

	var called []string
	cs := []Constraint{chk, newStub("U", KindUnique, false, &called)}

	v := NewValidator()
	row := record.Row{Values: []any{int64(1), int64(-1), "x"}}
	var viol *Violation
	require.ErrorAs(t, v.ValidateAfter(newSession(t), tab, nil, &row, cs), &viol)
	// the later unique stub never ran
	require.Empty(t, called)
}
