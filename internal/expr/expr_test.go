package expr

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yudis/h2database/internal/record"
)

func testSchema() record.Schema {
	return record.Schema{Cols: []record.Column{
		{Name: "ID", Type: record.ColInt64},
		{Name: "AGE", Type: record.ColInt64, Nullable: true},
		{Name: "NAME", Type: record.ColText, Nullable: true},
	}}
}

func row(vals ...any) record.Row {
	return record.Row{Values: vals}
}

func TestCompare_ThreeValuedLogic(t *testing.T) {
	e := Cmp(Col("AGE"), Ge, Lit(int64(0)))
	require.NoError(t, e.Bind(testSchema()))

	_, tb, err := e.Eval(row(int64(1), int64(30), "bob"))
	require.NoError(t, err)
	require.Equal(t, True, tb)

	_, tb, err = e.Eval(row(int64(1), int64(-1), "bob"))
	require.NoError(t, err)
	require.Equal(t, False, tb)

	// NULL compares to Unknown, never False
	_, tb, err = e.Eval(row(int64(1), nil, "bob"))
	require.NoError(t, err)
	require.Equal(t, Unknown, tb)
}

func TestLogic_UnknownPropagation(t *testing.T) {
	sch := testSchema()
	ageOK := Cmp(Col("AGE"), Ge, Lit(int64(0)))
	idOK := Cmp(Col("ID"), Gt, Lit(int64(0)))

	and := AndExpr(ageOK, idOK)
	require.NoError(t, and.Bind(sch))

	// UNKNOWN AND TRUE = UNKNOWN
	_, tb, err := and.Eval(row(int64(1), nil, nil))
	require.NoError(t, err)
	require.Equal(t, Unknown, tb)

	// UNKNOWN AND FALSE = FALSE
	_, tb, err = and.Eval(row(int64(0), nil, nil))
	require.NoError(t, err)
	require.Equal(t, False, tb)

	or := OrExpr(Cmp(Col("AGE"), Ge, Lit(int64(0))), Cmp(Col("ID"), Gt, Lit(int64(0))))
	require.NoError(t, or.Bind(sch))

	// UNKNOWN OR TRUE = TRUE
	_, tb, err = or.Eval(row(int64(1), nil, nil))
	require.NoError(t, err)
	require.Equal(t, True, tb)

	not := NotExpr(Cmp(Col("AGE"), Ge, Lit(int64(0))))
	require.NoError(t, not.Bind(sch))

	// NOT UNKNOWN = UNKNOWN
	_, tb, err = not.Eval(row(int64(1), nil, nil))
	require.NoError(t, err)
	require.Equal(t, Unknown, tb)
}

func TestIsNull(t *testing.T) {
	sch := testSchema()

	isNull := IsNullExpr(Col("NAME"))
	require.NoError(t, isNull.Bind(sch))
	_, tb, err := isNull.Eval(row(int64(1), int64(2), nil))
	require.NoError(t, err)
	require.Equal(t, True, tb)

	notNull := IsNotNullExpr(Col("NAME"))
	require.NoError(t, notNull.Bind(sch))
	_, tb, err = notNull.Eval(row(int64(1), int64(2), nil))
	require.NoError(t, err)
	require.Equal(t, False, tb)
}

func TestSQLText(t *testing.T) {
	e := AndExpr(Cmp(Col("AGE"), Ge, Lit(int64(0))), IsNotNullExpr(Col("NAME")))
	require.NoError(t, e.Bind(testSchema()))
	require.Equal(t, "(AGE >= 0) AND (NAME IS NOT NULL)", e.SQL())
}

func TestBind_UnknownColumn(t *testing.T) {
	e := Cmp(Col("NOPE"), Eq, Lit(int64(1)))
	err := e.Bind(testSchema())
	require.ErrorIs(t, err, ErrColumnUnresolved)
}

func TestRefresh_FollowsRename(t *testing.T) {
	sch := testSchema()
	e := Cmp(Col("AGE"), Ge, Lit(int64(0)))
	require.NoError(t, e.Bind(sch))

	// rename AGE -> YEARS; ordinals are canonical, names are cached
	renamed := sch.Clone()
	renamed.Cols[1].Name = "YEARS"
	require.NoError(t, e.Refresh(renamed))
	require.Equal(t, "YEARS >= 0", e.SQL())

	// behavior unchanged for equivalent data
	_, tb, err := e.Eval(row(int64(1), int64(-5), "x"))
	require.NoError(t, err)
	require.Equal(t, False, tb)
}

func TestRefresh_UnresolvableOrdinal(t *testing.T) {
	e := Cmp(Col("NAME"), Eq, Lit("x"))
	require.NoError(t, e.Bind(testSchema()))

	shrunk := record.Schema{Cols: []record.Column{{Name: "ID", Type: record.ColInt64}}}
	require.ErrorIs(t, e.Refresh(shrunk), ErrColumnUnresolved)
}

func TestColumns(t *testing.T) {
	e := AndExpr(Cmp(Col("AGE"), Ge, Lit(int64(0))), IsNullExpr(Col("NAME")))
	require.NoError(t, e.Bind(testSchema()))
	require.ElementsMatch(t, []int{1, 2}, e.Columns(nil))
}
