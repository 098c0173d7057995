package record

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// makeTestSchema builds a simple schema used across tests.
func makeTestSchema() Schema {
	return Schema{
		Cols: []Column{
			{Name: "id32", Type: ColInt32, Nullable: false},
			{Name: "id64", Type: ColInt64, Nullable: false},
			{Name: "active", Type: ColBool, Nullable: false},
			{Name: "score", Type: ColFloat64, Nullable: false},
			{Name: "name", Type: ColText, Nullable: true},
			{Name: "blob", Type: ColBytes, Nullable: true},
		},
	}
}

func TestSchema_Lookup(t *testing.T) {
	schema := makeTestSchema()

	require.Equal(t, 6, schema.NumCols())
	require.Equal(t, 3, schema.ColPos("score"))
	require.Equal(t, -1, schema.ColPos("missing"))
	require.Equal(t, "name", schema.ColName(4))
	require.Equal(t, "", schema.ColName(99))
}

func TestSchema_CloneIsIndependent(t *testing.T) {
	schema := makeTestSchema()
	clone := schema.Clone()
	clone.Cols[0].Name = "renamed"

	require.Equal(t, "id32", schema.Cols[0].Name)
	require.Equal(t, "renamed", clone.Cols[0].Name)
}

func TestCompare(t *testing.T) {
	t.Run("same type", func(t *testing.T) {
		c, err := Compare(int64(1), int64(2))
		require.NoError(t, err)
		require.Negative(t, c)

		c, err = Compare("b", "a")
		require.NoError(t, err)
		require.Positive(t, c)

		c, err = Compare([]byte{0x01}, []byte{0x01})
		require.NoError(t, err)
		require.Zero(t, c)
	})

	t.Run("numeric cross-type", func(t *testing.T) {
		c, err := Compare(int64(2), 2.5)
		require.NoError(t, err)
		require.Negative(t, c)

		c, err = Compare(2.0, int64(2))
		require.NoError(t, err)
		require.Zero(t, c)
	})

	t.Run("mismatch is an error", func(t *testing.T) {
		_, err := Compare(int64(1), "1")
		require.Error(t, err)
	})
}

func TestCompareTotal_RankOrder(t *testing.T) {
	// NULL < bool < numeric < string < bytes
	ordered := []any{nil, false, true, int64(-3), 1.5, "a", []byte{0x00}}
	for i := 0; i < len(ordered)-1; i++ {
		require.Negative(t, CompareTotal(ordered[i], ordered[i+1]),
			"expected %v < %v", ordered[i], ordered[i+1])
	}
	require.Zero(t, CompareTotal(nil, nil))
}

func TestCompareKeys(t *testing.T) {
	require.Zero(t, CompareKeys([]any{int64(1), "a"}, []any{int64(1), "a"}))
	require.Negative(t, CompareKeys([]any{int64(1), "a"}, []any{int64(1), "b"}))
	require.Positive(t, CompareKeys([]any{int64(2)}, []any{int64(1), "z"}))
	// shared prefix: the shorter key sorts first
	require.Negative(t, CompareKeys([]any{int64(1)}, []any{int64(1), "a"}))
}

func TestRow_ProjectAndClone(t *testing.T) {
	row := Row{TID: TID{PageID: 1, Slot: 2}, Values: []any{int64(7), nil, "x"}}

	require.Equal(t, []any{"x", int64(7)}, row.Project([]int{2, 0}))
	require.True(t, row.IsNull(1))
	require.False(t, row.IsNull(0))

	clone := row.Clone()
	clone.Values[2] = "y"
	require.Equal(t, "x", row.Get(2))
	require.Equal(t, row.TID, clone.TID)
}

func TestFormatValues(t *testing.T) {
	require.Equal(t, "1, NULL, 'bob', TRUE, X'0a'",
		FormatValues([]any{int64(1), nil, "bob", true, []byte{0x0a}}))
	require.Equal(t, "'it''s'", FormatValue("it's"))
	require.Equal(t, "3.5", FormatValue(3.5))
}
