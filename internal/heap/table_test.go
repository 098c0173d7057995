package heap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yudis/h2database/internal/record"
)

func newTestTable(t *testing.T) *Table {
	t.Helper()
	schema := record.Schema{Cols: []record.Column{
		{Name: "id", Type: record.ColInt64},
		{Name: "name", Type: record.ColText, Nullable: true},
	}}
	return NewTable("users", schema)
}

func TestInsertGet(t *testing.T) {
	tbl := newTestTable(t)

	tid, err := tbl.Insert([]any{int64(1), "alice"})
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Count())

	vals, err := tbl.Get(tid)
	require.NoError(t, err)
	require.Equal(t, []any{int64(1), "alice"}, vals)
}

func TestInsert_BadArity(t *testing.T) {
	tbl := newTestTable(t)
	_, err := tbl.Insert([]any{int64(1)})
	require.ErrorIs(t, err, ErrBadArity)
}

func TestUpdateKeepsTID(t *testing.T) {
	tbl := newTestTable(t)
	tid, err := tbl.Insert([]any{int64(1), "alice"})
	require.NoError(t, err)

	require.NoError(t, tbl.Update(tid, []any{int64(1), "bob"}))
	vals, err := tbl.Get(tid)
	require.NoError(t, err)
	require.Equal(t, "bob", vals[1])
}

func TestDelete(t *testing.T) {
	tbl := newTestTable(t)
	tid, err := tbl.Insert([]any{int64(1), "alice"})
	require.NoError(t, err)

	require.NoError(t, tbl.Delete(tid))
	require.Equal(t, 0, tbl.Count())

	_, err = tbl.Get(tid)
	require.ErrorIs(t, err, ErrRowNotFound)
	require.ErrorIs(t, tbl.Delete(tid), ErrRowNotFound)
}

func TestScan_VisitsLiveRowsInTIDOrder(t *testing.T) {
	tbl := newTestTable(t)
	var tids []record.TID
	for i := 0; i < 5; i++ {
		tid, err := tbl.Insert([]any{int64(i), "x"})
		require.NoError(t, err)
		tids = append(tids, tid)
	}
	require.NoError(t, tbl.Delete(tids[2]))

	var seen []int64
	err := tbl.Scan(context.Background(), func(row record.Row) error {
		seen = append(seen, row.Values[0].(int64))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1, 3, 4}, seen)
}

func TestScan_PageRollover(t *testing.T) {
	tbl := newTestTable(t)
	for i := 0; i < SlotsPerPage+10; i++ {
		_, err := tbl.Insert([]any{int64(i), "x"})
		require.NoError(t, err)
	}
	require.Equal(t, SlotsPerPage+10, tbl.Count())

	n := 0
	require.NoError(t, tbl.Scan(context.Background(), func(record.Row) error {
		n++
		return nil
	}))
	require.Equal(t, SlotsPerPage+10, n)
}

func TestScan_CancelledContext(t *testing.T) {
	tbl := newTestTable(t)
	_, err := tbl.Insert([]any{int64(1), "x"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = tbl.Scan(ctx, func(record.Row) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}
