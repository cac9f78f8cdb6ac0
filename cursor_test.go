package gridgo_test

import (
	"testing"

	"github.com/hupe1980/gridgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCursorFixture(t *testing.T) (*gridgo.Table, *gridgo.Cursor) {
	t.Helper()
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(3, 3)
	require.NoError(t, err)
	_, err = tbl.AddRowAt(3)
	require.NoError(t, err)
	_, err = tbl.AddColumnAt(3)
	require.NoError(t, err)
	return tbl, tbl.Cursor()
}

func TestCursorNavigation(t *testing.T) {
	tbl, cur := newCursorFixture(t)

	// A fresh cursor has no position; NextRow starts from the top.
	assert.Nil(t, cur.Row())
	r, err := cur.NextRow()
	require.NoError(t, err)
	assert.Equal(t, 1, r.Index())

	r, err = cur.NextRow()
	require.NoError(t, err)
	assert.Equal(t, 2, r.Index())

	r, err = cur.PreviousRow()
	require.NoError(t, err)
	assert.Equal(t, 1, r.Index())

	// Stepping off the start clears the position.
	r, err = cur.PreviousRow()
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Nil(t, cur.Row())

	// With no position, PreviousColumn starts from the far end.
	c, err := cur.PreviousColumn()
	require.NoError(t, err)
	assert.Equal(t, 3, c.Index())

	c, err = cur.NextColumn()
	require.NoError(t, err)
	assert.Nil(t, c, "off the end")

	last, err := tbl.GetRow(gridgo.AccessLast)
	require.NoError(t, err)
	require.NoError(t, cur.SetRow(last))
	r, err = cur.NextRow()
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestCursorCellAtIntersection(t *testing.T) {
	tbl, cur := newCursorFixture(t)

	cell, err := cur.Cell()
	require.NoError(t, err)
	assert.Nil(t, cell, "no position, no cell")

	r2, err := tbl.GetRow(gridgo.AccessByIndex, 2)
	require.NoError(t, err)
	c3, err := tbl.GetColumn(gridgo.AccessByIndex, 3)
	require.NoError(t, err)
	require.NoError(t, cur.SetRow(r2))
	require.NoError(t, cur.SetColumn(c3))

	cell, err = cur.Cell()
	require.NoError(t, err)
	require.NotNil(t, cell)
	assert.Same(t, r2, cell.Row())
	assert.Same(t, c3, cell.Column())

	// SetCell repositions both axes at once.
	other, err := tbl.GetCellAt(1, 1)
	require.NoError(t, err)
	require.NoError(t, cur.SetCell(other))
	assert.Equal(t, 1, cur.Row().Index())
	assert.Equal(t, 1, cur.Column().Index())
}

func TestCursorPushPop(t *testing.T) {
	tbl, cur := newCursorFixture(t)

	r1, err := tbl.GetRow(gridgo.AccessByIndex, 1)
	require.NoError(t, err)
	require.NoError(t, cur.SetRow(r1))
	cur.Push()

	r3, err := tbl.GetRow(gridgo.AccessByIndex, 3)
	require.NoError(t, err)
	require.NoError(t, cur.SetRow(r3))
	assert.Same(t, r3, cur.Row())

	cur.Pop()
	assert.Same(t, r1, cur.Row())

	// Popping an empty stack is a no-op.
	cur.Pop()
	assert.Same(t, r1, cur.Row())
}

func TestCursorRejectsForeignElements(t *testing.T) {
	_, cur := newCursorFixture(t)

	ctx := newTestContext()
	other, err := ctx.CreateTable(1, 1)
	require.NoError(t, err)
	foreign, err := other.AddRow()
	require.NoError(t, err)

	var parentErr *gridgo.InvalidParentError
	assert.ErrorAs(t, cur.SetRow(foreign), &parentErr)
}

func TestCursorPurgedOnRowDelete(t *testing.T) {
	tbl, cur := newCursorFixture(t)

	r2, err := tbl.GetRow(gridgo.AccessByIndex, 2)
	require.NoError(t, err)
	require.NoError(t, cur.SetRow(r2))
	cur.Push()

	require.NoError(t, r2.Delete())

	assert.Nil(t, cur.Row(), "current position scrubbed")
	cur.Pop()
	assert.Nil(t, cur.Row(), "saved position scrubbed too")
	assert.True(t, cur.IsValid(), "cursor itself stays usable")
}

func TestCursorInvalidatedOnTableDelete(t *testing.T) {
	tbl, cur := newCursorFixture(t)
	require.True(t, cur.IsValid())

	tbl.Delete()
	assert.False(t, cur.IsValid())

	_, err := cur.NextRow()
	var delErr *gridgo.DeletedElementError
	assert.ErrorAs(t, err, &delErr)
}

func TestCursorClose(t *testing.T) {
	_, cur := newCursorFixture(t)
	cur.Close()
	assert.False(t, cur.IsValid())
}

func TestDefaultCursorRestoredAroundFill(t *testing.T) {
	tbl, _ := newCursorFixture(t)

	cur := tbl.DefaultCursor()
	r2, err := tbl.GetRow(gridgo.AccessByIndex, 2)
	require.NoError(t, err)
	require.NoError(t, cur.SetRow(r2))

	require.NoError(t, tbl.Fill(1))

	assert.Same(t, r2, cur.Row(), "bulk fill leaves the shared position alone")
}

func TestDefaultCursorDrivesRelativeAccess(t *testing.T) {
	tbl, _ := newCursorFixture(t)

	r, err := tbl.GetRow(gridgo.AccessNext)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Index())

	r, err = tbl.GetRow(gridgo.AccessNext)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Index())

	got, err := tbl.GetRow(gridgo.AccessCurrent)
	require.NoError(t, err)
	assert.Same(t, r, got)
}
