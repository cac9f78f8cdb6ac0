package gridgo_test

import (
	"testing"

	"github.com/hupe1980/gridgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(optFns ...gridgo.Option) *gridgo.Context {
	opts := append([]gridgo.Option{gridgo.WithLogger(gridgo.NoopLogger())}, optFns...)
	return gridgo.NewContext(opts...)
}

func TestCapacityGrowsInWholeIncrements(t *testing.T) {
	ctx := newTestContext(
		gridgo.WithRowCapacityIncrement(10),
		gridgo.WithColumnCapacityIncrement(4),
	)

	tbl, err := ctx.CreateTable(5, 5)
	require.NoError(t, err)

	assert.Equal(t, 0, tbl.NumRows(), "rows materialize on demand")
	assert.Equal(t, 10, tbl.RowsCapacity(), "smallest multiple of 10 holding 5")
	assert.Equal(t, 8, tbl.ColumnsCapacity(), "smallest multiple of 4 holding 5")

	for i := 0; i < 11; i++ {
		_, err := tbl.AddRow()
		require.NoError(t, err)
	}
	assert.Equal(t, 11, tbl.NumRows())
	assert.Equal(t, 20, tbl.RowsCapacity(), "grown a whole increment at a time")
}

func TestRowIndexesStayContiguous(t *testing.T) {
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(0, 0)
	require.NoError(t, err)

	var rows []*gridgo.Row
	for i := 0; i < 5; i++ {
		r, err := tbl.AddRow()
		require.NoError(t, err)
		rows = append(rows, r)
	}
	for i, r := range rows {
		assert.Equal(t, i+1, r.Index())
	}

	// Interior insert shifts everything after it down by one.
	inserted, err := tbl.AddRowAt(3)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted.Index())
	assert.Equal(t, 4, rows[2].Index())
	assert.Equal(t, 6, rows[4].Index())

	// Interior delete renumbers the survivors.
	require.NoError(t, inserted.Delete())
	assert.Equal(t, 0, inserted.Index())
	assert.False(t, inserted.IsValid())
	for i, r := range rows {
		assert.Equal(t, i+1, r.Index())
	}
}

func TestAddRowBeyondEndMaterializesIntervening(t *testing.T) {
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(0, 0)
	require.NoError(t, err)

	r, err := tbl.AddRowAt(7)
	require.NoError(t, err)
	assert.Equal(t, 7, r.Index())
	assert.Equal(t, 7, tbl.NumRows())
}

func TestAxisIndexCeiling(t *testing.T) {
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(0, 0)
	require.NoError(t, err)

	_, err = tbl.AddRowAt(1 << 17)
	assert.ErrorIs(t, err, gridgo.ErrAxisIndexCeiling)
	assert.Equal(t, 0, tbl.NumRows())
}

func TestFillTouchesEveryCell(t *testing.T) {
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(50, 10)
	require.NoError(t, err)

	_, err = tbl.AddRowAt(50)
	require.NoError(t, err)
	_, err = tbl.AddColumnAt(10)
	require.NoError(t, err)

	events := 0
	tbl.AddListener(gridgo.ListenerFunc(func(evt gridgo.EventType, _ any, _ any) {
		if evt == gridgo.OnNewValue {
			events++
		}
	}))

	require.NoError(t, tbl.Fill(1.5))
	assert.Equal(t, 500, tbl.NumCells())
	assert.Equal(t, 1, events, "bulk fill reports a single change event")

	cell, err := tbl.GetCellAt(25, 5)
	require.NoError(t, err)
	assert.Equal(t, 1.5, cell.Value())

	require.NoError(t, tbl.Clear())
	cell, err = tbl.GetCellAt(25, 5)
	require.NoError(t, err)
	assert.Nil(t, cell.Value())
}

func TestCellOffsetsAreRecycled(t *testing.T) {
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(0, 0)
	require.NoError(t, err)

	_, err = tbl.AddColumn()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = tbl.AddRow()
		require.NoError(t, err)
	}
	require.NoError(t, tbl.Fill("x"))

	r2, err := tbl.GetRow(gridgo.AccessByIndex, 2)
	require.NoError(t, err)
	require.NoError(t, r2.Delete())
	assert.Equal(t, 2, tbl.NumCells())

	// The freed offset is handed to the next row that materializes a cell.
	r, err := tbl.AddRow()
	require.NoError(t, err)
	col, err := tbl.GetColumn(gridgo.AccessFirst)
	require.NoError(t, err)
	cell, err := r.GetCell(col)
	require.NoError(t, err)
	_, err = cell.SetValue("y")
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.NumCells())
	assert.Same(t, r, tbl.RowAtOffset(1))
}

func TestCapacityReclaimedAfterDelete(t *testing.T) {
	ctx := newTestContext(gridgo.WithRowCapacityIncrement(4))
	tbl, err := ctx.CreateTable(0, 0)
	require.NoError(t, err)

	var rows []*gridgo.Row
	for i := 0; i < 12; i++ {
		r, err := tbl.AddRow()
		require.NoError(t, err)
		rows = append(rows, r)
	}
	require.Equal(t, 12, tbl.RowsCapacity())

	for _, r := range rows[2:] {
		require.NoError(t, r.Delete())
	}
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, 4, tbl.RowsCapacity(), "free space above threshold is trimmed")
}

func TestSortRowsByLabel(t *testing.T) {
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(0, 0)
	require.NoError(t, err)

	_, err = tbl.AddColumn()
	require.NoError(t, err)

	labels := []string{"charlie", "alpha", "bravo"}
	for _, label := range labels {
		r, err := tbl.AddRow()
		require.NoError(t, err)
		require.NoError(t, r.SetLabel(label))
		require.NoError(t, r.Fill(label))
	}

	require.NoError(t, tbl.SortRows())

	want := []string{"alpha", "bravo", "charlie"}
	for i, label := range want {
		r, err := tbl.GetRow(gridgo.AccessByIndex, i+1)
		require.NoError(t, err)
		assert.Equal(t, label, r.Label())
		assert.Equal(t, i+1, r.Index())

		// Values travel with their rows: offsets are order-independent.
		cells := r.Cells()
		require.Len(t, cells, 1)
		assert.Equal(t, label, cells[0].Value())
	}
}

func TestGetRowSelectors(t *testing.T) {
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(0, 0)
	require.NoError(t, err)

	r1, err := tbl.AddRow()
	require.NoError(t, err)
	r2, err := tbl.AddRow()
	require.NoError(t, err)
	require.NoError(t, r1.SetLabel("first"))
	r2.Tag("wanted", "odd")

	t.Run("by label", func(t *testing.T) {
		got, err := tbl.GetRow(gridgo.AccessByLabel, "First")
		require.NoError(t, err)
		assert.Same(t, r1, got, "label lookup is case-insensitive")
	})

	t.Run("by ident", func(t *testing.T) {
		got, err := tbl.GetRow(gridgo.AccessByIdent, r2.Ident())
		require.NoError(t, err)
		assert.Same(t, r2, got)
	})

	t.Run("by uuid", func(t *testing.T) {
		u := r1.UUID()
		got, err := tbl.GetRow(gridgo.AccessByUUID, u)
		require.NoError(t, err)
		assert.Same(t, r1, got)
	})

	t.Run("by tags", func(t *testing.T) {
		got, err := tbl.GetRow(gridgo.AccessByTags, "wanted", "odd")
		require.NoError(t, err)
		assert.Same(t, r2, got)

		got, err = tbl.GetRow(gridgo.AccessByTags, "wanted", "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("first and last", func(t *testing.T) {
		got, err := tbl.GetRow(gridgo.AccessFirst)
		require.NoError(t, err)
		assert.Same(t, r1, got)
		got, err = tbl.GetRow(gridgo.AccessLast)
		require.NoError(t, err)
		assert.Same(t, r2, got)
	})

	t.Run("bad selector args", func(t *testing.T) {
		_, err := tbl.GetRow(gridgo.AccessByLabel)
		var accessErr *gridgo.InvalidAccessError
		assert.ErrorAs(t, err, &accessErr)
	})
}

func TestDuplicateLabelsRejectedWhenIndexed(t *testing.T) {
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(0, 0)
	require.NoError(t, err)
	require.NoError(t, tbl.SetRowLabelsIndexed(true))

	r1, err := tbl.AddRow()
	require.NoError(t, err)
	r2, err := tbl.AddRow()
	require.NoError(t, err)

	require.NoError(t, r1.SetLabel("dup"))
	err = r2.SetLabel(" DUP ")
	var opErr *gridgo.UnsupportedOperationError
	assert.ErrorAs(t, err, &opErr, "normalized labels collide")
}

func TestTableDeleteInvalidatesEverything(t *testing.T) {
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(0, 0)
	require.NoError(t, err)

	r, err := tbl.AddRow()
	require.NoError(t, err)
	c, err := tbl.AddColumn()
	require.NoError(t, err)
	cell, err := tbl.GetCell(r, c)
	require.NoError(t, err)
	g, err := tbl.CreateGroup()
	require.NoError(t, err)
	require.NoError(t, g.Add(r))

	tbl.Delete()
	tbl.Delete() // idempotent

	assert.False(t, tbl.IsValid())
	assert.False(t, r.IsValid())
	assert.False(t, c.IsValid())
	assert.False(t, cell.IsValid())
	assert.False(t, g.IsValid())
	assert.False(t, ctx.IsRegistered(tbl))

	_, err = tbl.AddRow()
	var delErr *gridgo.DeletedElementError
	assert.ErrorAs(t, err, &delErr)
}

func TestDeleteElements(t *testing.T) {
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(0, 0)
	require.NoError(t, err)

	_, err = tbl.AddColumnAt(2)
	require.NoError(t, err)
	_, err = tbl.AddRowAt(3)
	require.NoError(t, err)
	require.NoError(t, tbl.Fill(0))
	require.Equal(t, 6, tbl.NumCells())

	r2, err := tbl.GetRow(gridgo.AccessByIndex, 2)
	require.NoError(t, err)
	c1, err := tbl.GetColumn(gridgo.AccessFirst)
	require.NoError(t, err)

	require.NoError(t, tbl.DeleteElements(r2, c1))
	assert.Equal(t, 2, tbl.NumRows())
	assert.Equal(t, 1, tbl.NumColumns())
	assert.Equal(t, 2, tbl.NumCells())
	assert.False(t, r2.IsValid())
	assert.False(t, c1.IsValid())
}

func TestTableProtectionDefaultsFlowFromContext(t *testing.T) {
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(0, 0)
	require.NoError(t, err)

	assert.False(t, tbl.IsWriteProtected())
	assert.True(t, tbl.IsNullsSupported())
	assert.False(t, tbl.IsDatatypeEnforced())

	tbl.SetReadOnly(true)
	assert.True(t, tbl.IsWriteProtected())
	tbl.SetReadOnly(false)

	tbl.SetSupportsNulls(false)
	assert.False(t, tbl.IsNullsSupported())
}

func TestNamedPropertiesNormalizeKeys(t *testing.T) {
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(0, 0)
	require.NoError(t, err)

	require.NoError(t, tbl.SetNamedProperty("  My   Key ", 42))
	v, ok := tbl.GetNamedProperty("my key")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	err = tbl.SetNamedProperty("   ", 1)
	var keyErr *gridgo.InvalidPropertyKeyError
	assert.ErrorAs(t, err, &keyErr)
}

func TestWellKnownPropertyCapability(t *testing.T) {
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(0, 0)
	require.NoError(t, err)

	// Tags are managed through Tag/Untag, not direct assignment.
	err = tbl.SetProperty(gridgo.PropTags, "nope")
	var roErr *gridgo.ReadOnlyPropertyError
	assert.ErrorAs(t, err, &roErr)

	// A table has no error-message slot; cells do.
	err = tbl.SetProperty(gridgo.PropErrorMessage, "nope")
	var unimplErr *gridgo.UnimplementedPropertyError
	assert.ErrorAs(t, err, &unimplErr)

	_, ok := tbl.GetProperty(gridgo.PropLabel)
	assert.False(t, ok, "absent properties report ok=false, never a default")
}
