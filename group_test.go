package gridgo_test

import (
	"context"
	"testing"

	"github.com/hupe1980/gridgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGroupFixture(t *testing.T, numRows, numCols int) (*gridgo.Context, *gridgo.Table) {
	t.Helper()
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(numRows, numCols)
	require.NoError(t, err)
	if numRows > 0 {
		_, err = tbl.AddRowAt(numRows)
		require.NoError(t, err)
	}
	if numCols > 0 {
		_, err = tbl.AddColumnAt(numCols)
		require.NoError(t, err)
	}
	return ctx, tbl
}

func TestGroupRowMembershipSpansAllColumns(t *testing.T) {
	_, tbl := newGroupFixture(t, 4, 3)

	g, err := tbl.CreateGroup()
	require.NoError(t, err)

	r2, err := tbl.GetRow(gridgo.AccessByIndex, 2)
	require.NoError(t, err)
	require.NoError(t, g.Add(r2))

	// A one-axis group covers the whole other axis.
	assert.Equal(t, 3, g.NumCells())
	assert.Len(t, g.EffectiveColumns(), 3)

	for col := 1; col <= 3; col++ {
		cell, err := tbl.GetCellAt(2, col)
		require.NoError(t, err)
		assert.True(t, g.ContainsCell(cell))
	}
	other, err := tbl.GetCellAt(1, 1)
	require.NoError(t, err)
	assert.False(t, g.ContainsCell(other))
}

func TestGroupTracksStructuralChanges(t *testing.T) {
	_, tbl := newGroupFixture(t, 2, 2)

	g, err := tbl.CreateGroup()
	require.NoError(t, err)
	r1, err := tbl.GetRow(gridgo.AccessByIndex, 1)
	require.NoError(t, err)
	require.NoError(t, g.Add(r1))
	require.Equal(t, 2, g.NumCells())

	// Adding a column widens the row's span.
	_, err = tbl.AddColumn()
	require.NoError(t, err)
	assert.Equal(t, 3, g.NumCells())

	// Deleting the member row empties the group.
	require.NoError(t, r1.Delete())
	assert.Equal(t, 0, g.NumCells())
	assert.True(t, g.IsNull())
	assert.Empty(t, g.Rows())
}

func TestGroupExplicitCellsAndNesting(t *testing.T) {
	_, tbl := newGroupFixture(t, 3, 3)

	inner, err := tbl.CreateGroup()
	require.NoError(t, err)
	c11, err := tbl.GetCellAt(1, 1)
	require.NoError(t, err)
	require.NoError(t, inner.Add(c11))

	outer, err := tbl.CreateGroup()
	require.NoError(t, err)
	c33, err := tbl.GetCellAt(3, 3)
	require.NoError(t, err)
	require.NoError(t, outer.Add(c33, inner))

	assert.Equal(t, 2, outer.NumCells())
	assert.True(t, outer.ContainsCell(c11), "nested membership is transitive")
	assert.True(t, outer.Contains(inner))
	assert.False(t, outer.Contains(c11), "composition membership is direct only")

	// Growing the inner group is visible through the outer one.
	c22, err := tbl.GetCellAt(2, 2)
	require.NoError(t, err)
	require.NoError(t, inner.Add(c22))
	assert.Equal(t, 3, outer.NumCells())

	// Deleting a group's sole explicit cell shrinks it.
	require.NoError(t, c22.Delete())
	assert.Equal(t, 1, inner.NumCells())
	assert.Equal(t, 2, outer.NumCells())
}

func TestGroupRejectsRecursiveMembership(t *testing.T) {
	_, tbl := newGroupFixture(t, 1, 1)

	a, err := tbl.CreateGroup()
	require.NoError(t, err)
	b, err := tbl.CreateGroup()
	require.NoError(t, err)
	require.NoError(t, a.Add(b))

	var unsupported *gridgo.UnsupportedOperationError
	assert.ErrorAs(t, a.Add(a), &unsupported, "self membership")
	assert.ErrorAs(t, b.Add(a), &unsupported, "membership cycle")
}

func TestGroupRejectsForeignElements(t *testing.T) {
	ctx, tbl := newGroupFixture(t, 1, 1)
	other, err := ctx.CreateTable(1, 1)
	require.NoError(t, err)
	foreignRow, err := other.AddRow()
	require.NoError(t, err)

	g, err := tbl.CreateGroup()
	require.NoError(t, err)

	var parentErr *gridgo.InvalidParentError
	assert.ErrorAs(t, g.Add(foreignRow), &parentErr)

	foreignGroup, err := other.CreateGroup()
	require.NoError(t, err)
	_, err = g.Union(foreignGroup)
	assert.ErrorAs(t, err, &parentErr)
	_, err = g.IsSubsetOf(foreignGroup)
	assert.ErrorAs(t, err, &parentErr)
	assert.False(t, g.Equal(foreignGroup))

	// A foreign cell whose coordinates alias a member's is not covered.
	ownRow, err := tbl.GetRow(gridgo.AccessByIndex, 1)
	require.NoError(t, err)
	require.NoError(t, g.Add(ownRow))
	ownCell, err := tbl.GetCellAt(1, 1)
	require.NoError(t, err)
	require.True(t, g.ContainsCell(ownCell))

	_, err = other.AddColumn()
	require.NoError(t, err)
	foreignCell, err := other.GetCellAt(1, 1)
	require.NoError(t, err)
	assert.False(t, g.ContainsCell(foreignCell))
}

func TestGroupIntersectionOfAxes(t *testing.T) {
	_, tbl := newGroupFixture(t, 100, 4)

	rowsGroup, err := tbl.CreateGroup()
	require.NoError(t, err)
	for _, r := range tbl.Rows() {
		require.NoError(t, rowsGroup.Add(r))
	}

	colsGroup, err := tbl.CreateGroup()
	require.NoError(t, err)
	c1, err := tbl.GetColumn(gridgo.AccessByIndex, 1)
	require.NoError(t, err)
	c2, err := tbl.GetColumn(gridgo.AccessByIndex, 2)
	require.NoError(t, err)
	require.NoError(t, colsGroup.Add(c1, c2))

	require.Equal(t, 400, rowsGroup.NumCells())
	require.Equal(t, 200, colsGroup.NumCells())

	inter, err := rowsGroup.Intersect(colsGroup)
	require.NoError(t, err)
	assert.Equal(t, 200, inter.NumCells())

	cell, err := tbl.GetCellAt(50, 2)
	require.NoError(t, err)
	assert.True(t, inter.ContainsCell(cell))
	cell, err = tbl.GetCellAt(50, 3)
	require.NoError(t, err)
	assert.False(t, inter.ContainsCell(cell))

	// The derived group holds explicit cells, so axis growth does not
	// change it.
	_, err = tbl.AddColumn()
	require.NoError(t, err)
	assert.Equal(t, 200, inter.NumCells())
	assert.Equal(t, 500, rowsGroup.NumCells())
}

func TestGroupAlgebra(t *testing.T) {
	_, tbl := newGroupFixture(t, 1, 6)

	mk := func(cols ...int) *gridgo.Group {
		g, err := tbl.CreateGroup()
		require.NoError(t, err)
		for _, col := range cols {
			cell, err := tbl.GetCellAt(1, col)
			require.NoError(t, err)
			require.NoError(t, g.Add(cell))
		}
		return g
	}

	a := mk(1, 2, 3, 4)
	b := mk(3, 4, 5, 6)

	t.Run("union", func(t *testing.T) {
		u, err := a.Union(b)
		require.NoError(t, err)
		assert.Equal(t, 6, u.NumCells(), "overlap counted once")
		assert.Len(t, u.Cells(), 6, "union absorbs the operands' compositions")
	})

	t.Run("subtract", func(t *testing.T) {
		d, err := a.Subtract(b)
		require.NoError(t, err)
		assert.Equal(t, 2, d.NumCells())
		cell, err := tbl.GetCellAt(1, 1)
		require.NoError(t, err)
		assert.True(t, d.ContainsCell(cell))
	})

	t.Run("symmetric difference", func(t *testing.T) {
		x, err := a.SymmetricDiff(b)
		require.NoError(t, err)
		assert.Equal(t, 4, x.NumCells())
		cell, err := tbl.GetCellAt(1, 3)
		require.NoError(t, err)
		assert.False(t, x.ContainsCell(cell))
	})

	t.Run("predicates", func(t *testing.T) {
		inter, err := a.Intersect(b)
		require.NoError(t, err)

		sub, err := inter.IsSubsetOf(a)
		require.NoError(t, err)
		assert.True(t, sub)

		sup, err := a.IsSupersetOf(inter)
		require.NoError(t, err)
		assert.True(t, sup)

		dis, err := a.IsDisjointFrom(b)
		require.NoError(t, err)
		assert.False(t, dis)

		empty := mk()
		dis, err = a.IsDisjointFrom(empty)
		require.NoError(t, err)
		assert.True(t, dis)
	})

	t.Run("similarity", func(t *testing.T) {
		// |a ∩ b| = 2, |a ∪ b| = 6
		sim, err := a.Similarity(b)
		require.NoError(t, err)
		assert.InDelta(t, 2.0/6.0, sim, 1e-12)

		sim, err = a.Similarity(a)
		require.NoError(t, err)
		assert.Equal(t, 1.0, sim)

		e1 := mk()
		e2 := mk()
		sim, err = e1.Similarity(e2)
		require.NoError(t, err)
		assert.Equal(t, 0.0, sim, "empty union defines similarity 0")
	})

	t.Run("equal", func(t *testing.T) {
		c := mk(1, 2, 3, 4)
		assert.True(t, a.Equal(c))
		assert.False(t, a.Equal(b))
	})
}

func TestGroupInPlaceOperatorsCollapseComposition(t *testing.T) {
	_, tbl := newGroupFixture(t, 3, 3)

	g, err := tbl.CreateGroup()
	require.NoError(t, err)
	r1, err := tbl.GetRow(gridgo.AccessByIndex, 1)
	require.NoError(t, err)
	require.NoError(t, g.Add(r1))

	other, err := tbl.CreateGroup()
	require.NoError(t, err)
	c1, err := tbl.GetColumn(gridgo.AccessByIndex, 1)
	require.NoError(t, err)
	require.NoError(t, other.Add(c1))

	require.NoError(t, g.IntersectWith(other))
	assert.Equal(t, 1, g.NumCells())
	assert.Empty(t, g.Rows(), "axis composition replaced by explicit cells")
	assert.Len(t, g.Cells(), 1)

	// The collapsed group no longer follows its former member row.
	_, err = tbl.AddColumn()
	require.NoError(t, err)
	assert.Equal(t, 1, g.NumCells())
}

func TestGroupUnionWith(t *testing.T) {
	_, tbl := newGroupFixture(t, 2, 2)

	g, err := tbl.CreateGroup()
	require.NoError(t, err)
	r1, err := tbl.GetRow(gridgo.AccessByIndex, 1)
	require.NoError(t, err)
	require.NoError(t, g.Add(r1))

	other, err := tbl.CreateGroup()
	require.NoError(t, err)
	r2, err := tbl.GetRow(gridgo.AccessByIndex, 2)
	require.NoError(t, err)
	require.NoError(t, other.Add(r2))

	require.NoError(t, g.UnionWith(other))
	assert.Equal(t, 4, g.NumCells())
	assert.Len(t, g.Rows(), 2, "union absorbs composition, not flattened cells")
}

func TestGroupFillSkipsDerivedCells(t *testing.T) {
	_, tbl := newGroupFixture(t, 2, 2)

	g, err := tbl.CreateGroup()
	require.NoError(t, err)
	r1, err := tbl.GetRow(gridgo.AccessByIndex, 1)
	require.NoError(t, err)
	require.NoError(t, g.Add(r1))

	derived, err := tbl.GetCellAt(1, 1)
	require.NoError(t, err)
	require.NoError(t, tbl.SetDerivation(derived, gridgo.DerivationFunc(func(_ context.Context, target gridgo.Derivable) error {
		_, err := target.(*gridgo.Cell).SetValue("derived")
		return err
	})))

	require.NoError(t, g.Fill("filled"))

	assert.Equal(t, "derived", derived.Value())
	plain, err := tbl.GetCellAt(1, 2)
	require.NoError(t, err)
	assert.Equal(t, "filled", plain.Value())
	untouched, err := tbl.GetCellAt(2, 1)
	require.NoError(t, err)
	assert.Nil(t, untouched.Value())
}

func TestGroupLabelsAndLookup(t *testing.T) {
	_, tbl := newGroupFixture(t, 1, 1)
	require.NoError(t, tbl.SetGroupLabelsIndexed(true))

	g, err := tbl.CreateGroup()
	require.NoError(t, err)
	require.NoError(t, g.SetLabel("selection"))

	got, err := tbl.GetGroup(gridgo.AccessByLabel, "Selection")
	require.NoError(t, err)
	assert.Same(t, g, got)

	dup, err := tbl.CreateGroup()
	require.NoError(t, err)
	var unsupported *gridgo.UnsupportedOperationError
	assert.ErrorAs(t, dup.SetLabel(" SELECTION "), &unsupported)
}

func TestGroupDelete(t *testing.T) {
	_, tbl := newGroupFixture(t, 2, 2)

	inner, err := tbl.CreateGroup()
	require.NoError(t, err)
	r1, err := tbl.GetRow(gridgo.AccessByIndex, 1)
	require.NoError(t, err)
	require.NoError(t, inner.Add(r1))

	outer, err := tbl.CreateGroup()
	require.NoError(t, err)
	require.NoError(t, outer.Add(inner))
	require.Equal(t, 2, outer.NumCells())

	inner.Delete()
	assert.False(t, inner.IsValid())
	assert.Equal(t, 0, outer.NumCells())
	assert.Equal(t, 1, tbl.NumGroups())
}

func TestColumnGroupAfterBulkRowInsert(t *testing.T) {
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(0, 0)
	require.NoError(t, err)

	c1, err := tbl.AddColumn()
	require.NoError(t, err)
	g, err := tbl.CreateGroup()
	require.NoError(t, err)
	require.NoError(t, g.Add(c1))

	_, err = tbl.AddRowAt(50)
	require.NoError(t, err)
	require.NoError(t, c1.Fill(34))

	assert.Equal(t, 50, g.NumCells())
	for _, cell := range c1.Cells() {
		assert.Equal(t, 34, cell.Value())
	}
}

func TestColumnGroupIntersectRowGroup(t *testing.T) {
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(200, 1)
	require.NoError(t, err)
	c1, err := tbl.AddColumn()
	require.NoError(t, err)
	_, err = tbl.AddRowAt(200)
	require.NoError(t, err)

	g1, err := tbl.CreateGroup()
	require.NoError(t, err)
	require.NoError(t, g1.Add(c1))

	g2, err := tbl.CreateGroup()
	require.NoError(t, err)
	r1, err := tbl.GetRow(gridgo.AccessFirst)
	require.NoError(t, err)
	r200, err := tbl.GetRow(gridgo.AccessLast)
	require.NoError(t, err)
	require.NoError(t, g2.Add(r1, r200))

	inter, err := g1.Intersect(g2)
	require.NoError(t, err)
	require.Equal(t, 2, inter.NumCells())

	first, err := tbl.GetCellAt(1, 1)
	require.NoError(t, err)
	last, err := tbl.GetCellAt(200, 1)
	require.NoError(t, err)
	assert.True(t, inter.ContainsCell(first))
	assert.True(t, inter.ContainsCell(last))

	// Commutativity and inclusion-exclusion over the same operands.
	other, err := g2.Intersect(g1)
	require.NoError(t, err)
	assert.True(t, inter.Equal(other))

	union, err := g1.Union(g2)
	require.NoError(t, err)
	assert.Equal(t, g1.NumCells()+g2.NumCells()-inter.NumCells(), union.NumCells())

	sub, err := g1.IsSubsetOf(union)
	require.NoError(t, err)
	assert.True(t, sub)
}

func TestPersistentGroupSurvivesSweepPin(t *testing.T) {
	_, tbl := newGroupFixture(t, 1, 1)

	g, err := tbl.CreateGroup()
	require.NoError(t, err)
	assert.False(t, g.IsPersistent())

	g.SetPersistent(true)
	assert.True(t, g.IsPersistent())

	g.SetPersistent(false)
	assert.False(t, g.IsPersistent())
}
