package gridgo_test

import (
	"testing"

	"github.com/hupe1980/gridgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultContextIsSingleton(t *testing.T) {
	c1 := gridgo.DefaultContext()
	c2 := gridgo.DefaultContext()
	assert.Same(t, c1, c2)
	assert.True(t, c1.IsDefault())
	assert.Equal(t, "Default Context", c1.Label())
}

func TestIndependentContextsAreIsolated(t *testing.T) {
	a := newTestContext()
	b := newTestContext()
	assert.False(t, a.IsDefault())

	tbl, err := a.CreateTable(1, 1)
	require.NoError(t, err)
	assert.True(t, a.IsRegistered(tbl))
	assert.False(t, b.IsRegistered(tbl))
	assert.Equal(t, 1, a.NumTables())
	assert.Equal(t, 0, b.NumTables())
}

func TestGetTableSelectors(t *testing.T) {
	ctx := newTestContext()
	t1, err := ctx.CreateTable(1, 1)
	require.NoError(t, err)
	t2, err := ctx.CreateTable(1, 1)
	require.NoError(t, err)

	require.NoError(t, t1.SetLabel("orders"))
	require.NoError(t, t2.SetDescription("scratch data"))
	t2.Tag("temp", "import")

	t.Run("by label is case-insensitive", func(t *testing.T) {
		got, err := ctx.GetTable(gridgo.AccessByLabel, "  ORDERS ")
		require.NoError(t, err)
		assert.Same(t, t1, got)
	})

	t.Run("by ident", func(t *testing.T) {
		got, err := ctx.GetTable(gridgo.AccessByIdent, t2.Ident())
		require.NoError(t, err)
		assert.Same(t, t2, got)
	})

	t.Run("by uuid", func(t *testing.T) {
		got, err := ctx.GetTable(gridgo.AccessByUUID, t1.UUID())
		require.NoError(t, err)
		assert.Same(t, t1, got)
	})

	t.Run("by description", func(t *testing.T) {
		got, err := ctx.GetTable(gridgo.AccessByDescription, "scratch data")
		require.NoError(t, err)
		assert.Same(t, t2, got)
	})

	t.Run("by tags", func(t *testing.T) {
		got, err := ctx.GetTable(gridgo.AccessByTags, "temp", "import")
		require.NoError(t, err)
		assert.Same(t, t2, got)

		got, err = ctx.GetTable(gridgo.AccessByTags, "temp", "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("by any tag", func(t *testing.T) {
		assert.Same(t, t2, ctx.GetTableByAnyTag("missing", "import"))
		assert.Nil(t, ctx.GetTableByAnyTag("missing"))
	})

	t.Run("by named property", func(t *testing.T) {
		require.NoError(t, t1.SetNamedProperty("owner", "billing"))
		got, err := ctx.GetTable(gridgo.AccessByProperty, "owner", "billing")
		require.NoError(t, err)
		assert.Same(t, t1, got)
	})

	t.Run("by reference", func(t *testing.T) {
		got, err := ctx.GetTable(gridgo.AccessByReference, t1)
		require.NoError(t, err)
		assert.Same(t, t1, got)

		foreign, err := newTestContext().CreateTable(1, 1)
		require.NoError(t, err)
		var parentErr *gridgo.InvalidParentError
		_, err = ctx.GetTable(gridgo.AccessByReference, foreign)
		assert.ErrorAs(t, err, &parentErr)
	})

	t.Run("positional selectors do not apply", func(t *testing.T) {
		var accessErr *gridgo.InvalidAccessError
		_, err := ctx.GetTable(gridgo.AccessByIndex, 1)
		assert.ErrorAs(t, err, &accessErr)
		_, err = ctx.GetTable(gridgo.AccessFirst)
		assert.ErrorAs(t, err, &accessErr)
	})

	t.Run("no match is nil without error", func(t *testing.T) {
		got, err := ctx.GetTable(gridgo.AccessByLabel, "nonexistent")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestTableLabelsUniquePerContext(t *testing.T) {
	ctx := newTestContext()
	t1, err := ctx.CreateTable(1, 1)
	require.NoError(t, err)
	t2, err := ctx.CreateTable(1, 1)
	require.NoError(t, err)

	require.NoError(t, t1.SetLabel("ledger"))
	var unsupported *gridgo.UnsupportedOperationError
	assert.ErrorAs(t, t2.SetLabel(" LEDGER "), &unsupported)

	// Relabeling frees the old key.
	require.NoError(t, t1.SetLabel("archive"))
	require.NoError(t, t2.SetLabel("ledger"))
}

func TestSweepEvictsIdleNonPersistentTables(t *testing.T) {
	ctx := newTestContext()

	idle, err := ctx.CreateTable(1, 1)
	require.NoError(t, err)
	busy, err := ctx.CreateTable(1, 1)
	require.NoError(t, err)
	pinned, err := ctx.CreateTable(1, 1)
	require.NoError(t, err)

	busy.MarkInUse(true)
	pinned.SetPersistent(true)

	swept := ctx.Sweep()
	assert.Equal(t, 1, swept)
	assert.False(t, idle.IsValid())
	assert.True(t, busy.IsValid())
	assert.True(t, pinned.IsValid())

	// Releasing the in-use mark makes the table sweepable.
	busy.MarkInUse(false)
	assert.Equal(t, 1, ctx.Sweep())
	assert.False(t, busy.IsValid())
	assert.Equal(t, 1, ctx.NumTables())
}

func TestTableCloseDeregisters(t *testing.T) {
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(2, 2)
	require.NoError(t, err)

	tbl.Close()
	assert.False(t, tbl.IsValid())
	assert.False(t, ctx.IsRegistered(tbl))
	assert.True(t, ctx.IsNull())
}

func TestContextClear(t *testing.T) {
	ctx := newTestContext()
	t1, err := ctx.CreateTable(1, 1)
	require.NoError(t, err)
	t2, err := ctx.CreateTable(1, 1)
	require.NoError(t, err)
	t2.SetPersistent(true)

	ctx.Clear()
	assert.Equal(t, 0, ctx.NumTables())
	assert.False(t, t1.IsValid())
	assert.False(t, t2.IsValid(), "clear removes persistent tables too")
}

func TestPersistentTablesSurviveSweep(t *testing.T) {
	ctx := newTestContext(gridgo.WithTablesPersistent(true))
	tbl, err := ctx.CreateTable(1, 1)
	require.NoError(t, err)
	require.True(t, tbl.IsPersistent())

	assert.Equal(t, 0, ctx.Sweep())
	assert.True(t, tbl.IsValid())

	// Dropping persistence refiles the table as sweepable.
	tbl.SetPersistent(false)
	assert.Equal(t, 1, ctx.Sweep())
	assert.False(t, tbl.IsValid())
}

func TestNewContextFromCopiesDefaults(t *testing.T) {
	template := newTestContext(
		gridgo.WithRowCapacityIncrement(64),
		gridgo.WithTablesPersistent(true),
	)

	derived := gridgo.NewContextFrom(template, gridgo.WithLogger(gridgo.NoopLogger()))
	tbl, err := derived.CreateTable(1, 1)
	require.NoError(t, err)
	assert.True(t, tbl.IsPersistent(), "persistence default copied from template")

	v, ok := derived.GetProperty(gridgo.PropRowCapacityIncr)
	require.True(t, ok)
	assert.Equal(t, 64, v)
}

func TestCreateTableFromTemplate(t *testing.T) {
	ctx := newTestContext()
	template, err := ctx.CreateTable(0, 0)
	require.NoError(t, err)
	require.NoError(t, template.SetNamedProperty("schema", "v2"))
	template.SetEnforceDatatype(true)

	tbl, err := ctx.CreateTableFrom(template, 1, 1)
	require.NoError(t, err)
	assert.True(t, tbl.IsDatatypeEnforced())
	v, ok := tbl.GetNamedProperty("schema")
	require.True(t, ok)
	assert.Equal(t, "v2", v)
}
