package gridgo_test

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/hupe1980/gridgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCellFixture(t *testing.T) (*gridgo.Table, *gridgo.Row, *gridgo.Column, *gridgo.Cell) {
	t.Helper()
	ctx := newTestContext()
	tbl, err := ctx.CreateTable(0, 0)
	require.NoError(t, err)
	r, err := tbl.AddRow()
	require.NoError(t, err)
	c, err := tbl.AddColumn()
	require.NoError(t, err)
	cell, err := tbl.GetCell(r, c)
	require.NoError(t, err)
	return tbl, r, c, cell
}

func TestSetValueRoundTrip(t *testing.T) {
	_, _, _, cell := newCellFixture(t)

	changed, err := cell.SetValue(42)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 42, cell.Value())

	changed, err = cell.SetValue(42)
	require.NoError(t, err)
	assert.False(t, changed, "equal value commits are no-ops")

	changed, err = cell.SetValue(nil)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, cell.IsNull())
}

func TestWriteProtectionFoldsUpward(t *testing.T) {
	tests := []struct {
		name    string
		protect func(tbl *gridgo.Table, r *gridgo.Row, c *gridgo.Column, cell *gridgo.Cell)
	}{
		{name: "cell", protect: func(_ *gridgo.Table, _ *gridgo.Row, _ *gridgo.Column, cell *gridgo.Cell) {
			cell.SetReadOnly(true)
		}},
		{name: "row", protect: func(_ *gridgo.Table, r *gridgo.Row, _ *gridgo.Column, _ *gridgo.Cell) {
			r.SetReadOnly(true)
		}},
		{name: "column", protect: func(_ *gridgo.Table, _ *gridgo.Row, c *gridgo.Column, _ *gridgo.Cell) {
			c.SetReadOnly(true)
		}},
		{name: "table", protect: func(tbl *gridgo.Table, _ *gridgo.Row, _ *gridgo.Column, _ *gridgo.Cell) {
			tbl.SetReadOnly(true)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, r, c, cell := newCellFixture(t)
			tt.protect(tbl, r, c, cell)

			assert.True(t, cell.IsWriteProtected())
			_, err := cell.SetValue(1)
			var roErr *gridgo.ReadOnlyPropertyError
			assert.ErrorAs(t, err, &roErr)
		})
	}
}

func TestNullSupportFoldsDownward(t *testing.T) {
	tbl, r, c, cell := newCellFixture(t)
	_, err := cell.SetValue("occupied")
	require.NoError(t, err)

	// Every level starts permissive; turning any single one off forbids nil.
	require.True(t, cell.IsNullsSupported())

	c.SetSupportsNulls(false)
	assert.False(t, cell.IsNullsSupported())
	_, err = cell.SetValue(nil)
	var nullErr *gridgo.NullValueError
	assert.ErrorAs(t, err, &nullErr)
	assert.Equal(t, "occupied", cell.Value(), "failed write leaves the prior value")

	c.SetSupportsNulls(true)
	r.SetSupportsNulls(false)
	assert.False(t, cell.IsNullsSupported())

	r.SetSupportsNulls(true)
	tbl.SetSupportsNulls(false)
	assert.False(t, cell.IsNullsSupported())

	tbl.SetSupportsNulls(true)
	changed, err := cell.SetValue(nil)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestDatatypeEnforcement(t *testing.T) {
	t.Run("against established value type", func(t *testing.T) {
		tbl, _, _, cell := newCellFixture(t)
		tbl.SetEnforceDatatype(true)

		_, err := cell.SetValue(10)
		require.NoError(t, err)

		_, err = cell.SetValue("not an int")
		var cvErr *gridgo.ConstraintViolationError
		assert.ErrorAs(t, err, &cvErr)
		assert.Equal(t, 10, cell.Value())

		changed, err := cell.SetValue(11)
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("against column datatype", func(t *testing.T) {
		tbl, r, c, _ := newCellFixture(t)
		tbl.SetEnforceDatatype(true)
		require.NoError(t, c.SetDataType(reflect.TypeOf("")))

		cell, err := tbl.GetCell(r, c)
		require.NoError(t, err)

		_, err = cell.SetValue(3.14)
		var cvErr *gridgo.ConstraintViolationError
		assert.ErrorAs(t, err, &cvErr)

		_, err = cell.SetValue("ok")
		require.NoError(t, err)
	})
}

func TestValidatorAndTransformer(t *testing.T) {
	t.Run("validator rejects", func(t *testing.T) {
		_, _, _, cell := newCellFixture(t)
		cell.SetValidator(gridgo.ValidatorFunc(func(v any) error {
			if n, ok := v.(int); !ok || n < 0 {
				return errors.New("must be a non-negative int")
			}
			return nil
		}))

		_, err := cell.SetValue(-1)
		var cvErr *gridgo.ConstraintViolationError
		require.ErrorAs(t, err, &cvErr)
		assert.Nil(t, cell.Value())

		changed, err := cell.SetValue(7)
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("transformer rewrites", func(t *testing.T) {
		_, _, _, cell := newCellFixture(t)
		cell.SetValidator(gridgo.TransformerFunc(func(v any) (any, error) {
			n, ok := v.(int)
			if !ok {
				return nil, fmt.Errorf("want int, got %T", v)
			}
			return n * 2, nil
		}))

		_, err := cell.SetValue(21)
		require.NoError(t, err)
		assert.Equal(t, 42, cell.Value())
	})

	t.Run("removed validator stops running", func(t *testing.T) {
		_, _, _, cell := newCellFixture(t)
		cell.SetValidator(gridgo.ValidatorFunc(func(any) error {
			return errors.New("always")
		}))
		cell.SetValidator(nil)
		_, err := cell.SetValue("anything")
		assert.NoError(t, err)
	})
}

type vetoListener struct {
	veto bool
	seen int
}

func (l *vetoListener) BeforeValueChange(_ *gridgo.Cell, _, _ any) error {
	l.seen++
	if l.veto {
		return gridgo.ErrBlocked
	}
	return nil
}

func (l *vetoListener) OnEvent(gridgo.EventType, any, any) {}

func TestListenerVetoIsSilentNoOp(t *testing.T) {
	tbl, _, _, cell := newCellFixture(t)
	l := &vetoListener{veto: true}
	tbl.AddListener(l)

	changed, err := cell.SetValue("blocked")
	require.NoError(t, err, "a veto is not an error")
	assert.False(t, changed)
	assert.Nil(t, cell.Value())
	assert.Equal(t, 1, l.seen)

	l.veto = false
	changed, err = cell.SetValue("through")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "through", cell.Value())

	tbl.RemoveListener(l)
	_, err = cell.SetValue("unwatched")
	require.NoError(t, err)
	assert.Equal(t, 2, l.seen)
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  gridgo.ErrorCode
	}{
		{name: "plain value", value: 1.0, want: gridgo.NoError},
		{name: "nil", value: nil, want: gridgo.NoError},
		{name: "nan", value: math.NaN(), want: gridgo.ErrorNaN},
		{name: "infinity", value: math.Inf(1), want: gridgo.ErrorInfinity},
		{name: "marker", value: gridgo.ErrorValue{Code: gridgo.ErrorDivideByZero}, want: gridgo.ErrorDivideByZero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, cell := newCellFixture(t)
			_, err := cell.SetValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cell.ErrorCode())
		})
	}
}

func TestErrorMessageClearedOnCommit(t *testing.T) {
	_, _, _, cell := newCellFixture(t)
	cell.SetErrorMessage("stale input")
	assert.Equal(t, "stale input", cell.ErrorMessage())

	_, err := cell.SetValue("fresh")
	require.NoError(t, err)
	assert.Equal(t, "", cell.ErrorMessage())
}

func TestCellRowResolvedThroughOffsets(t *testing.T) {
	tbl, r, c, cell := newCellFixture(t)
	assert.Same(t, r, cell.Row())
	assert.Same(t, c, cell.Column())
	assert.Same(t, tbl, cell.Table())

	// Insert a row above; the cell follows its row to the new index.
	_, err := tbl.AddRowAt(1)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Index())
	assert.Same(t, r, cell.Row())
}

func TestCellDeleteIsIdempotent(t *testing.T) {
	tbl, _, _, cell := newCellFixture(t)
	require.NoError(t, cell.Delete())
	assert.False(t, cell.IsValid())
	assert.Equal(t, 0, tbl.NumCells())

	err := cell.Delete()
	var delErr *gridgo.DeletedElementError
	assert.ErrorAs(t, err, &delErr)
}

func TestCellLabelAndProperties(t *testing.T) {
	tbl, _, _, cell := newCellFixture(t)
	require.NoError(t, tbl.SetCellLabelsIndexed(true))

	require.NoError(t, cell.SetLabel("total"))
	assert.Equal(t, "total", cell.Label())

	require.NoError(t, cell.SetNamedProperty("source", "import"))
	v, ok := cell.GetNamedProperty("SOURCE")
	require.True(t, ok)
	assert.Equal(t, "import", v)

	require.NoError(t, cell.SetProperty(gridgo.PropDisplayFormat, "%.2f"))
	v, ok = cell.GetProperty(gridgo.PropDisplayFormat)
	require.True(t, ok)
	assert.Equal(t, "%.2f", v)
}
