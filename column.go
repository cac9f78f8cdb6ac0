package gridgo

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/gridgo/core"
)

// Column owns the table's cell storage for its vertical slice: a dense cell
// slice addressed by row cell-offset, grown in row-capacity increments.
type Column struct {
	slice
	cells    []*Cell
	numCells int
}

func newColumn(t *Table) *Column {
	c := &Column{
		slice: newSlice(KindColumn, t),
	}
	c.mutate(core.SupportsNulls, true)
	return c
}

// Label returns the column's label, or "".
func (c *Column) Label() string {
	t := c.table
	if t == nil {
		return ""
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return c.labelValue()
}

// SetLabel sets the column's label. When column label indexing is enabled on
// the table, duplicate labels are rejected.
func (c *Column) SetLabel(label string) error {
	t, err := c.lockTable()
	if err != nil {
		return err
	}
	defer t.mu.Unlock()

	key := normalizeKey(label)
	if t.has(core.ColumnLabelsIndexed) && key != "" {
		if existing, ok := t.colLabelIndex[key]; ok && existing != c {
			return &UnsupportedOperationError{Kind: KindColumn, Reason: "label is not unique"}
		}
	}
	if old := normalizeKey(c.labelValue()); old != "" && t.colLabelIndex[old] == c {
		delete(t.colLabelIndex, old)
	}
	if err := c.setProperty(PropLabel, label); err != nil {
		return err
	}
	if key != "" {
		t.colLabelIndex[key] = c
	}
	return nil
}

// UUID lazily assigns and returns the column's UUID, registering it in the
// table's UUID index.
func (c *Column) UUID() uuid.UUID {
	t := c.table
	if t == nil {
		return uuid.UUID{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	u := c.uuidValue()
	if t.uuidIndex != nil {
		t.uuidIndex[u] = c
	}
	return u
}

// DataType returns the column's declared element type, or nil when values
// are untyped. With datatype enforcement on, new cell values must be
// assignable to it.
func (c *Column) DataType() reflect.Type {
	t := c.table
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return c.dataTypeLocked()
}

func (c *Column) dataTypeLocked() reflect.Type {
	if v, ok, _ := c.getProperty(PropDataType); ok {
		if rt, ok := v.(reflect.Type); ok {
			return rt
		}
	}
	return nil
}

// SetDataType declares the column's element type. Fails when existing cell
// values do not conform.
func (c *Column) SetDataType(rt reflect.Type) error {
	t, err := c.lockTable()
	if err != nil {
		return err
	}
	defer t.mu.Unlock()

	if rt != nil {
		for _, cell := range c.cells {
			if cell == nil || cell.value == nil {
				continue
			}
			if !reflect.TypeOf(cell.value).AssignableTo(rt) {
				return &ConstraintViolationError{Message: "existing cell value does not conform to datatype"}
			}
		}
	}
	if rt == nil {
		_, err := c.clearProperty(PropDataType)
		return err
	}
	return c.setProperty(PropDataType, rt)
}

// NumCells returns the number of materialized cells in the column.
func (c *Column) NumCells() int {
	t := c.table
	if t == nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return c.numCells
}

func (c *Column) numCellsLocked() int { return c.numCells }

// IsNull reports whether the column has no materialized cells.
func (c *Column) IsNull() bool { return c.NumCells() == 0 }

// GetCell returns the cell at the intersection of this column and the given
// row, materializing it on demand.
func (c *Column) GetCell(row *Row) (*Cell, error) {
	t, err := c.lockTable()
	if err != nil {
		return nil, err
	}
	defer t.mu.Unlock()
	if row == nil || row.table != t {
		return nil, &InvalidParentError{Kind: KindRow}
	}
	if err := row.vet(); err != nil {
		return nil, err
	}
	return c.getOrCreateCellLocked(row)
}

// Cells returns the column's materialized cells in row order.
func (c *Column) Cells() []*Cell {
	t := c.table
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Cell, 0, c.numCells)
	for _, r := range t.rows {
		if r == nil || r.cellOffset < 0 {
			continue
		}
		if cell := c.cellAtLocked(r.cellOffset); cell != nil {
			out = append(out, cell)
		}
	}
	return out
}

// Fill assigns a value to every cell in the column, materializing cells for
// every current row. Derived rows are skipped.
func (c *Column) Fill(value any) error {
	t, err := c.lockTable()
	if err != nil {
		return err
	}
	start := time.Now()
	saved := t.defaultCursor.saveLocked()
	t.set(core.AutoRecalculateDisabled)

	changed := 0
	var fillErr error
	var affected []Derivable
	seen := make(map[core.Ident]struct{})
	for _, r := range t.rows {
		if r == nil || r.has(core.Derived) {
			continue
		}
		cell, cellChanged, err := c.fillCellLocked(r, value, true, false)
		if err != nil {
			fillErr = err
			break
		}
		if cellChanged {
			changed++
			affected = t.collectAffectedLocked(cell, seen, affected)
		}
	}

	t.reset(core.AutoRecalculateDisabled)
	autoRecalc := t.isAutoRecalcEnabledLocked()
	t.defaultCursor.restoreLocked(saved)
	t.mu.Unlock()

	t.metrics.RecordFill(changed, time.Since(start))
	if fillErr != nil {
		return fillErr
	}
	if changed > 0 {
		t.fireEvent(OnNewValue, c, value)
		if autoRecalc {
			t.recalcTargets(affected)
		}
	}
	return nil
}

// Clear removes every cell value in the column.
func (c *Column) Clear() error { return c.Fill(nil) }

// Delete removes the column from its table: its cells are invalidated,
// groups dirtied, subsequent columns renumbered, trailing capacity
// reclaimed, and derivations depending on the column recalculated.
func (c *Column) Delete() error {
	t, err := c.lockTable()
	if err != nil {
		return err
	}
	start := time.Now()
	affected := t.affectsOfLocked(c)
	c.deleteLocked(true)
	t.reclaimColumnSpaceLocked()
	t.mu.Unlock()

	t.metrics.RecordStructural(KindColumn, time.Since(start))
	t.fireEvent(OnDelete, c, nil)
	t.recalcTargets(affected)
	return nil
}

func (c *Column) deleteLocked(compress bool) {
	t := c.table
	if t == nil || c.IsInvalid() {
		return
	}

	c.removeFromGroupsLocked(t, c)
	t.clearDerivationLocked(c)
	t.dropAffectsEdgesLocked(c.ident)
	t.purgeCursorsOfColumnLocked(c)

	for off := range c.cells {
		c.invalidateCellAtLocked(off)
	}
	c.cells = nil
	c.numCells = 0

	if label := normalizeKey(c.labelValue()); label != "" && t.colLabelIndex[label] == c {
		delete(t.colLabelIndex, label)
	}
	delete(t.identIndex, c.ident)
	if t.uuidIndex != nil {
		for u, e := range t.uuidIndex {
			if e == c {
				delete(t.uuidIndex, u)
			}
		}
	}

	if compress && c.index >= 1 && c.index <= len(t.cols) {
		idx := c.index - 1
		t.cols = append(t.cols[:idx], t.cols[idx+1:]...)
		for i := idx; i < len(t.cols); i++ {
			if t.cols[i] != nil {
				t.cols[i].index = i + 1
			}
		}
		t.markGroupsDirtyLocked()
	}

	c.detachLocked()
}

func (c *Column) teardownLocked() {
	c.deleteLocked(false)
}

// --- cell storage ---------------------------------------------------------

func (c *Column) cellAtLocked(offset int) *Cell {
	if offset < 0 || offset >= len(c.cells) {
		return nil
	}
	return c.cells[offset]
}

// ensureCellCapacityLocked grows the dense cell slice to cover offset,
// in whole row-capacity increments.
func (c *Column) ensureCellCapacityLocked(offset int) {
	t := c.table
	if offset < len(c.cells) {
		return
	}
	required := calcCapacity(offset+1, t.rowCapacityIncr())
	if required > cap(c.cells) {
		grown := make([]*Cell, len(c.cells), required)
		copy(grown, c.cells)
		c.cells = grown
	}
	c.cells = c.cells[:offset+1]
}

// getOrCreateCellLocked returns the cell at the row's offset, assigning the
// offset and materializing the cell as needed.
func (c *Column) getOrCreateCellLocked(r *Row) (*Cell, error) {
	t := c.table
	if r.cellOffset < 0 {
		r.cellOffset = t.nextCellOffsetLocked()
		t.offsetRows[r.cellOffset] = r
	}
	if cell := c.cellAtLocked(r.cellOffset); cell != nil {
		return cell, nil
	}
	c.ensureCellCapacityLocked(r.cellOffset)
	cell := newCell(c, r.cellOffset)
	c.cells[r.cellOffset] = cell
	c.numCells++
	t.identIndex[cell.ident] = cell
	cell.markInitialized()
	return cell, nil
}

// invalidateCellAtLocked tears down the cell at offset: removed from groups,
// metadata dropped, slot nilled.
func (c *Column) invalidateCellAtLocked(offset int) {
	cell := c.cellAtLocked(offset)
	if cell == nil {
		return
	}
	cell.invalidateCellLocked()
}

// clearSlotLocked nils the storage slot; called from the cell's own
// invalidation cascade.
func (c *Column) clearSlotLocked(offset int) {
	if offset >= 0 && offset < len(c.cells) && c.cells[offset] != nil {
		c.cells[offset] = nil
		c.numCells--
	}
}

// reclaimCellSpaceLocked shrinks the dense slice to cover numRequired slots.
func (c *Column) reclaimCellSpaceLocked(numRequired int) {
	if numRequired == 0 {
		c.cells = nil
		c.numCells = 0
		return
	}
	if numRequired < len(c.cells) {
		c.cells = c.cells[:numRequired]
	}
}

// fillCellLocked runs the cell commit path for fills: no per-cell events,
// derived cells skipped.
func (c *Column) fillCellLocked(r *Row, value any, typeSafe, preprocess bool) (*Cell, bool, error) {
	cell, err := c.getOrCreateCellLocked(r)
	if err != nil {
		return nil, false, err
	}
	if cell.has(core.Derived) {
		return cell, false, nil
	}
	changed, err := cell.commitLocked(value, typeSafe, preprocess, false)
	return cell, changed, err
}
