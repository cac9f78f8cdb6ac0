package gridgo

import (
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/gridgo/core"
)

// Row is a positional label over the table's column storage. It owns no
// cells itself: its cells live in the columns, addressed by the row's cell
// offset, which is assigned lazily when the first cell materializes.
type Row struct {
	slice
	cellOffset int
}

func newRow(t *Table) *Row {
	r := &Row{
		slice:      newSlice(KindRow, t),
		cellOffset: -1,
	}
	r.mutate(core.SupportsNulls, true)
	return r
}

// Label returns the row's label, or "".
func (r *Row) Label() string {
	t := r.table
	if t == nil {
		return ""
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return r.labelValue()
}

// SetLabel sets the row's label. When row label indexing is enabled on the
// table, duplicate labels are rejected.
func (r *Row) SetLabel(label string) error {
	t, err := r.lockTable()
	if err != nil {
		return err
	}
	defer t.mu.Unlock()

	key := normalizeKey(label)
	if t.has(core.RowLabelsIndexed) && key != "" {
		if existing, ok := t.rowLabelIndex[key]; ok && existing != r {
			return &UnsupportedOperationError{Kind: KindRow, Reason: "label is not unique"}
		}
	}
	if old := normalizeKey(r.labelValue()); old != "" && t.rowLabelIndex[old] == r {
		delete(t.rowLabelIndex, old)
	}
	if err := r.setProperty(PropLabel, label); err != nil {
		return err
	}
	if key != "" {
		t.rowLabelIndex[key] = r
	}
	return nil
}

// UUID lazily assigns and returns the row's UUID, registering it in the
// table's UUID index.
func (r *Row) UUID() uuid.UUID {
	t := r.table
	if t == nil {
		return uuid.UUID{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	u := r.uuidValue()
	if t.uuidIndex != nil {
		t.uuidIndex[u] = r
	}
	return u
}

// NumCells returns the number of materialized cells in this row.
func (r *Row) NumCells() int {
	t := r.table
	if t == nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return r.numCellsLocked(t)
}

func (r *Row) numCellsLocked(t *Table) int {
	if r.cellOffset < 0 {
		return 0
	}
	n := 0
	for _, c := range t.cols {
		if c != nil && c.cellAtLocked(r.cellOffset) != nil {
			n++
		}
	}
	return n
}

// IsNull reports whether the row has no materialized cells.
func (r *Row) IsNull() bool {
	return r.NumCells() == 0
}

// GetCell returns the cell at the intersection of this row and the given
// column, materializing it on demand.
func (r *Row) GetCell(col *Column) (*Cell, error) {
	t, err := r.lockTable()
	if err != nil {
		return nil, err
	}
	defer t.mu.Unlock()
	if col == nil || col.table != t {
		return nil, &InvalidParentError{Kind: KindColumn}
	}
	if err := col.vet(); err != nil {
		return nil, err
	}
	return col.getOrCreateCellLocked(r)
}

// Cells returns the row's materialized cells in column order.
func (r *Row) Cells() []*Cell {
	t := r.table
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if r.cellOffset < 0 {
		return nil
	}
	out := make([]*Cell, 0, len(t.cols))
	for _, c := range t.cols {
		if c == nil {
			continue
		}
		if cell := c.cellAtLocked(r.cellOffset); cell != nil {
			out = append(out, cell)
		}
	}
	return out
}

// Fill assigns a value to every cell in the row, materializing cells for
// every current column. Derived columns are skipped.
func (r *Row) Fill(value any) error {
	t, err := r.lockTable()
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
	for _, c := range t.cols {
		if c == nil || c.has(core.Derived) {
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
		t.fireEvent(OnNewValue, r, value)
		if autoRecalc {
			t.recalcTargets(affected)
		}
	}
	return nil
}

// Clear removes every cell value in the row.
func (r *Row) Clear() error { return r.Fill(nil) }

// Delete removes the row from its table: cells are invalidated, groups
// dirtied, subsequent rows renumbered, trailing capacity reclaimed, and
// derivations depending on the row recalculated.
func (r *Row) Delete() error {
	t, err := r.lockTable()
	if err != nil {
		return err
	}
	start := time.Now()
	affected := t.affectsOfLocked(r)
	r.deleteLocked(true)
	t.reclaimRowSpaceLocked()
	t.mu.Unlock()

	t.metrics.RecordStructural(KindRow, time.Since(start))
	t.fireEvent(OnDelete, r, nil)
	t.recalcTargets(affected)
	return nil
}

// deleteLocked tears the row out of the table. When compress is true the
// table's row slice is spliced and survivors renumbered; the table-level
// teardown skips that since the whole slice is discarded.
func (r *Row) deleteLocked(compress bool) {
	t := r.table
	if t == nil || r.IsInvalid() {
		return
	}

	r.removeFromGroupsLocked(t, r)
	t.clearDerivationLocked(r)
	t.dropAffectsEdgesLocked(r.ident)
	t.purgeCursorsOfRowLocked(r)

	t.cacheCellOffsetLocked(r.cellOffset)
	r.cellOffset = -1

	if label := normalizeKey(r.labelValue()); label != "" && t.rowLabelIndex[label] == r {
		delete(t.rowLabelIndex, label)
	}
	delete(t.identIndex, r.ident)
	if t.uuidIndex != nil {
		for u, e := range t.uuidIndex {
			if e == r {
				delete(t.uuidIndex, u)
			}
		}
	}

	if compress && r.index >= 1 && r.index <= len(t.rows) {
		idx := r.index - 1
		t.rows = append(t.rows[:idx], t.rows[idx+1:]...)
		for i := idx; i < len(t.rows); i++ {
			if t.rows[i] != nil {
				t.rows[i].index = i + 1
			}
		}
		t.markGroupsDirtyLocked()
	}

	r.detachLocked()
}

// teardownLocked is the table-delete fast path: no splice, no reindex.
func (r *Row) teardownLocked() {
	r.deleteLocked(false)
}
