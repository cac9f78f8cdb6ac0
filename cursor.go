package gridgo

// Cursor is an explicit current-cell handle. Each goroutine that wants a
// current position obtains its own cursor via Table.Cursor; cursors are
// never shared implicitly, which replaces the thread-local current-cell of
// designs that have thread-local storage to lean on.
//
// A cursor tracks a current row and column independently; the current cell
// is their intersection. Push and Pop save and restore positions around
// nested operations. Table deletion invalidates every cursor.
type Cursor struct {
	table *Table
	row   *Row
	col   *Column
	stack []cursorPos
	dead  bool
}

type cursorPos struct {
	row *Row
	col *Column
}

// Cursor returns a new current-cell handle bound to the table. The caller
// owns it; one per goroutine.
func (t *Table) Cursor() *Cursor {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.IsInvalid() || t.cursors == nil {
		return &Cursor{table: t, dead: true}
	}
	cur := &Cursor{table: t}
	t.cursors[cur] = struct{}{}
	return cur
}

// DefaultCursor returns the table's shared cursor: the position bulk
// operations save and restore. Single-goroutine callers can use it directly;
// concurrent callers should obtain their own via Cursor.
func (t *Table) DefaultCursor() *Cursor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.defaultCursor == nil {
		return &Cursor{table: t, dead: true}
	}
	return t.defaultCursor
}

// Table returns the table this cursor navigates.
func (c *Cursor) Table() *Table { return c.table }

// IsValid reports whether the cursor's table is still alive.
func (c *Cursor) IsValid() bool {
	t := c.table
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !c.dead
}

// Close deregisters the cursor from its table.
func (c *Cursor) Close() {
	t := c.table
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cursors != nil {
		delete(t.cursors, c)
	}
	c.invalidateLocked()
}

// invalidateLocked severs the cursor; called under the table lock.
func (c *Cursor) invalidateLocked() {
	c.dead = true
	c.row = nil
	c.col = nil
	c.stack = nil
}

// Row returns the current row, or nil.
func (c *Cursor) Row() *Row {
	t := c.table
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return c.row
}

// Column returns the current column, or nil.
func (c *Cursor) Column() *Column {
	t := c.table
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return c.col
}

// Cell materializes and returns the cell at the current position, or nil
// when either axis is unset.
func (c *Cursor) Cell() (*Cell, error) {
	t := c.table
	if t == nil {
		return nil, newDeletedError(KindTable)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if c.dead {
		return nil, newDeletedError(KindTable)
	}
	if c.row == nil || c.col == nil {
		return nil, nil
	}
	return c.col.getOrCreateCellLocked(c.row)
}

// SetRow positions the cursor on a row of its table.
func (c *Cursor) SetRow(r *Row) error {
	t := c.table
	if t == nil {
		return newDeletedError(KindTable)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if c.dead {
		return newDeletedError(KindTable)
	}
	if r != nil {
		if r.table != t {
			return &InvalidParentError{Kind: KindRow}
		}
		if err := r.vet(); err != nil {
			return err
		}
	}
	c.row = r
	return nil
}

// SetColumn positions the cursor on a column of its table.
func (c *Cursor) SetColumn(col *Column) error {
	t := c.table
	if t == nil {
		return newDeletedError(KindTable)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if c.dead {
		return newDeletedError(KindTable)
	}
	if col != nil {
		if col.table != t {
			return &InvalidParentError{Kind: KindColumn}
		}
		if err := col.vet(); err != nil {
			return err
		}
	}
	c.col = col
	return nil
}

// SetCell positions the cursor on a cell's row and column.
func (c *Cursor) SetCell(cell *Cell) error {
	t := c.table
	if t == nil {
		return newDeletedError(KindTable)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if c.dead {
		return newDeletedError(KindTable)
	}
	if cell == nil {
		c.row = nil
		c.col = nil
		return nil
	}
	if cell.Table() != t {
		return &InvalidParentError{Kind: KindCell}
	}
	if err := cell.vet(); err != nil {
		return err
	}
	c.col = cell.col
	c.row = t.rowAtOffsetLocked(cell.offset)
	return nil
}

// NextRow advances to the next row, or off the end to nil.
func (c *Cursor) NextRow() (*Row, error) { return c.stepRow(1) }

// PreviousRow steps back one row, or off the start to nil.
func (c *Cursor) PreviousRow() (*Row, error) { return c.stepRow(-1) }

func (c *Cursor) stepRow(delta int) (*Row, error) {
	t := c.table
	if t == nil {
		return nil, newDeletedError(KindTable)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if c.dead {
		return nil, newDeletedError(KindTable)
	}
	idx := 0
	if c.row != nil {
		idx = c.row.index
	} else if delta < 0 {
		idx = len(t.rows) + 1
	}
	idx += delta
	if idx < 1 || idx > len(t.rows) {
		c.row = nil
		return nil, nil
	}
	c.row = t.rows[idx-1]
	return c.row, nil
}

// NextColumn advances to the next column, or off the end to nil.
func (c *Cursor) NextColumn() (*Column, error) { return c.stepColumn(1) }

// PreviousColumn steps back one column, or off the start to nil.
func (c *Cursor) PreviousColumn() (*Column, error) { return c.stepColumn(-1) }

func (c *Cursor) stepColumn(delta int) (*Column, error) {
	t := c.table
	if t == nil {
		return nil, newDeletedError(KindTable)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if c.dead {
		return nil, newDeletedError(KindTable)
	}
	idx := 0
	if c.col != nil {
		idx = c.col.index
	} else if delta < 0 {
		idx = len(t.cols) + 1
	}
	idx += delta
	if idx < 1 || idx > len(t.cols) {
		c.col = nil
		return nil, nil
	}
	c.col = t.cols[idx-1]
	return c.col, nil
}

// Push saves the current position on the cursor's stack.
func (c *Cursor) Push() {
	t := c.table
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c.stack = append(c.stack, cursorPos{row: c.row, col: c.col})
}

// Pop restores the most recently pushed position. Positions whose elements
// have since been deleted restore to nil.
func (c *Cursor) Pop() {
	t := c.table
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(c.stack)
	if n == 0 {
		return
	}
	pos := c.stack[n-1]
	c.stack = c.stack[:n-1]
	c.restoreLocked(pos)
}

// Reset clears the current position and the saved stack.
func (c *Cursor) Reset() {
	t := c.table
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c.row = nil
	c.col = nil
	c.stack = nil
}

func (c *Cursor) saveLocked() cursorPos {
	return cursorPos{row: c.row, col: c.col}
}

func (c *Cursor) restoreLocked(pos cursorPos) {
	if pos.row != nil && pos.row.IsInvalid() {
		pos.row = nil
	}
	if pos.col != nil && pos.col.IsInvalid() {
		pos.col = nil
	}
	c.row = pos.row
	c.col = pos.col
}

// --- table-side purge -----------------------------------------------------

func (t *Table) purgeCursorsOfRowLocked(r *Row) {
	for cur := range t.cursors {
		if cur.row == r {
			cur.row = nil
		}
		for i := range cur.stack {
			if cur.stack[i].row == r {
				cur.stack[i].row = nil
			}
		}
	}
}

func (t *Table) purgeCursorsOfColumnLocked(col *Column) {
	for cur := range t.cursors {
		if cur.col == col {
			cur.col = nil
		}
		for i := range cur.stack {
			if cur.stack[i].col == col {
				cur.stack[i].col = nil
			}
		}
	}
}
