package gridgo

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/gridgo/cellset"
	"github.com/hupe1980/gridgo/core"
)

// Axis operations: insertion, lookup, ordering, and cell addressing for the
// table's rows and columns. Indexes are 1-based throughout; survivors are
// renumbered contiguously on insert and delete.

// AddRow appends a row.
func (t *Table) AddRow() (*Row, error) {
	return t.AddRowAt(0)
}

// AddRowAt inserts a row at the given 1-based index, shifting subsequent
// rows down by one. Index 0 or len+1 appends; an index beyond the current
// count materializes the intervening rows too.
func (t *Table) AddRowAt(index int) (*Row, error) {
	t.mu.Lock()
	if err := t.vet(); err != nil {
		t.mu.Unlock()
		return nil, err
	}
	start := time.Now()
	r, err := t.addRowAtLocked(index)
	t.mu.Unlock()

	t.metrics.RecordStructural(KindRow, time.Since(start))
	t.logger.WithTable(t).LogStructural("add", KindRow, index, err)
	if err == nil {
		t.fireEvent(OnCreate, r, nil)
	}
	return r, err
}

func (t *Table) addRowAtLocked(index int) (*Row, error) {
	if index < 0 {
		return nil, &InvalidAccessError{Kind: KindRow, Access: AccessByIndex, Inserting: true}
	}
	if index == 0 {
		index = len(t.rows) + 1
	}
	required := index
	if n := len(t.rows) + 1; n > required {
		required = n
	}
	if required > cellset.MaxAxisIndex+1 {
		return nil, ErrAxisIndexCeiling
	}
	t.ensureRowsCapacityLocked(required)

	// Materialize intervening rows when inserting past the end.
	for len(t.rows) < index-1 {
		filler := newRow(t)
		filler.index = len(t.rows) + 1
		t.rows = append(t.rows, filler)
		t.identIndex[filler.ident] = filler
		filler.markInitialized()
	}

	r := newRow(t)
	if index > len(t.rows) {
		r.index = index
		t.rows = append(t.rows, r)
	} else {
		t.rows = append(t.rows, nil)
		copy(t.rows[index:], t.rows[index-1:])
		t.rows[index-1] = r
		for i := index - 1; i < len(t.rows); i++ {
			if t.rows[i] != nil {
				t.rows[i].index = i + 1
			}
		}
	}
	t.identIndex[r.ident] = r
	t.markGroupsDirtyLocked()
	r.markInitialized()
	return r, nil
}

// AddColumn appends a column.
func (t *Table) AddColumn() (*Column, error) {
	return t.AddColumnAt(0)
}

// AddColumnAt inserts a column at the given 1-based index, shifting
// subsequent columns right by one. Index 0 or len+1 appends.
func (t *Table) AddColumnAt(index int) (*Column, error) {
	t.mu.Lock()
	if err := t.vet(); err != nil {
		t.mu.Unlock()
		return nil, err
	}
	start := time.Now()
	c, err := t.addColumnAtLocked(index)
	t.mu.Unlock()

	t.metrics.RecordStructural(KindColumn, time.Since(start))
	t.logger.WithTable(t).LogStructural("add", KindColumn, index, err)
	if err == nil {
		t.fireEvent(OnCreate, c, nil)
	}
	return c, err
}

func (t *Table) addColumnAtLocked(index int) (*Column, error) {
	if index < 0 {
		return nil, &InvalidAccessError{Kind: KindColumn, Access: AccessByIndex, Inserting: true}
	}
	if index == 0 {
		index = len(t.cols) + 1
	}
	required := index
	if n := len(t.cols) + 1; n > required {
		required = n
	}
	if required > cellset.MaxAxisIndex+1 {
		return nil, ErrAxisIndexCeiling
	}
	t.ensureColsCapacityLocked(required)

	for len(t.cols) < index-1 {
		filler := newColumn(t)
		filler.index = len(t.cols) + 1
		t.cols = append(t.cols, filler)
		t.identIndex[filler.ident] = filler
		filler.markInitialized()
	}

	c := newColumn(t)
	if index > len(t.cols) {
		c.index = index
		t.cols = append(t.cols, c)
	} else {
		t.cols = append(t.cols, nil)
		copy(t.cols[index:], t.cols[index-1:])
		t.cols[index-1] = c
		for i := index - 1; i < len(t.cols); i++ {
			if t.cols[i] != nil {
				t.cols[i].index = i + 1
			}
		}
	}
	t.identIndex[c.ident] = c
	t.markGroupsDirtyLocked()
	c.markInitialized()
	return c, nil
}

// GetRow locates a row. ByIndex materializes missing trailing rows, the way
// sparse tables fill in on first touch; Current/Next/Previous navigate the
// table's default cursor.
func (t *Table) GetRow(access Access, args ...any) (*Row, error) {
	if err := t.vetTable(); err != nil {
		return nil, err
	}

	switch access {
	case AccessFirst:
		return t.rowByIndex(1, false)
	case AccessLast:
		return t.rowByIndex(t.NumRows(), false)
	case AccessByIndex:
		idx, ok := argInt(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindRow, Access: access}
		}
		return t.rowByIndex(idx, true)
	case AccessCurrent:
		return t.DefaultCursor().Row(), nil
	case AccessNext:
		return t.DefaultCursor().NextRow()
	case AccessPrevious:
		return t.DefaultCursor().PreviousRow()
	case AccessByLabel:
		label, ok := argString(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindRow, Access: access}
		}
		t.mu.RLock()
		defer t.mu.RUnlock()
		if r, ok := t.rowLabelIndex[normalizeKey(label)]; ok && r.IsValid() {
			return r, nil
		}
		return nil, nil
	case AccessByIdent:
		ident, ok := argIdent(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindRow, Access: access}
		}
		if r, ok := t.elementByIdent(ident).(*Row); ok {
			return r, nil
		}
		return nil, nil
	case AccessByUUID:
		u, ok := argUUID(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindRow, Access: access}
		}
		if r, ok := t.elementByUUID(u).(*Row); ok {
			return r, nil
		}
		return nil, nil
	case AccessByTags:
		tags := argStrings(args)
		if len(tags) == 0 {
			return nil, &InvalidAccessError{Kind: KindRow, Access: access}
		}
		return t.findRow(func(r *Row) bool { return r.HasAllTags(tags...) }), nil
	case AccessByDescription:
		desc, ok := argString(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindRow, Access: access}
		}
		return t.findRow(func(r *Row) bool { return r.Description() == desc }), nil
	case AccessByProperty:
		match, err := propertyMatcher(KindRow, args)
		if err != nil {
			return nil, err
		}
		return t.findRow(func(r *Row) bool {
			return match(func(p Property) (any, bool) { return r.GetProperty(p) },
				func(k string) (any, bool) { return r.GetNamedProperty(k) })
		}), nil
	case AccessByReference:
		if len(args) == 1 {
			if r, ok := args[0].(*Row); ok && r != nil && r.table == t {
				if err := r.vet(); err != nil {
					return nil, err
				}
				return r, nil
			}
		}
		return nil, &InvalidAccessError{Kind: KindRow, Access: access}
	}
	return nil, &InvalidAccessError{Kind: KindRow, Access: access}
}

func (t *Table) rowByIndex(idx int, create bool) (*Row, error) {
	if idx < 1 {
		return nil, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx <= len(t.rows) {
		return t.rows[idx-1], nil
	}
	if !create {
		return nil, nil
	}
	return t.addRowAtLocked(idx)
}

func (t *Table) findRow(match func(*Row) bool) *Row {
	t.mu.RLock()
	rows := make([]*Row, len(t.rows))
	copy(rows, t.rows)
	t.mu.RUnlock()
	for _, r := range rows {
		if r != nil && r.IsValid() && match(r) {
			return r
		}
	}
	return nil
}

// GetColumn locates a column; selector semantics mirror GetRow, plus
// ByDataType matching the column's declared type.
func (t *Table) GetColumn(access Access, args ...any) (*Column, error) {
	if err := t.vetTable(); err != nil {
		return nil, err
	}

	switch access {
	case AccessFirst:
		return t.columnByIndex(1, false)
	case AccessLast:
		return t.columnByIndex(t.NumColumns(), false)
	case AccessByIndex:
		idx, ok := argInt(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindColumn, Access: access}
		}
		return t.columnByIndex(idx, true)
	case AccessCurrent:
		return t.DefaultCursor().Column(), nil
	case AccessNext:
		return t.DefaultCursor().NextColumn()
	case AccessPrevious:
		return t.DefaultCursor().PreviousColumn()
	case AccessByLabel:
		label, ok := argString(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindColumn, Access: access}
		}
		t.mu.RLock()
		defer t.mu.RUnlock()
		if c, ok := t.colLabelIndex[normalizeKey(label)]; ok && c.IsValid() {
			return c, nil
		}
		return nil, nil
	case AccessByIdent:
		ident, ok := argIdent(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindColumn, Access: access}
		}
		if c, ok := t.elementByIdent(ident).(*Column); ok {
			return c, nil
		}
		return nil, nil
	case AccessByUUID:
		u, ok := argUUID(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindColumn, Access: access}
		}
		if c, ok := t.elementByUUID(u).(*Column); ok {
			return c, nil
		}
		return nil, nil
	case AccessByTags:
		tags := argStrings(args)
		if len(tags) == 0 {
			return nil, &InvalidAccessError{Kind: KindColumn, Access: access}
		}
		return t.findColumn(func(c *Column) bool { return c.HasAllTags(tags...) }), nil
	case AccessByDescription:
		desc, ok := argString(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindColumn, Access: access}
		}
		return t.findColumn(func(c *Column) bool { return c.Description() == desc }), nil
	case AccessByDataType:
		if len(args) != 1 {
			return nil, &InvalidAccessError{Kind: KindColumn, Access: access}
		}
		want := args[0]
		return t.findColumn(func(c *Column) bool {
			rt := c.DataType()
			return rt != nil && rt == want
		}), nil
	case AccessByProperty:
		match, err := propertyMatcher(KindColumn, args)
		if err != nil {
			return nil, err
		}
		return t.findColumn(func(c *Column) bool {
			return match(func(p Property) (any, bool) { return c.GetProperty(p) },
				func(k string) (any, bool) { return c.GetNamedProperty(k) })
		}), nil
	case AccessByReference:
		if len(args) == 1 {
			if c, ok := args[0].(*Column); ok && c != nil && c.table == t {
				if err := c.vet(); err != nil {
					return nil, err
				}
				return c, nil
			}
		}
		return nil, &InvalidAccessError{Kind: KindColumn, Access: access}
	}
	return nil, &InvalidAccessError{Kind: KindColumn, Access: access}
}

func (t *Table) columnByIndex(idx int, create bool) (*Column, error) {
	if idx < 1 {
		return nil, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx <= len(t.cols) {
		return t.cols[idx-1], nil
	}
	if !create {
		return nil, nil
	}
	return t.addColumnAtLocked(idx)
}

func (t *Table) findColumn(match func(*Column) bool) *Column {
	t.mu.RLock()
	cols := make([]*Column, len(t.cols))
	copy(cols, t.cols)
	t.mu.RUnlock()
	for _, c := range cols {
		if c != nil && c.IsValid() && match(c) {
			return c
		}
	}
	return nil
}

// GetGroup locates a group. Supported selectors are ByLabel, ByIdent,
// ByUUID, ByTags, ByDescription, and ByReference; groups have no positional
// order, so the index-based selectors do not apply.
func (t *Table) GetGroup(access Access, args ...any) (*Group, error) {
	if err := t.vetTable(); err != nil {
		return nil, err
	}

	switch access {
	case AccessByLabel:
		label, ok := argString(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindGroup, Access: access}
		}
		key := normalizeKey(label)
		t.mu.RLock()
		if g, ok := t.groupLabelIndex[key]; ok && g.IsValid() {
			t.mu.RUnlock()
			return g, nil
		}
		t.mu.RUnlock()
		return t.findGroup(func(g *Group) bool { return normalizeKey(g.Label()) == key }), nil
	case AccessByIdent:
		ident, ok := argIdent(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindGroup, Access: access}
		}
		if g, ok := t.elementByIdent(ident).(*Group); ok {
			return g, nil
		}
		return nil, nil
	case AccessByUUID:
		u, ok := argUUID(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindGroup, Access: access}
		}
		if g, ok := t.elementByUUID(u).(*Group); ok {
			return g, nil
		}
		return nil, nil
	case AccessByTags:
		tags := argStrings(args)
		if len(tags) == 0 {
			return nil, &InvalidAccessError{Kind: KindGroup, Access: access}
		}
		return t.findGroup(func(g *Group) bool {
			t.mu.RLock()
			defer t.mu.RUnlock()
			return hasAllTags(&g.element, tags)
		}), nil
	case AccessByDescription:
		desc, ok := argString(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindGroup, Access: access}
		}
		return t.findGroup(func(g *Group) bool { return g.Description() == desc }), nil
	case AccessByReference:
		if len(args) == 1 {
			if g, ok := args[0].(*Group); ok && g != nil && g.table == t {
				if g.IsInvalid() {
					return nil, newDeletedError(KindGroup)
				}
				return g, nil
			}
		}
		return nil, &InvalidAccessError{Kind: KindGroup, Access: access}
	}
	return nil, &InvalidAccessError{Kind: KindGroup, Access: access}
}

func (t *Table) findGroup(match func(*Group) bool) *Group {
	t.mu.RLock()
	groups := make([]*Group, 0, len(t.groups))
	for g := range t.groups {
		groups = append(groups, g)
	}
	t.mu.RUnlock()
	for _, g := range groups {
		if g.IsValid() && match(g) {
			return g
		}
	}
	return nil
}

// Rows returns a snapshot of the table's rows in positional order.
func (t *Table) Rows() []*Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Columns returns a snapshot of the table's columns in positional order.
func (t *Table) Columns() []*Column {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Column, len(t.cols))
	copy(out, t.cols)
	return out
}

func (t *Table) elementByIdent(ident core.Ident) TableElement {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.identIndex == nil {
		return nil
	}
	return t.identIndex[ident]
}

func (t *Table) elementByUUID(u uuid.UUID) TableElement {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.uuidIndex == nil {
		return nil
	}
	return t.uuidIndex[u]
}

// --- sorting --------------------------------------------------------------

// SortRows reorders rows by the given comparison; with none given, rows
// sort by label with unlabeled rows last. Cells are unaffected: offsets
// travel with their rows. Positions are renumbered and groups dirtied.
func (t *Table) SortRows(cmp ...func(a, b *Row) int) error {
	if err := t.vetTable(); err != nil {
		return err
	}
	less := func(a, b *Row) bool { return labelLess(a.Label(), b.Label()) }
	if len(cmp) > 0 && cmp[0] != nil {
		fn := cmp[0]
		less = func(a, b *Row) bool { return fn(a, b) < 0 }
	}

	t.mu.Lock()
	sort.SliceStable(t.rows, func(i, j int) bool {
		a, b := t.rows[i], t.rows[j]
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return less(a, b)
	})
	for i, r := range t.rows {
		if r != nil {
			r.index = i + 1
		}
	}
	t.markGroupsDirtyLocked()
	t.mu.Unlock()
	return nil
}

// SortColumns reorders columns; semantics mirror SortRows.
func (t *Table) SortColumns(cmp ...func(a, b *Column) int) error {
	if err := t.vetTable(); err != nil {
		return err
	}
	less := func(a, b *Column) bool { return labelLess(a.Label(), b.Label()) }
	if len(cmp) > 0 && cmp[0] != nil {
		fn := cmp[0]
		less = func(a, b *Column) bool { return fn(a, b) < 0 }
	}

	t.mu.Lock()
	sort.SliceStable(t.cols, func(i, j int) bool {
		a, b := t.cols[i], t.cols[j]
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return less(a, b)
	})
	for i, c := range t.cols {
		if c != nil {
			c.index = i + 1
		}
	}
	t.markGroupsDirtyLocked()
	t.mu.Unlock()
	return nil
}

// labelLess orders labels case-insensitively, unlabeled last.
func labelLess(a, b string) bool {
	if a == "" {
		return false
	}
	if b == "" {
		return true
	}
	return normalizeKey(a) < normalizeKey(b)
}

// --- cell addressing ------------------------------------------------------

// GetCell returns the cell at the intersection of row and col, materializing
// it on demand.
func (t *Table) GetCell(row *Row, col *Column) (*Cell, error) {
	if row == nil {
		return nil, &InvalidParentError{Kind: KindRow}
	}
	return row.GetCell(col)
}

// GetCellAt addresses a cell by 1-based indexes, materializing rows,
// columns, and the cell on demand.
func (t *Table) GetCellAt(rowIdx, colIdx int) (*Cell, error) {
	if err := t.vetTable(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if rowIdx < 1 || colIdx < 1 {
		return nil, &InvalidAccessError{Kind: KindCell, Access: AccessByIndex}
	}
	var row *Row
	if rowIdx <= len(t.rows) {
		row = t.rows[rowIdx-1]
	} else {
		r, err := t.addRowAtLocked(rowIdx)
		if err != nil {
			return nil, err
		}
		row = r
	}
	var col *Column
	if colIdx <= len(t.cols) {
		col = t.cols[colIdx-1]
	} else {
		c, err := t.addColumnAtLocked(colIdx)
		if err != nil {
			return nil, err
		}
		col = c
	}
	return col.getOrCreateCellLocked(row)
}

// IsCell reports whether a cell is materialized at the intersection, without
// creating it.
func (t *Table) IsCell(row *Row, col *Column) bool {
	if row == nil || col == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if row.table != t || col.table != t || row.cellOffset < 0 {
		return false
	}
	return col.cellAtLocked(row.cellOffset) != nil
}

// CellValue returns the value at the intersection without materializing the
// cell; ok is false when no cell exists there.
func (t *Table) CellValue(row *Row, col *Column) (any, bool) {
	if row == nil || col == nil {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if row.table != t || col.table != t || row.cellOffset < 0 {
		return nil, false
	}
	cell := col.cellAtLocked(row.cellOffset)
	if cell == nil {
		return nil, false
	}
	return cell.value, true
}

// SetCellValue commits a value at 1-based indexes through the full cell
// write path.
func (t *Table) SetCellValue(rowIdx, colIdx int, v any) (bool, error) {
	cell, err := t.GetCellAt(rowIdx, colIdx)
	if err != nil {
		return false, err
	}
	return cell.SetValue(v)
}

// --- label index toggles --------------------------------------------------

// SetRowLabelsIndexed enables or disables the unique row label index.
// Enabling fails when current labels collide.
func (t *Table) SetRowLabelsIndexed(indexed bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.vet(); err != nil {
		return err
	}
	if !indexed {
		t.reset(core.RowLabelsIndexed)
		return nil
	}
	index := make(map[string]*Row, len(t.rows))
	for _, r := range t.rows {
		if r == nil {
			continue
		}
		key := normalizeKey(r.labelValue())
		if key == "" {
			continue
		}
		if _, ok := index[key]; ok {
			return &UnsupportedOperationError{Kind: KindRow, Reason: "labels are not unique"}
		}
		index[key] = r
	}
	t.rowLabelIndex = index
	t.set(core.RowLabelsIndexed)
	return nil
}

// SetColumnLabelsIndexed enables or disables the unique column label index.
func (t *Table) SetColumnLabelsIndexed(indexed bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.vet(); err != nil {
		return err
	}
	if !indexed {
		t.reset(core.ColumnLabelsIndexed)
		return nil
	}
	index := make(map[string]*Column, len(t.cols))
	for _, c := range t.cols {
		if c == nil {
			continue
		}
		key := normalizeKey(c.labelValue())
		if key == "" {
			continue
		}
		if _, ok := index[key]; ok {
			return &UnsupportedOperationError{Kind: KindColumn, Reason: "labels are not unique"}
		}
		index[key] = c
	}
	t.colLabelIndex = index
	t.set(core.ColumnLabelsIndexed)
	return nil
}

// SetCellLabelsIndexed enables or disables the unique cell label index.
func (t *Table) SetCellLabelsIndexed(indexed bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.vet(); err != nil {
		return err
	}
	if !indexed {
		t.reset(core.CellLabelsIndexed)
		return nil
	}
	seen := make(map[string]struct{}, len(t.cellLabelIndex))
	for key := range t.cellLabelIndex {
		if _, ok := seen[key]; ok {
			return &UnsupportedOperationError{Kind: KindCell, Reason: "labels are not unique"}
		}
		seen[key] = struct{}{}
	}
	t.set(core.CellLabelsIndexed)
	return nil
}

// SetGroupLabelsIndexed enables or disables the unique group label index.
func (t *Table) SetGroupLabelsIndexed(indexed bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.vet(); err != nil {
		return err
	}
	if !indexed {
		t.reset(core.GroupLabelsIndexed)
		return nil
	}
	index := make(map[string]*Group, len(t.groups))
	for g := range t.groups {
		key := normalizeKey(g.labelValue())
		if key == "" {
			continue
		}
		if _, ok := index[key]; ok {
			return &UnsupportedOperationError{Kind: KindGroup, Reason: "labels are not unique"}
		}
		index[key] = g
	}
	t.groupLabelIndex = index
	t.set(core.GroupLabelsIndexed)
	return nil
}

// --- selector helpers -----------------------------------------------------

func argInt(args []any) (int, bool) {
	if len(args) != 1 {
		return 0, false
	}
	switch v := args[0].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}

// propertyMatcher builds the ByProperty predicate over both property kinds.
func propertyMatcher(kind ElementKind, args []any) (func(get func(Property) (any, bool), getNamed func(string) (any, bool)) bool, error) {
	if len(args) < 2 {
		return nil, &InvalidAccessError{Kind: kind, Access: AccessByProperty}
	}
	want := args[1]
	switch key := args[0].(type) {
	case Property:
		return func(get func(Property) (any, bool), _ func(string) (any, bool)) bool {
			v, ok := get(key)
			return ok && v == want
		}, nil
	case string:
		return func(_ func(Property) (any, bool), getNamed func(string) (any, bool)) bool {
			v, ok := getNamed(key)
			return ok && v == want
		}, nil
	}
	return nil, &InvalidAccessError{Kind: kind, Access: AccessByProperty}
}
