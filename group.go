package gridgo

import (
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/gridgo/cellset"
	"github.com/hupe1980/gridgo/core"
)

// Group is a named, non-owning collection of table elements: rows, columns,
// individual cells, and nested groups. A group keeps two representations in
// step: its composition (what was added) and a flattened coordinate bitmap
// (which cells it spans right now). The bitmap is recomputed lazily; any
// structural change to the table or the composition just marks it dirty.
//
// Axis semantics: a group holding only rows spans every column the table
// currently has, and vice versa. A group holding both spans the cartesian
// product of its rows and columns.
type Group struct {
	element
	table *Table

	rows    map[*Row]struct{}
	cols    map[*Column]struct{}
	cells   map[*Cell]struct{}
	nested  map[*Group]struct{}
	parents map[*Group]struct{}

	bitmap *cellset.Set
}

// CreateGroup creates an empty group registered with the table.
func (t *Table) CreateGroup() (*Group, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.vet(); err != nil {
		return nil, err
	}
	g := &Group{
		element: newElement(KindGroup),
		table:   t,
		rows:    make(map[*Row]struct{}),
		cols:    make(map[*Column]struct{}),
		cells:   make(map[*Cell]struct{}),
		nested:  make(map[*Group]struct{}),
		parents: make(map[*Group]struct{}),
		bitmap:  cellset.New(),
	}
	g.set(core.Dirty)
	t.registerGroupLocked(g)
	g.markInitialized()
	return g, nil
}

// Table returns the owning table, or nil after deletion.
func (g *Group) Table() *Table { return g.table }

func (g *Group) lockTable() (*Table, error) {
	t := g.table
	if t == nil {
		return nil, newDeletedError(KindGroup)
	}
	t.mu.Lock()
	if g.IsInvalid() {
		t.mu.Unlock()
		return nil, newDeletedError(KindGroup)
	}
	return t, nil
}

// Label returns the group's label, or "".
func (g *Group) Label() string {
	t := g.table
	if t == nil {
		return ""
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return g.labelValue()
}

// SetLabel sets the group's label. When group label indexing is enabled on
// the table, duplicate labels are rejected.
func (g *Group) SetLabel(label string) error {
	t, err := g.lockTable()
	if err != nil {
		return err
	}
	defer t.mu.Unlock()

	key := normalizeKey(label)
	if t.has(core.GroupLabelsIndexed) && key != "" {
		if existing, ok := t.groupLabelIndex[key]; ok && existing != g {
			return &UnsupportedOperationError{Kind: KindGroup, Reason: "label is not unique"}
		}
	}
	if old := normalizeKey(g.labelValue()); old != "" && t.groupLabelIndex[old] == g {
		delete(t.groupLabelIndex, old)
	}
	if err := g.setProperty(PropLabel, label); err != nil {
		return err
	}
	if key != "" {
		t.groupLabelIndex[key] = g
	}
	return nil
}

// Description returns the group's description, or "".
func (g *Group) Description() string {
	t := g.table
	if t == nil {
		return ""
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return g.descriptionValue()
}

// SetDescription sets the group's description.
func (g *Group) SetDescription(desc string) error {
	t, err := g.lockTable()
	if err != nil {
		return err
	}
	defer t.mu.Unlock()
	return g.setProperty(PropDescription, desc)
}

// UUID lazily assigns and returns the group's UUID.
func (g *Group) UUID() uuid.UUID {
	t := g.table
	if t == nil {
		return uuid.UUID{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	u := g.uuidValue()
	if t.uuidIndex != nil {
		t.uuidIndex[u] = g
	}
	return u
}

// Tag adds tags to the group.
func (g *Group) Tag(tags ...string) bool {
	t := g.table
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return tagElement(&g.element, tags)
}

// Untag removes tags from the group.
func (g *Group) Untag(tags ...string) bool {
	t := g.table
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return untagElement(&g.element, tags)
}

// Tags returns the group's tags, sorted.
func (g *Group) Tags() []string {
	t := g.table
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return tagsOf(&g.element)
}

// IsPersistent reports whether the table pins this group.
func (g *Group) IsPersistent() bool {
	t := g.table
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return g.has(core.Persistent)
}

// SetPersistent pins or unpins the group on its table. Pinned groups
// survive until explicitly deleted or the table goes away.
func (g *Group) SetPersistent(persistent bool) {
	t, err := g.lockTable()
	if err != nil {
		return
	}
	defer t.mu.Unlock()
	g.mutate(core.Persistent, persistent)
	if persistent {
		t.persistentGroups[g] = struct{}{}
	} else {
		delete(t.persistentGroups, g)
	}
}

// --- membership -----------------------------------------------------------

// Add inserts elements into the group's composition. Elements must belong
// to the group's table; adding a group to itself, directly or through
// nesting, is rejected.
func (g *Group) Add(elems ...TableElement) error {
	t, err := g.lockTable()
	if err != nil {
		return err
	}
	defer t.mu.Unlock()

	changed := false
	for _, e := range elems {
		if e == nil {
			continue
		}
		if e.Table() != t || !e.IsValid() {
			return &InvalidParentError{Kind: e.Kind()}
		}
		switch x := e.(type) {
		case *Row:
			if _, ok := g.rows[x]; !ok {
				g.rows[x] = struct{}{}
				changed = true
			}
		case *Column:
			if _, ok := g.cols[x]; !ok {
				g.cols[x] = struct{}{}
				changed = true
			}
		case *Cell:
			if _, ok := g.cells[x]; !ok {
				g.cells[x] = struct{}{}
				t.registerCellGroupLocked(x, g)
				changed = true
			}
		case *Group:
			if x == g || x.reachesLocked(g) {
				return &UnsupportedOperationError{Kind: KindGroup, Reason: "recursive group membership"}
			}
			if _, ok := g.nested[x]; !ok {
				g.nested[x] = struct{}{}
				x.parents[g] = struct{}{}
				changed = true
			}
		default:
			return &UnsupportedOperationError{Kind: e.Kind(), Reason: "element kind cannot join a group"}
		}
	}
	if changed {
		g.markDirtyLocked()
	}
	return nil
}

// Remove deletes elements from the group's composition. Unknown elements
// are ignored.
func (g *Group) Remove(elems ...TableElement) error {
	t, err := g.lockTable()
	if err != nil {
		return err
	}
	defer t.mu.Unlock()
	changed := false
	for _, e := range elems {
		if g.removeMemberNoDirtyLocked(e) {
			changed = true
		}
	}
	if changed {
		g.markDirtyLocked()
	}
	return nil
}

// removeMemberLocked drops a member and dirties the group; cascade entry
// point for element deletion.
func (g *Group) removeMemberLocked(e TableElement) {
	if g.removeMemberNoDirtyLocked(e) {
		g.markDirtyLocked()
	}
}

func (g *Group) removeMemberNoDirtyLocked(e TableElement) bool {
	switch x := e.(type) {
	case *Row:
		if _, ok := g.rows[x]; ok {
			delete(g.rows, x)
			return true
		}
	case *Column:
		if _, ok := g.cols[x]; ok {
			delete(g.cols, x)
			return true
		}
	case *Cell:
		if _, ok := g.cells[x]; ok {
			delete(g.cells, x)
			if t := g.table; t != nil {
				t.deregisterCellGroupLocked(x, g)
			}
			return true
		}
	case *Group:
		if _, ok := g.nested[x]; ok {
			delete(g.nested, x)
			delete(x.parents, g)
			return true
		}
	}
	return false
}

// Contains reports direct composition membership.
func (g *Group) Contains(e TableElement) bool {
	t := g.table
	if t == nil || e == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	switch x := e.(type) {
	case *Row:
		_, ok := g.rows[x]
		return ok
	case *Column:
		_, ok := g.cols[x]
		return ok
	case *Cell:
		_, ok := g.cells[x]
		return ok
	case *Group:
		_, ok := g.nested[x]
		return ok
	}
	return false
}

// ContainsCell reports whether the group's flattened span covers the cell.
// A cell from another table is never covered, even when its coordinates
// alias a member's.
func (g *Group) ContainsCell(cell *Cell) bool {
	t := g.table
	if t == nil || cell == nil || cell.Table() != t {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	row := t.rowAtOffsetLocked(cell.offset)
	if row == nil || cell.col == nil {
		return false
	}
	return g.bitmapLocked().ContainsCell(row.index, cell.col.index)
}

// reachesLocked reports whether target is reachable through g's nesting.
func (g *Group) reachesLocked(target *Group) bool {
	for sub := range g.nested {
		if sub == target || sub.reachesLocked(target) {
			return true
		}
	}
	return false
}

// --- effective axes and flattening ----------------------------------------

// Rows returns the rows in the group's composition.
func (g *Group) Rows() []*Row {
	t := g.table
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Row, 0, len(g.rows))
	for r := range g.rows {
		out = append(out, r)
	}
	return out
}

// Columns returns the columns in the group's composition.
func (g *Group) Columns() []*Column {
	t := g.table
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Column, 0, len(g.cols))
	for c := range g.cols {
		out = append(out, c)
	}
	return out
}

// Cells returns the cells in the group's composition (not the flattened
// span).
func (g *Group) Cells() []*Cell {
	t := g.table
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Cell, 0, len(g.cells))
	for c := range g.cells {
		out = append(out, c)
	}
	return out
}

// Groups returns the directly nested groups.
func (g *Group) Groups() []*Group {
	t := g.table
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Group, 0, len(g.nested))
	for sub := range g.nested {
		out = append(out, sub)
	}
	return out
}

// EffectiveRows returns the rows the group spans: its own rows, or every
// table row when the group has only columns.
func (g *Group) EffectiveRows() []*Row {
	t := g.table
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(g.rows) > 0 || len(g.cols) == 0 {
		out := make([]*Row, 0, len(g.rows))
		for r := range g.rows {
			out = append(out, r)
		}
		return out
	}
	out := make([]*Row, 0, len(t.rows))
	for _, r := range t.rows {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// EffectiveColumns returns the columns the group spans: its own columns, or
// every table column when the group has only rows.
func (g *Group) EffectiveColumns() []*Column {
	t := g.table
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(g.cols) > 0 || len(g.rows) == 0 {
		out := make([]*Column, 0, len(g.cols))
		for c := range g.cols {
			out = append(out, c)
		}
		return out
	}
	out := make([]*Column, 0, len(t.cols))
	for _, c := range t.cols {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// markDirtyLocked flags the flattened bitmap stale and propagates through
// every group containing this one.
func (g *Group) markDirtyLocked() {
	if g.has(core.Dirty) {
		return
	}
	g.set(core.Dirty)
	for parent := range g.parents {
		parent.markDirtyLocked()
	}
}

// IsDirty reports whether the flattened bitmap is stale.
func (g *Group) IsDirty() bool {
	t := g.table
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return g.has(core.Dirty)
}

// bitmapLocked returns the flattened coordinate set, recomputing it when
// dirty. Requires the table write lock.
func (g *Group) bitmapLocked() *cellset.Set {
	if !g.has(core.Dirty) {
		return g.bitmap
	}
	t := g.table

	bm := cellset.New()
	if len(g.rows) > 0 || len(g.cols) > 0 {
		effRows := g.rows
		effCols := g.cols
		var allRows []*Row
		var allCols []*Column
		if len(effRows) == 0 {
			allRows = t.rows
		}
		if len(effCols) == 0 {
			allCols = t.cols
		}
		addCoord := func(rIdx, cIdx int) {
			bm.AddCell(rIdx, cIdx)
		}
		rowIdxs := make([]int, 0, len(effRows)+len(allRows))
		for r := range effRows {
			if r.index > 0 {
				rowIdxs = append(rowIdxs, r.index)
			}
		}
		for _, r := range allRows {
			if r != nil && r.index > 0 {
				rowIdxs = append(rowIdxs, r.index)
			}
		}
		colIdxs := make([]int, 0, len(effCols)+len(allCols))
		for c := range effCols {
			if c.index > 0 {
				colIdxs = append(colIdxs, c.index)
			}
		}
		for _, c := range allCols {
			if c != nil && c.index > 0 {
				colIdxs = append(colIdxs, c.index)
			}
		}
		for _, ri := range rowIdxs {
			for _, ci := range colIdxs {
				addCoord(ri, ci)
			}
		}
	}
	for cell := range g.cells {
		if cell.col == nil {
			continue
		}
		if row := t.rowAtOffsetLocked(cell.offset); row != nil {
			bm.AddCell(row.index, cell.col.index)
		}
	}
	for sub := range g.nested {
		if sub.IsValid() {
			bm.Or(sub.bitmapLocked())
		}
	}

	g.bitmap = bm
	g.reset(core.Dirty)
	return g.bitmap
}

// NumCells returns the number of cell coordinates the group spans.
func (g *Group) NumCells() int {
	t, err := g.lockTable()
	if err != nil {
		return 0
	}
	defer t.mu.Unlock()
	return g.bitmapLocked().Cardinality()
}

// IsNull reports whether the group spans no cells.
func (g *Group) IsNull() bool { return g.NumCells() == 0 }

// CellSet returns a copy of the group's flattened coordinate set.
func (g *Group) CellSet() (*cellset.Set, error) {
	t, err := g.lockTable()
	if err != nil {
		return nil, err
	}
	defer t.mu.Unlock()
	return g.bitmapLocked().Clone(), nil
}

// --- set algebra ----------------------------------------------------------

func (g *Group) vetOperand(other *Group) (*Table, error) {
	t := g.table
	if t == nil {
		return nil, newDeletedError(KindGroup)
	}
	if other == nil || other.table != t {
		return nil, &InvalidParentError{Kind: KindGroup}
	}
	if g.IsInvalid() || other.IsInvalid() {
		return nil, newDeletedError(KindGroup)
	}
	return t, nil
}

// Union returns a new group holding both compositions. The result stays
// compositional: it tracks later structural changes the way its operands
// do.
func (g *Group) Union(other *Group) (*Group, error) {
	t, err := g.vetOperand(other)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out, err := t.CreateGroup()
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	out.absorbCompositionLocked(g)
	out.absorbCompositionLocked(other)
	out.markDirtyLocked()
	t.mu.Unlock()
	t.metrics.RecordGroupOp("union", time.Since(start))
	return out, nil
}

// UnionWith adds the other group's composition to the receiver.
func (g *Group) UnionWith(other *Group) error {
	t, err := g.vetOperand(other)
	if err != nil {
		return err
	}
	start := time.Now()
	t.mu.Lock()
	g.absorbCompositionLocked(other)
	g.markDirtyLocked()
	t.mu.Unlock()
	t.metrics.RecordGroupOp("union", time.Since(start))
	return nil
}

func (g *Group) absorbCompositionLocked(src *Group) {
	t := g.table
	for r := range src.rows {
		g.rows[r] = struct{}{}
	}
	for c := range src.cols {
		g.cols[c] = struct{}{}
	}
	for cell := range src.cells {
		if _, ok := g.cells[cell]; !ok {
			g.cells[cell] = struct{}{}
			t.registerCellGroupLocked(cell, g)
		}
	}
	for sub := range src.nested {
		if sub == g || sub.reachesLocked(g) {
			continue
		}
		if _, ok := g.nested[sub]; !ok {
			g.nested[sub] = struct{}{}
			sub.parents[g] = struct{}{}
		}
	}
}

// Intersect returns a new group spanning the cells both groups span. The
// result is flattened: an explicit cell list that no longer tracks
// structural change.
func (g *Group) Intersect(other *Group) (*Group, error) {
	return g.flattenedOp(other, "intersect", func(a, b *cellset.Set) {
		a.And(b)
	})
}

// Subtract returns a new flattened group spanning the cells g spans and
// other does not.
func (g *Group) Subtract(other *Group) (*Group, error) {
	return g.flattenedOp(other, "subtract", func(a, b *cellset.Set) {
		a.AndNot(b)
	})
}

// SymmetricDiff returns a new flattened group spanning the cells exactly
// one of the groups spans.
func (g *Group) SymmetricDiff(other *Group) (*Group, error) {
	return g.flattenedOp(other, "xor", func(a, b *cellset.Set) {
		a.Xor(b)
	})
}

func (g *Group) flattenedOp(other *Group, name string, op func(a, b *cellset.Set)) (*Group, error) {
	t, err := g.vetOperand(other)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out, err := t.CreateGroup()
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	bm := g.bitmapLocked().Clone()
	op(bm, other.bitmapLocked())
	err = out.adoptFlattenedLocked(bm)
	t.mu.Unlock()
	if err != nil {
		out.Delete()
		return nil, err
	}
	t.metrics.RecordGroupOp(name, time.Since(start))
	t.logger.WithTable(t).LogGroupOp(name, out.NumCells())
	return out, nil
}

// IntersectWith reduces the receiver to the intersection; its composition
// collapses to the flattened cell list.
func (g *Group) IntersectWith(other *Group) error {
	return g.flattenedOpInPlace(other, "intersect", func(a, b *cellset.Set) {
		a.And(b)
	})
}

// SubtractWith removes other's span from the receiver; the composition
// collapses to the flattened cell list.
func (g *Group) SubtractWith(other *Group) error {
	return g.flattenedOpInPlace(other, "subtract", func(a, b *cellset.Set) {
		a.AndNot(b)
	})
}

// SymmetricDiffWith reduces the receiver to the symmetric difference; the
// composition collapses to the flattened cell list.
func (g *Group) SymmetricDiffWith(other *Group) error {
	return g.flattenedOpInPlace(other, "xor", func(a, b *cellset.Set) {
		a.Xor(b)
	})
}

func (g *Group) flattenedOpInPlace(other *Group, name string, op func(a, b *cellset.Set)) error {
	t, err := g.vetOperand(other)
	if err != nil {
		return err
	}
	start := time.Now()
	t.mu.Lock()
	bm := g.bitmapLocked().Clone()
	op(bm, other.bitmapLocked())
	g.clearCompositionLocked()
	err = g.adoptFlattenedLocked(bm)
	t.mu.Unlock()
	t.metrics.RecordGroupOp(name, time.Since(start))
	return err
}

// clearCompositionLocked empties the group's composition and back-pointers.
func (g *Group) clearCompositionLocked() {
	t := g.table
	for cell := range g.cells {
		t.deregisterCellGroupLocked(cell, g)
	}
	for sub := range g.nested {
		delete(sub.parents, g)
	}
	g.rows = make(map[*Row]struct{})
	g.cols = make(map[*Column]struct{})
	g.cells = make(map[*Cell]struct{})
	g.nested = make(map[*Group]struct{})
	g.markDirtyLocked()
}

// adoptFlattenedLocked replaces the composition with the explicit cells at
// the bitmap's coordinates, materializing them as needed.
func (g *Group) adoptFlattenedLocked(bm *cellset.Set) error {
	t := g.table
	for coord := range bm.All() {
		rIdx, cIdx := coord.Row(), coord.Col()
		if rIdx > len(t.rows) || cIdx > len(t.cols) {
			continue
		}
		row := t.rows[rIdx-1]
		col := t.cols[cIdx-1]
		if row == nil || col == nil {
			continue
		}
		cell, err := col.getOrCreateCellLocked(row)
		if err != nil {
			return err
		}
		g.cells[cell] = struct{}{}
		t.registerCellGroupLocked(cell, g)
	}
	g.bitmap = bm
	g.reset(core.Dirty)
	return nil
}

// --- predicates -----------------------------------------------------------

// Equal reports whether both groups span exactly the same cells. Groups of
// different tables are never equal.
func (g *Group) Equal(other *Group) bool {
	t, err := g.vetOperand(other)
	if err != nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return g.bitmapLocked().Equals(other.bitmapLocked())
}

// IsSubsetOf reports whether every cell g spans is spanned by other.
func (g *Group) IsSubsetOf(other *Group) (bool, error) {
	t, err := g.vetOperand(other)
	if err != nil {
		return false, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return g.bitmapLocked().IsSubsetOf(other.bitmapLocked()), nil
}

// IsSupersetOf reports whether g spans every cell other spans.
func (g *Group) IsSupersetOf(other *Group) (bool, error) {
	t, err := g.vetOperand(other)
	if err != nil {
		return false, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return other.bitmapLocked().IsSubsetOf(g.bitmapLocked()), nil
}

// IsDisjointFrom reports whether the groups share no cell.
func (g *Group) IsDisjointFrom(other *Group) (bool, error) {
	t, err := g.vetOperand(other)
	if err != nil {
		return false, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return g.bitmapLocked().IsDisjointFrom(other.bitmapLocked()), nil
}

// Similarity returns the Jaccard index of the spans: intersection over
// union, 0.0 when both groups are empty.
func (g *Group) Similarity(other *Group) (float64, error) {
	t, err := g.vetOperand(other)
	if err != nil {
		return 0, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return g.bitmapLocked().Jaccard(other.bitmapLocked()), nil
}

// --- fill -----------------------------------------------------------------

// Fill assigns a value to every cell the group spans, materializing cells
// as needed. Derived rows, columns, and cells are skipped; automatic
// recalculation is suspended for the duration; the default cursor position
// is restored.
func (g *Group) Fill(value any) error {
	t, err := g.lockTable()
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
	for coord := range g.bitmapLocked().All() {
		rIdx, cIdx := coord.Row(), coord.Col()
		if rIdx > len(t.rows) || cIdx > len(t.cols) {
			continue
		}
		row := t.rows[rIdx-1]
		col := t.cols[cIdx-1]
		if row == nil || col == nil || row.has(core.Derived) || col.has(core.Derived) {
			continue
		}
		cell, cellChanged, err := col.fillCellLocked(row, value, true, false)
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
		t.fireEvent(OnNewValue, g, value)
		if autoRecalc {
			t.recalcTargets(affected)
		}
	}
	return nil
}

// Clear removes the value of every cell the group spans.
func (g *Group) Clear() error { return g.Fill(nil) }

// --- lifecycle ------------------------------------------------------------

// Delete removes the group: members are released (never deleted), nesting
// back-pointers cleared, and the group deregistered from its table.
// Idempotent.
func (g *Group) Delete() {
	t := g.table
	if t == nil {
		return
	}
	t.mu.Lock()
	if g.IsInvalid() {
		t.mu.Unlock()
		return
	}
	g.clearCompositionLocked()
	for parent := range g.parents {
		delete(parent.nested, g)
		parent.markDirtyLocked()
	}
	g.parents = make(map[*Group]struct{})
	if t.uuidIndex != nil {
		for u, e := range t.uuidIndex {
			if e == g {
				delete(t.uuidIndex, u)
			}
		}
	}
	t.deregisterGroupLocked(g)
	g.table = nil
	g.bitmap = nil
	g.invalidate()
	t.mu.Unlock()

	t.fireEvent(OnDelete, g, nil)
}
