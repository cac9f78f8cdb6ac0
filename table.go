package gridgo

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/gridgo/core"
	"github.com/hupe1980/gridgo/queue"
)

// Table is the root of ownership: it owns its columns, which own their cells,
// and its rows, which are positional labels over the dense column storage.
// Groups are registered with the table but never own their members.
//
// A single RWMutex per table guards the table and every element it owns.
// Compound operations (cell commits, group algebra, cascaded deletes) hold it
// for their full duration, so other goroutines always observe an atomic view.
type Table struct {
	element
	mu  sync.RWMutex
	ctx *Context

	// rows and cols are logically 1-based; len() is the in-use count.
	// Interior slots may be nil until materialized or compacted.
	rows []*Row
	cols []*Column

	rowsCapacity int
	colsCapacity int

	// Cell offsets decouple a row's storage slot from its positional index.
	offsetRows  map[int]*Row
	freeOffsets queue.OffsetQueue
	nextOffset  int

	groups           map[*Group]struct{}
	persistentGroups map[*Group]struct{}

	rowLabelIndex   map[string]*Row
	colLabelIndex   map[string]*Column
	cellLabelIndex  map[string]*Cell
	groupLabelIndex map[string]*Group

	identIndex map[core.Ident]TableElement
	uuidIndex  map[uuid.UUID]TableElement

	// Sparse per-cell metadata lives here, keyed by cell ident, so a cell
	// with no optional properties costs nothing beyond its value slot.
	cellProps   map[core.Ident]map[propKey]any
	cellGroups  map[core.Ident]map[*Group]struct{}
	affects     map[core.Ident]map[core.Ident]Derivable
	derivations map[core.Ident]Derivation

	listeners []EventListener

	cursors       map[*Cursor]struct{}
	defaultCursor *Cursor

	pendings int

	logger  *Logger
	metrics MetricsCollector
}

func newTable(ctx *Context, numRows, numCols int, template *Table) (*Table, error) {
	t := &Table{
		element:          newElement(KindTable),
		ctx:              ctx,
		offsetRows:       make(map[int]*Row),
		groups:           make(map[*Group]struct{}),
		persistentGroups: make(map[*Group]struct{}),
		rowLabelIndex:    make(map[string]*Row),
		colLabelIndex:    make(map[string]*Column),
		cellLabelIndex:   make(map[string]*Cell),
		groupLabelIndex:  make(map[string]*Group),
		identIndex:       make(map[core.Ident]TableElement),
		uuidIndex:        make(map[uuid.UUID]TableElement),
		cellProps:        make(map[core.Ident]map[propKey]any),
		cellGroups:       make(map[core.Ident]map[*Group]struct{}),
		affects:          make(map[core.Ident]map[core.Ident]Derivable),
		derivations:      make(map[core.Ident]Derivation),
		cursors:          make(map[*Cursor]struct{}),
		logger:           ctx.Logger(),
		metrics:          ctx.Metrics(),
	}

	if template != nil {
		template.mu.RLock()
		for _, p := range initializableProperties(KindTable) {
			if v, ok, _ := template.getProperty(p); ok {
				_ = t.initializeProperty(p, v)
			}
		}
		for k, v := range template.props {
			if k.s != "" {
				t.propsMap(true)[k] = v
			}
		}
		t.mutate(core.SupportsNulls, template.has(core.SupportsNulls))
		t.mutate(core.ReadOnly, template.has(core.ReadOnly))
		t.mutate(core.EnforceDatatype, template.has(core.EnforceDatatype))
		t.mutate(core.Persistent, template.has(core.Persistent))
		template.mu.RUnlock()
	} else {
		for _, p := range initializableProperties(KindTable) {
			if v, ok, _ := ctx.getProperty(p); ok {
				_ = t.initializeProperty(p, v)
			}
		}
		t.mutate(core.SupportsNulls, ctx.boolDefault(PropIsSupportsNullsDefault))
		t.mutate(core.ReadOnly, ctx.boolDefault(PropIsReadOnlyDefault))
		t.mutate(core.EnforceDatatype, ctx.boolDefault(PropIsEnforceDatatypeDefault))
		t.mutate(core.Persistent, ctx.boolDefault(PropIsTablesPersistent))
	}
	t.mutate(core.AutoRecalculate, true)

	if numRows < 0 {
		numRows = 0
	}
	if numCols < 0 {
		numCols = 0
	}
	t.rowsCapacity = t.calcRowsCapacity(numRows)
	t.colsCapacity = t.calcColsCapacity(numCols)
	t.rows = make([]*Row, 0, t.rowsCapacity)
	t.cols = make([]*Column, 0, t.colsCapacity)

	t.defaultCursor = &Cursor{table: t}
	t.cursors[t.defaultCursor] = struct{}{}

	ctx.register(t)
	t.markInitialized()

	t.logger.WithTable(t).LogLifecycle("create", numRows, numCols)
	t.fireEvent(OnCreate, t, nil)

	return t, nil
}

// Table returns the table itself, satisfying TableElement.
func (t *Table) Table() *Table { return t }

// Context returns the registry this table belongs to, or nil after deletion.
func (t *Table) Context() *Context {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ctx
}

// --- capacity -------------------------------------------------------------

func (t *Table) rowCapacityIncr() int {
	if v, ok, _ := t.getProperty(PropRowCapacityIncr); ok {
		if n, ok := v.(int); ok && n > 0 {
			return n
		}
	}
	return DefaultRowCapacityIncr
}

func (t *Table) colCapacityIncr() int {
	if v, ok, _ := t.getProperty(PropColumnCapacityIncr); ok {
		if n, ok := v.(int); ok && n > 0 {
			return n
		}
	}
	return DefaultColumnCapacityIncr
}

func (t *Table) freeSpaceThreshold() float64 {
	if v, ok, _ := t.getProperty(PropFreeSpaceThreshold); ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return DefaultFreeSpaceThreshold
}

// calcCapacity returns the smallest multiple of incr that holds numRequired,
// with a floor of one increment.
func calcCapacity(numRequired, incr int) int {
	if numRequired <= 0 {
		return incr
	}
	if rem := numRequired % incr; rem > 0 {
		return numRequired + incr - rem
	}
	return numRequired
}

func (t *Table) calcRowsCapacity(numRequired int) int {
	return calcCapacity(numRequired, t.rowCapacityIncr())
}

func (t *Table) calcColsCapacity(numRequired int) int {
	return calcCapacity(numRequired, t.colCapacityIncr())
}

func (t *Table) ensureRowsCapacityLocked(numRequired int) {
	if numRequired <= t.rowsCapacity {
		return
	}
	t.rowsCapacity = t.calcRowsCapacity(numRequired)
	grown := make([]*Row, len(t.rows), t.rowsCapacity)
	copy(grown, t.rows)
	t.rows = grown
}

func (t *Table) ensureColsCapacityLocked(numRequired int) {
	if numRequired <= t.colsCapacity {
		return
	}
	t.colsCapacity = t.calcColsCapacity(numRequired)
	grown := make([]*Column, len(t.cols), t.colsCapacity)
	copy(grown, t.cols)
	t.cols = grown
}

// reclaimRowSpaceLocked trims trailing row capacity once the free-space
// ratio exceeds the configured threshold.
func (t *Table) reclaimRowSpaceLocked() {
	if len(t.rows) == 0 {
		t.offsetRows = make(map[int]*Row)
		t.freeOffsets.Clear()
		if t.nextOffset > 0 {
			for _, c := range t.cols {
				if c != nil {
					c.reclaimCellSpaceLocked(0)
				}
			}
		}
		t.nextOffset = 0
	}
	threshold := t.freeSpaceThreshold()
	if threshold <= 0 {
		return
	}
	incr := t.rowCapacityIncr()
	free := t.rowsCapacity - len(t.rows)
	if float64(free)/float64(incr) > threshold || len(t.rows) == 0 {
		t.rowsCapacity = t.calcRowsCapacity(len(t.rows))
		trimmed := make([]*Row, len(t.rows), t.rowsCapacity)
		copy(trimmed, t.rows)
		t.rows = trimmed
	}
}

func (t *Table) reclaimColumnSpaceLocked() {
	if len(t.cols) == 0 {
		t.offsetRows = make(map[int]*Row)
		t.freeOffsets.Clear()
		if t.nextOffset > 0 {
			for _, r := range t.rows {
				if r != nil {
					r.cellOffset = -1
				}
			}
		}
		t.nextOffset = 0
	}
	threshold := t.freeSpaceThreshold()
	if threshold <= 0 {
		return
	}
	incr := t.colCapacityIncr()
	free := t.colsCapacity - len(t.cols)
	if float64(free)/float64(incr) > threshold || len(t.cols) == 0 {
		t.colsCapacity = t.calcColsCapacity(len(t.cols))
		trimmed := make([]*Column, len(t.cols), t.colsCapacity)
		copy(trimmed, t.cols)
		t.cols = trimmed
	}
}

// RowsCapacity returns the allocated row capacity; always a whole multiple
// of the row capacity increment.
func (t *Table) RowsCapacity() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rowsCapacity
}

// ColumnsCapacity returns the allocated column capacity.
func (t *Table) ColumnsCapacity() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.colsCapacity
}

// NumRows returns the number of row slots logically in use.
func (t *Table) NumRows() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// NumColumns returns the number of column slots logically in use.
func (t *Table) NumColumns() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.cols)
}

// NumCells returns the number of materialized cells across all columns.
func (t *Table) NumCells() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, c := range t.cols {
		if c != nil {
			n += c.numCellsLocked()
		}
	}
	return n
}

// NumGroups returns the number of groups registered with the table.
func (t *Table) NumGroups() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.groups)
}

// IsNull reports whether the table spans no materialized cells.
func (t *Table) IsNull() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows) == 0 || len(t.cols) == 0 || t.numCellsLocked() == 0
}

func (t *Table) numCellsLocked() int {
	n := 0
	for _, c := range t.cols {
		if c != nil {
			n += c.numCellsLocked()
		}
	}
	return n
}

// InUse reports whether any element of the table is marked in-use. Sweep
// skips in-use non-persistent tables.
func (t *Table) InUse() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.has(core.InUse)
}

// MarkInUse pins a non-persistent table against Sweep.
func (t *Table) MarkInUse(inUse bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mutate(core.InUse, inUse)
}

// --- persistence ----------------------------------------------------------

// IsPersistent reports whether the context retains this table independent of
// external owners.
func (t *Table) IsPersistent() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.has(core.Persistent)
}

// SetPersistent re-files the table under the matching retention class in its
// context.
func (t *Table) SetPersistent(persistent bool) {
	t.mu.Lock()
	t.mutate(core.Persistent, persistent)
	ctx := t.ctx
	t.mu.Unlock()
	if ctx != nil {
		ctx.register(t)
	}
}

// Close disposes of a non-persistent table: it is deleted and drops out of
// its context. Persistent tables are left untouched; delete them explicitly.
// This is the Go replacement for dereference-triggered expiry.
func (t *Table) Close() {
	if t.IsInvalid() || t.IsPersistent() {
		return
	}
	t.Delete()
}

// --- cell offsets ---------------------------------------------------------

func (t *Table) nextCellOffsetLocked() int {
	if off, ok := t.freeOffsets.Pop(); ok {
		return off
	}
	off := t.nextOffset
	t.nextOffset++
	return off
}

// cacheCellOffsetLocked recycles a freed row offset and invalidates the
// cells every column holds at it.
func (t *Table) cacheCellOffsetLocked(offset int) {
	if offset < 0 {
		return
	}
	delete(t.offsetRows, offset)
	t.freeOffsets.Push(offset)
	for _, c := range t.cols {
		if c != nil {
			c.invalidateCellAtLocked(offset)
		}
	}
}

// RowAtOffset returns the row occupying a cell offset, or nil. This is the
// mapping that lets a cell derive its row without storing it.
func (t *Table) RowAtOffset(offset int) *Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rowAtOffsetLocked(offset)
}

func (t *Table) rowAtOffsetLocked(offset int) *Row {
	if offset < 0 {
		return nil
	}
	return t.offsetRows[offset]
}

// --- properties -----------------------------------------------------------

// Label returns the table's label, or "".
func (t *Table) Label() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.labelValue()
}

// SetLabel sets the table's label and refreshes the context's table label
// index. Duplicate labels are rejected when the context indexes them.
func (t *Table) SetLabel(label string) error {
	t.mu.Lock()
	if err := t.vet(); err != nil {
		t.mu.Unlock()
		return err
	}
	old := t.labelValue()
	_ = t.setProperty(PropLabel, label)
	ctx := t.ctx
	t.mu.Unlock()

	if ctx != nil {
		if err := ctx.indexTableLabel(t, label); err != nil {
			t.mu.Lock()
			_ = t.setProperty(PropLabel, old)
			t.mu.Unlock()
			return err
		}
	}
	return nil
}

// Description returns the table's description, or "".
func (t *Table) Description() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.descriptionValue()
}

// SetDescription sets the table's description.
func (t *Table) SetDescription(desc string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.vet(); err != nil {
		return err
	}
	return t.setProperty(PropDescription, desc)
}

// UUID lazily assigns and returns the table's UUID.
func (t *Table) UUID() uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.uuidValue()
}

// GetProperty returns a well-known property value; absent properties yield
// ok=false, never a default.
func (t *Table) GetProperty(p Property) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok, _ := t.getProperty(p)
	return v, ok
}

// SetProperty sets a well-known property, enforcing the capability table.
func (t *Table) SetProperty(p Property, v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.vet(); err != nil {
		return err
	}
	return t.setProperty(p, v)
}

// ClearProperty removes a well-known property.
func (t *Table) ClearProperty(p Property) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.vet(); err != nil {
		return false, err
	}
	return t.clearProperty(p)
}

// GetNamedProperty returns a free-form string-keyed property.
func (t *Table) GetNamedProperty(key string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok, _ := t.getNamedProperty(key)
	return v, ok
}

// SetNamedProperty sets a free-form string-keyed property.
func (t *Table) SetNamedProperty(key string, v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.vet(); err != nil {
		return err
	}
	return t.setNamedProperty(key, v)
}

// --- tags -----------------------------------------------------------------

// Tag adds tags to the table. Reports whether any tag was new.
func (t *Table) Tag(tags ...string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tagElement(&t.element, tags)
}

// Untag removes tags. Reports whether any tag was present.
func (t *Table) Untag(tags ...string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return untagElement(&t.element, tags)
}

// Tags returns the table's tags, sorted.
func (t *Table) Tags() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return tagsOf(&t.element)
}

// HasAllTags reports whether the table carries every given tag.
func (t *Table) HasAllTags(tags ...string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return hasAllTags(&t.element, tags)
}

// HasAnyTags reports whether the table carries at least one of the given
// tags.
func (t *Table) HasAnyTags(tags ...string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return hasAnyTags(&t.element, tags)
}

// --- protection flags -----------------------------------------------------

// IsWriteProtected reports whether writes through this table are rejected,
// folding in the context-wide read-only default.
func (t *Table) IsWriteProtected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isWriteProtectedLocked()
}

func (t *Table) isWriteProtectedLocked() bool {
	if t.has(core.ReadOnly) {
		return true
	}
	return t.ctx != nil && t.ctx.boolDefault(PropIsReadOnlyDefault)
}

// SetReadOnly write-protects every cell of the table.
func (t *Table) SetReadOnly(readOnly bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mutate(core.ReadOnly, readOnly)
}

// IsNullsSupported reports whether nil cell values are permitted, folding in
// the context default.
func (t *Table) IsNullsSupported() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isNullsSupportedLocked()
}

func (t *Table) isNullsSupportedLocked() bool {
	if !t.has(core.SupportsNulls) {
		return false
	}
	return t.ctx == nil || t.ctx.boolDefault(PropIsSupportsNullsDefault)
}

// SetSupportsNulls toggles nil value support for the whole table.
func (t *Table) SetSupportsNulls(supports bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mutate(core.SupportsNulls, supports)
}

// IsDatatypeEnforced reports whether new cell values must match established
// types, folding in the context default.
func (t *Table) IsDatatypeEnforced() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isDatatypeEnforcedLocked()
}

func (t *Table) isDatatypeEnforcedLocked() bool {
	if t.has(core.EnforceDatatype) {
		return true
	}
	return t.ctx != nil && t.ctx.boolDefault(PropIsEnforceDatatypeDefault)
}

// SetEnforceDatatype toggles datatype enforcement for the whole table.
func (t *Table) SetEnforceDatatype(enforce bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mutate(core.EnforceDatatype, enforce)
}

// --- automatic recalculation ----------------------------------------------

// IsAutoRecalculateEnabled reports whether dependent recalculation runs
// after value changes: the configured flag minus any bulk-operation mask.
func (t *Table) IsAutoRecalculateEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isAutoRecalcEnabledLocked()
}

func (t *Table) isAutoRecalcEnabledLocked() bool {
	return t.has(core.AutoRecalculate) && !t.has(core.AutoRecalculateDisabled)
}

// SetAutoRecalculate configures dependent recalculation on value change.
func (t *Table) SetAutoRecalculate(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mutate(core.AutoRecalculate, on)
}

// --- pending counters -----------------------------------------------------

// IsPending reports whether any descendant cell has an in-flight derivation.
func (t *Table) IsPending() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pendings > 0
}

// --- listeners ------------------------------------------------------------

// AddListener registers an event listener. Listeners are invoked
// synchronously and must not call back into the table.
func (t *Table) AddListener(l EventListener) {
	if l == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// RemoveListener deregisters a previously added listener.
func (t *Table) RemoveListener(l EventListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, x := range t.listeners {
		if x == l {
			t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
			return
		}
	}
}

func (t *Table) snapshotListeners() []EventListener {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]EventListener, len(t.listeners))
	copy(out, t.listeners)
	return out
}

func (t *Table) fireEvent(evt EventType, source any, value any) {
	for _, l := range t.snapshotListeners() {
		l.OnEvent(evt, source, value)
	}
}

// beforeValueChangeLocked consults listeners for a veto. Returns ErrBlocked
// when any listener blocks the commit.
func (t *Table) beforeValueChangeLocked(cell *Cell, oldValue, newValue any) error {
	for _, l := range t.listeners {
		if err := l.BeforeValueChange(cell, oldValue, newValue); err != nil {
			return err
		}
	}
	return nil
}

// --- groups registry ------------------------------------------------------

func (t *Table) registerGroupLocked(g *Group) {
	t.groups[g] = struct{}{}
	t.identIndex[g.ident] = g
}

func (t *Table) deregisterGroupLocked(g *Group) {
	delete(t.groups, g)
	delete(t.persistentGroups, g)
	delete(t.identIndex, g.ident)
	for k, v := range t.groupLabelIndex {
		if v == g {
			delete(t.groupLabelIndex, k)
		}
	}
}

func (t *Table) markGroupsDirtyLocked() {
	for g := range t.groups {
		if g.IsValid() {
			g.markDirtyLocked()
		}
	}
}

// registerCellGroupLocked records the back-pointer from a cell to a group
// holding it directly.
func (t *Table) registerCellGroupLocked(cell *Cell, g *Group) {
	gs := t.cellGroups[cell.ident]
	if gs == nil {
		gs = make(map[*Group]struct{})
		t.cellGroups[cell.ident] = gs
	}
	gs[g] = struct{}{}
}

func (t *Table) deregisterCellGroupLocked(cell *Cell, g *Group) {
	gs := t.cellGroups[cell.ident]
	if gs == nil {
		return
	}
	delete(gs, g)
	if len(gs) == 0 {
		delete(t.cellGroups, cell.ident)
	}
}

func (t *Table) cellGroupsLocked(cell *Cell) []*Group {
	gs := t.cellGroups[cell.ident]
	out := make([]*Group, 0, len(gs))
	for g := range gs {
		out = append(out, g)
	}
	return out
}

// Groups returns a snapshot of the table's groups.
func (t *Table) Groups() []*Group {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Group, 0, len(t.groups))
	for g := range t.groups {
		out = append(out, g)
	}
	return out
}

// --- sparse per-cell metadata ---------------------------------------------

func (t *Table) cellPropsLocked(cell *Cell, create bool) map[propKey]any {
	props := t.cellProps[cell.ident]
	if props == nil && create {
		props = make(map[propKey]any)
		t.cellProps[cell.ident] = props
	}
	return props
}

func (t *Table) resetCellPropsLocked(cell *Cell) {
	delete(t.cellProps, cell.ident)
}

// --- lifecycle ------------------------------------------------------------

// Delete deletes the table itself: every row, column, cell, cursor, and
// group is invalidated, and the table is deregistered from its context.
// Idempotent.
func (t *Table) Delete() {
	t.mu.Lock()
	if t.IsInvalid() {
		t.mu.Unlock()
		return
	}

	for i := len(t.cols) - 1; i >= 0; i-- {
		if c := t.cols[i]; c != nil {
			c.teardownLocked()
		}
	}
	for i := len(t.rows) - 1; i >= 0; i-- {
		if r := t.rows[i]; r != nil {
			r.teardownLocked()
		}
	}
	for g := range t.groups {
		g.invalidate()
	}

	t.rows = nil
	t.cols = nil
	t.rowsCapacity = 0
	t.colsCapacity = 0
	t.offsetRows = nil
	t.freeOffsets.Clear()
	t.nextOffset = 0
	t.groups = nil
	t.persistentGroups = nil
	t.rowLabelIndex = nil
	t.colLabelIndex = nil
	t.cellLabelIndex = nil
	t.groupLabelIndex = nil
	t.identIndex = nil
	t.uuidIndex = nil
	t.cellProps = nil
	t.cellGroups = nil
	t.affects = nil
	t.derivations = nil

	for cur := range t.cursors {
		cur.invalidateLocked()
	}
	t.cursors = nil
	t.defaultCursor = nil

	ctx := t.ctx
	t.ctx = nil
	t.invalidate()
	logger := t.logger
	t.mu.Unlock()

	if ctx != nil {
		ctx.deregister(t)
	}
	logger.WithTable(t).LogLifecycle("delete", 0, 0)
	t.fireEvent(OnDelete, t, nil)
}

// DeleteElements removes specific rows, columns, or cells without deleting
// the table. Groups dirty, capacity reclaimed, affected derivations rerun.
func (t *Table) DeleteElements(elems ...TableElement) error {
	if err := t.vetTable(); err != nil {
		return err
	}
	deletedAny := false
	var affected []Derivable
	start := time.Now()

	t.mu.Lock()
	for _, e := range elems {
		if e == nil || !e.IsValid() || e.Table() != t {
			continue
		}
		switch x := e.(type) {
		case *Row:
			affected = append(affected, t.affectsOfLocked(x)...)
			x.deleteLocked(false)
			deletedAny = true
		case *Column:
			affected = append(affected, t.affectsOfLocked(x)...)
			x.deleteLocked(false)
			deletedAny = true
		case *Cell:
			affected = append(affected, t.affectsOfLocked(x)...)
			x.invalidateCellLocked()
			deletedAny = true
		}
	}
	if deletedAny {
		t.reclaimRowSpaceLocked()
		t.reclaimColumnSpaceLocked()
		t.markGroupsDirtyLocked()
	}
	t.mu.Unlock()

	if deletedAny {
		t.metrics.RecordStructural(KindTable, time.Since(start))
		t.recalcTargets(affected)
	}
	return nil
}

func (t *Table) vetTable() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.vet()
}

// --- fill -----------------------------------------------------------------

// Fill assigns a value to every cell the table currently spans. Cells are
// materialized for existing rows and columns only. Automatic recalculation
// is suspended for the duration and the cursor position is restored.
func (t *Table) Fill(value any) error {
	if err := t.vetTable(); err != nil {
		return err
	}
	start := time.Now()

	t.mu.Lock()
	saved := t.defaultCursor.saveLocked()
	t.set(core.AutoRecalculateDisabled)

	changed := 0
	var fillErr error
	var affected []Derivable
	seen := make(map[core.Ident]struct{})
loop:
	for _, c := range t.cols {
		if c == nil {
			continue
		}
		for _, r := range t.rows {
			if r == nil {
				continue
			}
			cell, cellChanged, err := c.fillCellLocked(r, value, true, false)
			if err != nil {
				fillErr = err
				break loop
			}
			if cellChanged {
				changed++
				affected = t.collectAffectedLocked(cell, seen, affected)
			}
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
		t.fireEvent(OnNewValue, t, value)
		if autoRecalc {
			t.recalcTargets(affected)
		}
	}
	return nil
}

// Clear removes every cell value; equivalent to Fill(nil).
func (t *Table) Clear() error {
	return t.Fill(nil)
}
