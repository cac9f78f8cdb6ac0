package gridgo

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/gridgo/core"
)

// Cell is a single typed value slot. It is identified by its column and the
// cell offset of its row; the row itself is derived through the table's
// offset map rather than stored, so rows can move without touching cells.
//
// Cells carry no property map of their own: optional metadata lives in a
// sparse table-level store keyed by cell ident.
type Cell struct {
	element
	col    *Column
	offset int
	value  any
}

func newCell(c *Column, offset int) *Cell {
	cell := &Cell{
		element: newElement(KindCell),
		col:     c,
		offset:  offset,
	}
	cell.mutate(core.SupportsNulls, true)
	return cell
}

// Table returns the owning table, or nil after deletion.
func (c *Cell) Table() *Table {
	if c.col == nil {
		return nil
	}
	return c.col.table
}

// Column returns the owning column, or nil after deletion.
func (c *Cell) Column() *Column { return c.col }

// Row returns the row this cell sits in, resolved through the table's
// offset map.
func (c *Cell) Row() *Row {
	t := c.Table()
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rowAtOffsetLocked(c.offset)
}

func (c *Cell) lockTable() (*Table, error) {
	t := c.Table()
	if t == nil {
		return nil, newDeletedError(KindCell)
	}
	t.mu.Lock()
	if c.IsInvalid() || c.col == nil {
		t.mu.Unlock()
		return nil, newDeletedError(KindCell)
	}
	return t, nil
}

func (c *Cell) rlockTable() (*Table, bool) {
	t := c.Table()
	if t == nil {
		return nil, false
	}
	t.mu.RLock()
	if c.IsInvalid() {
		t.mu.RUnlock()
		return nil, false
	}
	return t, true
}

// Value returns the cell's current value; nil for an empty cell.
func (c *Cell) Value() any {
	t, ok := c.rlockTable()
	if !ok {
		return nil
	}
	defer t.mu.RUnlock()
	return c.value
}

// IsNull reports whether the cell holds no value.
func (c *Cell) IsNull() bool { return c.Value() == nil }

// DataType returns the type of the current value, or nil for an empty cell.
func (c *Cell) DataType() reflect.Type {
	v := c.Value()
	if v == nil {
		return nil
	}
	return reflect.TypeOf(v)
}

// SetValue commits a new value through the full write path: write
// protection, null support, datatype enforcement, validation, listener
// veto. Reports whether the stored value actually changed; a vetoed commit
// is a no-op with changed=false and a nil error.
func (c *Cell) SetValue(v any) (bool, error) {
	return c.setValue(v, true, true)
}

// Fill assigns a value bypassing validators, the way bulk fills do.
func (c *Cell) Fill(v any) (bool, error) {
	return c.setValue(v, true, false)
}

// Clear removes the cell's value.
func (c *Cell) Clear() (bool, error) {
	return c.setValue(nil, true, false)
}

func (c *Cell) setValue(v any, typeSafe, preprocess bool) (bool, error) {
	t, err := c.lockTable()
	if err != nil {
		return false, err
	}
	start := time.Now()
	row := t.rowAtOffsetLocked(c.offset)
	changed, err := c.commitLocked(v, typeSafe, preprocess, true)
	var affected []Derivable
	autoRecalc := false
	if changed {
		affected = t.affectsOfLocked(c)
		autoRecalc = t.isAutoRecalcEnabledLocked()
	}
	logger := t.logger
	t.mu.Unlock()

	t.metrics.RecordSetValue(time.Since(start), changed, err)
	rowIdx, colIdx := 0, 0
	if row != nil {
		rowIdx = row.Index()
	}
	if c.col != nil {
		colIdx = c.col.Index()
	}
	logger.WithTable(t).LogSetValue(rowIdx, colIdx, changed, err)

	if err != nil {
		return false, err
	}
	if changed {
		t.fireEvent(OnNewValue, c, v)
		if autoRecalc {
			t.recalcTargets(affected)
		}
	}
	return changed, nil
}

// commitLocked is the single commit path shared by SetValue, fills, and
// derivation results. Order: write protection, null support, datatype,
// validator/transformer, equality short-circuit, listener veto, store.
// A veto yields changed=false with no error; the prior value survives any
// failure.
func (c *Cell) commitLocked(v any, typeSafe, preprocess, vetoable bool) (bool, error) {
	t := c.col.table

	if typeSafe && c.isWriteProtectedLocked() {
		return false, &ReadOnlyPropertyError{Kind: KindCell}
	}
	if v == nil {
		if typeSafe && !c.isNullsSupportedLocked() {
			return false, &NullValueError{Kind: KindCell}
		}
	} else if typeSafe && c.isDatatypeEnforcedLocked() {
		if err := c.enforceDatatypeLocked(v); err != nil {
			return false, err
		}
	}

	if preprocess && v != nil {
		validator := c.validatorLocked()
		if validator != nil {
			transformed, err := applyValidator(validator, v)
			if err != nil {
				return false, err
			}
			v = transformed
		}
	}

	if reflect.DeepEqual(c.value, v) {
		return false, nil
	}

	if vetoable {
		if err := t.beforeValueChangeLocked(c, c.value, v); err != nil {
			if isBlocked(err) {
				return false, nil
			}
			return false, err
		}
	}

	c.value = v
	t.clearDerivationLocked(c)
	c.clearErrorMessageLocked(t)
	return true, nil
}

// enforceDatatypeLocked requires a new value to be assignable to the column
// datatype when declared, else to match the type of the existing value.
func (c *Cell) enforceDatatypeLocked(v any) error {
	vt := reflect.TypeOf(v)
	if ct := c.col.dataTypeLocked(); ct != nil {
		if !vt.AssignableTo(ct) {
			return &ConstraintViolationError{Message: "value does not conform to column datatype"}
		}
		return nil
	}
	if c.value != nil && reflect.TypeOf(c.value) != vt {
		return &ConstraintViolationError{Message: "value does not match established cell datatype"}
	}
	return nil
}

// --- effective flags ------------------------------------------------------

// IsWriteProtected reports whether writes to this cell are rejected: the
// cell's, its column's, its row's, or its table's read-only flag.
func (c *Cell) IsWriteProtected() bool {
	t, ok := c.rlockTable()
	if !ok {
		return false
	}
	defer t.mu.RUnlock()
	return c.isWriteProtectedLocked()
}

func (c *Cell) isWriteProtectedLocked() bool {
	if c.has(core.ReadOnly) {
		return true
	}
	t := c.col.table
	if c.col.has(core.ReadOnly) || t.isWriteProtectedLocked() {
		return true
	}
	row := t.rowAtOffsetLocked(c.offset)
	return row != nil && row.has(core.ReadOnly)
}

// SetReadOnly write-protects this one cell.
func (c *Cell) SetReadOnly(readOnly bool) {
	t, err := c.lockTable()
	if err != nil {
		return
	}
	defer t.mu.Unlock()
	c.mutate(core.ReadOnly, readOnly)
}

// IsNullsSupported reports whether a nil value may be stored: the cell's,
// its column's, its row's, and its table's null-support flags must all be
// on.
func (c *Cell) IsNullsSupported() bool {
	t, ok := c.rlockTable()
	if !ok {
		return false
	}
	defer t.mu.RUnlock()
	return c.isNullsSupportedLocked()
}

func (c *Cell) isNullsSupportedLocked() bool {
	if !c.has(core.SupportsNulls) {
		return false
	}
	t := c.col.table
	if !c.col.has(core.SupportsNulls) || !t.isNullsSupportedLocked() {
		return false
	}
	row := t.rowAtOffsetLocked(c.offset)
	return row == nil || row.has(core.SupportsNulls)
}

// SetSupportsNulls toggles nil value support for this one cell.
func (c *Cell) SetSupportsNulls(supports bool) {
	t, err := c.lockTable()
	if err != nil {
		return
	}
	defer t.mu.Unlock()
	c.mutate(core.SupportsNulls, supports)
}

// IsDatatypeEnforced reports whether new values must conform to declared or
// established types: the cell's, its column's, its row's, or its table's
// enforcement flag.
func (c *Cell) IsDatatypeEnforced() bool {
	t, ok := c.rlockTable()
	if !ok {
		return false
	}
	defer t.mu.RUnlock()
	return c.isDatatypeEnforcedLocked()
}

func (c *Cell) isDatatypeEnforcedLocked() bool {
	if c.has(core.EnforceDatatype) {
		return true
	}
	t := c.col.table
	if c.col.has(core.EnforceDatatype) || t.isDatatypeEnforcedLocked() {
		return true
	}
	row := t.rowAtOffsetLocked(c.offset)
	return row != nil && row.has(core.EnforceDatatype)
}

// SetEnforceDatatype toggles datatype enforcement for this one cell.
func (c *Cell) SetEnforceDatatype(enforce bool) {
	t, err := c.lockTable()
	if err != nil {
		return
	}
	defer t.mu.Unlock()
	c.mutate(core.EnforceDatatype, enforce)
}

// --- derivation state -----------------------------------------------------

// IsDerived reports whether a derivation currently produces this cell's
// value.
func (c *Cell) IsDerived() bool {
	t, ok := c.rlockTable()
	if !ok {
		return false
	}
	defer t.mu.RUnlock()
	return c.has(core.Derived)
}

// IsPending reports whether a derivation for this cell is in flight.
func (c *Cell) IsPending() bool {
	t, ok := c.rlockTable()
	if !ok {
		return false
	}
	defer t.mu.RUnlock()
	return c.has(core.Pending)
}

// incrementPendingsLocked marks the cell pending and bumps the counters on
// its row, column, and table.
func (c *Cell) incrementPendingsLocked() {
	if c.has(core.Pending) {
		return
	}
	c.set(core.Pending)
	t := c.col.table
	c.col.pendings++
	if row := t.rowAtOffsetLocked(c.offset); row != nil {
		row.pendings++
	}
	t.pendings++
}

// decrementPendingsLocked clears the cell's pending mark and decrements the
// counters, never below zero.
func (c *Cell) decrementPendingsLocked() {
	if !c.has(core.Pending) {
		return
	}
	c.reset(core.Pending)
	t := c.col.table
	if c.col.pendings > 0 {
		c.col.pendings--
	}
	if row := t.rowAtOffsetLocked(c.offset); row != nil && row.pendings > 0 {
		row.pendings--
	}
	if t.pendings > 0 {
		t.pendings--
	}
}

// --- error values ---------------------------------------------------------

// ErrorCode classifies the current value: NaN, infinity, an ErrorValue
// marker, or NoError.
func (c *Cell) ErrorCode() ErrorCode {
	return errorCodeOf(c.Value())
}

// ErrorMessage returns the diagnostic attached to the cell, or "".
func (c *Cell) ErrorMessage() string {
	t, ok := c.rlockTable()
	if !ok {
		return ""
	}
	defer t.mu.RUnlock()
	if !c.has(core.HasErrorMessage) {
		return ""
	}
	if v, ok := t.cellPropsLocked(c, false)[propKey{p: PropErrorMessage}]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SetErrorMessage attaches a diagnostic to the cell. Cleared on the next
// successful commit.
func (c *Cell) SetErrorMessage(msg string) {
	t, err := c.lockTable()
	if err != nil {
		return
	}
	defer t.mu.Unlock()
	t.cellPropsLocked(c, true)[propKey{p: PropErrorMessage}] = msg
	c.set(core.HasErrorMessage)
}

func (c *Cell) clearErrorMessageLocked(t *Table) {
	if !c.has(core.HasErrorMessage) {
		return
	}
	delete(t.cellPropsLocked(c, false), propKey{p: PropErrorMessage})
	c.reset(core.HasErrorMessage)
}

// --- validator ------------------------------------------------------------

// SetValidator installs (or with nil removes) a per-cell validator run
// before every SetValue commit.
func (c *Cell) SetValidator(v CellValidator) {
	t, err := c.lockTable()
	if err != nil {
		return
	}
	defer t.mu.Unlock()
	if v == nil {
		delete(t.cellPropsLocked(c, false), propKey{p: PropValidator})
		c.reset(core.HasValidator)
		return
	}
	t.cellPropsLocked(c, true)[propKey{p: PropValidator}] = v
	c.set(core.HasValidator)
}

func (c *Cell) validatorLocked() CellValidator {
	if !c.has(core.HasValidator) {
		return nil
	}
	t := c.col.table
	if v, ok := t.cellPropsLocked(c, false)[propKey{p: PropValidator}]; ok {
		if validator, ok := v.(CellValidator); ok {
			return validator
		}
	}
	return nil
}

// --- delegated properties -------------------------------------------------

// Label returns the cell's label, or "".
func (c *Cell) Label() string {
	t, ok := c.rlockTable()
	if !ok {
		return ""
	}
	defer t.mu.RUnlock()
	if v, ok := t.cellPropsLocked(c, false)[propKey{p: PropLabel}]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// SetLabel sets the cell's label. When cell label indexing is enabled on
// the table, duplicate labels are rejected.
func (c *Cell) SetLabel(label string) error {
	t, err := c.lockTable()
	if err != nil {
		return err
	}
	defer t.mu.Unlock()

	key := normalizeKey(label)
	if t.has(core.CellLabelsIndexed) && key != "" {
		if existing, ok := t.cellLabelIndex[key]; ok && existing != c {
			return &UnsupportedOperationError{Kind: KindCell, Reason: "label is not unique"}
		}
	}
	props := t.cellPropsLocked(c, true)
	if v, ok := props[propKey{p: PropLabel}]; ok {
		if old, ok := v.(string); ok {
			if oldKey := normalizeKey(old); oldKey != "" && t.cellLabelIndex[oldKey] == c {
				delete(t.cellLabelIndex, oldKey)
			}
		}
	}
	props[propKey{p: PropLabel}] = label
	if key != "" {
		t.cellLabelIndex[key] = c
	}
	return nil
}

// UUID lazily assigns and returns the cell's UUID.
func (c *Cell) UUID() uuid.UUID {
	t, err := c.lockTable()
	if err != nil {
		return uuid.UUID{}
	}
	defer t.mu.Unlock()
	props := t.cellPropsLocked(c, true)
	if v, ok := props[propKey{p: PropUUID}]; ok {
		if u, ok := v.(uuid.UUID); ok {
			return u
		}
	}
	u := uuid.New()
	props[propKey{p: PropUUID}] = u
	if t.uuidIndex != nil {
		t.uuidIndex[u] = c
	}
	return u
}

// GetProperty returns a well-known property from the table's sparse cell
// metadata store.
func (c *Cell) GetProperty(p Property) (any, bool) {
	t, ok := c.rlockTable()
	if !ok {
		return nil, false
	}
	defer t.mu.RUnlock()
	if err := c.vetPropertyKey(p, false); err != nil {
		return nil, false
	}
	v, ok := t.cellPropsLocked(c, false)[propKey{p: p}]
	return v, ok
}

// SetProperty stores a well-known property in the table's sparse cell
// metadata store.
func (c *Cell) SetProperty(p Property, v any) error {
	t, err := c.lockTable()
	if err != nil {
		return err
	}
	defer t.mu.Unlock()
	if err := c.vetPropertyKey(p, true); err != nil {
		return err
	}
	t.cellPropsLocked(c, true)[propKey{p: p}] = v
	return nil
}

// GetNamedProperty returns a free-form string-keyed property.
func (c *Cell) GetNamedProperty(key string) (any, bool) {
	t, ok := c.rlockTable()
	if !ok {
		return nil, false
	}
	defer t.mu.RUnlock()
	norm := normalizeKey(key)
	if norm == "" {
		return nil, false
	}
	v, ok := t.cellPropsLocked(c, false)[propKey{s: norm}]
	return v, ok
}

// SetNamedProperty stores a free-form string-keyed property.
func (c *Cell) SetNamedProperty(key string, v any) error {
	t, err := c.lockTable()
	if err != nil {
		return err
	}
	defer t.mu.Unlock()
	norm := normalizeKey(key)
	if norm == "" {
		return &InvalidPropertyKeyError{Kind: KindCell, Key: key}
	}
	t.cellPropsLocked(c, true)[propKey{s: norm}] = v
	return nil
}

// Groups returns the groups that hold this cell directly.
func (c *Cell) Groups() []*Group {
	t, ok := c.rlockTable()
	if !ok {
		return nil
	}
	defer t.mu.RUnlock()
	return t.cellGroupsLocked(c)
}

// --- lifecycle ------------------------------------------------------------

// Delete removes the cell from the table: it leaves every group holding it,
// its metadata is dropped, its storage slot freed, and derivations that
// depended on it recalculated.
func (c *Cell) Delete() error {
	t, err := c.lockTable()
	if err != nil {
		return err
	}
	affected := t.affectsOfLocked(c)
	c.invalidateCellLocked()
	t.markGroupsDirtyLocked()
	t.mu.Unlock()

	t.fireEvent(OnDelete, c, nil)
	t.recalcTargets(affected)
	return nil
}

// invalidateCellLocked is the cell teardown cascade: group membership,
// derivation state, delegated metadata, storage slot, element state, in
// that order.
func (c *Cell) invalidateCellLocked() {
	if c.IsInvalid() {
		return
	}
	t := c.col.table

	for _, g := range t.cellGroupsLocked(c) {
		g.removeMemberLocked(c)
	}
	delete(t.cellGroups, c.ident)

	t.clearDerivationLocked(c)
	t.dropAffectsEdgesLocked(c.ident)
	c.decrementPendingsLocked()

	if props := t.cellPropsLocked(c, false); props != nil {
		if v, ok := props[propKey{p: PropLabel}]; ok {
			if s, ok := v.(string); ok {
				if key := normalizeKey(s); key != "" && t.cellLabelIndex[key] == c {
					delete(t.cellLabelIndex, key)
				}
			}
		}
	}
	t.resetCellPropsLocked(c)
	delete(t.identIndex, c.ident)

	c.col.clearSlotLocked(c.offset)
	c.value = nil
	c.invalidate()
	c.col = nil
}
