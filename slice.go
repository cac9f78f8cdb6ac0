package gridgo

import (
	"github.com/hupe1980/gridgo/core"
)

// slice is the state shared by rows and columns: a 1-based positional index
// into the owning table, a pending-derivation counter, and the per-element
// protection flags cell writes consult.
//
// All locked helpers assume the owning table's mutex is held.
type slice struct {
	element
	table    *Table
	index    int
	pendings int
}

func newSlice(kind ElementKind, t *Table) slice {
	return slice{
		element: newElement(kind),
		table:   t,
	}
}

// lockTable resolves the owning table and acquires its write lock. Fails
// with a DeletedElementError once the slice is orphaned.
func (s *slice) lockTable() (*Table, error) {
	t := s.table
	if t == nil {
		return nil, newDeletedError(s.kind)
	}
	t.mu.Lock()
	if s.IsInvalid() || s.table == nil {
		t.mu.Unlock()
		return nil, newDeletedError(s.kind)
	}
	return t, nil
}

func (s *slice) rlockTable() (*Table, error) {
	t := s.table
	if t == nil {
		return nil, newDeletedError(s.kind)
	}
	t.mu.RLock()
	if s.IsInvalid() || s.table == nil {
		t.mu.RUnlock()
		return nil, newDeletedError(s.kind)
	}
	return t, nil
}

// Index returns the 1-based positional index, or 0 once the slice has been
// removed from its table.
func (s *slice) Index() int {
	t := s.table
	if t == nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return s.index
}

// Table returns the owning table, or nil after deletion.
func (s *slice) Table() *Table { return s.table }

// IsDerived reports whether a derivation currently produces this slice's
// values.
func (s *slice) IsDerived() bool {
	t := s.table
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return s.has(core.Derived)
}

// IsPending reports whether any cell in this slice has an in-flight
// derivation.
func (s *slice) IsPending() bool {
	t := s.table
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return s.pendings > 0
}

// IsInUse reports the in-use mark.
func (s *slice) IsInUse() bool {
	t := s.table
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return s.has(core.InUse)
}

func (s *slice) setFlag(flag core.State, on bool) {
	t := s.table
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s.mutate(flag, on)
}

func (s *slice) hasFlag(flag core.State) bool {
	t := s.table
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return s.has(flag)
}

// IsReadOnly reports the slice's own read-only flag; cell write protection
// ORs it with the table's.
func (s *slice) IsReadOnly() bool { return s.hasFlag(core.ReadOnly) }

// SetReadOnly write-protects every cell of this slice.
func (s *slice) SetReadOnly(readOnly bool) { s.setFlag(core.ReadOnly, readOnly) }

// IsSupportsNulls reports the slice's own null-support flag; the effective
// cell flag ANDs it with the table's and the cell's.
func (s *slice) IsSupportsNulls() bool { return s.hasFlag(core.SupportsNulls) }

// SetSupportsNulls toggles nil value support for this slice.
func (s *slice) SetSupportsNulls(supports bool) { s.setFlag(core.SupportsNulls, supports) }

// IsEnforceDatatype reports the slice's own datatype-enforcement flag.
func (s *slice) IsEnforceDatatype() bool { return s.hasFlag(core.EnforceDatatype) }

// SetEnforceDatatype toggles datatype enforcement for this slice.
func (s *slice) SetEnforceDatatype(enforce bool) { s.setFlag(core.EnforceDatatype, enforce) }

// --- shared property surface ----------------------------------------------

func (s *slice) Description() string {
	t := s.table
	if t == nil {
		return ""
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return s.descriptionValue()
}

func (s *slice) SetDescription(desc string) error {
	t, err := s.lockTable()
	if err != nil {
		return err
	}
	defer t.mu.Unlock()
	return s.setProperty(PropDescription, desc)
}

func (s *slice) GetProperty(p Property) (any, bool) {
	t := s.table
	if t == nil {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok, _ := s.getProperty(p)
	return v, ok
}

func (s *slice) SetProperty(p Property, v any) error {
	t, err := s.lockTable()
	if err != nil {
		return err
	}
	defer t.mu.Unlock()
	return s.setProperty(p, v)
}

func (s *slice) ClearProperty(p Property) (bool, error) {
	t, err := s.lockTable()
	if err != nil {
		return false, err
	}
	defer t.mu.Unlock()
	return s.clearProperty(p)
}

func (s *slice) GetNamedProperty(key string) (any, bool) {
	t := s.table
	if t == nil {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok, _ := s.getNamedProperty(key)
	return v, ok
}

func (s *slice) SetNamedProperty(key string, v any) error {
	t, err := s.lockTable()
	if err != nil {
		return err
	}
	defer t.mu.Unlock()
	return s.setNamedProperty(key, v)
}

func (s *slice) Tag(tags ...string) bool {
	t := s.table
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return tagElement(&s.element, tags)
}

func (s *slice) Untag(tags ...string) bool {
	t := s.table
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return untagElement(&s.element, tags)
}

func (s *slice) Tags() []string {
	t := s.table
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return tagsOf(&s.element)
}

func (s *slice) HasAllTags(tags ...string) bool {
	t := s.table
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return hasAllTags(&s.element, tags)
}

func (s *slice) HasAnyTags(tags ...string) bool {
	t := s.table
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return hasAnyTags(&s.element, tags)
}

// --- locked internals -----------------------------------------------------

// detachLocked severs the slice from its table and invalidates it. The
// caller has already spliced it out of the table's slice storage.
func (s *slice) detachLocked() {
	s.index = 0
	s.pendings = 0
	s.table = nil
	s.invalidate()
}

// removeFromGroupsLocked drops the slice from every group that holds it
// directly and dirties those groups.
func (s *slice) removeFromGroupsLocked(t *Table, self TableElement) {
	for g := range t.groups {
		if g.IsValid() {
			g.removeMemberLocked(self)
		}
	}
}
