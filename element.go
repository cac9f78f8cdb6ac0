package gridgo

import (
	"strings"

	"github.com/google/uuid"
	"github.com/hupe1980/gridgo/core"
)

// ElementKind identifies the concrete kind of a grid element.
type ElementKind uint8

const (
	KindContext ElementKind = iota + 1
	KindTable
	KindRow
	KindColumn
	KindCell
	KindGroup
)

var kindNames = map[ElementKind]string{
	KindContext: "Context",
	KindTable:   "Table",
	KindRow:     "Row",
	KindColumn:  "Column",
	KindCell:    "Cell",
	KindGroup:   "Group",
}

func (k ElementKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// propKey addresses a property slot: either a well-known Property or a
// normalized free-form string key.
type propKey struct {
	p Property
	s string
}

// element is the state shared by every grid element. It is not safe for
// concurrent use on its own; the owning table's (or context's) lock guards
// all access.
type element struct {
	kind  ElementKind
	ident core.Ident
	state core.State
	props map[propKey]any
}

func newElement(kind ElementKind) element {
	return element{
		kind:  kind,
		ident: core.NextIdent(),
		state: core.State(0).Set(core.Initializing),
	}
}

// Ident returns the element's process-wide unique identity.
func (e *element) Ident() core.Ident { return e.ident }

// Kind returns the element's kind.
func (e *element) Kind() ElementKind { return e.kind }

// IsValid reports whether the element has not been deleted.
func (e *element) IsValid() bool { return !e.state.Has(core.Invalid) }

// IsInvalid reports whether the element has been deleted, either explicitly
// or through a parent cascade.
func (e *element) IsInvalid() bool { return e.state.Has(core.Invalid) }

func (e *element) markInitialized() {
	e.state = e.state.Reset(core.Initializing)
}

func (e *element) isInitializing() bool {
	return e.state.Has(core.Initializing)
}

// invalidate marks the element deleted and drops its property store.
// Idempotent.
func (e *element) invalidate() {
	e.state = e.state.Set(core.Invalid)
	e.props = nil
}

// vet fails with a DeletedElementError when the element is invalid. It is
// called defensively at the head of every mutating or navigational operation.
func (e *element) vet() error {
	if e.IsInvalid() {
		return newDeletedError(e.kind)
	}
	return nil
}

func (e *element) set(flags core.State)            { e.state = e.state.Set(flags) }
func (e *element) reset(flags core.State)          { e.state = e.state.Reset(flags) }
func (e *element) has(flags core.State) bool       { return e.state.Has(flags) }
func (e *element) mutate(flags core.State, on bool) { e.state = e.state.With(flags, on) }

// normalizeKey trims a free-form property key, collapses inner whitespace,
// and case-folds it. Returns "" for unusable keys.
func normalizeKey(key string) string {
	return strings.ToLower(strings.Join(strings.Fields(key), " "))
}

// vetPropertyKey validates a well-known property key against the element's
// capability entry. Mutating operations additionally reject read-only
// properties.
func (e *element) vetPropertyKey(p Property, forMutation bool) error {
	if p == PropNone {
		return &InvalidPropertyKeyError{Kind: e.kind}
	}
	if !p.implementedBy(e.kind) {
		return &UnimplementedPropertyError{Kind: e.kind, Property: p}
	}
	if forMutation && p.isReadOnly() {
		return &ReadOnlyPropertyError{Kind: e.kind, Property: p}
	}
	return nil
}

func (e *element) propsMap(create bool) map[propKey]any {
	if e.props == nil && create {
		e.props = make(map[propKey]any)
	}
	return e.props
}

// setProperty stores a well-known property value after vetting.
func (e *element) setProperty(p Property, v any) error {
	if err := e.vetPropertyKey(p, true); err != nil {
		return err
	}
	e.propsMap(true)[propKey{p: p}] = v
	return nil
}

// initializeProperty bypasses the read-only check; used during construction
// to seed initializable properties from a template or context default.
func (e *element) initializeProperty(p Property, v any) error {
	if err := e.vetPropertyKey(p, false); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	e.propsMap(true)[propKey{p: p}] = v
	return nil
}

// clearProperty removes a well-known property. Reports whether it was set.
func (e *element) clearProperty(p Property) (bool, error) {
	if err := e.vetPropertyKey(p, true); err != nil {
		return false, err
	}
	if e.props == nil {
		return false, nil
	}
	_, ok := e.props[propKey{p: p}]
	delete(e.props, propKey{p: p})
	return ok, nil
}

// getProperty returns a well-known property value. Absent properties yield
// ok=false, never a default.
func (e *element) getProperty(p Property) (any, bool, error) {
	if err := e.vetPropertyKey(p, false); err != nil {
		return nil, false, err
	}
	if e.props == nil {
		return nil, false, nil
	}
	v, ok := e.props[propKey{p: p}]
	return v, ok, nil
}

// setNamedProperty stores a free-form string-keyed property.
func (e *element) setNamedProperty(key string, v any) error {
	key = normalizeKey(key)
	if key == "" {
		return &InvalidPropertyKeyError{Kind: e.kind}
	}
	e.propsMap(true)[propKey{s: key}] = v
	return nil
}

func (e *element) getNamedProperty(key string) (any, bool, error) {
	key = normalizeKey(key)
	if key == "" {
		return nil, false, &InvalidPropertyKeyError{Kind: e.kind}
	}
	if e.props == nil {
		return nil, false, nil
	}
	v, ok := e.props[propKey{s: key}]
	return v, ok, nil
}

func (e *element) clearNamedProperty(key string) (bool, error) {
	key = normalizeKey(key)
	if key == "" {
		return false, &InvalidPropertyKeyError{Kind: e.kind}
	}
	if e.props == nil {
		return false, nil
	}
	_, ok := e.props[propKey{s: key}]
	delete(e.props, propKey{s: key})
	return ok, nil
}

func (e *element) labelValue() string {
	if e.props == nil {
		return ""
	}
	if v, ok := e.props[propKey{p: PropLabel}]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (e *element) descriptionValue() string {
	if e.props == nil {
		return ""
	}
	if v, ok := e.props[propKey{p: PropDescription}]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// uuidValue lazily assigns and returns the element's UUID.
func (e *element) uuidValue() uuid.UUID {
	if v, ok := e.propsMap(true)[propKey{p: PropUUID}]; ok {
		if u, ok := v.(uuid.UUID); ok {
			return u
		}
	}
	u := uuid.New()
	e.props[propKey{p: PropUUID}] = u
	return u
}

func (e *element) tagSet(create bool) map[string]struct{} {
	if v, ok := e.propsMap(true)[propKey{p: PropTags}]; ok {
		if m, ok := v.(map[string]struct{}); ok {
			return m
		}
	}
	if !create {
		return nil
	}
	m := make(map[string]struct{})
	e.props[propKey{p: PropTags}] = m
	return m
}
