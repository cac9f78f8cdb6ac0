package gridgo

import (
	"sync"

	"github.com/google/uuid"
	"github.com/hupe1980/gridgo/core"
)

// Context registry defaults.
const (
	DefaultRowCapacityIncr    = 256
	DefaultColumnCapacityIncr = 256
	DefaultFreeSpaceThreshold = 2.0
	DefaultRecalcWorkers      = 8
)

// Context is a registry of tables. Exactly one process-wide default instance
// exists unless callers construct independent contexts.
//
// Persistent tables are strongly retained until explicitly deleted or the
// context is cleared. Non-persistent tables are also tracked, but Go has no
// reliable dereference-triggered finalization to evict them automatically;
// instead the embedding application disposes of them with Table.Close, or
// evicts all idle non-persistent tables at once with Sweep.
type Context struct {
	element
	mu sync.RWMutex

	persistent    map[*Table]struct{}
	nonPersistent map[*Table]struct{}
	labelIndex    map[string]*Table

	logger        *Logger
	metrics       MetricsCollector
	recalcWorkers int
}

var (
	defaultContextOnce sync.Once
	defaultContext     *Context
)

// DefaultContext returns the process-wide default context, creating it on
// first use.
func DefaultContext() *Context {
	defaultContextOnce.Do(func() {
		defaultContext = NewContext()
		defaultContext.set(core.Default)
		_ = defaultContext.setProperty(PropLabel, "Default Context")
	})
	return defaultContext
}

// NewContext creates an independent table registry.
func NewContext(optFns ...Option) *Context {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Context{
		element:       newElement(KindContext),
		persistent:    make(map[*Table]struct{}),
		nonPersistent: make(map[*Table]struct{}),
		labelIndex:    make(map[string]*Table),
		logger:        opts.logger,
		metrics:       opts.metricsCollector,
		recalcWorkers: opts.recalcWorkers,
	}

	_ = c.initializeProperty(PropRowCapacityIncr, opts.rowCapacityIncr)
	_ = c.initializeProperty(PropColumnCapacityIncr, opts.columnCapacityIncr)
	_ = c.initializeProperty(PropFreeSpaceThreshold, opts.freeSpaceThreshold)
	_ = c.initializeProperty(PropIsAutoRecalculate, true)
	_ = c.initializeProperty(PropIsReadOnlyDefault, false)
	_ = c.initializeProperty(PropIsSupportsNullsDefault, true)
	_ = c.initializeProperty(PropIsEnforceDatatypeDefault, false)
	_ = c.initializeProperty(PropIsTablesPersistent, opts.tablesPersistent)
	_ = c.initializeProperty(PropIsGroupsPersistent, false)

	c.markInitialized()

	return c
}

// NewContextFrom creates an independent context seeded from a template
// context's default property values.
func NewContextFrom(template *Context, optFns ...Option) *Context {
	c := NewContext(optFns...)
	if template == nil {
		return c
	}
	template.mu.RLock()
	defer template.mu.RUnlock()
	for _, p := range initializableProperties(KindContext) {
		if v, ok, _ := template.getProperty(p); ok {
			_ = c.initializeProperty(p, v)
		}
	}
	return c
}

// Label returns the context's label, or "".
func (c *Context) Label() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.labelValue()
}

// SetLabel names the context. Context labels are informational and need not
// be unique.
func (c *Context) SetLabel(label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setProperty(PropLabel, label)
}

// Description returns the context's description, or "".
func (c *Context) Description() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.descriptionValue()
}

// SetDescription sets the context's description.
func (c *Context) SetDescription(desc string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setProperty(PropDescription, desc)
}

// GetProperty returns a well-known property value.
func (c *Context) GetProperty(p Property) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok, _ := c.getProperty(p)
	return v, ok
}

// SetProperty sets a well-known property value. New tables pick up the
// changed default; existing tables keep their seeded values.
func (c *Context) SetProperty(p Property, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setProperty(p, v)
}

// GetNamedProperty returns a free-form property value.
func (c *Context) GetNamedProperty(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok, _ := c.getNamedProperty(key)
	return v, ok
}

// SetNamedProperty sets a free-form property value.
func (c *Context) SetNamedProperty(key string, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setNamedProperty(key, v)
}

// Logger returns the context's structured logger.
func (c *Context) Logger() *Logger { return c.logger }

// Metrics returns the context's metrics collector.
func (c *Context) Metrics() MetricsCollector { return c.metrics }

// IsDefault reports whether this is the process-wide default context.
func (c *Context) IsDefault() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.has(core.Default)
}

func (c *Context) intDefault(p Property, fallback int) int {
	if v, ok, _ := c.getProperty(p); ok {
		if n, ok := v.(int); ok && n > 0 {
			return n
		}
	}
	return fallback
}

func (c *Context) floatDefault(p Property, fallback float64) float64 {
	if v, ok, _ := c.getProperty(p); ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return fallback
}

func (c *Context) boolDefault(p Property) bool {
	if v, ok, _ := c.getProperty(p); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// IsReadOnly reports the context-wide read-only default consulted by cell
// write protection.
func (c *Context) IsReadOnly() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.boolDefault(PropIsReadOnlyDefault)
}

// IsSupportsNulls reports the context-wide null-support default.
func (c *Context) IsSupportsNulls() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.boolDefault(PropIsSupportsNullsDefault)
}

// IsEnforceDatatype reports the context-wide datatype-enforcement default.
func (c *Context) IsEnforceDatatype() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.boolDefault(PropIsEnforceDatatypeDefault)
}

// NumTables returns the number of registered tables.
func (c *Context) NumTables() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.persistent) + len(c.nonPersistent)
}

// IsNull reports whether no tables are registered.
func (c *Context) IsNull() bool {
	return c.NumTables() == 0
}

// Tables returns a snapshot of every registered table.
func (c *Context) Tables() []*Table {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Table, 0, len(c.persistent)+len(c.nonPersistent))
	for t := range c.persistent {
		out = append(out, t)
	}
	for t := range c.nonPersistent {
		out = append(out, t)
	}
	return out
}

// CreateTable creates a table with the given initial row and column counts
// and registers it with this context.
func (c *Context) CreateTable(numRows, numCols int) (*Table, error) {
	if err := c.vet(); err != nil {
		return nil, err
	}
	return newTable(c, numRows, numCols, nil)
}

// CreateTableFrom creates a table seeded from a template table's
// initializable properties.
func (c *Context) CreateTableFrom(template *Table, numRows, numCols int) (*Table, error) {
	if err := c.vet(); err != nil {
		return nil, err
	}
	return newTable(c, numRows, numCols, template)
}

// register adds or re-files a table under the retention class matching its
// persistent flag.
func (c *Context) register(t *Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.has(core.Persistent) {
		delete(c.nonPersistent, t)
		c.persistent[t] = struct{}{}
	} else {
		delete(c.persistent, t)
		c.nonPersistent[t] = struct{}{}
	}
}

func (c *Context) deregister(t *Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.persistent, t)
	delete(c.nonPersistent, t)
	if label := normalizeKey(t.labelValue()); label != "" && c.labelIndex[label] == t {
		delete(c.labelIndex, label)
	}
}

// IsRegistered reports whether the table is registered with this context.
func (c *Context) IsRegistered(t *Table) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, p := c.persistent[t]
	_, np := c.nonPersistent[t]
	return p || np
}

// indexTableLabel refreshes the unique table label index entry for t.
// Duplicate labels are rejected so ByLabel lookup stays unambiguous.
func (c *Context) indexTableLabel(t *Table, label string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := normalizeKey(label)
	if key == "" {
		for k, v := range c.labelIndex {
			if v == t {
				delete(c.labelIndex, k)
			}
		}
		return nil
	}
	if existing, ok := c.labelIndex[key]; ok && existing != t {
		return &UnsupportedOperationError{Kind: KindTable, Reason: "label is not unique"}
	}
	for k, v := range c.labelIndex {
		if v == t && k != key {
			delete(c.labelIndex, k)
		}
	}
	c.labelIndex[key] = t
	return nil
}

// Clear deletes every registered table, persistent and non-persistent, and
// empties the registry.
func (c *Context) Clear() {
	for _, t := range c.Tables() {
		if t.IsValid() {
			t.Delete()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.persistent = make(map[*Table]struct{})
	c.nonPersistent = make(map[*Table]struct{})
	c.labelIndex = make(map[string]*Table)
}

// Sweep deletes every non-persistent table that is not marked in-use. It is
// the explicit replacement for dereference-triggered eviction.
func (c *Context) Sweep() int {
	c.mu.RLock()
	candidates := make([]*Table, 0, len(c.nonPersistent))
	for t := range c.nonPersistent {
		candidates = append(candidates, t)
	}
	c.mu.RUnlock()

	swept := 0
	for _, t := range candidates {
		if t.IsValid() && !t.InUse() {
			t.Delete()
			swept++
		}
	}
	return swept
}

// GetTable locates a registered table. Supported selectors: ByLabel, ByIdent,
// ByUUID, ByDescription, ByProperty (Property or string key plus value),
// ByTags (all tags must match), ByReference. Positional selectors fail with
// InvalidAccessError. A nil table and nil error means no match.
func (c *Context) GetTable(access Access, args ...any) (*Table, error) {
	if err := c.vet(); err != nil {
		return nil, err
	}
	if access.isPositional() {
		return nil, &InvalidAccessError{Kind: KindTable, Access: access}
	}

	switch access {
	case AccessByLabel:
		label, ok := argString(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindTable, Access: access}
		}
		c.mu.RLock()
		if t, ok := c.labelIndex[normalizeKey(label)]; ok {
			c.mu.RUnlock()
			return t, nil
		}
		c.mu.RUnlock()
		return c.findTable(func(t *Table) bool {
			return normalizeKey(t.Label()) == normalizeKey(label)
		}), nil

	case AccessByDescription:
		desc, ok := argString(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindTable, Access: access}
		}
		return c.findTable(func(t *Table) bool {
			return t.Description() == desc
		}), nil

	case AccessByIdent:
		ident, ok := argIdent(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindTable, Access: access}
		}
		return c.findTable(func(t *Table) bool {
			return t.Ident() == ident
		}), nil

	case AccessByUUID:
		u, ok := argUUID(args)
		if !ok {
			return nil, &InvalidAccessError{Kind: KindTable, Access: access}
		}
		return c.findTable(func(t *Table) bool {
			return t.UUID() == u
		}), nil

	case AccessByTags:
		tags := argStrings(args)
		if len(tags) == 0 {
			return nil, &InvalidAccessError{Kind: KindTable, Access: access}
		}
		return c.findTable(func(t *Table) bool {
			return t.HasAllTags(tags...)
		}), nil

	case AccessByProperty:
		if len(args) < 2 {
			return nil, &InvalidAccessError{Kind: KindTable, Access: access}
		}
		want := args[1]
		switch key := args[0].(type) {
		case Property:
			return c.findTable(func(t *Table) bool {
				v, ok := t.GetProperty(key)
				return ok && v == want
			}), nil
		case string:
			return c.findTable(func(t *Table) bool {
				v, ok := t.GetNamedProperty(key)
				return ok && v == want
			}), nil
		}
		return nil, &InvalidAccessError{Kind: KindTable, Access: access}

	case AccessByReference:
		if len(args) != 1 {
			return nil, &InvalidAccessError{Kind: KindTable, Access: access}
		}
		t, ok := args[0].(*Table)
		if !ok || t == nil {
			return nil, &InvalidAccessError{Kind: KindTable, Access: access}
		}
		if err := t.vet(); err != nil {
			return nil, err
		}
		if !c.IsRegistered(t) {
			return nil, &InvalidParentError{Kind: KindTable}
		}
		return t, nil
	}

	return nil, &InvalidAccessError{Kind: KindTable, Access: access}
}

// GetTableByAnyTag locates a registered table carrying at least one of the
// given tags.
func (c *Context) GetTableByAnyTag(tags ...string) *Table {
	if len(tags) == 0 {
		return nil
	}
	return c.findTable(func(t *Table) bool {
		return t.HasAnyTags(tags...)
	})
}

func (c *Context) findTable(match func(*Table) bool) *Table {
	for _, t := range c.Tables() {
		if t.IsValid() && match(t) {
			return t
		}
	}
	return nil
}

func argString(args []any) (string, bool) {
	if len(args) != 1 {
		return "", false
	}
	s, ok := args[0].(string)
	return s, ok && s != ""
}

func argStrings(args []any) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if s, ok := a.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	if len(out) != len(args) {
		return nil
	}
	return out
}

func argIdent(args []any) (core.Ident, bool) {
	if len(args) != 1 {
		return 0, false
	}
	switch v := args[0].(type) {
	case core.Ident:
		return v, true
	case int:
		return core.Ident(v), true
	case int64:
		return core.Ident(v), true
	}
	return 0, false
}

func argUUID(args []any) (uuid.UUID, bool) {
	if len(args) != 1 {
		return uuid.UUID{}, false
	}
	switch v := args[0].(type) {
	case uuid.UUID:
		return v, true
	case string:
		u, err := uuid.Parse(v)
		return u, err == nil
	}
	return uuid.UUID{}, false
}
