package gridgo

import "github.com/hupe1980/gridgo/core"

// TableElement is implemented by every element owned by a table: rows,
// columns, cells, and groups. Table implements it too, returning itself.
type TableElement interface {
	// Kind returns the element kind.
	Kind() ElementKind
	// Ident returns the element's process-wide identity.
	Ident() core.Ident
	// IsValid reports whether the element has not been deleted.
	IsValid() bool
	// Table returns the owning table.
	Table() *Table
}

// Derivable is a table element that can carry a derivation: a row, column,
// or cell.
type Derivable interface {
	TableElement
	// IsDerived reports whether a derivation currently produces the
	// element's value(s).
	IsDerived() bool
}
