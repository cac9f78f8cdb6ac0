package core

// State is the per-element bit-flag word. Every element carries one; most
// flags are meaningful only for a subset of element kinds.
type State uint32

const (
	// EnforceDatatype requires new cell values to match the established type.
	EnforceDatatype State = 1 << iota
	// ReadOnly write-protects the element and every cell it spans.
	ReadOnly
	// SupportsNulls permits nil cell values.
	SupportsNulls
	// AutoRecalculate enables dependent recalculation on value change.
	AutoRecalculate
	// AutoRecalculateDisabled temporarily masks AutoRecalculate during bulk
	// operations such as fills.
	AutoRecalculateDisabled
	// InUse marks a row/column that has materialized at least one cell.
	InUse
	// Pending marks a cell whose derivation has not yet produced a value.
	Pending
	// Awaiting marks a cell parked on an in-flight asynchronous result.
	Awaiting
	// RowLabelsIndexed through GroupLabelsIndexed enable the per-kind unique
	// label indexes on a table.
	RowLabelsIndexed
	ColumnLabelsIndexed
	CellLabelsIndexed
	GroupLabelsIndexed
	// HasValidator marks a cell with a registered validator capability.
	HasValidator
	// Derived marks an element whose value is produced by a derivation.
	Derived
	// Persistent marks a table/group retained independent of external owners.
	Persistent
	// Default marks the process-wide default context.
	Default
	// Dirty marks a group whose flattened bitmap is stale.
	Dirty
	// HasErrorMessage marks a cell carrying an error message property.
	HasErrorMessage
	// Initializing is set between construction and Initialized.
	Initializing
	// Invalid marks a logically deleted element. Terminal.
	Invalid
)

// Set returns s with the given flags set.
func (s State) Set(flags State) State { return s | flags }

// Reset returns s with the given flags cleared.
func (s State) Reset(flags State) State { return s &^ flags }

// Has reports whether any of the given flags are set.
func (s State) Has(flags State) bool { return s&flags != 0 }

// With returns s with flags set or cleared according to on.
func (s State) With(flags State, on bool) State {
	if on {
		return s | flags
	}
	return s &^ flags
}
