package core

import "sync/atomic"

// Ident is a process-wide unique identity assigned to an element at
// construction. Idents are strictly increasing and never reused, which makes
// them safe keys for sparse per-element metadata maps.
type Ident int64

// identFloor keeps generated idents out of the range an embedding application
// might use for its own small integer handles.
const identFloor int64 = 1000

var identSource atomic.Int64

func init() {
	identSource.Store(identFloor)
}

// NextIdent returns the next process-wide ident.
func NextIdent() Ident {
	return Ident(identSource.Add(1))
}
