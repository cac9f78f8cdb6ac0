// Package cellset implements the flattened representation of a cell group:
// a set of (row, column) coordinates packed into 32-bit keys and stored in a
// Roaring bitmap.
//
// The packing dedicates 16 bits to each axis, which caps tables at 65535 rows
// and 65535 columns. This is a deliberate trade-off for a compact, fast set
// representation; widen the packing before raising the ceiling.
package cellset

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// MaxAxisIndex is the largest 1-based row or column index the coordinate
// packing can represent.
const MaxAxisIndex = 1<<16 - 1

// Coord is a packed (row, column) coordinate. Row and column indices are
// 1-based; the zero Coord is not a valid cell.
type Coord uint32

// Pack encodes a 1-based (row, column) pair. Callers must keep both indices
// within MaxAxisIndex.
func Pack(row, col int) Coord {
	return Coord(uint32(row-1)<<16 | uint32(col-1)&0xFFFF)
}

// Row returns the 1-based row index of the coordinate.
func (c Coord) Row() int { return int(c>>16) + 1 }

// Col returns the 1-based column index of the coordinate.
func (c Coord) Col() int { return int(c&0xFFFF) + 1 }

// Set is a mutable set of packed cell coordinates.
type Set struct {
	rb *roaring.Bitmap
}

// New creates an empty coordinate set.
func New() *Set {
	return &Set{rb: roaring.New()}
}

// Add inserts a coordinate.
func (s *Set) Add(c Coord) {
	s.rb.Add(uint32(c))
}

// AddCell inserts the coordinate for a 1-based (row, column) pair.
func (s *Set) AddCell(row, col int) {
	s.rb.Add(uint32(Pack(row, col)))
}

// Remove deletes a coordinate.
func (s *Set) Remove(c Coord) {
	s.rb.Remove(uint32(c))
}

// Contains reports membership of a coordinate.
func (s *Set) Contains(c Coord) bool {
	return s.rb.Contains(uint32(c))
}

// ContainsCell reports membership of a 1-based (row, column) pair.
func (s *Set) ContainsCell(row, col int) bool {
	return s.rb.Contains(uint32(Pack(row, col)))
}

// Cardinality returns the number of coordinates in the set.
func (s *Set) Cardinality() int {
	return int(s.rb.GetCardinality())
}

// IsEmpty reports whether the set holds no coordinates.
func (s *Set) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Clear removes all coordinates.
func (s *Set) Clear() {
	s.rb.Clear()
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() *Set {
	return &Set{rb: s.rb.Clone()}
}

// Or adds every coordinate of other to s.
func (s *Set) Or(other *Set) {
	s.rb.Or(other.rb)
}

// And reduces s to the coordinates present in both sets.
func (s *Set) And(other *Set) {
	s.rb.And(other.rb)
}

// AndNot removes from s every coordinate present in other.
func (s *Set) AndNot(other *Set) {
	s.rb.AndNot(other.rb)
}

// Xor reduces s to the coordinates present in exactly one of the sets.
func (s *Set) Xor(other *Set) {
	s.rb.Xor(other.rb)
}

// Equals reports whether both sets hold exactly the same coordinates.
func (s *Set) Equals(other *Set) bool {
	return s.rb.Equals(other.rb)
}

// IsSubsetOf reports whether every coordinate of s is present in other.
func (s *Set) IsSubsetOf(other *Set) bool {
	return roaring.And(s.rb, other.rb).GetCardinality() == s.rb.GetCardinality()
}

// IsDisjointFrom reports whether the sets share no coordinate.
func (s *Set) IsDisjointFrom(other *Set) bool {
	return !s.rb.Intersects(other.rb)
}

// Jaccard returns |s∩other| / |s∪other|, or 0.0 when the union is empty.
func (s *Set) Jaccard(other *Set) float64 {
	union := roaring.Or(s.rb, other.rb).GetCardinality()
	if union == 0 {
		return 0.0
	}
	inter := roaring.And(s.rb, other.rb).GetCardinality()
	return float64(inter) / float64(union)
}

// All returns an iterator over the coordinates in ascending packed order.
func (s *Set) All() iter.Seq[Coord] {
	return func(yield func(Coord) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(Coord(it.Next())) {
				return
			}
		}
	}
}
