// Package gridgo provides an embeddable in-memory tabular data engine for Go.
//
// Gridgo organizes typed cell values into tables of rows and columns, with
// named groups providing set algebra over arbitrary collections of cells.
// Storage is sparse: cells materialize on first touch, and row/column
// capacity grows in whole configurable increments.
//
// # Quick Start
//
//	ctx := gridgo.NewContext()
//	tbl, _ := ctx.CreateTable(100, 10)
//
//	cell, _ := tbl.GetCellAt(1, 1)
//	cell.SetValue(42.0)
//
//	row, _ := tbl.AddRow()
//	row.SetLabel("totals")
//	row.Fill(0.0)
//
// # Groups
//
// Groups collect rows, columns, cells, and other groups without owning
// them. A group holding only rows spans every column, and vice versa; the
// covered cells are tracked in a compressed coordinate bitmap:
//
//	g1, _ := tbl.CreateGroup()
//	g1.Add(row1, row2)
//	g2, _ := tbl.CreateGroup()
//	g2.Add(col1)
//
//	both, _ := g1.Intersect(g2)  // cells covered by both groups
//	both.Fill("x")
//
// Union preserves the operands' compositions, so the result tracks later
// structural changes; Intersect, Subtract, and SymmetricDiff flatten to an
// explicit cell list.
//
// # Derivations
//
// A row, column, or cell can carry a derivation that recomputes its values
// whenever a dependency changes:
//
//	tbl.SetDerivation(sumCell, gridgo.DerivationFunc(
//	    func(ctx context.Context, target gridgo.Derivable) error {
//	        // read inputs, commit results through the public API
//	        return nil
//	    }), inputCol)
//
// Derivations run on a bounded worker pool; writing a derived element
// directly severs its derivation.
//
// # Concurrency
//
// Each table guards itself and every element it owns with one lock, so
// compound operations are atomic with respect to readers. Current-cell
// positions are explicit Cursor handles; goroutines that need a position
// obtain their own via Table.Cursor.
//
// # Lifecycle
//
// Deleting a table, row, or column invalidates every element it reaches;
// invalid elements reject further operations with DeletedElementError.
// Non-persistent tables are disposed of explicitly with Table.Close, or in
// bulk with Context.Sweep.
package gridgo
