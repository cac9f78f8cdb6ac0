package gridgo

import (
	"context"
	"time"

	"github.com/hupe1980/gridgo/core"
	"golang.org/x/sync/errgroup"
)

// Derivation produces the value(s) of a derived row, column, or cell. The
// engine owns the dependency bookkeeping: it tracks which elements a
// derivation reads and re-runs it when any of them changes.
//
// Recalculate is invoked off the caller's goroutine with the table unlocked;
// implementations read inputs and commit results through the public API.
type Derivation interface {
	Recalculate(ctx context.Context, target Derivable) error
}

// DerivationFunc adapts a plain function to Derivation.
type DerivationFunc func(ctx context.Context, target Derivable) error

func (f DerivationFunc) Recalculate(ctx context.Context, target Derivable) error {
	return f(ctx, target)
}

// SetDerivation installs a derivation on a row, column, or cell and records
// the elements it depends on. The target is marked derived; a direct value
// write through SetValue severs the derivation again. The derivation runs
// once immediately.
func (t *Table) SetDerivation(target Derivable, d Derivation, dependsOn ...TableElement) error {
	if err := t.vetTable(); err != nil {
		return err
	}
	if target == nil || d == nil {
		return &UnsupportedOperationError{Kind: KindTable, Reason: "nil derivation target"}
	}
	if target.Table() != t {
		return &InvalidParentError{Kind: target.Kind()}
	}

	t.mu.Lock()
	if !target.IsValid() {
		t.mu.Unlock()
		return newDeletedError(target.Kind())
	}
	t.clearDerivationStateLocked(target)
	t.derivations[target.Ident()] = d
	for _, dep := range dependsOn {
		if dep == nil || dep.Table() != t {
			continue
		}
		edges := t.affects[dep.Ident()]
		if edges == nil {
			edges = make(map[core.Ident]Derivable)
			t.affects[dep.Ident()] = edges
		}
		edges[target.Ident()] = target
	}
	t.setDerivedFlagLocked(target, true)
	t.mu.Unlock()

	t.recalcTargets([]Derivable{target})
	return nil
}

// ClearDerivation removes the derivation from a target, leaving its last
// computed values in place.
func (t *Table) ClearDerivation(target Derivable) {
	if target == nil || target.Table() != t {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearDerivationLocked(target)
}

// clearDerivationLocked severs a target's derivation and its incoming
// dependency edges.
func (t *Table) clearDerivationLocked(target Derivable) {
	if t.derivations == nil {
		return
	}
	if _, ok := t.derivations[target.Ident()]; !ok {
		return
	}
	t.clearDerivationStateLocked(target)
}

func (t *Table) clearDerivationStateLocked(target Derivable) {
	delete(t.derivations, target.Ident())
	for src, edges := range t.affects {
		delete(edges, target.Ident())
		if len(edges) == 0 {
			delete(t.affects, src)
		}
	}
	t.setDerivedFlagLocked(target, false)
}

func (t *Table) setDerivedFlagLocked(target Derivable, on bool) {
	switch x := target.(type) {
	case *Row:
		x.mutate(core.Derived, on)
	case *Column:
		x.mutate(core.Derived, on)
	case *Cell:
		x.mutate(core.Derived, on)
	}
}

// dropAffectsEdgesLocked removes the outgoing dependency edges of a deleted
// element. Derivations that depended on it keep running with what remains.
func (t *Table) dropAffectsEdgesLocked(ident core.Ident) {
	if t.affects != nil {
		delete(t.affects, ident)
	}
}

// affectsOfLocked collects the derived elements that depend on e. For a
// cell, dependents of its row and column are affected too.
func (t *Table) affectsOfLocked(e TableElement) []Derivable {
	if t.affects == nil {
		return nil
	}
	seen := make(map[core.Ident]struct{})
	var out []Derivable
	collect := func(ident core.Ident) {
		for id, d := range t.affects[ident] {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, d)
		}
	}
	collect(e.Ident())
	if cell, ok := e.(*Cell); ok && cell.col != nil {
		collect(cell.col.ident)
		if row := t.rowAtOffsetLocked(cell.offset); row != nil {
			collect(row.ident)
		}
	}
	return out
}

// collectAffectedLocked appends the derivation targets depending on e that
// the seen set does not hold yet. Bulk fills use it to recalculate each
// dependent once no matter how many of its inputs changed.
func (t *Table) collectAffectedLocked(e TableElement, seen map[core.Ident]struct{}, out []Derivable) []Derivable {
	for _, d := range t.affectsOfLocked(e) {
		if _, ok := seen[d.Ident()]; ok {
			continue
		}
		seen[d.Ident()] = struct{}{}
		out = append(out, d)
	}
	return out
}

// Derivation returns the derivation installed on a target, if any.
func (t *Table) Derivation(target Derivable) (Derivation, bool) {
	if target == nil {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.derivations == nil {
		return nil, false
	}
	d, ok := t.derivations[target.Ident()]
	return d, ok
}

// Recalculate re-runs every derivation registered on the table.
func (t *Table) Recalculate() error {
	if err := t.vetTable(); err != nil {
		return err
	}
	t.mu.RLock()
	targets := make([]Derivable, 0, len(t.derivations))
	for ident := range t.derivations {
		if e, ok := t.identIndex[ident]; ok {
			if d, ok := e.(Derivable); ok {
				targets = append(targets, d)
			}
		}
	}
	t.mu.RUnlock()
	return t.runRecalc(targets)
}

// recalcTargets runs the given derivations on a bounded worker pool. Each
// target's pending counters ride up before the run and back down after,
// whether it succeeds or fails.
func (t *Table) recalcTargets(targets []Derivable) {
	if len(targets) == 0 {
		return
	}
	_ = t.runRecalc(targets)
}

func (t *Table) runRecalc(targets []Derivable) error {
	if len(targets) == 0 {
		return nil
	}
	start := time.Now()

	workers := DefaultRecalcWorkers
	if ctx := t.Context(); ctx != nil && ctx.recalcWorkers > 0 {
		workers = ctx.recalcWorkers
	}

	type job struct {
		target Derivable
		d      Derivation
	}
	jobs := make([]job, 0, len(targets))
	t.mu.Lock()
	for _, target := range targets {
		if target == nil || !target.IsValid() {
			continue
		}
		d, ok := t.derivations[target.Ident()]
		if !ok {
			continue
		}
		t.markPendingLocked(target, true)
		jobs = append(jobs, job{target: target, d: d})
	}
	t.mu.Unlock()

	if len(jobs) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for _, j := range jobs {
		g.Go(func() error {
			err := j.d.Recalculate(ctx, j.target)
			t.mu.Lock()
			t.markPendingLocked(j.target, false)
			// Commit paths sever the derivation on direct writes; restore it
			// for the derivation's own result.
			if err == nil && j.target.IsValid() {
				if _, ok := t.derivations[j.target.Ident()]; !ok {
					t.derivations[j.target.Ident()] = j.d
				}
				t.setDerivedFlagLocked(j.target, true)
			}
			t.mu.Unlock()
			t.fireEvent(OnRecalculate, j.target, nil)
			return err
		})
	}
	err := g.Wait()

	t.metrics.RecordRecalc(len(jobs), time.Since(start), err)
	t.logger.WithTable(t).LogRecalc(len(jobs), err)
	return err
}

// markPendingLocked flips the pending state for a derivation target. Cells
// propagate to their row, column, and table counters; slices adjust their
// own and the table's. Marking an already-pending target is a no-op, so
// overlapping recalculations of one target unwind the counters cleanly.
func (t *Table) markPendingLocked(target Derivable, pending bool) {
	switch x := target.(type) {
	case *Cell:
		if x.col == nil {
			return
		}
		if pending {
			x.incrementPendingsLocked()
		} else {
			x.decrementPendingsLocked()
		}
	case *Row:
		if pending && !x.has(core.Pending) {
			x.set(core.Pending)
			x.pendings++
			t.pendings++
		} else if !pending && x.has(core.Pending) {
			x.reset(core.Pending)
			if x.pendings > 0 {
				x.pendings--
			}
			if t.pendings > 0 {
				t.pendings--
			}
		}
	case *Column:
		if pending && !x.has(core.Pending) {
			x.set(core.Pending)
			x.pendings++
			t.pendings++
		} else if !pending && x.has(core.Pending) {
			x.reset(core.Pending)
			if x.pendings > 0 {
				x.pendings--
			}
			if t.pendings > 0 {
				t.pendings--
			}
		}
	}
}
