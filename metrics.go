package gridgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordSetValue is called after each cell value commit attempt.
	// changed is false for no-op and vetoed commits, err is nil on success.
	RecordSetValue(duration time.Duration, changed bool, err error)

	// RecordFill is called after a table, slice, or group fill.
	// cells is the number of cells touched.
	RecordFill(cells int, duration time.Duration)

	// RecordRecalc is called after a recalculation pass.
	// targets is the number of derivations run, err is nil if all succeeded.
	RecordRecalc(targets int, duration time.Duration, err error)

	// RecordGroupOp is called after a group set-algebra operation.
	RecordGroupOp(op string, duration time.Duration)

	// RecordStructural is called after a row/column insert or delete.
	RecordStructural(kind ElementKind, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSetValue(time.Duration, bool, error)     {}
func (NoopMetricsCollector) RecordFill(int, time.Duration)                 {}
func (NoopMetricsCollector) RecordRecalc(int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordGroupOp(string, time.Duration)           {}
func (NoopMetricsCollector) RecordStructural(ElementKind, time.Duration)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SetValueCount      atomic.Int64
	SetValueChanged    atomic.Int64
	SetValueErrors     atomic.Int64
	SetValueTotalNanos atomic.Int64
	FillCount          atomic.Int64
	FillCells          atomic.Int64
	RecalcCount        atomic.Int64
	RecalcTargets      atomic.Int64
	RecalcErrors       atomic.Int64
	GroupOpCount       atomic.Int64
	StructuralCount    atomic.Int64
}

// RecordSetValue implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSetValue(duration time.Duration, changed bool, err error) {
	b.SetValueCount.Add(1)
	b.SetValueTotalNanos.Add(duration.Nanoseconds())
	if changed {
		b.SetValueChanged.Add(1)
	}
	if err != nil {
		b.SetValueErrors.Add(1)
	}
}

// RecordFill implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFill(cells int, _ time.Duration) {
	b.FillCount.Add(1)
	b.FillCells.Add(int64(cells))
}

// RecordRecalc implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecalc(targets int, _ time.Duration, err error) {
	b.RecalcCount.Add(1)
	b.RecalcTargets.Add(int64(targets))
	if err != nil {
		b.RecalcErrors.Add(1)
	}
}

// RecordGroupOp implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGroupOp(string, time.Duration) {
	b.GroupOpCount.Add(1)
}

// RecordStructural implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStructural(ElementKind, time.Duration) {
	b.StructuralCount.Add(1)
}
