package gridgo

import "log/slog"

type options struct {
	logger             *Logger
	metricsCollector   MetricsCollector
	rowCapacityIncr    int
	columnCapacityIncr int
	freeSpaceThreshold float64
	tablesPersistent   bool
	recalcWorkers      int
}

func defaultOptions() options {
	return options{
		logger:             NewLogger(nil),
		metricsCollector:   NoopMetricsCollector{},
		rowCapacityIncr:    DefaultRowCapacityIncr,
		columnCapacityIncr: DefaultColumnCapacityIncr,
		freeSpaceThreshold: DefaultFreeSpaceThreshold,
		recalcWorkers:      DefaultRecalcWorkers,
	}
}

// Option configures context construction.
type Option func(*options)

// WithLogger configures the structured logger used by the context and every
// table it creates. Pass nil to fall back to the default text logger.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NewLogger(nil)
		}
		o.logger = l
	}
}

// WithLogLevel is a shorthand for a stderr text logger at the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithRowCapacityIncrement sets the default row capacity increment for new
// tables. Row storage is always grown in whole increments.
func WithRowCapacityIncrement(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.rowCapacityIncr = n
		}
	}
}

// WithColumnCapacityIncrement sets the default column capacity increment for
// new tables.
func WithColumnCapacityIncrement(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.columnCapacityIncr = n
		}
	}
}

// WithFreeSpaceThreshold sets the ratio of unused-capacity to increment above
// which delete operations trim trailing capacity. Zero disables reclamation.
func WithFreeSpaceThreshold(ratio float64) Option {
	return func(o *options) {
		if ratio >= 0 {
			o.freeSpaceThreshold = ratio
		}
	}
}

// WithTablesPersistent makes new tables persistent by default: the context
// retains them until explicitly deleted or the context is cleared.
func WithTablesPersistent(persistent bool) Option {
	return func(o *options) {
		o.tablesPersistent = persistent
	}
}

// WithRecalcWorkers bounds the number of derivations recalculated in
// parallel after a value or structural change.
func WithRecalcWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.recalcWorkers = n
		}
	}
}
