package gridgo

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with gridgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithTable adds the table's ident to the logger.
func (l *Logger) WithTable(t *Table) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", int64(t.Ident())),
	}
}

// LogStructural logs a row/column insertion or removal.
func (l *Logger) LogStructural(op string, kind ElementKind, index int, err error) {
	if err != nil {
		l.Error("structural change failed",
			"op", op,
			"kind", kind.String(),
			"index", index,
			"error", err,
		)
	} else {
		l.Debug("structural change",
			"op", op,
			"kind", kind.String(),
			"index", index,
		)
	}
}

// LogSetValue logs a cell value commit.
func (l *Logger) LogSetValue(row, col int, changed bool, err error) {
	if err != nil {
		l.Error("set value failed",
			"row", row,
			"column", col,
			"error", err,
		)
	} else {
		l.Debug("set value",
			"row", row,
			"column", col,
			"changed", changed,
		)
	}
}

// LogRecalc logs a recalculation pass.
func (l *Logger) LogRecalc(targets int, err error) {
	if err != nil {
		l.Error("recalculation failed",
			"targets", targets,
			"error", err,
		)
	} else {
		l.Debug("recalculation completed",
			"targets", targets,
		)
	}
}

// LogGroupOp logs a group set-algebra operation.
func (l *Logger) LogGroupOp(op string, cells int) {
	l.Debug("group operation",
		"op", op,
		"cells", cells,
	)
}

// LogLifecycle logs a table create/delete.
func (l *Logger) LogLifecycle(op string, rows, cols int) {
	l.Info("table lifecycle",
		"op", op,
		"rows", rows,
		"columns", cols,
	)
}
