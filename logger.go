package metricdp

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/metricdp/distance"
)

// Logger wraps slog.Logger with metricdp-specific helpers.
//
// The helpers only ever log counts, sizes and durations. Token ids, vectors
// and privatized output are never written to the log.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithMetric adds a metric field to the logger.
func (l *Logger) WithMetric(m distance.Metric) *Logger {
	return &Logger{
		Logger: l.Logger.With("metric", m.String()),
	}
}

// LogBuild logs a forest build.
func (l *Logger) LogBuild(ctx context.Context, m distance.Metric, trees, leafSize, rows int, dur time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"metric", m.String(),
			"trees", trees,
			"leaf_size", leafSize,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "index built",
		"metric", m.String(),
		"trees", trees,
		"leaf_size", leafSize,
		"rows", rows,
		"duration", dur,
	)
}

// LogIndexCacheHit logs that BuildANN reused a cached forest.
func (l *Logger) LogIndexCacheHit(ctx context.Context, m distance.Metric, trees int) {
	l.DebugContext(ctx, "index reused from cache",
		"metric", m.String(),
		"trees", trees,
	)
}

// LogPrivatize logs a privatization call by length only.
func (l *Logger) LogPrivatize(ctx context.Context, tokens, perturbed int, err error) {
	if err != nil {
		l.WarnContext(ctx, "privatize failed",
			"tokens", tokens,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "privatize completed",
		"tokens", tokens,
		"perturbed", perturbed,
	)
}

// LogBatch logs a batch privatization.
func (l *Logger) LogBatch(ctx context.Context, sequences int, dur time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "batch privatize failed",
			"sequences", sequences,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "batch privatize completed",
		"sequences", sequences,
		"duration", dur,
	)
}

// LogSnapshot logs a snapshot save or load.
func (l *Logger) LogSnapshot(ctx context.Context, op, name string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot "+op+" failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot "+op+" completed",
		"name", name,
		"bytes", bytes,
	)
}
