package routeplan

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with planner-specific helpers.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
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
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithPlanID adds a plan_id field to the logger.
func (l *Logger) WithPlanID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("plan_id", id),
	}
}

// WithK adds a k (cluster count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithGroup adds a group index field to the logger.
func (l *Logger) WithGroup(group int) *Logger {
	return &Logger{
		Logger: l.Logger.With("group", group),
	}
}

// LogGeocodeBatch logs the outcome of geocoding a batch of addresses.
func (l *Logger) LogGeocodeBatch(ctx context.Context, total, found int, elapsed time.Duration) {
	failed := total - found
	if failed > 0 {
		l.WarnContext(ctx, "geocoding completed with failures",
			"total", total,
			"found", found,
			"failed", failed,
			"elapsed", elapsed,
		)
	} else {
		l.InfoContext(ctx, "geocoding completed",
			"count", total,
			"elapsed", elapsed,
		)
	}
}

// LogCluster logs a clustering run.
func (l *Logger) LogCluster(ctx context.Context, n, k int, inertia float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clustering failed",
			"n", n,
			"k", k,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "clustering completed",
			"n", n,
			"k", k,
			"inertia", inertia,
		)
	}
}

// LogRoute logs the routing of one group.
func (l *Logger) LogRoute(ctx context.Context, group, stops int, distanceKm float64, err error) {
	if err != nil {
		l.WarnContext(ctx, "routing failed",
			"group", group,
			"stops", stops,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "routing completed",
			"group", group,
			"stops", stops,
			"distance_km", distanceKm,
		)
	}
}

// LogPlan logs a finished plan.
func (l *Logger) LogPlan(ctx context.Context, id string, groups, stops, excluded int, elapsed time.Duration) {
	l.InfoContext(ctx, "plan completed",
		"plan_id", id,
		"groups", groups,
		"stops", stops,
		"excluded", excluded,
		"elapsed", elapsed,
	)
}
