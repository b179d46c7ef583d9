package cocogo

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with cocogo-specific context.
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

// WithDataset adds a dataset name field to the logger.
func (l *Logger) WithDataset(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dataset", name),
	}
}

// LogDropped logs an annotation removed by a block list.
func (l *Logger) LogDropped(ctx context.Context, fileName, category string) {
	l.InfoContext(ctx, "skipping blocked image",
		"file_name", fileName,
		"category", category,
	)
}

// LogBuild logs the outcome of a dataset build.
func (l *Logger) LogBuild(ctx context.Context, rows, images, annotations int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"rows", rows,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "build completed",
		"rows", rows,
		"images", images,
		"annotations", annotations,
		"duration", duration,
	)
}

// LogQuery logs an executed query.
func (l *Logger) LogQuery(ctx context.Context, rows int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"duration", duration,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "query completed",
		"rows", rows,
		"duration", duration,
	)
}

// LogDownload logs a single image transfer.
func (l *Logger) LogDownload(ctx context.Context, fileName string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "download failed",
			"file_name", fileName,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "download completed",
		"file_name", fileName,
		"bytes", bytes,
	)
}
