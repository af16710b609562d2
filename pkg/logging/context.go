package logging

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/uppbod/pkg/constants"
)

type contextKey int

const (
	loggerKey contextKey = iota
	runIDKey
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// WithRun tags the context logger with the run ID and run timestamp.
func WithRun(ctx context.Context, runID string, at time.Time) context.Context {
	ctx = context.WithValue(ctx, runIDKey, runID)
	logger := FromContext(ctx).With().
		Str("run_id", runID).
		Str("run_at", at.UTC().Format(constants.TimeFormatFetched)).
		Logger()
	return WithLogger(ctx, &logger)
}

// RunID returns the run ID stored by WithRun, or "".
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// WithFields adds structured fields to the logger in the context.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	logCtx := FromContext(ctx).With()
	for key, value := range fields {
		logCtx = addField(logCtx, key, value)
	}
	logger := logCtx.Logger()
	return WithLogger(ctx, &logger)
}

// WithField adds a single field to the logger in the context.
func WithField(ctx context.Context, key string, value any) context.Context {
	logger := addField(FromContext(ctx).With(), key, value).Logger()
	return WithLogger(ctx, &logger)
}

// WithSource adds the feed source ID.
func WithSource(ctx context.Context, source string) context.Context {
	return WithField(ctx, "source", source)
}

// WithIdentity adds a record identity.
func WithIdentity(ctx context.Context, identity string) context.Context {
	return WithField(ctx, "identity", identity)
}

// WithOperation adds operation context to the logger.
func WithOperation(ctx context.Context, operation string) context.Context {
	return WithField(ctx, "operation", operation)
}

// WithError adds an error to the context logger.
func WithError(ctx context.Context, err error) context.Context {
	if err == nil {
		return ctx
	}
	return WithField(ctx, "error", err)
}
