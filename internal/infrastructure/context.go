package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type contextKey string

const (
	traceIDKey   contextKey = "trace_id"
	datasetIDKey contextKey = "dataset_id"
)

// WithTraceID stores the trace id picked up by the logger
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID returns the trace id stored in ctx, or ""
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, traceIDKey)
}

// EnsureTraceID returns ctx unchanged when it already carries a trace id and
// otherwise attaches a fresh one
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, uuid.NewString())
}

// WithDatasetID tags ctx with the dataset a request or socket works on
func WithDatasetID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, datasetIDKey, id)
}

// GetDatasetID returns the dataset id stored in ctx, or ""
func GetDatasetID(ctx context.Context) string {
	return stringValue(ctx, datasetIDKey)
}

// WithComponent scopes a logger to one component
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}
