package services

import "context"

type contextKey int

const (
	videoIDKey contextKey = iota
	stageKey
	requestIDKey
)

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func valueFrom(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

// WithVideoID annotates ctx with the source video identifier.
func WithVideoID(ctx context.Context, id string) context.Context {
	return withValue(ctx, videoIDKey, id)
}

// VideoIDFromContext returns the source video identifier, if any.
func VideoIDFromContext(ctx context.Context) (string, bool) { return valueFrom(ctx, videoIDKey) }

// WithStage annotates ctx with the pipeline stage (download, transform, ...).
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return valueFrom(ctx, stageKey) }

// WithRequestID annotates ctx with the correlation id of an API request or
// CLI invocation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return valueFrom(ctx, requestIDKey) }
