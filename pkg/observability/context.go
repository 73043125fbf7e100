package observability

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const (
	correlationIDCtxKey ctxKey = iota
	requestIDCtxKey
)

// Attribute keys added to log records by the attribute handler.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
)

// WithCorrelationID tags ctx with the id that ties a CLI run or worker job
// to the events it emits. An empty id gets a fresh UUID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return withID(ctx, correlationIDCtxKey, id)
}

// CorrelationIDFromContext returns the correlation id, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return idFrom(ctx, correlationIDCtxKey)
}

// WithRequestID tags ctx with an HTTP request id. An empty id gets a fresh UUID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withID(ctx, requestIDCtxKey, id)
}

// RequestIDFromContext returns the request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	return idFrom(ctx, requestIDCtxKey)
}

func withID(ctx context.Context, key ctxKey, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, key, id)
}

func idFrom(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(key).(string)
	return id
}
