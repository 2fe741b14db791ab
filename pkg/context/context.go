// Package context holds request scoped values shared by middleware, logs and events
package context

import "context"

type ContextKey string

var (
	RequestIDKey  = ContextKey("X-Request-Id")
	OperatorIDKey = ContextKey("X-Operator-Id")
)

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID returns the request id, or "" outside a request. Events use it
// as their correlation id.
func GetRequestID(ctx context.Context) string {
	return getString(ctx, RequestIDKey)
}

// SetOperatorID records who is reviewing or committing agents
func SetOperatorID(ctx context.Context, operatorID string) context.Context {
	return context.WithValue(ctx, OperatorIDKey, operatorID)
}

func GetOperatorID(ctx context.Context) string {
	return getString(ctx, OperatorIDKey)
}

func getString(ctx context.Context, key ContextKey) string {
	value, _ := ctx.Value(key).(string)
	return value
}
