package service

import "context"

type contextKey int

const requestIDKey contextKey = iota

// WithRequestID attaches the transport-assigned request ID so mutations
// can stamp it into audit events.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
