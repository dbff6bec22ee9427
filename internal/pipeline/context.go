package pipeline

import "context"

type contextKey string

// RequestIDKey carries the request id through the context for log correlation
const RequestIDKey contextKey = "request_id"

// WithRequestID attaches a request id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
