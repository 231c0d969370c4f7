package translation

import "context"

type requestIDKey struct{}

// WithRequestID returns a context carrying the request identifier.
// The HTTP layer sets it; the pipeline threads it into history entries.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request identifier carried by ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
