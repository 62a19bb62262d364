package network

import (
	"context"

	"github.com/hashicorp/go-retryablehttp"
)

type requestIDKey struct{}

// WithRequestID returns a context whose application server calls carry id in the X-Request-ID header.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext ...
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func setRequestID(ctx context.Context, req *retryablehttp.Request) {
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set(requestIDHeader, id)
	}
}
