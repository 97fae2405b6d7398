// Package requestid carries a request correlation ID through a context and
// names the header it travels in. Both the inbound middleware and the
// outbound backend client use it.
package requestid

import "context"

// Header carries the request ID on requests and responses.
const Header = "X-Request-ID"

type key struct{}

// FromContext returns the request ID stored in ctx, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(key{}).(string)
	return id
}

// WithContext stores id in ctx.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, key{}, id)
}
