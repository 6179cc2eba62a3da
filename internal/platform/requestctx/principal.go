// Package requestctx carries the authenticated principal through request context.
package requestctx

import "context"

// Principal identifies an authenticated user for the duration of a request.
type Principal struct {
	ID    string
	Email string
}

// principalContextKey is the context key for authenticated identity.
type principalContextKey struct{}

// WithPrincipal stores an authenticated principal in context.
func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext returns the principal stored in context, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	principal, ok := ctx.Value(principalContextKey{}).(Principal)
	if !ok || principal.ID == "" {
		return Principal{}, false
	}
	return principal, true
}
