package keycloak

import "context"

// contextKey is an unexported type for context keys defined by this
// package, preventing collisions with keys defined elsewhere.
type contextKey int

const (
	claimsKey contextKey = iota
	authorizationKey
)

// ContextWithClaims returns a copy of ctx carrying the validated claims of
// the request's bearer token.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext retrieves the validated claims stored by the inbound
// middleware or interceptors. The boolean reports whether claims were
// present.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// ContextWithAuthorization returns a copy of ctx carrying the raw
// authorization header value of the request.
func ContextWithAuthorization(ctx context.Context, header string) context.Context {
	return context.WithValue(ctx, authorizationKey, header)
}

// AuthorizationFromContext retrieves the raw authorization header value
// stored by the inbound middleware or interceptors. Handlers that proxy
// requests onward can use it to forward the caller's token verbatim.
func AuthorizationFromContext(ctx context.Context) (string, bool) {
	header, ok := ctx.Value(authorizationKey).(string)
	return header, ok
}
