// Package keycloak provides a Keycloak client for services running on the
// StricklySoft Cloud Platform: service-account authentication via the OAuth2
// client-credentials grant, bearer token validation against the realm's
// published signing keys, and transparent enforcement of both through HTTP
// middleware and gRPC interceptors.
//
// # Client
//
// A [Client] is created once at startup from a [Config]. Construction fetches
// the realm's JSON Web Key Set and builds an immutable [Decoder] from it:
//
//	cfg := config.MustLoad[keycloak.Config](config.New().WithEnvPrefix("KEYCLOAK"))
//	kc, err := keycloak.New(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Outbound authentication
//
// [Client.Authenticate] returns a currently valid service access token,
// obtaining, caching, and refreshing it as needed. [NewTransport] wraps an
// [net/http.RoundTripper] so outgoing requests carry the token
// automatically, and [UnaryClientInterceptor] does the same for gRPC:
//
//	httpClient := &http.Client{Transport: keycloak.NewTransport(kc, nil)}
//
// # Inbound authentication
//
// [Middleware] wraps an [net/http.Handler] and [UnaryServerInterceptor]
// wraps a gRPC server; both validate the caller's bearer token with
// [Client.DecodeToken] and inject the resulting [Claims] into the request
// context, where handlers retrieve them with [ClaimsFromContext] or
// [RequireClaims].
//
// # Concurrency
//
// The cached service credential is shared by all goroutines using the
// Client. Reads take a shared lock; a (re)authentication is coalesced into
// a single in-flight grant request that concurrent callers wait on, so the
// provider is never hit twice for one expiry.
package keycloak

import (
	"strings"
)

// tracerName is the OpenTelemetry instrumentation scope name for this
// package. It follows the Go module path convention for OTel
// instrumentation libraries.
const tracerName = "github.com/StricklySoft/keycloak-go/pkg/keycloak"

// HeaderAuthorization is the HTTP header and gRPC metadata key carrying the
// bearer token. gRPC normalizes metadata keys to lowercase, so the lowercase
// form is correct for both transports.
const HeaderAuthorization = "authorization"

// bearerPrefix is the standard "Bearer " prefix for authorization tokens.
const bearerPrefix = "Bearer "

// ExtractBearerToken extracts the token from an authorization header value.
// It handles the "Bearer " prefix case-insensitively.
// Returns an empty string if the header is empty or does not have a bearer
// prefix.
func ExtractBearerToken(authHeader string) string {
	if len(authHeader) <= len(bearerPrefix) {
		return ""
	}
	// Case-insensitive comparison for "Bearer " prefix.
	prefix := authHeader[:len(bearerPrefix)]
	if !strings.EqualFold(prefix, bearerPrefix) {
		return ""
	}
	return authHeader[len(bearerPrefix):]
}

// validHeaderText reports whether s is safe to place in an HTTP header or
// gRPC metadata value: visible ASCII plus space and horizontal tab. Tokens
// come from the network, so their encoding is checked explicitly rather
// than assumed.
func validHeaderText(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == '\t' {
			continue
		}
		if b < 0x20 || b == 0x7f || b > 0x7e {
			return false
		}
	}
	return true
}
