package keycloak

import (
	"log/slog"
	"net/http"

	sserr "github.com/StricklySoft/keycloak-go/pkg/errors"
)

// ---------------------------------------------------------------------------
// Middleware — inbound bearer token enforcement
// ---------------------------------------------------------------------------

// Middleware returns an HTTP middleware that validates the bearer token of
// incoming requests against the realm's signing keys.
//
// The middleware performs the following steps:
//  1. Extracts the "Authorization" header (bearer token)
//  2. Validates the token with [Client.DecodeToken]
//  3. Stores the resulting [Claims] and the raw header value in the
//     request context
//  4. Passes the enriched request to the next handler
//
// If the header is missing, malformed, or the token fails validation, the
// middleware responds with HTTP 401 Unauthorized. The response body does
// not distinguish the failure cause; the cause is logged instead.
//
// A request whose context already carries claims (from an outer instance
// of the same middleware) is passed through untouched.
//
// Example:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/api/data", handleData)
//	handler := keycloak.Middleware(kc)(mux)
//	http.ListenAndServe(":8080", handler)
func Middleware(kc *Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Already authenticated by an outer middleware instance.
			if _, ok := ClaimsFromContext(ctx); ok {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get(HeaderAuthorization)
			if authHeader == "" {
				slog.DebugContext(ctx, "keycloak: request has no authorization header")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if !validHeaderText(authHeader) {
				slog.WarnContext(ctx, "keycloak: authorization header contains invalid characters")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			token := ExtractBearerToken(authHeader)
			if token == "" {
				slog.DebugContext(ctx, "keycloak: authorization header is not a bearer token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := kc.DecodeToken(ctx, token)
			if err != nil {
				slog.DebugContext(ctx, "keycloak: rejected bearer token",
					slog.String("error", err.Error()),
				)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx = ContextWithClaims(ctx, claims)
			ctx = ContextWithAuthorization(ctx, authHeader)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ---------------------------------------------------------------------------
// Transport — outbound service credential injection
// ---------------------------------------------------------------------------

// Transport wraps an [http.RoundTripper] to authenticate outgoing HTTP
// requests with the service's own access token. Before each request it
// obtains a valid token via [Client.Authenticate] and sets the
// Authorization header on a clone of the request.
//
// When authentication fails, the behavior depends on
// [ClientConfig.RequireToken]: when false (the default) the failure is
// logged and the request proceeds without a token, letting the downstream
// service make the rejection; when true the error is returned and the
// request is not sent.
//
// A request whose context already carries validated claims is forwarded
// untouched, so a service relaying a caller's request does not overwrite
// the caller's token with its own.
//
// Example:
//
//	client := &http.Client{Transport: keycloak.NewTransport(kc, nil)}
//	resp, err := client.Get("https://billing.internal/api/invoices")
type Transport struct {
	kc      *Client
	wrapped http.RoundTripper
}

// NewTransport creates a Transport that wraps the given RoundTripper. If
// base is nil, [http.DefaultTransport] is used.
func NewTransport(kc *Client, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{kc: kc, wrapped: base}
}

// RoundTrip implements the [http.RoundTripper] interface.
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	// A relayed request keeps its caller's token.
	if _, ok := ClaimsFromContext(ctx); ok {
		return t.wrapped.RoundTrip(r)
	}

	token, err := t.kc.Authenticate(ctx)
	if err == nil && !validHeaderText(token) {
		err = sserr.Internal("keycloak: issued access token is not valid header text")
	}
	if err != nil {
		if t.kc.Config().Client.RequireToken {
			return nil, err
		}
		slog.ErrorContext(ctx, "keycloak: failed to authenticate outgoing request, proceeding without token",
			slog.String("error", err.Error()),
			slog.String("url", r.URL.Redacted()),
		)
		return t.wrapped.RoundTrip(r)
	}

	// Clone the request to avoid mutating the original.
	clone := r.Clone(ctx)
	clone.Header.Set(HeaderAuthorization, bearerPrefix+token)
	return t.wrapped.RoundTrip(clone)
}
