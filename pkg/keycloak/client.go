package keycloak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	sserr "github.com/StricklySoft/keycloak-go/pkg/errors"
)

// HTTPClient is the interface for making HTTP requests to the Keycloak
// server. It is satisfied by [net/http.Client] and allows injecting custom
// clients for testing, mTLS, or request tracing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time assertion that http.Client satisfies HTTPClient.
var _ HTTPClient = (*http.Client)(nil)

// providerError is the error payload returned by the token endpoint when
// a grant request is rejected.
type providerError struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// Client is a Keycloak client bound to a single realm. It manages the
// service's own credential (obtained with the client-credentials grant and
// kept fresh with refresh grants) and validates bearer tokens presented by
// callers.
//
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	config    Config
	endpoints Endpoints
	http      HTTPClient
	decoder   *Decoder
	tracer    trace.Tracer
	logger    *slog.Logger

	mu    sync.RWMutex
	token *TokenResponse

	// authGroup coalesces concurrent (re)authentication into one grant
	// request.
	authGroup singleflight.Group
}

// New creates a Client from the given configuration. The configuration is
// validated, the realm's JWKS is fetched, and a [Decoder] is built from
// it. If cfg.HTTPClient is nil, a default [net/http.Client] with
// cfg.HTTP.Timeout is used.
//
// No credential is obtained at construction; the first call to
// [Client.Authenticate] performs the initial grant.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	endpoints, err := cfg.Endpoints()
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTP.Timeout}
	}

	c := &Client{
		config:    cfg,
		endpoints: endpoints,
		http:      httpClient,
		tracer:    otel.Tracer(tracerName),
		logger:    slog.Default().With(slog.String("component", "keycloak.client")),
	}

	jwks, err := c.JWKS(ctx)
	if err != nil {
		return nil, err
	}

	issuers := cfg.Token.Issuers
	if len(issuers) == 0 {
		issuers = []string{endpoints.Issuer}
	}
	audiences := cfg.Token.Audiences
	if len(audiences) == 0 {
		audiences = []string{cfg.Client.ID}
	}
	c.decoder = NewDecoder(jwks, issuers, audiences, cfg.Token.ClockSkew)

	return c, nil
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() Config {
	return c.config
}

// Endpoints returns the realm endpoint URLs the client operates against.
func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// ---------------------------------------------------------------------------
// Authenticate — service credential lifecycle
// ---------------------------------------------------------------------------

// Authenticate returns a valid access token for the service's own client
// registration, performing a grant request only when the cached credential
// is missing or expired. An expired credential with a usable refresh token
// is renewed with a refresh grant; if the refresh is rejected, or no
// usable refresh token exists, a fresh client-credentials grant is
// performed instead.
//
// Concurrent callers that find the credential expired share a single
// grant request. The shared request is detached from any one caller's
// context so that a caller cancelling cannot fail the others; a caller
// whose own context ends while waiting receives its context error wrapped
// with code TIMEOUT_001.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	ctx, span := c.tracer.Start(ctx, "keycloak.Authenticate")
	defer span.End()

	now := time.Now()

	c.mu.RLock()
	if c.token != nil && !c.token.accessExpired(now) {
		token := c.token.AccessToken
		c.mu.RUnlock()
		span.SetAttributes(attribute.Bool("keycloak.cache_hit", true))
		return token, nil
	}
	c.mu.RUnlock()
	span.SetAttributes(attribute.Bool("keycloak.cache_hit", false))

	// The grant runs detached from the caller's context: it is shared by
	// every waiter, and the HTTP client's timeout still bounds it.
	grantCtx := context.WithoutCancel(ctx)
	ch := c.authGroup.DoChan("authenticate", func() (any, error) {
		return c.renew(grantCtx)
	})

	select {
	case <-ctx.Done():
		err := sserr.Wrap(ctx.Err(), sserr.CodeTimeout, "keycloak: authentication canceled")
		span.RecordError(err)
		return "", err
	case res := <-ch:
		if res.Err != nil {
			span.RecordError(res.Err)
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// renew obtains a fresh credential and stores it, re-checking the cache
// first in case another goroutine renewed it between the caller's check
// and this call.
func (c *Client) renew(ctx context.Context) (string, error) {
	now := time.Now()

	c.mu.RLock()
	cached := c.token
	c.mu.RUnlock()

	if cached != nil && !cached.accessExpired(now) {
		return cached.AccessToken, nil
	}

	var fresh *TokenResponse
	if cached != nil {
		if rt, ok := cached.usableRefreshToken(now); ok {
			renewed, err := c.LoginClient(ctx, RefreshTokenGrant{RefreshToken: rt})
			if err != nil {
				c.logger.Warn("refresh grant rejected, falling back to client credentials",
					slog.String("error", err.Error()),
				)
			} else {
				fresh = renewed
			}
		}
	}
	if fresh == nil {
		obtained, err := c.LoginClient(ctx, ClientCredentialsGrant{
			ID:     c.config.Client.ID,
			Secret: c.config.Client.Secret,
		})
		if err != nil {
			return "", err
		}
		fresh = obtained
	}

	c.mu.Lock()
	c.token = fresh
	c.mu.Unlock()

	return fresh.AccessToken, nil
}

// LoginClient exchanges a grant for credentials at the realm's token
// endpoint. The response replaces nothing in the client's cache; callers
// that want caching should use [Client.Authenticate].
//
// A 2xx response is decoded as a [TokenResponse] and stamped with the
// local receipt time. A non-2xx response carrying an OAuth2 error payload
// is returned as an AUTH_004 error with the provider's error code and
// description attached; transport failures and unparseable responses are
// reported as UNAVAIL_002, or TIMEOUT_002 when the request deadline was
// exceeded.
func (c *Client) LoginClient(ctx context.Context, grant Grant) (*TokenResponse, error) {
	ctx, span := c.tracer.Start(ctx, "keycloak.LoginClient")
	defer span.End()

	body := grant.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.Token, strings.NewReader(body))
	if err != nil {
		return nil, sserr.Wrap(err, sserr.CodeInternal, "keycloak: failed to build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.config.HTTP.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		wrapped := c.transportError(err)
		span.RecordError(wrapped)
		return nil, wrapped
	}
	defer func() { _ = resp.Body.Close() }()

	// Limit response body to 1 MB.
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		wrapped := c.transportError(err)
		span.RecordError(wrapped)
		return nil, wrapped
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var token TokenResponse
		if err := json.Unmarshal(payload, &token); err != nil || token.AccessToken == "" {
			unparseable := sserr.New(sserr.CodeUnavailableDependency,
				"keycloak: token endpoint returned an unparseable success response")
			span.RecordError(unparseable)
			return nil, unparseable
		}
		return &token, nil
	}

	var provErr providerError
	if err := json.Unmarshal(payload, &provErr); err == nil && provErr.Error != "" {
		rejected := sserr.ProviderError(provErr.Error, provErr.Description)
		span.RecordError(rejected)
		return nil, rejected
	}

	unexpected := sserr.New(sserr.CodeUnavailableDependency,
		fmt.Sprintf("keycloak: token endpoint returned unexpected status %d", resp.StatusCode))
	span.RecordError(unexpected)
	return nil, unexpected
}

// transportError classifies a transport-level failure reaching the
// Keycloak server.
func (c *Client) transportError(err error) *sserr.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return sserr.Wrap(err, sserr.CodeTimeoutDependency, "keycloak: request to identity provider timed out")
	}
	return sserr.Wrap(err, sserr.CodeUnavailableDependency, "keycloak: request to identity provider failed")
}

// ---------------------------------------------------------------------------
// Token validation
// ---------------------------------------------------------------------------

// DecodeToken validates a bearer token and returns its claims. All
// validation failures are reported as an opaque AUTH_003 error; the
// specific cause is logged at debug level.
func (c *Client) DecodeToken(ctx context.Context, token string) (*Claims, error) {
	return c.decoder.Decode(ctx, token)
}

// ---------------------------------------------------------------------------
// JWKS
// ---------------------------------------------------------------------------

// JWKS fetches the realm's current JSON Web Key Set from the certs
// endpoint. [New] calls it once at construction; services that need to
// pick up rotated keys can fetch again and build a new client.
func (c *Client) JWKS(ctx context.Context) (JWKS, error) {
	ctx, span := c.tracer.Start(ctx, "keycloak.JWKS")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoints.JWKS, nil)
	if err != nil {
		return JWKS{}, sserr.Wrap(err, sserr.CodeInternal, "keycloak: failed to build JWKS request")
	}
	req.Header.Set("User-Agent", c.config.HTTP.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		wrapped := c.transportError(err)
		span.RecordError(wrapped)
		return JWKS{}, wrapped
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		unexpected := sserr.New(sserr.CodeUnavailableDependency,
			fmt.Sprintf("keycloak: JWKS endpoint returned status %d", resp.StatusCode))
		span.RecordError(unexpected)
		return JWKS{}, unexpected
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		wrapped := c.transportError(err)
		span.RecordError(wrapped)
		return JWKS{}, wrapped
	}

	var jwks JWKS
	if err := json.Unmarshal(payload, &jwks); err != nil {
		return JWKS{}, sserr.Wrap(err, sserr.CodeUnavailableDependency,
			"keycloak: failed to parse JWKS response")
	}
	return jwks, nil
}
