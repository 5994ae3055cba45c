package keycloak

import (
	"time"

	sserr "github.com/StricklySoft/keycloak-go/pkg/errors"
)

// ---------------------------------------------------------------------------
// Secret type — prevents accidental logging of sensitive values
// ---------------------------------------------------------------------------

// Secret is a string type that redacts its value in String(), GoString(),
// and MarshalText() to prevent accidental exposure in logs, JSON output, or
// fmt.Printf. The actual value is only accessible via the [Secret.Value]
// method, which should be called only where the raw value is truly needed
// (e.g., building a grant request body).
type Secret string

// secretRedacted is the placeholder text shown instead of the actual secret
// value when the secret is printed, formatted, or serialized.
const secretRedacted = "[REDACTED]"

// String returns the redacted placeholder, preventing the secret from being
// printed via fmt.Println, log.Printf, or similar functions.
func (s Secret) String() string { return secretRedacted }

// GoString returns the redacted placeholder, preventing the secret from
// being printed via fmt.Printf("%#v", secret).
func (s Secret) GoString() string { return secretRedacted }

// Value returns the actual secret string. This is the only way to access
// the underlying value and should be used only where the raw secret is
// required.
func (s Secret) Value() string { return string(s) }

// MarshalText implements [encoding.TextMarshaler], returning the redacted
// placeholder. This prevents the secret from leaking into JSON, YAML, or
// any other text-based serialization format.
func (s Secret) MarshalText() ([]byte, error) { return []byte(secretRedacted), nil }

// ---------------------------------------------------------------------------
// Config — configuration for the Keycloak client
// ---------------------------------------------------------------------------

// HTTPConfig controls the transport used to reach the Keycloak server.
type HTTPConfig struct {
	// AuthServerURL is the base URL of the Keycloak server (e.g.,
	// "https://id.example.com"). Realm endpoints are derived from it;
	// see [NewEndpoints].
	AuthServerURL string `json:"auth_server_url" yaml:"auth_server_url" env:"AUTH_SERVER_URL" required:"true"`

	// UserAgent is sent on every request to the Keycloak server.
	UserAgent string `json:"user_agent" yaml:"user_agent" env:"USER_AGENT" envDefault:"keycloak-go/0.1"`

	// Timeout is the per-request timeout of the default HTTP client.
	// Ignored when a custom [Config.HTTPClient] is supplied. Must be
	// non-negative.
	Timeout time.Duration `json:"timeout" yaml:"timeout" env:"TIMEOUT" envDefault:"10s"`
}

// ClientConfig identifies the service's own client registration in the
// realm and controls outbound authentication policy.
type ClientConfig struct {
	// Realm is the Keycloak realm name.
	Realm string `json:"realm" yaml:"realm" env:"REALM" required:"true"`

	// ID is the client id of the service's client registration. It is
	// also the default accepted audience for validated tokens.
	ID string `json:"id" yaml:"id" env:"ID" required:"true"`

	// Secret is the client secret used by the client-credentials grant.
	// The Secret type prevents accidental logging of the value.
	Secret Secret `json:"-" yaml:"secret" env:"SECRET"`

	// RequireToken controls the outbound middleware policy when
	// authentication fails. When false (the default), outgoing requests
	// proceed without a token and the failure is only logged; when true,
	// the failure is returned to the caller and the request is not sent.
	RequireToken bool `json:"require_token" yaml:"require_token" env:"REQUIRE_TOKEN" envDefault:"false"`
}

// TokenConfig controls validation of presented bearer tokens.
type TokenConfig struct {
	// Issuers is the list of accepted "iss" values. When empty, the
	// realm's computed issuer URL is accepted.
	Issuers []string `json:"issuers,omitempty" yaml:"issuers" env:"ISSUERS"`

	// Audiences is the list of accepted "aud" values. When empty, the
	// configured client id is accepted.
	Audiences []string `json:"audiences,omitempty" yaml:"audiences" env:"AUDIENCES"`

	// ClockSkew is the maximum allowed clock difference between this
	// service and the Keycloak server when checking expiration and
	// issued-at times. Defaults to zero: a token whose expiry has passed
	// is rejected immediately. Must be non-negative.
	ClockSkew time.Duration `json:"clock_skew" yaml:"clock_skew" env:"CLOCK_SKEW" envDefault:"0s"`
}

// Config holds the configuration for a [Client]. It is designed to be
// loaded with the SDK's config loader:
//
//	cfg := config.MustLoad[keycloak.Config](
//	    config.New().WithEnvPrefix("KEYCLOAK").WithFile("keycloak.yaml"),
//	)
//
// With the "KEYCLOAK" prefix, fields resolve from environment variables
// such as KEYCLOAK_HTTP_AUTH_SERVER_URL, KEYCLOAK_CLIENT_REALM,
// KEYCLOAK_CLIENT_ID, and KEYCLOAK_CLIENT_SECRET.
type Config struct {
	// HTTP configures the transport to the Keycloak server.
	HTTP HTTPConfig `json:"http" yaml:"http" env:"HTTP"`

	// Client identifies this service's client registration.
	Client ClientConfig `json:"client" yaml:"client" env:"CLIENT"`

	// Token configures bearer token validation.
	Token TokenConfig `json:"token" yaml:"token" env:"TOKEN"`

	// HTTPClient overrides the HTTP client used for Keycloak requests.
	// If nil, a default [net/http.Client] with [HTTPConfig.Timeout] is
	// used. Supplying a custom client allows mTLS, proxies, and request
	// tracing middleware.
	HTTPClient HTTPClient `json:"-" yaml:"-"`
}

// Validate checks the configuration for logical correctness and returns an
// error if any field is invalid. It is called automatically by the config
// loader (via the [config.Validator] interface) and by [New].
func (c *Config) Validate() error {
	if _, err := NewEndpoints(c.HTTP.AuthServerURL, c.Client.Realm); err != nil {
		return err
	}
	if c.Client.ID == "" {
		return sserr.New(sserr.CodeValidationRequired, "keycloak: client id must not be empty")
	}
	if c.HTTP.Timeout < 0 {
		return sserr.New(sserr.CodeValidation, "keycloak: HTTP timeout must be non-negative")
	}
	if c.Token.ClockSkew < 0 {
		return sserr.New(sserr.CodeValidation, "keycloak: clock skew must be non-negative")
	}
	return nil
}

// Endpoints derives the realm endpoint URLs from the configured auth
// server URL and realm name.
func (c *Config) Endpoints() (Endpoints, error) {
	return NewEndpoints(c.HTTP.AuthServerURL, c.Client.Realm)
}
