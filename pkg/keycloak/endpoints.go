package keycloak

import (
	"net/url"
	"strings"

	sserr "github.com/StricklySoft/keycloak-go/pkg/errors"
)

// Endpoints holds the resolved URLs of a Keycloak realm's OpenID Connect
// endpoints. All URLs are derived from the auth server base URL and the
// realm name; Keycloak publishes them under
// {base}/realms/{realm}/protocol/openid-connect/.
//
// Endpoints is immutable once constructed with [NewEndpoints].
type Endpoints struct {
	// Issuer is the realm URL ({base}/realms/{realm}). Tokens issued by
	// the realm carry this URL in their "iss" claim.
	Issuer string

	// Auth is the authorization endpoint used by interactive flows.
	Auth string

	// Token is the token endpoint accepting grant requests.
	Token string

	// Introspect is the token introspection endpoint.
	Introspect string

	// JWKS is the certificate endpoint publishing the realm's JSON Web
	// Key Set.
	JWKS string
}

// NewEndpoints derives the realm's endpoint URLs from the auth server base
// URL and the realm name. The base URL must be absolute (scheme and host
// present); the realm name must be a single path segment.
//
// Returns a [*sserr.Error] with code [sserr.CodeValidationFormat] if the
// base URL cannot be parsed or is not hierarchical, or
// [sserr.CodeValidation] if the realm name is empty or contains a path
// separator.
func NewEndpoints(authServerURL, realm string) (Endpoints, error) {
	base, err := url.Parse(authServerURL)
	if err != nil {
		return Endpoints{}, sserr.Wrapf(err, sserr.CodeValidationFormat,
			"keycloak: cannot parse auth server URL %q", authServerURL)
	}
	if !base.IsAbs() || base.Host == "" {
		return Endpoints{}, sserr.Newf(sserr.CodeValidationFormat,
			"keycloak: auth server URL %q must be absolute", authServerURL)
	}
	if realm == "" {
		return Endpoints{}, sserr.New(sserr.CodeValidation,
			"keycloak: realm must not be empty")
	}
	if strings.ContainsAny(realm, "/?#") {
		return Endpoints{}, sserr.Newf(sserr.CodeValidation,
			"keycloak: realm %q must be a single path segment", realm)
	}

	issuer := base.JoinPath("realms", realm)
	oidc := issuer.JoinPath("protocol", "openid-connect")

	return Endpoints{
		Issuer:     issuer.String(),
		Auth:       oidc.JoinPath("auth").String(),
		Token:      oidc.JoinPath("token").String(),
		Introspect: oidc.JoinPath("introspect").String(),
		JWKS:       oidc.JoinPath("certs").String(),
	}, nil
}
