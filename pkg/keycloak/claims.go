package keycloak

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Audience — "aud" claim that may be a string or an array of strings
// ---------------------------------------------------------------------------

// Audience holds the "aud" claim. Keycloak emits a bare string when a
// token has a single audience and a JSON array otherwise; Audience accepts
// both forms.
type Audience []string

// UnmarshalJSON accepts either a JSON string or a JSON array of strings.
func (a *Audience) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = Audience{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*a = Audience(many)
	return nil
}

// Contains reports whether the audience list includes aud.
func (a Audience) Contains(aud string) bool {
	for _, v := range a {
		if v == aud {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Claims — the decoded payload of a validated access token
// ---------------------------------------------------------------------------

// RolesClaim holds a list of role names, as found in the "realm_access"
// claim and in each entry of the "resource_access" claim.
type RolesClaim struct {
	Roles []string `json:"roles"`
}

// Claims is the decoded payload of a validated Keycloak access token.
//
// All fields listed here are required: [Client.DecodeToken] rejects tokens
// that omit any of them.
type Claims struct {
	// Issuer is the "iss" claim, the realm's issuer URL.
	Issuer string `json:"iss"`

	// Subject is the "sub" claim, the Keycloak id of the authenticated
	// principal.
	Subject uuid.UUID `json:"sub"`

	// Audience is the "aud" claim.
	Audience Audience `json:"aud"`

	// ExpiresAt is the "exp" claim.
	ExpiresAt *jwt.NumericDate `json:"exp"`

	// IssuedAt is the "iat" claim.
	IssuedAt *jwt.NumericDate `json:"iat"`

	// ID is the "jti" claim, the unique id of the token itself.
	ID uuid.UUID `json:"jti"`

	// Username is the "preferred_username" claim.
	Username string `json:"preferred_username"`

	// RealmAccess holds the realm-level roles of the principal.
	RealmAccess RolesClaim `json:"realm_access"`

	// ResourceAccess holds the client-level roles of the principal, keyed
	// by client id.
	ResourceAccess map[string]RolesClaim `json:"resource_access"`
}

var _ jwt.Claims = (*Claims)(nil)

// GetExpirationTime implements [jwt.Claims].
func (c *Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }

// GetIssuedAt implements [jwt.Claims].
func (c *Claims) GetIssuedAt() (*jwt.NumericDate, error) { return c.IssuedAt, nil }

// GetNotBefore implements [jwt.Claims]. Keycloak tokens carry no "nbf"
// claim, so this always reports none.
func (c *Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }

// GetIssuer implements [jwt.Claims].
func (c *Claims) GetIssuer() (string, error) { return c.Issuer, nil }

// GetSubject implements [jwt.Claims].
func (c *Claims) GetSubject() (string, error) { return c.Subject.String(), nil }

// GetAudience implements [jwt.Claims].
func (c *Claims) GetAudience() (jwt.ClaimStrings, error) {
	return jwt.ClaimStrings(c.Audience), nil
}

// IsSubject reports whether the token's subject equals the given id. The
// id must be the string form of a UUID; anything else reports false.
func (c *Claims) IsSubject(id string) bool {
	sub, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return c.Subject == sub
}

// IsUser reports whether the token's subject equals the given user id.
func (c *Claims) IsUser(id uuid.UUID) bool {
	return c.Subject == id
}

// HasRealmRole reports whether the principal holds the given realm-level
// role.
func (c *Claims) HasRealmRole(role string) bool {
	for _, r := range c.RealmAccess.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasRole reports whether the principal holds the given role for the
// given client. A client absent from "resource_access" grants no roles.
func (c *Claims) HasRole(client, role string) bool {
	access, ok := c.ResourceAccess[client]
	if !ok {
		return false
	}
	for _, r := range access.Roles {
		if r == role {
			return true
		}
	}
	return false
}
