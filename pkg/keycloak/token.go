package keycloak

import (
	"encoding/json"
	"time"
)

// TokenResponse is a successful response from the realm's token endpoint.
//
// The issuance time is stamped locally when the response is received, so
// expiry arithmetic does not depend on the Keycloak server's clock.
type TokenResponse struct {
	// TokenType is the type of the issued token, normally "Bearer".
	TokenType string `json:"token_type"`

	// AccessToken is the issued access token (a signed JWT).
	AccessToken string `json:"access_token"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`

	// RefreshToken is the issued refresh token, if any. Client-credentials
	// grants may or may not include one depending on realm configuration.
	RefreshToken string `json:"refresh_token,omitempty"`

	// RefreshExpiresIn is the refresh token lifetime in seconds. A nil
	// value means the server did not report a lifetime, in which case the
	// refresh token is treated as usable indefinitely.
	RefreshExpiresIn *int64 `json:"refresh_expires_in,omitempty"`

	// issuedAt is the local receipt time of the response.
	issuedAt time.Time
}

// UnmarshalJSON decodes the token endpoint payload and stamps the local
// issuance time.
func (t *TokenResponse) UnmarshalJSON(data []byte) error {
	type alias TokenResponse
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*t = TokenResponse(a)
	t.issuedAt = time.Now()
	return nil
}

// IssuedAt returns the local time at which the response was received.
func (t *TokenResponse) IssuedAt() time.Time {
	return t.issuedAt
}

// accessExpired reports whether the access token's lifetime has fully
// elapsed as of now. A token at exactly its expiry instant is expired.
func (t *TokenResponse) accessExpired(now time.Time) bool {
	expiry := t.issuedAt.Add(time.Duration(t.ExpiresIn) * time.Second)
	return !expiry.After(now)
}

// usableRefreshToken returns the refresh token if it is present and has
// not itself expired as of now, along with true. When the response has no
// refresh token, or the refresh token's reported lifetime has elapsed, it
// returns "" and false. A missing refresh lifetime means the token never
// expires locally.
func (t *TokenResponse) usableRefreshToken(now time.Time) (string, bool) {
	if t.RefreshToken == "" {
		return "", false
	}
	if t.RefreshExpiresIn == nil {
		return t.RefreshToken, true
	}
	expiry := t.issuedAt.Add(time.Duration(*t.RefreshExpiresIn) * time.Second)
	if !expiry.After(now) {
		return "", false
	}
	return t.RefreshToken, true
}
