package keycloak

import "net/url"

// Grant is an OAuth2 grant that can be exchanged for credentials at the
// realm's token endpoint via [Client.LoginClient]. The set of grants is
// closed: only [ClientCredentialsGrant] and [RefreshTokenGrant] implement
// it.
type Grant interface {
	// Values renders the grant as the form body of a token request.
	Values() url.Values

	grant()
}

// ClientCredentialsGrant requests credentials using the service's own
// client id and secret (the OAuth2 client_credentials grant type).
type ClientCredentialsGrant struct {
	// ID is the client id of the service's client registration.
	ID string

	// Secret is the client secret.
	Secret Secret
}

// Values renders the grant as a client_credentials token request body.
func (g ClientCredentialsGrant) Values() url.Values {
	return url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {g.ID},
		"client_secret": {g.Secret.Value()},
	}
}

func (ClientCredentialsGrant) grant() {}

// RefreshTokenGrant requests fresh credentials using a previously issued
// refresh token (the OAuth2 refresh_token grant type).
type RefreshTokenGrant struct {
	// RefreshToken is the refresh token from a prior token response.
	RefreshToken string
}

// Values renders the grant as a refresh_token token request body.
func (g RefreshTokenGrant) Values() url.Values {
	return url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {g.RefreshToken},
	}
}

func (RefreshTokenGrant) grant() {}

var (
	_ Grant = ClientCredentialsGrant{}
	_ Grant = RefreshTokenGrant{}
)
