package keycloak

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudience_UnmarshalJSON_AcceptsStringAndArray(t *testing.T) {
	t.Parallel()

	var single Audience
	require.NoError(t, json.Unmarshal([]byte(`"billing-service"`), &single))
	assert.Equal(t, Audience{"billing-service"}, single)

	var many Audience
	require.NoError(t, json.Unmarshal([]byte(`["billing-service","reporting-service"]`), &many))
	assert.Equal(t, Audience{"billing-service", "reporting-service"}, many)

	var bad Audience
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func TestAudience_Contains(t *testing.T) {
	t.Parallel()

	aud := Audience{"billing-service", "reporting-service"}
	assert.True(t, aud.Contains("billing-service"))
	assert.False(t, aud.Contains("other-service"))
	assert.False(t, Audience(nil).Contains("billing-service"))
}

func TestClaims_UnmarshalJSON_DecodesKeycloakPayload(t *testing.T) {
	t.Parallel()

	sub := uuid.New()
	jti := uuid.New()
	payload := `{
		"iss": "https://id.example.com/realms/demo",
		"sub": "` + sub.String() + `",
		"aud": "billing-service",
		"exp": 1900000000,
		"iat": 1800000000,
		"jti": "` + jti.String() + `",
		"preferred_username": "service-account-billing",
		"realm_access": {"roles": ["offline_access"]},
		"resource_access": {"billing-service": {"roles": ["invoice.read"]}}
	}`

	var claims Claims
	require.NoError(t, json.Unmarshal([]byte(payload), &claims))

	assert.Equal(t, "https://id.example.com/realms/demo", claims.Issuer)
	assert.Equal(t, sub, claims.Subject)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, Audience{"billing-service"}, claims.Audience)
	assert.Equal(t, "service-account-billing", claims.Username)
	assert.Equal(t, []string{"offline_access"}, claims.RealmAccess.Roles)
	require.NotNil(t, claims.ExpiresAt)
	assert.Equal(t, int64(1900000000), claims.ExpiresAt.Unix())
}

func TestClaims_IsSubject(t *testing.T) {
	t.Parallel()

	sub := uuid.New()
	claims := &Claims{Subject: sub}

	assert.True(t, claims.IsSubject(sub.String()))
	assert.False(t, claims.IsSubject(uuid.NewString()))
	assert.False(t, claims.IsSubject("not-a-uuid"))
	assert.False(t, claims.IsSubject(""))
}

func TestClaims_IsUser(t *testing.T) {
	t.Parallel()

	sub := uuid.New()
	claims := &Claims{Subject: sub}

	assert.True(t, claims.IsUser(sub))
	assert.False(t, claims.IsUser(uuid.New()))
}

func TestClaims_HasRealmRole(t *testing.T) {
	t.Parallel()

	claims := &Claims{RealmAccess: RolesClaim{Roles: []string{"admin", "auditor"}}}

	assert.True(t, claims.HasRealmRole("admin"))
	assert.False(t, claims.HasRealmRole("operator"))

	empty := &Claims{}
	assert.False(t, empty.HasRealmRole("admin"))
}

func TestClaims_HasRole(t *testing.T) {
	t.Parallel()

	claims := &Claims{
		ResourceAccess: map[string]RolesClaim{
			"billing-service": {Roles: []string{"invoice.read", "invoice.write"}},
		},
	}

	assert.True(t, claims.HasRole("billing-service", "invoice.read"))
	assert.False(t, claims.HasRole("billing-service", "invoice.delete"))

	// A client absent from resource_access grants no roles.
	assert.False(t, claims.HasRole("reporting-service", "invoice.read"))

	empty := &Claims{}
	assert.False(t, empty.HasRole("billing-service", "invoice.read"))
}

func TestClaims_JWTClaimsInterface(t *testing.T) {
	t.Parallel()

	sub := uuid.New()
	claims := &Claims{
		Issuer:   "https://id.example.com/realms/demo",
		Subject:  sub,
		Audience: Audience{"billing-service"},
	}

	iss, err := claims.GetIssuer()
	require.NoError(t, err)
	assert.Equal(t, "https://id.example.com/realms/demo", iss)

	gotSub, err := claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, sub.String(), gotSub)

	aud, err := claims.GetAudience()
	require.NoError(t, err)
	assert.Equal(t, []string{"billing-service"}, []string(aud))

	nbf, err := claims.GetNotBefore()
	require.NoError(t, err)
	assert.Nil(t, nbf)
}
