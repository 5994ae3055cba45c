package keycloak

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	sserr "github.com/StricklySoft/keycloak-go/pkg/errors"
)

// maxTokenSize is the maximum accepted size for a JWT token string (8 KB).
// Tokens larger than this are rejected to prevent resource exhaustion.
const maxTokenSize = 8192

// ---------------------------------------------------------------------------
// JWKS — JSON Web Key Set as served by the realm's certs endpoint
// ---------------------------------------------------------------------------

// JWKS is a JSON Web Key Set as returned by the realm's certs endpoint.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK is a single key in a JWKS response. Only the fields needed for RSA
// and EC key reconstruction are included.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	// RSA fields
	N string `json:"n"`
	E string `json:"e"`
	// EC fields
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

// parseRSAPublicKey constructs an *rsa.PublicKey from base64url-encoded
// modulus (n) and exponent (e) values.
func parseRSAPublicKey(nBase64, eBase64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nBase64)
	if err != nil {
		return nil, fmt.Errorf("keycloak: failed to decode RSA modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eBase64)
	if err != nil {
		return nil, fmt.Errorf("keycloak: failed to decode RSA exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)

	return &rsa.PublicKey{
		N: n,
		E: int(e.Int64()),
	}, nil
}

// parseECPublicKey constructs an *ecdsa.PublicKey from a curve name and
// base64url-encoded x and y coordinates.
func parseECPublicKey(crv, xBase64, yBase64 string) (*ecdsa.PublicKey, error) {
	var curve elliptic.Curve
	switch crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	default:
		return nil, fmt.Errorf("keycloak: unsupported EC curve %q", crv)
	}

	xBytes, err := base64.RawURLEncoding.DecodeString(xBase64)
	if err != nil {
		return nil, fmt.Errorf("keycloak: failed to decode EC x coordinate: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(yBase64)
	if err != nil {
		return nil, fmt.Errorf("keycloak: failed to decode EC y coordinate: %w", err)
	}

	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}

// ---------------------------------------------------------------------------
// Decoder — validates access tokens against the realm's signing keys
// ---------------------------------------------------------------------------

// signingKey is a realm public key prepared for verification.
type signingKey struct {
	kid    string
	method jwt.SigningMethod
	key    any // *rsa.PublicKey or *ecdsa.PublicKey
}

// requiredClaims are the claim names every accepted token must carry.
var requiredClaims = []string{
	"iss",
	"sub",
	"aud",
	"exp",
	"iat",
	"jti",
	"preferred_username",
	"realm_access",
	"resource_access",
}

// Decoder validates Keycloak access tokens against a fixed set of realm
// signing keys. It checks the signature, expiration, issuance time,
// issuer, audience, and the presence of all required claims.
//
// Keys are selected by the token header's "kid" value, with one
// exception: when the Decoder holds exactly one key, that key is used
// regardless of the header. With two or more keys an exact kid match is
// required.
//
// All validation failures are reported as an opaque "invalid token" error
// (code AUTH_003) so that callers cannot distinguish which check failed;
// the specific cause is logged at debug level.
//
// Decoder is immutable after construction and safe for concurrent use.
type Decoder struct {
	keys      []signingKey
	issuers   []string
	audiences []string
	leeway    time.Duration
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewDecoder builds a Decoder from a JWKS and the token validation
// configuration. Keys with an unrecognized signature algorithm or
// malformed key material are skipped with a warning; an empty resulting
// key set is allowed and causes every validation to fail.
//
// The issuers and audiences lists must be the fully resolved accepted
// values (see [Config.Token] for how defaults are applied).
func NewDecoder(jwks JWKS, issuers, audiences []string, leeway time.Duration) *Decoder {
	logger := slog.Default().With(slog.String("component", "keycloak.decoder"))

	keys := make([]signingKey, 0, len(jwks.Keys))
	for _, k := range jwks.Keys {
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		method := jwt.GetSigningMethod(k.Alg)
		if method == nil {
			logger.Warn("skipping JWKS key with unrecognized algorithm",
				slog.String("kid", k.Kid),
				slog.String("alg", k.Alg),
			)
			continue
		}

		var (
			key any
			err error
		)
		switch k.Kty {
		case "RSA":
			key, err = parseRSAPublicKey(k.N, k.E)
		case "EC":
			key, err = parseECPublicKey(k.Crv, k.X, k.Y)
		default:
			err = fmt.Errorf("keycloak: unsupported key type %q", k.Kty)
		}
		if err != nil {
			logger.Warn("skipping malformed JWKS key",
				slog.String("kid", k.Kid),
				slog.String("error", err.Error()),
			)
			continue
		}

		keys = append(keys, signingKey{kid: k.Kid, method: method, key: key})
	}

	return &Decoder{
		keys:      keys,
		issuers:   issuers,
		audiences: audiences,
		leeway:    leeway,
		tracer:    otel.Tracer(tracerName),
		logger:    logger,
	}
}

// Decode verifies the given token string and returns its claims. It
// returns an opaque *[sserr.Error] with code AUTH_003 on any validation
// failure.
func (d *Decoder) Decode(ctx context.Context, tokenStr string) (*Claims, error) {
	_, span := d.tracer.Start(ctx, "keycloak.Decode")
	defer span.End()
	span.SetAttributes(attribute.Int("keycloak.key_count", len(d.keys)))

	claims, err := d.decode(tokenStr)
	if err != nil {
		// Log the specific cause; return only the opaque error.
		d.logger.Debug("token validation failed", slog.String("error", err.Error()))
		opaque := sserr.InvalidToken()
		span.RecordError(opaque)
		span.SetStatus(otelcodes.Error, opaque.Error())
		return nil, opaque
	}
	return claims, nil
}

func (d *Decoder) decode(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, fmt.Errorf("keycloak: token must not be empty")
	}
	if len(tokenStr) > maxTokenSize {
		return nil, fmt.Errorf("keycloak: token exceeds maximum size")
	}
	if len(d.keys) == 0 {
		return nil, fmt.Errorf("keycloak: no signing keys available")
	}

	key, err := d.selectKey(tokenStr)
	if err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{key.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(d.leeway),
	)

	var claims Claims
	token, err := parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return key.key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("keycloak: token is not valid")
	}

	if err := d.checkIssuer(claims.Issuer); err != nil {
		return nil, err
	}
	if err := d.checkAudience(claims.Audience); err != nil {
		return nil, err
	}
	if err := checkRequiredClaims(tokenStr); err != nil {
		return nil, err
	}

	return &claims, nil
}

// selectKey chooses the verification key for a token. A single-key
// Decoder uses its key unconditionally; otherwise the token header's
// "kid" must exactly match one of the held keys.
func (d *Decoder) selectKey(tokenStr string) (signingKey, error) {
	if len(d.keys) == 1 {
		return d.keys[0], nil
	}

	parser := jwt.NewParser()
	unverified, _, err := parser.ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return signingKey{}, fmt.Errorf("keycloak: token is malformed: %w", err)
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return signingKey{}, fmt.Errorf("keycloak: token header has no kid")
	}
	for _, k := range d.keys {
		if k.kid == kid {
			return k, nil
		}
	}
	return signingKey{}, fmt.Errorf("keycloak: no signing key matches kid %q", kid)
}

func (d *Decoder) checkIssuer(iss string) error {
	for _, accepted := range d.issuers {
		if iss == accepted {
			return nil
		}
	}
	return fmt.Errorf("keycloak: issuer %q is not accepted", iss)
}

func (d *Decoder) checkAudience(aud Audience) error {
	for _, accepted := range d.audiences {
		if aud.Contains(accepted) {
			return nil
		}
	}
	return fmt.Errorf("keycloak: audience %v is not accepted", []string(aud))
}

// checkRequiredClaims verifies that every required claim name is present
// in the token payload. Struct decoding cannot distinguish an absent
// claim from its zero value, so the payload segment is re-decoded into a
// raw key map.
func checkRequiredClaims(tokenStr string) error {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return fmt.Errorf("keycloak: token is not a compact JWT")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return fmt.Errorf("keycloak: failed to decode token payload: %w", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return fmt.Errorf("keycloak: failed to parse token payload: %w", err)
	}
	for _, name := range requiredClaims {
		if _, ok := raw[name]; !ok {
			return fmt.Errorf("keycloak: required claim %q is missing", name)
		}
	}
	return nil
}
