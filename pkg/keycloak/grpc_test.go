package keycloak

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// incomingMD returns a context carrying incoming gRPC metadata with the
// given authorization value.
func incomingMD(auth string) context.Context {
	md := metadata.New(nil)
	if auth != "" {
		md.Set(HeaderAuthorization, auth)
	}
	return metadata.NewIncomingContext(context.Background(), md)
}

// requireStatusCode asserts that err is a gRPC status error with the
// given code.
func requireStatusCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "expected a gRPC status error, got %T: %v", err, err)
	require.Equal(t, code, st.Code())
}

// ---------------------------------------------------------------------------
// Server interceptors
// ---------------------------------------------------------------------------

func TestUnaryServerInterceptor_InjectsClaims(t *testing.T) {
	t.Parallel()

	stub := newKeycloakStub(t)
	kc := stub.client(t)
	interceptor := UnaryServerInterceptor(kc)

	token := realmToken(t, stub, nil)
	var gotClaims *Claims
	resp, err := interceptor(incomingMD("Bearer "+token), "request", &grpc.UnaryServerInfo{},
		func(ctx context.Context, req any) (any, error) {
			gotClaims, _ = ClaimsFromContext(ctx)
			header, ok := AuthorizationFromContext(ctx)
			assert.True(t, ok)
			assert.Equal(t, "Bearer "+token, header)
			return "response", nil
		})

	require.NoError(t, err)
	assert.Equal(t, "response", resp)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "service-account-billing", gotClaims.Username)
}

func TestUnaryServerInterceptor_RejectsUnauthenticatedCalls(t *testing.T) {
	t.Parallel()

	stub := newKeycloakStub(t)
	kc := stub.client(t)
	interceptor := UnaryServerInterceptor(kc)

	handler := func(ctx context.Context, req any) (any, error) {
		t.Error("handler must not run for unauthenticated calls")
		return nil, nil
	}

	tests := []struct {
		name string
		ctx  context.Context
	}{
		{name: "no metadata", ctx: context.Background()},
		{name: "no authorization value", ctx: incomingMD("")},
		{name: "not a bearer token", ctx: incomingMD("Basic dXNlcjpwYXNz")},
		{name: "invalid token", ctx: incomingMD("Bearer not.a.jwt")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := interceptor(tt.ctx, "request", &grpc.UnaryServerInfo{}, handler)
			requireStatusCode(t, err, codes.Unauthenticated)
		})
	}
}

func TestStreamServerInterceptor_WrapsStreamContext(t *testing.T) {
	t.Parallel()

	stub := newKeycloakStub(t)
	kc := stub.client(t)
	interceptor := StreamServerInterceptor(kc)

	token := realmToken(t, stub, nil)
	stream := &fakeServerStream{ctx: incomingMD("Bearer " + token)}

	err := interceptor("service", stream, &grpc.StreamServerInfo{},
		func(srv any, ss grpc.ServerStream) error {
			claims, ok := ClaimsFromContext(ss.Context())
			require.True(t, ok)
			assert.Equal(t, "service-account-billing", claims.Username)
			return nil
		})
	require.NoError(t, err)

	// The original stream context is untouched.
	_, ok := ClaimsFromContext(stream.ctx)
	assert.False(t, ok)
}

func TestStreamServerInterceptor_RejectsInvalidToken(t *testing.T) {
	t.Parallel()

	stub := newKeycloakStub(t)
	kc := stub.client(t)
	interceptor := StreamServerInterceptor(kc)

	stream := &fakeServerStream{ctx: incomingMD("Bearer not.a.jwt")}
	err := interceptor("service", stream, &grpc.StreamServerInfo{},
		func(srv any, ss grpc.ServerStream) error {
			t.Error("handler must not run for unauthenticated streams")
			return nil
		})
	requireStatusCode(t, err, codes.Unauthenticated)
}

// ---------------------------------------------------------------------------
// Client interceptors
// ---------------------------------------------------------------------------

func TestUnaryClientInterceptor_AttachesCredential(t *testing.T) {
	t.Parallel()

	stub := newKeycloakStub(t)
	kc := stub.client(t)
	interceptor := UnaryClientInterceptor(kc)

	var gotAuth []string
	err := interceptor(context.Background(), "/billing.v1.Invoices/List", "req", "reply", nil,
		func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
			md, ok := metadata.FromOutgoingContext(ctx)
			require.True(t, ok)
			gotAuth = md.Get(HeaderAuthorization)
			return nil
		})

	require.NoError(t, err)
	require.Len(t, gotAuth, 1)
	assert.Equal(t, "Bearer access-1", gotAuth[0])
}

func TestUnaryClientInterceptor_MergesExistingMetadata(t *testing.T) {
	t.Parallel()

	stub := newKeycloakStub(t)
	kc := stub.client(t)
	interceptor := UnaryClientInterceptor(kc)

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-request-id", "req-42")
	err := interceptor(ctx, "/billing.v1.Invoices/List", "req", "reply", nil,
		func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
			md, ok := metadata.FromOutgoingContext(ctx)
			require.True(t, ok)
			assert.Equal(t, []string{"req-42"}, md.Get("x-request-id"))
			assert.Len(t, md.Get(HeaderAuthorization), 1)
			return nil
		})
	require.NoError(t, err)
}

func TestUnaryClientInterceptor_FailOpenProceedsWithoutToken(t *testing.T) {
	t.Parallel()

	stub := newKeycloakStub(t)
	stub.enqueue(tokenReply{status: 401, body: map[string]any{"error": "invalid_client"}})
	kc := stub.client(t)
	interceptor := UnaryClientInterceptor(kc)

	invoked := false
	err := interceptor(context.Background(), "/billing.v1.Invoices/List", "req", "reply", nil,
		func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
			invoked = true
			md, _ := metadata.FromOutgoingContext(ctx)
			assert.Empty(t, md.Get(HeaderAuthorization))
			return nil
		})

	require.NoError(t, err)
	assert.True(t, invoked)
}

func TestStreamClientInterceptor_RequireTokenFailsClosed(t *testing.T) {
	t.Parallel()

	stub := newKeycloakStub(t)
	stub.enqueue(tokenReply{status: 401, body: map[string]any{"error": "invalid_client"}})
	cfg := stub.config()
	cfg.Client.RequireToken = true
	kc, err := New(context.Background(), cfg)
	require.NoError(t, err)

	interceptor := StreamClientInterceptor(kc)
	_, streamErr := interceptor(context.Background(), &grpc.StreamDesc{}, nil, "/billing.v1.Invoices/Watch",
		func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
			t.Error("streamer must not run when authentication fails closed")
			return nil, nil
		})
	require.Error(t, streamErr)
}

// ---------------------------------------------------------------------------
// Handler helpers
// ---------------------------------------------------------------------------

func TestRequireClaims(t *testing.T) {
	t.Parallel()

	claims := &Claims{Username: "caller"}
	got, err := RequireClaims(ContextWithClaims(context.Background(), claims))
	require.NoError(t, err)
	assert.Same(t, claims, got)

	_, err = RequireClaims(context.Background())
	requireStatusCode(t, err, codes.Unauthenticated)
}

func TestRequireAuthorized(t *testing.T) {
	t.Parallel()

	claims := &Claims{RealmAccess: RolesClaim{Roles: []string{"billing-admin"}}}
	ctx := ContextWithClaims(context.Background(), claims)

	got, err := RequireAuthorized(ctx, func(c *Claims) bool { return c.HasRealmRole("billing-admin") })
	require.NoError(t, err)
	assert.Same(t, claims, got)

	_, err = RequireAuthorized(ctx, func(c *Claims) bool { return c.HasRealmRole("auditor") })
	requireStatusCode(t, err, codes.PermissionDenied)

	_, err = RequireAuthorized(context.Background(), func(*Claims) bool { return true })
	requireStatusCode(t, err, codes.Unauthenticated)
}

// fakeServerStream is a minimal grpc.ServerStream carrying a fixed
// context.
type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeServerStream) Context() context.Context {
	return s.ctx
}
