package keycloak

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ---------------------------------------------------------------------------
// Server interceptors — inbound bearer token enforcement
// ---------------------------------------------------------------------------

// UnaryServerInterceptor returns a gRPC unary server interceptor that
// validates the bearer token of incoming requests.
//
// The interceptor performs the following steps:
//  1. Extracts the "authorization" metadata value (bearer token)
//  2. Validates the token with [Client.DecodeToken]
//  3. Stores the resulting [Claims] and the raw metadata value in the
//     request context
//  4. Passes the enriched context to the handler
//
// If the metadata is missing, malformed, or the token fails validation,
// the interceptor returns a gRPC Unauthenticated error with a generic
// message; the specific cause is logged.
func UnaryServerInterceptor(kc *Client) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		ctx, err := authenticateGRPC(ctx, kc)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor returns a gRPC stream server interceptor that
// validates the bearer token of incoming streams.
//
// It performs the same authentication steps as [UnaryServerInterceptor]
// but wraps the stream to carry the enriched context.
func StreamServerInterceptor(kc *Client) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		ctx, err := authenticateGRPC(ss.Context(), kc)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})
	}
}

// authenticateGRPC validates the bearer token in incoming gRPC metadata
// and enriches the context with the validated claims.
func authenticateGRPC(ctx context.Context, kc *Client) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx, status.Error(codes.Unauthenticated, "missing metadata")
	}

	values := md.Get(HeaderAuthorization)
	if len(values) == 0 || values[0] == "" {
		return ctx, status.Error(codes.Unauthenticated, "missing authorization metadata")
	}
	token := ExtractBearerToken(values[0])
	if token == "" {
		return ctx, status.Error(codes.Unauthenticated, "invalid authorization format")
	}

	claims, err := kc.DecodeToken(ctx, token)
	if err != nil {
		slog.DebugContext(ctx, "keycloak: rejected bearer token",
			slog.String("error", err.Error()),
		)
		return ctx, status.Error(codes.Unauthenticated, "token validation failed")
	}

	ctx = ContextWithClaims(ctx, claims)
	ctx = ContextWithAuthorization(ctx, values[0])
	return ctx, nil
}

// ---------------------------------------------------------------------------
// Client interceptors — outbound service credential injection
// ---------------------------------------------------------------------------

// UnaryClientInterceptor returns a gRPC unary client interceptor that
// authenticates outgoing calls with the service's own access token,
// obtained via [Client.Authenticate].
//
// Authentication failures follow [ClientConfig.RequireToken]: when false
// the failure is logged and the call proceeds without a token; when true
// the error is returned and the call is not made. A context that already
// carries validated claims is forwarded untouched.
func UnaryClientInterceptor(kc *Client) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		ctx, err := attachCredential(ctx, kc)
		if err != nil {
			return err
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor returns a gRPC stream client interceptor that
// authenticates outgoing streams the same way as [UnaryClientInterceptor].
func StreamClientInterceptor(kc *Client) grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		ctx, err := attachCredential(ctx, kc)
		if err != nil {
			return nil, err
		}
		return streamer(ctx, desc, cc, method, opts...)
	}
}

// attachCredential adds the service's bearer token to outgoing gRPC
// metadata, honoring the fail-open/fail-closed policy.
func attachCredential(ctx context.Context, kc *Client) (context.Context, error) {
	if _, ok := ClaimsFromContext(ctx); ok {
		return ctx, nil
	}

	token, err := kc.Authenticate(ctx)
	if err == nil && !validHeaderText(token) {
		err = status.Error(codes.Internal, "issued access token is not valid metadata text")
	}
	if err != nil {
		if kc.Config().Client.RequireToken {
			return ctx, err
		}
		slog.ErrorContext(ctx, "keycloak: failed to authenticate outgoing call, proceeding without token",
			slog.String("error", err.Error()),
		)
		return ctx, nil
	}

	md := metadata.Pairs(HeaderAuthorization, bearerPrefix+token)
	if existing, ok := metadata.FromOutgoingContext(ctx); ok {
		md = metadata.Join(existing, md)
	}
	return metadata.NewOutgoingContext(ctx, md), nil
}

// ---------------------------------------------------------------------------
// Handler helpers
// ---------------------------------------------------------------------------

// RequireClaims returns the validated claims from the context, or a gRPC
// Unauthenticated error if the request was not authenticated. Handlers
// use it when the interceptor chain may not cover every method.
func RequireClaims(ctx context.Context) (*Claims, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "request is not authenticated")
	}
	return claims, nil
}

// RequireAuthorized returns the validated claims from the context if the
// given predicate accepts them. It returns Unauthenticated when the
// request carries no claims and PermissionDenied when the predicate
// rejects them.
//
// Example:
//
//	claims, err := keycloak.RequireAuthorized(ctx, func(c *keycloak.Claims) bool {
//	    return c.HasRealmRole("billing-admin")
//	})
func RequireAuthorized(ctx context.Context, pred func(*Claims) bool) (*Claims, error) {
	claims, err := RequireClaims(ctx)
	if err != nil {
		return nil, err
	}
	if !pred(claims) {
		return nil, status.Error(codes.PermissionDenied, "request is not authorized")
	}
	return claims, nil
}

// wrappedServerStream wraps a grpc.ServerStream to override its Context
// method, so the handler sees the context enriched by the interceptor.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the enriched stream context.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
