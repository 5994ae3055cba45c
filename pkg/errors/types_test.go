package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestError_Error(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "error without cause",
			err: &Error{
				Code:    CodeValidation,
				Message: "realm must not be empty",
			},
			want: "VAL_001: realm must not be empty",
		},
		{
			name: "error with cause",
			err: &Error{
				Code:    CodeUnavailableDependency,
				Message: "token endpoint request failed",
				Cause:   errors.New("connection refused"),
			},
			want: "UNAVAIL_002: token endpoint request failed: connection refused",
		},
		{
			name: "error with nested structured cause",
			err: &Error{
				Code:    CodeInternal,
				Message: "operation failed",
				Cause: &Error{
					Code:    CodeTimeout,
					Message: "provider timeout",
				},
			},
			want: "INT_001: operation failed: TIMEOUT_001: provider timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("underlying error")
	err := &Error{
		Code:    CodeInternal,
		Message: "operation failed",
		Cause:   cause,
	}

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause), "errors.Is should find the cause in the error chain")

	errNoCause := &Error{Code: CodeValidation, Message: "invalid input"}
	assert.Nil(t, errNoCause.Unwrap())
}

func TestError_Unwrap_ErrorsAs(t *testing.T) {
	t.Parallel()
	innerErr := &Error{Code: CodeTimeout, Message: "timeout"}
	outerErr := &Error{Code: CodeInternal, Message: "wrapper", Cause: innerErr}

	var target *Error
	require.True(t, errors.As(outerErr, &target), "errors.As should find *Error in chain")
	assert.Equal(t, CodeInternal, target.Code)
}

func TestError_HTTPStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		code Code
		want int
	}{
		{code: CodeValidation, want: http.StatusBadRequest},
		{code: CodeAuthenticationInvalid, want: http.StatusUnauthorized},
		{code: CodeAuthenticationProvider, want: http.StatusUnauthorized},
		{code: CodeAuthorizationDenied, want: http.StatusForbidden},
		{code: CodeInternal, want: http.StatusInternalServerError},
		{code: CodeUnavailableDependency, want: http.StatusServiceUnavailable},
		{code: CodeTimeoutDependency, want: http.StatusGatewayTimeout},
		{code: Code("UNKNOWN_999"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			t.Parallel()
			err := &Error{Code: tt.code, Message: "test"}
			assert.Equal(t, tt.want, err.HTTPStatus())
		})
	}
}

func TestError_GRPCCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		code Code
		want codes.Code
	}{
		{code: CodeValidation, want: codes.InvalidArgument},
		{code: CodeAuthenticationInvalid, want: codes.Unauthenticated},
		{code: CodeAuthorizationDenied, want: codes.PermissionDenied},
		{code: CodeInternal, want: codes.Internal},
		{code: CodeUnavailableDependency, want: codes.Unavailable},
		{code: CodeTimeout, want: codes.DeadlineExceeded},
		{code: Code("UNKNOWN_999"), want: codes.Internal},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			t.Parallel()
			err := &Error{Code: tt.code, Message: "test"}
			assert.Equal(t, tt.want, err.GRPCCode())
		})
	}
}

func TestError_WithDetail_DoesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	original := New(CodeAuthenticationProvider, "rejected")
	enriched := original.WithDetail(DetailProviderError, "invalid_client")

	assert.Nil(t, original.Details)
	assert.Equal(t, "invalid_client", enriched.Details[DetailProviderError])
	assert.Equal(t, original.Code, enriched.Code)
	assert.Equal(t, original.Message, enriched.Message)
}

func TestError_WithDetails_MergesMaps(t *testing.T) {
	t.Parallel()

	err := New(CodeValidation, "bad config").
		WithDetail("field", "realm").
		WithDetails(map[string]any{"field": "client_id", "hint": "set KEYCLOAK_CLIENT_ID"})

	assert.Equal(t, "client_id", err.Details["field"])
	assert.Equal(t, "set KEYCLOAK_CLIENT_ID", err.Details["hint"])
}

func TestError_Format(t *testing.T) {
	t.Parallel()

	err := &Error{
		Code:    CodeAuthenticationProvider,
		Message: "rejected",
		Cause:   errors.New("boom"),
		Details: map[string]any{DetailProviderError: "invalid_client"},
	}

	assert.Equal(t, "AUTH_004: rejected: boom", fmt.Sprintf("%v", err))
	assert.Equal(t, "AUTH_004: rejected: boom", fmt.Sprintf("%s", err))
	assert.Equal(t, `"AUTH_004: rejected: boom"`, fmt.Sprintf("%q", err))

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, `Code: "AUTH_004"`)
	assert.Contains(t, detailed, "invalid_client")
	assert.Contains(t, detailed, "boom")
}
