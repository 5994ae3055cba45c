package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsError(t *testing.T) {
	t.Parallel()

	direct := New(CodeValidation, "bad input")
	e, ok := AsError(direct)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, e.Code)

	wrapped := fmt.Errorf("outer: %w", direct)
	e, ok = AsError(wrapped)
	require.True(t, ok, "AsError should traverse wrapped chains")
	assert.Equal(t, CodeValidation, e.Code)

	_, ok = AsError(errors.New("plain error"))
	assert.False(t, ok)

	_, ok = AsError(nil)
	assert.False(t, ok)
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CodeTimeout, GetCode(New(CodeTimeout, "slow")))
	assert.Equal(t, Code(""), GetCode(errors.New("plain error")))
	assert.Equal(t, Code(""), GetCode(nil))
}

func TestHasCode(t *testing.T) {
	t.Parallel()

	err := InvalidToken()
	assert.True(t, HasCode(err, CodeAuthenticationInvalid))
	assert.False(t, HasCode(err, CodeAuthentication))
	assert.False(t, HasCode(nil, CodeAuthenticationInvalid))
}

func TestProviderDetails(t *testing.T) {
	t.Parallel()

	err := ProviderError("invalid_grant", "Session not active")
	code, desc, ok := ProviderDetails(err)
	require.True(t, ok)
	assert.Equal(t, "invalid_grant", code)
	assert.Equal(t, "Session not active", desc)

	// Description is optional.
	err = ProviderError("invalid_client", "")
	code, desc, ok = ProviderDetails(err)
	require.True(t, ok)
	assert.Equal(t, "invalid_client", code)
	assert.Empty(t, desc)

	// Errors without provider details report false.
	_, _, ok = ProviderDetails(New(CodeAuthentication, "generic"))
	assert.False(t, ok)
	_, _, ok = ProviderDetails(errors.New("plain error"))
	assert.False(t, ok)
}

func TestCategoryPredicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		pred func(error) bool
		want bool
	}{
		{name: "validation matches", err: New(CodeValidationRequired, "x"), pred: IsValidation, want: true},
		{name: "authentication matches AUTH_003", err: InvalidToken(), pred: IsAuthentication, want: true},
		{name: "authentication matches AUTH_004", err: ProviderError("invalid_client", ""), pred: IsAuthentication, want: true},
		{name: "authorization is not authentication", err: Authorization("denied"), pred: IsAuthentication, want: false},
		{name: "authorization matches", err: Authorization("denied"), pred: IsAuthorization, want: true},
		{name: "internal matches", err: Internal("boom"), pred: IsInternal, want: true},
		{name: "unavailable matches", err: New(CodeUnavailableDependency, "down"), pred: IsUnavailable, want: true},
		{name: "unavailable is not authentication", err: New(CodeUnavailableDependency, "down"), pred: IsAuthentication, want: false},
		{name: "timeout matches", err: New(CodeTimeoutDependency, "slow"), pred: IsTimeout, want: true},
		{name: "plain error matches nothing", err: errors.New("plain"), pred: IsValidation, want: false},
		{name: "nil matches nothing", err: nil, pred: IsTimeout, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.pred(tt.err))
		})
	}
}
