package errors

import (
	"fmt"
)

// New creates a new Error with the specified code and message.
// Use this for creating errors without an underlying cause.
//
// Example:
//
//	err := errors.New(errors.CodeValidation, "client id is required")
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with the specified code and formatted message.
// Use this for creating errors with dynamic content in the message.
//
// Example:
//
//	err := errors.Newf(errors.CodeValidationFormat, "cannot parse auth server URL %q", raw)
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
// The wrapped error becomes the Cause of the new error.
// If err is nil, Wrap returns nil.
//
// Example:
//
//	resp, err := httpClient.Do(req)
//	if err != nil {
//	    return errors.Wrap(err, errors.CodeUnavailableDependency, "token endpoint request failed")
//	}
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with a formatted message.
// The wrapped error becomes the Cause of the new error.
// If err is nil, Wrapf returns nil.
//
// Example:
//
//	err := errors.Wrapf(err, errors.CodeUnavailableDependency, "fetching JWKS from %s", url)
func Wrapf(err error, code Code, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// Validation creates a new validation error.
// This is a convenience function equivalent to New(CodeValidation, message).
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Validationf creates a new validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return Newf(CodeValidation, format, args...)
}

// Authentication creates a new general authentication error.
// This is a convenience function equivalent to New(CodeAuthentication, message).
func Authentication(message string) *Error {
	return New(CodeAuthentication, message)
}

// InvalidToken creates the opaque token validation error surfaced by the
// decoder. Every validation failure path produces this same error so that
// callers cannot distinguish which check failed; the specific cause is
// logged internally instead of being attached here.
func InvalidToken() *Error {
	return New(CodeAuthenticationInvalid, "invalid token")
}

// ProviderError creates an authentication error for a structured rejection
// from the identity provider's token endpoint. The provider-reported error
// code and optional description are recorded in the Details map under
// [DetailProviderError] and [DetailProviderDescription].
//
// Example:
//
//	// token endpoint returned {"error":"invalid_client","error_description":"..."}
//	return errors.ProviderError("invalid_client", "Invalid client credentials")
func ProviderError(code, description string) *Error {
	e := New(CodeAuthenticationProvider, "identity provider rejected the grant request")
	e = e.WithDetail(DetailProviderError, code)
	if description != "" {
		e = e.WithDetail(DetailProviderDescription, description)
	}
	return e
}

// Authorization creates a new authorization error.
// This is a convenience function equivalent to New(CodeAuthorizationDenied, message).
func Authorization(message string) *Error {
	return New(CodeAuthorizationDenied, message)
}

// Internal creates a new internal error.
// This is a convenience function equivalent to New(CodeInternal, message).
func Internal(message string) *Error {
	return New(CodeInternal, message)
}

// Internalf creates a new internal error with a formatted message.
func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

// Unavailable creates a new unavailable error.
// This is a convenience function equivalent to New(CodeUnavailable, message).
func Unavailable(message string) *Error {
	return New(CodeUnavailable, message)
}

// Timeout creates a new timeout error.
// This is a convenience function equivalent to New(CodeTimeout, message).
func Timeout(message string) *Error {
	return New(CodeTimeout, message)
}
