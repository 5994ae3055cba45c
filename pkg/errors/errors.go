// Package errors provides standardized error types and error handling
// utilities for the keycloak-go SDK. It defines the error categories the SDK
// surfaces to callers, machine-readable error codes, and helper functions for
// creating, wrapping, and inspecting errors.
//
// # Error Categories
//
// The SDK distinguishes the failure modes that matter to a caller of an
// identity client:
//
//   - Validation errors: invalid configuration or malformed input
//   - Authentication errors: the provider rejected credentials, a token
//     expired, or a presented token failed validation
//   - Authorization errors: valid identity, insufficient permissions
//   - Internal errors: unexpected SDK failures
//   - Unavailable errors: the identity provider could not be reached
//   - Timeout errors: a provider call exceeded its deadline
//
// Two authentication codes deserve special mention. CodeAuthenticationProvider
// marks a structured rejection from the token endpoint (the provider was
// reachable but refused the grant); the provider's error code and description
// are carried in the Details map under [DetailProviderError] and
// [DetailProviderDescription]. CodeAuthenticationInvalid marks a bearer token
// that failed validation; it is deliberately opaque and never reveals which
// check failed.
//
// # Error Codes
//
// Each error includes a machine-readable code (e.g., "AUTH_003") usable for
// error tracking, alerting, and client-side handling. Codes follow the
// pattern CATEGORY_XXX.
//
// # Usage
//
// Create a new error:
//
//	err := errors.New(errors.CodeValidation, "realm must not be empty")
//
// Wrap an existing error:
//
//	err := errors.Wrap(err, errors.CodeUnavailableDependency, "token endpoint request failed")
//
// Check error category:
//
//	if errors.IsAuthentication(err) {
//	    // respond 401 / codes.Unauthenticated
//	}
//
// Extract details for logging:
//
//	if e, ok := errors.AsError(err); ok {
//	    logger.Error("grant failed", "code", e.Code, "message", e.Message)
//	}
package errors
