package errors

// Code represents a machine-readable error code for categorizing errors.
// Error codes follow the pattern CATEGORY_XXX where CATEGORY is a short
// identifier (e.g., AUTH, VAL, INT) and XXX is a three-digit numeric code.
//
// Error codes are designed to be:
//   - Stable: Codes do not change once assigned
//   - Unique: Each error condition has a distinct code
//   - Searchable: Codes can be used to find documentation and solutions
//   - Machine-readable: Suitable for automated error handling
type Code string

// Error code categories and their ranges:
//
//	VAL_xxx     - Validation errors (400 Bad Request)
//	AUTH_xxx    - Authentication errors (401 Unauthorized)
//	AUTHZ_xxx   - Authorization errors (403 Forbidden)
//	INT_xxx     - Internal errors (500 Internal Server Error)
//	UNAVAIL_xxx - Provider unavailable (503 Service Unavailable)
//	TIMEOUT_xxx - Timeout errors (504 Gateway Timeout)
const (
	// Validation errors (VAL_xxx) - HTTP 400
	// Used when configuration or input fails validation rules.

	// CodeValidation indicates a general validation failure.
	CodeValidation Code = "VAL_001"

	// CodeValidationRequired indicates a required field is missing.
	CodeValidationRequired Code = "VAL_002"

	// CodeValidationFormat indicates a field has an invalid format,
	// for example an auth server URL that cannot be parsed.
	CodeValidationFormat Code = "VAL_003"

	// Authentication errors (AUTH_xxx) - HTTP 401
	// Used when authentication fails or credentials are invalid.

	// CodeAuthentication indicates a general authentication failure.
	CodeAuthentication Code = "AUTH_001"

	// CodeAuthenticationExpired indicates the authentication token has expired.
	CodeAuthenticationExpired Code = "AUTH_002"

	// CodeAuthenticationInvalid indicates a bearer token failed validation.
	// This code is intentionally opaque: signature, expiry, issuer, audience,
	// required-claim, and key-selection failures all collapse to it so that
	// callers cannot probe which specific check failed.
	CodeAuthenticationInvalid Code = "AUTH_003"

	// CodeAuthenticationProvider indicates the identity provider was
	// reachable but rejected a grant request with a structured error payload.
	// The provider's error code and optional description are available in
	// the error's Details map under [DetailProviderError] and
	// [DetailProviderDescription].
	CodeAuthenticationProvider Code = "AUTH_004"

	// Authorization errors (AUTHZ_xxx) - HTTP 403
	// Used when the authenticated identity lacks required permissions.

	// CodeAuthorization indicates a general authorization failure.
	CodeAuthorization Code = "AUTHZ_001"

	// CodeAuthorizationDenied indicates access to a resource is denied.
	CodeAuthorizationDenied Code = "AUTHZ_002"

	// Internal errors (INT_xxx) - HTTP 500
	// Used for unexpected internal failures.

	// CodeInternal indicates a general internal error.
	CodeInternal Code = "INT_001"

	// CodeInternalConfiguration indicates a configuration error.
	CodeInternalConfiguration Code = "INT_002"

	// Unavailable errors (UNAVAIL_xxx) - HTTP 503
	// Used when the identity provider cannot be reached or returns an
	// unparseable response.

	// CodeUnavailable indicates a general service unavailable error.
	CodeUnavailable Code = "UNAVAIL_001"

	// CodeUnavailableDependency indicates a transport-level failure reaching
	// the identity provider (network error, or a response body that parses
	// as neither a token nor a provider error payload).
	CodeUnavailableDependency Code = "UNAVAIL_002"

	// Timeout errors (TIMEOUT_xxx) - HTTP 504
	// Used when a provider call exceeds its time limit.

	// CodeTimeout indicates a general timeout error.
	CodeTimeout Code = "TIMEOUT_001"

	// CodeTimeoutDependency indicates a call to the identity provider
	// timed out.
	CodeTimeoutDependency Code = "TIMEOUT_002"
)

// Detail map keys used by SDK-constructed errors.
const (
	// DetailProviderError is the Details key holding the error code
	// reported by the identity provider (the "error" field of an OAuth2
	// error response, e.g., "invalid_client").
	DetailProviderError = "provider_error"

	// DetailProviderDescription is the Details key holding the optional
	// human-readable description reported by the identity provider (the
	// "error_description" field of an OAuth2 error response).
	DetailProviderDescription = "provider_error_description"
)

// String returns the string representation of the error code.
func (c Code) String() string {
	return string(c)
}

// Category returns the category prefix of the error code (e.g., "VAL", "AUTH").
func (c Code) Category() string {
	s := string(c)
	for i, r := range s {
		if r == '_' {
			return s[:i]
		}
	}
	return s
}
