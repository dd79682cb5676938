package envelope

// Error codes carried in the `error` field of failure responses.
const (
	// Validation errors
	CodeMissingField     = "missing_field"
	CodeInvalidEnum      = "invalid_enum"
	CodeInvalidStructure = "invalid_structure"
	CodeOutOfRange       = "out_of_range"
	CodeInvalidRequest   = "invalid_request"

	// Authentication errors
	CodeUnauthorized           = "unauthorized"
	CodeForbidden              = "forbidden"
	CodeInvalidToken           = "invalid_token"
	CodeAuthenticationRequired = "authentication_required"
	CodeRegistrationFailed     = "registration_failed"
	CodeLoginFailed            = "login_failed"

	// OAuth errors
	CodeOAuthNotConfigured  = "oauth_not_configured"
	CodeOAuthStartFailed    = "oauth_start_failed"
	CodeOAuthCallbackFailed = "oauth_callback_failed"
	CodeOAuthMissingCode    = "missing_code"
	CodeOAuthInvalidState   = "invalid_state"

	// Resource errors
	CodeNotFound      = "not_found"
	CodeAlreadyExists = "already_exists"

	// AI usage errors
	CodeQuotaExceeded = "quota_exceeded"
	CodeUpstreamError = "upstream_error"

	// Server errors
	CodeInternalError = "internal_error"
)
