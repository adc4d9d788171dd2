package httputil

// Machine-readable error codes returned alongside human-readable messages.
// Frontends branch on these instead of parsing message text.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeCooldownActive     = "COOLDOWN_ACTIVE"

	// Signup flow
	CodeMissingFields      = "MISSING_FIELDS"
	CodeInvalidEmailFormat = "INVALID_EMAIL_FORMAT"
	CodeInvalidPhoneFormat = "INVALID_PHONE_FORMAT"
	CodePasswordTooShort   = "PASSWORD_TOO_SHORT"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeSessionExpired     = "SESSION_EXPIRED"
	CodeInvalidOTP         = "INVALID_OTP"
	CodeTooManyOTPAttempts = "TOO_MANY_OTP_ATTEMPTS"
	CodeSessionNotVerified = "SESSION_NOT_VERIFIED"
	CodeDeliveryFailure    = "DELIVERY_FAILURE"

	// Login / tokens
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeEmailNotVerified      = "EMAIL_NOT_VERIFIED"
	CodeRefreshTokenRequired  = "REFRESH_TOKEN_REQUIRED"
	CodeInvalidRefreshToken   = "INVALID_REFRESH_TOKEN"
	CodeInvalidAuthHeader     = "INVALID_AUTH_HEADER"
	CodeMissingAuth           = "MISSING_AUTH"
	CodeTokenExpired          = "TOKEN_EXPIRED"
	CodeInvalidToken          = "INVALID_TOKEN"
	CodeInvalidTokenAccountID = "INVALID_TOKEN_ACCOUNT_ID"
)
