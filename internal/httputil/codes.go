package httputil

// Machine-readable error codes returned alongside error messages so API
// clients can branch on failures without parsing human-readable text.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeNameRequired       = "name_required"
	CodeEmailRequired      = "email_required"
	CodeInvalidEmailFormat = "invalid_email_format"
	CodePasswordRequired   = "password_required"
	CodePasswordTooShort   = "password_too_short"
	CodeInvalidRole        = "invalid_role"
	CodeEmailAlreadyExists = "email_already_exists"
	CodeInvalidCredentials = "invalid_credentials"
	CodeInvalidAuthHeader  = "invalid_auth_header"
	CodeMissingAuth        = "missing_auth"
	CodeTokenExpired       = "token_expired"
	CodeInvalidToken       = "invalid_token"
	CodeIdentityNotFound   = "identity_not_found"
	CodeUserNotFound       = "user_not_found"
	CodeStorageUnavailable = "storage_unavailable"
	CodeInternalError      = "internal_error"
)
