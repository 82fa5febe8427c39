package auth

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// Stable client-facing text codes. The HTTP layer keys its user-visible
// messages off these, so they are part of the API contract.
const (
	TextCodeValidationFailed      = "validation_failed"
	TextCodeUsernameTaken         = "username_taken"
	TextCodeEmailTaken            = "email_taken"
	TextCodeMissingToken          = "missing_token"
	TextCodeTokenExpired          = "token_expired"
	TextCodeInvalidToken          = "invalid_token"
	TextCodeInvalidPayload        = "invalid_payload"
	TextCodeInvalidCreds          = "invalid_credentials"
	TextCodeTooManyAttempts       = "too_many_attempts"
	TextCodeInvalidCredentialMode = "invalid_credential_mode"
)

// ErrUsernameTaken is returned when a verified account already claims
// the submitted username.
var ErrUsernameTaken = goerrors.New("username is already taken", goerrors.CategoryConflict).
	WithTextCode(TextCodeUsernameTaken).
	WithCode(goerrors.CodeConflict)

// ErrEmailTaken is returned when a verified account already claims the
// submitted e-mail address.
var ErrEmailTaken = goerrors.New("email is already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

// ErrMissingToken is returned when a verification request carries no token.
var ErrMissingToken = goerrors.New("token not provided", goerrors.CategoryBadInput).
	WithTextCode(TextCodeMissingToken).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned for tokens with a valid signature past
// their expiry window.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenMalformed is returned for tokens that fail signature or
// structural validation.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidPayload is returned when a structurally valid token does not
// carry a usable account id.
var ErrInvalidPayload = goerrors.New("token payload has no usable account id", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidPayload).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the generic credential failure for the
// login path; lookups that miss return the same error so callers cannot
// probe which identifiers exist.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned while the login cool-down applies.
// The HTTP layer maps the rate limit category to a 429 response.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrNoEmptyString is returned when a value that must be non-empty is not.
var ErrNoEmptyString = goerrors.New("value must not be an empty string", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// WrapValidationErrors lifts a field-keyed validation result into the
// structured taxonomy, carrying the per-field messages as metadata so
// the HTTP layer can annotate the offending inputs.
func WrapValidationErrors(err error) *goerrors.Error {
	wrapped := goerrors.New("payload validation failed", goerrors.CategoryValidation).
		WithTextCode(TextCodeValidationFailed).
		WithCode(goerrors.CodeBadRequest)

	if fields := FormatValidationErrorToMap(err); len(fields) > 0 {
		wrapped = wrapped.WithMetadata(map[string]any{"fields": fields})
	}

	return wrapped
}

// FormatValidationErrorToMap flattens an ozzo validation error into a
// field path to message map. Nested errors are joined with dots.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	collectValidationErrors("", err, out)
	return out
}

func collectValidationErrors(prefix string, err error, out map[string]string) {
	if err == nil {
		return
	}

	verrs, ok := err.(validation.Errors)
	if !ok {
		if prefix != "" {
			out[prefix] = err.Error()
		}
		return
	}

	for field, ferr := range verrs {
		path := field
		if prefix != "" {
			path = prefix + "." + field
		}
		collectValidationErrors(path, ferr, out)
	}
}

// IsTokenExpiredError will check for expired tokens.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}

	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message.
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == TextCodeInvalidToken {
		return true
	}

	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
