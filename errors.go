package accounts

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeValidation flags a payload that failed shape validation.
	TextCodeValidation = "VALIDATION_ERROR"
	// TextCodeDuplicateEmail flags an email already claimed by a persisted account.
	TextCodeDuplicateEmail = "DUPLICATE_EMAIL"
	// TextCodeNotFound flags a missing email or reset token.
	TextCodeNotFound = "NOT_FOUND"
	// TextCodeTokenExpired flags a token past its expiry.
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenInvalid flags a tampered, malformed, or wrong-purpose token.
	TextCodeTokenInvalid = "TOKEN_INVALID"
	// TextCodeInvalidCredentials flags a password mismatch on login.
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	// TextCodeNotificationFailed flags a notification dispatch failure.
	TextCodeNotificationFailed = "NOTIFICATION_FAILED"
)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = errors.New("password must not be an empty string")

// ErrMismatchedHashAndPassword is returned when a password does not match its hash.
var ErrMismatchedHashAndPassword = errors.New("password does not match hash")

// ErrDuplicateEmail is returned when an email is already claimed. The
// message is deliberately uniform: it must not reveal whether the
// existing account is verified.
var ErrDuplicateEmail = goerrors.New("email already exists, try another one", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(goerrors.CodeConflict)

// ErrAccountNotFound is returned when no account matches the given email.
var ErrAccountNotFound = goerrors.New("email not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrResetTokenNotFound is returned when a reset token does not match any stored value.
var ErrResetTokenNotFound = goerrors.New("account with this token does not exist", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrTokenExpired is returned for tokens past their expiry.
var ErrTokenExpired = goerrors.New("incorrect or expired link", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tampered, malformed, or wrong-purpose tokens.
var ErrTokenMalformed = goerrors.New("incorrect or expired link", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentials is returned when login credentials do not verify.
var ErrInvalidCredentials = goerrors.New("invalid password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// NewValidationError builds the error for the first violated field of a payload.
func NewValidationError(field, message string) *goerrors.Error {
	return goerrors.New(message, goerrors.CategoryValidation).
		WithTextCode(TextCodeValidation).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"field": field})
}

// NewNotificationError wraps a Notifier failure. The underlying state
// change, if any, is not rolled back; callers surface this distinctly
// from validation failures.
func NewNotificationError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send notification email").
		WithTextCode(TextCodeNotificationFailed)
}

// IsValidationError reports whether err is a payload validation failure.
func IsValidationError(err error) bool {
	return hasTextCode(err, TextCodeValidation)
}

// IsDuplicateEmail reports whether err is an email uniqueness conflict.
func IsDuplicateEmail(err error) bool {
	return hasTextCode(err, TextCodeDuplicateEmail)
}

// IsInvalidToken reports whether err is a failed token verification,
// expiry included.
func IsInvalidToken(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired) || hasTextCode(err, TextCodeTokenInvalid)
}

// IsNotificationFailed reports whether err is a notification dispatch failure.
func IsNotificationFailed(err error) bool {
	return hasTextCode(err, TextCodeNotificationFailed)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, TextCodeTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, TextCodeTokenInvalid) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed")
}
