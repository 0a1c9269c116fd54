package expense

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced to transports alongside the error category.
const (
	TextCodeInvalidCreds    = "INVALID_CREDENTIALS"
	TextCodeAccountLocked   = "ACCOUNT_LOCKED"
	TextCodeAccountExists   = "ACCOUNT_EXISTS"
	TextCodeTokenInvalid    = "INVALID_OR_EXPIRED_TOKEN"
	TextCodeAlreadyVerified = "ALREADY_VERIFIED"
	TextCodeUnauthenticated = "UNAUTHENTICATED"
	TextCodeForbidden       = "FORBIDDEN"
	TextCodeNotFound        = "NOT_FOUND"
	TextCodeTokenExpired    = "TOKEN_EXPIRED"
	TextCodeTokenMalformed  = "TOKEN_MALFORMED"
	TextCodeEmptyPassword   = "EMPTY_PASSWORD"
)

// ErrInvalidCredentials covers both unknown email and password mismatch,
// we never tell the caller which one it was.
var ErrInvalidCredentials = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountLocked is returned while the lockout window is active,
// independent of credential correctness.
var ErrAccountLocked = goerrors.New("account temporarily locked after repeated failed logins", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeAccountLocked)

// ErrAccountExists is returned by registration for a duplicate email.
var ErrAccountExists = goerrors.New("an account with that email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeAccountExists).
	WithCode(goerrors.CodeConflict)

// ErrInvalidOrExpiredToken covers missing, mismatched, consumed, and
// expired single use tokens symmetrically.
var ErrInvalidOrExpiredToken = goerrors.New("invalid or expired token", goerrors.CategoryValidation).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(goerrors.CodeBadRequest)

// ErrAlreadyVerified is returned when resending verification for a
// verified account.
var ErrAlreadyVerified = goerrors.New("email address is already verified", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(goerrors.CodeConflict)

// ErrUnauthenticated is returned by operations that require an
// authenticated identity context.
var ErrUnauthenticated = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden is returned when a resolution path crosses user ownership.
var ErrForbidden = goerrors.New("access to this record is not allowed", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrNotFound is the generic missing record error.
var ErrNotFound = goerrors.New("record not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrTokenExpired is the session token expiry error.
var ErrTokenExpired = goerrors.New("session token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is the session token structure/signature error.
var ErrTokenMalformed = goerrors.New("session token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
