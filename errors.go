package connect

import "github.com/goliatone/go-errors"

const (
	TextCodeAccountLocked      = "connect_account_locked"
	TextCodeAccountDisabled    = "connect_account_disabled"
	TextCodeAccountExpired     = "connect_account_expired"
	TextCodeCredentialsExpired = "connect_credentials_expired"
	TextCodeProfileFetchFail   = "connect_profile_fetch_failed"
	TextCodeAccountNotFound    = "connect_account_not_found"
	TextCodeSignupFailed       = "connect_signup_failed"
	TextCodeBindingFailed      = "connect_binding_failed"
	TextCodeInvalidProfile     = "connect_invalid_profile"
	TextCodeUnsupportedRequest = "connect_unsupported_request"
)

// ErrAccountLocked is returned by pre-authentication checks for locked accounts.
var ErrAccountLocked = errors.New("user account is locked", errors.CategoryAuth).
	WithTextCode(TextCodeAccountLocked).
	WithCode(errors.CodeForbidden)

// ErrAccountDisabled is returned by pre-authentication checks for disabled accounts.
var ErrAccountDisabled = errors.New("user account is disabled", errors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(errors.CodeForbidden)

// ErrAccountExpired is returned by pre-authentication checks for expired accounts.
var ErrAccountExpired = errors.New("user account has expired", errors.CategoryAuth).
	WithTextCode(TextCodeAccountExpired).
	WithCode(errors.CodeForbidden)

// ErrCredentialsExpired is returned by post-authentication checks when
// credentials have expired.
var ErrCredentialsExpired = errors.New("user credentials have expired", errors.CategoryAuth).
	WithTextCode(TextCodeCredentialsExpired).
	WithCode(errors.CodeForbidden)

// ErrProfileFetchFailed is returned when no profile could be fetched for a
// login request.
var ErrProfileFetchFailed = errors.New("failed to fetch third party profile", errors.CategoryAuth).
	WithTextCode(TextCodeProfileFetchFail).
	WithCode(errors.CodeUnauthorized)

// ErrAccountNotFound is returned when a connection points at a missing account.
var ErrAccountNotFound = errors.New("local account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)

// ErrSignupFailed is returned when auto-registration cannot complete.
var ErrSignupFailed = errors.New("sign up failed", errors.CategoryOperation).
	WithTextCode(TextCodeSignupFailed).
	WithCode(errors.CodeInternal)

// ErrBindingFailed is returned when binding a provider identity fails.
var ErrBindingFailed = errors.New("account binding failed", errors.CategoryOperation).
	WithTextCode(TextCodeBindingFailed).
	WithCode(errors.CodeInternal)

// ErrInvalidProfile is returned for profiles missing provider identifiers.
var ErrInvalidProfile = errors.New("invalid third party profile", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidProfile).
	WithCode(errors.CodeBadRequest)

// ErrUnsupportedRequest is returned when a request kind cannot be resolved
// by this package.
var ErrUnsupportedRequest = errors.New("unsupported login request", errors.CategoryBadInput).
	WithTextCode(TextCodeUnsupportedRequest).
	WithCode(errors.CodeBadRequest)
