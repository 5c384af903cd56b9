package goAccount

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/MrEthical07/goAccount/store"
)

var (
	// ErrEngineNotReady is returned when an Engine was not produced by Builder.Build.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidRequest reports an engine call with missing required input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidRole reports a role outside user, admin and moderator.
	ErrInvalidRole = errors.New("invalid role")

	// ErrDuplicateEmail is returned by Register and SeedAdmin when the email is taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrAccountNotFound is returned when the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrOTPNotFound is returned by VerifyOTP when no challenge is open.
	ErrOTPNotFound = errors.New("no otp challenge open")
	// ErrOTPExpired is returned by VerifyOTP once the open challenge has expired.
	ErrOTPExpired = errors.New("otp expired")
	// ErrOTPMismatch is returned by VerifyOTP for a wrong code.
	ErrOTPMismatch = errors.New("otp mismatch")
	// ErrAlreadyVerified is returned by ResendOTP for verified accounts.
	ErrAlreadyVerified = errors.New("account already verified")

	// ErrInvalidCredentials is the single Login failure for unknown email and
	// wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrWrongPassword is returned by ChangePassword when the current password
	// does not verify.
	ErrWrongPassword = errors.New("current password is incorrect")
	// ErrResetTokenInvalid covers unknown, consumed and expired reset tokens.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
	// ErrTokenInvalid is returned for access and refresh tokens that fail verification.
	ErrTokenInvalid = errors.New("invalid or expired token")

	// ErrForbidden reports a role that may not perform the operation.
	ErrForbidden = errors.New("insufficient permissions")

	// ErrStoreUnavailable wraps persistence failures.
	ErrStoreUnavailable = errors.New("account store unavailable")
	// ErrConcurrentUpdate reports a write that lost a race with another writer.
	ErrConcurrentUpdate = errors.New("account was modified concurrently")
)

// Kind classifies an error for transport mapping.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
	KindExpired
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindExpired:
		return "expired"
	default:
		return "internal"
	}
}

// HTTPStatus maps k onto a response status. Conflicts and expired challenges
// are client errors (400) to match the original API.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict, KindExpired:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// KindOf classifies err. Unknown errors are internal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrOTPNotFound),
		errors.Is(err, ErrOTPMismatch),
		errors.Is(err, ErrAlreadyVerified),
		errors.Is(err, ErrResetTokenInvalid):
		return KindValidation
	case errors.Is(err, ErrOTPExpired):
		return KindExpired
	case errors.Is(err, ErrDuplicateEmail):
		return KindConflict
	case errors.Is(err, ErrAccountNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrWrongPassword),
		errors.Is(err, ErrTokenInvalid):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindInternal
	}
}

// PublicMessage returns the message that may be shown to API callers. Internal
// failures never expose their cause.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, pm := range publicMessages {
		if errors.Is(err, pm.err) {
			return pm.message
		}
	}
	return "Internal server error"
}

var publicMessages = []struct {
	err     error
	message string
}{
	{ErrDuplicateEmail, "User with this email already exists."},
	{ErrAccountNotFound, "User not found."},
	{ErrOTPNotFound, "No OTP found. Please request a new one."},
	{ErrOTPExpired, "OTP has expired. Please request a new one."},
	{ErrOTPMismatch, "Invalid OTP."},
	{ErrAlreadyVerified, "User is already verified."},
	{ErrInvalidCredentials, "Invalid email or password."},
	{ErrWrongPassword, "Current password is incorrect."},
	{ErrResetTokenInvalid, "Invalid or expired reset token."},
	{ErrTokenInvalid, "Invalid or expired token."},
	{ErrForbidden, "Access denied. Insufficient permissions."},
	{ErrInvalidRole, "Invalid role"},
	{ErrInvalidRequest, "Validation failed"},
}

func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrAccountNotFound
	case errors.Is(err, store.ErrDuplicateEmail):
		return ErrDuplicateEmail
	case errors.Is(err, store.ErrConflict):
		return ErrConcurrentUpdate
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
