package services

import (
	"github.com/go-faster/errors"
)

// Kind classifies a service failure.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindExpired
	KindMismatch
	KindInvalidCredentials
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindExpired:
		return "expired"
	case KindMismatch:
		return "mismatch"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a user-facing failure. Message is safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Failures surfaced by the OTP and auth services.
var (
	ErrInvalidPhone       = newError(KindValidation, "Phone number must be exactly 10 digits.")
	ErrPhoneRequired      = newError(KindValidation, "Phone number is required.")
	ErrRegisterFields     = newError(KindValidation, "All fields including OTP are required.")
	ErrLoginFields        = newError(KindValidation, "Email and password are required.")
	ErrResetFields        = newError(KindValidation, "Phone, OTP, and new password are required.")
	ErrOTPNotFound        = newError(KindNotFound, "OTP not requested for this phone number.")
	ErrResetOTPNotFound   = newError(KindNotFound, "OTP not requested for this number.")
	ErrOTPExpired         = newError(KindExpired, "OTP has expired. Please request a new one.")
	ErrOTPMismatch        = newError(KindMismatch, "Invalid OTP.")
	ErrInvalidCredentials = newError(KindInvalidCredentials, "Invalid credentials.")
	ErrEmailTaken         = newError(KindConflict, "Email already exists.")
	ErrUserNotFound       = newError(KindNotFound, "No user found with this phone number.")
	ErrOTPDeliveryFailed  = newError(KindInternal, "Could not deliver the OTP. Please try again.")
)

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
