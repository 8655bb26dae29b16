// Package errors provides the standardized domain error taxonomy shared by
// every vault subsystem. Higher layers wrap one of these sentinels with
// context via Wrap/Wrapf; callers recover the sentinel with Is/As.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors exposed to callers of the vault core. This set
// matches the closed error taxonomy of the on-disk/API contract: every
// failure a caller can observe reduces to one of these.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g. duplicate label).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates missing or invalid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates insufficient permissions.
	ErrForbidden = errors.New("forbidden")

	// ErrLocked indicates the vault is locked and holds no usable VMK.
	ErrLocked = errors.New("locked")

	// ErrCorrupted indicates the envelope could not be decoded.
	ErrCorrupted = errors.New("corrupted")

	// ErrUnsupportedVersion indicates the envelope's schema version is not handled.
	ErrUnsupportedVersion = errors.New("unsupported version")

	// ErrUnsupportedBackend indicates the envelope names a backend identifier
	// this build does not implement.
	ErrUnsupportedBackend = errors.New("unsupported backend")

	// ErrIntegrityFailure indicates an AEAD authentication or HMAC check failed.
	ErrIntegrityFailure = errors.New("integrity failure")

	// ErrAuthenticationFailure indicates a wrong passphrase or failed device auth.
	ErrAuthenticationFailure = errors.New("authentication failure")

	// ErrHardwareResident indicates the operation cannot be served because the
	// entry's key material lives in an external hardware module.
	ErrHardwareResident = errors.New("hardware resident")

	// ErrHardwareUnavailable indicates the required hardware backend is not reachable.
	ErrHardwareUnavailable = errors.New("hardware unavailable")

	// ErrPrimitiveFailure indicates a cryptographic primitive failed
	// (e.g. the system CSPRNG is unavailable).
	ErrPrimitiveFailure = errors.New("primitive failure")

	// ErrIoFailure indicates a filesystem operation failed.
	ErrIoFailure = errors.New("io failure")
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message while preserving the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
