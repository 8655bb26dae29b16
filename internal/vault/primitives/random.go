// Package primitives implements the cryptographic leaf layer every other
// vault subsystem depends on: CSPRNG bytes, AES-256-GCM AEAD, HKDF-SHA256
// derivation, HMAC-SHA256, constant-time comparison, and buffer scrubbing.
// Primitives never perform I/O and never know about envelopes or entries.
package primitives

import (
	"crypto/rand"

	"github.com/nullsector/teevault/internal/errors"
)

// RandomBytes returns n cryptographically random bytes from the system
// CSPRNG. Fails with ErrPrimitiveFailure if the source is unavailable.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, errors.Wrap(errors.ErrPrimitiveFailure, err.Error())
	}
	return b, nil
}
