// Package backend implements the pluggable VMK-sealing mechanisms named in
// the envelope's metadata.backend field: derive a wrapping key outside the
// VMK itself, then seal/unseal the VMK blob with it.
package backend

import (
	"context"

	"github.com/nullsector/teevault/internal/vault/domain"
)

// Backend seals and unseals a Vault Master Key. Every implementation must
// report AuthenticationFailure for a wrong credential, HardwareUnavailable
// for a missing device, and IntegrityFailure for a tampered blob.
type Backend interface {
	// ID reports the BackendID this implementation answers to.
	ID() domain.BackendID

	// Seal returns an opaque textual blob safe to store in the envelope's
	// sealedVmk field.
	Seal(ctx context.Context, vmk []byte) (blob string, err error)

	// Unseal returns a fresh, owned 32-byte VMK buffer.
	Unseal(ctx context.Context, blob string) (vmk []byte, err error)
}

// Registry resolves a BackendID to its Backend implementation.
type Registry map[domain.BackendID]Backend

// Resolve looks up id in the registry, returning ErrUnsupportedBackend if
// nothing is registered for it.
func (r Registry) Resolve(id domain.BackendID) (Backend, error) {
	b, ok := r[id]
	if !ok {
		return nil, errUnsupportedBackend(id)
	}
	return b, nil
}
