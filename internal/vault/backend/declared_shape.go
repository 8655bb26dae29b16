package backend

import (
	"context"

	"github.com/nullsector/teevault/internal/errors"
	"github.com/nullsector/teevault/internal/vault/domain"
)

// unavailableBackend is a declared-shape Backend for identifiers this build
// recognizes but cannot actually reach: there is no DPAPI or YubiHSM
// transport in a portable Go build. Both Seal and Unseal fail with
// HardwareUnavailable rather than being omitted from the registry, so an
// envelope naming one of these backends gets a precise error instead of
// UnsupportedBackend.
type unavailableBackend struct {
	id domain.BackendID
}

// NewDPAPIBackend returns the declared-shape stub for the dpapi backend
// (Windows user-scope data-protection API, no TPM sealing).
func NewDPAPIBackend() Backend {
	return unavailableBackend{id: domain.BackendDPAPI}
}

// NewYubiHSMBackend returns the declared-shape stub for the yubihsm
// backend.
func NewYubiHSMBackend() Backend {
	return unavailableBackend{id: domain.BackendYubiHSM}
}

func (b unavailableBackend) ID() domain.BackendID {
	return b.id
}

func (b unavailableBackend) Seal(_ context.Context, _ []byte) (string, error) {
	return "", errors.Wrap(errors.ErrHardwareUnavailable, string(b.id)+" backend has no transport in this build")
}

func (b unavailableBackend) Unseal(_ context.Context, _ string) ([]byte, error) {
	return nil, errors.Wrap(errors.ErrHardwareUnavailable, string(b.id)+" backend has no transport in this build")
}
