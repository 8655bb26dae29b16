package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nullsector/teevault/internal/errors"
	"github.com/nullsector/teevault/internal/vault/domain"
)

func TestDeclaredShapeBackendsFailHardwareUnavailable(t *testing.T) {
	ctx := context.Background()

	for _, b := range []Backend{NewDPAPIBackend(), NewYubiHSMBackend()} {
		_, err := b.Seal(ctx, make([]byte, 32))
		assert.ErrorIs(t, err, errors.ErrHardwareUnavailable)

		_, err = b.Unseal(ctx, "anything")
		assert.ErrorIs(t, err, errors.ErrHardwareUnavailable)
	}

	assert.Equal(t, domain.BackendDPAPI, NewDPAPIBackend().ID())
	assert.Equal(t, domain.BackendYubiHSM, NewYubiHSMBackend().ID())
}

func TestRegistryResolve(t *testing.T) {
	reg := Registry{
		domain.BackendOpenSSLPBKDF2: NewPassphraseBackend([]byte("x"), 1000),
	}

	b, err := reg.Resolve(domain.BackendOpenSSLPBKDF2)
	assert.NoError(t, err)
	assert.NotNil(t, b)

	_, err = reg.Resolve(domain.BackendDPAPI)
	assert.ErrorIs(t, err, errors.ErrUnsupportedBackend)
}
