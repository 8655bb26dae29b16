package backend

import (
	"context"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/pbkdf2"

	"github.com/nullsector/teevault/internal/errors"
	"github.com/nullsector/teevault/internal/vault/domain"
	"github.com/nullsector/teevault/internal/vault/primitives"
)

const (
	pbkdf2SaltSize = 32
	pbkdf2IVSize   = 12
	pbkdf2TagSize  = 16
	pbkdf2KeySize  = 32
	pbkdf2BlobSize = pbkdf2SaltSize + pbkdf2IVSize + pbkdf2KeySize + pbkdf2TagSize // 92
)

// PassphraseBackend is the mandatory openssl-pbkdf2 backend: it derives a
// 32-byte wrapping key from a passphrase via PBKDF2-HMAC-SHA256 and uses it
// to AES-256-GCM-wrap the VMK. The sealed blob is a fixed 92-byte layout,
// base64-encoded for storage in the envelope's sealedVmk field.
type PassphraseBackend struct {
	passphrase []byte
	iterations int
}

// NewPassphraseBackend builds a backend bound to one passphrase. iterations
// should be 600_000 for new vaults; an existing vault's blob is always
// unsealed with whatever salt it was sealed with, so the iteration count
// only affects new Seal calls.
func NewPassphraseBackend(passphrase []byte, iterations int) *PassphraseBackend {
	return &PassphraseBackend{passphrase: passphrase, iterations: iterations}
}

func (b *PassphraseBackend) ID() domain.BackendID {
	return domain.BackendOpenSSLPBKDF2
}

func (b *PassphraseBackend) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(b.passphrase, salt, b.iterations, pbkdf2KeySize, sha256.New)
}

// Seal derives a fresh salt, derives the wrapping key, AEAD-encrypts vmk,
// and returns salt||iv||ciphertext||tag as base64.
func (b *PassphraseBackend) Seal(_ context.Context, vmk []byte) (string, error) {
	if len(vmk) != 32 {
		return "", errors.Wrap(errors.ErrInvalidInput, "vmk must be 32 bytes")
	}

	salt, err := primitives.RandomBytes(pbkdf2SaltSize)
	if err != nil {
		return "", err
	}

	key := b.deriveKey(salt)
	defer primitives.Scrub(key)

	iv, ciphertext, tag, err := primitives.Encrypt(key, vmk)
	if err != nil {
		return "", err
	}

	blob := make([]byte, 0, pbkdf2BlobSize)
	blob = append(blob, salt...)
	blob = append(blob, iv...)
	blob = append(blob, ciphertext...)
	blob = append(blob, tag...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Unseal parses the fixed-layout blob, re-derives the wrapping key from its
// embedded salt, and decrypts. A wrong passphrase or tampered blob surfaces
// as IntegrityFailure (AEAD authentication never distinguishes the two).
func (b *PassphraseBackend) Unseal(_ context.Context, blobB64 string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(blobB64)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCorrupted, "sealedVmk is not valid base64")
	}
	if len(blob) != pbkdf2BlobSize {
		return nil, errors.Wrap(errors.ErrCorrupted, "sealedVmk has unexpected length")
	}

	salt := blob[:pbkdf2SaltSize]
	iv := blob[pbkdf2SaltSize : pbkdf2SaltSize+pbkdf2IVSize]
	ciphertext := blob[pbkdf2SaltSize+pbkdf2IVSize : pbkdf2SaltSize+pbkdf2IVSize+pbkdf2KeySize]
	tag := blob[pbkdf2SaltSize+pbkdf2IVSize+pbkdf2KeySize:]

	key := b.deriveKey(salt)
	defer primitives.Scrub(key)

	vmk, err := primitives.Decrypt(key, iv, ciphertext, tag)
	if err != nil {
		return nil, err
	}
	return vmk, nil
}
