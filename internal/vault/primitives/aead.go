package primitives

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/nullsector/teevault/internal/errors"
)

// ivSize is the AES-GCM nonce length mandated for every AEAD call in this
// vault: 12 random bytes, freshly generated per encryption.
const ivSize = 12

// tagSize is the AES-GCM authentication tag length.
const tagSize = 16

// Encrypt performs AES-256-GCM encryption with a freshly generated 12-byte
// IV. key must be 32 bytes. Returns the IV, ciphertext, and 16-byte
// authentication tag split out from the sealed blob Go's cipher.AEAD
// produces as one slice.
func Encrypt(key, plaintext []byte) (iv, ciphertext, tag []byte, err error) {
	if len(key) != 32 {
		return nil, nil, nil, errors.Wrap(errors.ErrInvalidInput, "aead key must be 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, nil, errors.Wrap(errors.ErrPrimitiveFailure, err.Error())
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, nil, nil, errors.Wrap(errors.ErrPrimitiveFailure, err.Error())
	}

	iv, err = RandomBytes(ivSize)
	if err != nil {
		return nil, nil, nil, err
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ctLen := len(sealed) - tagSize
	ciphertext = sealed[:ctLen]
	tag = sealed[ctLen:]
	return iv, ciphertext, tag, nil
}

// Decrypt performs AES-256-GCM decryption and authentication. Fails with
// ErrIntegrityFailure if the tag does not verify; never returns partial
// plaintext on failure.
func Decrypt(key, iv, ciphertext, tag []byte) ([]byte, error) {
	if len(key) != 32 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "aead key must be 32 bytes")
	}
	if len(iv) != ivSize {
		return nil, errors.Wrap(errors.ErrInvalidInput, "aead iv must be 12 bytes")
	}
	if len(tag) != tagSize {
		return nil, errors.Wrap(errors.ErrIntegrityFailure, "aead tag has wrong length")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(errors.ErrPrimitiveFailure, err.Error())
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrPrimitiveFailure, err.Error())
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrIntegrityFailure, "aead authentication failed")
	}
	return plaintext, nil
}
