package primitives

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/nullsector/teevault/internal/errors"
)

// DeriveKey runs HKDF-SHA256 over ikm with the given salt and info,
// producing length deterministic bytes uniquely bound to info.
func DeriveKey(ikm, salt, info []byte, length int) ([]byte, error) {
	kdf := hkdf.New(sha256.New, ikm, salt, info)
	out := make([]byte, length)
	if _, err := io.ReadFull(kdf, out); err != nil {
		return nil, errors.Wrap(errors.ErrPrimitiveFailure, err.Error())
	}
	return out, nil
}

// EntryEEKInfo builds the HKDF info parameter that binds a derived key to
// one entry at one version: entry_id || "||" || decimal(version).
func EntryEEKInfo(entryID string, version int) []byte {
	return []byte(fmt.Sprintf("%s||%d", entryID, version))
}

// DeriveEEK derives the 32-byte Entry Encryption Key for (entryID, version)
// from the VMK. The empty salt is deliberate: uniqueness comes entirely from
// info, which is unique per (entryID, version) pair.
func DeriveEEK(vmk []byte, entryID string, version int) ([]byte, error) {
	return DeriveKey(vmk, nil, EntryEEKInfo(entryID, version), 32)
}
