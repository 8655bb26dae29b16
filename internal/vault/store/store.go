package store

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/nullsector/teevault/internal/errors"
	"github.com/nullsector/teevault/internal/vault/primitives"

	"github.com/nullsector/teevault/internal/vault/domain"
)

const (
	envelopeFileName = "vault.enc"
	dirMode          = 0o700
	fileMode         = 0o600
)

// PathFor returns the envelope file path for a vault directory.
func PathFor(vaultDir string) string {
	return filepath.Join(vaultDir, envelopeFileName)
}

// ReadVault reads and decodes the envelope file at path. It does not verify
// the HMAC tag — that is the caller's responsibility once the VMK is
// available. Fails with ErrUnsupportedVersion if the schema version is not
// 1, ErrCorrupted if the structured decode fails, ErrIoFailure for any
// other filesystem error.
func ReadVault(path string) (domain.Envelope, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path built from configured vault dir
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Envelope{}, errors.Wrap(errors.ErrNotFound, "vault file does not exist")
		}
		return domain.Envelope{}, errors.Wrap(errors.ErrIoFailure, err.Error())
	}

	var fe fileEnvelope
	if err := json.Unmarshal(data, &fe); err != nil {
		return domain.Envelope{}, errors.Wrap(errors.ErrCorrupted, err.Error())
	}

	if fe.Version != domain.EnvelopeSchemaVersion {
		return domain.Envelope{}, errors.Wrap(errors.ErrUnsupportedVersion, "envelope schema version is not 1")
	}

	return fromFileEnvelope(fe)
}

// WriteVault atomically persists env to path: it writes path+".tmp", fsyncs
// it, then renames over path. A crash before rename leaves the prior file
// untouched; a crash after rename leaves the new file durable. Directory
// and file permissions are tightened to 0700/0600 on every write.
func WriteVault(path string, env domain.Envelope) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return errors.Wrap(errors.ErrIoFailure, err.Error())
	}
	if err := os.Chmod(dir, dirMode); err != nil {
		return errors.Wrap(errors.ErrIoFailure, err.Error())
	}

	fe := toFileEnvelope(env)
	data, err := json.MarshalIndent(fe, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrIoFailure, err.Error())
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return errors.Wrap(errors.ErrIoFailure, err.Error())
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return errors.Wrap(errors.ErrIoFailure, err.Error())
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.Wrap(errors.ErrIoFailure, err.Error())
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrIoFailure, err.Error())
	}

	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(errors.ErrIoFailure, err.Error())
	}
	return os.Chmod(path, fileMode)
}

// TouchEnvelope recomputes the last-modified timestamp, the derived entry
// count, and the HMAC over env's entries, returning a new Envelope value.
// Callers must invoke this on every mutation that changes the entry list
// before persisting.
func TouchEnvelope(env domain.Envelope, vmk []byte, now time.Time) domain.Envelope {
	env.Metadata.LastModifiedAt = now
	env.Metadata.EntryCount = len(env.Entries)

	canonical := CanonicalEntrySerialization(env.Entries)
	tag := primitives.HMAC(vmk, []byte(canonical))
	env.HMAC = hex.EncodeToString(tag)

	return env
}

// VerifyHMAC recomputes the HMAC over env's entries under vmk and compares
// it against env.HMAC in constant time.
func VerifyHMAC(env domain.Envelope, vmk []byte) bool {
	canonical := CanonicalEntrySerialization(env.Entries)
	expected := primitives.HMAC(vmk, []byte(canonical))

	stored, err := hex.DecodeString(env.HMAC)
	if err != nil {
		return false
	}
	return primitives.ConstantTimeVerify(expected, stored)
}
