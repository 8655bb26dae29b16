package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullsector/teevault/internal/errors"
	"github.com/nullsector/teevault/internal/vault/domain"
	"github.com/nullsector/teevault/internal/vault/primitives"
)

func sampleEnvelope(t *testing.T, vmk []byte) domain.Envelope {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)

	eek, err := primitives.DeriveEEK(vmk, "entry-1", 1)
	require.NoError(t, err)
	iv, ct, tag, err := primitives.Encrypt(eek, []byte("my-value-123"))
	require.NoError(t, err)

	entry := domain.NewStoredEntry("entry-1", "k1", domain.EntryTypeSecret, []string{"t"}, now, now, 1,
		domain.Ciphertext{IV: iv, Ciphertext: ct, AuthTag: tag})

	env := domain.Envelope{
		Version: domain.EnvelopeSchemaVersion,
		Metadata: domain.EnvelopeMetadata{
			Backend:    domain.BackendOpenSSLPBKDF2,
			CreatedAt:  now,
			VMKVersion: 1,
		},
		SealedVMK: "sealed-blob",
		Entries:   []domain.VaultEntry{entry},
	}
	return TouchEnvelope(env, vmk, now)
}

func TestWriteReadRoundTrip(t *testing.T) {
	vmk, err := primitives.RandomBytes(32)
	require.NoError(t, err)
	env := sampleEnvelope(t, vmk)

	dir := t.TempDir()
	path := PathFor(filepath.Join(dir, "default"))

	require.NoError(t, WriteVault(path, env))

	got, err := ReadVault(path)
	require.NoError(t, err)

	assert.Equal(t, env.Version, got.Version)
	assert.Equal(t, env.Metadata.Backend, got.Metadata.Backend)
	assert.Equal(t, env.SealedVMK, got.SealedVMK)
	assert.Equal(t, env.HMAC, got.HMAC)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, env.Entries[0].Label, got.Entries[0].Label)

	assert.True(t, VerifyHMAC(got, vmk))
}

func TestReadVaultMissingFile(t *testing.T) {
	_, err := ReadVault(filepath.Join(t.TempDir(), "vault.enc"))
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestReadVaultUnsupportedVersion(t *testing.T) {
	vmk, err := primitives.RandomBytes(32)
	require.NoError(t, err)
	env := sampleEnvelope(t, vmk)
	env.Version = 2

	dir := t.TempDir()
	path := PathFor(dir)
	require.NoError(t, WriteVault(path, env))

	_, err = ReadVault(path)
	assert.ErrorIs(t, err, errors.ErrUnsupportedVersion)
}

func TestVerifyHMACDetectsTamper(t *testing.T) {
	vmk, err := primitives.RandomBytes(32)
	require.NoError(t, err)
	env := sampleEnvelope(t, vmk)

	tampered := env
	tampered.Entries = append([]domain.VaultEntry(nil), env.Entries...)
	ct, _ := tampered.Entries[0].CiphertextTriple()
	ct.Ciphertext = append([]byte(nil), ct.Ciphertext...)
	ct.Ciphertext[0] ^= 1
	tampered.Entries[0] = tampered.Entries[0].WithCiphertext(ct, tampered.Entries[0].Version, tampered.Entries[0].ModifiedAt)

	assert.False(t, VerifyHMAC(tampered, vmk))
	assert.True(t, VerifyHMAC(env, vmk))
}

func TestCanonicalEntrySerializationHardwareResident(t *testing.T) {
	now := time.Now().UTC()
	hw := domain.NewHardwareResidentEntry("hw-1", "hw", domain.EntryTypeSSHKey, nil, now, now, 1, "object-id")

	canonical := CanonicalEntrySerialization([]domain.VaultEntry{hw})
	assert.Equal(t, "hw-1:1::", canonical)
}
