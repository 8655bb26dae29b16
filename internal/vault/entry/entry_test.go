package entry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nullsector/teevault/internal/errors"
	"github.com/nullsector/teevault/internal/vault/backend"
	"github.com/nullsector/teevault/internal/vault/domain"
	"github.com/nullsector/teevault/internal/vault/primitives"
	"github.com/nullsector/teevault/internal/vault/store"
)

func freshVMK(t *testing.T) []byte {
	t.Helper()
	vmk, err := primitives.RandomBytes(32)
	require.NoError(t, err)
	return vmk
}

func emptyEnvelope() domain.Envelope {
	return domain.Envelope{
		Version: domain.EnvelopeSchemaVersion,
		Metadata: domain.EnvelopeMetadata{
			Backend:    domain.BackendOpenSSLPBKDF2,
			VMKVersion: 1,
		},
		SealedVMK: "sealed",
	}
}

func TestAddStoredEntry(t *testing.T) {
	vmk := freshVMK(t)
	env := emptyEnvelope()
	now := time.Now().UTC()

	env, added, err := Add(env, vmk, AddParams{
		Label: "github-token",
		Type:  domain.EntryTypeAPIToken,
		Tags:  []string{"ci"},
		Value: []byte("super-secret"),
	}, now)
	require.NoError(t, err)

	assert.Len(t, env.Entries, 1)
	assert.Equal(t, "github-token", added.Label)
	assert.Equal(t, 1, added.Version)
	assert.False(t, added.HardwareResident)
	assert.NotEmpty(t, env.HMAC)

	ct, ok := added.CiphertextTriple()
	require.True(t, ok)
	assert.NotEmpty(t, ct.Ciphertext)
}

func TestAddHardwareResidentEntry(t *testing.T) {
	vmk := freshVMK(t)
	env := emptyEnvelope()
	now := time.Now().UTC()

	env, added, err := Add(env, vmk, AddParams{
		Label:            "yubikey-signing-key",
		Type:             domain.EntryTypeSSHKey,
		HardwareResident: true,
		HardwareObjectID: "0x02",
	}, now)
	require.NoError(t, err)
	assert.Len(t, env.Entries, 1)
	assert.True(t, added.HardwareResident)

	_, ok := added.CiphertextTriple()
	assert.False(t, ok)
}

func TestAddHardwareResidentRequiresObjectID(t *testing.T) {
	vmk := freshVMK(t)
	env := emptyEnvelope()

	_, _, err := Add(env, vmk, AddParams{
		Label:            "k",
		HardwareResident: true,
	}, time.Now().UTC())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingHardwareObjectID)
}

func TestAddEmptyLabelRejected(t *testing.T) {
	vmk := freshVMK(t)
	env := emptyEnvelope()

	_, _, err := Add(env, vmk, AddParams{Label: "   "}, time.Now().UTC())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestAddDuplicateLabelRejected(t *testing.T) {
	vmk := freshVMK(t)
	env := emptyEnvelope()
	now := time.Now().UTC()

	env, _, err := Add(env, vmk, AddParams{Label: "dup", Value: []byte("a")}, now)
	require.NoError(t, err)

	_, _, err = Add(env, vmk, AddParams{Label: "dup", Value: []byte("b")}, now)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateLabel)
}

func TestRetrieveRoundTrip(t *testing.T) {
	vmk := freshVMK(t)
	env := emptyEnvelope()
	now := time.Now().UTC()

	env, _, err := Add(env, vmk, AddParams{Label: "k1", Value: []byte("plaintext-value")}, now)
	require.NoError(t, err)

	ent, plaintext, err := Retrieve(env, vmk, "k1")
	require.NoError(t, err)
	assert.Equal(t, "k1", ent.Label)
	assert.Equal(t, []byte("plaintext-value"), plaintext)
}

func TestRetrieveNotFound(t *testing.T) {
	vmk := freshVMK(t)
	env := emptyEnvelope()

	_, _, err := Retrieve(env, vmk, "missing")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestRetrieveHardwareResidentFails(t *testing.T) {
	vmk := freshVMK(t)
	env := emptyEnvelope()
	now := time.Now().UTC()

	env, _, err := Add(env, vmk, AddParams{
		Label:            "hw",
		HardwareResident: true,
		HardwareObjectID: "oid",
	}, now)
	require.NoError(t, err)

	_, _, err = Retrieve(env, vmk, "hw")
	assert.ErrorIs(t, err, domain.ErrHardwareResident)
}

func TestListFiltersByTypeAndTag(t *testing.T) {
	vmk := freshVMK(t)
	env := emptyEnvelope()
	now := time.Now().UTC()

	env, _, err := Add(env, vmk, AddParams{Label: "a", Type: domain.EntryTypeSecret, Tags: []string{"prod"}, Value: []byte("1")}, now)
	require.NoError(t, err)
	env, _, err = Add(env, vmk, AddParams{Label: "b", Type: domain.EntryTypeAPIToken, Tags: []string{"prod"}, Value: []byte("2")}, now)
	require.NoError(t, err)
	env, _, err = Add(env, vmk, AddParams{Label: "c", Type: domain.EntryTypeSecret, Tags: []string{"dev"}, Value: []byte("3")}, now)
	require.NoError(t, err)

	onlySecrets := List(env, ListFilter{Type: domain.EntryTypeSecret})
	assert.Len(t, onlySecrets, 2)

	prodSecrets := List(env, ListFilter{Type: domain.EntryTypeSecret, Tag: "prod"})
	require.Len(t, prodSecrets, 1)
	assert.Equal(t, "a", prodSecrets[0].Label)

	all := List(env, ListFilter{})
	assert.Len(t, all, 3)
}

func TestListReturnsNoKeyMaterial(t *testing.T) {
	vmk := freshVMK(t)
	env := emptyEnvelope()
	now := time.Now().UTC()

	env, _, err := Add(env, vmk, AddParams{Label: "a", Value: []byte("secretvalue")}, now)
	require.NoError(t, err)

	metas := List(env, ListFilter{})
	require.Len(t, metas, 1)
	assert.Equal(t, "a", metas[0].Label)
}

func TestDeleteRemovesEntry(t *testing.T) {
	vmk := freshVMK(t)
	env := emptyEnvelope()
	now := time.Now().UTC()

	env, _, err := Add(env, vmk, AddParams{Label: "a", Value: []byte("1")}, now)
	require.NoError(t, err)

	env, err = Delete(env, vmk, "a", now)
	require.NoError(t, err)
	assert.Len(t, env.Entries, 0)
	assert.True(t, store.VerifyHMAC(env, vmk))
}

func TestDeleteMissingFails(t *testing.T) {
	vmk := freshVMK(t)
	env := emptyEnvelope()

	_, err := Delete(env, vmk, "missing", time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestRotateEntryBumpsVersionAndReencrypts(t *testing.T) {
	vmk := freshVMK(t)
	env := emptyEnvelope()
	now := time.Now().UTC()

	env, added, err := Add(env, vmk, AddParams{Label: "a", Value: []byte("v1")}, now)
	require.NoError(t, err)
	oldCT, _ := added.CiphertextTriple()

	later := now.Add(time.Minute)
	env, err = RotateEntry(env, vmk, "a", later)
	require.NoError(t, err)

	rotated, _, ok := env.EntryByLabel("a")
	require.True(t, ok)
	assert.Equal(t, 2, rotated.Version)

	newCT, _ := rotated.CiphertextTriple()
	assert.NotEqual(t, oldCT.Ciphertext, newCT.Ciphertext)
	assert.NotEqual(t, oldCT.IV, newCT.IV)

	_, plaintext, err := Retrieve(env, vmk, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), plaintext)
}

func TestRotateEntryHardwareResidentFails(t *testing.T) {
	vmk := freshVMK(t)
	env := emptyEnvelope()
	now := time.Now().UTC()

	env, _, err := Add(env, vmk, AddParams{Label: "hw", HardwareResident: true, HardwareObjectID: "oid"}, now)
	require.NoError(t, err)

	_, err = RotateEntry(env, vmk, "hw", now)
	assert.ErrorIs(t, err, domain.ErrHardwareResident)
}

func TestRotateMasterReencryptsAllAndBumpsVMKVersion(t *testing.T) {
	oldVMK := freshVMK(t)
	newVMK := freshVMK(t)
	env := emptyEnvelope()
	now := time.Now().UTC()

	env, _, err := Add(env, oldVMK, AddParams{Label: "a", Value: []byte("va")}, now)
	require.NoError(t, err)
	env, err = RotateEntry(env, oldVMK, "a", now)
	require.NoError(t, err)
	env, _, err = Add(env, oldVMK, AddParams{Label: "hw", HardwareResident: true, HardwareObjectID: "oid"}, now)
	require.NoError(t, err)

	rotatedBeforeMaster, _, _ := env.EntryByLabel("a")
	assert.Equal(t, 2, rotatedBeforeMaster.Version)

	b := backend.NewPassphraseBackend([]byte("passphrase"), 10)
	ctx := context.Background()

	env, err = RotateMaster(ctx, env, oldVMK, newVMK, b, now)
	require.NoError(t, err)
	assert.Equal(t, 2, env.Metadata.VMKVersion)

	a, _, ok := env.EntryByLabel("a")
	require.True(t, ok)
	assert.Equal(t, 1, a.Version)

	_, plaintext, err := Retrieve(env, newVMK, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("va"), plaintext)

	_, _, err = Retrieve(env, oldVMK, "a")
	assert.Error(t, err)

	hw, _, ok := env.EntryByLabel("hw")
	require.True(t, ok)
	assert.True(t, hw.HardwareResident)
	assert.Equal(t, 1, hw.Version)

	assert.NotEmpty(t, env.SealedVMK)
}
