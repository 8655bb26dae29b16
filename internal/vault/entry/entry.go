// Package entry implements the vault's entry lifecycle operations: add,
// retrieve, list, delete, rotate-entry, rotate-master. Every mutating
// operation is a pure function from an input Envelope to a new Envelope
// value with store.TouchEnvelope already applied; persisting the result is
// the caller's responsibility.
package entry

import (
	"context"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/nullsector/teevault/internal/vault/backend"
	"github.com/nullsector/teevault/internal/vault/domain"
	"github.com/nullsector/teevault/internal/vault/primitives"
	"github.com/nullsector/teevault/internal/vault/store"
	appvalidation "github.com/nullsector/teevault/internal/validation"
)

// AddParams describes a new entry. HardwareObjectID is required when
// HardwareResident is set and ignored otherwise.
type AddParams struct {
	Label            string
	Type             domain.EntryType
	Tags             []string
	Value            []byte
	HardwareResident bool
	HardwareObjectID string
}

func (p AddParams) validate() error {
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.Label, validation.Required, appvalidation.NotBlank, appvalidation.NoWhitespace),
	); err != nil {
		return appvalidation.WrapValidationError(err)
	}
	if p.HardwareResident && p.HardwareObjectID == "" {
		return domain.ErrMissingHardwareObjectID
	}
	return nil
}

// Add appends a new entry to env. Fails with ErrDuplicateLabel if the label
// is already taken, ErrEmptyLabel/validation error for bad input, or
// ErrMissingHardwareObjectID for a hardware-resident entry with no object
// ID. On success, returns the new envelope (touched) and the entry that was
// added.
func Add(env domain.Envelope, vmk []byte, params AddParams, now time.Time) (domain.Envelope, domain.VaultEntry, error) {
	if err := params.validate(); err != nil {
		return domain.Envelope{}, domain.VaultEntry{}, err
	}
	if env.HasLabel(params.Label) {
		return domain.Envelope{}, domain.VaultEntry{}, domain.ErrDuplicateLabel
	}

	id := uuid.New().String()

	var newEntry domain.VaultEntry
	if params.HardwareResident {
		newEntry = domain.NewHardwareResidentEntry(id, params.Label, params.Type, params.Tags, now, now, 1, params.HardwareObjectID)
	} else {
		eek, err := primitives.DeriveEEK(vmk, id, 1)
		if err != nil {
			return domain.Envelope{}, domain.VaultEntry{}, err
		}
		defer primitives.Scrub(eek)

		iv, ciphertext, tag, err := primitives.Encrypt(eek, params.Value)
		if err != nil {
			return domain.Envelope{}, domain.VaultEntry{}, err
		}
		newEntry = domain.NewStoredEntry(id, params.Label, params.Type, params.Tags, now, now, 1,
			domain.Ciphertext{IV: iv, Ciphertext: ciphertext, AuthTag: tag})
	}

	env.Entries = append(env.Entries, newEntry)
	env = store.TouchEnvelope(env, vmk, now)
	return env, newEntry, nil
}

// Retrieve decrypts and returns the plaintext value stored under label.
// Fails with ErrEntryNotFound if no entry carries the label, or
// ErrHardwareResident if the entry's key material lives outside the
// envelope. The returned plaintext is owned by the caller, who must scrub
// it once done.
func Retrieve(env domain.Envelope, vmk []byte, label string) (domain.VaultEntry, []byte, error) {
	ent, _, ok := env.EntryByLabel(label)
	if !ok {
		return domain.VaultEntry{}, nil, domain.ErrEntryNotFound
	}
	if ent.HardwareResident {
		return domain.VaultEntry{}, nil, domain.ErrHardwareResident
	}

	ct, ok := ent.CiphertextTriple()
	if !ok {
		return domain.VaultEntry{}, nil, domain.ErrHardwareResident
	}

	eek, err := primitives.DeriveEEK(vmk, ent.ID, ent.Version)
	if err != nil {
		return domain.VaultEntry{}, nil, err
	}
	defer primitives.Scrub(eek)

	plaintext, err := primitives.Decrypt(eek, ct.IV, ct.Ciphertext, ct.AuthTag)
	if err != nil {
		return domain.VaultEntry{}, nil, err
	}
	return ent, plaintext, nil
}

// ListFilter restricts List to entries matching both conditions when both
// are set. Type uses exact equality; Tag uses exact membership.
type ListFilter struct {
	Type domain.EntryType
	Tag  string
}

func (f ListFilter) matches(e domain.VaultEntry) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Tag != "" && !e.HasTag(f.Tag) {
		return false
	}
	return true
}

// List returns metadata for every entry matching filter, in envelope order.
// No key material or plaintext is ever returned.
func List(env domain.Envelope, filter ListFilter) []domain.Metadata {
	out := make([]domain.Metadata, 0, len(env.Entries))
	for _, e := range env.Entries {
		if filter.matches(e) {
			out = append(out, e.ToMetadata())
		}
	}
	return out
}

// Delete removes the entry with the given label. Fails with
// ErrEntryNotFound if absent. Deletion is logical: the returned envelope is
// rewritten (touched) without that entry; no shredding beyond the normal
// atomic rewrite of the file on persistence.
func Delete(env domain.Envelope, vmk []byte, label string, now time.Time) (domain.Envelope, error) {
	_, idx, ok := env.EntryByLabel(label)
	if !ok {
		return domain.Envelope{}, domain.ErrEntryNotFound
	}

	entries := make([]domain.VaultEntry, 0, len(env.Entries)-1)
	entries = append(entries, env.Entries[:idx]...)
	entries = append(entries, env.Entries[idx+1:]...)
	env.Entries = entries

	return store.TouchEnvelope(env, vmk, now), nil
}

// RotateEntry decrypts the entry under its current EEK, re-encrypts under a
// fresh EEK for version+1, and replaces the stored ciphertext triple.
// Hardware-resident entries cannot be rotated at the vault level and fail
// with ErrHardwareResident.
func RotateEntry(env domain.Envelope, vmk []byte, label string, now time.Time) (domain.Envelope, error) {
	ent, idx, ok := env.EntryByLabel(label)
	if !ok {
		return domain.Envelope{}, domain.ErrEntryNotFound
	}
	if ent.HardwareResident {
		return domain.Envelope{}, domain.ErrHardwareResident
	}

	_, plaintext, err := Retrieve(env, vmk, label)
	if err != nil {
		return domain.Envelope{}, err
	}
	defer primitives.Scrub(plaintext)

	newVersion := ent.Version + 1
	newEEK, err := primitives.DeriveEEK(vmk, ent.ID, newVersion)
	if err != nil {
		return domain.Envelope{}, err
	}
	defer primitives.Scrub(newEEK)

	iv, ciphertext, tag, err := primitives.Encrypt(newEEK, plaintext)
	if err != nil {
		return domain.Envelope{}, err
	}

	rotated := ent.WithCiphertext(domain.Ciphertext{IV: iv, Ciphertext: ciphertext, AuthTag: tag}, newVersion, now)

	entries := append([]domain.VaultEntry(nil), env.Entries...)
	entries[idx] = rotated
	env.Entries = entries

	return store.TouchEnvelope(env, vmk, now), nil
}

// RotateMaster re-keys every non-hardware-resident entry from oldVMK to
// newVMK, resetting each entry's version to 1, and re-seals the VMK with b
// under newVMK. Hardware-resident entries pass through untouched. The
// envelope's VMK version increments by one.
func RotateMaster(ctx context.Context, env domain.Envelope, oldVMK, newVMK []byte, b backend.Backend, now time.Time) (domain.Envelope, error) {
	entries := make([]domain.VaultEntry, len(env.Entries))

	for i, ent := range env.Entries {
		if ent.HardwareResident {
			entries[i] = ent
			continue
		}

		ct, ok := ent.CiphertextTriple()
		if !ok {
			entries[i] = ent
			continue
		}

		oldEEK, err := primitives.DeriveEEK(oldVMK, ent.ID, ent.Version)
		if err != nil {
			return domain.Envelope{}, err
		}
		plaintext, err := primitives.Decrypt(oldEEK, ct.IV, ct.Ciphertext, ct.AuthTag)
		primitives.Scrub(oldEEK)
		if err != nil {
			return domain.Envelope{}, err
		}

		newEEK, err := primitives.DeriveEEK(newVMK, ent.ID, 1)
		if err != nil {
			primitives.Scrub(plaintext)
			return domain.Envelope{}, err
		}
		iv, ciphertext, tag, err := primitives.Encrypt(newEEK, plaintext)
		primitives.Scrub(newEEK)
		primitives.Scrub(plaintext)
		if err != nil {
			return domain.Envelope{}, err
		}

		entries[i] = ent.WithCiphertext(domain.Ciphertext{IV: iv, Ciphertext: ciphertext, AuthTag: tag}, 1, now)
	}

	sealedVMK, err := b.Seal(ctx, newVMK)
	if err != nil {
		return domain.Envelope{}, err
	}

	env.Entries = entries
	env.SealedVMK = sealedVMK
	env.Metadata.VMKVersion++

	return store.TouchEnvelope(env, newVMK, now), nil
}
