package domain

import "time"

// Ciphertext is the AEAD triple produced by encrypting an entry's payload
// under its per-version EEK.
type Ciphertext struct {
	IV         []byte
	Ciphertext []byte
	AuthTag    []byte
}

// VaultEntry is an append-only record for one secret. It is modeled as a
// tagged variant rather than a struct with nullable ciphertext fields: a
// hardware-resident entry is constructed through NewHardwareResidentEntry
// and can never carry a Ciphertext; a stored entry is constructed through
// NewStoredEntry and always carries one. Both constructors are the only way
// to produce a VaultEntry, so "ciphertext absent iff hardware-resident" is
// enforced by construction, not by convention.
type VaultEntry struct {
	ID             string
	Label          string
	Type           EntryType
	Tags           []string
	CreatedAt      time.Time
	ModifiedAt     time.Time
	Version        int
	HardwareResident bool
	HardwareObjectID string

	ciphertext *Ciphertext
}

// NewStoredEntry builds a non-hardware-resident entry carrying ct.
func NewStoredEntry(id, label string, typ EntryType, tags []string, createdAt, modifiedAt time.Time, version int, ct Ciphertext) VaultEntry {
	return VaultEntry{
		ID:         id,
		Label:      label,
		Type:       typ,
		Tags:       tags,
		CreatedAt:  createdAt,
		ModifiedAt: modifiedAt,
		Version:    version,
		ciphertext: &ct,
	}
}

// NewHardwareResidentEntry builds an entry whose key material lives in an
// external hardware module; no ciphertext is ever attached to it.
func NewHardwareResidentEntry(id, label string, typ EntryType, tags []string, createdAt, modifiedAt time.Time, version int, hardwareObjectID string) VaultEntry {
	return VaultEntry{
		ID:               id,
		Label:            label,
		Type:             typ,
		Tags:             tags,
		CreatedAt:        createdAt,
		ModifiedAt:       modifiedAt,
		Version:          version,
		HardwareResident: true,
		HardwareObjectID: hardwareObjectID,
	}
}

// Ciphertext returns the entry's AEAD triple and true, or the zero value and
// false if the entry is hardware-resident.
func (e VaultEntry) CiphertextTriple() (Ciphertext, bool) {
	if e.ciphertext == nil {
		return Ciphertext{}, false
	}
	return *e.ciphertext, true
}

// WithCiphertext returns a copy of e carrying a new ciphertext triple and
// version, used by rotate-entry and rotate-master. Calling this on a
// hardware-resident entry is a programmer error; callers must check
// HardwareResident first.
func (e VaultEntry) WithCiphertext(ct Ciphertext, version int, modifiedAt time.Time) VaultEntry {
	e.ciphertext = &ct
	e.Version = version
	e.ModifiedAt = modifiedAt
	return e
}

// HasTag reports whether tag appears in the entry's tag set, by exact
// membership.
func (e VaultEntry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Metadata is the subset of a VaultEntry returned by List: no key material,
// no ciphertext, no plaintext.
type Metadata struct {
	ID               string
	Label            string
	Type             EntryType
	Tags             []string
	CreatedAt        time.Time
	ModifiedAt       time.Time
	Version          int
	HardwareResident bool
}

// ToMetadata projects a VaultEntry down to its metadata view.
func (e VaultEntry) ToMetadata() Metadata {
	return Metadata{
		ID:               e.ID,
		Label:            e.Label,
		Type:             e.Type,
		Tags:             e.Tags,
		CreatedAt:        e.CreatedAt,
		ModifiedAt:       e.ModifiedAt,
		Version:          e.Version,
		HardwareResident: e.HardwareResident,
	}
}
