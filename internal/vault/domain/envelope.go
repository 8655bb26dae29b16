package domain

import "time"

// EnvelopeSchemaVersion is the only on-disk envelope version this build
// understands. Any other value read from disk fails with UnsupportedVersion.
const EnvelopeSchemaVersion = 1

// EnvelopeMetadata is the envelope's metadata block.
type EnvelopeMetadata struct {
	Backend        BackendID
	CreatedAt      time.Time
	LastModifiedAt time.Time
	VMKVersion     int
	EntryCount     int
}

// Envelope is the on-disk record: schema version, metadata, the opaque
// sealed VMK blob, the ordered entry list, and an HMAC tag binding the
// entry list against tampering. Envelope values are immutable; every
// mutating operation returns a new Envelope rather than modifying one in
// place.
type Envelope struct {
	Version   int
	Metadata  EnvelopeMetadata
	SealedVMK string
	Entries   []VaultEntry
	HMAC      string
}

// EntryByLabel returns the entry with the given label and its index, or
// ok=false if no entry has that label.
func (e Envelope) EntryByLabel(label string) (entry VaultEntry, index int, ok bool) {
	for i, ent := range e.Entries {
		if ent.Label == label {
			return ent, i, true
		}
	}
	return VaultEntry{}, -1, false
}

// HasLabel reports whether any entry in the envelope carries the given
// label.
func (e Envelope) HasLabel(label string) bool {
	_, _, ok := e.EntryByLabel(label)
	return ok
}
