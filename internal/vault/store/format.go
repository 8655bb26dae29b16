// Package store implements the on-disk envelope: its JSON encoding, atomic
// persistence, canonical HMAC serialization, and the integrity refresh every
// mutating operation must apply before writing.
package store

import (
	"encoding/base64"
	"time"

	"github.com/nullsector/teevault/internal/vault/domain"
)

// fileEnvelope is the structural JSON encoding of domain.Envelope. Field
// ordering on disk is not meaningful; the canonical HMAC input is computed
// separately over the entry list, never over this struct's byte layout.
type fileEnvelope struct {
	Version   int              `json:"version"`
	Metadata  fileMetadata     `json:"metadata"`
	SealedVMK string           `json:"sealedVmk"`
	Entries   []fileEntry      `json:"entries"`
	HMAC      string           `json:"hmac"`
}

type fileMetadata struct {
	Backend        domain.BackendID `json:"backend"`
	CreatedAt      string           `json:"createdAt"`
	LastModifiedAt string           `json:"lastModifiedAt"`
	VMKVersion     int              `json:"vmkVersion"`
	EntryCount     int              `json:"entryCount"`
}

type fileEntry struct {
	ID            string          `json:"id"`
	Label         string          `json:"label"`
	Type          domain.EntryType `json:"type"`
	Tags          []string        `json:"tags"`
	CreatedAt     string          `json:"createdAt"`
	ModifiedAt    string          `json:"modifiedAt"`
	Version       int             `json:"version"`
	HSMResident   bool            `json:"hsmResident"`
	HSMObjectID   string          `json:"hsmObjectId,omitempty"`
	IV            string          `json:"iv,omitempty"`
	Ciphertext    string          `json:"ciphertext,omitempty"`
	AuthTag       string          `json:"authTag,omitempty"`
}

const timeLayout = time.RFC3339Nano

func toFileEnvelope(e domain.Envelope) fileEnvelope {
	entries := make([]fileEntry, len(e.Entries))
	for i, ent := range e.Entries {
		entries[i] = toFileEntry(ent)
	}

	return fileEnvelope{
		Version: e.Version,
		Metadata: fileMetadata{
			Backend:        e.Metadata.Backend,
			CreatedAt:      e.Metadata.CreatedAt.Format(timeLayout),
			LastModifiedAt: e.Metadata.LastModifiedAt.Format(timeLayout),
			VMKVersion:     e.Metadata.VMKVersion,
			EntryCount:     e.Metadata.EntryCount,
		},
		SealedVMK: e.SealedVMK,
		Entries:   entries,
		HMAC:      e.HMAC,
	}
}

func toFileEntry(ent domain.VaultEntry) fileEntry {
	fe := fileEntry{
		ID:          ent.ID,
		Label:       ent.Label,
		Type:        ent.Type,
		Tags:        ent.Tags,
		CreatedAt:   ent.CreatedAt.Format(timeLayout),
		ModifiedAt:  ent.ModifiedAt.Format(timeLayout),
		Version:     ent.Version,
		HSMResident: ent.HardwareResident,
		HSMObjectID: ent.HardwareObjectID,
	}

	if ct, ok := ent.CiphertextTriple(); ok {
		fe.IV = base64.StdEncoding.EncodeToString(ct.IV)
		fe.Ciphertext = base64.StdEncoding.EncodeToString(ct.Ciphertext)
		fe.AuthTag = base64.StdEncoding.EncodeToString(ct.AuthTag)
	}

	return fe
}

func fromFileEnvelope(fe fileEnvelope) (domain.Envelope, error) {
	createdAt, err := time.Parse(timeLayout, fe.Metadata.CreatedAt)
	if err != nil {
		return domain.Envelope{}, errCorrupted("metadata.createdAt", err)
	}
	modifiedAt, err := time.Parse(timeLayout, fe.Metadata.LastModifiedAt)
	if err != nil {
		return domain.Envelope{}, errCorrupted("metadata.lastModifiedAt", err)
	}

	entries := make([]domain.VaultEntry, len(fe.Entries))
	for i, fent := range fe.Entries {
		ent, err := fromFileEntry(fent)
		if err != nil {
			return domain.Envelope{}, err
		}
		entries[i] = ent
	}

	return domain.Envelope{
		Version: fe.Version,
		Metadata: domain.EnvelopeMetadata{
			Backend:        fe.Metadata.Backend,
			CreatedAt:      createdAt,
			LastModifiedAt: modifiedAt,
			VMKVersion:     fe.Metadata.VMKVersion,
			EntryCount:     fe.Metadata.EntryCount,
		},
		SealedVMK: fe.SealedVMK,
		Entries:   entries,
		HMAC:      fe.HMAC,
	}, nil
}

func fromFileEntry(fe fileEntry) (domain.VaultEntry, error) {
	createdAt, err := time.Parse(timeLayout, fe.CreatedAt)
	if err != nil {
		return domain.VaultEntry{}, errCorrupted("entry.createdAt", err)
	}
	modifiedAt, err := time.Parse(timeLayout, fe.ModifiedAt)
	if err != nil {
		return domain.VaultEntry{}, errCorrupted("entry.modifiedAt", err)
	}

	if fe.HSMResident {
		return domain.NewHardwareResidentEntry(fe.ID, fe.Label, fe.Type, fe.Tags, createdAt, modifiedAt, fe.Version, fe.HSMObjectID), nil
	}

	iv, err := base64.StdEncoding.DecodeString(fe.IV)
	if err != nil {
		return domain.VaultEntry{}, errCorrupted("entry.iv", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(fe.Ciphertext)
	if err != nil {
		return domain.VaultEntry{}, errCorrupted("entry.ciphertext", err)
	}
	tag, err := base64.StdEncoding.DecodeString(fe.AuthTag)
	if err != nil {
		return domain.VaultEntry{}, errCorrupted("entry.authTag", err)
	}

	ct := domain.Ciphertext{IV: iv, Ciphertext: ciphertext, AuthTag: tag}
	return domain.NewStoredEntry(fe.ID, fe.Label, fe.Type, fe.Tags, createdAt, modifiedAt, fe.Version, ct), nil
}
