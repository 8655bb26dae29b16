// Package domain defines the vault's core data model: the envelope, its
// entries, and the closed sets (backend identifier, entry type) that
// constrain them.
package domain

import (
	"github.com/nullsector/teevault/internal/errors"
)

// Vault-specific error definitions, each wrapping one of the taxonomy
// sentinels in internal/errors.
var (
	// ErrEntryNotFound indicates no entry has the requested label.
	ErrEntryNotFound = errors.Wrap(errors.ErrNotFound, "entry not found")

	// ErrDuplicateLabel indicates an entry with the requested label already exists.
	ErrDuplicateLabel = errors.Wrap(errors.ErrConflict, "duplicate label")

	// ErrEmptyLabel indicates an add-entry call supplied an empty label.
	ErrEmptyLabel = errors.Wrap(errors.ErrInvalidInput, "label must not be empty")

	// ErrMissingHardwareObjectID indicates a hardware-resident add-entry
	// call did not supply a hardware object identifier.
	ErrMissingHardwareObjectID = errors.Wrap(errors.ErrInvalidInput, "hardware_object_id is required for hardware-resident entries")

	// ErrHardwareResident indicates the requested operation cannot be
	// served because the entry's key material lives in an external
	// hardware module.
	ErrHardwareResident = errors.Wrap(errors.ErrHardwareResident, "entry is hardware-resident")
)
