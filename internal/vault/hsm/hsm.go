// Package hsm declares the shape of the hardware adapter that callers must
// route through for hardware-resident entries. The vault core never invokes
// this interface itself — retrieving or rotating a hardware-resident entry
// at the vault level fails with HardwareResident by design (see
// internal/vault/entry) — so no implementation lives in this repository.
// A real adapter would bridge to a PKCS#11 token, a platform key store, or a
// cloud HSM, the way a real KMS/HSM integration is kept behind a narrow
// interface in the rest of this codebase.
package hsm

import "context"

// Adapter operates on key material that exists only inside an external
// hardware module. The envelope stores only HardwareObjectID; Adapter
// resolves that identifier against the module itself.
type Adapter interface {
	// Retrieve returns the plaintext payload associated with objectID. The
	// caller is responsible for scrubbing the returned bytes.
	Retrieve(ctx context.Context, objectID string) ([]byte, error)

	// Rotate replaces the key material behind objectID, returning the new
	// object identifier (which may differ from objectID depending on the
	// module's rotation semantics).
	Rotate(ctx context.Context, objectID string) (newObjectID string, err error)
}
