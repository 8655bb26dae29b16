package domain

// BackendID identifies which sealing mechanism protects a vault's VMK. The
// set is closed: an envelope naming an identifier outside this set fails
// unlock with UnsupportedBackend.
type BackendID string

const (
	// BackendYubiHSM seals the VMK with a YubiHSM-wrapped key. Declared
	// shape only; this build has no YubiHSM transport.
	BackendYubiHSM BackendID = "yubihsm"

	// BackendDPAPITPM seals the VMK with a TPM-bound key, modeled here as a
	// gocloud.dev/secrets Keeper so any of its registered KMS schemes can
	// stand in for the platform TPM.
	BackendDPAPITPM BackendID = "dpapi+tpm"

	// BackendDPAPI seals the VMK with the OS user-scope data-protection API.
	// Declared shape only; no Windows DPAPI transport in this build.
	BackendDPAPI BackendID = "dpapi"

	// BackendOpenSSLPBKDF2 seals the VMK with a PBKDF2-HMAC-SHA256-derived
	// passphrase key. The only backend every implementation must provide.
	BackendOpenSSLPBKDF2 BackendID = "openssl-pbkdf2"
)

// IsValid reports whether id is one of the closed set of recognized backend
// identifiers.
func (id BackendID) IsValid() bool {
	switch id {
	case BackendYubiHSM, BackendDPAPITPM, BackendDPAPI, BackendOpenSSLPBKDF2:
		return true
	default:
		return false
	}
}

func (id BackendID) String() string {
	return string(id)
}
