package domain

// EntryType tags the kind of secret an entry holds. The set is closed; it
// does not gate encryption or retrieval, only list filtering and
// presentation.
type EntryType string

const (
	EntryTypeSecret     EntryType = "secret"
	EntryTypeAPIToken   EntryType = "api_token"
	EntryTypeSSHKey     EntryType = "ssh_key"
	EntryTypePrivateKey EntryType = "private_key"
	EntryTypeCertificate EntryType = "certificate"
)

// IsValid reports whether t is one of the closed set of recognized entry types.
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeSecret, EntryTypeAPIToken, EntryTypeSSHKey, EntryTypePrivateKey, EntryTypeCertificate:
		return true
	default:
		return false
	}
}

func (t EntryType) String() string {
	return string(t)
}
