package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBackendIDIsValid(t *testing.T) {
	valid := []BackendID{BackendYubiHSM, BackendDPAPITPM, BackendDPAPI, BackendOpenSSLPBKDF2}
	for _, id := range valid {
		assert.True(t, id.IsValid(), id)
	}

	assert.False(t, BackendID("made-up").IsValid())
	assert.False(t, BackendID("").IsValid())
}

func TestEntryTypeIsValid(t *testing.T) {
	valid := []EntryType{EntryTypeSecret, EntryTypeAPIToken, EntryTypeSSHKey, EntryTypePrivateKey, EntryTypeCertificate}
	for _, typ := range valid {
		assert.True(t, typ.IsValid(), typ)
	}

	assert.False(t, EntryType("made-up").IsValid())
}
