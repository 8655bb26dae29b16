package store

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/nullsector/teevault/internal/vault/domain"
)

// CanonicalEntrySerialization builds the HMAC input: the textual form
// "id:version:base64(ciphertext):base64(tag)" per entry, joined by "|" in
// list order. Hardware-resident entries contribute empty ciphertext/tag
// fields, so their integrity binding covers only id and version.
func CanonicalEntrySerialization(entries []domain.VaultEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		var ctB64, tagB64 string
		if ct, ok := e.CiphertextTriple(); ok {
			ctB64 = base64.StdEncoding.EncodeToString(ct.Ciphertext)
			tagB64 = base64.StdEncoding.EncodeToString(ct.AuthTag)
		}
		parts[i] = e.ID + ":" + strconv.Itoa(e.Version) + ":" + ctB64 + ":" + tagB64
	}
	return strings.Join(parts, "|")
}
