package primitives

import "github.com/nullsector/teevault/internal/vault/domain"

// Scrub overwrites b with zeros. Exposed here so callers that only import
// the primitives package (not domain) still have a scrub entry point for
// key material this package hands back.
func Scrub(b []byte) {
	domain.Zero(b)
}
