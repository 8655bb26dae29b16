package primitives

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
)

// HMAC computes HMAC-SHA256(key, data), returning 32 bytes.
func HMAC(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// ConstantTimeVerify reports whether a and b are equal in length and
// content. Comparison time does not depend on where a mismatch occurs.
func ConstantTimeVerify(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
