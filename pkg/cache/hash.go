package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// hashKey builds a namespaced cache key from its components. Components are
// hashed, never concatenated, so emails and repository paths cannot leak
// into backend key listings or file names.
func hashKey(prefix string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0}) // separator, so ("ab","c") != ("a","bc")
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 digest of data. Used for file fan-out paths
// and repository scoping prefixes.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
