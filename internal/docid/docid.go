// Package docid derives stable document identities for embedding cache keys.
package docid

import (
	"crypto/sha256"
	"encoding/hex"
)

const prefix = "doc:"

// ContentID returns a stable document ID derived from the document text.
// Same content always yields the same ID, so a cached embedding keyed by
// ContentID can never go stale against its text.
func ContentID(text string) string {
	hash := sha256.Sum256([]byte(text))
	return prefix + hex.EncodeToString(hash[:])
}
