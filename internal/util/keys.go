package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPrefix marks a key part produced by HashKey.
const HashPrefix = "h:"

// HashKey returns a short, deterministic stand-in for an oversized key part:
// "h:" followed by the first 16 hex chars of its SHA-256.
func HashKey(part string) string {
	sum := sha256.Sum256([]byte(part))
	return HashPrefix + hex.EncodeToString(sum[:8])
}
