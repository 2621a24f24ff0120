package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns prefix-<16 hex digits>, or prefix-unknown when the system
// random source fails. An empty prefix yields the bare hex digits.
func NewID(prefix string) string {
	b := make([]byte, 8)
	id := "unknown"
	if _, err := rand.Read(b); err == nil {
		id = hex.EncodeToString(b)
	}
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}
