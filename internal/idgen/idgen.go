// Package idgen generates the random record identifiers used across the API.
//
// Identifiers are a short type prefix followed by 24 lowercase hex characters,
// e.g. usr_, fp_, rg_, sig_. The prefix makes IDs self-describing in logs and
// keeps stores database-agnostic.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
)

const idBytes = 12

// WithPrefix returns prefix + 24 random hex characters.
func WithPrefix(prefix string) string {
	return prefix + Hex(idBytes)
}

// Hex returns numBytes of cryptographic randomness as lowercase hex.
func Hex(numBytes int) string {
	b := make([]byte, numBytes)
	if _, err := rand.Read(b); err != nil {
		panic("idgen: crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
