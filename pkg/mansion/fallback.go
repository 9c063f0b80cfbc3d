package mansion

import (
	"crypto/sha256"
	"math/big"
)

var modulus = big.NewInt(Count)

// FallbackIndex hashes s with SHA-256, reads the digest as a big-endian unsigned
// integer and reduces it modulo 28
func FallbackIndex(s string) int {
	sum := sha256.Sum256([]byte(s))
	n := new(big.Int).SetBytes(sum[:])
	return int(n.Mod(n, modulus).Int64())
}

// Fallback picks a stand-in mansion for a YYYY-MM-DD date string. The index is taken
// over the description table order. The same string always yields the same mansion.
func Fallback(date string) Mansion {
	m, _ := Lookup(descriptions[FallbackIndex(date)].label)
	return m
}
