package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// RegistryHash fingerprints the full particle registry contents
type RegistryHash Hash

// NewRegistryHash creates a registry hash from canonical snapshot bytes
func NewRegistryHash(data []byte) RegistryHash { return RegistryHash(NewHash(data)) }

// String returns the string representation
func (h RegistryHash) String() string { return Hash(h).String() }

// IsEmpty checks if the hash is empty
func (h RegistryHash) IsEmpty() bool { return Hash(h).IsEmpty() }
