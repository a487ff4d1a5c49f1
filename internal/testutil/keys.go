// Package testutil provides deterministic fixtures for tests: signing keys
// derived from names and predictable execution IDs.
package testutil

import (
	"crypto/ed25519"
	"crypto/sha256"

	"github.com/roach88/fundledger/internal/ident"
)

// Key returns the ed25519 key for name. The same name always yields the
// same key, so scenario traces are reproducible.
func Key(name string) ed25519.PrivateKey {
	seed := sha256.Sum256([]byte("fundledger/testkey/" + name))
	return ed25519.NewKeyFromSeed(seed[:])
}

// Identity returns the public identity of Key(name).
func Identity(name string) ident.Identity {
	return ident.FromPublicKey(Key(name).Public().(ed25519.PublicKey))
}
