package ident

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"

	"github.com/roach88/fundledger/internal/fault"
)

// MaxSeedLen is the longest seed Derive accepts, in bytes.
const MaxSeedLen = 32

// derivedMarker may not terminate a program identity used for derivation.
// It keeps seed-derived addresses disjoint from program-derived ones.
var derivedMarker = []byte("ProgramDerivedAddress")

// Derive computes the storage address bound to (authority, seed) under program.
//
//	address = SHA256(authority || seed || program)
//
// For a fixed program the result is deterministic, and distinct
// (authority, seed) pairs yield distinct addresses with overwhelming
// probability. Seeds longer than MaxSeedLen fail with InvalidArgument.
func Derive(authority Identity, seed string, program Identity) (Identity, error) {
	if len(seed) > MaxSeedLen {
		return Zero, fault.New(fault.InvalidArgument, "seed is %d bytes, max %d", len(seed), MaxSeedLen)
	}
	if bytes.HasSuffix(program[:], derivedMarker) {
		return Zero, fault.New(fault.InvalidArgument, "program identity ends with reserved marker")
	}

	h := sha256.New()
	h.Write(authority[:])
	h.Write([]byte(seed))
	h.Write(program[:])

	var out Identity
	copy(out[:], h.Sum(nil))
	return out, nil
}

// MustDerive is like Derive but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDerive(authority Identity, seed string, program Identity) Identity {
	id, err := Derive(authority, seed, program)
	if err != nil {
		panic(err)
	}
	return id
}

// VerifyDerived recomputes Derive(authority, seed, program) and requires it
// to equal addr. A mismatch is an AuthorizationMismatch on addr.
func VerifyDerived(addr, authority Identity, seed string, program Identity) error {
	expected, err := Derive(authority, seed, program)
	if err != nil {
		return err
	}
	if expected != addr {
		return fault.New(fault.AuthorizationMismatch,
			"address does not derive from authority %s and seed %q", authority, seed).WithAccount(addr)
	}
	return nil
}

// InvestmentSeed is the seed an investor derives their investment cell from.
// It is the hex form of the first 16 bytes of the organization cell address,
// which is exactly MaxSeedLen characters and binds one investment cell to one
// (investor, organization) pair.
func InvestmentSeed(organization Identity) string {
	return hex.EncodeToString(organization[:MaxSeedLen/2])
}
