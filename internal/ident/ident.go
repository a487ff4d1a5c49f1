package ident

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// Size is the byte length of an Identity.
const Size = 32

// Identity is an opaque fixed-size public identifier.
type Identity [Size]byte

// Zero is the all-zero identity.
var Zero Identity

// String returns the base58 text form.
func (id Identity) String() string {
	return base58.Encode(id[:])
}

// IsZero reports whether id is the all-zero identity.
func (id Identity) IsZero() bool {
	return id == Zero
}

// Equal reports whether two identities are the same value.
func (id Identity) Equal(other Identity) bool {
	return id == other
}

// MarshalText implements encoding.TextMarshaler (JSON and YAML use it).
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Parse decodes a base58 identity. The decoded value must be exactly Size bytes.
func Parse(s string) (Identity, error) {
	var id Identity
	if s == "" {
		return id, fmt.Errorf("parse identity: empty string")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return id, fmt.Errorf("parse identity %q: %w", s, err)
	}
	if len(raw) != Size {
		return id, fmt.Errorf("parse identity %q: got %d bytes, want %d", s, len(raw), Size)
	}
	copy(id[:], raw)
	return id, nil
}

// MustParse is like Parse but panics on error.
// Use only for constants and in tests.
func MustParse(s string) Identity {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// FromBytes copies b into an Identity. b must be exactly Size bytes.
func FromBytes(b []byte) (Identity, error) {
	var id Identity
	if len(b) != Size {
		return id, fmt.Errorf("identity from bytes: got %d bytes, want %d", len(b), Size)
	}
	copy(id[:], b)
	return id, nil
}

// FromPublicKey converts an ed25519 public key into an Identity.
func FromPublicKey(pk ed25519.PublicKey) Identity {
	var id Identity
	copy(id[:], pk)
	return id
}

// PublicKey returns id as an ed25519 public key for signature checks.
func (id Identity) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(id[:])
}
