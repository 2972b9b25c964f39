// Package ss58 formats and parses SS58 addresses, the base-58 account
// encoding used throughout the Substrate ecosystem. It wraps github.com/vedhavyas/go-subkey/v2, the library used for
// the same purpose in the pack's reference Substrate client
// (other_examples/.../aidenlippert-zerostate__libs-substrate-client.go.go).
package ss58

import (
	"fmt"

	subkey "github.com/vedhavyas/go-subkey/v2"
)

// GenericSubstrate is the network byte for the chain-agnostic "generic
// Substrate" address format.
const GenericSubstrate uint8 = 42

// Address is a 32-byte SR25519/ED25519 public key, the account identifier
// carried in extrinsics and storage keys.
type Address [32]byte

// String renders the address in SS58 form using the generic Substrate
// network byte.
func (a Address) String() string {
	return subkey.SS58Encode(a[:], GenericSubstrate)
}

// Bytes returns the raw 32-byte public key.
func (a Address) Bytes() []byte { return a[:] }

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool { return a == Address{} }

// Parse decodes an SS58-encoded address string into an Address, verifying
// that it carries the generic Substrate network byte.
func Parse(s string) (Address, error) {
	network, pub, err := subkey.SS58Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("ss58 decode %q: %w", s, err)
	}
	if network != GenericSubstrate {
		return Address{}, fmt.Errorf("ss58 decode %q: unexpected network byte %d", s, network)
	}
	if len(pub) != 32 {
		return Address{}, fmt.Errorf("ss58 decode %q: expected 32-byte public key, got %d", s, len(pub))
	}
	var a Address
	copy(a[:], pub)
	return a, nil
}

// FromPublicKey wraps a raw 32-byte public key as an Address without
// round-tripping through SS58 text.
func FromPublicKey(pub []byte) (Address, error) {
	if len(pub) != 32 {
		return Address{}, fmt.Errorf("public key must be 32 bytes, got %d", len(pub))
	}
	var a Address
	copy(a[:], pub)
	return a, nil
}
