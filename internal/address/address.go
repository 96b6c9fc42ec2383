// Package address defines the opaque identities used for members,
// hook subscribers and contracts.
package address

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

const (
	MaxLength = 64
	// Prefix marks addresses derived from keys or contract labels.
	Prefix = "poe"
	// hashSize is the blake2b digest length used for derived addresses.
	hashSize = 20
)

var ErrInvalid = errors.New("address: invalid address")

// Address identifies a member or a contract. Ordering is plain byte order.
type Address string

// Validate checks that a is 1..MaxLength characters of [a-z0-9_-].
func (a Address) Validate() error {
	if len(a) == 0 || len(a) > MaxLength {
		return fmt.Errorf("%w: length %d", ErrInvalid, len(a))
	}
	for i := 0; i < len(a); i++ {
		c := a[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '_' && c != '-' {
			return fmt.Errorf("%w: %q", ErrInvalid, string(a))
		}
	}
	return nil
}

func (a Address) String() string {
	return string(a)
}

func (a Address) Bytes() []byte {
	return []byte(a)
}

// Parse validates s and returns it as an Address.
func Parse(s string) (Address, error) {
	a := Address(s)
	if err := a.Validate(); err != nil {
		return "", err
	}
	return a, nil
}

// FromPublicKey derives the address owning an ed25519 key.
func FromPublicKey(pub ed25519.PublicKey) (Address, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", fmt.Errorf("%w: public key size %d", ErrInvalid, len(pub))
	}
	return derive(pub)
}

// Contract derives the deterministic address of the contract with the given label.
func Contract(label string) Address {
	a, err := derive([]byte("contract/" + label))
	if err != nil {
		// blake2b only fails for invalid sizes or keys
		panic(err)
	}
	return a
}

func derive(data []byte) (Address, error) {
	h, err := blake2b.New(hashSize, nil)
	if err != nil {
		return "", err
	}
	h.Write(data)
	return Address(Prefix + hex.EncodeToString(h.Sum(nil))), nil
}
