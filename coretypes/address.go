// Package coretypes defines the data model shared by the Store adapter,
// the Execution adapter and the payload pipeline: addresses, hashes,
// 256-bit integers, accounts, headers, transactions and blocks.
package coretypes

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the byte width of an Ethereum-style account address.
const AddressLength = 20

// Address is a 20-byte account identifier.
type Address [AddressLength]byte

// BytesToAddress left-pads or truncates b to AddressLength bytes.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// HexToAddress parses a 0x-prefixed or bare hex string into an Address.
func HexToAddress(s string) Address {
	return BytesToAddress(fromHex(s))
}

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Bytes returns a copy of the address bytes.
func (a Address) Bytes() []byte {
	out := make([]byte, AddressLength)
	copy(out, a[:])
	return out
}

// Hex returns the 0x-prefixed lowercase hex encoding.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string { return a.Hex() }

// MarshalText implements encoding.TextMarshaler for JSON hex encoding.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(input []byte) error {
	b := fromHex(string(input))
	if len(b) != AddressLength {
		return fmt.Errorf("coretypes: invalid address length %d", len(b))
	}
	copy(a[:], b)
	return nil
}

func fromHex(s string) []byte {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}
