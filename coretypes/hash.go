package coretypes

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// HashLength is the byte width of a 32-byte digest/identifier.
const HashLength = 32

// Hash is a 32-byte identifier: block hash, code hash, storage key/value,
// blob-versioned hash.
type Hash [HashLength]byte

// BytesToHash left-pads or truncates b to HashLength bytes.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// HexToHash parses a 0x-prefixed or bare hex string into a Hash.
func HexToHash(s string) Hash {
	return BytesToHash(fromHex(s))
}

// Keccak256 returns the Keccak-256 digest of the concatenation of data.
func Keccak256(data ...[]byte) Hash {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out Hash
	h.Sum(out[:0])
	return out
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

// Bytes returns a copy of the hash bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, HashLength)
	copy(out, h[:])
	return out
}

// Hex returns the 0x-prefixed lowercase hex encoding.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(input []byte) error {
	b := fromHex(string(input))
	if len(b) != HashLength {
		return fmt.Errorf("coretypes: invalid hash length %d", len(b))
	}
	copy(h[:], b)
	return nil
}

// EmptyCodeHash is Keccak256 of the empty byte string — the code hash of
// an account with no code.
var EmptyCodeHash = Keccak256(nil)

// EmptyUncleHash is the fixed digest every post-merge header carries in
// its uncle-hash slot (ommers must be empty, spec.md §3).
var EmptyUncleHash = HexToHash("0x1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347")
