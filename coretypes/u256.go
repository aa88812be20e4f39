package coretypes

import (
	"math/big"

	"github.com/holiman/uint256"
)

// U256 is an unsigned 256-bit integer, used for balances, storage values,
// gas prices and fee fields. It wraps holiman/uint256 (the teacher's own
// numeric type, see revm_bridge/statedb.go) and adds the little-endian /
// big-endian / hash conversions spec.md §3 requires.
type U256 struct {
	inner uint256.Int
}

// NewU256FromUint64 builds a U256 from a native uint64.
func NewU256FromUint64(v uint64) U256 {
	var u U256
	u.inner.SetUint64(v)
	return u
}

// NewU256FromBig builds a U256 from a big-endian math/big.Int, truncating
// to 256 bits if larger.
func NewU256FromBig(b *big.Int) U256 {
	var u U256
	if b != nil {
		u.inner.SetFromBig(b)
	}
	return u
}

// U256FromBigEndian decodes a big-endian byte slice (any length <= 32).
func U256FromBigEndian(b []byte) U256 {
	var u U256
	u.inner.SetBytes(b)
	return u
}

// U256FromLittleEndianLimbs decodes a little-endian 32-byte slice, the
// representation the pluggable EVM backend hands back for balances (see
// original_source/crates/evm/evm.rs's `U256::from_little_endian`).
func U256FromLittleEndianLimbs(le []byte) U256 {
	var u U256
	var rev [32]byte
	n := len(le)
	if n > 32 {
		n = 32
	}
	for i := 0; i < n; i++ {
		rev[32-1-i] = le[i]
	}
	u.inner.SetBytes(rev[:])
	return u
}

// U256FromHash reinterprets a 32-byte Hash as a big-endian U256 — the
// representation used for storage slot keys/values.
func U256FromHash(h Hash) U256 {
	var u U256
	u.inner.SetBytes(h[:])
	return u
}

// Big returns the value as a math/big.Int.
func (u U256) Big() *big.Int { return u.inner.ToBig() }

// Bytes32 returns the canonical 32-byte big-endian encoding.
func (u U256) Bytes32() [32]byte { return u.inner.Bytes32() }

// Hash reinterprets the value as a 32-byte Hash (big-endian), the
// representation storage keys/values are persisted under.
func (u U256) Hash() Hash {
	b := u.inner.Bytes32()
	return Hash(b)
}

// LittleEndianLimbs returns the little-endian 32-byte encoding, the wire
// shape the pluggable EVM backend consumes/produces for balances.
func (u U256) LittleEndianLimbs() [32]byte {
	be := u.inner.Bytes32()
	var le [32]byte
	for i := 0; i < 32; i++ {
		le[i] = be[31-i]
	}
	return le
}

// IsZero reports whether the value is zero.
func (u U256) IsZero() bool { return u.inner.IsZero() }

// Eq reports value equality.
func (u U256) Eq(o U256) bool { return u.inner.Eq(&o.inner) }

// Cmp compares u to o per the usual -1/0/1 convention.
func (u U256) Cmp(o U256) int { return u.inner.Cmp(&o.inner) }

// Add returns u+o, wrapping on overflow (mod 2^256), matching uint256
// semantics used throughout the pack.
func (u U256) Add(o U256) U256 {
	var out U256
	out.inner.Add(&u.inner, &o.inner)
	return out
}

// Sub returns u-o, wrapping on underflow.
func (u U256) Sub(o U256) U256 {
	var out U256
	out.inner.Sub(&u.inner, &o.inner)
	return out
}

// Mul returns u*o, wrapping on overflow (mod 2^256).
func (u U256) Mul(o U256) U256 {
	var out U256
	out.inner.Mul(&u.inner, &o.inner)
	return out
}

// MulUint64 returns u*v, wrapping on overflow.
func (u U256) MulUint64(v uint64) U256 {
	var out U256
	var ov uint256.Int
	ov.SetUint64(v)
	out.inner.Mul(&u.inner, &ov)
	return out
}

func (u U256) String() string { return u.inner.String() }

// MarshalText encodes as a 0x-prefixed hex quantity (gencodec-style).
func (u U256) MarshalText() ([]byte, error) {
	return []byte("0x" + u.inner.Hex()[2:]), nil
}

// UnmarshalText decodes a 0x-prefixed hex quantity.
func (u *U256) UnmarshalText(input []byte) error {
	return u.inner.UnmarshalText(input)
}
