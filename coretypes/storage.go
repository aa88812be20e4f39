package coretypes

// StorageKey identifies a single 32-byte storage slot within an account.
type StorageKey = Hash

// StorageValue is the 32-byte value stored at a slot. The zero value is
// semantically equivalent to absence (spec.md §3): writing zero may
// delete the slot rather than persisting an explicit zero entry.
type StorageValue = Hash

// Code is content-addressed bytecode: identical bytes always share one
// entry under CodeHash(bytes); orphaned entries are permitted (no
// reference counting, spec.md §3).
type Code []byte

// CodeHash returns the content address for code.
func CodeHash(code []byte) Hash {
	if len(code) == 0 {
		return EmptyCodeHash
	}
	return Keccak256(code)
}
