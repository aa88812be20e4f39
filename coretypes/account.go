package coretypes

// AccountInfo is the persisted per-address account record. The empty
// account sentinel is the zero-balance, zero-nonce, empty-code-hash
// tuple (spec.md §3): Invariant: CodeHash indexes the Code table iff
// non-empty.
type AccountInfo struct {
	Balance  U256
	Nonce    uint64
	CodeHash Hash
}

// IsEmpty reports whether a is the empty-account sentinel.
func (a AccountInfo) IsEmpty() bool {
	return a.Balance.IsZero() && a.Nonce == 0 && (a.CodeHash.IsZero() || a.CodeHash == EmptyCodeHash)
}

// HasCode reports whether a references non-empty code.
func (a AccountInfo) HasCode() bool {
	return !a.CodeHash.IsZero() && a.CodeHash != EmptyCodeHash
}
