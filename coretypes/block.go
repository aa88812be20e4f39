package coretypes

// Withdrawal is opaque to execution other than its coinbase credit
// (spec.md §3).
type Withdrawal struct {
	Index          uint64
	ValidatorIndex uint64
	Address        Address
	AmountGwei     uint64
}

// Block is a header plus its transactions and withdrawals. Ommers must be
// empty post-merge (spec.md §3).
type Block struct {
	Header       BlockHeader
	Transactions []*Transaction
	Withdrawals  []Withdrawal
}

// BlobVersionedHashes concatenates each transaction's blob-versioned
// hashes in inclusion order (spec.md §4.3 rule 3 / §8.2).
func (b *Block) BlobVersionedHashes() []Hash {
	var out []Hash
	for _, tx := range b.Transactions {
		out = append(out, tx.BlobVersionedHash...)
	}
	return out
}

// WithdrawalsRoot content-addresses the withdrawal list in inclusion
// order, the same "Keccak256 over a fixed, length-prefixed framing"
// convention BlockHeader.Hash uses in place of a real trie root.
func WithdrawalsRoot(withdrawals []Withdrawal) Hash {
	buf := make([]byte, 0, 64*len(withdrawals))
	for _, w := range withdrawals {
		buf = appendUint64(buf, w.Index)
		buf = appendUint64(buf, w.ValidatorIndex)
		buf = append(buf, w.Address[:]...)
		buf = appendUint64(buf, w.AmountGwei)
	}
	return Keccak256(buf)
}

// Receipt records the outcome of executing one transaction, consumed by
// the Eth API's GetTransactionReceipt/GetBlockReceipts projections
// (SPEC_FULL.md §4.4).
type Receipt struct {
	TxHash            Hash
	Status            bool
	GasUsed           uint64
	CumulativeGasUsed uint64
	Logs              []Log
	Bloom             [256]byte
	ContractAddress   *Address
	BlobGasUsed       uint64
}

// Log is a single EVM log entry.
type Log struct {
	Address Address
	Topics  []Hash
	Data    []byte
}
