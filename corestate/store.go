package corestate

import "github.com/ethexec/execlayer/coretypes"

// Store is the narrow read/write view of persisted state spec.md §4.2
// names: account info, code, storage, block-header/hash index, and the
// mutation primitives the Execution adapter's apply (§4.1) and the
// payload pipeline's persistence step (§4.3 rule 6) drive.
//
// Implementations are pluggable (at minimum an in-memory engine and a
// durable engine, spec.md §4.2) and must be safe for concurrent use: the
// Store is shared by many request handlers (spec.md §5).
type Store interface {
	// GetAccountInfo returns (info, true) iff addr is present.
	GetAccountInfo(addr coretypes.Address) (coretypes.AccountInfo, bool, error)
	// AddAccountInfo overwrites addr's account info.
	AddAccountInfo(addr coretypes.Address, info coretypes.AccountInfo) error
	// RemoveAccount deletes addr's info and all of its storage.
	RemoveAccount(addr coretypes.Address) error

	// AddAccountCode stores code under its content hash; idempotent.
	AddAccountCode(hash coretypes.Hash, code []byte) error
	// GetAccountCode returns (code, true) iff hash is present.
	GetAccountCode(hash coretypes.Hash) ([]byte, bool, error)

	// AddStorageAt overwrites the value at (addr, key).
	AddStorageAt(addr coretypes.Address, key, value coretypes.Hash) error
	// GetStorageAt returns (value, true) iff the slot is present.
	GetStorageAt(addr coretypes.Address, key coretypes.Hash) (coretypes.Hash, bool, error)

	// GetBlockHeader returns (header, true) iff block number is indexed.
	GetBlockHeader(number uint64) (coretypes.BlockHeader, bool, error)
	// AddBlock appends block and indexes its header by number.
	AddBlock(block *coretypes.Block, receipts []coretypes.Receipt) error
	// AddBlockNumber maps blockHash -> number.
	AddBlockNumber(blockHash coretypes.Hash, number uint64) error
	// GetBlockNumber resolves a block hash to its number.
	GetBlockNumber(blockHash coretypes.Hash) (uint64, bool, error)

	// GetReceipts returns the receipts recorded for block number.
	GetReceipts(number uint64) ([]coretypes.Receipt, bool, error)
	// GetTransactionLocation resolves which block/index a tx hash landed in.
	GetTransactionLocation(txHash coretypes.Hash) (blockNumber uint64, txIndex int, ok bool, err error)

	// GetCancunTime returns the chain config's Cancun activation timestamp,
	// if configured (spec.md §4.2).
	GetCancunTime() (uint64, bool)
	// SetCancunTime configures the activation timestamp, called once by
	// the genesis loader.
	SetCancunTime(ts uint64)
}
