// Package eth exposes the read-only public Eth API projections over the
// Store (SPEC_FULL.md §4.4's "(ADDED) Public Eth API projections",
// recovered from original_source/crates/rpc/handler.rs). Every method is
// a pure read — no transaction ever lands here, matching the teacher's
// own separation between its consensus/engine RPC surface and its public
// `eth_*` namespace.
package eth

import (
	"errors"

	"github.com/ethexec/execlayer/corestate"
	"github.com/ethexec/execlayer/coretypes"
)

// API wraps a Store handle with the read-only eth_* / admin_* projections.
type API struct {
	store   corestate.Store
	chainID uint64
}

// NewAPI builds an API over store for the given chain id.
func NewAPI(store corestate.Store, chainID uint64) *API {
	return &API{store: store, chainID: chainID}
}

// ChainID implements eth_chainId.
func (a *API) ChainID() uint64 { return a.chainID }

// Syncing implements eth_syncing: this module never runs a sync protocol
// of its own (P2P is a non-goal), so it always reports caught up.
func (a *API) Syncing() bool { return false }

// GetBlockByNumber implements eth_getBlockByNumber.
func (a *API) GetBlockByNumber(number uint64) (coretypes.BlockHeader, []coretypes.Receipt, bool, error) {
	header, ok, err := a.store.GetBlockHeader(number)
	if err != nil || !ok {
		return coretypes.BlockHeader{}, nil, ok, err
	}
	receipts, _, err := a.store.GetReceipts(number)
	if err != nil {
		return coretypes.BlockHeader{}, nil, false, err
	}
	return header, receipts, true, nil
}

// GetBlockByHash implements eth_getBlockByHash.
func (a *API) GetBlockByHash(hash coretypes.Hash) (coretypes.BlockHeader, []coretypes.Receipt, bool, error) {
	number, ok, err := a.store.GetBlockNumber(hash)
	if err != nil || !ok {
		return coretypes.BlockHeader{}, nil, ok, err
	}
	return a.GetBlockByNumber(number)
}

// GetBalance implements eth_getBalance.
func (a *API) GetBalance(addr coretypes.Address) (coretypes.U256, error) {
	info, _, err := a.store.GetAccountInfo(addr)
	if err != nil {
		return coretypes.U256{}, err
	}
	return info.Balance, nil
}

// GetCode implements eth_getCode.
func (a *API) GetCode(addr coretypes.Address) ([]byte, error) {
	info, ok, err := a.store.GetAccountInfo(addr)
	if err != nil || !ok || !info.HasCode() {
		return nil, err
	}
	code, _, err := a.store.GetAccountCode(info.CodeHash)
	return code, err
}

// GetStorageAt implements eth_getStorageAt.
func (a *API) GetStorageAt(addr coretypes.Address, key coretypes.Hash) (coretypes.Hash, error) {
	v, _, err := a.store.GetStorageAt(addr, key)
	return v, err
}

// GetBlockTransactionCountByNumber implements
// eth_getBlockTransactionCountByNumber. Since the Store only persists
// receipts (not the decoded transaction bodies) alongside a block, the
// count is read off the receipt list the payload pipeline stores with the
// block via Store.AddBlock.
func (a *API) GetBlockTransactionCountByNumber(number uint64) (int, error) {
	receipts, ok, err := a.store.GetReceipts(number)
	if err != nil || !ok {
		return 0, err
	}
	return len(receipts), nil
}

var errIndexOutOfRange = errors.New("eth: transaction index out of range")

// GetTransactionByBlockNumberAndIndex implements
// eth_getTransactionByBlockNumberAndIndex, returning the receipt at
// index (transaction bodies themselves are not retained by the Store
// past execution, spec.md §4.2).
func (a *API) GetTransactionByBlockNumberAndIndex(number uint64, index int) (coretypes.Receipt, error) {
	receipts, ok, err := a.store.GetReceipts(number)
	if err != nil {
		return coretypes.Receipt{}, err
	}
	if !ok || index < 0 || index >= len(receipts) {
		return coretypes.Receipt{}, errIndexOutOfRange
	}
	return receipts[index], nil
}

// GetTransactionByBlockHashAndIndex implements
// eth_getTransactionByBlockHashAndIndex.
func (a *API) GetTransactionByBlockHashAndIndex(hash coretypes.Hash, index int) (coretypes.Receipt, error) {
	number, ok, err := a.store.GetBlockNumber(hash)
	if err != nil || !ok {
		return coretypes.Receipt{}, err
	}
	return a.GetTransactionByBlockNumberAndIndex(number, index)
}

// GetBlockReceipts implements eth_getBlockReceipts.
func (a *API) GetBlockReceipts(number uint64) ([]coretypes.Receipt, error) {
	receipts, _, err := a.store.GetReceipts(number)
	return receipts, err
}

// GetTransactionByHash implements eth_getTransactionByHash, resolving the
// location index the payload pipeline's Store.AddBlock call wrote.
func (a *API) GetTransactionByHash(hash coretypes.Hash) (coretypes.Receipt, bool, error) {
	number, index, ok, err := a.store.GetTransactionLocation(hash)
	if err != nil || !ok {
		return coretypes.Receipt{}, false, err
	}
	receipts, ok, err := a.store.GetReceipts(number)
	if err != nil || !ok || index >= len(receipts) {
		return coretypes.Receipt{}, false, err
	}
	return receipts[index], true, nil
}

// GetTransactionReceipt implements eth_getTransactionReceipt.
func (a *API) GetTransactionReceipt(hash coretypes.Hash) (coretypes.Receipt, bool, error) {
	return a.GetTransactionByHash(hash)
}

// NodeInfo is the admin_nodeInfo projection.
type NodeInfo struct {
	ChainID uint64
}

// NodeInfo implements admin_nodeInfo.
func (a *API) NodeInfo() NodeInfo {
	return NodeInfo{ChainID: a.chainID}
}
