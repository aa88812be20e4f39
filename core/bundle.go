// Package core implements the Execution adapter of spec.md §4.1: a
// pluggable EVM backend (package core/vm) plus the mutable transition
// bundle that accumulates per-transaction effects until they are applied
// to the Store in one batch. Grounded 1:1 on
// revm_bridge/statedb.go's stateDBImpl.pendingBasic/pendingStorage and
// flushPending().
package core

import (
	"sync"

	"github.com/ethexec/execlayer/coretypes"
)

// StorageSlot tracks one slot's original (pre-block) value, its current
// in-bundle value, and whether it has actually changed (spec.md §3).
type StorageSlot struct {
	Original coretypes.Hash
	Present  coretypes.Hash
	Changed  bool
}

// BundleAccount is the per-address entry in a TransitionBundle (spec.md
// §3): status flags plus an optional new AccountInfo/code payload and a
// slot map.
type BundleAccount struct {
	Modified  bool
	Destroyed bool
	// WasDestroyed latches true the moment a SELFDESTRUCT hits this
	// address and, unlike Destroyed, is never cleared by a later
	// SetAccountInfo in the same block: it tells Apply that any
	// recreated account at this address still needs its pre-destruction
	// storage wiped from the Store (spec.md §8 boundary scenario 6),
	// mirroring revm's DestroyedChanged account status.
	WasDestroyed    bool
	InfoChanged     bool
	ContractChanged bool

	Info     coretypes.AccountInfo
	Code     []byte
	CodeHash coretypes.Hash

	Storage map[coretypes.Hash]*StorageSlot
}

// TransitionBundle is the in-memory accumulator owned exclusively by one
// Execution adapter for the duration of one block's execution (spec.md
// §3's ownership model: "never mutated mid-block; all writes are
// collapsed and applied once after the last transaction").
type TransitionBundle struct {
	mu         sync.Mutex
	accounts   map[coretypes.Address]*BundleAccount
	codeByHash map[coretypes.Hash][]byte
	reader     bundleReader
}

// bundleReader supplies the original (pre-block) values a bundle needs
// the first time an address/slot is touched, so StorageSlot.Original is
// populated correctly even though the bundle itself never reads the
// Store directly outside of that lazy fill.
type bundleReader interface {
	GetAccountInfo(coretypes.Address) (coretypes.AccountInfo, bool, error)
	GetStorageAt(coretypes.Address, coretypes.Hash) (coretypes.Hash, bool, error)
}

// NewTransitionBundle constructs an empty bundle backed by reader for
// lazily filling original values.
func NewTransitionBundle(reader bundleReader) *TransitionBundle {
	return &TransitionBundle{accounts: make(map[coretypes.Address]*BundleAccount), reader: reader}
}

func (b *TransitionBundle) account(addr coretypes.Address) *BundleAccount {
	ba, ok := b.accounts[addr]
	if !ok {
		ba = &BundleAccount{Storage: make(map[coretypes.Hash]*StorageSlot)}
		b.accounts[addr] = ba
	}
	return ba
}

// SetAccountInfo implements vm.StateSink.
func (b *TransitionBundle) SetAccountInfo(addr coretypes.Address, info coretypes.AccountInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ba := b.account(addr)
	if ba.InfoChanged && ba.Info.CodeHash != info.CodeHash {
		ba.ContractChanged = true
	} else if !ba.InfoChanged {
		var prior coretypes.AccountInfo
		if b.reader != nil {
			prior, _, _ = b.reader.GetAccountInfo(addr)
		}
		if prior.CodeHash != info.CodeHash {
			ba.ContractChanged = true
		}
	}
	ba.Modified = true
	ba.InfoChanged = true
	ba.Destroyed = false
	ba.Info = info
}

// SetCode implements vm.StateSink.
func (b *TransitionBundle) SetCode(codeHash coretypes.Hash, code []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Code is content-addressed and keyed independently of any one
	// address; callers associate it with an account via SetAccountInfo's
	// CodeHash field. The bundle still needs somewhere to stash the
	// bytes until apply, so it parks them under a synthetic per-hash
	// account-less slot.
	if b.codeByHash == nil {
		b.codeByHash = make(map[coretypes.Hash][]byte)
	}
	b.codeByHash[codeHash] = code
}

// SetStorage implements vm.StateSink.
func (b *TransitionBundle) SetStorage(addr coretypes.Address, key, value coretypes.Hash) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ba := b.account(addr)
	ba.Modified = true
	slot, ok := ba.Storage[key]
	if !ok {
		var original coretypes.Hash
		if b.reader != nil {
			original, _, _ = b.reader.GetStorageAt(addr, key)
		}
		slot = &StorageSlot{Original: original}
		ba.Storage[key] = slot
	}
	slot.Present = value
	slot.Changed = slot.Present != slot.Original
}

// DestroyAccount implements vm.StateSink.
func (b *TransitionBundle) DestroyAccount(addr coretypes.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ba := b.account(addr)
	ba.Modified = true
	ba.Destroyed = true
	ba.WasDestroyed = true
	ba.InfoChanged = false
	ba.ContractChanged = false
	ba.Info = coretypes.AccountInfo{}
	ba.Storage = make(map[coretypes.Hash]*StorageSlot)
}

// get returns the bundle entry for addr without creating one, for
// read-through consultation by the Database wrapper.
func (b *TransitionBundle) get(addr coretypes.Address) (*BundleAccount, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ba, ok := b.accounts[addr]
	return ba, ok
}

func (b *TransitionBundle) getCode(hash coretypes.Hash) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	code, ok := b.codeByHash[hash]
	return code, ok
}

func (b *TransitionBundle) getStorage(addr coretypes.Address, key coretypes.Hash) (coretypes.Hash, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ba, ok := b.accounts[addr]
	if !ok || ba.Destroyed {
		return coretypes.Hash{}, false
	}
	slot, ok := ba.Storage[key]
	if !ok {
		return coretypes.Hash{}, false
	}
	return slot.Present, true
}

// reset clears the bundle after apply, matching the "drained ... and
// reset" lifecycle of spec.md §3.
func (b *TransitionBundle) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts = make(map[coretypes.Address]*BundleAccount)
	b.codeByHash = nil
}
