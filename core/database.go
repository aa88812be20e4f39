package core

import (
	"fmt"

	"github.com/ethexec/execlayer/core/vm"
	"github.com/ethexec/execlayer/corestate"
	"github.com/ethexec/execlayer/coretypes"
)

// storeDatabase is the read-through vm.Database view an Adapter presents
// to its Backend: reads consult the in-flight TransitionBundle first (so
// a transaction sees the effects of every earlier transaction in the
// same block) and fall back to the Store (spec.md §4.1). It never writes
// through to the Store — that only happens in Apply.
type storeDatabase struct {
	store  corestate.Store
	bundle *TransitionBundle
}

var _ vm.Database = (*storeDatabase)(nil)

func (d *storeDatabase) Basic(addr coretypes.Address) (coretypes.AccountInfo, bool, error) {
	if ba, ok := d.bundle.get(addr); ok {
		if ba.Destroyed {
			return coretypes.AccountInfo{}, false, nil
		}
		if ba.InfoChanged {
			return ba.Info, true, nil
		}
	}
	info, ok, err := d.store.GetAccountInfo(addr)
	if err != nil {
		return coretypes.AccountInfo{}, false, &EvmError{Kind: EvmDatabaseError, Err: err}
	}
	return info, ok, nil
}

func (d *storeDatabase) CodeByHash(hash coretypes.Hash) ([]byte, error) {
	if code, ok := d.bundle.getCode(hash); ok {
		return code, nil
	}
	code, ok, err := d.store.GetAccountCode(hash)
	if err != nil {
		return nil, &EvmError{Kind: EvmDatabaseError, Err: err}
	}
	if !ok {
		return nil, nil
	}
	return code, nil
}

func (d *storeDatabase) Storage(addr coretypes.Address, key coretypes.Hash) (coretypes.Hash, error) {
	if v, ok := d.bundle.getStorage(addr, key); ok {
		return v, nil
	}
	if ba, ok := d.bundle.get(addr); ok && ba.Destroyed {
		return coretypes.Hash{}, nil
	}
	v, ok, err := d.store.GetStorageAt(addr, key)
	if err != nil {
		return coretypes.Hash{}, &EvmError{Kind: EvmDatabaseError, Err: err}
	}
	if !ok {
		return coretypes.Hash{}, nil
	}
	return v, nil
}

func (d *storeDatabase) BlockHash(number uint64) (coretypes.Hash, error) {
	h, ok, err := d.store.GetBlockHeader(number)
	if err != nil {
		return coretypes.Hash{}, &EvmError{Kind: EvmDatabaseError, Err: err}
	}
	if !ok {
		return coretypes.Hash{}, fmt.Errorf("core: no header indexed at block %d", number)
	}
	return h.Hash(), nil
}
