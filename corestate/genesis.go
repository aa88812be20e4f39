package corestate

import (
	"fmt"

	"github.com/ethexec/execlayer/coretypes"
)

// SeedGenesis writes a decoded genesis document's allocation into store
// and indexes its header as block 0. It lives here rather than in
// coretypes because coretypes cannot import corestate (corestate already
// imports coretypes) — the core packages themselves never call this; only
// a runnable entrypoint does, once, at startup (SPEC_FULL.md §6).
func SeedGenesis(store Store, genesis *coretypes.Genesis) error {
	for addr, acc := range genesis.Alloc {
		info := coretypes.AccountInfo{Balance: acc.Balance, Nonce: acc.Nonce}
		if len(acc.Code) > 0 {
			info.CodeHash = coretypes.CodeHash(acc.Code)
			if err := store.AddAccountCode(info.CodeHash, acc.Code); err != nil {
				return fmt.Errorf("corestate: seeding genesis code for %s: %w", addr.Hex(), err)
			}
		}
		if err := store.AddAccountInfo(addr, info); err != nil {
			return fmt.Errorf("corestate: seeding genesis account %s: %w", addr.Hex(), err)
		}
		for key, value := range acc.Storage {
			if err := store.AddStorageAt(addr, key, value); err != nil {
				return fmt.Errorf("corestate: seeding genesis storage for %s: %w", addr.Hex(), err)
			}
		}
	}

	if err := store.AddBlock(&coretypes.Block{Header: genesis.Header}, nil); err != nil {
		return fmt.Errorf("corestate: seeding genesis block: %w", err)
	}
	if err := store.AddBlockNumber(genesis.Header.Hash(), genesis.Header.Number); err != nil {
		return fmt.Errorf("corestate: indexing genesis block hash: %w", err)
	}
	if genesis.Config.CancunTime != nil {
		store.SetCancunTime(*genesis.Config.CancunTime)
	}
	return nil
}
