package corestate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethexec/execlayer/coretypes"
)

func TestSeedGenesisWritesAllocAndGenesisBlock(t *testing.T) {
	store := NewMemStore()
	addr := coretypes.HexToAddress("0x0000000000000000000000000000000000000001")
	code := []byte{0x60, 0x00}
	cancunTime := uint64(1_700_000_000)

	genesis := &coretypes.Genesis{
		Config: coretypes.ChainConfig{ChainID: 1337, CancunTime: &cancunTime},
		Alloc: map[coretypes.Address]coretypes.GenesisAccount{
			addr: {
				Balance: coretypes.NewU256FromUint64(1_000),
				Nonce:   1,
				Code:    code,
				Storage: map[coretypes.Hash]coretypes.Hash{
					coretypes.HexToHash("0x01"): coretypes.HexToHash("0x02"),
				},
			},
		},
		Header: coretypes.BlockHeader{Number: 0, Timestamp: cancunTime, GasLimit: 30_000_000},
	}

	require.NoError(t, SeedGenesis(store, genesis))

	info, ok, err := store.GetAccountInfo(addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 1, info.Nonce)
	require.Zero(t, info.Balance.Cmp(coretypes.NewU256FromUint64(1_000)))
	require.Equal(t, coretypes.CodeHash(code), info.CodeHash)

	gotCode, ok, err := store.GetAccountCode(info.CodeHash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, code, gotCode)

	slot, ok, err := store.GetStorageAt(addr, coretypes.HexToHash("0x01"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, coretypes.HexToHash("0x02"), slot)

	header, ok, err := store.GetBlockHeader(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, genesis.Header.Hash(), header.Hash())

	number, ok, err := store.GetBlockNumber(genesis.Header.Hash())
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 0, number)

	gotCancun, ok := store.GetCancunTime()
	require.True(t, ok)
	require.EqualValues(t, cancunTime, gotCancun)
}
