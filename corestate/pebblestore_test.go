package corestate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethexec/execlayer/coretypes"
)

func openTestPebbleStore(t *testing.T) *PebbleStore {
	t.Helper()
	store, err := OpenPebbleStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func TestPebbleStoreAccountStorageCodeRoundTrip(t *testing.T) {
	store := openTestPebbleStore(t)
	addr := coretypes.HexToAddress("0x0000000000000000000000000000000000000001")
	code := []byte{0x60, 0x00, 0x60, 0x00}
	codeHash := coretypes.CodeHash(code)
	info := coretypes.AccountInfo{Balance: coretypes.NewU256FromUint64(42), Nonce: 3, CodeHash: codeHash}

	require.NoError(t, store.AddAccountInfo(addr, info))
	require.NoError(t, store.AddAccountCode(codeHash, code))
	key := coretypes.HexToHash("0x01")
	value := coretypes.HexToHash("0x02")
	require.NoError(t, store.AddStorageAt(addr, key, value))

	got, ok, err := store.GetAccountInfo(addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, info, got)

	gotCode, ok, err := store.GetAccountCode(codeHash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, code, gotCode)

	gotSlot, ok, err := store.GetStorageAt(addr, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, value, gotSlot)

	// Writing the zero value deletes the slot (spec.md §3).
	require.NoError(t, store.AddStorageAt(addr, key, coretypes.Hash{}))
	_, ok, err = store.GetStorageAt(addr, key)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPebbleStoreRemoveAccountClearsStorage(t *testing.T) {
	store := openTestPebbleStore(t)
	addr := coretypes.HexToAddress("0x0000000000000000000000000000000000000002")
	require.NoError(t, store.AddAccountInfo(addr, coretypes.AccountInfo{Nonce: 1}))
	require.NoError(t, store.AddStorageAt(addr, coretypes.HexToHash("0x01"), coretypes.HexToHash("0x02")))

	require.NoError(t, store.RemoveAccount(addr))

	_, ok, err := store.GetAccountInfo(addr)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = store.GetStorageAt(addr, coretypes.HexToHash("0x01"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPebbleStoreBlockHeaderReceiptsAndBodyRoundTrip(t *testing.T) {
	store := openTestPebbleStore(t)
	store.SetCancunTime(100)
	cancunTime, ok := store.GetCancunTime()
	require.True(t, ok)
	require.EqualValues(t, 100, cancunTime)

	header := coretypes.BlockHeader{Number: 1, Timestamp: 200, GasLimit: 30_000_000}
	block := &coretypes.Block{Header: header}
	receipts := []coretypes.Receipt{{TxHash: coretypes.HexToHash("0xaa"), Status: true, GasUsed: 21_000}}

	require.NoError(t, store.AddBlock(block, receipts))
	require.NoError(t, store.AddBlockNumber(header.Hash(), header.Number))

	gotHeader, ok, err := store.GetBlockHeader(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, header.Hash(), gotHeader.Hash())

	number, ok, err := store.GetBlockNumber(header.Hash())
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 1, number)

	gotReceipts, ok, err := store.GetReceipts(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, receipts, gotReceipts)

	body, ok, err := store.GetBlockBody(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, body)
}
