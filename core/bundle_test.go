package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethexec/execlayer/coretypes"
)

func TestTransitionBundleSetAccountInfoMarksContractChanged(t *testing.T) {
	b := NewTransitionBundle(nil)
	addr := coretypes.HexToAddress("0x0000000000000000000000000000000000000001")

	b.SetAccountInfo(addr, coretypes.AccountInfo{Nonce: 1})
	ba, ok := b.get(addr)
	require.True(t, ok)
	require.False(t, ba.ContractChanged, "first write with empty code hash should not mark ContractChanged")

	newHash := coretypes.CodeHash([]byte{0x60, 0x00})
	b.SetAccountInfo(addr, coretypes.AccountInfo{Nonce: 1, CodeHash: newHash})
	ba, ok = b.get(addr)
	require.True(t, ok)
	require.True(t, ba.ContractChanged, "changing CodeHash should mark ContractChanged")
	require.True(t, ba.InfoChanged)
	require.True(t, ba.Modified)
	require.False(t, ba.Destroyed)
}

func TestTransitionBundleSetStorageTracksChanged(t *testing.T) {
	addr := coretypes.HexToAddress("0x0000000000000000000000000000000000000002")
	key := coretypes.HexToHash("0x01")
	reader := &fakeReader{storage: map[coretypes.Hash]coretypes.Hash{key: coretypes.HexToHash("0xaa")}}
	b := NewTransitionBundle(reader)

	b.SetStorage(addr, key, coretypes.HexToHash("0xaa"))
	ba, ok := b.get(addr)
	require.True(t, ok)
	require.False(t, ba.Storage[key].Changed, "writing back the original value should not be Changed")

	b.SetStorage(addr, key, coretypes.HexToHash("0xbb"))
	ba, ok = b.get(addr)
	require.True(t, ok)
	require.True(t, ba.Storage[key].Changed, "writing a new value should be Changed")
	require.Equal(t, coretypes.HexToHash("0xaa"), ba.Storage[key].Original, "Original should stay pinned to the first-observed pre-state value")
}

func TestTransitionBundleDestroyAccountClearsStorage(t *testing.T) {
	addr := coretypes.HexToAddress("0x0000000000000000000000000000000000000003")
	b := NewTransitionBundle(nil)
	b.SetStorage(addr, coretypes.HexToHash("0x01"), coretypes.HexToHash("0x02"))
	b.DestroyAccount(addr)

	_, ok := b.getStorage(addr, coretypes.HexToHash("0x01"))
	require.False(t, ok, "destroyed account must not report any storage slot present")

	ba, ok := b.get(addr)
	require.True(t, ok)
	require.True(t, ba.Destroyed)
	require.Empty(t, ba.Storage, "destroy should clear the storage map")
}

type fakeReader struct {
	info    map[coretypes.Address]coretypes.AccountInfo
	storage map[coretypes.Hash]coretypes.Hash
}

func (r *fakeReader) GetAccountInfo(addr coretypes.Address) (coretypes.AccountInfo, bool, error) {
	info, ok := r.info[addr]
	return info, ok, nil
}

func (r *fakeReader) GetStorageAt(addr coretypes.Address, key coretypes.Hash) (coretypes.Hash, bool, error) {
	v, ok := r.storage[key]
	return v, ok, nil
}
