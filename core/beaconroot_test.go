package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethexec/execlayer/core/vm"
	"github.com/ethexec/execlayer/corestate"
	"github.com/ethexec/execlayer/coretypes"
)

func TestBeaconRootContractCallWritesRingBufferAndSkipsNonce(t *testing.T) {
	store := corestate.NewMemStore()
	adapter := NewAdapter(store, vm.NewReferenceBackend())

	header := sampleHeader()
	header.ParentBeaconRoot = coretypes.HexToHash("0x1234")

	require.NoError(t, adapter.BeaconRootContractCall(header, vm.SpecCancun))
	require.NoError(t, adapter.Apply())

	_, ok, _ := store.GetAccountInfo(vm.SystemSenderAddress)
	require.False(t, ok, "system call must not persist any account info for the synthetic sender")

	idx := header.Timestamp % 8191
	timestampSlot := coretypes.U256FromBigEndian(beLimb(idx)).Hash()
	rootSlot := coretypes.U256FromBigEndian(beLimb(idx + 8191)).Hash()

	ts, ok, err := store.GetStorageAt(vm.BeaconRootsAddress, timestampSlot)
	require.NoError(t, err)
	require.True(t, ok, "timestamp slot not written")
	require.Zero(t, coretypes.U256FromHash(ts).Cmp(coretypes.NewU256FromUint64(header.Timestamp)))

	root, ok, err := store.GetStorageAt(vm.BeaconRootsAddress, rootSlot)
	require.NoError(t, err)
	require.True(t, ok, "root slot not written")
	require.Equal(t, header.ParentBeaconRoot, root)
}

func beLimb(v uint64) []byte {
	out := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}
