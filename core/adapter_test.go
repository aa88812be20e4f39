package core

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/require"

	"github.com/ethexec/execlayer/core/vm"
	"github.com/ethexec/execlayer/corestate"
	"github.com/ethexec/execlayer/coretypes"
)

// signTx signs tx's SigningHash with a fixed test private key and fills
// in the recoverable-signature fields the same way a real wire decode
// would, and returns the signer's address.
func signTx(t *testing.T, tx *coretypes.Transaction) coretypes.Address {
	t.Helper()
	var seed [32]byte
	seed[31] = 7
	priv := secp256k1.PrivKeyFromBytes(seed[:])
	pub := priv.PubKey()

	tx.SigningHash = coretypes.HexToHash("0xdeadbeef00000000000000000000000000000000000000000000000000ab")
	sig := ecdsa.SignCompact(priv, tx.SigningHash[:], false)
	tx.V = sig[0] - 27
	copy(tx.R[:], sig[1:33])
	copy(tx.S[:], sig[33:65])

	uncompressed := pub.SerializeUncompressed()
	digest := coretypes.Keccak256(uncompressed[1:])
	return coretypes.BytesToAddress(digest[12:])
}

func sampleHeader() coretypes.BlockHeader {
	return coretypes.BlockHeader{
		Number:        1,
		Timestamp:     1_700_000_012,
		GasLimit:      30_000_000,
		BaseFeePerGas: coretypes.NewU256FromUint64(1_000_000_000),
	}
}

func signedTransfer(t *testing.T, store corestate.Store, to coretypes.Address, value uint64) *coretypes.Transaction {
	t.Helper()
	tx := &coretypes.Transaction{
		Type:     coretypes.DynamicFeeTxType,
		GasLimit: 21_000,
		To:       coretypes.CallTo(to),
		Value:    coretypes.NewU256FromUint64(value),
	}
	sender := signTx(t, tx)
	require.NoError(t, store.AddAccountInfo(sender, coretypes.AccountInfo{Balance: coretypes.NewU256FromUint64(1_000_000_000_000)}), "seed sender")
	return tx
}

func TestAdapterExecuteTxThenApplyPersistsBalance(t *testing.T) {
	store := corestate.NewMemStore()
	to := coretypes.HexToAddress("0x2222222222222222222222222222222222222222")
	tx := signedTransfer(t, store, to, 500)

	adapter := NewAdapter(store, vm.NewReferenceBackend())
	header := sampleHeader()

	result, err := adapter.ExecuteTx(tx, header, vm.SpecCancun)
	require.NoError(t, err)
	require.False(t, result.Failed(), "expected success, got %+v", result)

	require.NoError(t, adapter.Apply())

	info, ok, err := store.GetAccountInfo(to)
	require.NoError(t, err)
	require.True(t, ok, "recipient not persisted")
	require.Zero(t, info.Balance.Cmp(coretypes.NewU256FromUint64(500)), "expected recipient balance 500, got %s", info.Balance)
}

func TestAdapterApplyRemovesDestroyedAccount(t *testing.T) {
	store := corestate.NewMemStore()
	addr := coretypes.HexToAddress("0x0000000000000000000000000000000000000009")
	require.NoError(t, store.AddAccountInfo(addr, coretypes.AccountInfo{Balance: coretypes.NewU256FromUint64(1)}))

	adapter := NewAdapter(store, vm.NewReferenceBackend())
	adapter.bundle.DestroyAccount(addr)
	require.NoError(t, adapter.Apply())

	_, ok, _ := store.GetAccountInfo(addr)
	require.False(t, ok, "destroyed account must be removed from the store")
}

func TestAdapterApplyWipesStorageOnSameBlockDestroyThenRecreate(t *testing.T) {
	store := corestate.NewMemStore()
	addr := coretypes.HexToAddress("0x000000000000000000000000000000000000000a")
	staleKey := coretypes.HexToHash("0x01")
	require.NoError(t, store.AddAccountInfo(addr, coretypes.AccountInfo{Balance: coretypes.NewU256FromUint64(1)}))
	require.NoError(t, store.AddStorageAt(addr, staleKey, coretypes.HexToHash("0xff")))

	adapter := NewAdapter(store, vm.NewReferenceBackend())
	adapter.bundle.DestroyAccount(addr)
	adapter.bundle.SetAccountInfo(addr, coretypes.AccountInfo{Nonce: 0, CodeHash: coretypes.CodeHash([]byte{0x60, 0x00})})
	require.NoError(t, adapter.Apply())

	_, ok, err := store.GetStorageAt(addr, staleKey)
	require.NoError(t, err)
	require.False(t, ok, "storage from the destroyed account must not survive under the recreated contract")

	info, ok, err := store.GetAccountInfo(addr)
	require.NoError(t, err)
	require.True(t, ok, "recreated account must be persisted")
	require.Equal(t, coretypes.CodeHash([]byte{0x60, 0x00}), info.CodeHash)
}
