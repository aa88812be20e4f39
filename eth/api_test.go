package eth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethexec/execlayer/corestate"
	"github.com/ethexec/execlayer/coretypes"
)

func TestAPIGetBalanceAndBlockProjections(t *testing.T) {
	store := corestate.NewMemStore()
	addr := coretypes.HexToAddress("0x0000000000000000000000000000000000000001")
	require.NoError(t, store.AddAccountInfo(addr, coretypes.AccountInfo{Balance: coretypes.NewU256FromUint64(42)}))

	header := coretypes.BlockHeader{Number: 1}
	receipts := []coretypes.Receipt{{TxHash: coretypes.HexToHash("0xaa"), Status: true}}
	require.NoError(t, store.AddBlock(&coretypes.Block{Header: header}, receipts))
	require.NoError(t, store.AddBlockNumber(header.Hash(), 1))

	api := NewAPI(store, 1337)

	bal, err := api.GetBalance(addr)
	require.NoError(t, err)
	require.Zero(t, bal.Cmp(coretypes.NewU256FromUint64(42)))

	got, rec, ok, err := api.GetBlockByHash(header.Hash())
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 1, got.Number)
	require.Len(t, rec, 1)

	count, err := api.GetBlockTransactionCountByNumber(1)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.EqualValues(t, 1337, api.ChainID())
	require.False(t, api.Syncing())
}
