package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethexec/execlayer/core/vm"
	"github.com/ethexec/execlayer/corestate"
	"github.com/ethexec/execlayer/coretypes"
)

const cancunTime = 1_700_000_000

func seededStore(t *testing.T) (*corestate.MemStore, coretypes.BlockHeader) {
	t.Helper()
	store := corestate.NewMemStore()
	store.SetCancunTime(cancunTime)
	genesis := coretypes.BlockHeader{
		Number:    0,
		Timestamp: cancunTime,
		GasLimit:  30_000_000,
		// GasUsed pinned at the elasticity target so nextBaseFee(parent)
		// leaves BaseFeePerGas unchanged, letting the child payloads below
		// reuse the parent's base fee verbatim instead of hand-computing
		// the EIP-1559 delta in every test case.
		GasUsed:       15_000_000,
		BaseFeePerGas: coretypes.NewU256FromUint64(1_000_000_000),
	}
	require.NoError(t, store.AddBlock(&coretypes.Block{Header: genesis}, nil))
	return store, genesis
}

func childPayload(parent coretypes.BlockHeader) coretypes.ExecutionPayloadV3 {
	p := coretypes.ExecutionPayloadV3{
		ParentHash:    parent.Hash(),
		StateRoot:     parent.StateRoot,
		ReceiptsRoot:  coretypes.Hash{},
		PrevRandao:    coretypes.Hash{},
		BlockNumber:   parent.Number + 1,
		GasLimit:      parent.GasLimit,
		GasUsed:       0,
		Timestamp:     parent.Timestamp + 12,
		BaseFeePerGas: parent.BaseFeePerGas,
	}
	h := p.ToHeader(coretypes.Hash{}, coretypes.WithdrawalsRoot(nil))
	p.BlockHash = h.Hash()
	return p
}

func TestNewPayloadV3ForkGateRejectsAtBoundary(t *testing.T) {
	store, genesis := seededStore(t)
	p := childPayload(genesis)
	p.Timestamp = cancunTime // exactly at the boundary, not past it
	// Recompute hash/header to match the mutated timestamp so the test
	// exercises the fork gate specifically, not an incidental hash
	// mismatch.
	h := p.ToHeader(coretypes.Hash{}, coretypes.WithdrawalsRoot(nil))
	p.BlockHash = h.Hash()

	_, err := NewPayloadV3(context.Background(), store, vm.NewReferenceBackend(), p, nil, coretypes.Hash{})
	rpcErr, ok := err.(*RpcErr)
	require.True(t, ok, "expected an *RpcErr, got %v", err)
	require.Equal(t, UnsupportedFork, rpcErr.Kind, "expected UnsupportedFork RpcErr at timestamp == cancunTime")
}

func TestNewPayloadV3ForkGateAcceptsOneAfterBoundary(t *testing.T) {
	store, genesis := seededStore(t)
	p := childPayload(genesis)
	p.Timestamp = cancunTime + 1
	h := p.ToHeader(coretypes.Hash{}, coretypes.WithdrawalsRoot(nil))
	p.BlockHash = h.Hash()

	status, err := NewPayloadV3(context.Background(), store, vm.NewReferenceBackend(), p, nil, coretypes.Hash{})
	require.NoError(t, err)
	require.Equal(t, Valid, status.Status)
}

func TestNewPayloadV3MissingParentReturnsSyncing(t *testing.T) {
	store, genesis := seededStore(t)
	p := childPayload(genesis)
	p.BlockNumber = 5 // parent at number 4 was never indexed
	h := p.ToHeader(coretypes.Hash{}, coretypes.WithdrawalsRoot(nil))
	p.BlockHash = h.Hash()

	status, err := NewPayloadV3(context.Background(), store, vm.NewReferenceBackend(), p, nil, coretypes.Hash{})
	require.NoError(t, err)
	require.Equal(t, Syncing, status.Status)
	require.Nil(t, status.LatestValidHash)
}

func TestNewPayloadV3BadHashIsInvalid(t *testing.T) {
	store, genesis := seededStore(t)
	p := childPayload(genesis)
	p.BlockHash[0] ^= 0xff // corrupt one byte after construction

	status, err := NewPayloadV3(context.Background(), store, vm.NewReferenceBackend(), p, nil, coretypes.Hash{})
	require.NoError(t, err)
	require.Equal(t, Invalid, status.Status)
	require.Equal(t, "Invalid block hash", status.ValidationError)
}

func TestNewPayloadV3BlobHashMismatchIsInvalid(t *testing.T) {
	store, genesis := seededStore(t)
	p := childPayload(genesis)
	bogus := []coretypes.Hash{coretypes.HexToHash("0x01")}

	status, err := NewPayloadV3(context.Background(), store, vm.NewReferenceBackend(), p, bogus, coretypes.Hash{})
	require.NoError(t, err)
	require.Equal(t, Invalid, status.Status)
	require.Equal(t, "Invalid blob_versioned_hashes", status.ValidationError)
}

func TestNewPayloadV3InvalidParentLinkageReturnsParentHash(t *testing.T) {
	store, genesis := seededStore(t)
	p := childPayload(genesis)
	p.ExtraData = make([]byte, 33) // exceeds the 32-byte extra-data limit
	h := p.ToHeader(coretypes.Hash{}, coretypes.WithdrawalsRoot(nil))
	p.BlockHash = h.Hash()

	status, err := NewPayloadV3(context.Background(), store, vm.NewReferenceBackend(), p, nil, coretypes.Hash{})
	require.NoError(t, err)
	require.Equal(t, Invalid, status.Status)

	wantParent := genesis.Hash()
	require.NotNil(t, status.LatestValidHash)
	require.Equal(t, wantParent, *status.LatestValidHash)
}
