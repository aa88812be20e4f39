package engine

import (
	"context"

	"github.com/ethexec/execlayer/core"
	"github.com/ethexec/execlayer/core/vm"
	"github.com/ethexec/execlayer/corestate"
	"github.com/ethexec/execlayer/coretypes"
)

// NewPayloadV3 runs the full engine_newPayloadV3 state machine of spec.md
// §4.3 over a single parsed payload: fork gate, hash check, blob-hash
// check, parent linkage, execution, persistence. ctx is honoured at Store
// suspension points only; the Execution adapter itself never blocks on
// the network (spec.md §5).
func NewPayloadV3(
	ctx context.Context,
	store corestate.Store,
	backend vm.Backend,
	payload coretypes.ExecutionPayloadV3,
	expectedBlobHashes []coretypes.Hash,
	parentBeaconRoot coretypes.Hash,
) (PayloadStatus, error) {
	txs, err := payload.DecodeTransactions()
	if err != nil {
		return invalid(nil, err.Error()), nil
	}

	cancunTime, ok := store.GetCancunTime()
	// Rule 1 (fork gate). The source gates on payload.timestamp >
	// cancun_time (strict greater-than), which rejects a payload whose
	// timestamp exactly equals the activation boundary; the Ethereum
	// spec uses >=. This is a known divergence from the upstream source
	// this module was built against — preserved deliberately, not fixed
	// (spec.md §9's "potential bug").
	if !ok || payload.Timestamp <= cancunTime {
		return PayloadStatus{}, newRpcErr(UnsupportedFork, "Cancun not active at payload timestamp", nil)
	}

	withdrawalsRoot := coretypes.WithdrawalsRoot(payload.Withdrawals)
	header := payload.ToHeader(parentBeaconRoot, withdrawalsRoot)

	// Rule 2 (hash check). The real Engine API distinguishes this failure
	// as INVALID_BLOCK_HASH; the source this module follows folds it into
	// the ordinary INVALID status with a descriptive validationError, so
	// that behaviour is what's implemented here (Status.InvalidBlockHash
	// is kept for API completeness but unused by this check).
	if header.Hash() != payload.BlockHash {
		return invalid(nil, "Invalid block hash"), nil
	}

	// Rule 3 (blob hashes).
	var got []coretypes.Hash
	for _, tx := range txs {
		got = append(got, tx.BlobVersionedHash...)
	}
	if !hashesEqual(got, expectedBlobHashes) {
		return invalid(nil, "Invalid blob_versioned_hashes"), nil
	}

	// Rule 4 (parent linkage).
	if header.Number == 0 {
		return invalid(nil, "cannot process genesis via newPayloadV3"), nil
	}
	select {
	case <-ctx.Done():
		return PayloadStatus{}, newRpcErr(Internal, "request cancelled", ctx.Err())
	default:
	}
	parentHeader, ok, err := store.GetBlockHeader(header.Number - 1)
	if err != nil {
		return PayloadStatus{}, newRpcErr(Internal, "reading parent header", err)
	}
	if !ok {
		return syncing(), nil
	}
	if err := header.ValidateAgainstParent(parentHeader); err != nil {
		parentHash := parentHeader.Hash()
		return invalid(&parentHash, err.Error()), nil
	}

	// Rule 5 (execution). Backend errors collapse to a single RpcErr::Vm
	// regardless of cause — they may be transient and the block is not
	// yet proven bad, so they never produce an INVALID status.
	adapter := core.NewAdapter(store, backend)
	if err := adapter.BeaconRootContractCall(header, vm.SpecCancun); err != nil {
		return PayloadStatus{}, newRpcErr(Vm, "beacon root system call failed", err)
	}

	receipts := make([]coretypes.Receipt, 0, len(txs))
	var cumulativeGas uint64
	for _, tx := range txs {
		result, err := adapter.ExecuteTx(tx, header, vm.SpecCancun)
		if err != nil {
			return PayloadStatus{}, newRpcErr(Vm, "transaction execution failed", err)
		}
		cumulativeGas += result.GasUsed
		receipts = append(receipts, receiptFromResult(tx, result, cumulativeGas))
	}
	if err := adapter.Apply(); err != nil {
		return PayloadStatus{}, newRpcErr(Internal, "applying transition bundle", err)
	}

	// Rule 6 (persistence).
	block := &coretypes.Block{Header: header, Transactions: txs, Withdrawals: payload.Withdrawals}
	if err := store.AddBlock(block, receipts); err != nil {
		return PayloadStatus{}, newRpcErr(Internal, "persisting block", err)
	}
	if err := store.AddBlockNumber(payload.BlockHash, header.Number); err != nil {
		return PayloadStatus{}, newRpcErr(Internal, "persisting block number index", err)
	}

	return valid(payload.BlockHash), nil
}

func hashesEqual(a, b []coretypes.Hash) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func receiptFromResult(tx *coretypes.Transaction, result vm.ExecutionResult, cumulativeGas uint64) coretypes.Receipt {
	r := coretypes.Receipt{
		TxHash:            coretypes.Keccak256(coretypes.EncodeTransaction(tx)),
		Status:            !result.Failed(),
		GasUsed:           result.GasUsed,
		CumulativeGasUsed: cumulativeGas,
		Logs:              result.Logs,
		ContractAddress:   result.ContractAddr,
	}
	r.Bloom = coretypes.CreateBloom(r.Logs)
	if len(tx.BlobVersionedHash) > 0 {
		r.BlobGasUsed = uint64(len(tx.BlobVersionedHash)) * 131072
	}
	return r
}
