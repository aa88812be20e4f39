package core

import (
	"github.com/ethexec/execlayer/core/vm"
	"github.com/ethexec/execlayer/coretypes"
)

// BeaconRootContractCall drives the EIP-4788 system call at the start of
// block execution: the backend is invoked once with the synthetic system
// sender against the beacon-roots contract, fee and gas-limit checks
// disabled and IsSystemCall set so the sender's nonce is left untouched
// (spec.md §8.5's "system call does not bump nonces" boundary scenario).
// Grounded on the reference backend's writeBeaconRoot and the teacher's
// own system-call dispatch in core/tx_executor.go.
func BeaconRootContractCall(bundle *TransitionBundle, db vm.Database, backend vm.Backend, header coretypes.BlockHeader, spec vm.SpecID) error {
	if header.ParentBeaconRoot == (coretypes.Hash{}) {
		return nil
	}
	block := vm.BlockEnv{
		Number:        header.Number,
		Coinbase:      header.Coinbase,
		Timestamp:     header.Timestamp,
		GasLimit:      header.GasLimit,
		BaseFee:       header.BaseFeePerGas,
		Difficulty:    header.Difficulty,
		PrevRandao:    header.PrevRandao,
		BeaconRoot:    header.ParentBeaconRoot,
		ExcessBlobGas: header.ExcessBlobGas,
	}
	tx := vm.TxEnv{
		Sender:   vm.SystemSenderAddress,
		To:       coretypes.CallTo(vm.BeaconRootsAddress),
		GasLimit: 30_000_000,
	}
	opts := vm.RunOptions{
		Spec:                 spec,
		DisableBaseFee:       true,
		DisableBlockGasLimit: true,
		IsSystemCall:         true,
	}
	result, err := backend.Run(bundle, db, block, tx, opts)
	if err != nil {
		return fromBackendErr(err)
	}
	if result.Failed() {
		return &EvmError{Kind: EvmBackendError, Msg: "beacon root system call reverted or halted: " + result.HaltReason}
	}
	return nil
}
