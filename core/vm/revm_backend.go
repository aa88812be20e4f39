//go:build revm

package vm

/*
#cgo CFLAGS: -I${SRCDIR}/../../revm_integration/revm_ffi_wrapper
#cgo LDFLAGS: -L${SRCDIR}/../../revm_integration/revm_ffi_wrapper/target/release -lrevm_ffi -Wl,-rpath,${SRCDIR}/../../revm_integration/revm_ffi_wrapper/target/release
#include <stdlib.h>
#include <string.h>
#include "revm_ffi.h"
*/
import "C"

import (
	"sync/atomic"
	"unsafe"

	"github.com/ethexec/execlayer/coretypes"
)

// RevmBackend bridges to an external EVM shared library over cgo,
// satisfying Backend. Grounded 1:1 on revm_bridge/revm_executor_statedb.go
// and core/vm/dispatcher_revm.go: one FFI instance per Run call, state
// reads/writes routed through the handle-keyed callbacks in
// revm_exports.go rather than go-ethereum's state.StateDB.
type RevmBackend struct {
	chainID       uint64
	accountMisses int64
	storageMisses int64
}

// NewRevmBackend constructs the cgo-backed Backend for chainID.
func NewRevmBackend(chainID uint64) *RevmBackend {
	return &RevmBackend{chainID: chainID}
}

func (b *RevmBackend) Profile() (int64, int64) {
	return atomic.LoadInt64(&b.accountMisses), atomic.LoadInt64(&b.storageMisses)
}

func (b *RevmBackend) Run(sink StateSink, db Database, block BlockEnv, tx TxEnv, opts RunOptions) (ExecutionResult, error) {
	ctx := &callCtx{db: db, sink: sink, al: opts.AccessList}
	handle := registerCallCtx(ctx)
	defer releaseCallCtx(handle)

	cfg := C.RevmConfigFFI{
		chain_id:               C.uint64_t(b.chainID),
		spec_id:                C.uint8_t(opts.Spec),
		disable_base_fee_check: boolToC(opts.DisableBaseFee),
		disable_gas_limit_check: boolToC(opts.DisableBlockGasLimit),
	}
	inst := C.revm_new_with_host(C.uintptr_t(handle), &cfg)
	if inst == nil {
		return ExecutionResult{}, &BackendError{Msg: "failed to create revm instance"}
	}
	defer C.revm_free(inst)

	blockFFI := C.RevmBlockEnvFFI{
		number:     C.uint64_t(block.Number),
		timestamp:  C.uint64_t(block.Timestamp),
		gas_limit:  C.uint64_t(block.GasLimit),
		difficulty: u256ToC(block.Difficulty),
		base_fee:   u256ToC(block.BaseFee),
	}
	copy((*[20]byte)(unsafe.Pointer(&blockFFI.coinbase))[:], block.Coinbase[:])
	copy((*[32]byte)(unsafe.Pointer(&blockFFI.prev_randao))[:], block.PrevRandao[:])
	C.revm_set_block_env(inst, &blockFFI)

	fromBuf := addrToC(tx.Sender)
	var toBuf [20]C.uint8_t
	var toPtr *C.uint8_t
	isCreate := C.int(0)
	if tx.To.IsCreate() {
		isCreate = 1
	} else {
		toBuf = addrToC(tx.To.Address())
		toPtr = (*C.uint8_t)(unsafe.Pointer(&toBuf[0]))
	}

	var dataPtr *C.uint8_t
	if len(tx.Data) > 0 {
		dataPtr = (*C.uint8_t)(C.CBytes(tx.Data))
		defer C.free(unsafe.Pointer(dataPtr))
	}

	valueBuf := u256ToC(tx.Value)
	commit := C.int(0)
	if sink != nil {
		commit = 1
	}

	res := C.revm_call_with_host(
		inst,
		(*C.uint8_t)(unsafe.Pointer(&fromBuf[0])),
		toPtr,
		isCreate,
		dataPtr,
		C.uint32_t(len(tx.Data)),
		&valueBuf,
		C.uint64_t(tx.GasLimit),
		commit,
	)
	if res == nil {
		return ExecutionResult{}, &BackendError{Msg: "revm execution returned no result"}
	}
	defer C.revm_free_execution_result(res)

	result := translateExecutionResult(res)
	atomic.AddInt64(&b.accountMisses, int64(res.account_misses))
	atomic.AddInt64(&b.storageMisses, int64(res.storage_misses))
	return result, nil
}

func translateExecutionResult(res *C.ExecutionResultFFI) ExecutionResult {
	out := ExecutionResult{GasUsed: uint64(res.gas_used)}
	switch res.outcome {
	case C.REVM_OUTCOME_SUCCESS:
		out.Kind = Success
	case C.REVM_OUTCOME_REVERT:
		out.Kind = Revert
	default:
		out.Kind = Halt
		out.HaltReason = C.GoString(res.halt_reason)
	}
	if res.output_len > 0 {
		out.Output = C.GoBytes(unsafe.Pointer(res.output_data), C.int(res.output_len))
	}
	if res.created_address != nil {
		addr := coretypes.BytesToAddress(C.GoBytes(unsafe.Pointer(res.created_address), 20))
		out.ContractAddr = &addr
	}
	if res.logs_count > 0 {
		logs := (*[1 << 20]C.LogFFI)(unsafe.Pointer(res.logs))[:res.logs_count:res.logs_count]
		out.Logs = make([]coretypes.Log, res.logs_count)
		for i, l := range logs {
			out.Logs[i] = logFromFFI(l)
		}
	}
	return out
}

func logFromFFI(l C.LogFFI) coretypes.Log {
	lg := coretypes.Log{
		Address: coretypes.BytesToAddress(C.GoBytes(unsafe.Pointer(&l.address), 20)),
	}
	if l.topics_count > 0 {
		topics := (*[1 << 10]C.uint8_t)(unsafe.Pointer(l.topics))[: l.topics_count*32 : l.topics_count*32]
		lg.Topics = make([]coretypes.Hash, l.topics_count)
		for i := range lg.Topics {
			lg.Topics[i] = coretypes.BytesToHash(C.GoBytes(unsafe.Pointer(&topics[i*32]), 32))
		}
	}
	if l.data_len > 0 {
		lg.Data = C.GoBytes(unsafe.Pointer(l.data), C.int(l.data_len))
	}
	return lg
}

func addrToC(a coretypes.Address) [20]C.uint8_t {
	var out [20]C.uint8_t
	for i, b := range a {
		out[i] = C.uint8_t(b)
	}
	return out
}

func u256ToC(u coretypes.U256) C.U256FFI {
	b := u.Bytes32()
	var out C.U256FFI
	for i, v := range b {
		out.bytes[i] = C.uint8_t(v)
	}
	return out
}

func boolToC(b bool) C.int {
	if b {
		return 1
	}
	return 0
}
