// Package vm defines the pluggable execution-backend contract the
// Execution adapter (package core) programs against: a read-through
// Database view, a StateSink the backend writes into, and the
// block/transaction environments and result shapes spec.md §4.1
// specifies. Two implementations satisfy Backend: a pure-Go reference
// backend (build tag !revm) and a cgo bridge to an external EVM shared
// library (build tag revm), mirroring the teacher's own
// vm.Executor/TxExecutor split (core/tx_executor.go,
// core/vm/dispatcher_{goevm,revm}.go).
package vm

import "github.com/ethexec/execlayer/coretypes"

// Database is the read-through view the backend consults for
// pre-transaction state. All reads are pure for a given pre-state and
// delegate to the Store adapter; the backend never writes through this
// interface (spec.md §4.1).
type Database interface {
	Basic(addr coretypes.Address) (coretypes.AccountInfo, bool, error)
	CodeByHash(hash coretypes.Hash) ([]byte, error)
	Storage(addr coretypes.Address, key coretypes.Hash) (coretypes.Hash, error)
	BlockHash(number uint64) (coretypes.Hash, error)
}

// StateSink is the write side the backend mutates while running a
// transaction in commit mode: every call lands in the caller's
// TransitionBundle, never in the Store directly (spec.md §4.1's "writes
// are captured into the TransitionBundle" contract).
type StateSink interface {
	SetAccountInfo(addr coretypes.Address, info coretypes.AccountInfo)
	SetCode(codeHash coretypes.Hash, code []byte)
	SetStorage(addr coretypes.Address, key, value coretypes.Hash)
	DestroyAccount(addr coretypes.Address)
}

// BlockEnv is the block environment built from a BlockHeader (spec.md
// §4.1): number, coinbase, timestamp, gas limit, base fee, difficulty and
// prev-randao (carried in the mix-hash slot).
type BlockEnv struct {
	Number        uint64
	Coinbase      coretypes.Address
	Timestamp     uint64
	GasLimit      uint64
	BaseFee       coretypes.U256
	Difficulty    coretypes.U256
	PrevRandao    coretypes.Hash
	BeaconRoot    coretypes.Hash
	ExcessBlobGas uint64
}

// TxEnv is the transaction environment built from a coretypes.Transaction
// (spec.md §4.1), including its access list and blob hashes.
type TxEnv struct {
	Sender           coretypes.Address
	To               coretypes.CallTarget
	Nonce            uint64
	GasLimit         uint64
	GasPrice         coretypes.U256
	Value            coretypes.U256
	Data             []byte
	AccessList       coretypes.AccessList
	BlobHashes       []coretypes.Hash
	MaxFeePerBlobGas *coretypes.U256
}

// ResultKind tags the three outcomes a transaction execution can produce
// (spec.md §4.1). Reverts and halts are legitimate execution outcomes,
// not adapter errors (spec.md §7) — they surface as a successful RPC
// response, never as an EvmError.
type ResultKind uint8

const (
	Success ResultKind = iota
	Revert
	Halt
)

// ExecutionResult is the outcome of running one transaction.
type ExecutionResult struct {
	Kind        ResultKind
	GasUsed     uint64
	Output      []byte
	Logs        []coretypes.Log
	HaltReason  string
	ContractAddr *coretypes.Address // set for successful contract creation
}

// Failed reports whether the result represents anything other than
// Success (used to gate the receipt status bit and the
// create_access_list revert-preserving retry, spec.md §4.1/§9).
func (r ExecutionResult) Failed() bool { return r.Kind != Success }

// AccessListRecorder accumulates every (address, storage key) touched
// during an access-list-discovery run, excluding the precompile set, the
// caller and the callee (spec.md §4.1's create_access_list contract).
type AccessListRecorder struct {
	exclude map[coretypes.Address]struct{}
	touched map[coretypes.Address]map[coretypes.Hash]struct{}
	order   []coretypes.Address
}

// NewAccessListRecorder builds a recorder that ignores the given
// addresses (precompiles, caller, callee).
func NewAccessListRecorder(exclude ...coretypes.Address) *AccessListRecorder {
	ex := make(map[coretypes.Address]struct{}, len(exclude))
	for _, a := range exclude {
		ex[a] = struct{}{}
	}
	return &AccessListRecorder{exclude: ex, touched: make(map[coretypes.Address]map[coretypes.Hash]struct{})}
}

// TouchAddress records that addr was read or written.
func (r *AccessListRecorder) TouchAddress(addr coretypes.Address) {
	if _, skip := r.exclude[addr]; skip {
		return
	}
	if _, ok := r.touched[addr]; !ok {
		r.touched[addr] = make(map[coretypes.Hash]struct{})
		r.order = append(r.order, addr)
	}
}

// TouchStorage records that (addr, key) was read or written.
func (r *AccessListRecorder) TouchStorage(addr coretypes.Address, key coretypes.Hash) {
	if _, skip := r.exclude[addr]; skip {
		return
	}
	slots, ok := r.touched[addr]
	if !ok {
		slots = make(map[coretypes.Hash]struct{})
		r.touched[addr] = slots
		r.order = append(r.order, addr)
	}
	slots[key] = struct{}{}
}

// AccessList materializes the recorded touches in first-seen address
// order; the order of storage keys within each address is not defined.
func (r *AccessListRecorder) AccessList() coretypes.AccessList {
	out := make(coretypes.AccessList, 0, len(r.order))
	for _, addr := range r.order {
		slots := r.touched[addr]
		if len(slots) == 0 {
			out = append(out, coretypes.AccessTuple{Address: addr})
			continue
		}
		keys := make([]coretypes.Hash, 0, len(slots))
		for k := range slots {
			keys = append(keys, k)
		}
		out = append(out, coretypes.AccessTuple{Address: addr, StorageKeys: keys})
	}
	return out
}

// RunOptions configures one backend invocation. DisableBaseFee and
// DisableBlockGasLimit relax fee/limit checks for estimate_gas and
// create_access_list (spec.md §4.1's "deliberate relaxation" so an
// estimator never fails for lack of balance). AccessList, when non-nil,
// switches the backend into access-list-discovery mode.
type RunOptions struct {
	Spec                 SpecID
	DisableBaseFee       bool
	DisableBlockGasLimit bool
	AccessList           *AccessListRecorder
	// IsSystemCall marks a protocol-driven call (EIP-4788 beacon-root
	// write, the withdrawal/consolidation queue calls) rather than a
	// transaction from the payload body: the backend must not bump the
	// synthetic system sender's nonce or debit its balance (spec.md §8.5).
	IsSystemCall bool
}

// Backend is the pluggable execution engine the Execution adapter
// programs against (spec.md §4.1/§9: "the contract is the read-through
// view and the bundle semantics, not a particular call shape").
type Backend interface {
	// Run executes tx against block using db for reads, writing any
	// resulting diff into sink. sink is nil when the caller wants the
	// outcome without persisting writes (estimate_gas discards bundle
	// writes per spec.md §4.1).
	Run(sink StateSink, db Database, block BlockEnv, tx TxEnv, opts RunOptions) (ExecutionResult, error)

	// Profile reports cumulative read-through cache misses against db,
	// registered as prometheus gauges by the caller.
	Profile() (accountMisses, storageMisses int64)
}
