//go:build !revm

package vm

import (
	"sync/atomic"

	"github.com/ethexec/execlayer/coretypes"
)

// withdrawalQueueAddress and consolidationQueueAddress are the EIP-7002 /
// EIP-7251 system contracts the reference backend also special-cases;
// execution of other contracts falls back to a plain value transfer,
// since interpreting arbitrary bytecode is the opaque EVM backend's job
// (spec.md §1 treats the interpreter as an external collaborator and
// DESIGN.md scopes this reference backend to value-transfer/simple
// call/create plus the system calls this module must exercise itself).
var withdrawalQueueAddress = coretypes.HexToAddress("0x00000961Ef480Eb55e80D19ad83579A64c007002")
var consolidationQueueAddress = coretypes.HexToAddress("0x0000BBdDc7CE488642fb579F8B00f3a590007251")

const beaconRootsRingSize = 8191

// ReferenceBackend is the pure-Go backend used by default and by every
// non-cgo test. It does not interpret arbitrary EVM bytecode; it handles
// value transfers, contract creation (storing the supplied init code
// verbatim as the deployed code, matching the "simple call/create"
// scope DESIGN.md documents for this backend) and the Cancun system
// calls the Execution adapter itself drives (beacon-root ring buffer,
// withdrawal/consolidation queues).
type ReferenceBackend struct {
	accountMisses int64
	storageMisses int64
}

// NewReferenceBackend constructs the default backend.
func NewReferenceBackend() *ReferenceBackend { return &ReferenceBackend{} }

func (b *ReferenceBackend) Profile() (int64, int64) {
	return atomic.LoadInt64(&b.accountMisses), atomic.LoadInt64(&b.storageMisses)
}

func (b *ReferenceBackend) basic(db Database, addr coretypes.Address) coretypes.AccountInfo {
	info, ok, _ := db.Basic(addr)
	if !ok {
		atomic.AddInt64(&b.accountMisses, 1)
	}
	return info
}

func (b *ReferenceBackend) Run(sink StateSink, db Database, block BlockEnv, tx TxEnv, opts RunOptions) (ExecutionResult, error) {
	if opts.AccessList != nil {
		opts.AccessList.TouchAddress(tx.Sender)
		if !tx.To.IsCreate() {
			opts.AccessList.TouchAddress(tx.To.Address())
		}
		for _, at := range tx.AccessList {
			opts.AccessList.TouchAddress(at.Address)
			for _, k := range at.StorageKeys {
				opts.AccessList.TouchStorage(at.Address, k)
			}
		}
	}

	sender := b.basic(db, tx.Sender)

	if !opts.DisableBaseFee {
		total := tx.GasPrice.MulUint64(tx.GasLimit).Add(tx.Value)
		if sender.Balance.Cmp(total) < 0 {
			return ExecutionResult{}, &BackendError{Msg: "insufficient balance for gas * price + value"}
		}
	}
	if !opts.DisableBlockGasLimit && tx.GasLimit > block.GasLimit {
		return ExecutionResult{}, &BackendError{Msg: "tx gas limit exceeds block gas limit"}
	}

	const intrinsicGas = 21000
	gasUsed := uint64(intrinsicGas) + uint64(len(tx.Data))*16

	if tx.To.IsCreate() {
		created := coretypes.CreateAddress(tx.Sender, tx.Nonce)
		if sink != nil {
			codeHash := coretypes.CodeHash(tx.Data)
			sink.SetCode(codeHash, tx.Data)
			sink.SetAccountInfo(created, coretypes.AccountInfo{
				Balance:  tx.Value,
				Nonce:    0,
				CodeHash: codeHash,
			})
			sender.Nonce++
			sender.Balance = sender.Balance.Sub(tx.Value)
			sink.SetAccountInfo(tx.Sender, sender)
		}
		return ExecutionResult{Kind: Success, GasUsed: gasUsed, ContractAddr: &created}, nil
	}

	to := tx.To.Address()
	switch to {
	case BeaconRootsAddress:
		b.writeBeaconRoot(sink, block)
	case withdrawalQueueAddress, consolidationQueueAddress:
		// No opaque withdrawal requests are modeled by the reference
		// backend; the call succeeds with empty output.
	default:
		if sink != nil {
			recipient := b.basic(db, to)
			recipient.Balance = recipient.Balance.Add(tx.Value)
			sink.SetAccountInfo(to, recipient)
		}
	}

	if sink != nil && !opts.IsSystemCall {
		sender.Nonce++
		sender.Balance = sender.Balance.Sub(tx.Value)
		sink.SetAccountInfo(tx.Sender, sender)
	}
	return ExecutionResult{Kind: Success, GasUsed: gasUsed}, nil
}

// writeBeaconRoot implements the EIP-4788 ring buffer write directly:
// slot (timestamp mod 8191) gets the timestamp, slot (timestamp mod 8191)
// + 8191 gets the root (spec.md §8.5). The system call never bumps any
// nonce.
func (b *ReferenceBackend) writeBeaconRoot(sink StateSink, block BlockEnv) {
	if sink == nil {
		return
	}
	idx := block.Timestamp % beaconRootsRingSize
	timestampSlot := coretypes.U256FromBigEndian(uint64ToBE(idx)).Hash()
	rootSlot := coretypes.U256FromBigEndian(uint64ToBE(idx + beaconRootsRingSize)).Hash()
	sink.SetStorage(BeaconRootsAddress, timestampSlot, coretypes.U256FromBigEndian(uint64ToBE(block.Timestamp)).Hash())
	sink.SetStorage(BeaconRootsAddress, rootSlot, block.BeaconRoot)
}

func uint64ToBE(v uint64) []byte {
	out := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}
