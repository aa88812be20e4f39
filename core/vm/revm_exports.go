//go:build revm

package vm

/*
#include <stdint.h>
*/
import "C"

import (
	"unsafe"

	"github.com/ethexec/execlayer/coretypes"
)

// The exported functions below are the callbacks the external EVM shared
// library invokes to read pre-state and to journal writes, mirroring
// revm_bridge/cgo_exports.go's exported C callbacks, generalized from a
// go-ethereum state.StateDB handle to this module's Database/StateSink
// pair. Addresses and hashes cross the boundary as raw 20/32-byte
// buffers rather than hex strings, avoiding the per-call CString/GoString
// churn the teacher's original bridge paid.

//export go_revm_get_balance
func go_revm_get_balance(handle C.uintptr_t, addrPtr *C.uint8_t, out *C.uint8_t) C.int {
	ctx := lookupCallCtx(uintptr(handle))
	if ctx == nil {
		return -1
	}
	addr := addressFromC(addrPtr)
	info, ok, err := ctx.db.Basic(addr)
	if err != nil {
		return -1
	}
	if ctx.al != nil {
		ctx.al.TouchAddress(addr)
	}
	if !ok {
		return 0
	}
	b := info.Balance.Bytes32()
	copyOut(out, b[:])
	return 1
}

//export go_revm_get_nonce
func go_revm_get_nonce(handle C.uintptr_t, addrPtr *C.uint8_t) C.uint64_t {
	ctx := lookupCallCtx(uintptr(handle))
	if ctx == nil {
		return 0
	}
	addr := addressFromC(addrPtr)
	info, _, _ := ctx.db.Basic(addr)
	return C.uint64_t(info.Nonce)
}

//export go_revm_get_code
func go_revm_get_code(handle C.uintptr_t, hashPtr *C.uint8_t, outLen *C.uint32_t) *C.uint8_t {
	ctx := lookupCallCtx(uintptr(handle))
	if ctx == nil {
		return nil
	}
	h := hashFromC(hashPtr)
	code, err := ctx.db.CodeByHash(h)
	if err != nil || len(code) == 0 {
		*outLen = 0
		return nil
	}
	*outLen = C.uint32_t(len(code))
	return (*C.uint8_t)(C.CBytes(code))
}

//export go_revm_get_storage
func go_revm_get_storage(handle C.uintptr_t, addrPtr, keyPtr, out *C.uint8_t) C.int {
	ctx := lookupCallCtx(uintptr(handle))
	if ctx == nil {
		return -1
	}
	addr := addressFromC(addrPtr)
	key := hashFromC(keyPtr)
	v, err := ctx.db.Storage(addr, key)
	if err != nil {
		return -1
	}
	if ctx.al != nil {
		ctx.al.TouchStorage(addr, key)
	}
	copyOut(out, v[:])
	return 1
}

//export go_revm_get_block_hash
func go_revm_get_block_hash(handle C.uintptr_t, number C.uint64_t, out *C.uint8_t) C.int {
	ctx := lookupCallCtx(uintptr(handle))
	if ctx == nil {
		return -1
	}
	h, err := ctx.db.BlockHash(uint64(number))
	if err != nil {
		return -1
	}
	copyOut(out, h[:])
	return 1
}

//export go_revm_set_balance
func go_revm_set_balance(handle C.uintptr_t, addrPtr, valuePtr *C.uint8_t) C.int {
	ctx := lookupCallCtx(uintptr(handle))
	if ctx == nil || ctx.sink == nil {
		return 0
	}
	addr := addressFromC(addrPtr)
	bal := coretypes.U256FromBigEndian(bytesFromC(valuePtr, 32))
	info, _, _ := ctx.db.Basic(addr)
	info.Balance = bal
	ctx.sink.SetAccountInfo(addr, info)
	return 1
}

//export go_revm_set_nonce
func go_revm_set_nonce(handle C.uintptr_t, addrPtr *C.uint8_t, nonce C.uint64_t) C.int {
	ctx := lookupCallCtx(uintptr(handle))
	if ctx == nil || ctx.sink == nil {
		return 0
	}
	addr := addressFromC(addrPtr)
	info, _, _ := ctx.db.Basic(addr)
	info.Nonce = uint64(nonce)
	ctx.sink.SetAccountInfo(addr, info)
	return 1
}

//export go_revm_set_code
func go_revm_set_code(handle C.uintptr_t, addrPtr *C.uint8_t, codePtr *C.uint8_t, codeLen C.uint32_t) C.int {
	ctx := lookupCallCtx(uintptr(handle))
	if ctx == nil || ctx.sink == nil {
		return 0
	}
	addr := addressFromC(addrPtr)
	code := bytesFromC(codePtr, int(codeLen))
	codeHash := coretypes.CodeHash(code)
	ctx.sink.SetCode(codeHash, code)
	info, _, _ := ctx.db.Basic(addr)
	info.CodeHash = codeHash
	ctx.sink.SetAccountInfo(addr, info)
	return 1
}

//export go_revm_set_storage
func go_revm_set_storage(handle C.uintptr_t, addrPtr, keyPtr, valuePtr *C.uint8_t) C.int {
	ctx := lookupCallCtx(uintptr(handle))
	if ctx == nil || ctx.sink == nil {
		return 0
	}
	addr := addressFromC(addrPtr)
	key := hashFromC(keyPtr)
	value := hashFromC(valuePtr)
	ctx.sink.SetStorage(addr, key, value)
	return 1
}

//export go_revm_destroy_account
func go_revm_destroy_account(handle C.uintptr_t, addrPtr *C.uint8_t) C.int {
	ctx := lookupCallCtx(uintptr(handle))
	if ctx == nil || ctx.sink == nil {
		return 0
	}
	ctx.sink.DestroyAccount(addressFromC(addrPtr))
	return 1
}

func addressFromC(p *C.uint8_t) coretypes.Address {
	return coretypes.BytesToAddress(bytesFromC(p, coretypes.AddressLength))
}

func hashFromC(p *C.uint8_t) coretypes.Hash {
	return coretypes.BytesToHash(bytesFromC(p, coretypes.HashLength))
}

func bytesFromC(p *C.uint8_t, n int) []byte {
	return C.GoBytes(unsafe.Pointer(p), C.int(n))
}

func copyOut(dst *C.uint8_t, src []byte) {
	out := unsafe.Slice((*byte)(unsafe.Pointer(dst)), len(src))
	copy(out, src)
}
