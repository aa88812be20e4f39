//go:build !revm

package main

import "github.com/ethexec/execlayer/core/vm"

// newBackend builds the default pure-Go Backend. The cgo-bridged Backend
// (go build -tags revm) is built by backend_revm.go instead; both give
// main a single name to call regardless of which one a given binary was
// compiled with.
func newBackend(chainID uint64) vm.Backend {
	return vm.NewReferenceBackend()
}
