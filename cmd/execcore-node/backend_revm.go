//go:build revm

package main

import "github.com/ethexec/execlayer/core/vm"

// newBackend builds the cgo-bridged Backend for chainID.
func newBackend(chainID uint64) vm.Backend {
	return vm.NewRevmBackend(chainID)
}
