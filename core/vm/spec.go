package vm

import "github.com/ethexec/execlayer/coretypes"

// SpecID names a hard-fork rule set. The payload pipeline always selects
// CANCUN (spec.md §4.1's "Spec selection"); the surrounding entries are
// kept so the numeric ids line up with the cgo backend's own spec table,
// grounded on the teacher's SpecID mapping (core/vm/spec.go), trimmed to
// the Cancun-era neighbourhood this module's non-goals leave in scope.
type SpecID uint8

const (
	SpecShanghai SpecID = 16
	SpecCancun   SpecID = 17
	SpecPrague   SpecID = 19
)

// PrecompileAddresses returns the precompile address set for spec,
// consulted when seeding an AccessListRecorder's exclusion set (spec.md
// §4.1: access-list discovery never records precompile addresses).
func PrecompileAddresses(spec SpecID) []coretypes.Address {
	addrs := make([]coretypes.Address, 0, 10)
	for i := byte(1); i <= 9; i++ {
		addrs = append(addrs, precompileAddr(i))
	}
	if spec >= SpecCancun {
		addrs = append(addrs, precompileAddr(0x0a)) // point evaluation, EIP-4844
	}
	return addrs
}

func precompileAddr(last byte) coretypes.Address {
	var a coretypes.Address
	a[coretypes.AddressLength-1] = last
	return a
}
