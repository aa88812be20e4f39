package vm

import "github.com/ethexec/execlayer/coretypes"

// BeaconRootsAddress is the fixed EIP-4788 system contract address
// (spec.md §4.1/§9: hard-coded rather than re-parsed at each call).
// Shared by every Backend implementation regardless of build tag, since
// the Execution adapter (core/beaconroot.go) references it directly.
var BeaconRootsAddress = coretypes.HexToAddress("0x000F3df6D732807Ef1319fB7B8bB8522d0Beac02")

// SystemSenderAddress is the fixed synthetic sender for system calls
// (spec.md §4.1/§9).
var SystemSenderAddress = coretypes.HexToAddress("0xfffffffffffffffffffffffffffffffffffffffe")
