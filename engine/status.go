// Package engine implements the Payload pipeline (spec.md §4.3/§4.4):
// engine_newPayloadV3's full validation/execution state machine plus the
// two auxiliary Engine API endpoints, wired directly over the core and
// corestate packages with no HTTP/JSON framing of its own (that lives in
// package rpcserver).
package engine

import "github.com/ethexec/execlayer/coretypes"

// Status is the status tag of a PayloadStatus response (spec.md §4.3).
type Status string

const (
	Valid             Status = "VALID"
	Invalid           Status = "INVALID"
	Syncing           Status = "SYNCING"
	Accepted          Status = "ACCEPTED"
	InvalidBlockHash  Status = "INVALID_BLOCK_HASH"
)

// PayloadStatus is the engine_newPayloadV3 response shape: { status,
// latestValidHash?, validationError? }.
type PayloadStatus struct {
	Status          Status
	LatestValidHash *coretypes.Hash
	ValidationError string
}

func valid(blockHash coretypes.Hash) PayloadStatus {
	h := blockHash
	return PayloadStatus{Status: Valid, LatestValidHash: &h}
}

func invalid(latestValid *coretypes.Hash, reason string) PayloadStatus {
	return PayloadStatus{Status: Invalid, LatestValidHash: latestValid, ValidationError: reason}
}

func syncing() PayloadStatus {
	return PayloadStatus{Status: Syncing}
}
