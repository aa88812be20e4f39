package engine

// ForkchoiceState is the consensus-supplied head/safe/finalized triple
// accompanying engine_forkchoiceUpdatedV3. Block building is out of
// scope (spec.md §4.4), so its fields are accepted but not acted on.
type ForkchoiceState struct {
	HeadBlockHash      [32]byte
	SafeBlockHash      [32]byte
	FinalizedBlockHash [32]byte
}

// PayloadAttributes is the optional block-building request accompanying
// a forkchoice update; always ignored (block building is a non-goal).
type PayloadAttributes struct {
	Timestamp             uint64
	PrevRandao            [32]byte
	SuggestedFeeRecipient [20]byte
}

// ForkchoiceUpdatedResult is the engine_forkchoiceUpdatedV3 response
// shape: a null payloadId and a constant SYNCING payload status (spec.md
// §4.4/§6).
type ForkchoiceUpdatedResult struct {
	PayloadStatus PayloadStatus
	PayloadID     *[8]byte
}

// ForkchoiceUpdatedV3 always returns a constant SYNCING response with no
// payloadId: block building is out of scope for this module (spec.md
// §4.4).
func ForkchoiceUpdatedV3(state ForkchoiceState, attrs *PayloadAttributes) ForkchoiceUpdatedResult {
	return ForkchoiceUpdatedResult{PayloadStatus: syncing()}
}
