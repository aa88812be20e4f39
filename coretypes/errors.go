package coretypes

import "errors"

// Header validation errors (spec.md §4.3 rule 4 / §8.3).
var (
	errHeaderParentHashMismatch     = errors.New("coretypes: header parent_hash does not match parent")
	errHeaderNumberNotMonotone      = errors.New("coretypes: header number is not parent+1")
	errHeaderTimestampNotIncreasing = errors.New("coretypes: header timestamp is not strictly greater than parent")
	errHeaderGasLimitOutOfBound     = errors.New("coretypes: header gas limit delta exceeds adjustment bound")
	errHeaderBaseFeeMismatch        = errors.New("coretypes: header base fee does not match derived value")
	errHeaderExtraDataTooLong       = errors.New("coretypes: header extra data exceeds 32 bytes")
)
