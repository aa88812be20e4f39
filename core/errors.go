package core

import "github.com/ethexec/execlayer/core/vm"

// EvmKind tags the three EvmError variants of spec.md §7.
type EvmKind uint8

const (
	// EvmBackendError wraps an infrastructure failure reported by the
	// Backend itself (never a revert/halt, which are successful outcomes).
	EvmBackendError EvmKind = iota
	// EvmDatabaseError wraps a StoreError surfaced through the read-through
	// Database view.
	EvmDatabaseError
	// EvmInvalidTransaction reports a transaction that cannot be run at
	// all (e.g. malformed fee fields).
	EvmInvalidTransaction
)

// EvmError is the Execution adapter's error taxonomy (spec.md §7):
// { Backend(detail), DatabaseError, InvalidTransaction(reason) }.
type EvmError struct {
	Kind EvmKind
	Msg  string
	Err  error
}

func (e *EvmError) Error() string {
	switch e.Kind {
	case EvmDatabaseError:
		return "core: database error: " + e.Err.Error()
	case EvmInvalidTransaction:
		return "core: invalid transaction: " + e.Msg
	default:
		if e.Err != nil {
			return "core: backend error: " + e.Err.Error()
		}
		return "core: backend error: " + e.Msg
	}
}

func (e *EvmError) Unwrap() error { return e.Err }

// fromBackendErr classifies an error returned by vm.Backend.Run into the
// EvmError taxonomy: a *vm.BackendError (or an *EvmError already wrapping
// a DatabaseError, surfaced through the Database view) is preserved,
// anything else collapses to an opaque backend error.
func fromBackendErr(err error) error {
	if err == nil {
		return nil
	}
	if evmErr, ok := err.(*EvmError); ok {
		return evmErr
	}
	if be, ok := err.(*vm.BackendError); ok {
		return &EvmError{Kind: EvmBackendError, Msg: be.Msg, Err: be}
	}
	return &EvmError{Kind: EvmBackendError, Msg: err.Error(), Err: err}
}
