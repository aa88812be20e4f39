// Package corestate implements the Store adapter of spec.md §4.2: a
// narrow read/write view of persisted state consumed by the Execution
// adapter and the payload pipeline.
package corestate

// StoreError is the single error kind every Store operation can fail
// with (spec.md §4.2/§7): a descriptive reason wrapping the underlying
// I/O/corruption/encoding cause. There is no "missing" vs "corrupt"
// distinction at the API boundary — absence is encoded by returning
// (zero, false), never by StoreError.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return "corestate: " + e.Op
	}
	return "corestate: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func newStoreError(op string, cause error) error {
	return &StoreError{Op: op, Err: cause}
}
