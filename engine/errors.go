package engine

// RpcKind tags the wire-visible RpcErr taxonomy of spec.md §7.
type RpcKind uint8

const (
	MethodNotFound RpcKind = iota
	BadParams
	UnsupportedFork
	Internal
	Vm
)

// jsonRPCCode maps each RpcKind to its JSON-RPC error code (spec.md §6).
var jsonRPCCode = map[RpcKind]int{
	MethodNotFound:  -32601,
	BadParams:       -32602,
	Internal:        -32603,
	UnsupportedFork: -38005,
	// Vm has no dedicated reserved code in spec.md §6; the transport
	// surfaces it under the generic internal-error code, same as any
	// other RpcErr::Internal, since Vm failures are "may be transient"
	// infrastructure errors rather than a distinct wire concept.
}

// RpcErr is the Payload pipeline's error return type: { MethodNotFound,
// BadParams, UnsupportedFork, Internal, Vm } (spec.md §7).
type RpcErr struct {
	Kind RpcKind
	Msg  string
	Err  error
}

func (e *RpcErr) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *RpcErr) Unwrap() error { return e.Err }

// Code returns the JSON-RPC error code the transport layer should send,
// defaulting to -32603 (Internal) for Vm and any unmapped kind.
func (e *RpcErr) Code() int {
	if code, ok := jsonRPCCode[e.Kind]; ok {
		return code
	}
	return jsonRPCCode[Internal]
}

func newRpcErr(kind RpcKind, msg string, err error) *RpcErr {
	return &RpcErr{Kind: kind, Msg: msg, Err: err}
}
