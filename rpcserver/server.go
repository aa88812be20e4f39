package rpcserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ethexec/execlayer/core/vm"
	"github.com/ethexec/execlayer/corestate"
	"github.com/ethexec/execlayer/engine"
	"github.com/ethexec/execlayer/eth"
)

var errMissingParam = errors.New("rpcserver: missing parameter")

func internalErr(err error) error {
	return &engine.RpcErr{Kind: engine.Internal, Msg: "internal error", Err: err}
}

// rpcRequest is a JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

// rpcResponse is a JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcErrorBody   `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

type rpcErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server hosts the Engine API (authrpc) and public Eth API JSON-RPC
// surfaces over separate listeners, per spec.md §6.
type Server struct {
	store   corestate.Store
	backend vm.Backend
	ethAPI  *eth.API
	logger  *zap.Logger
}

// NewServer builds a Server driving store/backend for the Engine API and
// ethAPI for the public surface.
func NewServer(store corestate.Store, backend vm.Backend, ethAPI *eth.API, logger *zap.Logger) *Server {
	return &Server{store: store, backend: backend, ethAPI: ethAPI, logger: logger}
}

// AuthRPCHandler returns the authenticated Engine API HTTP handler,
// wrapped in the logging/recover/timeout/JWT middleware stack.
func (s *Server) AuthRPCHandler(jwtSecret []byte) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleEngineRPC).Methods(http.MethodPost)
	var h http.Handler = r
	h = authMiddleware(jwtSecret)(h)
	h = timeoutMiddleware(h)
	h = recoverMiddleware(s.logger)(h)
	h = loggingMiddleware(s.logger)(h)
	return h
}

// PublicRPCHandler returns the unauthenticated public Eth API handler,
// with CORS enabled for browser-based clients (spec.md §6's Public Eth
// API surface; grounded on the teacher's github.com/rs/cors dependency).
func (s *Server) PublicRPCHandler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleEthRPC).Methods(http.MethodPost)
	var h http.Handler = r
	h = cors.AllowAll().Handler(h)
	h = timeoutMiddleware(h)
	h = recoverMiddleware(s.logger)(h)
	h = loggingMiddleware(s.logger)(h)
	return h
}

func writeResponse(w http.ResponseWriter, id json.RawMessage, result interface{}, rpcErr error) {
	resp := rpcResponse{Jsonrpc: "2.0", ID: id}
	if rpcErr != nil {
		code := -32603
		if e, ok := rpcErr.(*engine.RpcErr); ok {
			code = e.Code()
		}
		resp.Error = &rpcErrorBody{Code: code, Message: rpcErr.Error()}
	} else {
		resp.Result = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func decodeRequest(r *http.Request) (*rpcRequest, error) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func badParams(id json.RawMessage, w http.ResponseWriter, err error) {
	writeResponse(w, id, nil, &engine.RpcErr{Kind: engine.BadParams, Msg: "invalid params", Err: err})
}

func methodNotFound(id json.RawMessage, w http.ResponseWriter, method string) {
	writeResponse(w, id, nil, &engine.RpcErr{Kind: engine.MethodNotFound, Msg: "method not found: " + method})
}
