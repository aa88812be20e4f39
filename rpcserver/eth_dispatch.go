package rpcserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethexec/execlayer/coretypes"
)

func parseBlockNumberParam(s string) (uint64, error) {
	s = strings.TrimPrefix(s, "0x")
	return strconv.ParseUint(s, 16, 64)
}

func (s *Server) handleEthRPC(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		badParams(nil, w, err)
		return
	}
	var params []json.RawMessage
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			badParams(req.ID, w, err)
			return
		}
	}

	switch req.Method {
	case "eth_chainId":
		writeResponse(w, req.ID, hexUint(s.ethAPI.ChainID()), nil)

	case "eth_syncing":
		writeResponse(w, req.ID, s.ethAPI.Syncing(), nil)

	case "eth_getBalance":
		addr, ok := paramAddress(params, 0, w, req.ID)
		if !ok {
			return
		}
		bal, err := s.ethAPI.GetBalance(addr)
		if err != nil {
			writeResponse(w, req.ID, nil, internalErr(err))
			return
		}
		text, _ := bal.MarshalText()
		writeResponse(w, req.ID, string(text), nil)

	case "eth_getCode":
		addr, ok := paramAddress(params, 0, w, req.ID)
		if !ok {
			return
		}
		code, err := s.ethAPI.GetCode(addr)
		if err != nil {
			writeResponse(w, req.ID, nil, internalErr(err))
			return
		}
		writeResponse(w, req.ID, "0x"+hexBytes(code), nil)

	case "eth_getStorageAt":
		addr, ok := paramAddress(params, 0, w, req.ID)
		if !ok {
			return
		}
		key, ok := paramHash(params, 1, w, req.ID)
		if !ok {
			return
		}
		v, err := s.ethAPI.GetStorageAt(addr, key)
		if err != nil {
			writeResponse(w, req.ID, nil, internalErr(err))
			return
		}
		writeResponse(w, req.ID, v.Hex(), nil)

	case "eth_getBlockByNumber":
		number, ok := paramBlockNumber(params, 0, w, req.ID)
		if !ok {
			return
		}
		header, receipts, found, err := s.ethAPI.GetBlockByNumber(number)
		if err != nil {
			writeResponse(w, req.ID, nil, internalErr(err))
			return
		}
		if !found {
			writeResponse(w, req.ID, nil, nil)
			return
		}
		writeResponse(w, req.ID, blockJSON(header, receipts), nil)

	case "eth_getBlockByHash":
		hash, ok := paramHash(params, 0, w, req.ID)
		if !ok {
			return
		}
		header, receipts, found, err := s.ethAPI.GetBlockByHash(hash)
		if err != nil {
			writeResponse(w, req.ID, nil, internalErr(err))
			return
		}
		if !found {
			writeResponse(w, req.ID, nil, nil)
			return
		}
		writeResponse(w, req.ID, blockJSON(header, receipts), nil)

	case "eth_getBlockTransactionCountByNumber":
		number, ok := paramBlockNumber(params, 0, w, req.ID)
		if !ok {
			return
		}
		count, err := s.ethAPI.GetBlockTransactionCountByNumber(number)
		if err != nil {
			writeResponse(w, req.ID, nil, internalErr(err))
			return
		}
		writeResponse(w, req.ID, hexUint(uint64(count)), nil)

	case "eth_getBlockReceipts":
		number, ok := paramBlockNumber(params, 0, w, req.ID)
		if !ok {
			return
		}
		receipts, err := s.ethAPI.GetBlockReceipts(number)
		if err != nil {
			writeResponse(w, req.ID, nil, internalErr(err))
			return
		}
		writeResponse(w, req.ID, receipts, nil)

	case "eth_getTransactionByHash":
		hash, ok := paramHash(params, 0, w, req.ID)
		if !ok {
			return
		}
		receipt, found, err := s.ethAPI.GetTransactionByHash(hash)
		if err != nil {
			writeResponse(w, req.ID, nil, internalErr(err))
			return
		}
		if !found {
			writeResponse(w, req.ID, nil, nil)
			return
		}
		writeResponse(w, req.ID, receipt, nil)

	case "eth_getTransactionReceipt":
		hash, ok := paramHash(params, 0, w, req.ID)
		if !ok {
			return
		}
		receipt, found, err := s.ethAPI.GetTransactionReceipt(hash)
		if err != nil {
			writeResponse(w, req.ID, nil, internalErr(err))
			return
		}
		if !found {
			writeResponse(w, req.ID, nil, nil)
			return
		}
		writeResponse(w, req.ID, receipt, nil)

	case "admin_nodeInfo":
		writeResponse(w, req.ID, s.ethAPI.NodeInfo(), nil)

	default:
		methodNotFound(req.ID, w, req.Method)
	}
}

func paramAddress(params []json.RawMessage, i int, w http.ResponseWriter, id json.RawMessage) (coretypes.Address, bool) {
	var s string
	if i >= len(params) {
		badParams(id, w, errMissingParam)
		return coretypes.Address{}, false
	}
	if err := json.Unmarshal(params[i], &s); err != nil {
		badParams(id, w, err)
		return coretypes.Address{}, false
	}
	return coretypes.HexToAddress(s), true
}

func paramHash(params []json.RawMessage, i int, w http.ResponseWriter, id json.RawMessage) (coretypes.Hash, bool) {
	var s string
	if i >= len(params) {
		badParams(id, w, errMissingParam)
		return coretypes.Hash{}, false
	}
	if err := json.Unmarshal(params[i], &s); err != nil {
		badParams(id, w, err)
		return coretypes.Hash{}, false
	}
	return coretypes.HexToHash(s), true
}

func paramBlockNumber(params []json.RawMessage, i int, w http.ResponseWriter, id json.RawMessage) (uint64, bool) {
	var s string
	if i >= len(params) {
		badParams(id, w, errMissingParam)
		return 0, false
	}
	if err := json.Unmarshal(params[i], &s); err != nil {
		badParams(id, w, err)
		return 0, false
	}
	n, err := parseBlockNumberParam(s)
	if err != nil {
		badParams(id, w, err)
		return 0, false
	}
	return n, true
}

func hexUint(v uint64) string { return "0x" + strconv.FormatUint(v, 16) }

func hexBytes(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = digits[c>>4]
		out[i*2+1] = digits[c&0xf]
	}
	return string(out)
}

type blockView struct {
	Header   coretypes.BlockHeader
	Receipts []coretypes.Receipt
}

func blockJSON(header coretypes.BlockHeader, receipts []coretypes.Receipt) blockView {
	return blockView{Header: header, Receipts: receipts}
}
