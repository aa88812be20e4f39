package rpcserver

import (
	"encoding/json"
	"net/http"

	"github.com/ethexec/execlayer/coretypes"
	"github.com/ethexec/execlayer/engine"
)

type newPayloadV3Params struct {
	Payload            coretypes.ExecutionPayloadV3 `json:"-"`
	ExpectedBlobHashes []coretypes.Hash             `json:"-"`
	ParentBeaconRoot   coretypes.Hash               `json:"-"`
}

// unmarshalNewPayloadV3Params decodes the three positional params
// engine_newPayloadV3 takes: [payload, expectedBlobVersionedHashes[],
// parentBeaconBlockRoot].
func unmarshalNewPayloadV3Params(raw json.RawMessage) (newPayloadV3Params, error) {
	var tuple [3]json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil {
		return newPayloadV3Params{}, err
	}
	var out newPayloadV3Params
	if err := json.Unmarshal(tuple[0], &out.Payload); err != nil {
		return newPayloadV3Params{}, err
	}
	var hexHashes []string
	if err := json.Unmarshal(tuple[1], &hexHashes); err != nil {
		return newPayloadV3Params{}, err
	}
	out.ExpectedBlobHashes = make([]coretypes.Hash, len(hexHashes))
	for i, h := range hexHashes {
		out.ExpectedBlobHashes[i] = coretypes.HexToHash(h)
	}
	var rootHex string
	if err := json.Unmarshal(tuple[2], &rootHex); err != nil {
		return newPayloadV3Params{}, err
	}
	out.ParentBeaconRoot = coretypes.HexToHash(rootHex)
	return out, nil
}

type payloadStatusJSON struct {
	Status          engine.Status `json:"status"`
	LatestValidHash *string       `json:"latestValidHash"`
	ValidationError *string       `json:"validationError"`
}

func payloadStatusToJSON(s engine.PayloadStatus) payloadStatusJSON {
	out := payloadStatusJSON{Status: s.Status}
	if s.LatestValidHash != nil {
		h := s.LatestValidHash.Hex()
		out.LatestValidHash = &h
	}
	if s.ValidationError != "" {
		out.ValidationError = &s.ValidationError
	}
	return out
}

func (s *Server) handleEngineRPC(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		badParams(nil, w, err)
		return
	}
	switch req.Method {
	case "engine_newPayloadV3":
		params, err := unmarshalNewPayloadV3Params(req.Params)
		if err != nil {
			badParams(req.ID, w, err)
			return
		}
		ctx, cancel := contextWithDeadline(r)
		defer cancel()
		status, err := engine.NewPayloadV3(ctx, s.store, s.backend, params.Payload, params.ExpectedBlobHashes, params.ParentBeaconRoot)
		if err != nil {
			writeResponse(w, req.ID, nil, err)
			return
		}
		writeResponse(w, req.ID, payloadStatusToJSON(status), nil)

	case "engine_forkchoiceUpdatedV3":
		var params [2]json.RawMessage
		if err := json.Unmarshal(req.Params, &params); err != nil {
			badParams(req.ID, w, err)
			return
		}
		result := engine.ForkchoiceUpdatedV3(engine.ForkchoiceState{}, nil)
		writeResponse(w, req.ID, map[string]interface{}{
			"payloadId":     nil,
			"payloadStatus": payloadStatusToJSON(result.PayloadStatus),
		}, nil)

	case "engine_exchangeCapabilities":
		var wrapped [1][]string
		if err := json.Unmarshal(req.Params, &wrapped); err != nil {
			badParams(req.ID, w, err)
			return
		}
		writeResponse(w, req.ID, engine.ExchangeCapabilities(wrapped[0]), nil)

	default:
		methodNotFound(req.ID, w, req.Method)
	}
}
