package wire

import (
	"encoding/json"

	"github.com/gravitational/trace"

	"github.com/aashishbishow/quicserve/rpcerror"
)

// jsonRequest mirrors Request for JSON encoding. Payload has no absent
// state (a Request always carries a payload, possibly zero-length), so a
// plain []byte field is enough: encoding/json base64-encodes it natively.
type jsonRequest struct {
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Payload []byte `json:"payload"`
}

// jsonResponse mirrors Response. Payload and Error use pointer types so
// "field absent" (nil pointer, omitted by omitempty) is distinguishable
// from "field present but zero value" (non-nil pointer to an empty slice
// or empty string) — this is what lets a zero-length response payload
// round-trip correctly instead of being confused with an absent payload.
type jsonResponse struct {
	ID      uint64  `json:"id"`
	Payload *[]byte `json:"payload,omitempty"`
	Error   *string `json:"error,omitempty"`
}

func encodeRequestJSON(req Request) ([]byte, error) {
	payload := req.Payload
	if payload == nil {
		payload = []byte{}
	}
	data, err := json.Marshal(jsonRequest{ID: req.ID, Method: req.Method, Payload: payload})
	if err != nil {
		return nil, rpcerror.Wrap(rpcerror.KindEncoding, err, "encode json request")
	}
	return data, nil
}

func decodeRequestJSON(data []byte) (Request, error) {
	var jr jsonRequest
	if err := json.Unmarshal(data, &jr); err != nil {
		return Request{}, rpcerror.Wrap(rpcerror.KindDecoding, err, "decode json request")
	}
	return Request{ID: jr.ID, Method: jr.Method, Payload: jr.Payload}, nil
}

func encodeResponseJSON(resp Response) ([]byte, error) {
	jr := jsonResponse{ID: resp.ID}
	switch {
	case resp.Error != "":
		jr.Error = &resp.Error
	default:
		payload := resp.Payload
		if payload == nil {
			payload = []byte{}
		}
		jr.Payload = &payload
	}
	data, err := json.Marshal(jr)
	if err != nil {
		return nil, rpcerror.Wrap(rpcerror.KindEncoding, err, "encode json response")
	}
	return data, nil
}

func decodeResponseJSON(data []byte) (Response, error) {
	var jr jsonResponse
	if err := json.Unmarshal(data, &jr); err != nil {
		return Response{}, rpcerror.Wrap(rpcerror.KindDecoding, err, "decode json response")
	}
	resp := Response{ID: jr.ID}
	switch {
	case jr.Payload != nil:
		resp.Payload = *jr.Payload
	case jr.Error != nil:
		resp.Error = *jr.Error
	default:
		return Response{}, trace.Wrap(rpcerror.New(rpcerror.KindDecoding, "malformed response %d: both payload and error absent", jr.ID))
	}
	return resp, nil
}
