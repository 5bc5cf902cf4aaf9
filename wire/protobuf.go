package wire

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/aashishbishow/quicserve/rpcerror"
)

// The protobuf envelope below is hand-encoded against protowire rather than
// generated by protoc: Request/Response are private to this runtime (no
// external .proto schema to interoperate with), so there is nothing for
// code generation to buy us beyond what protowire gives directly. Field
// numbers are documented in SPEC_FULL.md section 3.2:
//
//	Request:  1 = id (varint), 2 = method (string), 3 = payload (bytes)
//	Response: 1 = id (varint), 2 = payload (bytes, optional), 3 = error (string, optional)
const (
	fieldRequestID      protowire.Number = 1
	fieldRequestMethod  protowire.Number = 2
	fieldRequestPayload protowire.Number = 3

	fieldResponseID      protowire.Number = 1
	fieldResponsePayload protowire.Number = 2
	fieldResponseError   protowire.Number = 3
)

func encodeRequestProtobuf(req Request) ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, fieldRequestID, protowire.VarintType)
	b = protowire.AppendVarint(b, req.ID)
	b = protowire.AppendTag(b, fieldRequestMethod, protowire.BytesType)
	b = protowire.AppendString(b, req.Method)
	b = protowire.AppendTag(b, fieldRequestPayload, protowire.BytesType)
	b = protowire.AppendBytes(b, req.Payload)
	return b, nil
}

func decodeRequestProtobuf(data []byte) (Request, error) {
	var req Request
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Request{}, rpcerror.New(rpcerror.KindDecoding, "decode protobuf request: %v", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldRequestID:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Request{}, rpcerror.New(rpcerror.KindDecoding, "decode protobuf request id: %v", protowire.ParseError(n))
			}
			req.ID = v
			data = data[n:]
		case fieldRequestMethod:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return Request{}, rpcerror.New(rpcerror.KindDecoding, "decode protobuf request method: %v", protowire.ParseError(n))
			}
			req.Method = v
			data = data[n:]
		case fieldRequestPayload:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Request{}, rpcerror.New(rpcerror.KindDecoding, "decode protobuf request payload: %v", protowire.ParseError(n))
			}
			req.Payload = append([]byte(nil), v...)
			data = data[n:]
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Request{}, rpcerror.New(rpcerror.KindDecoding, "decode protobuf request: unknown field %d: %v", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	if req.Payload == nil {
		req.Payload = []byte{}
	}
	return req, nil
}

func encodeResponseProtobuf(resp Response) ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, fieldResponseID, protowire.VarintType)
	b = protowire.AppendVarint(b, resp.ID)
	switch {
	case resp.Error != "":
		b = protowire.AppendTag(b, fieldResponseError, protowire.BytesType)
		b = protowire.AppendString(b, resp.Error)
	default:
		b = protowire.AppendTag(b, fieldResponsePayload, protowire.BytesType)
		b = protowire.AppendBytes(b, resp.Payload)
	}
	return b, nil
}

func decodeResponseProtobuf(data []byte) (Response, error) {
	var resp Response
	var sawPayload, sawError bool
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Response{}, rpcerror.New(rpcerror.KindDecoding, "decode protobuf response: %v", protowire.ParseError(n))
		}
		data = data[n:]

		switch num {
		case fieldResponseID:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Response{}, rpcerror.New(rpcerror.KindDecoding, "decode protobuf response id: %v", protowire.ParseError(n))
			}
			resp.ID = v
			data = data[n:]
		case fieldResponsePayload:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Response{}, rpcerror.New(rpcerror.KindDecoding, "decode protobuf response payload: %v", protowire.ParseError(n))
			}
			resp.Payload = append([]byte(nil), v...)
			sawPayload = true
			data = data[n:]
		case fieldResponseError:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return Response{}, rpcerror.New(rpcerror.KindDecoding, "decode protobuf response error: %v", protowire.ParseError(n))
			}
			resp.Error = v
			sawError = true
			data = data[n:]
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return Response{}, rpcerror.New(rpcerror.KindDecoding, "decode protobuf response: unknown field %d: %v", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	if !sawPayload && !sawError {
		return Response{}, rpcerror.New(rpcerror.KindDecoding, "malformed response %d: both payload and error absent", resp.ID)
	}
	if sawPayload && resp.Payload == nil {
		resp.Payload = []byte{}
	}
	return resp, nil
}
