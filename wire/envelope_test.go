package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatProtobuf, FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			req := Request{ID: 42, Method: "echo.echo", Payload: []byte{0x48, 0x69}}

			data, err := EncodeRequest(req, format)
			require.NoError(t, err)

			got, err := DecodeRequest(data, format)
			require.NoError(t, err)
			assert.Equal(t, req, got)
		})
	}
}

func TestRequestRoundTripZeroLengthPayload(t *testing.T) {
	for _, format := range []Format{FormatProtobuf, FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			req := Request{ID: 1, Method: "a.b", Payload: []byte{}}

			data, err := EncodeRequest(req, format)
			require.NoError(t, err)

			got, err := DecodeRequest(data, format)
			require.NoError(t, err)
			assert.Equal(t, req.ID, got.ID)
			assert.Equal(t, req.Method, got.Method)
			assert.Empty(t, got.Payload)
		})
	}
}

func TestResponseRoundTripPayload(t *testing.T) {
	for _, format := range []Format{FormatProtobuf, FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			resp := Response{ID: 7, Payload: []byte{0x01, 0x02, 0x03}}

			data, err := EncodeResponse(resp, format)
			require.NoError(t, err)

			got, err := DecodeResponse(data, format)
			require.NoError(t, err)
			assert.Equal(t, resp.ID, got.ID)
			assert.Equal(t, resp.Payload, got.Payload)
			assert.Empty(t, got.Error)
		})
	}
}

func TestResponseRoundTripZeroLengthPayload(t *testing.T) {
	for _, format := range []Format{FormatProtobuf, FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			resp := Response{ID: 7, Payload: []byte{}}

			data, err := EncodeResponse(resp, format)
			require.NoError(t, err)

			got, err := DecodeResponse(data, format)
			require.NoError(t, err)
			assert.Empty(t, got.Error)
			assert.NotNil(t, got.Payload)
			assert.Empty(t, got.Payload)
		})
	}
}

func TestResponseRoundTripError(t *testing.T) {
	for _, format := range []Format{FormatProtobuf, FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			resp := Response{ID: 9, Error: "service not found: nope"}

			data, err := EncodeResponse(resp, format)
			require.NoError(t, err)

			got, err := DecodeResponse(data, format)
			require.NoError(t, err)
			assert.Equal(t, resp.Error, got.Error)
			assert.Nil(t, got.Payload)
		})
	}
}

func TestResponseDecodeMalformedBothAbsent(t *testing.T) {
	for _, format := range []Format{FormatProtobuf, FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			var data []byte
			if format == FormatJSON {
				data = []byte(`{"id":1}`)
			}
			_, err := DecodeResponse(data, format)
			require.Error(t, err)
		})
	}
}

func TestDecodeProtobufIgnoresUnknownFields(t *testing.T) {
	req := Request{ID: 1, Method: "a.b", Payload: []byte("x")}
	data, err := EncodeRequest(req, FormatProtobuf)
	require.NoError(t, err)

	// Append an unknown field (number 99, varint type) and make sure the
	// decoder still recovers the known fields. Tag = (99<<3)|0 = 792,
	// varint-encoded as 0x98 0x06.
	data = append(data, 0x98, 0x06)
	data = append(data, 0x01)

	got, err := DecodeRequest(data, FormatProtobuf)
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"protobuf": FormatProtobuf,
		"proto":    FormatProtobuf,
		"PROTOBUF": FormatProtobuf,
		"json":     FormatJSON,
		"JSON":     FormatJSON,
	}
	for input, want := range cases {
		got, err := ParseFormat(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
}
