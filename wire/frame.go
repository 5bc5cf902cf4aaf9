package wire

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/aashishbishow/quicserve/rpcerror"
)

// MaxFrameSize is the largest payload a single frame may carry, per
// spec.md section 4.A: 0x01_00_00_00 (16 MiB). A length prefix
// advertising more than this terminates the connection with a protocol
// error.
const MaxFrameSize = 0x01_00_00_00

// ErrFrameTooLarge is returned by ReadFrame when the advertised length
// prefix exceeds MaxFrameSize.
var ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")

const lengthPrefixSize = 4

// WriteFrame writes one length-delimited message: a 4-byte big-endian
// length prefix followed by payload. Zero-length payloads are legal. The
// codec is stateless across calls: it does not buffer or interpret
// payload contents.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	var header [lengthPrefixSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads the next complete frame from r: a 4-byte length prefix
// and exactly that many payload bytes. A partial read holds only the
// current frame's accumulated bytes; no state survives between calls
// beyond r's own read position. io.EOF on the length prefix is returned
// verbatim (end-of-stream); any other read failure, or a length prefix
// larger than MaxFrameSize, is reported as an error distinct from EOF.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, rpcerror.Wrap(rpcerror.KindWebTransport, err, "truncated frame length prefix")
		}
		return nil, err
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	if length == 0 {
		return []byte{}, nil
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, rpcerror.Wrap(rpcerror.KindWebTransport, err, "truncated frame payload")
	}
	return payload, nil
}
