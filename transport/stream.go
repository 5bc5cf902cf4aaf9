// Package transport implements the bidirectional message stream (spec.md
// section 4.B) and the QUIC/HTTP3/WebTransport session that establishes it
// (spec.md section 4.C).
package transport

import (
	"bufio"
	"io"
	"sync"

	"github.com/aashishbishow/quicserve/rpcerror"
	"github.com/aashishbishow/quicserve/wire"
)

// Stream is the minimal shape MessageStream needs from an underlying
// bidirectional byte stream. Both a *webtransport.Stream (production) and
// a net.Conn from net.Pipe (tests) satisfy it.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
}

// MessageStream wraps one bidirectional Stream and exposes framed
// send/receive, per spec.md section 4.B. Send and Receive are each
// internally sequential and safe to call from their own single caller;
// concurrent Sends are additionally serialized by a mutex so that two
// goroutines racing to Send never interleave frames (the server dispatcher
// relies on this — spec.md section 4.F's "writer mutex").
type MessageStream struct {
	stream Stream
	reader *bufio.Reader

	sendMu sync.Mutex
}

// NewMessageStream wraps stream in a MessageStream.
func NewMessageStream(stream Stream) *MessageStream {
	return &MessageStream{
		stream: stream,
		reader: bufio.NewReaderSize(stream, 32*1024),
	}
}

// Send writes one framed message. It is safe to call concurrently from
// multiple goroutines; frames from concurrent calls are never interleaved.
func (m *MessageStream) Send(payload []byte) error {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	if err := wire.WriteFrame(m.stream, payload); err != nil {
		return rpcerror.Wrap(rpcerror.KindWebTransport, err, "send message")
	}
	return nil
}

// Receive returns the next complete frame, or io.EOF if the peer closed
// the stream cleanly. It must only be called from one goroutine at a time;
// callers that need fan-out read once and dispatch themselves (this is
// exactly what the client's response demultiplexer and the server's
// per-connection request reader do).
func (m *MessageStream) Receive() ([]byte, error) {
	payload, err := wire.ReadFrame(m.reader)
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, rpcerror.Wrap(rpcerror.KindWebTransport, err, "receive message")
	}
	return payload, nil
}

// Close closes the underlying stream.
func (m *MessageStream) Close() error {
	return m.stream.Close()
}
