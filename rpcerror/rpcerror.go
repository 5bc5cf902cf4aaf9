// Package rpcerror defines the error taxonomy shared by the client and
// server dispatchers. Most errors that cross a package boundary in this
// module are a *rpcerror.Error, whose cause (if any) is wrapped with
// github.com/gravitational/trace. The framing layer also returns plain
// errors: io.EOF for end-of-stream, wire.ErrFrameTooLarge, and the
// underlying reader/writer's own errors from wire.ReadFrame/WriteFrame.
package rpcerror

import (
	"errors"
	"fmt"

	"github.com/gravitational/trace"
)

// Kind identifies which class of failure occurred. Kind values are stable
// and safe to compare in tests; see spec.md section 7 for the meaning of
// each one and its disposition (fatal to the connection vs. fails a single
// call).
type Kind string

const (
	// KindIO is an underlying socket/file error.
	KindIO Kind = "io"
	// KindQuic is a QUIC handshake or transport failure.
	KindQuic Kind = "quic"
	// KindHTTP3 is an HTTP/3 protocol error.
	KindHTTP3 Kind = "http3"
	// KindWebTransport is a WebTransport CONNECT/session/stream error.
	KindWebTransport Kind = "webtransport"
	// KindEncoding is an outbound envelope encode failure (either format).
	KindEncoding Kind = "encoding"
	// KindDecoding is an inbound envelope decode failure (either format).
	KindDecoding Kind = "decoding"
	// KindMethodNotFound is a server routing miss.
	KindMethodNotFound Kind = "method_not_found"
	// KindTimeout is a deadline exceeded, client- or server-side.
	KindTimeout Kind = "timeout"
	// KindRPCFailed is a server-reported application error.
	KindRPCFailed Kind = "rpc_failed"
	// KindConnectionClosed means the peer or the local side closed.
	KindConnectionClosed Kind = "connection_closed"
	// KindInvalidConfig is a configuration validation failure.
	KindInvalidConfig Kind = "invalid_config"
	// KindCertificateError is a PEM parse or trust chain failure.
	KindCertificateError Kind = "certificate_error"
)

// Error is a taxonomy-tagged error. Callers that need to branch on failure
// class use As to recover one, then switch on Kind.
type Error struct {
	Kind Kind
	// Message is the human-readable detail. For KindRPCFailed this is the
	// exact string the remote service returned on the wire.
	Message string
	// cause is the underlying error, if any, already trace.Wrap'd by the
	// caller that constructed this Error.
	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates an Error with no underlying cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that carries cause, traced with trace.Wrap so the
// originating stack frame survives for logging.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		cause:   trace.Wrap(cause),
	}
}

// Is reports whether err is an *Error of the given kind. It is the
// idiomatic way to branch on failure class: `if rpcerror.Is(err,
// rpcerror.KindTimeout) { ... }`.
func Is(err error, kind Kind) bool {
	var rpcErr *Error
	if !errors.As(err, &rpcErr) {
		return false
	}
	return rpcErr.Kind == kind
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var rpcErr *Error
	if !errors.As(err, &rpcErr) {
		return "", false
	}
	return rpcErr.Kind, true
}
