package transport

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
	webtransport "github.com/quic-go/webtransport-go"

	"github.com/aashishbishow/quicserve/rpcerror"
)

// RPCPath is the only HTTP path a server accepts a WebTransport CONNECT
// session on, per spec.md section 4.C. Any other path is rejected.
const RPCPath = "/rpc"

// QUICParams are the transport parameters spec.md section 4.G lets callers
// configure; they are applied to both the client dialer and the server
// listener.
type QUICParams struct {
	KeepAlive            time.Duration
	IdleTimeout          time.Duration
	MaxConcurrentStreams int64
}

func (p QUICParams) quicConfig() *quic.Config {
	return &quic.Config{
		KeepAlivePeriod:    p.KeepAlive,
		MaxIdleTimeout:     p.IdleTimeout,
		MaxIncomingStreams: p.MaxConcurrentStreams,
	}
}

// Session pairs an established WebTransport session with the single
// bidirectional stream this runtime multiplexes RPC traffic over.
type Session struct {
	wt     *webtransport.Session
	Stream *MessageStream
}

// Close tears down the RPC stream and the WebTransport session beneath it.
func (s *Session) Close() error {
	streamErr := s.Stream.Close()
	var sessErr error
	if s.wt != nil {
		sessErr = s.wt.CloseWithError(0, "")
	}
	if streamErr != nil {
		return streamErr
	}
	return sessErr
}

// NewSessionForStream wraps an already-established Stream as a Session
// with no underlying WebTransport session. It exists for callers (chiefly
// tests) that want to drive client/server dispatch logic over a plain
// net.Pipe or similar fixture without a real QUIC handshake.
func NewSessionForStream(stream Stream) *Session {
	return &Session{Stream: NewMessageStream(stream)}
}

// DialConfig configures an outbound session (spec.md section 4.E "connect").
type DialConfig struct {
	Addr       string // host:port to dial
	ServerName string // SNI / authority used to build the https:// /rpc URL
	TLSConfig  *tls.Config
	QUIC       QUICParams
}

// Dial performs the QUIC handshake, HTTP/3 connection, and WebTransport
// CONNECT to RPCPath, then opens the single bidirectional RPC stream.
// Matches spec.md section 4.C steps 1-4 from the client's side.
func Dial(ctx context.Context, cfg DialConfig) (*Session, error) {
	tlsConf := cfg.TLSConfig.Clone()
	if tlsConf == nil {
		tlsConf = &tls.Config{}
	}
	tlsConf.NextProtos = []string{http3.NextProtoH3}
	if cfg.ServerName != "" {
		tlsConf.ServerName = cfg.ServerName
	}

	dialer := &webtransport.Dialer{
		TLSClientConfig: tlsConf,
		QUICConfig:      cfg.QUIC.quicConfig(),
	}

	url := "https://" + cfg.Addr + RPCPath
	resp, wtSession, err := dialer.Dial(ctx, url, nil)
	if err != nil {
		return nil, rpcerror.Wrap(rpcerror.KindWebTransport, err, "dial webtransport session to %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, rpcerror.New(rpcerror.KindWebTransport, "webtransport CONNECT rejected: status %d", resp.StatusCode)
	}

	stream, err := wtSession.OpenStreamSync(ctx)
	if err != nil {
		return nil, rpcerror.Wrap(rpcerror.KindWebTransport, err, "open rpc stream")
	}

	return &Session{wt: wtSession, Stream: NewMessageStream(stream)}, nil
}

// Handler processes one accepted session. It is called on its own
// goroutine per session (net/http already runs each request on its own
// goroutine, and the WebTransport upgrade happens inside that request) and
// should run until the session ends.
type Handler func(ctx context.Context, sess *Session)

// ListenConfig configures the inbound listener (spec.md section 4.C steps
// 1-4 from the server's side).
type ListenConfig struct {
	Addr      string
	TLSConfig *tls.Config
	QUIC      QUICParams
	Logger    *slog.Logger
}

// Listener owns the QUIC endpoint backing an HTTP/3 + WebTransport server.
type Listener struct {
	wtServer *webtransport.Server
	logger   *slog.Logger
}

// Listen builds (but does not yet start) a Listener that accepts
// WebTransport sessions at RPCPath and dispatches each to handler. Any
// other path is rejected with a 404, which spec.md's REQUEST_REJECTED
// control error maps onto.
func Listen(cfg ListenConfig, handler Handler) (*Listener, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tlsConf := cfg.TLSConfig.Clone()
	if tlsConf == nil {
		return nil, rpcerror.New(rpcerror.KindInvalidConfig, "server TLS config is required")
	}
	tlsConf.NextProtos = []string{http3.NextProtoH3}

	wtServer := &webtransport.Server{
		H3: http3.Server{
			Addr:       cfg.Addr,
			TLSConfig:  tlsConf,
			QUICConfig: cfg.QUIC.quicConfig(),
		},
		CheckOrigin: func(*http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc(RPCPath, func(w http.ResponseWriter, r *http.Request) {
		wtSession, err := wtServer.Upgrade(w, r)
		if err != nil {
			logger.Debug("failed to upgrade webtransport session", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		stream, err := wtSession.AcceptStream(r.Context())
		if err != nil {
			logger.Debug("failed to accept rpc stream", "error", err)
			_ = wtSession.CloseWithError(0, "")
			return
		}

		sess := &Session{wt: wtSession, Stream: NewMessageStream(stream)}
		handler(r.Context(), sess)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("rejecting session with unknown path", "path", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})
	wtServer.H3.Handler = mux

	return &Listener{wtServer: wtServer, logger: logger}, nil
}

// Serve runs the accept loop until Close is called or a fatal transport
// error occurs.
func (l *Listener) Serve() error {
	if err := l.wtServer.ListenAndServe(); err != nil {
		return rpcerror.Wrap(rpcerror.KindQuic, err, "webtransport listener stopped")
	}
	return nil
}

// ServeConn is like Serve but binds to an already-open UDP socket instead
// of one derived from ListenConfig.Addr. It exists so tests (and callers
// that want to pick their own ephemeral port and discover it before
// serving) can bind first and hand the connection over.
func (l *Listener) ServeConn(conn net.PacketConn) error {
	if err := l.wtServer.Serve(conn); err != nil {
		return rpcerror.Wrap(rpcerror.KindQuic, err, "webtransport listener stopped")
	}
	return nil
}

// Close shuts down the QUIC endpoint; in-flight sessions are cancelled at
// their next suspension point.
func (l *Listener) Close() error {
	return l.wtServer.Close()
}
