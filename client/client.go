// Package client implements the RPC client dispatcher (spec.md section
// 4.E): connection lifecycle, id allocation, the pending call table, and
// the response demultiplexer.
package client

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aashishbishow/quicserve/rpcconfig"
	"github.com/aashishbishow/quicserve/rpcerror"
	"github.com/aashishbishow/quicserve/transport"
	"github.com/aashishbishow/quicserve/wire"
)

// Client is the RPC client dispatcher. A Client is safe for concurrent use
// by multiple goroutines calling Call.
type Client struct {
	cfg    rpcconfig.Config
	logger *slog.Logger

	mu    sync.Mutex
	state State
	sess  *transport.Session

	pending *pendingTable
	done    chan struct{} // closed once the demultiplexer has exited
}

// New constructs a Client from cfg. No network activity happens here;
// Connect performs the handshake.
func New(cfg rpcconfig.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		cfg:     cfg,
		logger:  slog.Default(),
		state:   Disconnected,
		pending: newPendingTable(),
	}, nil
}

// Connect performs the layered transport handshake (spec.md section 4.C)
// and starts the response demultiplexer. Fails fast on TLS/HTTP3/
// WebTransport errors.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return rpcerror.New(rpcerror.KindInvalidConfig, "connect called in state %s", c.state)
	}
	c.state = Connecting
	c.mu.Unlock()

	tlsConf, err := c.cfg.BuildClientTLSConfig()
	if err != nil {
		return err
	}

	sess, err := transport.Dial(ctx, transport.DialConfig{
		Addr:       c.cfg.Addr,
		ServerName: c.cfg.ServerName,
		TLSConfig:  tlsConf,
		QUIC: transport.QUICParams{
			KeepAlive:            c.cfg.KeepAlive,
			IdleTimeout:          c.cfg.IdleTimeout,
			MaxConcurrentStreams: c.cfg.MaxConcurrentStreams,
		},
	})
	if err != nil {
		c.mu.Lock()
		if c.state == Connecting {
			c.state = Disconnected
		}
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if c.state != Connecting {
		// Close() ran concurrently with the dial above and moved the
		// client out of Connecting; tear down the session we just
		// established instead of publishing it as Ready.
		closedState := c.state
		c.mu.Unlock()
		_ = sess.Close()
		return rpcerror.New(rpcerror.KindConnectionClosed, "client closed while connecting (now %s)", closedState)
	}
	c.sess = sess
	c.state = Ready
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.demultiplex()
	return nil
}

// Call issues one RPC and suspends until the response arrives, the call
// times out, or the connection closes. The effective deadline is the
// earlier of ctx's deadline and the configured per-call timeout.
func (c *Client) Call(ctx context.Context, method string, payload []byte) ([]byte, error) {
	c.mu.Lock()
	if c.state != Ready {
		state := c.state
		c.mu.Unlock()
		return nil, rpcerror.New(rpcerror.KindConnectionClosed, "call issued in state %s", state)
	}
	sess := c.sess
	c.mu.Unlock()

	id, resultCh := c.pending.register()

	req := wire.Request{ID: id, Method: method, Payload: payload}
	data, err := wire.EncodeRequest(req, c.cfg.Format)
	if err != nil {
		c.pending.take(id)
		return nil, rpcerror.Wrap(rpcerror.KindEncoding, err, "encode request %d for %s", id, method)
	}

	if err := sess.Stream.Send(data); err != nil {
		c.pending.take(id)
		c.failConnection(err)
		return nil, err
	}

	callCtx := ctx
	if c.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()
	}

	select {
	case res := <-resultCh:
		if res.err != nil {
			return nil, res.err
		}
		return res.payload, nil
	case <-callCtx.Done():
		if _, ok := c.pending.take(id); !ok {
			// The demultiplexer already claimed this id concurrently with
			// our deadline firing; it is about to (or already did) send
			// the real result, so prefer that over a timeout.
			res := <-resultCh
			if res.err != nil {
				return nil, res.err
			}
			return res.payload, nil
		}
		return nil, timeoutError()
	}
}

// Close initiates graceful teardown. Idempotent: a second call returns
// nil.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return nil
	}
	c.state = Closing
	sess := c.sess
	c.mu.Unlock()

	var closeErr error
	if sess != nil {
		closeErr = sess.Close()
	}

	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}

	c.mu.Lock()
	c.state = Closed
	c.mu.Unlock()

	return closeErr
}

// demultiplex reads frames in order, decodes each as a Response, and
// delivers it to the matching pending entry. Besides failConnection, it is
// the only producer on pending result channels. Exiting (on stream error
// or EOF) fails every still-pending call with ConnectionClosed.
func (c *Client) demultiplex() {
	defer close(c.done)

	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()

	for {
		data, err := sess.Stream.Receive()
		if err != nil {
			c.failConnection(err)
			return
		}

		resp, err := wire.DecodeResponse(data, c.cfg.Format)
		if err != nil {
			// Decode failure: the id can't be trusted, so it can't be
			// routed to a specific caller. Log and drop, per spec.md
			// section 4.E.
			c.logger.Warn("dropping undecodable response", "error", err)
			continue
		}

		ch, ok := c.pending.take(resp.ID)
		if !ok {
			// No pending entry: either a post-timeout race or a stray
			// response. Log and discard.
			c.logger.Debug("discarding response with no pending caller", "id", resp.ID)
			continue
		}
		ch <- responseToResult(resp)
	}
}

// failConnection transitions the client out of Ready and fails every
// pending call with ConnectionClosed.
func (c *Client) failConnection(cause error) {
	c.mu.Lock()
	if c.state == Ready {
		c.state = Closing
	}
	c.mu.Unlock()

	for _, ch := range c.pending.drain() {
		select {
		case ch <- result{err: connectionClosedError()}:
		default:
		}
	}

	c.logger.Debug("connection failed", "error", cause)
}

// State returns the client's current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
