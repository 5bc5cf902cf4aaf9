// Package server implements the RPC server dispatcher (spec.md section
// 4.F): the service registry, the accept loop, and per-connection request
// dispatch.
package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aashishbishow/quicserve/rpcconfig"
	"github.com/aashishbishow/quicserve/transport"
	"github.com/aashishbishow/quicserve/wire"
)

// Server is the RPC server dispatcher.
type Server struct {
	cfg      rpcconfig.Config
	logger   *slog.Logger
	registry *registry
	listener *transport.Listener
}

// New validates cfg, loads the TLS identity and prepares the QUIC
// endpoint; may fail on certificate load or config validation. It does not
// bind the UDP socket: Serve binds it when it starts, so an address that is
// already in use is reported by Serve, not by New.
func New(cfg rpcconfig.Config) (*Server, error) {
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}

	tlsConf, err := cfg.BuildServerTLSConfig()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		logger:   slog.Default(),
		registry: newRegistry(),
	}

	listener, err := transport.Listen(transport.ListenConfig{
		Addr:      cfg.Addr,
		TLSConfig: tlsConf,
		Logger:    s.logger,
		QUIC: transport.QUICParams{
			KeepAlive:            cfg.KeepAlive,
			IdleTimeout:          cfg.IdleTimeout,
			MaxConcurrentStreams: cfg.MaxConcurrentStreams,
		},
	}, s.handleSession)
	if err != nil {
		return nil, err
	}
	s.listener = listener

	return s, nil
}

// RegisterService inserts name/svc into the registry; rejects duplicate
// names.
func (s *Server) RegisterService(name string, svc Service) error {
	return s.registry.register(name, svc)
}

// Serve runs the accept loop until the endpoint is closed or a fatal
// error occurs.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()
	return s.listener.Serve()
}

// Close shuts down the listener; in-flight sessions drain independently.
func (s *Server) Close() error {
	return s.listener.Close()
}

// handleSession is the transport.Handler run per accepted session. It
// reads frames in order but dispatches each to its own goroutine, and
// serializes response writes behind a mutex, so the on-wire order of
// responses reflects completion order, not request order (spec.md
// section 4.F "Concurrency policy").
func (s *Server) handleSession(ctx context.Context, sess *transport.Session) {
	defer sess.Close()

	var writeMu sync.Mutex
	var wg sync.WaitGroup

	for {
		data, err := sess.Stream.Receive()
		if err != nil {
			break
		}

		wg.Add(1)
		go func(data []byte) {
			defer wg.Done()
			resp := s.dispatch(ctx, data)
			encoded, err := wire.EncodeResponse(resp, s.cfg.Format)
			if err != nil {
				s.logger.Warn("failed to encode response", "error", err)
				return
			}

			writeMu.Lock()
			defer writeMu.Unlock()
			if err := sess.Stream.Send(encoded); err != nil {
				s.logger.Debug("failed to send response", "error", err)
			}
		}(data)
	}

	wg.Wait()
}

// dispatch implements the per-request algorithm from spec.md section 4.F
// step 4.
func (s *Server) dispatch(ctx context.Context, data []byte) wire.Response {
	req, err := wire.DecodeRequest(data, s.cfg.Format)
	if err != nil {
		return wire.Response{ID: 0, Error: "malformed request"}
	}

	serviceName, method, ok := splitMethod(req.Method)
	if !ok {
		return wire.Response{ID: req.ID, Error: "invalid method format"}
	}

	svc, ok := s.registry.lookup(serviceName)
	if !ok {
		return wire.Response{ID: req.ID, Error: "service not found: " + serviceName}
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if s.cfg.CallTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}

	payload, err := svc.Call(callCtx, method, req.Payload)
	if err != nil {
		if callCtx.Err() != nil {
			return wire.Response{ID: req.ID, Error: "timeout"}
		}
		return wire.Response{ID: req.ID, Error: err.Error()}
	}

	return wire.Response{ID: req.ID, Payload: payload}
}
