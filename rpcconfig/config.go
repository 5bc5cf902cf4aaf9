// Package rpcconfig holds the plain configuration struct shared by the
// client and server, its validation bounds, and the TLS material builders
// both sides need (spec.md section 4.G).
package rpcconfig

import (
	"time"

	"github.com/gravitational/trace"

	"github.com/aashishbishow/quicserve/rpcerror"
	"github.com/aashishbishow/quicserve/wire"
)

// Config is the shape both client.New and server.New accept. Not every
// field applies to both sides: CertPath/KeyPath are server-required,
// ServerName is client-only, and so on — see the per-field comments.
type Config struct {
	// Addr is the bind address (server) or connect address (client),
	// host:port.
	Addr string

	// CertPath and KeyPath are the server's PEM identity. Required when
	// constructing a server config.
	CertPath string
	KeyPath  string

	// CAPath is an optional PEM trust anchor bundle used to verify the
	// peer's certificate.
	CAPath string

	// VerifyPeer enables peer certificate validation. When false, the
	// client skips server certificate verification (for test/dev use);
	// the server never requires client certificates unless CAPath is
	// also set.
	VerifyPeer bool

	// ServerName is the SNI/authority hostname the client uses to dial
	// and to verify the server's certificate against.
	ServerName string

	// Format fixes the envelope/payload serialization for the
	// connection.
	Format wire.Format

	// CallTimeout is the per-call deadline on the client and the
	// per-dispatch deadline on the server.
	CallTimeout time.Duration

	// MaxConcurrentStreams is the QUIC transport parameter bounding
	// concurrent streams on one connection.
	MaxConcurrentStreams int64

	// KeepAlive is the QUIC keep-alive interval.
	KeepAlive time.Duration

	// IdleTimeout is the QUIC max idle timeout.
	IdleTimeout time.Duration
}

// Validation bounds from spec.md section 4.G.
const (
	MinKeepAlive            = 100 * time.Millisecond
	MinIdleTimeout          = 1 * time.Second
	MinMaxConcurrentStreams = 1
	MaxMaxConcurrentStreams = 1000
)

// Validate checks the bounds spec.md section 4.G mandates. Violations
// surface as rpcerror.KindInvalidConfig, wrapped with trace.BadParameter
// so callers composing this with other teleport-style config validation
// get a consistent error shape.
func (c Config) Validate() error {
	if c.Addr == "" {
		return invalidConfig("addr is required")
	}
	if c.KeepAlive < MinKeepAlive {
		return invalidConfig("keep_alive must be >= %s, got %s", MinKeepAlive, c.KeepAlive)
	}
	if c.IdleTimeout < MinIdleTimeout {
		return invalidConfig("idle_timeout must be >= %s, got %s", MinIdleTimeout, c.IdleTimeout)
	}
	if c.MaxConcurrentStreams < MinMaxConcurrentStreams || c.MaxConcurrentStreams > MaxMaxConcurrentStreams {
		return invalidConfig("max_concurrent_streams must be in [%d, %d], got %d",
			MinMaxConcurrentStreams, MaxMaxConcurrentStreams, c.MaxConcurrentStreams)
	}
	if c.CallTimeout <= 0 {
		return invalidConfig("timeout_ms must be positive, got %s", c.CallTimeout)
	}
	return nil
}

// ValidateServer additionally requires the server identity material.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.CertPath == "" || c.KeyPath == "" {
		return invalidConfig("cert_path and key_path are required for a server")
	}
	return nil
}

func invalidConfig(format string, args ...any) error {
	return rpcerror.Wrap(rpcerror.KindInvalidConfig, trace.BadParameter(format, args...), "invalid config")
}
