// Command quicserve is the informative CLI collaborator described in
// spec.md section 6: a "server" subcommand that registers the echo demo
// service and serves it, and a "client" subcommand that dials a server
// and issues one call.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gravitational/trace"

	"github.com/aashishbishow/quicserve/client"
	"github.com/aashishbishow/quicserve/internal/echoservice"
	"github.com/aashishbishow/quicserve/rpcconfig"
	"github.com/aashishbishow/quicserve/server"
	"github.com/aashishbishow/quicserve/wire"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "quicserve:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := kingpin.New("quicserve", "RPC over WebTransport/HTTP3/QUIC runtime.")

	serverCmd := app.Command("server", "Serve the echo demo service.")
	serverAddr := serverCmd.Flag("addr", "Bind address.").Default("127.0.0.1:4433").String()
	serverCert := serverCmd.Flag("cert", "Server certificate (PEM).").Required().String()
	serverKey := serverCmd.Flag("key", "Server private key (PEM).").Required().String()
	serverCA := serverCmd.Flag("ca", "CA bundle for client certificate verification (PEM).").String()
	serverVerifyPeer := serverCmd.Flag("verify-peer", "Require and verify client certificates.").Bool()
	serverFormat := serverCmd.Flag("format", "Envelope format: protobuf or json.").Default("protobuf").String()
	serverMaxStreams := serverCmd.Flag("max-streams", "Max concurrent QUIC streams.").Default("100").Int64()
	serverKeepAlive := serverCmd.Flag("keep-alive", "QUIC keep-alive interval.").Default("10s").Duration()
	serverIdleTimeout := serverCmd.Flag("idle-timeout", "QUIC max idle timeout.").Default("30s").Duration()
	serverTimeout := serverCmd.Flag("timeout", "Per-dispatch deadline.").Default("5s").Duration()

	clientCmd := app.Command("client", "Issue one RPC call against a server.")
	clientAddr := clientCmd.Flag("addr", "Server address.").Default("127.0.0.1:4433").String()
	clientCA := clientCmd.Flag("ca", "CA bundle used to verify the server (PEM).").String()
	clientVerifyPeer := clientCmd.Flag("verify-peer", "Verify the server certificate.").Bool()
	clientServerName := clientCmd.Flag("server-name", "SNI hostname.").Default("localhost").String()
	clientFormat := clientCmd.Flag("format", "Envelope format: protobuf or json.").Default("protobuf").String()
	clientMaxStreams := clientCmd.Flag("max-streams", "Max concurrent QUIC streams.").Default("100").Int64()
	clientKeepAlive := clientCmd.Flag("keep-alive", "QUIC keep-alive interval.").Default("10s").Duration()
	clientIdleTimeout := clientCmd.Flag("idle-timeout", "QUIC max idle timeout.").Default("30s").Duration()
	clientTimeout := clientCmd.Flag("timeout", "Per-call deadline.").Default("5s").Duration()
	clientMethod := clientCmd.Flag("method", "Method to call, \"<service>.<method>\".").Required().String()
	clientInput := clientCmd.Flag("input", "Request payload, read verbatim.").String()

	cmd, err := app.Parse(args)
	if err != nil {
		return trace.Wrap(err)
	}

	switch cmd {
	case serverCmd.FullCommand():
		format, err := wire.ParseFormat(*serverFormat)
		if err != nil {
			return err
		}
		cfg := rpcconfig.Config{
			Addr:                 *serverAddr,
			CertPath:             *serverCert,
			KeyPath:              *serverKey,
			CAPath:               *serverCA,
			VerifyPeer:           *serverVerifyPeer,
			Format:               format,
			CallTimeout:          *serverTimeout,
			MaxConcurrentStreams: *serverMaxStreams,
			KeepAlive:            *serverKeepAlive,
			IdleTimeout:          *serverIdleTimeout,
		}
		return runServer(cfg)

	case clientCmd.FullCommand():
		format, err := wire.ParseFormat(*clientFormat)
		if err != nil {
			return err
		}
		cfg := rpcconfig.Config{
			Addr:                 *clientAddr,
			CAPath:               *clientCA,
			VerifyPeer:           *clientVerifyPeer,
			ServerName:           *clientServerName,
			Format:               format,
			CallTimeout:          *clientTimeout,
			MaxConcurrentStreams: *clientMaxStreams,
			KeepAlive:            *clientKeepAlive,
			IdleTimeout:          *clientIdleTimeout,
		}
		payload, err := readInput(*clientInput)
		if err != nil {
			return err
		}
		return runClient(cfg, *clientMethod, payload)
	}

	return nil
}

// readInput returns the call payload: the bytes of --input verbatim when
// set, or the bytes of stdin when --input is omitted (spec.md section 6).
func readInput(input string) ([]byte, error) {
	if input != "" {
		return []byte(input), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, trace.Wrap(err, "read payload from stdin")
	}
	return data, nil
}

func runServer(cfg rpcconfig.Config) error {
	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	if err := srv.RegisterService(echoservice.Name, echoservice.New()); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()

	select {
	case <-ctx.Done():
		_ = srv.Close()
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

func runClient(cfg rpcconfig.Config, method string, payload []byte) error {
	c, err := client.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CallTimeout+5*time.Second)
	defer cancel()

	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Close()

	resp, err := c.Call(ctx, method, payload)
	if err != nil {
		return err
	}

	fmt.Println(string(resp))
	return nil
}
