package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aashishbishow/quicserve/rpcconfig"
	"github.com/aashishbishow/quicserve/wire"
)

func newTestServer(t *testing.T, callTimeout time.Duration) *Server {
	t.Helper()
	s := &Server{
		cfg: rpcconfig.Config{
			Format:      wire.FormatProtobuf,
			CallTimeout: callTimeout,
		},
		registry: newRegistry(),
	}
	s.logger = discardLogger()
	return s
}

func TestDispatchEcho(t *testing.T) {
	s := newTestServer(t, time.Second)
	require.NoError(t, s.RegisterService("echo", &fakeService{
		methods: []string{"echo"},
		call: func(ctx context.Context, method string, payload []byte) ([]byte, error) {
			return payload, nil
		},
	}))

	data, err := wire.EncodeRequest(wire.Request{ID: 1, Method: "echo.echo", Payload: []byte{0x48, 0x69}}, wire.FormatProtobuf)
	require.NoError(t, err)

	resp := s.dispatch(context.Background(), data)
	assert.Equal(t, uint64(1), resp.ID)
	assert.Equal(t, []byte{0x48, 0x69}, resp.Payload)
	assert.Empty(t, resp.Error)
}

func TestDispatchUnknownService(t *testing.T) {
	s := newTestServer(t, time.Second)

	data, err := wire.EncodeRequest(wire.Request{ID: 2, Method: "nope.x"}, wire.FormatProtobuf)
	require.NoError(t, err)

	resp := s.dispatch(context.Background(), data)
	assert.Equal(t, uint64(2), resp.ID)
	assert.Equal(t, "service not found: nope", resp.Error)
	assert.Empty(t, resp.Payload)
}

func TestDispatchInvalidMethodFormat(t *testing.T) {
	s := newTestServer(t, time.Second)

	data, err := wire.EncodeRequest(wire.Request{ID: 3, Method: "noservice"}, wire.FormatProtobuf)
	require.NoError(t, err)

	resp := s.dispatch(context.Background(), data)
	assert.Equal(t, uint64(3), resp.ID)
	assert.Equal(t, "invalid method format", resp.Error)
}

func TestDispatchServiceTimeout(t *testing.T) {
	s := newTestServer(t, 50*time.Millisecond)
	require.NoError(t, s.RegisterService("slow", &fakeService{
		methods: []string{"a"},
		call: func(ctx context.Context, method string, payload []byte) ([]byte, error) {
			select {
			case <-time.After(5 * time.Second):
				return []byte("too late"), nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}))

	data, err := wire.EncodeRequest(wire.Request{ID: 4, Method: "slow.a"}, wire.FormatProtobuf)
	require.NoError(t, err)

	start := time.Now()
	resp := s.dispatch(context.Background(), data)
	elapsed := time.Since(start)

	assert.Equal(t, "timeout", resp.Error)
	assert.Less(t, elapsed, 300*time.Millisecond)

	// Connection still answers a subsequent call.
	data2, err := wire.EncodeRequest(wire.Request{ID: 5, Method: "echo.echo"}, wire.FormatProtobuf)
	require.NoError(t, err)
	require.NoError(t, s.RegisterService("echo", &fakeService{
		methods: []string{"echo"},
		call: func(ctx context.Context, method string, payload []byte) ([]byte, error) {
			return payload, nil
		},
	}))
	resp2 := s.dispatch(context.Background(), data2)
	assert.Empty(t, resp2.Error)
}

func TestDispatchMalformedRequestPreservesIDZero(t *testing.T) {
	s := newTestServer(t, time.Second)
	resp := s.dispatch(context.Background(), []byte{0xFF, 0xFF, 0xFF})
	assert.Equal(t, uint64(0), resp.ID)
	assert.Equal(t, "malformed request", resp.Error)
}
