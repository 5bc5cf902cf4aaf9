package echoservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aashishbishow/quicserve/rpcerror"
)

func TestCallEchoesPayload(t *testing.T) {
	s := New()
	got, err := s.Call(context.Background(), "echo", []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), got)
}

func TestCallEchoesZeroLengthPayload(t *testing.T) {
	s := New()
	got, err := s.Call(context.Background(), "echo", []byte{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCallUnknownMethod(t *testing.T) {
	s := New()
	_, err := s.Call(context.Background(), "nope", nil)
	require.Error(t, err)
	kind, ok := rpcerror.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, rpcerror.KindMethodNotFound, kind)
}

func TestMethods(t *testing.T) {
	assert.Equal(t, []string{"echo"}, New().Methods())
}
