package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		[]byte("hi"),
		bytes.Repeat([]byte{0xAB}, 1<<20),
	}
	for _, payload := range cases {
		var buf bytes.Buffer
		require.NoError(t, WriteFrame(&buf, payload))

		got, err := ReadFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	}
}

func TestReadFrameZeroLength(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, nil))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{}, got)
}

func TestReadFrameOversizeRejected(t *testing.T) {
	var buf bytes.Buffer
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], MaxFrameSize+1)
	buf.Write(header[:])

	_, err := ReadFrame(&buf)
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestWriteFrameOversizeRejected(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, make([]byte, MaxFrameSize+1))
	require.ErrorIs(t, err, ErrFrameTooLarge)
	assert.Zero(t, buf.Len())
}

func TestReadFrameEndOfStream(t *testing.T) {
	var buf bytes.Buffer
	_, err := ReadFrame(&buf)
	require.ErrorIs(t, err, io.EOF)
}

func TestReadFrameMultipleMessagesSequentially(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("first")))
	require.NoError(t, WriteFrame(&buf, []byte("second")))

	first, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), first)

	second, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), second)
}
