package util

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarInt(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, WriteVarInt(buf, 1))
	i, err := ReadVarInt(buf)
	require.NoError(t, err)
	require.Equal(t, 1, i)
}

func TestVarIntEdges(t *testing.T) {
	for _, i := range []int{0, 1, 127, 128, 255, 25565, 2097151, 2147483647, -1, -2147483648} {
		buf := new(bytes.Buffer)
		require.NoError(t, WriteVarInt(buf, i))
		got, err := ReadVarInt(buf)
		require.NoError(t, err)
		require.Equal(t, i, got, "value %d", i)
	}
}

func TestVarIntTooLong(t *testing.T) {
	// Six continuation bytes exceed the five byte VarInt maximum.
	// The reader must stop at the fifth byte, leaving the sixth unread.
	buf := bytes.NewBuffer([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80})
	_, err := ReadVarInt(buf)
	require.Error(t, err)
	require.Equal(t, 1, buf.Len(), "must not read past the 5th byte")

	buf = bytes.NewBuffer([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80})
	_, n, err := ReadVarIntReturnN(buf)
	require.Error(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, 1, buf.Len(), "must not read past the 5th byte")
}

func TestString(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, WriteString(buf, "héllo wörld"))
	s, err := ReadString(buf)
	require.NoError(t, err)
	require.Equal(t, "héllo wörld", s)
}

func TestStringMax(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, WriteString(buf, "0123456789"))
	_, err := ReadStringMax(buf, 5)
	require.Error(t, err)
}
