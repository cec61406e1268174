package netutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHost(t *testing.T) {
	require.Equal(t, "host", Host(NewAddr("tcp", "host", 123)))
	require.Equal(t, "", Host(nil))
}

func TestPort(t *testing.T) {
	require.Equal(t, uint16(123), Port(NewAddr("tcp", "host", 123)))
	require.Equal(t, uint16(0), Port(nil))
}

func TestParse(t *testing.T) {
	host, port, err := Parse("host:123", 25565)
	require.NoError(t, err)
	require.Equal(t, "host", host)
	require.Equal(t, uint16(123), port)

	host, port, err = Parse("host-without-port", 25565)
	require.NoError(t, err)
	require.Equal(t, "host-without-port", host)
	require.Equal(t, uint16(25565), port)

	_, _, err = Parse("host:notaport", 25565)
	require.Error(t, err)
}

func TestTCPAddr(t *testing.T) {
	a := TCPAddr("host:123")
	require.Equal(t, "tcp", a.Network())
	require.Equal(t, "host:123", a.String())

	a = TCPAddr("host")
	require.Equal(t, "host:25565", a.String())
}

func TestHostStr(t *testing.T) {
	require.Equal(t, "host", HostStr("host:123"))
	require.Equal(t, "host", HostStr("host"))
}
