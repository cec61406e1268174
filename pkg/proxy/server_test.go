package proxy

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/portalmc/portal/pkg/config"
	"github.com/portalmc/portal/pkg/util/netutil"
)

func testProxy(t *testing.T) *Proxy {
	t.Helper()
	p, err := New(config.Config{}, logr.Discard())
	require.NoError(t, err)
	return p
}

func TestRegisterServer(t *testing.T) {
	p := testProxy(t)

	info := NewServerInfo("Lobby", netutil.TCPAddr("localhost:25566"))
	rs, err := p.Register(info)
	require.NoError(t, err)
	require.Equal(t, info, rs.ServerInfo())

	// Lookup is case-insensitive.
	require.Equal(t, rs, p.Server("lobby"))
	require.Equal(t, rs, p.Server("LOBBY"))
	require.Nil(t, p.Server("survival"))

	// Registering the same server again returns the existing one.
	again, err := p.Register(NewServerInfo("lobby", netutil.TCPAddr("localhost:25566")))
	require.ErrorIs(t, err, ErrServerAlreadyExists)
	require.Equal(t, rs, again)

	// A name collision with a different address registers nothing.
	other, err := p.Register(NewServerInfo("lobby", netutil.TCPAddr("localhost:25999")))
	require.ErrorIs(t, err, ErrServerAlreadyExists)
	require.Nil(t, other)
}

func TestUnregisterServer(t *testing.T) {
	p := testProxy(t)

	info := NewServerInfo("lobby", netutil.TCPAddr("localhost:25566"))
	_, err := p.Register(info)
	require.NoError(t, err)

	// Unregistering needs the matching address.
	require.False(t, p.Unregister(NewServerInfo("lobby", netutil.TCPAddr("localhost:1"))))
	require.True(t, p.Unregister(info))
	require.False(t, p.Unregister(info))
	require.Nil(t, p.Server("lobby"))
}

func TestServerNames(t *testing.T) {
	p := testProxy(t)
	for _, name := range []string{"survival", "lobby", "skyblock"} {
		_, err := p.Register(NewServerInfo(name, netutil.TCPAddr("localhost:25566")))
		require.NoError(t, err)
	}
	require.Equal(t, []string{"lobby", "skyblock", "survival"}, p.ServerNames())
	require.Len(t, p.Servers(), 3)
}
