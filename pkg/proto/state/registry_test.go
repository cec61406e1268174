package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portalmc/portal/pkg/proto"
	p "github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/version"
)

func TestHandshakeRegistry(t *testing.T) {
	r := Handshake.ServerBound.ProtocolRegistry(version.Minecraft_1_21.Protocol)
	require.NotNil(t, r)

	id, found := r.PacketID(&p.Handshake{})
	require.True(t, found)
	require.Equal(t, proto.PacketID(0x00), id)

	pkt := r.CreatePacket(0x00)
	require.IsType(t, &p.Handshake{}, pkt)
}

func TestPlayRegistryIDsShiftAcrossVersions(t *testing.T) {
	for _, x := range []struct {
		protocol *proto.Version
		id       proto.PacketID
	}{
		{version.Minecraft_1_20_2, 0x24},
		{version.Minecraft_1_20_3, 0x24},
		{version.Minecraft_1_20_5, 0x26},
		{version.Minecraft_1_21, 0x26},
	} {
		r := Play.ClientBound.ProtocolRegistry(x.protocol.Protocol)
		require.NotNil(t, r, "%s", x.protocol)
		id, found := r.PacketID(&p.KeepAlive{})
		require.True(t, found, "%s", x.protocol)
		require.Equal(t, x.id, id, "%s", x.protocol)
	}
}

func TestConfigRegistryHasNoFallback(t *testing.T) {
	// The config state does not exist below 1.20.2, looking up an older
	// protocol must not silently fall back to another version.
	require.Nil(t, Config.ServerBound.ProtocolRegistry(version.Minecraft_1_20.Protocol))
	require.NotNil(t, Config.ServerBound.ProtocolRegistry(version.Minecraft_1_20_2.Protocol))
}

func TestPlayRegistryUnknownID(t *testing.T) {
	r := Play.ServerBound.ProtocolRegistry(version.Minecraft_1_21.Protocol)
	require.NotNil(t, r)
	// Movement packets are not inspected by the proxy and stay unregistered.
	require.Nil(t, r.CreatePacket(0x1A))
}

func TestStatusRegistrySymmetry(t *testing.T) {
	for _, v := range version.SupportedVersions {
		r := Status.ClientBound.ProtocolRegistry(v.Protocol)
		require.NotNil(t, r, "%s", v)
		for id, packetType := range r.PacketIDs {
			backID, ok := r.PacketTypes[packetType]
			require.True(t, ok, "%s", v)
			require.Equal(t, id, backID, "%s", v)
		}
	}
}
