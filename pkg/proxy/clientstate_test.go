package proxy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/version"
	"github.com/portalmc/portal/pkg/util/uuid"
)

func TestPlayStateTracker_Cleanup(t *testing.T) {
	tr := newPlayStateTracker()

	barID := uuid.New()
	tabID := uuid.New()
	join := &packet.JoinGame{EntityID: 1, DimensionName: "minecraft:overworld"}

	for _, p := range []proto.Packet{
		join,
		&packet.BossBar{ID: barID, Action: packet.BossBarActionAdd},
		&packet.UpdateObjectives{Name: "kills", Mode: byte(packet.ObjectiveModeCreate)},
		&packet.UpdateTeams{Name: "red", Mode: byte(packet.TeamModeCreate)},
		&packet.PlayerInfoUpdate{
			Actions: packet.PlayerInfoActionAddPlayer,
			Entries: []packet.PlayerInfoEntry{{ProfileID: tabID}},
		},
		&packet.OpenScreen{WindowID: 3},
		&packet.HeaderAndFooter{},
	} {
		tr.trackClientbound(p)
	}

	pkts := tr.cleanupPackets(version.Minecraft_1_21.Protocol)
	require.Len(t, pkts, 6)

	var (
		barRemoved, objRemoved, teamRemoved bool
		tabRemoved, windowClosed, tabReset  bool
	)
	for _, p := range pkts {
		switch pkt := p.(type) {
		case *packet.BossBar:
			require.Equal(t, packet.BossBarActionRemove, pkt.Action)
			require.Equal(t, barID, pkt.ID)
			barRemoved = true
		case *packet.UpdateObjectives:
			require.Equal(t, byte(packet.ObjectiveModeRemove), pkt.Mode)
			objRemoved = true
		case *packet.UpdateTeams:
			require.Equal(t, byte(packet.TeamModeRemove), pkt.Mode)
			teamRemoved = true
		case *packet.PlayerInfoRemove:
			require.Equal(t, []uuid.UUID{tabID}, pkt.PlayersToRemove)
			tabRemoved = true
		case *packet.CloseContainer:
			require.Equal(t, byte(3), pkt.WindowID)
			windowClosed = true
		case *packet.HeaderAndFooter:
			tabReset = true
		}
	}
	require.True(t, barRemoved)
	require.True(t, objRemoved)
	require.True(t, teamRemoved)
	require.True(t, tabRemoved)
	require.True(t, windowClosed)
	require.True(t, tabReset)

	// The tracked state is forgotten, but the last join survives for
	// the dimension comparison on the next server switch.
	require.Empty(t, tr.cleanupPackets(version.Minecraft_1_21.Protocol))
	require.Same(t, join, tr.lastJoin())
}

func TestPlayStateTracker_RemovalsUntrack(t *testing.T) {
	tr := newPlayStateTracker()
	barID := uuid.New()

	tr.trackClientbound(&packet.BossBar{ID: barID, Action: packet.BossBarActionAdd})
	tr.trackClientbound(&packet.BossBar{ID: barID, Action: packet.BossBarActionRemove})
	tr.trackClientbound(&packet.UpdateObjectives{Name: "kills", Mode: byte(packet.ObjectiveModeCreate)})
	tr.trackClientbound(&packet.UpdateObjectives{Name: "kills", Mode: byte(packet.ObjectiveModeRemove)})
	tr.trackClientbound(&packet.OpenScreen{WindowID: 5})
	tr.trackClientbound(&packet.CloseContainer{WindowID: 5})

	require.Empty(t, tr.cleanupPackets(version.Minecraft_1_21.Protocol))
}
