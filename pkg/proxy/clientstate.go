package proxy

import (
	"sync"

	"go.minekube.com/common/minecraft/component"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/packet/chat"
	"github.com/portalmc/portal/pkg/util/uuid"
)

// playStateTracker records the client visible play state a backend server
// created, so the proxy can reset it when the player switches servers.
// The client keeps boss bars, scoreboards, teams, tab list entries and
// open windows across a server switch unless told otherwise.
type playStateTracker struct {
	mu         sync.Mutex
	bossBars   map[uuid.UUID]struct{}
	objectives map[string]struct{}
	teams      map[string]struct{}
	tabEntries map[uuid.UUID]struct{}
	openWindow *byte // id of the open window, if any

	sentTabHeader bool
	lastJoinGame  *packet.JoinGame
}

func newPlayStateTracker() *playStateTracker {
	return &playStateTracker{
		bossBars:   map[uuid.UUID]struct{}{},
		objectives: map[string]struct{}{},
		teams:      map[string]struct{}{},
		tabEntries: map[uuid.UUID]struct{}{},
	}
}

// trackClientbound inspects a packet the backend sends to the client.
func (t *playStateTracker) trackClientbound(p proto.Packet) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch pkt := p.(type) {
	case *packet.JoinGame:
		t.lastJoinGame = pkt
	case *packet.BossBar:
		switch pkt.Action {
		case packet.BossBarActionAdd:
			t.bossBars[pkt.ID] = struct{}{}
		case packet.BossBarActionRemove:
			delete(t.bossBars, pkt.ID)
		}
	case *packet.UpdateObjectives:
		switch int(pkt.Mode) {
		case packet.ObjectiveModeCreate:
			t.objectives[pkt.Name] = struct{}{}
		case packet.ObjectiveModeRemove:
			delete(t.objectives, pkt.Name)
		}
	case *packet.UpdateTeams:
		switch int(pkt.Mode) {
		case packet.TeamModeCreate:
			t.teams[pkt.Name] = struct{}{}
		case packet.TeamModeRemove:
			delete(t.teams, pkt.Name)
		}
	case *packet.PlayerInfoUpdate:
		if pkt.Actions&packet.PlayerInfoActionAddPlayer != 0 {
			for _, e := range pkt.Entries {
				t.tabEntries[e.ProfileID] = struct{}{}
			}
		}
	case *packet.PlayerInfoRemove:
		for _, id := range pkt.PlayersToRemove {
			delete(t.tabEntries, id)
		}
	case *packet.OpenScreen:
		id := byte(pkt.WindowID)
		t.openWindow = &id
	case *packet.CloseContainer:
		t.openWindow = nil
	case *packet.HeaderAndFooter:
		t.sentTabHeader = true
	}
}

// lastJoin returns the most recent join packet the client received.
func (t *playStateTracker) lastJoin() *packet.JoinGame {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastJoinGame
}

var emptyComponent = &component.Text{}

// cleanupPackets returns the packets resetting all tracked state
// and forgets the tracked state. The last join packet is kept so the
// next server's join can be compared against it.
func (t *playStateTracker) cleanupPackets(protocol proto.Protocol) []proto.Packet {
	t.mu.Lock()
	defer t.mu.Unlock()

	var pkts []proto.Packet
	for id := range t.bossBars {
		pkts = append(pkts, &packet.BossBar{
			ID:     id,
			Action: packet.BossBarActionRemove,
		})
	}
	for name := range t.objectives {
		pkts = append(pkts, &packet.UpdateObjectives{
			Name: name,
			Mode: byte(packet.ObjectiveModeRemove),
		})
	}
	for name := range t.teams {
		pkts = append(pkts, &packet.UpdateTeams{
			Name: name,
			Mode: byte(packet.TeamModeRemove),
		})
	}
	if len(t.tabEntries) != 0 {
		remove := make([]uuid.UUID, 0, len(t.tabEntries))
		for id := range t.tabEntries {
			remove = append(remove, id)
		}
		pkts = append(pkts, &packet.PlayerInfoRemove{PlayersToRemove: remove})
	}
	if t.openWindow != nil {
		pkts = append(pkts, &packet.CloseContainer{WindowID: *t.openWindow})
	}
	if t.sentTabHeader {
		pkts = append(pkts, &packet.HeaderAndFooter{
			Header: chat.FromComponentProtocol(emptyComponent, protocol),
			Footer: chat.FromComponentProtocol(emptyComponent, protocol),
		})
	}

	t.bossBars = map[uuid.UUID]struct{}{}
	t.objectives = map[string]struct{}{}
	t.teams = map[string]struct{}{}
	t.tabEntries = map[uuid.UUID]struct{}{}
	t.openWindow = nil
	t.sentTabHeader = false
	return pkts
}
