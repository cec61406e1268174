package proxy

import (
	"context"

	"go.minekube.com/brigodier"

	"github.com/portalmc/portal/pkg/netmc"
	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/state"
)

// backendPlaySessionHandler handles the backend server of the player's
// current server connection while both sides are in the play state.
type backendPlaySessionHandler struct {
	serverConn           *serverConnection
	playerSessionHandler *clientPlaySessionHandler

	nopSessionHandler
}

var _ netmc.SessionHandler = (*backendPlaySessionHandler)(nil)

func newBackendPlaySessionHandler(serverConn *serverConnection) netmc.SessionHandler {
	psh, ok := serverConn.player.SessionHandler().(*clientPlaySessionHandler)
	if !ok {
		// The client entered the play state before the backend did.
		psh = newClientPlaySessionHandler(serverConn.player)
		serverConn.player.SetSessionHandler(psh)
	}
	return &backendPlaySessionHandler{
		serverConn:           serverConn,
		playerSessionHandler: psh,
	}
}

func (b *backendPlaySessionHandler) HandlePacket(pc *proto.PacketContext) {
	if !pc.KnownPacket() {
		// Forward unknown packet to player.
		b.forwardToPlayer(pc, nil)
		return
	}
	if !b.shouldHandle() {
		return
	}
	switch p := pc.Packet.(type) {
	case *packet.KeepAlive:
		b.handleKeepAlive(p, pc)
	case *packet.Disconnect:
		b.handleDisconnect(p)
	case *packet.PluginMessage:
		b.handlePluginMessage(pc, p)
	case *packet.StartConfiguration:
		b.handleStartConfiguration()
	case *packet.AvailableCommands:
		b.handleAvailableCommands(p)
	case *packet.TabCompleteResponse:
		b.playerSessionHandler.handleTabCompleteResponse(p)
	default:
		b.serverConn.player.playState.trackClientbound(pc.Packet)
		b.forwardToPlayer(pc, nil)
	}
}

func (b *backendPlaySessionHandler) shouldHandle() bool {
	if b.serverConn.active() {
		return true
	}
	// Obsolete connection
	b.serverConn.disconnect()
	return false
}

func (b *backendPlaySessionHandler) handleKeepAlive(p *packet.KeepAlive, pc *proto.PacketContext) {
	b.serverConn.player.trackKeepAlive(p.RandomID)
	b.forwardToPlayer(pc, nil)
}

func (b *backendPlaySessionHandler) handleDisconnect(p *packet.Disconnect) {
	b.serverConn.disconnect()
	b.serverConn.player.handleDisconnect(b.serverConn.server, p, true)
}

func (b *backendPlaySessionHandler) handlePluginMessage(pc *proto.PacketContext, p *packet.PluginMessage) {
	if p.IsBrandChannel() {
		b.forwardToPlayer(nil, packet.RewriteMinecraftBrand(p))
		return
	}
	b.forwardToPlayer(pc, nil)
}

// handleStartConfiguration handles the backend server asking the player
// to re-enter the configuration state. The backend stays in the play
// state until the client acknowledged.
func (b *backendPlaySessionHandler) handleStartConfiguration() {
	smc, ok := b.serverConn.ensureConnected()
	if !ok {
		return
	}
	player := b.serverConn.player
	player.switchToConfigState().ThenAccept(func(any) {
		// The client is in the config state now, pass its
		// acknowledgement on and follow with the backend connection.
		if smc.WritePacket(&packet.AcknowledgeConfiguration{}) != nil {
			return
		}
		smc.SetState(state.Config)
		smc.SetSessionHandler(newBackendConfigSessionHandler(
			b.serverConn, reconfigureRequestCtx(player.Context())))
	})
}

// reconfigureRequestCtx makes a request context for a backend initiated
// reconfiguration of the current server, which has no connection request
// awaiting a result.
func reconfigureRequestCtx(ctx context.Context) *connRequestCxt {
	return &connRequestCxt{Context: ctx, response: make(chan<- *connResponse, 1)}
}

// handleAvailableCommands splices the proxy's own commands into the
// command tree the backend declared before passing it to the client.
func (b *backendPlaySessionHandler) handleAvailableCommands(p *packet.AvailableCommands) {
	rootNode := p.RootNode
	proxyNodes := b.proxy().command.Root.ChildrenOrdered()
	proxyNodes.Range(func(_ string, node brigodier.CommandNode) bool {
		existingServerChild := rootNode.Children()[node.Name()]
		if existingServerChild != nil {
			rootNode.RemoveChild(existingServerChild.Name())
		}
		rootNode.AddChild(node)
		return true
	})

	b.proxy().event.Fire(&PlayerAvailableCommandsEvent{
		player:   b.serverConn.player,
		rootNode: rootNode,
	})
	_ = b.serverConn.player.WritePacket(p)
}

func (b *backendPlaySessionHandler) Disconnected() {
	b.serverConn.server.removePlayer(b.serverConn.player)
	if b.serverConn.gracefulDisconnect.Load() {
		return
	}
	if b.proxy().cfg.FailoverOnUnexpectedServerDisconnect {
		b.serverConn.player.handleDisconnectWithReason(
			b.serverConn.server, internalServerConnectionError, true)
	} else {
		b.serverConn.player.Disconnect(internalServerConnectionError)
	}
}

// prefer forwarding the PacketContext's payload over re-encoding the
// packet, the bytes were already decoded once.
func (b *backendPlaySessionHandler) forwardToPlayer(packetContext *proto.PacketContext, packet proto.Packet) {
	if b.serverConn.player.State() != state.Play {
		// The client already left the play state for a server
		// switch, nothing from this connection may reach it anymore.
		return
	}
	if packetContext == nil {
		_ = b.serverConn.player.WritePacket(packet)
		return
	}
	_ = b.serverConn.player.Write(packetContext.Payload)
}

func (b *backendPlaySessionHandler) proxy() *Proxy {
	return b.serverConn.player.proxy
}
