package proxy

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/portalmc/portal/pkg/netmc"
	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/state"
)

// backendConfigSessionHandler handles the backend server while it is in
// the configuration phase, forwarding the config packets to the client
// and catching "last minute" disconnects.
type backendConfigSessionHandler struct {
	serverConn *serverConnection
	requestCtx *connRequestCxt
	log        logr.Logger

	nopSessionHandler
}

var _ netmc.SessionHandler = (*backendConfigSessionHandler)(nil)

func newBackendConfigSessionHandler(serverConn *serverConnection, requestCtx *connRequestCxt) netmc.SessionHandler {
	return &backendConfigSessionHandler{
		serverConn: serverConn,
		requestCtx: requestCtx,
		log:        serverConn.log.WithName("backendConfigSession"),
	}
}

func (b *backendConfigSessionHandler) HandlePacket(pc *proto.PacketContext) {
	if !pc.KnownPacket() {
		// Forward unknown config packet to the player.
		b.forwardToPlayer(pc, nil)
		return
	}
	if !b.shouldHandle() {
		return
	}
	switch p := pc.Packet.(type) {
	case *packet.KeepAlive:
		b.handleKeepAlive(p)
	case *packet.FinishedUpdate:
		b.handleFinishedUpdate(p)
	case *packet.PluginMessage:
		b.handlePluginMessage(pc, p)
	case *packet.Disconnect:
		b.handleDisconnect(p)
	default:
		b.forwardToPlayer(pc, nil)
	}
}

func (b *backendConfigSessionHandler) shouldHandle() bool {
	if b.serverConn.active() {
		return true
	}
	// Obsolete connection
	b.serverConn.disconnect()
	return false
}

func (b *backendConfigSessionHandler) Disconnected() {
	b.requestCtx.result(nil, errors.New("unexpectedly disconnected from remote server"))
}

func (b *backendConfigSessionHandler) handleKeepAlive(p *packet.KeepAlive) {
	b.serverConn.player.trackKeepAlive(p.RandomID)
	_ = b.serverConn.player.WritePacket(p)
}

func (b *backendConfigSessionHandler) handlePluginMessage(pc *proto.PacketContext, p *packet.PluginMessage) {
	if p.IsBrandChannel() {
		_ = b.serverConn.player.WritePacket(packet.RewriteMinecraftBrand(p))
		return
	}
	b.forwardToPlayer(pc, nil)
}

func (b *backendConfigSessionHandler) handleDisconnect(p *packet.Disconnect) {
	b.serverConn.disconnect()
	// A disconnect while no connection is in progress means the backend
	// kicked the player during a reconfiguration.
	if b.serverConn.player.connectionInFlight() != nil {
		result := disconnectResultForPacket(p, b.serverConn.server, true)
		b.requestCtx.result(result, nil)
	} else {
		b.serverConn.player.handleDisconnect(b.serverConn.server, p, true)
	}
}

// handleFinishedUpdate lets the client finish the config phase and then
// moves the backend connection into the play phase.
func (b *backendConfigSessionHandler) handleFinishedUpdate(p *packet.FinishedUpdate) {
	smc, ok := b.serverConn.ensureConnected()
	if !ok {
		return
	}
	player := b.serverConn.player

	configHandler, ok := player.SessionHandler().(*clientConfigSessionHandler)
	if !ok {
		err := fmt.Errorf("expected client config session handler, got %T", player.SessionHandler())
		b.log.Error(err, "error handling config finish packet")
		b.serverConn.disconnect()
		b.requestCtx.result(nil, err)
		return
	}

	done := configHandler.handleBackendFinishUpdate(b.serverConn, p)
	if done == nil {
		return
	}
	done.ThenAccept(func(any) {
		// The client acknowledged the config phase end,
		// acknowledge to the backend and enter the play phase.
		if smc.WritePacket(&packet.FinishedUpdate{}) != nil {
			return
		}
		smc.SetState(state.Play)
		if b.serverConn == player.connectedServer() {
			// A reconfiguration of the current server completed.
			smc.SetSessionHandler(newBackendPlaySessionHandler(b.serverConn))
		} else {
			smc.SetSessionHandler(newBackendTransitionSessionHandler(b.serverConn, b.requestCtx))
		}
	})
}

// forwardToPlayer forwards packets to the player. It prefers the raw
// payload over re-encoding the packet when the context carries one.
func (b *backendConfigSessionHandler) forwardToPlayer(packetContext *proto.PacketContext, packet proto.Packet) {
	if packetContext == nil {
		_ = b.serverConn.player.WritePacket(packet)
		return
	}
	_ = b.serverConn.player.Write(packetContext.Payload)
}
