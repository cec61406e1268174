package proxy

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/portalmc/portal/pkg/netmc"
	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet"
)

// backendTransitionSessionHandler handles the backend server between
// the end of the config phase and the JoinGame packet that completes
// the transition of the player to the server.
type backendTransitionSessionHandler struct {
	serverConn    *serverConnection
	requestCtx    *connRequestCxt
	listenDoneCtx chan struct{}
	log           logr.Logger

	nopSessionHandler
}

var _ netmc.SessionHandler = (*backendTransitionSessionHandler)(nil)

func newBackendTransitionSessionHandler(serverConn *serverConnection, requestCtx *connRequestCxt) netmc.SessionHandler {
	return &backendTransitionSessionHandler{
		serverConn: serverConn,
		requestCtx: requestCtx,
		log:        serverConn.log.WithName("backendTransitionSession"),
	}
}

func (b *backendTransitionSessionHandler) Activated() {
	b.listenDoneCtx = make(chan struct{})
	go func() {
		select {
		case <-b.listenDoneCtx:
		case <-b.requestCtx.Done():
			// We must check again since the request context
			// may be canceled before Deactivated() was run.
			select {
			case <-b.listenDoneCtx:
				return
			default:
				b.requestCtx.result(nil, errors.New(
					"context deadline exceeded while transitioning player to backend server"))
				b.serverConn.disconnect()
			}
		}
	}()
}

func (b *backendTransitionSessionHandler) Deactivated() {
	if b.listenDoneCtx != nil {
		close(b.listenDoneCtx)
	}
}

func (b *backendTransitionSessionHandler) HandlePacket(pc *proto.PacketContext) {
	if !pc.KnownPacket() {
		return // ignore unknown packet
	}

	if !b.shouldHandle() {
		return
	}
	switch p := pc.Packet.(type) {
	case *packet.JoinGame:
		b.handleJoinGame(pc, p)
	case *packet.KeepAlive:
		b.handleKeepAlive(p)
	case *packet.Disconnect:
		b.handleDisconnect(p)
	case *packet.PluginMessage:
		b.handlePluginMessage(pc, p)
	default:
		b.log.V(1).Info("received unexpected packet from backend server while transitioning",
			"packetType", fmt.Sprintf("%T", p))
	}
}

func (b *backendTransitionSessionHandler) shouldHandle() bool {
	if b.serverConn.active() {
		return true
	}
	// Obsolete connection
	b.serverConn.disconnect()
	return false
}

func (b *backendTransitionSessionHandler) handleKeepAlive(p *packet.KeepAlive) {
	// Answer the backend directly, the player is not bound to it yet.
	_ = b.serverConn.conn().WritePacket(p)
}

func (b *backendTransitionSessionHandler) handleDisconnect(p *packet.Disconnect) {
	result := disconnectResultForPacket(p, b.serverConn.server, true)
	b.requestCtx.result(result, nil)
	b.serverConn.disconnect()
}

func (b *backendTransitionSessionHandler) handlePluginMessage(pc *proto.PacketContext, p *packet.PluginMessage) {
	if p.IsBrandChannel() {
		_ = b.serverConn.player.WritePacket(packet.RewriteMinecraftBrand(p))
		return
	}
	_ = b.serverConn.player.Write(pc.Payload)
}

func (b *backendTransitionSessionHandler) handleJoinGame(pc *proto.PacketContext, p *packet.JoinGame) {
	smc, ok := b.serverConn.ensureConnected()
	if !ok {
		return
	}
	player := b.serverConn.player

	failResult := func(format string, a ...any) {
		err := fmt.Errorf(format, a...)
		b.log.Error(err, "unable to switch player to new server, disconnecting")
		player.Disconnect(internalServerConnectionError)
		b.requestCtx.result(nil, err)
	}

	player.mu.Lock()
	existingConn := player.connectedServer_
	var previousServer RegisteredServer
	if existingConn != nil {
		previousServer = existingConn.server
		// Shut down the existing server connection.
		player.connectedServer_ = nil
		player.mu.Unlock()
		existingConn.disconnect()
		existingConn.server.removePlayer(player)

		// Send keep alive to try to avoid timeouts.
		if err := netmc.SendKeepAlive(player); err != nil {
			failResult("could not send keep alive packet, player might have disconnected: %w", err)
			return
		}
	} else {
		player.mu.Unlock()
	}

	// The goods are in hand, we got JoinGame.
	// Let's transition completely to the new state.
	connectedEvent := &ServerConnectedEvent{
		player:         player,
		server:         b.serverConn.server,
		previousServer: previousServer, // nil-able
	}
	// Fire the event in the same goroutine as we don't want to read
	// more incoming packets while we process the JoinGame.
	player.proxy.event.Fire(connectedEvent)
	// Make sure we can still transition, an
	// event handler might have disconnected the player.
	if !player.Active() {
		failResult("player was disconnected")
		return
	}

	if previousServer == nil {
		b.log.Info("player joining initial server")
	} else {
		b.log.Info("player switching the server",
			"previous", previousServer.ServerInfo().Name(),
			"previousAddr", previousServer.ServerInfo().Addr())
	}

	// The client is in the play state by now, its
	// session handler handles the rest of the switch.
	playHandler, ok := player.SessionHandler().(*clientPlaySessionHandler)
	if !ok {
		playHandler = newClientPlaySessionHandler(player)
		player.SetSessionHandler(playHandler)
	}

	if err := playHandler.handleBackendJoinGame(pc, p, b.serverConn); err != nil {
		failResult("JoinGame packet could not be handled, client-side switching server failed: %w", err)
		return
	}

	// Strap on the correct session handler for the backend server.
	smc.SetSessionHandler(newBackendPlaySessionHandler(b.serverConn))

	// Now we can finally bind the player to the server.
	b.serverConn.completeJoin()

	b.requestCtx.result(plainConnectionResult(SuccessConnectionStatus, b.serverConn.server), nil)
	player.proxy.event.Fire(&ServerPostConnectEvent{
		player:         player,
		previousServer: previousServer,
	})
}

func (b *backendTransitionSessionHandler) Disconnected() {
	b.requestCtx.result(nil, errors.New("unexpectedly disconnected from remote server"))
}
