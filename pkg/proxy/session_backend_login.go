package proxy

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"go.minekube.com/common/minecraft/component"

	"github.com/portalmc/portal/pkg/config"
	"github.com/portalmc/portal/pkg/netmc"
	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/state"
	"github.com/portalmc/portal/pkg/util/errs"
)

// backendLoginSessionHandler runs the login phase on a
// new connection to a backend server.
type backendLoginSessionHandler struct {
	serverConn    *serverConnection
	requestCtx    *connRequestCxt
	listenDoneCtx chan struct{}
	log           logr.Logger

	nopSessionHandler
}

var _ netmc.SessionHandler = (*backendLoginSessionHandler)(nil)

func newBackendLoginSessionHandler(serverConn *serverConnection, requestCtx *connRequestCxt) netmc.SessionHandler {
	return &backendLoginSessionHandler{
		serverConn: serverConn,
		requestCtx: requestCtx,
		log:        serverConn.log.WithName("backendLoginSession"),
	}
}

func (b *backendLoginSessionHandler) Activated() {
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
					"context deadline exceeded while logging into backend server"))
				b.serverConn.disconnect()
			}
		}
	}()
}

func (b *backendLoginSessionHandler) Deactivated() {
	if b.listenDoneCtx != nil {
		close(b.listenDoneCtx)
	}
}

func (b *backendLoginSessionHandler) HandlePacket(pc *proto.PacketContext) {
	if !pc.KnownPacket() {
		return // ignore unknown
	}

	switch p := pc.Packet.(type) {
	case *packet.LoginPluginMessage:
		b.handleLoginPluginMessage(p)
	case *packet.Disconnect:
		b.handleDisconnect(p)
	case *packet.EncryptionRequest:
		b.handleEncryptionRequest()
	case *packet.SetCompression:
		b.handleSetCompression(p)
	case *packet.ServerLoginSuccess:
		b.handleServerLoginSuccess()
	default:
		b.log.V(1).Info("received unexpected packet from backend server while logging in",
			"packetType", fmt.Sprintf("%T", p))
	}
}

// ErrServerOnlineMode indicates error in a ConnectionRequest when the backend server is in online mode.
var ErrServerOnlineMode = errors.New("backend server is online mode, but should be offline")

func (b *backendLoginSessionHandler) handleEncryptionRequest() {
	// If we get an encryption request we know that the server is in
	// online mode. The proxy performs the Mojang authentication itself,
	// backend servers must run in offline mode behind it.
	b.requestCtx.result(nil, ErrServerOnlineMode)
}

func (b *backendLoginSessionHandler) handleLoginPluginMessage(p *packet.LoginPluginMessage) {
	mc, ok := b.serverConn.ensureConnected()
	if !ok {
		return
	}
	// No login plugin channel is understood by the proxy.
	_ = mc.WritePacket(&packet.LoginPluginResponse{
		ID:      p.ID,
		Success: false,
	})
}

func (b *backendLoginSessionHandler) handleDisconnect(p *packet.Disconnect) {
	result := disconnectResultForPacket(p, b.serverConn.server, true)
	b.requestCtx.result(result, nil)
	b.serverConn.disconnect()
}

func (b *backendLoginSessionHandler) handleSetCompression(p *packet.SetCompression) {
	conn, ok := b.serverConn.ensureConnected()
	if ok {
		if err := conn.SetCompressionThreshold(p.Threshold); err != nil {
			b.requestCtx.result(nil, err)
			b.serverConn.disconnect()
		}
	}
}

func (b *backendLoginSessionHandler) handleServerLoginSuccess() {
	// The backend accepted the player. There could still be other
	// problems before we get a JoinGame packet from the server.
	serverMc, ok := b.serverConn.ensureConnected()
	if !ok {
		return
	}
	player := b.serverConn.player
	if player.State() != state.Play {
		// Initial join, the client is already in the config state.
		b.acknowledgeLogin(serverMc)
		return
	}
	// The player switches from another server. Ask the client to re-enter
	// the configuration state and hold the backend in the login state until
	// the client acknowledged, so both sides enter config together.
	player.switchToConfigState().ThenAccept(func(any) {
		b.acknowledgeLogin(serverMc)
	})
}

// acknowledgeLogin moves the backend connection into the configuration phase.
func (b *backendLoginSessionHandler) acknowledgeLogin(serverMc netmc.MinecraftConn) {
	if serverMc.WritePacket(&packet.LoginAcknowledged{}) != nil {
		return
	}
	serverMc.SetState(state.Config)
	serverMc.SetSessionHandler(newBackendConfigSessionHandler(b.serverConn, b.requestCtx))
}

func (b *backendLoginSessionHandler) Disconnected() {
	if b.config().Forwarding.Mode == config.LegacyForwardingMode {
		b.requestCtx.result(nil, errs.NewSilentErr(`The connection to the remote server was unexpectedly closed.
This is usually because the remote server does not have BungeeCord IP forwarding correctly enabled.`))
	} else {
		b.requestCtx.result(nil, errs.NewSilentErr("The connection to the remote server was unexpectedly closed."))
	}
}

func (b *backendLoginSessionHandler) config() *config.Config {
	return b.serverConn.player.proxy.cfg
}

func disconnectResultForPacket(
	p *packet.Disconnect, server RegisteredServer, safe bool,
) *connectionResult {
	var reason component.Component
	if p != nil && p.Reason != nil {
		reason = p.Reason.AsComponentOrNil()
	}
	return disconnectResult(reason, server, safe)
}

func disconnectResult(reason component.Component, server RegisteredServer, safe bool) *connectionResult {
	return &connectionResult{
		status:        ServerDisconnectedConnectionStatus,
		reason:        reason,
		safe:          safe,
		attemptedConn: server,
	}
}
