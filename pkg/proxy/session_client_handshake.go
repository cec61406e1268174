package proxy

import (
	"fmt"
	"net"

	"github.com/go-logr/logr"
	"go.minekube.com/common/minecraft/color"
	"go.minekube.com/common/minecraft/component"

	"github.com/portalmc/portal/pkg/internal/addrquota"
	"github.com/portalmc/portal/pkg/netmc"
	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/state"
	"github.com/portalmc/portal/pkg/proto/version"
	"github.com/portalmc/portal/pkg/util/netutil"
)

// Inbound is a client connection to the proxy
// that has not finished logging in yet.
type Inbound interface {
	Protocol() proto.Protocol // The protocol version of the connection.
	VirtualHost() net.Addr    // The hostname the client sent in the handshake.
	RemoteAddr() net.Addr     // The client's address.
	Active() bool             // Whether the connection remains active.
	// HandshakeIntent returns the intent the client sent in the handshake.
	HandshakeIntent() int
}

// ConnectionHandshakeEvent is fired when a handshake
// is established between a client and the proxy.
type ConnectionHandshakeEvent struct {
	inbound Inbound
}

// Connection returns the inbound connection.
func (e *ConnectionHandshakeEvent) Connection() Inbound { return e.inbound }

// A no-operation session handler can be embedded to
// implement the netmc.SessionHandler interface.
type nopSessionHandler struct{}

var _ netmc.SessionHandler = (*nopSessionHandler)(nil)

func (nopSessionHandler) HandlePacket(*proto.PacketContext) {}
func (nopSessionHandler) Disconnected()                     {}
func (nopSessionHandler) Activated()                        {}
func (nopSessionHandler) Deactivated()                      {}

type handshakeSessionHandler struct {
	conn  netmc.MinecraftConn
	proxy *Proxy
	log   logr.Logger

	nopSessionHandler
}

// newHandshakeSessionHandler returns a handler used for clients in the handshake state.
func newHandshakeSessionHandler(conn netmc.MinecraftConn, proxy *Proxy) netmc.SessionHandler {
	return &handshakeSessionHandler{
		conn:  conn,
		proxy: proxy,
		log:   logr.FromContextOrDiscard(conn.Context()).WithName("handshakeSession"),
	}
}

func (h *handshakeSessionHandler) HandlePacket(pc *proto.PacketContext) {
	if !pc.KnownPacket() {
		// Unknown packet received. Better to close the connection.
		_ = h.conn.Close()
		return
	}
	switch typed := pc.Packet.(type) {
	case *packet.Handshake:
		h.handleHandshake(typed)
	default:
		_ = h.conn.Close()
	}
}

func (h *handshakeSessionHandler) handleHandshake(handshake *packet.Handshake) {
	// The client sends the next wanted state in the handshake packet.
	nextState := stateForHandshakeIntent(handshake.NextStatus)
	if nextState == nil {
		h.log.V(1).Info("client provided invalid next state, closing connection",
			"nextStatus", handshake.NextStatus)
		_ = h.conn.Close()
		return
	}

	vHost := netutil.NewAddr("tcp", netutil.HostStr(handshake.ServerAddress), uint16(handshake.Port))
	inbound := newInitialInbound(h.conn, vHost, handshake.NextStatus)

	// Update connection to requested state and protocol sent in the packet.
	h.conn.SetState(nextState)
	h.conn.SetProtocol(proto.Protocol(handshake.ProtocolVersion))

	switch nextState {
	case state.Status:
		// Client wants the server status.
		// Just update the session handler and wait for the status request packet.
		h.conn.SetSessionHandler(newStatusSessionHandler(h.conn, h.proxy, inbound))
	case state.Login:
		// Client wants to join.
		h.handleLogin(handshake, inbound)
	}
}

var errOutdatedClient = &component.Translation{
	Key: "multiplayer.disconnect.outdated_client",
	With: []component.Component{
		&component.Text{Content: version.SupportedVersionsString},
	},
}

func (h *handshakeSessionHandler) handleLogin(p *packet.Handshake, inbound Inbound) {
	// Check for a supported client version.
	protocol := proto.Protocol(p.ProtocolVersion)
	if !version.Protocol(protocol).Supported() ||
		protocol.Lower(version.MinimumJoinVersion) {
		_ = netmc.CloseWith(h.conn, packet.NewLoginDisconnectUnchecked(errOutdatedClient))
		return
	}

	// Client IP-block rate limiter preventing too fast logins hitting the Mojang API.
	if quota := h.loginsQuota(); quota != nil && quota.Blocked(inbound.RemoteAddr()) {
		_ = netmc.CloseWith(h.conn, packet.NewLoginDisconnectUnchecked(&component.Text{
			Content: "You are logging in too fast, please calm down and retry.",
			S:       component.Style{Color: color.Red},
		}))
		return
	}

	h.proxy.event.Fire(&ConnectionHandshakeEvent{inbound: inbound})
	h.conn.SetSessionHandler(newInitialLoginSessionHandler(h.conn, h.proxy, inbound))
}

func (h *handshakeSessionHandler) loginsQuota() *addrquota.Quota {
	return h.proxy.loginsQuota
}

func stateForHandshakeIntent(intent int) *state.Registry {
	switch intent {
	case packet.StatusHandshakeIntent:
		return state.Status
	case packet.LoginHandshakeIntent, packet.TransferHandshakeIntent:
		return state.Login
	}
	return nil
}

type initialInbound struct {
	netmc.MinecraftConn
	virtualHost     net.Addr
	handshakeIntent int
}

var _ Inbound = (*initialInbound)(nil)

func newInitialInbound(c netmc.MinecraftConn, virtualHost net.Addr, handshakeIntent int) *initialInbound {
	return &initialInbound{
		MinecraftConn:   c,
		virtualHost:     virtualHost,
		handshakeIntent: handshakeIntent,
	}
}

func (i *initialInbound) VirtualHost() net.Addr {
	return i.virtualHost
}

func (i *initialInbound) HandshakeIntent() int {
	return i.handshakeIntent
}

func (i *initialInbound) Active() bool {
	return !netmc.Closed(i.MinecraftConn)
}

func (i *initialInbound) String() string {
	return fmt.Sprintf("[initial connection] %s -> %s", i.RemoteAddr(), i.virtualHost)
}
