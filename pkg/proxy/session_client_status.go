package proxy

import (
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/portalmc/portal/pkg/netmc"
	"github.com/portalmc/portal/pkg/ping"
	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/version"
)

// PingEvent is fired when a server list ping request is
// received and allows changing the response sent to the client.
type PingEvent struct {
	inbound Inbound
	ping    *ping.ServerPing
}

// Connection returns the inbound connection of the ping request.
func (e *PingEvent) Connection() Inbound { return e.inbound }

// Ping returns the response to be sent, may be modified.
func (e *PingEvent) Ping() *ping.ServerPing { return e.ping }

// SetPing sets the ping response. Setting nil closes the connection without a response.
func (e *PingEvent) SetPing(ping *ping.ServerPing) { e.ping = ping }

type statusSessionHandler struct {
	conn    netmc.MinecraftConn
	proxy   *Proxy
	inbound Inbound
	log     logr.Logger

	receivedRequest bool

	nopSessionHandler
}

func newStatusSessionHandler(conn netmc.MinecraftConn, proxy *Proxy, inbound Inbound) netmc.SessionHandler {
	return &statusSessionHandler{
		conn:    conn,
		proxy:   proxy,
		inbound: inbound,
		log: logr.FromContextOrDiscard(conn.Context()).WithName("statusSession").WithValues(
			"inbound", inbound,
			"protocol", conn.Protocol()),
	}
}

func (h *statusSessionHandler) Activated() {
	cfg := h.proxy.cfg
	var log logr.Logger
	if cfg.Status.ShowPingRequests || cfg.Debug {
		log = h.log
	} else {
		log = h.log.V(1)
	}
	log.Info("got server list status request")
}

func (h *statusSessionHandler) HandlePacket(pc *proto.PacketContext) {
	if !pc.KnownPacket() {
		_ = h.conn.Close()
		return
	}

	switch pc.Packet.(type) {
	case *packet.StatusRequest:
		h.handleStatusRequest()
	case *packet.StatusPing:
		h.handleStatusPing(pc)
	default:
		// Unexpected packet, simply close.
		_ = h.conn.Close()
	}
}

var versionName = fmt.Sprintf("Portal %s", version.SupportedVersionsString)

func newInitialPing(p *Proxy, protocol proto.Protocol) *ping.ServerPing {
	if !version.Protocol(protocol).Supported() {
		protocol = version.MaximumVersion.Protocol
	}
	return &ping.ServerPing{
		Version: ping.Version{
			Protocol: protocol,
			Name:     versionName,
		},
		Players: &ping.Players{
			Online: p.PlayerCount(),
			Max:    p.cfg.Status.ShowMaxPlayers,
		},
		Description: p.motd,
		Favicon:     p.favicon,
	}
}

func (h *statusSessionHandler) handleStatusRequest() {
	if h.receivedRequest {
		// Already sent response.
		_ = h.conn.Close()
		return
	}
	h.receivedRequest = true

	e := &PingEvent{
		inbound: h.inbound,
		ping:    newInitialPing(h.proxy, h.conn.Protocol()),
	}
	h.proxy.event.Fire(e)

	if e.ping == nil {
		_ = h.conn.Close()
		h.log.V(1).Info("ping response was set to nil by an event handler, no response is sent")
		return
	}
	if !h.inbound.Active() {
		return
	}

	response, err := json.Marshal(e.ping)
	if err != nil {
		_ = h.conn.Close()
		h.log.Error(err, "error marshaling ping response to json")
		return
	}
	_ = h.conn.WritePacket(&packet.StatusResponse{
		Status: string(response),
	})
}

func (h *statusSessionHandler) handleStatusPing(pc *proto.PacketContext) {
	// Echo the payload back and close.
	defer func() { _ = h.conn.Close() }()
	if err := h.conn.Write(pc.Payload); err != nil {
		h.log.V(1).Info("error writing status ping response", "error", err)
	}
}
