package proxy

import (
	"bytes"

	"github.com/portalmc/portal/pkg/internal/future"
	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/state"
	"github.com/portalmc/portal/pkg/proto/util"
)

// clientConfigSessionHandler handles the client while it is in the
// configuration state, forwarding the config packets of the backend
// server in flight.
type clientConfigSessionHandler struct {
	player *connectedPlayer

	brandChannel string

	configSwitchDone *future.Future[any]

	nopSessionHandler
}

func newClientConfigSessionHandler(player *connectedPlayer) *clientConfigSessionHandler {
	return &clientConfigSessionHandler{
		player:           player,
		configSwitchDone: future.New[any](),
	}
}

// Disconnected is called when the player disconnects.
func (h *clientConfigSessionHandler) Disconnected() {
	h.player.teardown()
}

func (h *clientConfigSessionHandler) HandlePacket(pc *proto.PacketContext) {
	if !pc.KnownPacket() {
		forwardToServer(pc, h.player)
		return
	}
	switch p := pc.Packet.(type) {
	case *packet.KeepAlive:
		handleClientKeepAlive(p, h.player)
	case *packet.ClientSettings:
		h.player.setClientSettings(p)
		forwardToServer(pc, h.player)
	case *packet.FinishedUpdate:
		// The client acknowledged the end of the configuration phase.
		h.player.SetState(state.Play)
		h.player.SetSessionHandler(newClientPlaySessionHandler(h.player))
		h.configSwitchDone.Complete(nil)
	case *packet.PluginMessage:
		h.handlePluginMessage(p)
	default:
		forwardToServer(pc, h.player)
	}
}

// handleBackendFinishUpdate handles the backend finishing the config
// phase. The returned future completes once the client acknowledged.
func (h *clientConfigSessionHandler) handleBackendFinishUpdate(
	serverConn *serverConnection, p *packet.FinishedUpdate,
) *future.Future[any] {
	smc, ok := serverConn.ensureConnected()
	if !ok {
		return nil
	}

	// The client sent its brand before the backend connection existed,
	// deliver it now so the backend knows the client brand too.
	if brand := h.player.ClientBrand(); brand != "" && h.brandChannel != "" {
		buf := new(bytes.Buffer)
		_ = util.WriteString(buf, brand)
		_ = smc.WritePacket(&packet.PluginMessage{
			Channel: h.brandChannel,
			Data:    buf.Bytes(),
		})
	}

	if err := h.player.WritePacket(p); err != nil {
		return nil
	}
	return h.configSwitchDone
}

func (h *clientConfigSessionHandler) handlePluginMessage(p *packet.PluginMessage) {
	if p.IsBrandChannel() {
		h.player.setClientBrand(p.BrandString())
		h.brandChannel = p.Channel
		h.player.proxy.event.Fire(&PlayerClientBrandEvent{
			player: h.player,
			brand:  p.BrandString(),
		})
		// The client sends its brand right after login, but at this
		// time the backend connection may not exist yet. It is
		// delivered once the backend finishes the config phase.
		return
	}
	if serverConn := h.player.connectionInFlightOrConnectedServer(); serverConn != nil {
		if smc, ok := serverConn.ensureConnected(); ok {
			_ = smc.WritePacket(p)
		}
	}
}

// handleClientKeepAlive resolves a keep-alive answered by the client and
// forwards it to the backend server that sent it.
func handleClientKeepAlive(p *packet.KeepAlive, player *connectedPlayer) {
	if !player.acceptKeepAlive(p.RandomID) {
		return
	}
	if serverConn := player.connectionInFlightOrConnectedServer(); serverConn != nil {
		if smc, ok := serverConn.ensureConnected(); ok {
			_ = smc.WritePacket(p)
		}
	}
}

// forwardToServer forwards a packet payload the proxy does not inspect
// to the backend server in flight or the connected one.
func forwardToServer(pc *proto.PacketContext, player *connectedPlayer) {
	if serverConn := player.connectionInFlightOrConnectedServer(); serverConn != nil {
		if smc, ok := serverConn.ensureConnected(); ok {
			_ = smc.Write(pc.Payload)
		}
	}
}
