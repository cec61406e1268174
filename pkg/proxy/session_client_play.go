package proxy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"go.minekube.com/brigodier"
	"go.minekube.com/common/minecraft/color"
	"go.minekube.com/common/minecraft/component"
	"go.uber.org/atomic"

	"github.com/portalmc/portal/pkg/command"
	"github.com/portalmc/portal/pkg/netmc"
	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/packet/chat"
	"github.com/portalmc/portal/pkg/proto/state"
)

// Handles communication with the connected Minecraft client.
// This is effectively the primary nerve center that joins backend servers with players.
type clientPlaySessionHandler struct {
	log, log1 logr.Logger
	player    *connectedPlayer
	spawned   atomic.Bool

	// Only touched by the read loops.
	outstandingTabComplete *packet.TabCompleteRequest

	nopSessionHandler
}

var _ netmc.SessionHandler = (*clientPlaySessionHandler)(nil)

func newClientPlaySessionHandler(player *connectedPlayer) *clientPlaySessionHandler {
	log := player.log.WithName("clientPlaySession")
	return &clientPlaySessionHandler{
		player: player,
		log:    log,
		log1:   log.V(1),
	}
}

func (c *clientPlaySessionHandler) HandlePacket(pc *proto.PacketContext) {
	if !pc.KnownPacket() {
		c.forwardToServer(pc)
		return
	}

	switch p := pc.Packet.(type) {
	case *packet.KeepAlive:
		handleClientKeepAlive(p, c.player)
	case *chat.ChatCommand:
		c.handleCommand(pc, p.Command, false)
	case *chat.SignedChatCommand:
		c.handleCommand(pc, p.Command, true)
	case *packet.TabCompleteRequest:
		c.handleTabCompleteRequest(pc, p)
	case *packet.AcknowledgeConfiguration:
		c.handleAcknowledgeConfiguration()
	case *packet.ClientSettings:
		c.player.setClientSettings(p)
		c.forwardToServer(pc)
	default:
		c.forwardToServer(pc)
	}
}

func (c *clientPlaySessionHandler) Disconnected() {
	c.player.teardown()
}

// forwardToServer passes a client packet on to the player's current
// server. Packets are never forwarded to a server connection still in
// flight, its connection is not in the play state yet.
func (c *clientPlaySessionHandler) forwardToServer(pc *proto.PacketContext) {
	if serverMc := c.canForward(); serverMc != nil {
		_ = serverMc.Write(pc.Payload)
	}
}

func (c *clientPlaySessionHandler) canForward() netmc.MinecraftConn {
	serverConn := c.player.connectedServer()
	if serverConn == nil {
		// No server connection yet, probably transitioning.
		return nil
	}
	return serverConn.conn()
}

// handleAcknowledgeConfiguration is the client's answer to the proxy
// asking it to re-enter the configuration state for a server switch.
func (c *clientPlaySessionHandler) handleAcknowledgeConfiguration() {
	done := c.player.takeConfigSwitchFuture()
	if done == nil {
		c.log.Info("client acknowledged a config state switch that was never started, closing connection")
		_ = c.player.Close()
		return
	}
	c.player.SetState(state.Config)
	c.player.SetSessionHandler(newClientConfigSessionHandler(c.player))
	done.Complete(nil)
}

func (c *clientPlaySessionHandler) proxy() *Proxy {
	return c.player.proxy
}

// handleCommand intercepts commands owned by the proxy and
// forwards all others to the current server.
func (c *clientPlaySessionHandler) handleCommand(pc *proto.PacketContext, cmdline string, signed bool) {
	e := &CommandExecuteEvent{
		source:          c.player,
		commandline:     cmdline,
		originalCommand: cmdline,
	}
	c.proxy().event.Fire(e)

	forward, err := c.processCommandExecuteResult(e)
	if err != nil {
		c.log.Error(err, "error while running command", "command", cmdline)
		_ = c.player.SendMessage(&component.Text{
			Content: "An error occurred while running this command.",
			S:       component.Style{Color: color.Red},
		})
		return
	}
	if !forward {
		return
	}

	if e.Command() != e.OriginalCommand() && !signed {
		// An event subscriber changed the command.
		// Signed commands must stay untouched, their signature
		// covers the original command string.
		if serverMc := c.canForward(); serverMc != nil {
			_ = serverMc.WritePacket(&chat.ChatCommand{Command: e.Command()})
		}
		return
	}
	c.forwardToServer(pc)
}

func (c *clientPlaySessionHandler) processCommandExecuteResult(e *CommandExecuteEvent) (forward bool, err error) {
	if !e.Allowed() || !c.player.Active() {
		return false, nil
	}

	log := c.log1
	if e.Command() == e.OriginalCommand() {
		log = log.WithValues("command", e.Command())
	} else {
		log = log.WithValues("original", e.OriginalCommand(), "changed", e.Command())
	}
	log.Info("player executed command")

	if !e.Forward() {
		hasRun, err := c.executeCommand(e.Command())
		if err != nil {
			return false, err
		}
		if hasRun {
			return false, nil // ran a proxy command, done
		}
	}

	// Forward command to server
	return true, nil
}

func (c *clientPlaySessionHandler) executeCommand(cmd string) (hasRun bool, err error) {
	err = c.proxy().command.Do(c.player.Context(), c.player, cmd)
	if err != nil {
		if errors.Is(err, command.ErrForward) ||
			errors.Is(err, brigodier.ErrDispatcherUnknownCommand) {
			return false, nil // forward command to server
		}
		var sErr *brigodier.CommandSyntaxError
		if errors.As(err, &sErr) {
			return true, c.player.SendMessage(&component.Text{
				Content: sErr.Error(),
				S:       component.Style{Color: color.Red},
			})
		}
		return false, err
	}
	return true, nil
}

func (c *clientPlaySessionHandler) handleTabCompleteRequest(pc *proto.PacketContext, p *packet.TabCompleteRequest) {
	if strings.HasPrefix(p.Command, "/") {
		c.handleCommandTabComplete(pc, p)
		return
	}
	// Regular chat completion, let the backend answer and
	// merge in anything a subscriber wants to add.
	c.outstandingTabComplete = p
	c.forwardToServer(pc)
}

func (c *clientPlaySessionHandler) handleCommandTabComplete(pc *proto.PacketContext, p *packet.TabCompleteRequest) {
	cmd := p.Command[1:]
	cmdEndPosition := strings.Index(cmd, " ")
	if cmdEndPosition == -1 {
		cmdEndPosition = len(cmd)
	}

	commandLabel := cmd[:cmdEndPosition]
	if !c.proxy().command.Has(commandLabel) {
		// Not a proxy command, the backend owns the suggestions.
		c.forwardToServer(pc)
		return
	}

	suggestions, err := c.proxy().command.OfferSuggestions(c.player.Context(), c.player, cmd)
	if err != nil {
		c.log.Error(err, "error while handling command tab completion", "command", cmd)
		return
	}
	c.log1.Info("response to command tab completion", "command", cmd, "suggestions", suggestions)
	if len(suggestions) == 0 {
		return
	}

	offers := make([]packet.TabCompleteOffer, 0, len(suggestions))
	for _, suggestion := range suggestions {
		offers = append(offers, packet.TabCompleteOffer{Text: suggestion})
	}
	startPos := strings.Index(p.Command, " ") + 1
	if startPos > 0 {
		_ = c.player.WritePacket(&packet.TabCompleteResponse{
			TransactionID: p.TransactionID,
			Start:         startPos,
			Length:        len(p.Command) - startPos,
			Offers:        offers,
		})
	}
}

// handleTabCompleteResponse finishes a tab completion the backend answered.
func (c *clientPlaySessionHandler) handleTabCompleteResponse(p *packet.TabCompleteResponse) {
	request := c.outstandingTabComplete
	c.outstandingTabComplete = nil
	if request == nil || strings.HasPrefix(request.Command, "/") {
		// Nothing to merge in.
		_ = c.player.WritePacket(p)
		return
	}

	offers := make([]string, 0, len(p.Offers))
	for _, offer := range p.Offers {
		offers = append(offers, offer.Text)
	}

	e := &TabCompleteEvent{
		player:         c.player,
		partialMessage: request.Command,
		suggestions:    offers,
	}
	c.proxy().event.Fire(e)
	p.Offers = nil
	for _, suggestion := range e.suggestions {
		p.Offers = append(p.Offers, packet.TabCompleteOffer{Text: suggestion})
	}
	_ = c.player.WritePacket(p)
}

// handleBackendJoinGame handles the JoinGame packet of a backend server
// and is responsible for the client-side part of switching servers.
func (c *clientPlaySessionHandler) handleBackendJoinGame(
	pc *proto.PacketContext, p *packet.JoinGame, destination *serverConnection,
) error {
	if _, ok := destination.ensureConnected(); !ok {
		return errors.New("no backend server connection")
	}

	if c.spawned.CompareAndSwap(false, true) {
		// Nothing special to do for the first spawn,
		// pass the packet to the player as is.
		if err := c.player.BufferPayload(pc.Payload); err != nil {
			return fmt.Errorf("error buffering %T for player: %w", p, err)
		}
	} else {
		// The client retains play state of the previous server across a
		// switch unless told otherwise: reset it before the new world spawns.
		lastJoin := c.player.playState.lastJoin()
		for _, cleanup := range c.player.playState.cleanupPackets(c.player.Protocol()) {
			if err := c.player.BufferPacket(cleanup); err != nil {
				return fmt.Errorf("error buffering %T for player: %w", cleanup, err)
			}
		}
		if err := c.player.BufferPayload(pc.Payload); err != nil {
			return fmt.Errorf("error buffering %T for player: %w", p, err)
		}
		// The client does not rebuild the world when it is spawned into
		// the dimension it is already in, force it with an extra respawn.
		if lastJoin != nil && lastJoin.DimensionName == p.DimensionName {
			if err := c.player.BufferPacket(packet.RespawnFromJoinGame(p)); err != nil {
				return fmt.Errorf("error buffering respawn for player: %w", err)
			}
		}
	}
	c.player.playState.trackClientbound(p)

	if err := c.player.Flush(); err != nil {
		return fmt.Errorf("error flushing buffered packets to player: %w", err)
	}
	return nil
}
