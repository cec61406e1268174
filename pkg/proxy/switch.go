package proxy

import (
	"context"
	"fmt"
	"time"

	"go.minekube.com/common/minecraft/color"
	"go.minekube.com/common/minecraft/component"

	"github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/util"
)

// ConnectionRequest can send a connection request to another server on the proxy.
// A connection request is created using Player.CreateConnectionRequest.
type ConnectionRequest interface {
	// Server returns the server that this connection request is for.
	Server() RegisteredServer
	// Connect blocks, initiates the connection to the remote Server and
	// returns a result after the player has logged on or an error occurred
	// (e.g. could not dial the Server, ctx was canceled, etc.).
	//
	// The given Context can be used to cancel the connection initiation, but
	// has no effect if the connection was already established or canceled.
	//
	// No messages will be communicated to the client:
	// the caller is responsible for all error handling.
	Connect(ctx context.Context) (ConnectionResult, error)
	// ConnectWithIndication is the same as Connect, but the proxy's built-in
	// handling will be used to provide errors to the player and returns
	// true if the player was successfully connected.
	ConnectWithIndication(ctx context.Context) (successful bool)
}

// ConnectionResult is the result of a ConnectionRequest.
type ConnectionResult interface {
	Status() ConnectionStatus // The connection result status.
	// Reason returns a reason for the failure to connect to the server.
	// It is nil if not provided.
	Reason() component.Component
}

// ConnectionStatus is the status for a ConnectionResult.
type ConnectionStatus uint8

const (
	// SuccessConnectionStatus indicates that the player was successfully connected to the server.
	SuccessConnectionStatus ConnectionStatus = iota
	// AlreadyConnectedConnectionStatus indicates that the player is already connected to this server.
	AlreadyConnectedConnectionStatus
	// InProgressConnectionStatus indicates that a connection is already in progress.
	InProgressConnectionStatus
	// CanceledConnectionStatus indicates that an event subscriber has canceled this connection.
	CanceledConnectionStatus
	// ServerDisconnectedConnectionStatus indicates that the server disconnected the player.
	// A reason MAY be provided in the ConnectionResult.Reason().
	ServerDisconnectedConnectionStatus
)

// Successful is true if the player was successfully connected to the server.
func (r ConnectionStatus) Successful() bool {
	return r == SuccessConnectionStatus
}

// AlreadyConnected is true if the player is already connected to this server.
func (r ConnectionStatus) AlreadyConnected() bool {
	return r == AlreadyConnectedConnectionStatus
}

// ConnectionInProgress is true if a connection is already in progress.
func (r ConnectionStatus) ConnectionInProgress() bool {
	return r == InProgressConnectionStatus
}

// Canceled is true if an event subscriber has canceled this connection.
func (r ConnectionStatus) Canceled() bool {
	return r == CanceledConnectionStatus
}

// ServerDisconnected is true if the server disconnected the player.
func (r ConnectionStatus) ServerDisconnected() bool {
	return r == ServerDisconnectedConnectionStatus
}

type connectionResult struct {
	status        ConnectionStatus
	reason        component.Component
	safe          bool
	attemptedConn RegisteredServer
}

var _ ConnectionResult = (*connectionResult)(nil)

func (r *connectionResult) Status() ConnectionStatus    { return r.status }
func (r *connectionResult) Reason() component.Component { return r.reason }

func plainConnectionResult(status ConnectionStatus, attemptedConn RegisteredServer) *connectionResult {
	return &connectionResult{
		status:        status,
		safe:          true,
		attemptedConn: attemptedConn,
	}
}

// RegisteredServerEqual returns true if both registered servers are equal.
func RegisteredServerEqual(a, b RegisteredServer) bool {
	return a != nil && b != nil && ServerInfoEqual(a.ServerInfo(), b.ServerInfo())
}

func (p *connectedPlayer) CreateConnectionRequest(server RegisteredServer) ConnectionRequest {
	return p.createConnectionRequest(server)
}

func (p *connectedPlayer) createConnectionRequest(server RegisteredServer) *connectionRequest {
	return &connectionRequest{server: server, player: p}
}

type connectionRequest struct {
	server RegisteredServer // the target server to connect to
	player *connectedPlayer // the player to connect to the server
}

var _ ConnectionRequest = (*connectionRequest)(nil)

func (c *connectionRequest) Server() RegisteredServer { return c.server }

// Connect - see ConnectionRequest interface.
func (c *connectionRequest) Connect(ctx context.Context) (ConnectionResult, error) {
	return c.connect(ctx)
}

func (c *connectionRequest) connect(ctx context.Context) (*connectionResult, error) {
	result, err := c.internalConnect(ctx)
	if err == nil {
		if !result.safe {
			// It's not safe to continue the connection, we need to shut it down.
			c.player.handleConnectionErr(result.attemptedConn, err, true)
		} else if !result.Status().Successful() {
			c.player.setConnectionInFlight(nil)
		}
	}
	return result, err
}

// ConnectWithIndication - see ConnectionRequest interface.
func (c *connectionRequest) ConnectWithIndication(ctx context.Context) (successful bool) {
	result, err := c.internalConnect(ctx)
	if err != nil {
		c.player.handleConnectionErr(c.server, err, true)
		return false
	}

	switch result.Status() {
	case AlreadyConnectedConnectionStatus:
		_ = c.player.SendMessage(alreadyConnected)
	case InProgressConnectionStatus:
		_ = c.player.SendMessage(alreadyInProgress)
	case CanceledConnectionStatus:
		// Ignore, event subscriber probably handled this.
	case ServerDisconnectedConnectionStatus:
		reason := result.Reason()
		if reason == nil {
			reason = internalServerConnectionError
		}
		c.player.handleDisconnectWithReason(c.server, reason, result.safe)
	default:
		// The only remaining value is successful, nothing to do.
	}

	return result.Status().Successful()
}

func (c *connectionRequest) checkServer(server RegisteredServer) (s ConnectionStatus, ok bool) {
	p := c.player
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.connInFlight != nil || (p.connectedServer_ != nil &&
		!p.connectedServer_.completedJoin.Load()) {
		return InProgressConnectionStatus, false
	}
	if p.connectedServer_ != nil && RegisteredServerEqual(p.connectedServer_.Server(), server) {
		return AlreadyConnectedConnectionStatus, false
	}
	return 0, true
}

func (c *connectionRequest) internalConnect(ctx context.Context) (result *connectionResult, err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	status, ok := c.checkServer(c.server)
	if !ok {
		return plainConnectionResult(status, c.server), nil
	}

	connectEvent := &ServerPreConnectEvent{player: c.player, original: c.server, server: c.server}
	c.player.proxy.event.Fire(connectEvent)
	if !connectEvent.Allowed() {
		return plainConnectionResult(CanceledConnectionStatus, c.server), nil
	}

	newDest := connectEvent.Server()
	if newDest == nil {
		return plainConnectionResult(CanceledConnectionStatus, newDest), nil
	}
	status, ok = c.checkServer(newDest)
	if !ok {
		return plainConnectionResult(status, newDest), nil
	}

	server, ok := newDest.(*registeredServer)
	if !ok { // Must be of this type
		return plainConnectionResult(CanceledConnectionStatus, newDest), nil
	}

	conn := newServerConnection(server, c.player)
	c.player.setConnectionInFlight(conn)
	defer c.resetIfInFlightIs(conn)
	return conn.connect(ctx)
}

func (c *connectionRequest) resetIfInFlightIs(establishedConnection *serverConnection) {
	c.player.mu.Lock()
	defer c.player.mu.Unlock()
	if c.player.connInFlight == establishedConnection {
		c.player.connInFlight = nil
	}
}

var (
	alreadyConnected              = &component.Text{Content: "You are already connected to this server!"}
	alreadyInProgress             = &component.Text{Content: "You are already connecting to a server!"}
	internalServerConnectionError = &component.Text{Content: "Internal server connection error"}
	movedToNewServer              = &component.Text{
		Content: "The server you were on kicked you: ",
		S:       component.Style{Color: color.Red},
	}
)

// handleConnectionErr handles unexpected disconnects.
// server is the server we disconnected from.
// safe indicates whether we can safely reconnect to a new server.
func (p *connectedPlayer) handleConnectionErr(server RegisteredServer, err error, safe bool) {
	log := p.log.WithValues(
		"serverName", server.ServerInfo().Name(),
		"serverAddr", server.ServerInfo().Addr())
	log.V(1).Info("could not connect player to server", "error", err)

	p.proxy.event.Fire(&ConnectionErrorEvent{player: p, server: server, err: err, safe: safe})

	if !p.Active() {
		// If the connection is no longer active, we don't have to try to recover it.
		return
	}

	var userMsg string
	connectedServer := p.CurrentServer()
	if connectedServer != nil && RegisteredServerEqual(connectedServer.Server(), server) {
		userMsg = fmt.Sprintf("Your connection to %q encountered an error.",
			server.ServerInfo().Name())
	} else {
		log.Info("unable to connect to server", "error", err)
		userMsg = fmt.Sprintf("Unable to connect to %q. Try again later.", server.ServerInfo().Name())
	}
	p.handleConnectionErr2(server, nil, &component.Text{
		Content: userMsg,
		S:       component.Style{Color: color.Red},
	}, safe)
}

func (p *connectedPlayer) handleConnectionErr2(
	rs RegisteredServer,
	kickReason component.Component,
	friendlyReason component.Component,
	safe bool,
) {
	if !p.Active() {
		return
	}
	if !safe {
		// It is unsafe to continue the connection, disconnect the player.
		p.Disconnect(friendlyReason)
		return
	}
	currentServer := p.CurrentServer()
	kickedFromCurrent := currentServer == nil || RegisteredServerEqual(currentServer.Server(), rs)
	var result ServerKickResult
	if kickedFromCurrent {
		next := p.nextServerToTry(rs)
		if next == nil {
			result = &DisconnectPlayerKickResult{Reason: friendlyReason}
		} else {
			result = &RedirectPlayerKickResult{Server: next}
		}
	} else {
		// If we were kicked while going to another server,
		// the connection should not be in flight.
		p.mu.Lock()
		if p.connInFlight != nil && RegisteredServerEqual(p.connInFlight.Server(), rs) {
			p.connInFlight = nil
		}
		p.mu.Unlock()
		result = &NotifyKickResult{Message: friendlyReason}
	}
	e := &KickedFromServerEvent{
		player:              p,
		server:              rs,
		originalReason:      kickReason,
		duringServerConnect: !kickedFromCurrent,
		result:              result,
	}
	p.handleKickEvent(e, friendlyReason, kickedFromCurrent)
}

func (p *connectedPlayer) handleKickEvent(
	e *KickedFromServerEvent, friendlyReason component.Component, kickedFromCurrent bool,
) {
	p.proxy.event.Fire(e)

	// There can't be any connection in flight now.
	p.setConnectionInFlight(nil)

	// Make sure we clear the current connected server as the connection is invalid.
	p.mu.Lock()
	previouslyConnected := p.connectedServer_ != nil
	if kickedFromCurrent {
		p.connectedServer_ = nil
	}
	p.mu.Unlock()

	if !p.Active() {
		return
	}

	switch result := e.Result().(type) {
	case *DisconnectPlayerKickResult:
		p.Disconnect(result.Reason)
	case *RedirectPlayerKickResult:
		ctx, cancel := context.WithTimeout(context.Background(),
			time.Duration(p.proxy.cfg.ConnectionTimeout)*time.Millisecond)
		defer cancel()
		redirect, err := p.createConnectionRequest(result.Server).connect(ctx)
		if err != nil {
			p.handleConnectionErr(result.Server, err, true)
			return
		}

		switch redirect.Status() {
		// Impossible/nonsensical cases
		case AlreadyConnectedConnectionStatus, InProgressConnectionStatus:
		// Fatal case
		case CanceledConnectionStatus:
			reason := redirect.Reason()
			if reason == nil {
				reason = result.Message
			}
			if reason == nil {
				reason = friendlyReason
			}
			p.Disconnect(reason)
		case ServerDisconnectedConnectionStatus:
			reason := redirect.Reason()
			if reason == nil {
				reason = internalServerConnectionError
			}
			p.handleDisconnectWithReason(result.Server, reason, redirect.safe)
		case SuccessConnectionStatus:
			requestedMessage := result.Message
			if requestedMessage == nil {
				requestedMessage = friendlyReason
			}
			_ = p.SendMessage(requestedMessage)
		}
	case *NotifyKickResult:
		if e.KickedDuringServerConnect() && previouslyConnected {
			_ = p.SendMessage(result.Message)
		} else {
			p.Disconnect(result.Message)
		}
	default:
		// In case someone gets creative, assume we want to disconnect the player.
		p.Disconnect(friendlyReason)
	}
}

func (p *connectedPlayer) handleDisconnect(server RegisteredServer, disconnect *packet.Disconnect, safe bool) {
	p.handleDisconnectWithReason(server, disconnect.Reason.AsComponentOrNil(), safe)
}

// handleDisconnectWithReason handles unexpected disconnects from a backend server.
func (p *connectedPlayer) handleDisconnectWithReason(
	server RegisteredServer, reason component.Component, safe bool,
) {
	if !p.Active() {
		return
	}

	log := p.log.WithValues("server", server.ServerInfo().Name())

	if plainReason, err := util.MarshalPlain(reason); err != nil {
		p.log.V(1).Info("error marshaling disconnect reason to plain", "error", err)
	} else {
		log = log.WithValues("reason", plainReason)
	}

	connected := p.connectedServer()
	if connected != nil && ServerInfoEqual(connected.server.ServerInfo(), server.ServerInfo()) {
		log.Info("player was kicked from server")
		p.handleConnectionErr2(server, reason, &component.Text{
			Content: movedToNewServer.Content,
			S:       movedToNewServer.S,
			Extra:   []component.Component{reason},
		}, safe)
		return
	}

	log.Info("player disconnected from server while connecting")
	p.handleConnectionErr2(server, reason, &component.Text{
		Content: fmt.Sprintf("Can't connect to server %q: ", server.ServerInfo().Name()),
		S:       component.Style{Color: color.Red},
		Extra:   []component.Component{reason},
	}, safe)
}
