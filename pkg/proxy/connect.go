package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/rs/xid"
	"go.uber.org/atomic"

	"github.com/portalmc/portal/pkg/config"
	"github.com/portalmc/portal/pkg/netmc"
	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/state"
	"github.com/portalmc/portal/pkg/util/netutil"
)

// ServerConnection is a connection to a backend server from the proxy for a client.
type ServerConnection interface {
	Server() RegisteredServer // Returns the server that this connection is connected to.
	Player() Player           // Returns the player that this connection is associated with.
}

type serverConnection struct {
	server *registeredServer
	player *connectedPlayer
	log    logr.Logger

	completedJoin      atomic.Bool
	gracefulDisconnect atomic.Bool

	mu         sync.RWMutex        // Protects following fields
	connection netmc.MinecraftConn // the backend server connection, nil means not connected
}

var _ ServerConnection = (*serverConnection)(nil)

func newServerConnection(server *registeredServer, player *connectedPlayer) *serverConnection {
	// A session id correlates the log lines of one connection attempt.
	sessionID := xid.New().String()
	return &serverConnection{
		server: server,
		player: player,
		log: player.log.WithName("serverConn").WithValues(
			"sessionID", sessionID,
			"serverName", server.info.Name(),
			"serverAddr", server.info.Addr()),
	}
}

func (s *serverConnection) Server() RegisteredServer { return s.server }
func (s *serverConnection) Player() Player           { return s.player }

// conn returns the backend server connection, nil-able.
func (s *serverConnection) conn() netmc.MinecraftConn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connection
}

func (s *serverConnection) config() *config.Config {
	return s.player.proxy.cfg
}

// ServerDialer provides the server connection for a joining player.
// A ServerInfo of a registered server can implement this interface to
// provide custom connection establishment when a player wants to join
// a server. If not implemented, ServerInfo.Addr is dialed using tcp.
type ServerDialer interface {
	Dial(ctx context.Context, player Player) (net.Conn, error)
}

func (s *serverConnection) dial(ctx context.Context) (net.Conn, error) {
	if sd, ok := s.server.ServerInfo().(ServerDialer); ok {
		return sd.Dial(ctx, s.player)
	}
	d := net.Dialer{Timeout: time.Duration(s.config().ConnectionTimeout) * time.Millisecond}
	return d.DialContext(ctx, "tcp", s.server.ServerInfo().Addr().String())
}

type (
	connRequestCxt struct {
		context.Context
		response chan<- *connResponse
		once     sync.Once
	}
	connResponse struct {
		*connectionResult
		error
	}
)

func (c *connRequestCxt) result(result *connectionResult, err error) {
	c.once.Do(func() { c.response <- &connResponse{connectionResult: result, error: err} })
}

// connect establishes the connection to the backend server and runs the
// backend side of the login phase. It blocks until the backend accepted
// or refused the player, or ctx is done.
func (s *serverConnection) connect(ctx context.Context) (*connectionResult, error) {
	debug := s.log.V(1)
	debug.Info("connecting to server")
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("error connecting to server %q: %w",
			s.server.ServerInfo().Name(), err)
	}
	debug.Info("connected to server")

	cfg := s.config()
	serverMc, startReadLoop := netmc.NewMinecraftConn(
		logr.NewContext(s.player.Context(), s.log),
		conn,
		proto.ClientBound,
		time.Duration(cfg.ReadTimeout)*time.Millisecond,
		time.Duration(cfg.ConnectionTimeout)*time.Millisecond,
		cfg.Compression.Level,
	)
	resultChan := make(chan *connResponse, 1)
	request := &connRequestCxt{Context: ctx, response: resultChan}
	serverMc.SetSessionHandler(newBackendLoginSessionHandler(s, request))

	s.mu.Lock()
	s.connection = serverMc
	s.mu.Unlock()

	debug.Info("establishing player connection with server")

	protocol := s.player.Protocol()
	handshake := &packet.Handshake{
		ProtocolVersion: int(protocol),
		NextStatus:      packet.LoginHandshakeIntent,
		Port:            int(netutil.Port(s.server.ServerInfo().Addr())),
	}

	vHost := netutil.Host(s.player.virtualHost)
	if vHost == "" {
		vHost = netutil.Host(s.server.ServerInfo().Addr())
	}
	if s.config().Forwarding.Mode == config.LegacyForwardingMode {
		handshake.ServerAddress = s.createLegacyForwardingAddress(vHost)
	} else {
		handshake.ServerAddress = vHost
	}

	if err = serverMc.BufferPacket(handshake); err != nil {
		return nil, fmt.Errorf("error buffering handshake packet in server connection: %w", err)
	}

	// Set the backend connection's protocol and state after writing the
	// handshake, but before writing the login start packet.
	serverMc.SetProtocol(protocol)
	serverMc.SetState(state.Login)

	err = serverMc.WritePacket(&packet.ServerLogin{
		Username: s.player.Username(),
		HolderID: s.player.ID(),
	})
	if err != nil {
		return nil, fmt.Errorf("error writing login start packet to server connection: %w", err)
	}
	go startReadLoop()

	// Block until the backend login phase concluded.
	r := <-resultChan
	return r.connectionResult, r.error
}

// createLegacyForwardingAddress builds the BungeeCord forwarding scheme:
// a special injection after the address in the handshake, separated by
// null bytes. In order: the original host, the player's IP, their
// undashed id and their profile properties.
func (s *serverConnection) createLegacyForwardingAddress(vHost string) string {
	props, err := json.Marshal(s.player.profile.Properties)
	if err != nil { // should never happen
		panic(err)
	}
	b := new(strings.Builder)
	b.WriteString(vHost)
	b.WriteString("\000")
	b.WriteString(netutil.Host(s.player.RemoteAddr()))
	b.WriteString("\000")
	b.WriteString(s.player.profile.ID.Undashed())
	b.WriteString("\000")
	b.Write(props)
	return b.String()
}

// ensureConnected returns the active backend server connection or false if inactive.
func (s *serverConnection) ensureConnected() (backend netmc.MinecraftConn, connected bool) {
	if s == nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connection, s.connection != nil
}

// active ensures that this server connection remains usable: the connection
// is established and not closed and the player still remains online.
func (s *serverConnection) active() bool {
	s.mu.RLock()
	conn := s.connection
	s.mu.RUnlock()
	return conn != nil && !netmc.Closed(conn) &&
		!s.gracefulDisconnect.Load() &&
		s.player.Active()
}

// disconnect closes the connection to the backend server.
func (s *serverConnection) disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connection != nil {
		s.gracefulDisconnect.Store(true)
		_ = netmc.CloseUnknown(s.connection)
		s.connection = nil // nil means not connected
	}
}

// completeJoin marks that the backend join completed, making this
// connection the player's current server.
func (s *serverConnection) completeJoin() {
	if s.completedJoin.CompareAndSwap(false, true) {
		s.player.setConnectedServer(s)
		s.server.addPlayer(s.player)
	}
}

// withConnectionTimeout returns a child context that is
// canceled after the configured backend connection timeout.
func withConnectionTimeout(parent context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, time.Duration(cfg.ConnectionTimeout)*time.Millisecond)
}

