package proxy

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/jellydator/ttlcache/v3"
	"go.minekube.com/common/minecraft/component"
	"go.minekube.com/common/minecraft/component/codec/legacy"
	"go.uber.org/atomic"

	"github.com/portalmc/portal/pkg/internal/future"
	"github.com/portalmc/portal/pkg/netmc"
	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/packet/chat"
	"github.com/portalmc/portal/pkg/proto/state"
	"github.com/portalmc/portal/pkg/proxy/player"
	"github.com/portalmc/portal/pkg/util/netutil"
	"github.com/portalmc/portal/pkg/util/profile"
	"github.com/portalmc/portal/pkg/util/uuid"
)

// Player is a connected Minecraft player.
type Player interface {
	netmc.PacketWriter

	ID() uuid.UUID    // The Minecraft ID of the player.
	Username() string // The username of the player.
	// Protocol returns the protocol version of the player's client.
	Protocol() proto.Protocol
	// RemoteAddr returns the player's remote address.
	RemoteAddr() net.Addr
	// VirtualHost returns the host address the player requested in the handshake.
	VirtualHost() net.Addr
	OnlineMode() bool                 // Whether the player was authenticated with Mojang's session servers.
	GameProfile() profile.GameProfile // Returns the player's game profile.
	// CurrentServer returns the current server connection of the player.
	CurrentServer() ServerConnection // May be nil, if there is no backend server connection!
	Ping() time.Duration             // The player's ping or -1 if currently unknown.
	// Settings returns the player's client settings.
	// Returns player.DefaultSettings if unknown.
	Settings() player.Settings
	ClientBrand() string // Returns the player's client brand. Empty if unspecified.
	// SendMessage sends a chat message to the player.
	SendMessage(msg component.Component) error
	// Disconnect disconnects the player with a reason.
	// Once called, further interface calls to this player become undefined.
	Disconnect(reason component.Component)
	// CreateConnectionRequest creates a connection request
	// to begin switching the backend server.
	CreateConnectionRequest(target RegisteredServer) ConnectionRequest
	// Active returns true if the player's connection is still open.
	Active() bool
	// Context returns the context of the player's connection,
	// canceled when the connection is closed.
	Context() context.Context
}

type connectedPlayer struct {
	netmc.MinecraftConn
	proxy *Proxy

	log             logr.Logger
	virtualHost     net.Addr
	onlineMode      bool
	profile         *profile.GameProfile
	handshakeIntent int
	ping            atomic.Duration
	playState       *playStateTracker

	// Keep-alives sent by the backend that the client did not answer yet.
	// A player that lets one expire is timed out.
	pendingKeepAlives *ttlcache.Cache[int64, time.Time]

	mu                   sync.RWMutex // Protects following fields
	connectedServer_     *serverConnection
	connInFlight         *serverConnection
	settings             player.Settings
	clientSettingsPacket *packet.ClientSettings
	clientBrand          string
	configSwitchDone     *future.Future[any] // pending play-to-config switch, nil if none

	serversToTry []string // names of servers to try if we got disconnected from previous
	tryIndex     int
}

var _ Player = (*connectedPlayer)(nil)

// keepAliveTimeout is how long a client may take to answer
// a keep-alive before it is considered timed out.
const keepAliveTimeout = 30 * time.Second

func newConnectedPlayer(
	conn netmc.MinecraftConn,
	profile *profile.GameProfile,
	virtualHost net.Addr,
	handshakeIntent int,
	onlineMode bool,
	proxy *Proxy,
) *connectedPlayer {
	var ping atomic.Duration
	ping.Store(-1)

	p := &connectedPlayer{
		MinecraftConn: conn,
		proxy:         proxy,
		log: logr.FromContextOrDiscard(conn.Context()).WithName("player").WithValues(
			"name", profile.Name, "id", profile.ID),
		profile:         profile,
		virtualHost:     virtualHost,
		handshakeIntent: handshakeIntent,
		onlineMode:      onlineMode,
		ping:            ping,
		playState:       newPlayStateTracker(),
		pendingKeepAlives: ttlcache.New[int64, time.Time](
			ttlcache.WithTTL[int64, time.Time](keepAliveTimeout),
			ttlcache.WithDisableTouchOnHit[int64, time.Time](),
		),
	}
	p.pendingKeepAlives.OnEviction(func(
		_ context.Context, reason ttlcache.EvictionReason, _ *ttlcache.Item[int64, time.Time],
	) {
		if reason == ttlcache.EvictionReasonExpired {
			p.Disconnect(timedOutReason)
		}
	})
	go p.pendingKeepAlives.Start()
	return p
}

var timedOutReason = &component.Text{Content: "Timed out"}

func (p *connectedPlayer) ID() uuid.UUID    { return p.profile.ID }
func (p *connectedPlayer) Username() string { return p.profile.Name }
func (p *connectedPlayer) String() string   { return p.profile.Name }
func (p *connectedPlayer) OnlineMode() bool { return p.onlineMode }

// PlayerLog is used by the connection close path to log unexpected disconnects.
func (p *connectedPlayer) PlayerLog() logr.Logger { return p.log }

func (p *connectedPlayer) GameProfile() profile.GameProfile {
	return *p.profile
}

func (p *connectedPlayer) VirtualHost() net.Addr {
	return p.virtualHost
}

func (p *connectedPlayer) Ping() time.Duration {
	return p.ping.Load()
}

func (p *connectedPlayer) Active() bool {
	return !netmc.Closed(p.MinecraftConn)
}

// trackKeepAlive remembers a keep-alive id the backend sent to the client.
func (p *connectedPlayer) trackKeepAlive(id int64) {
	p.pendingKeepAlives.Set(id, time.Now(), ttlcache.DefaultTTL)
}

// acceptKeepAlive resolves a keep-alive answered by the client
// and updates the player's ping. Returns false for unknown ids.
func (p *connectedPlayer) acceptKeepAlive(id int64) bool {
	item := p.pendingKeepAlives.Get(id)
	if item == nil {
		return false
	}
	p.ping.Store(time.Since(item.Value()))
	p.pendingKeepAlives.Delete(id)
	return true
}

// CurrentServer returns the player's current backend server connection, may be nil.
func (p *connectedPlayer) CurrentServer() ServerConnection {
	if cs := p.connectedServer(); cs != nil {
		return cs
	}
	// We must return an explicit nil, not a (*serverConnection)(nil).
	return nil
}

func (p *connectedPlayer) connectedServer() *serverConnection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connectedServer_
}

func (p *connectedPlayer) connectionInFlight() *serverConnection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connInFlight
}

func (p *connectedPlayer) connectionInFlightOrConnectedServer() *serverConnection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.connInFlight != nil {
		return p.connInFlight
	}
	return p.connectedServer_
}

func (p *connectedPlayer) setConnectionInFlight(s *serverConnection) {
	p.mu.Lock()
	p.connInFlight = s
	p.mu.Unlock()
}

func (p *connectedPlayer) setConnectedServer(s *serverConnection) {
	p.mu.Lock()
	p.connectedServer_ = s
	if p.connInFlight == s {
		p.connInFlight = nil
	}
	p.mu.Unlock()
}

// switchToConfigState asks a client that is in the play state to re-enter
// the configuration state. The returned future completes once the client
// acknowledged and the connection switched to the config state.
func (p *connectedPlayer) switchToConfigState() *future.Future[any] {
	done := future.New[any]()
	p.mu.Lock()
	p.configSwitchDone = done
	p.mu.Unlock()
	if err := p.WritePacket(&packet.StartConfiguration{}); err != nil {
		p.log.V(1).Info("error sending config state start packet", "error", err)
	}
	return done
}

// takeConfigSwitchFuture removes and returns the pending
// config switch future, nil if there is none.
func (p *connectedPlayer) takeConfigSwitchFuture() *future.Future[any] {
	p.mu.Lock()
	defer p.mu.Unlock()
	done := p.configSwitchDone
	p.configSwitchDone = nil
	return done
}

var ErrNoBackendConnection = errors.New("player has no backend server connection yet")

func (p *connectedPlayer) ensureBackendConnection() (netmc.MinecraftConn, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.connectedServer_ == nil {
		return nil, false
	}
	serverMc := p.connectedServer_.conn()
	if serverMc == nil {
		return nil, false
	}
	return serverMc, true
}

func (p *connectedPlayer) Settings() player.Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.settings != nil {
		return p.settings
	}
	return player.DefaultSettings
}

func (p *connectedPlayer) setClientSettings(pkt *packet.ClientSettings) {
	settings := player.NewSettings(pkt)
	p.mu.Lock()
	p.clientSettingsPacket = pkt
	p.settings = settings
	p.mu.Unlock()
}

func (p *connectedPlayer) clientSettings() *packet.ClientSettings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clientSettingsPacket
}

func (p *connectedPlayer) ClientBrand() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clientBrand
}

func (p *connectedPlayer) setClientBrand(brand string) {
	p.mu.Lock()
	p.clientBrand = brand
	p.mu.Unlock()
}

func (p *connectedPlayer) SendMessage(msg component.Component) error {
	if msg == nil {
		return nil // skip nil message
	}
	return p.WritePacket(&chat.SystemChat{
		Component: chat.FromComponentProtocol(msg, p.Protocol()),
	})
}

func (p *connectedPlayer) Disconnect(reason component.Component) {
	if !p.Active() {
		return
	}

	var r string
	b := new(strings.Builder)
	if (&legacy.Legacy{}).Marshal(b, reason) == nil {
		r = b.String()
	}

	var pkt proto.Packet
	if p.State() == state.Login {
		loginPkt, err := packet.NewLoginDisconnect(reason)
		if err != nil {
			_ = p.Close()
			return
		}
		pkt = loginPkt
	} else {
		pkt = packet.NewDisconnect(reason, p.Protocol())
	}

	if netmc.CloseWith(p.MinecraftConn, pkt) == nil {
		p.log.Info("player has been disconnected", "reason", r)
	}
}

// nextServerToTry finds another server to attempt to connect to, if we were
// unexpectedly disconnected from a server. current is skipped and may be nil.
// MAY RETURN NIL if no next server is available.
func (p *connectedPlayer) nextServerToTry(current RegisteredServer) RegisteredServer {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.serversToTry) == 0 {
		p.serversToTry = p.proxy.cfg.ForcedHosts[p.virtualHostname()]
	}
	if len(p.serversToTry) == 0 {
		p.serversToTry = p.proxy.cfg.Try
		if len(p.serversToTry) == 0 {
			return nil
		}
	}

	sameName := func(rs RegisteredServer, name string) bool {
		return rs.ServerInfo().Name() == name
	}

	for i := p.tryIndex; i < len(p.serversToTry); i++ {
		toTry := p.serversToTry[i]
		if (p.connectedServer_ != nil && sameName(p.connectedServer_.Server(), toTry)) ||
			(p.connInFlight != nil && sameName(p.connInFlight.Server(), toTry)) ||
			(current != nil && sameName(current, toTry)) {
			continue
		}

		p.tryIndex = i
		if s := p.proxy.Server(toTry); s != nil {
			return s
		}
	}
	return nil
}

// virtualHostname is the lowercased hostname the client requested, without port.
func (p *connectedPlayer) virtualHostname() string {
	return strings.ToLower(netutil.Host(p.virtualHost))
}

// teardown runs after the player's connection closed to
// disconnect the backend server connection, if any.
func (p *connectedPlayer) teardown() {
	p.pendingKeepAlives.Stop()

	p.mu.RLock()
	connInFlight := p.connInFlight
	connectedServer := p.connectedServer_
	p.mu.RUnlock()
	if connInFlight != nil {
		connInFlight.disconnect()
	}
	if connectedServer != nil {
		connectedServer.disconnect()
		connectedServer.server.removePlayer(p)
	}

	loggedIn := p.proxy.unregisterConnection(p)
	p.proxy.event.Fire(&DisconnectEvent{
		player:   p,
		loggedIn: loggedIn,
	})
}
