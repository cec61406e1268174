package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/pires/go-proxyproto"
	"github.com/robinbraemer/event"
	"go.minekube.com/common/minecraft/component"
	"go.uber.org/atomic"

	"github.com/portalmc/portal/pkg/auth"
	"github.com/portalmc/portal/pkg/command"
	"github.com/portalmc/portal/pkg/config"
	"github.com/portalmc/portal/pkg/internal/addrquota"
	"github.com/portalmc/portal/pkg/netmc"
	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/version"
	"github.com/portalmc/portal/pkg/util/componentutil"
	"github.com/portalmc/portal/pkg/util/errs"
	"github.com/portalmc/portal/pkg/util/favicon"
	"github.com/portalmc/portal/pkg/util/netutil"
	"github.com/portalmc/portal/pkg/util/uuid"
)

// Proxy is a Minecraft Java edition reverse proxy.
// It serves the server list ping, authenticates joining players and
// moves them between the registered backend servers.
type Proxy struct {
	cfg           *config.Config
	log           logr.Logger
	event         event.Manager
	command       *command.Manager
	authenticator auth.Authenticator

	startTime atomic.Time
	runOnce   atomic.Bool
	closeOnce sync.Once
	closed    chan struct{}

	shutdownReason *component.Text
	motd           *component.Text
	favicon        favicon.Favicon

	muS     sync.RWMutex                 // Protects following field
	servers map[string]*registeredServer // registered backend servers: by lower case names

	muP         sync.RWMutex                   // Protects following fields
	playerNames map[string]*connectedPlayer    // lower case usernames map
	playerIDs   map[uuid.UUID]*connectedPlayer // uuids map

	connectionsQuota *addrquota.Quota
	loginsQuota      *addrquota.Quota
}

// New returns a new initialized Proxy for the validated config.
func New(cfg config.Config, log logr.Logger) (*Proxy, error) {
	authenticator, err := auth.New(auth.Options{})
	if err != nil {
		return nil, fmt.Errorf("error creating authenticator: %w", err)
	}
	p := &Proxy{
		cfg:           &cfg,
		log:           log.WithName("proxy"),
		event:         event.New(),
		command:       &command.Manager{},
		authenticator: authenticator,
		closed:        make(chan struct{}),
		servers:       map[string]*registeredServer{},
		playerNames:   map[string]*connectedPlayer{},
		playerIDs:     map[uuid.UUID]*connectedPlayer{},
	}
	// Connection & login rate limiters
	quota := cfg.Quota.Connections
	if quota.Enabled {
		p.connectionsQuota = addrquota.NewQuota(quota.OPS, quota.Burst, quota.MaxEntries)
	}
	quota = cfg.Quota.Logins
	if quota.Enabled {
		p.loginsQuota = addrquota.NewQuota(quota.OPS, quota.Burst, quota.MaxEntries)
	}
	return p, nil
}

// ErrProxyAlreadyRun is returned by Proxy.Start if the proxy instance was already run.
var ErrProxyAlreadyRun = errors.New("proxy was already run, create a new one")

// Start runs the proxy and blocks until ctx is canceled, Shutdown is
// called or an error occurred while starting.
// The Proxy is already shut down on method return.
// A Proxy can only be run once or ErrProxyAlreadyRun is returned.
func (p *Proxy) Start(ctx context.Context) error {
	if !p.runOnce.CompareAndSwap(false, true) {
		return ErrProxyAlreadyRun
	}
	p.startTime.Store(time.Now().UTC())
	if err := p.preInit(); err != nil {
		return fmt.Errorf("pre-initialization error: %w", err)
	}
	go func() {
		select {
		case <-ctx.Done():
			p.Shutdown(p.shutdownReason)
		case <-p.closed:
		}
	}()
	defer p.Shutdown(p.shutdownReason)
	return p.listenAndServe(p.cfg.Bind)
}

// Shutdown stops the proxy and blocks until it finished shutdown.
//
// It first stops listening for new connections, disconnects all current
// players with the given reason (nil = blank reason) and waits for all
// event subscribers to finish.
func (p *Proxy) Shutdown(reason component.Component) {
	p.closeOnce.Do(func() {
		p.log.Info("shutting down the proxy")

		close(p.closed)
		p.DisconnectAll(reason)

		p.event.Fire(&ShutdownEvent{Reason: reason})
		p.event.Wait()
		p.log.Info("finished shutdown")
	})
}

// preInit runs before the proxy starts accepting connections.
func (p *Proxy) preInit() (err error) {
	c := p.cfg
	if len(c.ShutdownReason) != 0 {
		p.shutdownReason, err = componentutil.ParseTextComponent(
			version.MaximumVersion.Protocol, c.ShutdownReason)
		if err != nil {
			return fmt.Errorf("error parsing shutdown reason: %w", err)
		}
	}
	if len(c.Status.Motd) != 0 {
		p.motd, err = componentutil.ParseTextComponent(
			version.MaximumVersion.Protocol, c.Status.Motd)
		if err != nil {
			return fmt.Errorf("error parsing status motd: %w", err)
		}
	}
	if len(c.Status.Favicon) != 0 {
		p.favicon, err = favicon.Parse(c.Status.Favicon)
		if err != nil {
			return fmt.Errorf("error loading favicon: %w", err)
		}
	}

	// Pre-register the configured servers.
	for name, addr := range c.Servers {
		if _, err = p.Register(NewServerInfo(name, netutil.TCPAddr(addr))); err != nil {
			return fmt.Errorf("error registering server %q: %w", name, err)
		}
	}
	if len(c.Servers) != 0 {
		p.log.Info("pre-registered servers", "count", len(c.Servers))
	}

	if c.BuiltinCommands {
		p.registerBuiltinCommands()
	}
	return nil
}

// Event returns the proxy's event manager.
func (p *Proxy) Event() event.Manager { return p.event }

// Command returns the proxy's command manager.
func (p *Proxy) Command() *command.Manager { return p.command }

// Config returns the config used by the proxy.
func (p *Proxy) Config() config.Config { return *p.cfg }

// Uptime returns the duration the proxy has been running.
func (p *Proxy) Uptime() time.Duration { return time.Since(p.startTime.Load()) }

// DisconnectAll disconnects all current players in parallel.
func (p *Proxy) DisconnectAll(reason component.Component) {
	p.muP.RLock()
	players := make([]*connectedPlayer, 0, len(p.playerIDs))
	for _, player := range p.playerIDs {
		players = append(players, player)
	}
	p.muP.RUnlock()

	var wg sync.WaitGroup
	wg.Add(len(players))
	for _, player := range players {
		go func(player *connectedPlayer) {
			defer wg.Done()
			player.Disconnect(reason)
		}(player)
	}
	wg.Wait()
}

// listenAndServe starts listening for connections on the
// bind address until the proxy is shut down.
func (p *Proxy) listenAndServe(addr string) error {
	select {
	case <-p.closed:
		return nil
	default:
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	if p.cfg.ProxyProtocol {
		// Accept the ha-proxy protocol header of a fronting load balancer.
		ln = &proxyproto.Listener{Listener: ln}
	}

	go func() {
		<-p.closed
		_ = ln.Close()
	}()

	p.event.Fire(&ReadyEvent{addr: addr})
	p.log.Info("listening for connections", "addr", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			var opErr *net.OpError
			if errors.As(err, &opErr) && errs.IsConnClosedErr(opErr.Err) {
				// Listener was closed.
				return nil
			}
			return fmt.Errorf("error accepting new connection: %w", err)
		}
		go p.handleRawConn(conn)
	}
}

// handleRawConn handles a just-accepted client connection that
// has not had any I/O performed on it yet.
func (p *Proxy) handleRawConn(raw net.Conn) {
	if p.connectionsQuota != nil && p.connectionsQuota.Blocked(raw.RemoteAddr()) {
		_ = raw.Close()
		p.log.V(1).Info("connection exceeded the rate limit", "remoteAddr", raw.RemoteAddr())
		return
	}

	cfg := p.cfg
	conn, startReadLoop := netmc.NewMinecraftConn(
		logr.NewContext(context.Background(), p.log),
		raw,
		proto.ServerBound,
		time.Duration(cfg.ReadTimeout)*time.Millisecond,
		time.Duration(cfg.ConnectionTimeout)*time.Millisecond,
		cfg.Compression.Level,
	)
	netmc.SetRateLimits(conn, cfg.Limits.PacketsPerSecond, cfg.Limits.BytesPerSecond)
	conn.SetSessionHandler(newHandshakeSessionHandler(conn, p))
	startReadLoop() // blocks while the connection is alive
}

// PlayerCount returns the number of players on the proxy.
func (p *Proxy) PlayerCount() int {
	p.muP.RLock()
	defer p.muP.RUnlock()
	return len(p.playerIDs)
}

// Players returns all players on the proxy.
func (p *Proxy) Players() []Player {
	p.muP.RLock()
	defer p.muP.RUnlock()
	pls := make([]Player, 0, len(p.playerIDs))
	for _, player := range p.playerIDs {
		pls = append(pls, player)
	}
	return pls
}

// Player returns the online player by their Minecraft id.
// Returns nil if the player was not found.
func (p *Proxy) Player(id uuid.UUID) Player {
	p.muP.RLock()
	defer p.muP.RUnlock()
	player, ok := p.playerIDs[id]
	if !ok {
		return nil // must return explicit nil
	}
	return player
}

// PlayerByName returns the online player by their Minecraft name
// (search is case-insensitive). Returns nil if the player was not found.
func (p *Proxy) PlayerByName(username string) Player {
	player := p.playerByName(username)
	if player == (*connectedPlayer)(nil) {
		return nil
	}
	return player
}

func (p *Proxy) playerByName(username string) *connectedPlayer {
	p.muP.RLock()
	defer p.muP.RUnlock()
	return p.playerNames[strings.ToLower(username)]
}

// registerConnection attempts to register the player with the proxy.
// It fails if another connection with the same name or id exists.
func (p *Proxy) registerConnection(player *connectedPlayer) bool {
	lowerName := strings.ToLower(player.Username())
	p.muP.Lock()
	defer p.muP.Unlock()
	if _, exists := p.playerNames[lowerName]; exists {
		return false
	}
	if _, exists := p.playerIDs[player.ID()]; exists {
		return false
	}
	p.playerNames[lowerName] = player
	p.playerIDs[player.ID()] = player
	return true
}

// unregisterConnection unregisters a connected player.
// Found is false if the player never completed the login.
func (p *Proxy) unregisterConnection(player *connectedPlayer) (found bool) {
	p.muP.Lock()
	defer p.muP.Unlock()
	_, found = p.playerIDs[player.ID()]
	delete(p.playerNames, strings.ToLower(player.Username()))
	delete(p.playerIDs, player.ID())
	return found
}

// Alert broadcasts a message to every player on the proxy.
func (p *Proxy) Alert(msg component.Component) {
	for _, player := range p.Players() {
		go func(player Player) { _ = player.SendMessage(msg) }(player)
	}
}
