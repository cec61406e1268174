package proxy

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
)

// ServerInfo is the static info of a backend server.
type ServerInfo interface {
	Name() string   // Returns the server name.
	Addr() net.Addr // Returns the server address.
}

type serverInfo struct {
	name string
	addr net.Addr
}

func (i *serverInfo) Name() string   { return i.name }
func (i *serverInfo) Addr() net.Addr { return i.addr }

func (i *serverInfo) String() string {
	return fmt.Sprintf("%s(%s)", i.name, i.addr)
}

// NewServerInfo returns a new ServerInfo.
func NewServerInfo(name string, addr net.Addr) ServerInfo {
	return &serverInfo{name: name, addr: addr}
}

// ServerInfoEqual returns true if both infos have the same name and address.
func ServerInfoEqual(a, b ServerInfo) bool {
	return a.Name() == b.Name() && a.Addr().String() == b.Addr().String()
}

// RegisteredServer is a backend server registered with the proxy.
type RegisteredServer interface {
	ServerInfo() ServerInfo
	// Players returns the players connected to the server on this proxy.
	Players() []Player
}

type registeredServer struct {
	info ServerInfo

	mu      sync.RWMutex
	players map[*connectedPlayer]struct{}
}

var _ RegisteredServer = (*registeredServer)(nil)

func newRegisteredServer(info ServerInfo) *registeredServer {
	return &registeredServer{
		info:    info,
		players: map[*connectedPlayer]struct{}{},
	}
}

func (r *registeredServer) ServerInfo() ServerInfo { return r.info }

func (r *registeredServer) Players() []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	players := make([]Player, 0, len(r.players))
	for p := range r.players {
		players = append(players, p)
	}
	return players
}

func (r *registeredServer) addPlayer(p *connectedPlayer) {
	r.mu.Lock()
	r.players[p] = struct{}{}
	r.mu.Unlock()
}

func (r *registeredServer) removePlayer(p *connectedPlayer) {
	r.mu.Lock()
	delete(r.players, p)
	r.mu.Unlock()
}

func (r *registeredServer) String() string {
	return fmt.Sprintf("%v", r.info)
}

var (
	// ErrServerAlreadyExists indicates a server with the same name is already registered.
	ErrServerAlreadyExists = errors.New("server already registered")
	// ErrServerNotRegistered indicates the server is not registered with the proxy.
	ErrServerNotRegistered = errors.New("server not registered")
)

// Register registers a backend server with the proxy.
func (p *Proxy) Register(info ServerInfo) (RegisteredServer, error) {
	if info == nil {
		return nil, errors.New("server info must not be nil")
	}
	name := strings.ToLower(info.Name())

	p.muS.Lock()
	defer p.muS.Unlock()
	if exists, ok := p.servers[name]; ok {
		if ServerInfoEqual(exists.ServerInfo(), info) {
			return exists, ErrServerAlreadyExists
		}
		return nil, ErrServerAlreadyExists
	}
	rs := newRegisteredServer(info)
	p.servers[name] = rs

	p.log.V(1).Info("registered new server", "name", info.Name(), "addr", info.Addr())
	return rs, nil
}

// Unregister unregisters a backend server from the proxy.
func (p *Proxy) Unregister(info ServerInfo) bool {
	if info == nil {
		return false
	}
	name := strings.ToLower(info.Name())
	p.muS.Lock()
	defer p.muS.Unlock()
	rs, ok := p.servers[name]
	if !ok || !ServerInfoEqual(rs.ServerInfo(), info) {
		return false
	}
	delete(p.servers, name)

	p.log.V(1).Info("unregistered server", "name", info.Name(), "addr", info.Addr())
	return true
}

// Server gets a registered server by name or nil if not found.
func (p *Proxy) Server(name string) RegisteredServer {
	s := p.server(name)
	if s == (*registeredServer)(nil) {
		return nil // return correct nil
	}
	return s
}

func (p *Proxy) server(name string) *registeredServer {
	name = strings.ToLower(name)
	p.muS.RLock()
	defer p.muS.RUnlock()
	return p.servers[name] // may be nil
}

// Servers gets all registered servers.
func (p *Proxy) Servers() []RegisteredServer {
	p.muS.RLock()
	defer p.muS.RUnlock()
	l := make([]RegisteredServer, 0, len(p.servers))
	for _, rs := range p.servers {
		l = append(l, rs)
	}
	return l
}

// ServerNames returns the sorted names of all registered servers.
func (p *Proxy) ServerNames() []string {
	p.muS.RLock()
	defer p.muS.RUnlock()
	names := make([]string, 0, len(p.servers))
	for name := range p.servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
