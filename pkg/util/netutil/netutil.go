// Package netutil provides network address utilities.
package netutil

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

type addr struct {
	network string
	addr    string
}

func (a *addr) Network() string { return a.network }
func (a *addr) String() string  { return a.addr }

// NewAddr returns a new net.Addr for the host and port.
func NewAddr(network, host string, port uint16) net.Addr {
	return &addr{
		network: network,
		addr:    net.JoinHostPort(host, strconv.Itoa(int(port))),
	}
}

// TCPAddr returns a tcp net.Addr for a host:port string.
// A missing port defaults to the default Minecraft port.
func TCPAddr(hostPort string) net.Addr {
	host, port, err := Parse(hostPort, 25565)
	if err != nil {
		return &addr{network: "tcp", addr: hostPort}
	}
	return NewAddr("tcp", host, port)
}

// Host returns the host of the address without the port, if any.
func Host(a net.Addr) string {
	if a == nil {
		return ""
	}
	return HostStr(a.String())
}

// HostStr strips the port from a host:port string, if present.
func HostStr(hostPort string) string {
	if host, _, err := net.SplitHostPort(hostPort); err == nil {
		return host
	}
	return hostPort
}

// Port returns the port of the address, or 0.
func Port(a net.Addr) uint16 {
	if a == nil {
		return 0
	}
	_, portStr, err := net.SplitHostPort(a.String())
	if err != nil {
		return 0
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return 0
	}
	return uint16(port)
}

// Parse parses the address into host and port.
// A missing port defaults to defaultPort.
func Parse(hostPort string, defaultPort uint16) (host string, port uint16, err error) {
	host, portStr, err := net.SplitHostPort(hostPort)
	if err != nil {
		var addrErr *net.AddrError
		if errors.As(err, &addrErr) && addrErr.Err == "missing port in address" {
			return hostPort, defaultPort, nil
		}
		return "", 0, err
	}
	p, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return host, uint16(p), nil
}
