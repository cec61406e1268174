// Package config contains the configuration of the proxy.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/portalmc/portal/pkg/util/validation"
)

// Config is the configuration of the proxy.
type Config struct {
	Bind string // The address to listen for connections.

	OnlineMode bool

	Forwarding Forwarding
	Status     Status

	Servers                              map[string]string // name:address
	Try                                  []string          // Try server names order
	ForcedHosts                          ForcedHosts
	FailoverOnUnexpectedServerDisconnect bool

	ConnectionTimeout int // Backend dial/write timeout in milliseconds.
	ReadTimeout       int // Read timeout in milliseconds.
	LoginTimeout      int // Per-phase login timeout in milliseconds.

	Quota       Quota
	Limits      RateLimits
	Compression Compression

	ProxyProtocol                       bool // ha-proxy compatibility on the listener
	ShouldPreventClientProxyConnections bool // sends player ip to mojang

	BuiltinCommands bool

	Debug          bool
	ShutdownReason string
}

type (
	ForcedHosts map[string][]string // virtualhost:server names
	Status      struct {
		ShowMaxPlayers   int
		Motd             string
		Favicon          string
		ShowPingRequests bool
	}
	Forwarding struct {
		Mode ForwardingMode
	}
	Compression struct {
		Threshold int
		Level     int
	}
	// Quota is the config for the per-IP connect throttle.
	Quota struct {
		Connections QuotaSettings // Limits new connections per second, per IP block.
		Logins      QuotaSettings // Limits logins per second, per IP block.
	}
	QuotaSettings struct {
		Enabled    bool    // If false, there is no such limiting.
		OPS        float32 // Allowed operations/events per second, per IP block
		Burst      int     // The maximum events per second, per block; the size of the token bucket
		MaxEntries int     // Maximum number of IP blocks to keep track of in cache
	}
	// RateLimits caps what a single established connection may send.
	RateLimits struct {
		PacketsPerSecond int // 0 = unlimited
		BytesPerSecond   int // 0 = unlimited
	}
)

// ForwardingMode is a player info forwarding mode.
type ForwardingMode string

const (
	NoneForwardingMode ForwardingMode = "none"
	// LegacyForwardingMode is the BungeeCord forwarding scheme appending
	// the player identity to the handshake address.
	LegacyForwardingMode ForwardingMode = "legacy"
)

// SetDefaults sets Config defaults used with Viper.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("bind", "0.0.0.0:25565")
	v.SetDefault("onlineMode", true)
	v.SetDefault("forwarding.mode", LegacyForwardingMode)

	v.SetDefault("shutdownReason", "§cPortal proxy is shutting down...\nPlease reconnect in a moment!")

	v.SetDefault("status.motd", "§bA Portal Proxy")
	v.SetDefault("status.showMaxPlayers", 1000)
	v.SetDefault("status.showPingRequests", false)

	v.SetDefault("compression.threshold", 256)
	v.SetDefault("compression.level", -1)

	// Default quotas should never affect legitimate operations,
	// but rate limit aggressive behaviours.
	v.SetDefault("quota.connections.enabled", true)
	v.SetDefault("quota.connections.ops", 5)
	v.SetDefault("quota.connections.burst", 10)
	v.SetDefault("quota.connections.maxEntries", 1000)

	v.SetDefault("quota.logins.enabled", true)
	v.SetDefault("quota.logins.ops", 0.4)
	v.SetDefault("quota.logins.burst", 3)
	v.SetDefault("quota.logins.maxEntries", 1000)

	v.SetDefault("limits.packetsPerSecond", 500)
	v.SetDefault("limits.bytesPerSecond", 256*1024)

	v.SetDefault("connectionTimeout", 5000)
	v.SetDefault("readTimeout", 30000)
	v.SetDefault("loginTimeout", 30000)
	v.SetDefault("builtinCommands", true)
	v.SetDefault("failoverOnUnexpectedServerDisconnect", true)
}

// Validate validates Config.
func (c *Config) Validate() (warns []error, errs []error) {
	e := func(m string, args ...any) { errs = append(errs, fmt.Errorf(m, args...)) }
	w := func(m string, args ...any) { warns = append(warns, fmt.Errorf(m, args...)) }

	if c == nil {
		e("config must not be nil")
		return
	}

	if len(c.Bind) == 0 {
		e("bind is empty")
	} else {
		if err := validation.ValidHostPort(c.Bind); err != nil {
			e("invalid bind %q: %v", c.Bind, err)
		}
	}

	if !c.OnlineMode {
		w("Proxy is running in offline mode!")
	}

	switch c.Forwarding.Mode {
	case NoneForwardingMode:
		w("Player forwarding is disabled! Backend servers will have players with " +
			"offline-mode UUIDs and the same IP as the proxy.")
	case LegacyForwardingMode:
	default:
		e("unknown forwarding mode %q, must be one of none,legacy", c.Forwarding.Mode)
	}

	if len(c.Servers) == 0 {
		w("No backend servers configured.")
	}

	for name, addr := range c.Servers {
		if !validation.ValidServerName(name) {
			e("invalid server name format %q: %s and length be 1-%d", name,
				validation.QualifiedNameErrMsg, validation.QualifiedNameMaxLength)
		}
		if err := validation.ValidHostPort(addr); err != nil {
			e("invalid address %q for server %q: %v", addr, name, err)
		}
	}

	for _, name := range c.Try {
		if _, ok := c.Servers[name]; !ok {
			e("fallback/try server %q must be registered under servers", name)
		}
	}

	for host, servers := range c.ForcedHosts {
		for _, name := range servers {
			if _, ok := c.Servers[name]; !ok {
				e("forced host %q server %q must be registered under servers", host, name)
			}
		}
	}

	if c.Compression.Level < -1 || c.Compression.Level > 9 {
		e("unsupported compression level %d: must be -1..9", c.Compression.Level)
	} else if c.Compression.Level == 0 {
		w("All packets going through the proxy will be uncompressed, this increases bandwidth usage.")
	}

	if c.Compression.Threshold < -1 {
		e("invalid compression threshold %d: must be >= -1", c.Compression.Threshold)
	} else if c.Compression.Threshold == 0 {
		w("All packets going through the proxy will be compressed, this lowers bandwidth, " +
			"but has lower throughput and increases CPU usage.")
	}

	for _, quota := range []QuotaSettings{c.Quota.Connections, c.Quota.Logins} {
		if quota.Enabled {
			if quota.OPS <= 0 {
				e("invalid quota ops %f, use a number > 0", quota.OPS)
			}
			if quota.Burst < 1 {
				e("invalid quota burst %d, use a number >= 1", quota.Burst)
			}
			if quota.MaxEntries < 1 {
				e("invalid quota max entries %d, use a number >= 1", quota.MaxEntries)
			}
		}
	}

	if c.Limits.PacketsPerSecond < 0 {
		e("invalid packets per second limit %d, use 0 for unlimited", c.Limits.PacketsPerSecond)
	}
	if c.Limits.BytesPerSecond < 0 {
		e("invalid bytes per second limit %d, use 0 for unlimited", c.Limits.BytesPerSecond)
	}

	return
}
