package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	var c Config
	require.NoError(t, v.Unmarshal(&c))
	return &c
}

func TestDefaultConfigIsValid(t *testing.T) {
	c := defaultConfig(t)
	warns, errs := c.Validate()
	require.Empty(t, errs, "%v", errs)
	// No servers are configured by default, which only warns.
	require.NotEmpty(t, warns)

	require.Equal(t, "0.0.0.0:25565", c.Bind)
	require.True(t, c.OnlineMode)
	require.Equal(t, LegacyForwardingMode, c.Forwarding.Mode)
	require.Equal(t, 256, c.Compression.Threshold)
	require.True(t, c.Quota.Connections.Enabled)
	require.Equal(t, 5000, c.ConnectionTimeout)
}

func TestValidate_errors(t *testing.T) {
	for _, x := range []struct {
		name   string
		modify func(c *Config)
	}{
		{"empty bind", func(c *Config) { c.Bind = "" }},
		{"invalid bind", func(c *Config) { c.Bind = "not an address" }},
		{"unknown forwarding mode", func(c *Config) { c.Forwarding.Mode = "velocity" }},
		{"invalid server address", func(c *Config) {
			c.Servers = map[string]string{"lobby": "no port"}
		}},
		{"invalid server name", func(c *Config) {
			c.Servers = map[string]string{"lob by!": "localhost:25566"}
		}},
		{"try references unknown server", func(c *Config) { c.Try = []string{"ghost"} }},
		{"forced host references unknown server", func(c *Config) {
			c.ForcedHosts = ForcedHosts{"play.example.com": {"ghost"}}
		}},
		{"compression level out of range", func(c *Config) { c.Compression.Level = 10 }},
		{"compression threshold out of range", func(c *Config) { c.Compression.Threshold = -2 }},
		{"quota ops", func(c *Config) { c.Quota.Logins.OPS = 0 }},
		{"negative packet limit", func(c *Config) { c.Limits.PacketsPerSecond = -1 }},
	} {
		t.Run(x.name, func(t *testing.T) {
			c := defaultConfig(t)
			x.modify(c)
			_, errs := c.Validate()
			require.NotEmpty(t, errs)
		})
	}
}

func TestValidate_ok(t *testing.T) {
	c := defaultConfig(t)
	c.Servers = map[string]string{
		"lobby":    "localhost:25566",
		"survival": "localhost:25567",
	}
	c.Try = []string{"lobby"}
	c.ForcedHosts = ForcedHosts{"sv.example.com": {"survival"}}
	_, errs := c.Validate()
	require.Empty(t, errs, "%v", errs)
}
