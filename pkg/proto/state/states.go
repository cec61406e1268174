package state

import (
	p "github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/packet/chat"
	"github.com/portalmc/portal/pkg/proto/packet/config"
	"github.com/portalmc/portal/pkg/proto/version"
)

// State is a Java edition client state.
type State int

// The states a Java edition connection can be in.
const (
	HandshakeState State = iota
	StatusState
	LoginState
	ConfigState
	PlayState
)

func (s State) String() string {
	switch s {
	case HandshakeState:
		return "Handshake"
	case StatusState:
		return "Status"
	case LoginState:
		return "Login"
	case ConfigState:
		return "Config"
	case PlayState:
		return "Play"
	}
	return "UnknownState"
}

// The registries storing the packets for a connection state.
var (
	Handshake = NewRegistry(HandshakeState)
	Status    = NewRegistry(StatusState)
	Login     = NewRegistry(LoginState)
	Config    = NewRegistry(ConfigState)
	Play      = NewRegistry(PlayState)
)

func init() {
	Handshake.ServerBound.Register(&p.Handshake{},
		m(0x00, version.Minecraft_1_8))

	Status.ServerBound.Register(&p.StatusRequest{},
		m(0x00, version.Minecraft_1_8))
	Status.ServerBound.Register(&p.StatusPing{},
		m(0x01, version.Minecraft_1_8))

	Status.ClientBound.Register(&p.StatusResponse{},
		m(0x00, version.Minecraft_1_8))
	Status.ClientBound.Register(&p.StatusPing{},
		m(0x01, version.Minecraft_1_8))

	Login.ServerBound.Register(&p.ServerLogin{},
		m(0x00, version.Minecraft_1_8))
	Login.ServerBound.Register(&p.EncryptionResponse{},
		m(0x01, version.Minecraft_1_8))
	Login.ServerBound.Register(&p.LoginPluginResponse{},
		m(0x02, version.Minecraft_1_13))
	Login.ServerBound.Register(&p.LoginAcknowledged{},
		m(0x03, version.Minecraft_1_20_2))
	Login.ServerBound.Register(&p.CookieResponse{},
		m(0x04, version.Minecraft_1_20_5))

	Login.ClientBound.Register(&p.LoginDisconnect{},
		m(0x00, version.Minecraft_1_8))
	Login.ClientBound.Register(&p.EncryptionRequest{},
		m(0x01, version.Minecraft_1_8))
	Login.ClientBound.Register(&p.ServerLoginSuccess{},
		m(0x02, version.Minecraft_1_8))
	Login.ClientBound.Register(&p.SetCompression{},
		m(0x03, version.Minecraft_1_8))
	Login.ClientBound.Register(&p.LoginPluginMessage{},
		m(0x04, version.Minecraft_1_13))
	Login.ClientBound.Register(&p.CookieRequest{},
		m(0x05, version.Minecraft_1_20_5))

	// The configuration state exists since 1.20.2; no fallback to the
	// minimum version makes unknown ids surface as nil packets.
	Config.ServerBound.Fallback = false
	Config.ClientBound.Fallback = false

	Config.ServerBound.Register(&p.ClientSettings{},
		m(0x00, version.Minecraft_1_20_2))
	Config.ServerBound.Register(&p.CookieResponse{},
		m(0x01, version.Minecraft_1_20_5))
	Config.ServerBound.Register(&p.PluginMessage{},
		m(0x01, version.Minecraft_1_20_2),
		m(0x02, version.Minecraft_1_20_5))
	Config.ServerBound.Register(&p.FinishedUpdate{},
		m(0x02, version.Minecraft_1_20_2),
		m(0x03, version.Minecraft_1_20_5))
	Config.ServerBound.Register(&p.KeepAlive{},
		m(0x03, version.Minecraft_1_20_2),
		m(0x04, version.Minecraft_1_20_5))
	Config.ServerBound.Register(&config.Pong{},
		m(0x04, version.Minecraft_1_20_2),
		m(0x05, version.Minecraft_1_20_5))
	Config.ServerBound.Register(&config.ResourcePackResponse{},
		m(0x05, version.Minecraft_1_20_2),
		m(0x06, version.Minecraft_1_20_5))
	Config.ServerBound.Register(&config.KnownPacks{},
		m(0x07, version.Minecraft_1_20_5))

	Config.ClientBound.Register(&p.CookieRequest{},
		m(0x00, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&p.PluginMessage{},
		m(0x00, version.Minecraft_1_20_2),
		m(0x01, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&p.Disconnect{},
		m(0x01, version.Minecraft_1_20_2),
		m(0x02, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&p.FinishedUpdate{},
		m(0x02, version.Minecraft_1_20_2),
		m(0x03, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&p.KeepAlive{},
		m(0x03, version.Minecraft_1_20_2),
		m(0x04, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&config.Ping{},
		m(0x04, version.Minecraft_1_20_2),
		m(0x05, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&config.ResetChat{},
		m(0x06, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&config.RegistryData{},
		m(0x05, version.Minecraft_1_20_2),
		m(0x07, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&config.RemoveResourcePack{},
		m(0x06, version.Minecraft_1_20_3),
		m(0x08, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&config.ResourcePackRequest{},
		m(0x06, version.Minecraft_1_20_2),
		m(0x07, version.Minecraft_1_20_3),
		m(0x09, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&p.StoreCookie{},
		m(0x0A, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&config.Transfer{},
		m(0x0B, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&config.FeatureFlags{},
		m(0x07, version.Minecraft_1_20_2),
		m(0x08, version.Minecraft_1_20_3),
		m(0x0C, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&config.UpdateTags{},
		m(0x08, version.Minecraft_1_20_2),
		m(0x09, version.Minecraft_1_20_3),
		m(0x0D, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&config.KnownPacks{},
		m(0x0E, version.Minecraft_1_20_5))
	Config.ClientBound.Register(&config.CustomReportDetails{},
		m(0x0F, version.Minecraft_1_21))
	Config.ClientBound.Register(&config.ServerLinks{},
		m(0x10, version.Minecraft_1_21))

	// Unknown ids in the play state are forwarded as raw payloads; only
	// the packets the proxy inspects or injects are registered here.
	Play.ServerBound.Fallback = false
	Play.ClientBound.Fallback = false

	Play.ServerBound.Register(&chat.ChatCommand{},
		m(0x04, version.Minecraft_1_20_2))
	Play.ServerBound.Register(&chat.SignedChatCommand{},
		m(0x05, version.Minecraft_1_20_5))
	Play.ServerBound.Register(&p.ClientSettings{},
		m(0x09, version.Minecraft_1_20_2),
		m(0x0A, version.Minecraft_1_20_5))
	Play.ServerBound.Register(&p.TabCompleteRequest{},
		m(0x0A, version.Minecraft_1_20_2),
		m(0x0B, version.Minecraft_1_20_5))
	Play.ServerBound.Register(&p.AcknowledgeConfiguration{},
		m(0x0B, version.Minecraft_1_20_2),
		m(0x0C, version.Minecraft_1_20_5))
	Play.ServerBound.Register(&p.PluginMessage{},
		m(0x0F, version.Minecraft_1_20_2),
		m(0x10, version.Minecraft_1_20_3),
		m(0x12, version.Minecraft_1_20_5))
	Play.ServerBound.Register(&p.KeepAlive{},
		m(0x14, version.Minecraft_1_20_2),
		m(0x15, version.Minecraft_1_20_3),
		m(0x18, version.Minecraft_1_20_5))

	Play.ClientBound.Register(&p.BossBar{},
		m(0x0A, version.Minecraft_1_20_2))
	Play.ClientBound.Register(&p.TabCompleteResponse{},
		m(0x10, version.Minecraft_1_20_2))
	Play.ClientBound.Register(&p.AvailableCommands{},
		m(0x11, version.Minecraft_1_20_2))
	Play.ClientBound.Register(&p.CloseContainer{},
		m(0x12, version.Minecraft_1_20_2))
	Play.ClientBound.Register(&p.PluginMessage{},
		m(0x18, version.Minecraft_1_20_2),
		m(0x19, version.Minecraft_1_20_5))
	Play.ClientBound.Register(&p.Disconnect{},
		m(0x1B, version.Minecraft_1_20_2),
		m(0x1D, version.Minecraft_1_20_5))
	Play.ClientBound.Register(&p.KeepAlive{},
		m(0x24, version.Minecraft_1_20_2),
		m(0x26, version.Minecraft_1_20_5))
	Play.ClientBound.Register(&p.JoinGame{},
		m(0x29, version.Minecraft_1_20_2),
		m(0x2B, version.Minecraft_1_20_5))
	Play.ClientBound.Register(&p.OpenScreen{},
		m(0x31, version.Minecraft_1_20_2),
		m(0x33, version.Minecraft_1_20_5))
	Play.ClientBound.Register(&p.PlayerAbilities{},
		m(0x36, version.Minecraft_1_20_2),
		m(0x38, version.Minecraft_1_20_5))
	Play.ClientBound.Register(&p.PlayerInfoRemove{},
		m(0x3B, version.Minecraft_1_20_2),
		m(0x3D, version.Minecraft_1_20_5))
	Play.ClientBound.Register(&p.PlayerInfoUpdate{},
		m(0x3C, version.Minecraft_1_20_2),
		m(0x3E, version.Minecraft_1_20_5))
	Play.ClientBound.Register(&p.ResetScore{},
		m(0x42, version.Minecraft_1_20_3),
		m(0x44, version.Minecraft_1_20_5))
	Play.ClientBound.Register(&p.Respawn{},
		m(0x43, version.Minecraft_1_20_2),
		m(0x45, version.Minecraft_1_20_3),
		m(0x47, version.Minecraft_1_20_5))
	Play.ClientBound.Register(&p.DisplayObjective{},
		m(0x53, version.Minecraft_1_20_2),
		m(0x55, version.Minecraft_1_20_3),
		m(0x57, version.Minecraft_1_20_5))
	Play.ClientBound.Register(&p.UpdateObjectives{},
		m(0x5A, version.Minecraft_1_20_2),
		m(0x5C, version.Minecraft_1_20_3),
		m(0x5E, version.Minecraft_1_20_5))
	Play.ClientBound.Register(&p.UpdateTeams{},
		m(0x5C, version.Minecraft_1_20_2),
		m(0x5E, version.Minecraft_1_20_3),
		m(0x60, version.Minecraft_1_20_5))
	Play.ClientBound.Register(&p.UpdateScore{},
		m(0x5D, version.Minecraft_1_20_2),
		m(0x5F, version.Minecraft_1_20_3),
		m(0x61, version.Minecraft_1_20_5))
	Play.ClientBound.Register(&p.StartConfiguration{},
		m(0x65, version.Minecraft_1_20_2),
		m(0x67, version.Minecraft_1_20_3),
		m(0x69, version.Minecraft_1_20_5))
	Play.ClientBound.Register(&chat.SystemChat{},
		m(0x67, version.Minecraft_1_20_2),
		m(0x69, version.Minecraft_1_20_3),
		m(0x6C, version.Minecraft_1_20_5))
	Play.ClientBound.Register(&p.HeaderAndFooter{},
		m(0x68, version.Minecraft_1_20_2),
		m(0x6A, version.Minecraft_1_20_3),
		m(0x6D, version.Minecraft_1_20_5))
}
