// Package player provides the client settings of a connected player.
package player

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/portalmc/portal/pkg/proto/packet"
)

// Settings are the client settings the player gave us.
type Settings interface {
	Locale() language.Tag // Locale of the Minecraft client.
	// ViewDistance returns the client's view distance. This does not guarantee
	// the client will see this many chunks, since the backend servers are
	// responsible for sending the chunks.
	ViewDistance() uint8
	ChatMode() ChatMode   // The chat setting of the client.
	ChatColors() bool     // Whether the client has chat colors enabled.
	SkinParts() SkinParts // The parts of player skins the client will show.
	MainHand() MainHand   // The primary hand of the client.
	// ClientListing returns whether the client wants to be
	// listed in server list pings (1.18+, true for older clients).
	ClientListing() bool
}

// DefaultSettings are the settings used until a
// client information packet arrived.
var DefaultSettings = NewSettings(&packet.ClientSettings{
	Locale:        "en_US",
	ViewDistance:  10,
	ChatColors:    true,
	SkinParts:     127,
	MainHand:      1,
	ClientListing: true,
})

// ChatMode is the client chat visibility setting.
type ChatMode string

// Chat modes.
const (
	ShownChatMode ChatMode = "shown"
	CommandsOnly  ChatMode = "commandsOnly"
	Hidden        ChatMode = "hidden"
)

// MainHand is the primary hand of the client.
type MainHand string

// Main hands.
const (
	LeftMainHand  MainHand = "left"
	RightMainHand MainHand = "right"
)

// SkinParts is the displayed skin parts bitmask.
type SkinParts byte

func (bitmask SkinParts) Cape() bool {
	return (bitmask & 1) == 1
}
func (bitmask SkinParts) Jacket() bool {
	return ((bitmask >> 1) & 1) == 1
}
func (bitmask SkinParts) LeftSleeve() bool {
	return ((bitmask >> 2) & 1) == 1
}
func (bitmask SkinParts) RightSleeve() bool {
	return ((bitmask >> 3) & 1) == 1
}
func (bitmask SkinParts) LeftPants() bool {
	return ((bitmask >> 4) & 1) == 1
}
func (bitmask SkinParts) RightPants() bool {
	return ((bitmask >> 5) & 1) == 1
}
func (bitmask SkinParts) Hat() bool {
	return ((bitmask >> 6) & 1) == 1
}

type clientSettings struct {
	locale language.Tag
	s      *packet.ClientSettings
}

// NewSettings wraps a client information packet into Settings.
func NewSettings(packet *packet.ClientSettings) Settings {
	return &clientSettings{
		locale: language.Make(strings.ReplaceAll(packet.Locale, "_", "-")),
		s:      packet,
	}
}

func (s *clientSettings) Locale() language.Tag { return s.locale }

func (s *clientSettings) ViewDistance() uint8 { return s.s.ViewDistance }

func (s *clientSettings) ChatMode() ChatMode {
	switch s.s.ChatVisibility {
	case 1:
		return CommandsOnly
	case 2:
		return Hidden
	default:
		return ShownChatMode
	}
}

func (s *clientSettings) ChatColors() bool { return s.s.ChatColors }

func (s *clientSettings) SkinParts() SkinParts { return SkinParts(s.s.SkinParts) }

func (s *clientSettings) MainHand() MainHand {
	if s.s.MainHand == 0 {
		return LeftMainHand
	}
	return RightMainHand
}

func (s *clientSettings) ClientListing() bool { return s.s.ClientListing }
