package packet

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/util"
	"github.com/portalmc/portal/pkg/proto/version"
)

// ClientSettings carries the client's settings, sent as client
// information in the config state and again on changes during play.
type ClientSettings struct {
	Locale         string // may be empty
	ViewDistance   byte
	ChatVisibility int
	ChatColors     bool
	SkinParts      byte
	MainHand       int
	TextFiltering  bool // 1.17+
	ClientListing  bool // 1.18+, whether to show the player in server list pings
}

var _ proto.Packet = (*ClientSettings)(nil)

func (s *ClientSettings) Encode(c *proto.PacketContext, wr io.Writer) error {
	w := util.PanicWriter(wr)
	w.String(s.Locale)
	w.Byte(s.ViewDistance)
	w.VarInt(s.ChatVisibility)
	w.Bool(s.ChatColors)
	w.Byte(s.SkinParts)
	w.VarInt(s.MainHand)
	if c.Protocol.GreaterEqual(version.Minecraft_1_17) {
		w.Bool(s.TextFiltering)
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_18) {
		w.Bool(s.ClientListing)
	}
	return nil
}

func (s *ClientSettings) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	defer util.Recover(&err)
	r := util.PanicReader(rd)
	s.Locale = r.StringMax(16)
	s.ViewDistance = r.Byte()
	s.ChatVisibility = r.VarInt()
	s.ChatColors = r.Bool()
	s.SkinParts = r.Byte()
	s.MainHand = r.VarInt()
	if c.Protocol.GreaterEqual(version.Minecraft_1_17) {
		s.TextFiltering = r.Bool()
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_18) {
		s.ClientListing = r.Bool()
	}
	return nil
}
