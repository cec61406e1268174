// Package chat holds the chat related packets and the component holder.
package chat

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/util"
)

// SystemChat is a clientbound chat message not tied to a player sender.
type SystemChat struct {
	Component *ComponentHolder
	// Overlay displays the message above the hotbar instead of in chat.
	Overlay bool
}

var _ proto.Packet = (*SystemChat)(nil)

func (p *SystemChat) Encode(c *proto.PacketContext, wr io.Writer) error {
	if err := p.Component.Write(wr, c.Protocol); err != nil {
		return err
	}
	return util.WriteBool(wr, p.Overlay)
}

func (p *SystemChat) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	p.Component, err = ReadComponentHolder(rd, c.Protocol)
	if err != nil {
		return err
	}
	p.Overlay, err = util.ReadBool(rd)
	return
}

// ChatCommand is a command typed by the client. Since 1.20.5 this
// packet carries only unsigned commands; signed ones travel as
// SignedChatCommand. Below 1.20.5 the signature fields are retained
// opaquely in Rest so a forwarded command stays byte identical.
type ChatCommand struct {
	Command string
	Rest    []byte
}

var _ proto.Packet = (*ChatCommand)(nil)

func (p *ChatCommand) Encode(_ *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteString(wr, p.Command); err != nil {
		return err
	}
	return util.WriteRawBytes(wr, p.Rest)
}

func (p *ChatCommand) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	p.Command, err = util.ReadStringMax(rd, 256)
	if err != nil {
		return err
	}
	p.Rest, err = util.ReadRawBytes(rd)
	return
}

// SignedChatCommand is a signed command of a 1.20.5+ client.
// The signature data is never inspected by the proxy.
type SignedChatCommand struct {
	Command string
	Rest    []byte
}

var _ proto.Packet = (*SignedChatCommand)(nil)

func (p *SignedChatCommand) Encode(_ *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteString(wr, p.Command); err != nil {
		return err
	}
	return util.WriteRawBytes(wr, p.Rest)
}

func (p *SignedChatCommand) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	p.Command, err = util.ReadStringMax(rd, 256)
	if err != nil {
		return err
	}
	p.Rest, err = util.ReadRawBytes(rd)
	return
}
