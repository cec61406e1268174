package packet

import (
	"encoding/json"
	"io"

	"go.minekube.com/common/minecraft/component"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet/chat"
	"github.com/portalmc/portal/pkg/proto/util"
)

// Disconnect kicks the receiving client with a reason,
// in the config and play states.
type Disconnect struct {
	Reason *chat.ComponentHolder
}

var _ proto.Packet = (*Disconnect)(nil)

func (d *Disconnect) Encode(c *proto.PacketContext, wr io.Writer) error {
	return d.Reason.Write(wr, c.Protocol)
}

func (d *Disconnect) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	d.Reason, err = chat.ReadComponentHolder(rd, c.Protocol)
	return
}

// NewDisconnect creates a Disconnect packet for the protocol version.
func NewDisconnect(reason component.Component, protocol proto.Protocol) *Disconnect {
	return &Disconnect{
		Reason: chat.FromComponentProtocol(reason, protocol),
	}
}

// LoginDisconnect kicks the client during the login state,
// where the reason stays JSON encoded on all versions.
type LoginDisconnect struct {
	Reason json.RawMessage
}

var _ proto.Packet = (*LoginDisconnect)(nil)

func (d *LoginDisconnect) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteString(wr, string(d.Reason))
}

func (d *LoginDisconnect) Decode(_ *proto.PacketContext, rd io.Reader) error {
	s, err := util.ReadString(rd)
	d.Reason = json.RawMessage(s)
	return err
}

// NewLoginDisconnect creates a LoginDisconnect from a component.
func NewLoginDisconnect(reason component.Component) (*LoginDisconnect, error) {
	j, err := (&chat.ComponentHolder{Component: reason}).AsJson()
	if err != nil {
		return nil, err
	}
	return &LoginDisconnect{Reason: j}, nil
}

// NewLoginDisconnectUnchecked is NewLoginDisconnect falling back
// to a plain reason when the component cannot be marshaled.
func NewLoginDisconnectUnchecked(reason component.Component) *LoginDisconnect {
	d, err := NewLoginDisconnect(reason)
	if err != nil {
		return &LoginDisconnect{Reason: json.RawMessage(`{"text":"Disconnected"}`)}
	}
	return d
}
