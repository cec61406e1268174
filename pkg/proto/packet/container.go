package packet

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet/chat"
	"github.com/portalmc/portal/pkg/proto/util"
)

// OpenScreen opens a window on the client.
type OpenScreen struct {
	WindowID   int
	WindowType int
	Title      *chat.ComponentHolder
}

var _ proto.Packet = (*OpenScreen)(nil)

func (o *OpenScreen) Encode(c *proto.PacketContext, wr io.Writer) error {
	w := util.PanicWriter(wr)
	w.VarInt(o.WindowID)
	w.VarInt(o.WindowType)
	return o.Title.Write(wr, c.Protocol)
}

func (o *OpenScreen) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	defer util.Recover(&err)
	r := util.PanicReader(rd)
	o.WindowID = r.VarInt()
	o.WindowType = r.VarInt()
	o.Title, err = chat.ReadComponentHolder(rd, c.Protocol)
	return err
}

// CloseContainer closes the open window of the client.
type CloseContainer struct {
	WindowID byte
}

var _ proto.Packet = (*CloseContainer)(nil)

func (c *CloseContainer) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteByte(wr, c.WindowID)
}

func (c *CloseContainer) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	c.WindowID, err = util.ReadByte(rd)
	return
}
