package packet

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet/chat"
	"github.com/portalmc/portal/pkg/proto/util"
)

// TabCompleteRequest asks for command suggestions at the cursor.
type TabCompleteRequest struct {
	TransactionID int
	Command       string
}

var _ proto.Packet = (*TabCompleteRequest)(nil)

func (t *TabCompleteRequest) Encode(_ *proto.PacketContext, wr io.Writer) error {
	err := util.WriteVarInt(wr, t.TransactionID)
	if err != nil {
		return err
	}
	return util.WriteString(wr, t.Command)
}

func (t *TabCompleteRequest) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	t.TransactionID, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	t.Command, err = util.ReadStringMax(rd, 32500)
	return
}

// TabCompleteOffer is one suggestion of a TabCompleteResponse.
type TabCompleteOffer struct {
	Text    string
	Tooltip *chat.ComponentHolder // nil-able
}

// TabCompleteResponse answers a TabCompleteRequest.
type TabCompleteResponse struct {
	TransactionID int
	Start         int
	Length        int
	Offers        []TabCompleteOffer
}

var _ proto.Packet = (*TabCompleteResponse)(nil)

func (t *TabCompleteResponse) Encode(c *proto.PacketContext, wr io.Writer) error {
	w := util.PanicWriter(wr)
	w.VarInt(t.TransactionID)
	w.VarInt(t.Start)
	w.VarInt(t.Length)
	w.VarInt(len(t.Offers))
	for _, offer := range t.Offers {
		w.String(offer.Text)
		w.Bool(offer.Tooltip != nil)
		if offer.Tooltip != nil {
			if err := offer.Tooltip.Write(wr, c.Protocol); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *TabCompleteResponse) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	defer util.Recover(&err)
	r := util.PanicReader(rd)
	t.TransactionID = r.VarInt()
	t.Start = r.VarInt()
	t.Length = r.VarInt()
	count := r.VarInt()
	for i := 0; i < count; i++ {
		offer := TabCompleteOffer{Text: r.String()}
		if r.Bool() {
			offer.Tooltip, err = chat.ReadComponentHolder(rd, c.Protocol)
			if err != nil {
				return err
			}
		}
		t.Offers = append(t.Offers, offer)
	}
	return nil
}
