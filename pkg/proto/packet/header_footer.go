package packet

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet/chat"
)

// HeaderAndFooter sets the player list header and footer.
type HeaderAndFooter struct {
	Header *chat.ComponentHolder
	Footer *chat.ComponentHolder
}

var _ proto.Packet = (*HeaderAndFooter)(nil)

func (h *HeaderAndFooter) Encode(c *proto.PacketContext, wr io.Writer) error {
	if err := h.Header.Write(wr, c.Protocol); err != nil {
		return err
	}
	return h.Footer.Write(wr, c.Protocol)
}

func (h *HeaderAndFooter) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	h.Header, err = chat.ReadComponentHolder(rd, c.Protocol)
	if err != nil {
		return err
	}
	h.Footer, err = chat.ReadComponentHolder(rd, c.Protocol)
	return
}
