package packet

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/util"
)

// CookieRequest asks the client for a stored cookie (1.20.5+);
// forwarded verbatim.
type CookieRequest struct {
	Data []byte
}

var _ proto.Packet = (*CookieRequest)(nil)

func (c *CookieRequest) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteRawBytes(wr, c.Data)
}

func (c *CookieRequest) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	c.Data, err = util.ReadRawBytes(rd)
	return
}

// CookieResponse answers a CookieRequest; forwarded verbatim.
type CookieResponse struct {
	Data []byte
}

var _ proto.Packet = (*CookieResponse)(nil)

func (c *CookieResponse) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteRawBytes(wr, c.Data)
}

func (c *CookieResponse) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	c.Data, err = util.ReadRawBytes(rd)
	return
}

// StoreCookie asks the client to store a cookie (1.20.5+); forwarded
// verbatim.
type StoreCookie struct {
	Data []byte
}

var _ proto.Packet = (*StoreCookie)(nil)

func (s *StoreCookie) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteRawBytes(wr, s.Data)
}

func (s *StoreCookie) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	s.Data, err = util.ReadRawBytes(rd)
	return
}
