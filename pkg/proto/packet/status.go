package packet

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/util"
)

type StatusRequest struct{}

var _ proto.Packet = (*StatusRequest)(nil)

func (s *StatusRequest) Encode(_ *proto.PacketContext, _ io.Writer) error { return nil }
func (s *StatusRequest) Decode(_ *proto.PacketContext, _ io.Reader) error { return nil }

// StatusResponse carries the server list ping JSON.
type StatusResponse struct {
	Status string
}

var _ proto.Packet = (*StatusResponse)(nil)

func (s *StatusResponse) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteString(wr, s.Status)
}

func (s *StatusResponse) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	s.Status, err = util.ReadStringMax(rd, 65536)
	return
}

// StatusPing is echoed back to measure latency.
type StatusPing struct {
	RandomID int64
}

var _ proto.Packet = (*StatusPing)(nil)

func (s *StatusPing) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteInt64(wr, s.RandomID)
}

func (s *StatusPing) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	s.RandomID, err = util.ReadInt64(rd)
	return
}
