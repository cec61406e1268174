package packet

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/util"
)

// KeepAlive must be echoed back by the receiving side.
type KeepAlive struct {
	RandomID int64
}

var _ proto.Packet = (*KeepAlive)(nil)

func (k *KeepAlive) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteInt64(wr, k.RandomID)
}

func (k *KeepAlive) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	k.RandomID, err = util.ReadInt64(rd)
	return
}
