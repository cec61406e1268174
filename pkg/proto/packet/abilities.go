package packet

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/util"
)

// PlayerAbilities sets the client's ability flags.
type PlayerAbilities struct {
	Flags       byte
	FlyingSpeed float32
	FieldOfView float32
}

var _ proto.Packet = (*PlayerAbilities)(nil)

func (p *PlayerAbilities) Encode(_ *proto.PacketContext, wr io.Writer) error {
	w := util.PanicWriter(wr)
	w.Byte(p.Flags)
	w.Float32(p.FlyingSpeed)
	w.Float32(p.FieldOfView)
	return nil
}

func (p *PlayerAbilities) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	defer util.Recover(&err)
	r := util.PanicReader(rd)
	p.Flags = r.Byte()
	p.FlyingSpeed = r.Float32()
	p.FieldOfView = r.Float32()
	return nil
}
