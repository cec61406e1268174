package packet

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/util"
)

// UpdateTeams modes.
const (
	TeamModeCreate int = iota
	TeamModeRemove
	TeamModeUpdateInfo
	TeamModeAddEntities
	TeamModeRemoveEntities
)

// UpdateTeams creates, removes or updates a scoreboard team. Only the
// name and mode are decoded; the rest is kept verbatim so re-encoding
// is byte-identical.
type UpdateTeams struct {
	Name string
	Mode byte
	Rest []byte
}

var _ proto.Packet = (*UpdateTeams)(nil)

func (u *UpdateTeams) Encode(_ *proto.PacketContext, wr io.Writer) error {
	w := util.PanicWriter(wr)
	w.String(u.Name)
	w.Byte(u.Mode)
	return util.WriteRawBytes(wr, u.Rest)
}

func (u *UpdateTeams) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	defer util.Recover(&err)
	r := util.PanicReader(rd)
	u.Name = r.String()
	u.Mode = r.Byte()
	u.Rest, err = util.ReadRawBytes(rd)
	return err
}
