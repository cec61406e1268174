package packet

import (
	"fmt"
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet/chat"
	"github.com/portalmc/portal/pkg/proto/util"
	"github.com/portalmc/portal/pkg/util/uuid"
)

// BossBar actions.
const (
	BossBarActionAdd int = iota
	BossBarActionRemove
	BossBarActionUpdateHealth
	BossBarActionUpdateTitle
	BossBarActionUpdateStyle
	BossBarActionUpdateFlags
)

// BossBar adds, removes or updates a boss bar of the client.
type BossBar struct {
	ID      uuid.UUID
	Action  int
	Title   *chat.ComponentHolder // action add, update title
	Health  float32               // action add, update health
	Color   int                   // action add, update style
	Overlay int                   // action add, update style
	Flags   byte                  // action add, update flags
}

var _ proto.Packet = (*BossBar)(nil)

func (b *BossBar) Encode(c *proto.PacketContext, wr io.Writer) error {
	w := util.PanicWriter(wr)
	w.UUID(b.ID)
	w.VarInt(b.Action)
	switch b.Action {
	case BossBarActionAdd:
		if err := b.Title.Write(wr, c.Protocol); err != nil {
			return err
		}
		w.Float32(b.Health)
		w.VarInt(b.Color)
		w.VarInt(b.Overlay)
		w.Byte(b.Flags)
	case BossBarActionRemove:
	case BossBarActionUpdateHealth:
		w.Float32(b.Health)
	case BossBarActionUpdateTitle:
		if err := b.Title.Write(wr, c.Protocol); err != nil {
			return err
		}
	case BossBarActionUpdateStyle:
		w.VarInt(b.Color)
		w.VarInt(b.Overlay)
	case BossBarActionUpdateFlags:
		w.Byte(b.Flags)
	default:
		return fmt.Errorf("unknown boss bar action %d", b.Action)
	}
	return nil
}

func (b *BossBar) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	defer util.Recover(&err)
	r := util.PanicReader(rd)
	b.ID = r.UUID()
	b.Action = r.VarInt()
	switch b.Action {
	case BossBarActionAdd:
		b.Title, err = chat.ReadComponentHolder(rd, c.Protocol)
		if err != nil {
			return err
		}
		b.Health = r.Float32()
		b.Color = r.VarInt()
		b.Overlay = r.VarInt()
		b.Flags = r.Byte()
	case BossBarActionRemove:
	case BossBarActionUpdateHealth:
		b.Health = r.Float32()
	case BossBarActionUpdateTitle:
		b.Title, err = chat.ReadComponentHolder(rd, c.Protocol)
		if err != nil {
			return err
		}
	case BossBarActionUpdateStyle:
		b.Color = r.VarInt()
		b.Overlay = r.VarInt()
	case BossBarActionUpdateFlags:
		b.Flags = r.Byte()
	default:
		return fmt.Errorf("unknown boss bar action %d", b.Action)
	}
	return nil
}
