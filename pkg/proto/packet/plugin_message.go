package packet

import (
	"bytes"
	"io"
	"strings"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/util"
)

// PluginMessage is a custom payload packet in the config or play state.
type PluginMessage struct {
	Channel string
	Data    []byte
}

var _ proto.Packet = (*PluginMessage)(nil)

func (p *PluginMessage) Encode(_ *proto.PacketContext, wr io.Writer) error {
	err := util.WriteString(wr, p.Channel)
	if err != nil {
		return err
	}
	return util.WriteRawBytes(wr, p.Data)
}

func (p *PluginMessage) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	p.Channel, err = util.ReadStringMax(rd, 256)
	if err != nil {
		return err
	}
	p.Data, err = util.ReadRawBytes(rd)
	return
}

// BrandChannel is the channel the client and server exchange their brand on.
const BrandChannel = "minecraft:brand"

// IsBrandChannel indicates whether the packet is a brand message.
func (p *PluginMessage) IsBrandChannel() bool {
	return p.Channel == BrandChannel
}

// BrandString reads the brand string of a brand plugin message.
func (p *PluginMessage) BrandString() string {
	s, err := util.ReadString(bytes.NewReader(p.Data))
	if err != nil {
		return ""
	}
	return s
}

// RewriteMinecraftBrand appends the proxy suffix to a brand message.
func RewriteMinecraftBrand(message *PluginMessage) *PluginMessage {
	if message == nil || !message.IsBrandChannel() {
		return message
	}
	brand := message.BrandString()
	if brand == "" || strings.HasSuffix(brand, " (proxy)") {
		return message
	}
	buf := new(bytes.Buffer)
	_ = util.WriteString(buf, brand+" (proxy)")
	return &PluginMessage{
		Channel: message.Channel,
		Data:    buf.Bytes(),
	}
}
