package packet

import (
	"fmt"
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/util"
)

// States the handshake can request to continue with.
const (
	StatusHandshakeIntent int = 1
	LoginHandshakeIntent  int = 2
	// TransferHandshakeIntent is sent by 1.20.5+ clients that were
	// transferred to this host by another server.
	TransferHandshakeIntent int = 3
)

type Handshake struct {
	ProtocolVersion int
	ServerAddress   string
	Port            int
	NextStatus      int
}

var _ proto.Packet = (*Handshake)(nil)

func (h *Handshake) Encode(_ *proto.PacketContext, wr io.Writer) error {
	err := util.WriteVarInt(wr, h.ProtocolVersion)
	if err != nil {
		return err
	}
	err = util.WriteString(wr, h.ServerAddress)
	if err != nil {
		return err
	}
	err = util.WriteInt16(wr, int16(h.Port))
	if err != nil {
		return err
	}
	return util.WriteVarInt(wr, h.NextStatus)
}

func (h *Handshake) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	h.ProtocolVersion, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	h.ServerAddress, err = util.ReadStringMax(rd, 255+forwardingAddressExtra)
	if err != nil {
		return err
	}
	port, err := util.ReadUint16(rd)
	if err != nil {
		return err
	}
	h.Port = int(port)
	h.NextStatus, err = util.ReadVarInt(rd)
	return err
}

// Extra space a BungeeCord-style forwarded handshake address may take
// for ip, undashed uuid and properties json.
const forwardingAddressExtra = 2048

func (h *Handshake) String() string {
	return fmt.Sprintf("Handshake{ProtocolVersion:%d,ServerAddress:%s,Port:%d,NextStatus:%d}",
		h.ProtocolVersion, h.ServerAddress, h.Port, h.NextStatus)
}
