package util

import (
	"io"

	"github.com/Tnze/go-mc/nbt"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/version"
)

// BinaryTag is a raw binary tag as read from the wire.
type BinaryTag = nbt.RawMessage

// ReadBinaryTag reads a binary tag in the encoding of the protocol version.
// Since 1.20.2 the network encoding drops the root tag name.
func ReadBinaryTag(rd io.Reader, protocol proto.Protocol) (BinaryTag, error) {
	dec := nbt.NewDecoder(rd)
	dec.NetworkFormat(protocol.GreaterEqual(version.Minecraft_1_20_2))
	var t BinaryTag
	if _, err := dec.Decode(&t); err != nil {
		return t, err
	}
	return t, nil
}

// WriteBinaryTag writes a binary tag in the encoding of the protocol version.
func WriteBinaryTag(wr io.Writer, protocol proto.Protocol, t BinaryTag) error {
	if err := WriteByte(wr, byte(t.Type)); err != nil {
		return err
	}
	if protocol.Lower(version.Minecraft_1_20_2) {
		// Empty root tag name.
		if err := WriteUint16(wr, 0); err != nil {
			return err
		}
	}
	_, err := wr.Write(t.Data)
	return err
}
