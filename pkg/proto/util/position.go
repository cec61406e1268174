package util

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/version"
)

// Position is a packed block position.
type Position struct {
	X, Y, Z int
}

// ReadPosition reads a position in the bit layout of the protocol version.
// 1.14+ packs as x(26)z(26)y(12), older versions as x(26)y(12)z(26).
func ReadPosition(rd io.Reader, protocol proto.Protocol) (Position, error) {
	val, err := ReadInt64(rd)
	if err != nil {
		return Position{}, err
	}
	x := int(val >> 38)
	var y, z int
	if protocol.GreaterEqual(version.Minecraft_1_14) {
		y = int(val << 52 >> 52)
		z = int(val << 26 >> 38)
	} else {
		y = int(val << 26 >> 52)
		z = int(val << 38 >> 38)
	}
	return Position{X: x, Y: y, Z: z}, nil
}

// WritePosition writes a position in the bit layout of the protocol version.
func WritePosition(wr io.Writer, protocol proto.Protocol, pos Position) error {
	var val int64
	if protocol.GreaterEqual(version.Minecraft_1_14) {
		val = (int64(pos.X)&0x3FFFFFF)<<38 | (int64(pos.Z)&0x3FFFFFF)<<12 | int64(pos.Y)&0xFFF
	} else {
		val = (int64(pos.X)&0x3FFFFFF)<<38 | (int64(pos.Y)&0xFFF)<<26 | int64(pos.Z)&0x3FFFFFF
	}
	return WriteInt64(wr, val)
}
