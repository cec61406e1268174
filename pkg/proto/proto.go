// Package proto holds the core types shared by the packet codec, the
// per-state packet registries and the connection pipeline.
package proto

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// Packet is a Minecraft protocol packet that knows how to encode and
// decode itself for a given protocol version and direction.
//
// Packets are held as pointers and must not be modified after being
// handed to a write queue; create a new packet instead.
type Packet interface {
	// Encode encodes the packet into the writer.
	Encode(c *PacketContext, wr io.Writer) error
	// Decode decodes the packet from the reader, expected to be called
	// on a packet freshly created by the registry.
	Decode(c *PacketContext, rd io.Reader) error
}

// PacketContext carries a decoded or to-be-encoded packet together
// with everything the codec knew about it.
type PacketContext struct {
	Direction Direction // The direction the packet is bound to.
	Protocol  Protocol  // The protocol version of the packet.
	PacketID  PacketID  // The ID of the packet.

	// Packet is the decoded packet, or nil if the packet id is not
	// registered for the direction, protocol and state it was read in.
	// Such unknown packets are forwarded as-is using Payload.
	Packet Packet

	// Payload is the unmodified packet frame as read from the wire,
	// including the packet id. May be nil for proxy-created packets
	// that were never read from a connection.
	Payload []byte

	// BytesRead is the number of bytes the packet frame took on the
	// wire, including the length prefix.
	BytesRead int
}

// ErrDecoderLeftBytes is returned by a PacketDecoder when the packet
// decoder did not read all of the packet's data.
var ErrDecoderLeftBytes = errors.New("decoder did not read all bytes of packet")

// PacketDecoder decodes packets from an underlying source and returns them with additional context.
type PacketDecoder interface {
	Decode() (*PacketContext, error)
}

// PacketEncoder encodes packets to an underlying destination.
type PacketEncoder interface {
	Encode(*PacketContext) (n int, err error)
}

// PacketWriter can write packets.
type PacketWriter interface {
	WritePacket(Packet) (n int, err error)
}

// KnownPacket indicates whether the packet id was registered and the
// packet decoded into a typed Packet.
func (c *PacketContext) KnownPacket() bool { return c != nil && c.Packet != nil }

func (c *PacketContext) String() string {
	return fmt.Sprintf("PacketContext{direction: %s, protocol: %s, knownPacket: %t, packetID: %s, packetType: %T, payloadLength: %d}",
		c.Direction, c.Protocol, c.KnownPacket(), c.PacketID, c.Packet, len(c.Payload))
}

// PacketID is the registry id of a packet within a state.
type PacketID int

func (id PacketID) String() string { return fmt.Sprintf("%#0x", int(id)) }

// Protocol is a protocol version number.
type Protocol int

func (p Protocol) String() string { return fmt.Sprintf("%d", int(p)) }

// Direction is the bound of a packet.
type Direction uint8

const (
	// ClientBound packets travel proxy/server -> client.
	ClientBound Direction = iota
	// ServerBound packets travel client/proxy -> server.
	ServerBound
)

func (d Direction) String() string {
	switch d {
	case ServerBound:
		return "ServerBound"
	case ClientBound:
		return "ClientBound"
	}
	return "UnknownBound"
}

// Version is a named protocol version.
type Version struct {
	Protocol
	// Names lists the game versions sharing this protocol number,
	// ordered from oldest to newest.
	Names []string
}

// FirstName returns the oldest game version name of this protocol.
func (v *Version) FirstName() string {
	if len(v.Names) == 0 {
		return v.Protocol.String()
	}
	return v.Names[0]
}

// LastName returns the newest game version name of this protocol.
func (v *Version) LastName() string {
	if len(v.Names) == 0 {
		return v.Protocol.String()
	}
	return v.Names[len(v.Names)-1]
}

func (v Version) String() string { return v.FirstName() }

// GreaterEqual is true when this Protocol is
// greater or equal than another Version's Protocol.
func (p Protocol) GreaterEqual(then *Version) bool {
	return p >= then.Protocol
}

// LowerEqual is true when this Protocol is
// lower or equal than another Version's Protocol.
func (p Protocol) LowerEqual(then *Version) bool {
	return p <= then.Protocol
}

// Lower is true when this Protocol is
// lower than another Version's Protocol.
func (p Protocol) Lower(then *Version) bool {
	return p < then.Protocol
}

// Greater is true when this Protocol is
// greater than another Version's Protocol.
func (p Protocol) Greater(then *Version) bool {
	return p > then.Protocol
}

// PacketType is the non-pointer reflect type of a packet.
type PacketType reflect.Type

// TypeOf returns the non-pointer reflect type of p.
func TypeOf(p Packet) PacketType {
	t := reflect.TypeOf(p)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// ShortPacketName strips the package path from the packet's type name.
func ShortPacketName(p Packet) string {
	s := fmt.Sprintf("%T", p)
	if i := strings.LastIndexByte(s, '.'); i != -1 {
		return s[i+1:]
	}
	return s
}
