package codec

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-logr/logr"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/state"
	"github.com/portalmc/portal/pkg/proto/util"
	"github.com/portalmc/portal/pkg/proto/version"
)

// Encoder is a synchronized packet encoder.
type Encoder struct {
	direction proto.Direction
	log       logr.Logger
	hexDump   bool // for debugging

	mu          sync.Mutex // Protects following fields
	wr          io.Writer  // encoded frames end up here
	registry    *state.ProtocolRegistry
	state       *state.Registry
	compression struct {
		enabled   bool
		threshold int // No compression if <= 0
		writer    *zlib.Writer
	}
}

var _ proto.PacketWriter = (*Encoder)(nil)

func NewEncoder(w io.Writer, direction proto.Direction, log logr.Logger) *Encoder {
	return &Encoder{
		log:       log.WithName("encoder"),
		hexDump:   os.Getenv("HEXDUMP") == "true",
		wr:        w,
		direction: direction,
		registry:  state.FromDirection(direction, state.Handshake, version.MinimumVersion.Protocol),
		state:     state.Handshake,
	}
}

// Direction returns the encoder's direction.
func (e *Encoder) Direction() proto.Direction {
	return e.direction
}

func (e *Encoder) WritePacket(packet proto.Packet) (n int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	packetID, found := e.registry.PacketID(packet)
	if !found {
		return n, fmt.Errorf("packet id for type %T in protocol %s not registered in the %s %s state registry",
			packet, e.registry.Protocol, e.direction, e.state)
	}

	buf, release := getBuf()
	defer release()

	_ = util.WriteVarInt(buf, int(packetID))

	ctx := &proto.PacketContext{
		Direction: e.direction,
		Protocol:  e.registry.Protocol,
		PacketID:  packetID,
		Packet:    packet,
	}

	if err = util.RecoverFunc(func() error {
		return packet.Encode(ctx, buf)
	}); err != nil {
		return
	}

	if e.log.Enabled() { // skip the String() calls when disabled
		e.log.Info("encoded packet", "context", ctx.String(), "bytes", buf.Len())
		if e.hexDump {
			fmt.Println(hex.Dump(buf.Bytes()))
		}
	}

	return e.writeBuf(buf) // packet id + data
}

// Write frames payload and writes it to the underlying writer.
// The payload must be the plain packet id VarInt followed by the
// packet's data, neither compressed nor encrypted yet.
func (e *Encoder) Write(payload []byte) (n int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writeBuf(bytes.NewBuffer(payload))
}

func (e *Encoder) writeBuf(payload *bytes.Buffer) (n int, err error) {
	if e.compression.enabled {
		return e.writeCompressed(payload)
	}
	// frame = length + payload
	if n, err = util.WriteVarIntN(e.wr, payload.Len()); err != nil {
		return n, err
	}
	m, err := payload.WriteTo(e.wr)
	return int(m) + n, err
}

func (e *Encoder) writeCompressed(payload *bytes.Buffer) (n int, err error) {
	uncompressedSize := payload.Len()
	if uncompressedSize < e.compression.threshold {
		// Below the threshold the data stays uncompressed and a zero
		// data length marks it as such.
		n, err = util.WriteVarIntN(e.wr, uncompressedSize+1)
		if err != nil {
			return n, err
		}
		n2, err := util.WriteVarIntN(e.wr, 0)
		if err != nil {
			return n + n2, err
		}
		n3, err := payload.WriteTo(e.wr)
		return n + n2 + int(n3), err
	}

	// At or above the threshold: frame = length + data length + deflated(id + data).
	compressed, release := getBuf()
	defer release()

	if err = util.WriteVarInt(compressed, uncompressedSize); err != nil {
		return 0, err
	}
	if _, err = e.compress(payload.Bytes(), compressed); err != nil {
		return 0, err
	}
	if n, err = util.WriteVarIntN(e.wr, compressed.Len()); err != nil {
		return n, err
	}
	m, err := compressed.WriteTo(e.wr)
	return n + int(m), err
}

func (e *Encoder) compress(payload []byte, w io.Writer) (n int, err error) {
	e.compression.writer.Reset(w)
	n, err = e.compression.writer.Write(payload)
	if err != nil {
		return n, err
	}
	return n, e.compression.writer.Close()
}

func (e *Encoder) SetCompression(threshold, level int) (err error) {
	e.mu.Lock()
	e.compression.threshold = threshold
	e.compression.enabled = threshold >= 0
	if e.compression.enabled {
		e.compression.writer, err = zlib.NewWriterLevel(e.wr, level)
	}
	e.mu.Unlock()
	return
}

func (e *Encoder) SetProtocol(protocol proto.Protocol) {
	e.mu.Lock()
	e.setProtocol(protocol)
	e.mu.Unlock()
}

func (e *Encoder) setProtocol(protocol proto.Protocol) {
	e.registry = state.FromDirection(e.direction, e.state, protocol)
}

func (e *Encoder) SetState(state *state.Registry) {
	e.mu.Lock()
	e.state = state
	e.setProtocol(e.registry.Protocol)
	e.mu.Unlock()
}

func (e *Encoder) SetWriter(w io.Writer) {
	e.mu.Lock()
	e.wr = w
	e.mu.Unlock()
}

// Sync runs fn while holding the encoder's
// lock, blocking all writes until it returns.
func (e *Encoder) Sync(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn()
}
