package codec

import (
	"bytes"
	"compress/zlib"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/time/rate"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/state"
	"github.com/portalmc/portal/pkg/proto/util"
	"github.com/portalmc/portal/pkg/proto/version"
	"github.com/portalmc/portal/pkg/util/errs"
)

// MaxFrameSize is the hard cap on an inbound frame.
const MaxFrameSize = 2 * 1024 * 1024 // 2MiB

var (
	// ErrPacketTooLarge is returned when an inbound frame exceeds MaxFrameSize.
	ErrPacketTooLarge = errors.New("inbound packet frame exceeds size cap")
	// ErrRateExceeded is returned when a connection exceeds its
	// configured packet or byte rate limit.
	ErrRateExceeded = errors.New("connection exceeded rate limit")
)

// Decoder is a synchronized packet decoder.
type Decoder struct {
	log       logr.Logger
	hexDump   bool // for debugging
	direction proto.Direction

	mu                   sync.Mutex // Protects following fields and locked while reading a packet.
	rd                   io.Reader  // The underlying reader.
	registry             *state.ProtocolRegistry
	state                *state.Registry
	compression          bool
	compressionThreshold int
	zrd                  io.ReadCloser
	packetLimiter        *rate.Limiter // nil = unlimited
	byteLimiter          *rate.Limiter // nil = unlimited
}

var _ proto.PacketDecoder = (*Decoder)(nil)

func NewDecoder(r io.Reader, direction proto.Direction, log logr.Logger) *Decoder {
	return &Decoder{
		rd:        &fullReader{r}, // using the fullReader is essential here!
		direction: direction,
		state:     state.Handshake,
		registry:  state.FromDirection(direction, state.Handshake, version.MinimumVersion.Protocol),
		log:       log.WithName("decoder"),
		hexDump:   os.Getenv("HEXDUMP") == "true",
	}
}

type fullReader struct{ io.Reader }

func (fr *fullReader) Read(p []byte) (int, error) { return io.ReadFull(fr.Reader, p) }

func (d *Decoder) SetState(state *state.Registry) {
	d.mu.Lock()
	d.state = state
	d.setProtocol(d.registry.Protocol)
	d.mu.Unlock()
}

func (d *Decoder) SetProtocol(protocol proto.Protocol) {
	d.mu.Lock()
	d.setProtocol(protocol)
	d.mu.Unlock()
}

func (d *Decoder) setProtocol(protocol proto.Protocol) {
	d.registry = state.FromDirection(d.direction, d.state, protocol)
}

func (d *Decoder) SetReader(rd io.Reader) {
	d.mu.Lock()
	d.rd = rd
	d.mu.Unlock()
}

func (d *Decoder) SetCompressionThreshold(threshold int) {
	d.mu.Lock()
	d.compressionThreshold = threshold
	d.compression = threshold >= 0
	d.mu.Unlock()
}

// SetRateLimits caps the inbound packet and byte rates of the
// connection. A value <= 0 leaves the respective rate unlimited.
func (d *Decoder) SetRateLimits(packetsPerSec, bytesPerSec int) {
	d.mu.Lock()
	d.packetLimiter = newLimiter(packetsPerSec)
	d.byteLimiter = newLimiter(bytesPerSec)
	d.mu.Unlock()
}

func newLimiter(perSec int) *rate.Limiter {
	if perSec <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSec), perSec)
}

// Decode reads the next packet from the underlying reader.
// It blocks other calls to Decode until return.
func (d *Decoder) Decode() (ctx *proto.PacketContext, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readPacket()
}

func (d *Decoder) readPacket() (ctx *proto.PacketContext, err error) {
	if d.log.Enabled() { // check enabled for performance reason
		defer func() {
			if ctx != nil && ctx.KnownPacket() {
				d.log.Info("decoded packet", "context", ctx.String())
				if d.hexDump {
					fmt.Println(hex.Dump(ctx.Payload))
				}
			}
		}()
	}

	var retries int
retry:
	payload, n, err := d.readPayload()
	if err != nil {
		if errors.Is(err, ErrPacketTooLarge) || errors.Is(err, ErrRateExceeded) {
			return nil, err
		}
		return nil, errs.WrapSilent(err)
	}
	if err = d.allow(n); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		if retries > 10 {
			return nil, errors.New("got too many empty packets")
		}
		retries++
		// Got an empty packet, skipping it
		goto retry
	}
	ctx, err = d.decodePayload(payload)
	if err != nil {
		return nil, err
	}
	ctx.BytesRead = n
	return ctx, nil
}

// allow charges one packet of n wire bytes against the rate limits.
func (d *Decoder) allow(n int) error {
	if d.packetLimiter != nil && !d.packetLimiter.Allow() {
		return fmt.Errorf("%w: too many packets per second", ErrRateExceeded)
	}
	if d.byteLimiter != nil && !d.byteLimiter.AllowN(time.Now(), n) {
		return fmt.Errorf("%w: too many bytes per second", ErrRateExceeded)
	}
	return nil
}

// can eventually receive an empty payload which packet should be skipped
func (d *Decoder) readPayload() (payload []byte, n int, err error) {
	payload, n, err = readVarIntFrame(d.rd)
	if err != nil {
		return nil, n, err
	}
	if len(payload) == 0 {
		return
	}
	if d.compression { // Decoder expects compressed payload
		// buf contains: claimedUncompressedSize + (compressed packet id & data)
		buf := bytes.NewBuffer(payload)
		claimedUncompressedSize, n, err := util.ReadVarIntReturnN(buf)
		if err != nil {
			return nil, n, fmt.Errorf("error reading claimed uncompressed size varint: %w", err)
		}
		if claimedUncompressedSize <= 0 {
			if actualUncompressedSize := buf.Len(); actualUncompressedSize > d.compressionThreshold {
				return nil, n, fmt.Errorf("actual uncompressed size %d is greater than threshold %d",
					actualUncompressedSize, d.compressionThreshold)
			}
			// This message is not compressed
			return buf.Bytes(), n, nil
		}
		decompressed, err := d.decompress(claimedUncompressedSize, buf)
		return decompressed, n, err
	}
	return payload, n, nil
}

func readVarIntFrame(rd io.Reader) (payload []byte, n int, err error) {
	length, n, err := util.ReadVarIntReturnN(rd)
	if err != nil {
		return nil, n, fmt.Errorf("error reading packet frame length: %w", err)
	}
	if length == 0 {
		return // function caller should skip over empty packet
	}
	if length < 0 || length > MaxFrameSize {
		return nil, n, fmt.Errorf("%w: frame length %d", ErrPacketTooLarge, length)
	}

	payload = make([]byte, length)
	m, err := rd.Read(payload)
	if err != nil {
		return nil, n, fmt.Errorf("error reading frame payload: %w", err)
	}
	return payload, n + m, nil
}

func (d *Decoder) decompress(claimedUncompressedSize int, rd io.Reader) (decompressed []byte, err error) {
	if claimedUncompressedSize < d.compressionThreshold {
		return nil, errs.NewSilentErr("uncompressed size %d is less than set threshold %d",
			claimedUncompressedSize, d.compressionThreshold)
	}
	if claimedUncompressedSize > MaxFrameSize {
		return nil, fmt.Errorf("%w: uncompressed size %d", ErrPacketTooLarge, claimedUncompressedSize)
	}

	if d.zrd == nil {
		d.zrd, err = zlib.NewReader(rd)
		if err != nil {
			return nil, err
		}
	} else {
		// Reuse already allocated zlib reader
		if err = d.zrd.(zlib.Resetter).Reset(rd, nil); err != nil {
			return nil, fmt.Errorf("error reseting zlib reader: %w", err)
		}
	}

	decompressed = make([]byte, claimedUncompressedSize)
	_, err = io.ReadFull(d.zrd, decompressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing payload: %w", err)
	}
	return decompressed, d.zrd.Close()
}

// decodePayload takes p as the packet's payload that contains the
// packet id + data and decodes it against the current registry.
//
// ErrDecoderLeftBytes is returned when a known packet's decoder read
// fewer bytes than the payload contains; callers decide whether to
// forward or drop such packets.
func (d *Decoder) decodePayload(p []byte) (ctx *proto.PacketContext, err error) {
	ctx = &proto.PacketContext{
		Direction: d.direction,
		Protocol:  d.registry.Protocol,
		Payload:   p,
	}
	payload := bytes.NewReader(p)

	packetID, err := util.ReadVarInt(payload)
	if err != nil {
		return nil, err
	}
	ctx.PacketID = proto.PacketID(packetID)
	// Now the payload reader should only have the packet's actual data left.

	ctx.Packet = d.registry.CreatePacket(ctx.PacketID)
	if ctx.Packet == nil {
		// Packet id is unknown in this registry,
		// the payload is probably being forwarded as is.
		return
	}

	// Packet is known, decode data into it.
	err = util.RecoverFunc(func() error {
		return ctx.Packet.Decode(ctx, payload)
	})
	if err != nil {
		if errors.Is(err, io.EOF) {
			// payload was too short or packet decoder has a bug
			err = errors.Join(err, io.ErrUnexpectedEOF)
		}
		return ctx, errs.NewSilentErr("error decoding packet (type: %T, id: %s, protocol: %s, direction: %s, read: %d, unread: %d): %w",
			ctx.Packet, ctx.PacketID, ctx.Protocol, ctx.Direction, len(ctx.Payload)-payload.Len(), payload.Len(), err)
	}

	// Payload buffer should now be empty.
	if payload.Len() != 0 {
		// packet decoder did not read all the packet's data!
		d.log.V(1).Info("packet decoder did not read all of packet's data",
			"ctx", ctx,
			"decodedBytes", len(ctx.Payload),
			"unreadBytes", payload.Len())
		return ctx, proto.ErrDecoderLeftBytes
	}

	return
}
