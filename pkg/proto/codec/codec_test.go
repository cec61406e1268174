package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/state"
	"github.com/portalmc/portal/pkg/proto/version"
	"github.com/portalmc/portal/pkg/util/errs"
)

func TestEncodeDecode(t *testing.T) {
	buf := new(bytes.Buffer)
	enc := NewEncoder(buf, proto.ServerBound, logr.Discard())
	dec := NewDecoder(buf, proto.ServerBound, logr.Discard())

	handshake := &packet.Handshake{
		ProtocolVersion: int(version.Minecraft_1_21.Protocol),
		ServerAddress:   "play.example.com",
		Port:            25565,
		NextStatus:      packet.LoginHandshakeIntent,
	}
	_, err := enc.WritePacket(handshake)
	require.NoError(t, err)

	ctx, err := dec.Decode()
	require.NoError(t, err)
	require.True(t, ctx.KnownPacket())
	require.Equal(t, handshake, ctx.Packet)
}

func TestEncodeDecodeCompressed(t *testing.T) {
	for _, threshold := range []int{0, 1, 256} {
		buf := new(bytes.Buffer)
		enc := NewEncoder(buf, proto.ClientBound, logr.Discard())
		dec := NewDecoder(buf, proto.ClientBound, logr.Discard())
		for _, c := range []interface {
			SetState(*state.Registry)
			SetProtocol(proto.Protocol)
		}{enc, dec} {
			c.SetState(state.Status)
			c.SetProtocol(version.Minecraft_1_21.Protocol)
		}
		require.NoError(t, enc.SetCompression(threshold, -1))
		dec.SetCompressionThreshold(threshold)

		// One frame above and one below the threshold.
		long := &packet.StatusResponse{Status: strings.Repeat(`{"x":"y"}`, 100)}
		short := &packet.StatusPing{RandomID: 42}
		_, err := enc.WritePacket(long)
		require.NoError(t, err)
		_, err = enc.WritePacket(short)
		require.NoError(t, err)

		ctx, err := dec.Decode()
		require.NoError(t, err)
		require.Equal(t, long, ctx.Packet, "threshold %d", threshold)

		ctx, err = dec.Decode()
		require.NoError(t, err)
		require.Equal(t, short, ctx.Packet, "threshold %d", threshold)
	}
}

func TestDecodeRejectsOversizedFrame(t *testing.T) {
	buf := new(bytes.Buffer)
	// A frame length claiming more than the cap.
	buf.Write([]byte{0xff, 0xff, 0xff, 0x7f})
	dec := NewDecoder(buf, proto.ServerBound, logr.Discard())
	_, err := dec.Decode()
	require.ErrorIs(t, err, ErrPacketTooLarge)
}

func TestDecodeTruncatedFrameIsSilent(t *testing.T) {
	// The frame claims 5 payload bytes but only 1 follows. Malformed
	// client frames are wrapped silent to keep them out of the default log.
	buf := bytes.NewBuffer([]byte{0x05, 0x01})
	dec := NewDecoder(buf, proto.ServerBound, logr.Discard())
	_, err := dec.Decode()
	require.Error(t, err)
	var silent *errs.SilentError
	require.ErrorAs(t, err, &silent)
}

// writeRawFrames writes count minimal frames (an unknown 1-byte packet
// each) that pass decoding without error in the clientbound handshake
// registry.
func writeRawFrames(buf *bytes.Buffer, count int) {
	for i := 0; i < count; i++ {
		buf.Write([]byte{0x01, 0x00})
	}
}

func TestDecodePacketRateLimit(t *testing.T) {
	buf := new(bytes.Buffer)
	writeRawFrames(buf, 3)
	dec := NewDecoder(buf, proto.ClientBound, logr.Discard())
	dec.SetRateLimits(2, 0) // 2 packets budget, bytes unlimited

	for i := 0; i < 2; i++ {
		_, err := dec.Decode()
		require.NoError(t, err, "packet %d within budget", i)
	}
	_, err := dec.Decode()
	require.ErrorIs(t, err, ErrRateExceeded)
}

func TestDecodeByteRateLimit(t *testing.T) {
	buf := new(bytes.Buffer)
	writeRawFrames(buf, 2)
	dec := NewDecoder(buf, proto.ClientBound, logr.Discard())
	dec.SetRateLimits(0, 2) // each frame is 2 wire bytes

	_, err := dec.Decode()
	require.NoError(t, err)
	_, err = dec.Decode()
	require.ErrorIs(t, err, ErrRateExceeded)
}
