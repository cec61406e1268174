package netmc

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/logr"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/codec"
	"github.com/portalmc/portal/pkg/util/errs"
)

// Reader reads packets from one side of a connection.
type Reader interface {
	// ReadPacket reads the next packet. ErrReadPacketRetry means the
	// packet could not be read but the connection is still usable, any
	// other error means it is broken and should be closed.
	ReadPacket() (*proto.PacketContext, error)
	// ReadBuffered drains the bytes still sitting in the read buffer.
	ReadBuffered() ([]byte, error)
	// SetRateLimits caps the inbound packet and byte rates.
	SetRateLimits(packetsPerSec, bytesPerSec int)
	StateChanger
}

// ErrReadPacketRetry is returned by ReadPacket when the reader should retry reading the next packet.
var ErrReadPacketRetry = errors.New("error reading packet, retry")

// NewReader returns a new packet reader.
func NewReader(conn net.Conn, direction proto.Direction, readTimeout time.Duration, log logr.Logger) Reader {
	readBuf := bufio.NewReader(conn)
	return &reader{
		c:           conn,
		readTimeout: readTimeout,
		log:         log.WithName("reader"),
		readBuf:     readBuf,
		Decoder:     codec.NewDecoder(readBuf, direction, log.V(2)),
	}
}

type reader struct {
	log         logr.Logger
	readTimeout time.Duration
	c           net.Conn // underlying connection
	readBuf     *bufio.Reader
	*codec.Decoder
}

func (r *reader) ReadPacket() (*proto.PacketContext, error) {
	// A zero timeout lets the peer idle forever (play state).
	if r.readTimeout > 0 {
		_ = r.c.SetReadDeadline(time.Now().Add(r.readTimeout))
	}

	packetCtx, err := r.Decode()
	if err != nil && !errors.Is(err, proto.ErrDecoderLeftBytes) { // left bytes are forwarded as is
		if r.handleReadErr(err) {
			r.log.V(1).Info("error reading packet, recovered", "error", err)
			return nil, ErrReadPacketRetry
		}
		r.log.V(1).Info("error reading packet, closing connection", "error", err)
		return nil, err
	}
	return packetCtx, nil
}

// handleReadErr sorts a read error into recoverable (retry the read)
// and unrecoverable (close the connection).
func (r *reader) handleReadErr(err error) (recoverable bool) {
	var silentErr *errs.SilentError
	if errors.As(err, &silentErr) {
		return false
	}
	if errors.Is(err, codec.ErrRateExceeded) || errors.Is(err, codec.ErrPacketTooLarge) {
		// Rate and size violations always cost the connection.
		return false
	}
	if errors.Is(err, syscall.EAGAIN) {
		return true
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		if netErr.Temporary() {
			return true
		} else if netErr.Timeout() {
			r.log.Error(err, "read timeout")
			return false
		} else if errs.IsConnClosedErr(netErr.Err) {
			return false
		}
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, context.Canceled) ||
		errors.Is(err, io.ErrNoProgress) || errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, io.ErrShortBuffer) || errors.Is(err, syscall.EBADF) ||
		strings.Contains(err.Error(), "use of closed file") {
		return false
	}
	r.log.Error(err, "error reading next packet, unrecoverable and closing connection")
	return false
}

func (r *reader) EnableEncryption(secret []byte) error {
	decryptReader, err := codec.NewDecryptReader(r.readBuf, secret)
	if err != nil {
		return err
	}
	r.Decoder.SetReader(decryptReader)
	return nil
}

func (r *reader) SetCompressionThreshold(threshold int) error {
	r.Decoder.SetCompressionThreshold(threshold)
	return nil
}

func (r *reader) ReadBuffered() ([]byte, error) {
	b := make([]byte, r.readBuf.Buffered())
	_, err := r.readBuf.Read(b)
	return b, err
}
