// Package netmc provides the Minecraft connection primitive shared by
// the client and backend sides of the proxy.
package netmc

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"go.uber.org/atomic"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet"
	"github.com/portalmc/portal/pkg/proto/state"
	"github.com/portalmc/portal/pkg/proto/version"
	"github.com/portalmc/portal/pkg/util/errs"
)

// MinecraftConn is one end of a Minecraft protocol connection, either
// to a client or to a backend server. A closed connection cannot be
// reused.
type MinecraftConn interface {
	// Context returns the connection's context.
	// It is canceled when the connection closes and may be used to
	// attach further values to the connection.
	Context() context.Context
	// Close closes the connection and runs SessionHandler.Disconnected.
	// Calling it again after the first close is a no-op.
	Close() error

	// State returns the connection's current protocol state.
	State() *state.Registry
	// Protocol returns the connection's protocol version.
	Protocol() proto.Protocol
	// RemoteAddr returns the address of the other end.
	RemoteAddr() net.Addr
	// LocalAddr returns the address of this end.
	LocalAddr() net.Addr
	// SessionHandler returns the handler currently receiving packets.
	SessionHandler() SessionHandler
	// SetSessionHandler swaps the packet handler, running Deactivated
	// on the previous handler and Activated on the new one.
	SetSessionHandler(SessionHandler)

	StateChanger
	PacketWriter
}

// SessionHandler receives the packets read from the associated
// connection. Connections move through protocol states and each state
// handles packets differently, so each state brings its own handler.
type SessionHandler interface {
	HandlePacket(pc *proto.PacketContext) // Handles a known or unknown incoming packet.
	Disconnected()                        // Tears the session down when the connection closes.

	Activated()   // The connection is now managed by this handler.
	Deactivated() // The connection is no longer managed by this handler.
}

// PacketWriter writes packets to the underlying connection.
type PacketWriter interface {
	// WritePacket buffers the packet and flushes the whole
	// write buffer. Any error closes the connection.
	WritePacket(p proto.Packet) (err error)
	// Write buffers the pre-encoded payload and flushes
	// the whole write buffer.
	Write(payload []byte) (err error)

	// BufferPacket encodes a packet into the write buffer without flushing.
	BufferPacket(packet proto.Packet) (err error)
	// BufferPayload writes payload (packet id + data) into the write buffer.
	BufferPayload(payload []byte) (err error)
	// Flush writes out the buffered data.
	Flush() error
}

// StateChanger mutates the protocol state of a connection.
type StateChanger interface {
	// SetProtocol switches the protocol version.
	SetProtocol(proto.Protocol)
	// SetState switches the protocol state.
	SetState(state *state.Registry)
	// SetCompressionThreshold enables compression for packets of at
	// least threshold bytes. Send packet.SetCompression first.
	SetCompressionThreshold(threshold int) error
	// EnableEncryption starts encrypting both directions
	// with the negotiated shared secret.
	EnableEncryption(secret []byte) error
}

// Closed reports whether the connection is closed.
func Closed(c interface{ Context() context.Context }) bool {
	return c.Context().Err() != nil
}

// ErrClosedConn indicates a connection is already closed.
var ErrClosedConn = errors.New("connection is closed")

// NewMinecraftConn wraps base into a MinecraftConn. The returned func
// runs the blocking read loop and must be started by the caller.
func NewMinecraftConn(
	ctx context.Context,
	base net.Conn,
	direction proto.Direction,
	readTimeout time.Duration,
	writeTimeout time.Duration,
	compressionLevel int,
) (conn MinecraftConn, startReadLoop func()) {
	// For a client connection the proxy reads server bound packets and
	// writes client bound ones. A backend connection is the reverse.
	in, out, logName := proto.ServerBound, proto.ClientBound, "client"
	if direction == proto.ClientBound {
		in, out, logName = proto.ClientBound, proto.ServerBound, "server"
	}

	log := logr.FromContextOrDiscard(ctx).WithName(logName)
	ctx, cancel := context.WithCancel(logr.NewContext(ctx, log))
	c := &minecraftConn{
		log:       log,
		c:         base,
		ctx:       ctx,
		cancelCtx: cancel,
		rd:        NewReader(base, in, readTimeout, log),
		wr:        NewWriter(base, out, writeTimeout, compressionLevel, log),
		state:     state.Handshake,
		protocol:  version.MinimumVersion.Protocol,
	}
	return c, c.startReadLoop
}

type minecraftConn struct {
	c   net.Conn
	log logr.Logger

	rd Reader
	wr Writer

	ctx             context.Context // canceled on close
	cancelCtx       context.CancelFunc
	closeOnce       sync.Once
	knownDisconnect atomic.Bool // true when the disconnect needs no logging

	protocol proto.Protocol

	mu    sync.RWMutex // Protects following fields
	state *state.Registry

	sessionHandlerMu struct {
		sync.RWMutex
		SessionHandler
	}
}

// startReadLoop reads packets until the connection dies and feeds them
// to the current SessionHandler. The connection is closed on return.
func (c *minecraftConn) startReadLoop() {
	defer func() { _ = c.closeKnown(false) }()

	next := func() bool {
		packetCtx, err := c.rd.ReadPacket()
		if err != nil {
			if errors.Is(err, ErrReadPacketRetry) {
				// Transient decode failure, back off briefly.
				time.Sleep(time.Millisecond * 5)
				return true
			}
			return false
		}
		c.SessionHandler().HandlePacket(packetCtx)
		return true
	}

	// The nested loops keep the defer/recover outside the hot path
	// while still resuming reads after a handler panic.
	cond := func() bool { return !Closed(c) && next() }
	loop := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				c.log.Error(nil, "recovered panic in packets read loop", "panic", r)
				ok = true
			}
		}()
		for cond() {
		}
		return false
	}
	for loop() {
	}
}

func (c *minecraftConn) Context() context.Context { return c.ctx }
func (c *minecraftConn) RemoteAddr() net.Addr     { return c.c.RemoteAddr() }
func (c *minecraftConn) LocalAddr() net.Addr      { return c.c.LocalAddr() }
func (c *minecraftConn) Protocol() proto.Protocol { return c.protocol }

func (c *minecraftConn) WritePacket(p proto.Packet) (err error) {
	if Closed(c) {
		return ErrClosedConn
	}
	defer func() { c.closeOnErr(err) }()
	if err = c.BufferPacket(p); err != nil {
		return err
	}
	return c.Flush()
}

func (c *minecraftConn) Write(payload []byte) (err error) {
	if Closed(c) {
		return ErrClosedConn
	}
	defer func() { c.closeOnErr(err) }()
	if _, err = c.wr.Write(payload); err != nil {
		return err
	}
	return c.Flush()
}

func (c *minecraftConn) BufferPacket(packet proto.Packet) (err error) {
	if Closed(c) {
		return ErrClosedConn
	}
	defer func() { c.closeOnErr(err) }()
	_, err = c.wr.WritePacket(packet)
	return err
}

func (c *minecraftConn) BufferPayload(payload []byte) (err error) {
	if Closed(c) {
		return ErrClosedConn
	}
	defer func() { c.closeOnErr(err) }()
	_, err = c.wr.Write(payload)
	return err
}

func (c *minecraftConn) Flush() error {
	err := c.wr.Flush()
	if err != nil {
		c.closeOnErr(err)
	}
	return err
}

func (c *minecraftConn) closeOnErr(err error) {
	if err == nil {
		return
	}
	_ = c.Close()
	if err == ErrClosedConn {
		return
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && errs.IsConnClosedErr(opErr.Err) {
		return // a closed pipe is not worth a log line
	}
	c.log.V(1).Info("error writing packet, closing connection", "err", err)
}

func (c *minecraftConn) Close() error {
	return c.closeKnown(true)
}

func (c *minecraftConn) closeKnown(markKnown bool) (err error) {
	alreadyClosed := true
	c.closeOnce.Do(func() {
		alreadyClosed = false
		if markKnown {
			c.knownDisconnect.Store(true)
		}

		c.cancelCtx()
		err = c.c.Close()

		if sh := c.SessionHandler(); sh != nil {
			sh.Disconnected()

			if p, ok := sh.(interface{ PlayerLog() logr.Logger }); ok && !c.knownDisconnect.Load() {
				p.PlayerLog().Info("player has disconnected", "sessionHandler", fmt.Sprintf("%T", sh))
			}
		}
	})
	if alreadyClosed {
		err = ErrClosedConn
	}
	return err
}

// CloseWith writes the packet before closing the connection. The
// disconnect is marked known so it is not logged as unexpected.
func CloseWith(c MinecraftConn, packet proto.Packet) (err error) {
	if Closed(c) {
		return ErrClosedConn
	}
	defer func() {
		err = c.Close()
	}()
	if mc, ok := c.(*minecraftConn); ok {
		mc.knownDisconnect.Store(true)
	}
	_ = c.WritePacket(packet)
	return
}

// KnownDisconnect reports whether the connection was or will be closed expectedly.
func KnownDisconnect(c MinecraftConn) bool {
	if mc, ok := c.(*minecraftConn); ok {
		return mc.knownDisconnect.Load()
	}
	return false
}

// CloseUnknown closes the connection for an unexpected disconnect.
// Use MinecraftConn.Close when the disconnect is expected and
// should not be logged.
func CloseUnknown(c MinecraftConn) error {
	if mc, ok := c.(*minecraftConn); ok {
		return mc.closeKnown(false)
	}
	return c.Close()
}

func (c *minecraftConn) SetProtocol(protocol proto.Protocol) {
	c.protocol = protocol
	c.rd.SetProtocol(protocol)
	c.wr.SetProtocol(protocol)
}

func (c *minecraftConn) State() *state.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *minecraftConn) SetState(state *state.Registry) {
	c.mu.Lock()
	c.state = state
	c.rd.SetState(state)
	c.wr.SetState(state)
	c.mu.Unlock()
}

func (c *minecraftConn) SessionHandler() SessionHandler {
	c.sessionHandlerMu.RLock()
	defer c.sessionHandlerMu.RUnlock()
	return c.sessionHandlerMu.SessionHandler
}

func (c *minecraftConn) SetSessionHandler(handler SessionHandler) {
	c.sessionHandlerMu.Lock()
	defer c.sessionHandlerMu.Unlock()
	if c.sessionHandlerMu.SessionHandler != nil {
		c.sessionHandlerMu.SessionHandler.Deactivated()
	}
	c.sessionHandlerMu.SessionHandler = handler
	handler.Activated()
}

func (c *minecraftConn) SetCompressionThreshold(threshold int) error {
	c.log.V(1).Info("update compression", "threshold", threshold)
	if err := c.rd.SetCompressionThreshold(threshold); err != nil {
		return err
	}
	return c.wr.SetCompressionThreshold(threshold)
}

func (c *minecraftConn) EnableEncryption(secret []byte) error {
	if err := c.rd.EnableEncryption(secret); err != nil {
		return err
	}
	return c.wr.EnableEncryption(secret)
}

// SetRateLimits caps the inbound packet and byte rates of the connection.
func SetRateLimits(c MinecraftConn, packetsPerSec, bytesPerSec int) {
	if mc, ok := c.(*minecraftConn); ok {
		mc.rd.SetRateLimits(packetsPerSec, bytesPerSec)
	}
}

// SendKeepAlive sends a keep-alive to a connection in the play state
// to hold off a client timeout during longer proxy-side work.
func SendKeepAlive(c interface {
	State() *state.Registry
	WritePacket(proto.Packet) error
}) error {
	if c.State() == state.Play {
		return c.WritePacket(&packet.KeepAlive{
			RandomID: int64(randomUint64()),
		})
	}
	return nil
}

func randomUint64() uint64 {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return binary.LittleEndian.Uint64(buf)
}
