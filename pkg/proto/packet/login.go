package packet

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/util"
	"github.com/portalmc/portal/pkg/proto/version"
	"github.com/portalmc/portal/pkg/util/profile"
	"github.com/portalmc/portal/pkg/util/uuid"
)

// ServerLogin is the login start packet.
type ServerLogin struct {
	Username string
	// HolderID is the uuid the client claims for itself (1.19.3+,
	// mandatory since 1.20.2). Never trusted in online mode.
	HolderID uuid.UUID
}

var _ proto.Packet = (*ServerLogin)(nil)

const maxUsernameLen = 16

func (s *ServerLogin) Encode(c *proto.PacketContext, wr io.Writer) error {
	err := util.WriteString(wr, s.Username)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_20_2) {
		return util.WriteUUID(wr, s.HolderID)
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_19_3) {
		err = util.WriteBool(wr, s.HolderID != uuid.Nil)
		if err != nil {
			return err
		}
		if s.HolderID != uuid.Nil {
			return util.WriteUUID(wr, s.HolderID)
		}
	}
	return nil
}

func (s *ServerLogin) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	s.Username, err = util.ReadStringMax(rd, maxUsernameLen)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_20_2) {
		s.HolderID, err = util.ReadUUID(rd)
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_19_3) {
		ok, err := util.ReadBool(rd)
		if err != nil {
			return err
		}
		if ok {
			s.HolderID, err = util.ReadUUID(rd)
			return err
		}
	}
	return nil
}

// EncryptionRequest begins online-mode authentication.
type EncryptionRequest struct {
	ServerID    string
	PublicKey   []byte // DER encoded RSA public key
	VerifyToken []byte
	// ShouldAuthenticate tells 1.20.5+ clients whether to check in
	// with the session server.
	ShouldAuthenticate bool
}

var _ proto.Packet = (*EncryptionRequest)(nil)

func (e *EncryptionRequest) Encode(c *proto.PacketContext, wr io.Writer) error {
	err := util.WriteString(wr, e.ServerID)
	if err != nil {
		return err
	}
	err = util.WriteBytes(wr, e.PublicKey)
	if err != nil {
		return err
	}
	err = util.WriteBytes(wr, e.VerifyToken)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_20_5) {
		return util.WriteBool(wr, e.ShouldAuthenticate)
	}
	return nil
}

func (e *EncryptionRequest) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	e.ServerID, err = util.ReadStringMax(rd, 20)
	if err != nil {
		return err
	}
	e.PublicKey, err = util.ReadBytesLen(rd, 512)
	if err != nil {
		return err
	}
	e.VerifyToken, err = util.ReadBytesLen(rd, 128)
	if err != nil {
		return err
	}
	if c.Protocol.GreaterEqual(version.Minecraft_1_20_5) {
		e.ShouldAuthenticate, err = util.ReadBool(rd)
	}
	return err
}

// EncryptionResponse carries the RSA encrypted shared secret and verify token.
type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

var _ proto.Packet = (*EncryptionResponse)(nil)

func (e *EncryptionResponse) Encode(_ *proto.PacketContext, wr io.Writer) error {
	err := util.WriteBytes(wr, e.SharedSecret)
	if err != nil {
		return err
	}
	return util.WriteBytes(wr, e.VerifyToken)
}

func (e *EncryptionResponse) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	e.SharedSecret, err = util.ReadBytesLen(rd, 256)
	if err != nil {
		return err
	}
	e.VerifyToken, err = util.ReadBytesLen(rd, 256)
	return err
}

// ServerLoginSuccess completes the login phase.
type ServerLoginSuccess struct {
	UUID       uuid.UUID
	Username   string
	Properties []profile.Property
}

var _ proto.Packet = (*ServerLoginSuccess)(nil)

func (s *ServerLoginSuccess) Encode(c *proto.PacketContext, wr io.Writer) error {
	err := util.WriteUUID(wr, s.UUID)
	if err != nil {
		return err
	}
	err = util.WriteString(wr, s.Username)
	if err != nil {
		return err
	}
	err = util.WriteProperties(wr, s.Properties)
	if err != nil {
		return err
	}
	if strictErrorHandlingFlag(c.Protocol) {
		// Lenient error handling, the proxy may inject packets the
		// backend never declared.
		return util.WriteBool(wr, false)
	}
	return nil
}

func (s *ServerLoginSuccess) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	s.UUID, err = util.ReadUUID(rd)
	if err != nil {
		return err
	}
	s.Username, err = util.ReadStringMax(rd, maxUsernameLen)
	if err != nil {
		return err
	}
	s.Properties, err = util.ReadProperties(rd)
	if err != nil {
		return err
	}
	if strictErrorHandlingFlag(c.Protocol) {
		_, err = util.ReadBool(rd)
	}
	return err
}

// The strict error handling boolean only existed in 1.20.5/1.20.6.
func strictErrorHandlingFlag(protocol proto.Protocol) bool {
	return protocol.GreaterEqual(version.Minecraft_1_20_5) &&
		protocol.Lower(version.Minecraft_1_21)
}

// SetCompression enables frame compression above Threshold.
type SetCompression struct {
	Threshold int
}

var _ proto.Packet = (*SetCompression)(nil)

func (s *SetCompression) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteVarInt(wr, s.Threshold)
}

func (s *SetCompression) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	s.Threshold, err = util.ReadVarInt(rd)
	return
}

// LoginPluginMessage is a login phase plugin request.
type LoginPluginMessage struct {
	ID      int
	Channel string
	Data    []byte
}

var _ proto.Packet = (*LoginPluginMessage)(nil)

func (l *LoginPluginMessage) Encode(_ *proto.PacketContext, wr io.Writer) error {
	err := util.WriteVarInt(wr, l.ID)
	if err != nil {
		return err
	}
	err = util.WriteString(wr, l.Channel)
	if err != nil {
		return err
	}
	return util.WriteRawBytes(wr, l.Data)
}

func (l *LoginPluginMessage) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	l.ID, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	l.Channel, err = util.ReadStringMax(rd, 256)
	if err != nil {
		return err
	}
	l.Data, err = util.ReadRawBytes(rd)
	return err
}

// LoginPluginResponse answers a LoginPluginMessage.
type LoginPluginResponse struct {
	ID      int
	Success bool
	Data    []byte
}

var _ proto.Packet = (*LoginPluginResponse)(nil)

func (l *LoginPluginResponse) Encode(_ *proto.PacketContext, wr io.Writer) error {
	err := util.WriteVarInt(wr, l.ID)
	if err != nil {
		return err
	}
	err = util.WriteBool(wr, l.Success)
	if err != nil {
		return err
	}
	return util.WriteRawBytes(wr, l.Data)
}

func (l *LoginPluginResponse) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	l.ID, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	l.Success, err = util.ReadBool(rd)
	if err != nil {
		return err
	}
	l.Data, err = util.ReadRawBytes(rd)
	return err
}

// LoginAcknowledged moves the connection into the configuration state (1.20.2+).
type LoginAcknowledged struct{}

var _ proto.Packet = (*LoginAcknowledged)(nil)

func (l *LoginAcknowledged) Encode(_ *proto.PacketContext, _ io.Writer) error { return nil }
func (l *LoginAcknowledged) Decode(_ *proto.PacketContext, _ io.Reader) error { return nil }
