package packet

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/util"
	"github.com/portalmc/portal/pkg/proto/version"
)

// DeathPosition is the optional last death location of the player.
type DeathPosition struct {
	DimensionName string
	Position      int64
}

func (d *DeathPosition) encode(wr io.Writer) error {
	err := util.WriteString(wr, d.DimensionName)
	if err != nil {
		return err
	}
	return util.WriteInt64(wr, d.Position)
}

func decodeDeathPosition(rd io.Reader) (*DeathPosition, error) {
	ok, err := util.ReadBool(rd)
	if err != nil || !ok {
		return nil, err
	}
	d := &DeathPosition{}
	d.DimensionName, err = util.ReadString(rd)
	if err != nil {
		return nil, err
	}
	d.Position, err = util.ReadInt64(rd)
	return d, err
}

func writeDeathPosition(wr io.Writer, d *DeathPosition) error {
	err := util.WriteBool(wr, d != nil)
	if err != nil || d == nil {
		return err
	}
	return d.encode(wr)
}

// JoinGame is the packet a backend sends to spawn the player into a
// world after the configuration state (1.20.2+ layout).
type JoinGame struct {
	EntityID            int
	Hardcore            bool
	DimensionNames      []string
	MaxPlayers          int
	ViewDistance        int
	SimulationDistance  int
	ReducedDebugInfo    bool
	EnableRespawnScreen bool
	DoLimitedCrafting   bool
	// DimensionType is an identifier below 1.20.5 and a registry id since.
	DimensionType    string
	DimensionTypeID  int
	DimensionName    string
	HashedSeed       int64
	Gamemode         int16
	PreviousGamemode int16
	IsDebug          bool
	IsFlat           bool
	DeathPosition    *DeathPosition
	PortalCooldown   int
	// EnforcesSecureChat exists since 1.20.5.
	EnforcesSecureChat bool
}

var _ proto.Packet = (*JoinGame)(nil)

func (j *JoinGame) Encode(c *proto.PacketContext, wr io.Writer) error {
	w := util.PanicWriter(wr)
	w.Int(j.EntityID)
	w.Bool(j.Hardcore)
	w.Strings(j.DimensionNames)
	w.VarInt(j.MaxPlayers)
	w.VarInt(j.ViewDistance)
	w.VarInt(j.SimulationDistance)
	w.Bool(j.ReducedDebugInfo)
	w.Bool(j.EnableRespawnScreen)
	w.Bool(j.DoLimitedCrafting)
	if c.Protocol.GreaterEqual(version.Minecraft_1_20_5) {
		w.VarInt(j.DimensionTypeID)
	} else {
		w.String(j.DimensionType)
	}
	w.String(j.DimensionName)
	w.Int64(j.HashedSeed)
	w.Byte(byte(j.Gamemode))
	w.Byte(byte(j.PreviousGamemode))
	w.Bool(j.IsDebug)
	w.Bool(j.IsFlat)
	if err := writeDeathPosition(wr, j.DeathPosition); err != nil {
		return err
	}
	w.VarInt(j.PortalCooldown)
	if c.Protocol.GreaterEqual(version.Minecraft_1_20_5) {
		w.Bool(j.EnforcesSecureChat)
	}
	return nil
}

func (j *JoinGame) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	defer util.Recover(&err)
	r := util.PanicReader(rd)
	j.EntityID = r.Int()
	j.Hardcore = r.Bool()
	j.DimensionNames = r.Strings()
	j.MaxPlayers = r.VarInt()
	j.ViewDistance = r.VarInt()
	j.SimulationDistance = r.VarInt()
	j.ReducedDebugInfo = r.Bool()
	j.EnableRespawnScreen = r.Bool()
	j.DoLimitedCrafting = r.Bool()
	if c.Protocol.GreaterEqual(version.Minecraft_1_20_5) {
		j.DimensionTypeID = r.VarInt()
	} else {
		j.DimensionType = r.String()
	}
	j.DimensionName = r.String()
	j.HashedSeed = r.Int64()
	j.Gamemode = int16(r.Byte())
	j.PreviousGamemode = int16(int8(r.Byte()))
	j.IsDebug = r.Bool()
	j.IsFlat = r.Bool()
	j.DeathPosition, err = decodeDeathPosition(rd)
	if err != nil {
		return err
	}
	j.PortalCooldown = r.VarInt()
	if c.Protocol.GreaterEqual(version.Minecraft_1_20_5) {
		j.EnforcesSecureChat = r.Bool()
	}
	return nil
}

// Respawn moves the player into another dimension or world.
type Respawn struct {
	DimensionType    string
	DimensionTypeID  int
	DimensionName    string
	HashedSeed       int64
	Gamemode         int16
	PreviousGamemode int16
	IsDebug          bool
	IsFlat           bool
	DataKept         byte
	DeathPosition    *DeathPosition
	PortalCooldown   int
}

var _ proto.Packet = (*Respawn)(nil)

// Flags for DataKept.
const (
	KeepAttributes byte = 0x01
	KeepMetadata   byte = 0x02
)

func (r *Respawn) Encode(c *proto.PacketContext, wr io.Writer) error {
	w := util.PanicWriter(wr)
	if c.Protocol.GreaterEqual(version.Minecraft_1_20_5) {
		w.VarInt(r.DimensionTypeID)
	} else {
		w.String(r.DimensionType)
	}
	w.String(r.DimensionName)
	w.Int64(r.HashedSeed)
	w.Byte(byte(r.Gamemode))
	w.Byte(byte(r.PreviousGamemode))
	w.Bool(r.IsDebug)
	w.Bool(r.IsFlat)
	w.Byte(r.DataKept)
	if err := writeDeathPosition(wr, r.DeathPosition); err != nil {
		return err
	}
	w.VarInt(r.PortalCooldown)
	return nil
}

func (r *Respawn) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	defer util.Recover(&err)
	p := util.PanicReader(rd)
	if c.Protocol.GreaterEqual(version.Minecraft_1_20_5) {
		r.DimensionTypeID = p.VarInt()
	} else {
		r.DimensionType = p.String()
	}
	r.DimensionName = p.String()
	r.HashedSeed = p.Int64()
	r.Gamemode = int16(p.Byte())
	r.PreviousGamemode = int16(int8(p.Byte()))
	r.IsDebug = p.Bool()
	r.IsFlat = p.Bool()
	r.DataKept = p.Byte()
	r.DeathPosition, err = decodeDeathPosition(rd)
	if err != nil {
		return err
	}
	r.PortalCooldown = p.VarInt()
	return nil
}

// RespawnFromJoinGame derives the Respawn matching a JoinGame.
func RespawnFromJoinGame(j *JoinGame) *Respawn {
	return &Respawn{
		DimensionType:    j.DimensionType,
		DimensionTypeID:  j.DimensionTypeID,
		DimensionName:    j.DimensionName,
		HashedSeed:       j.HashedSeed,
		Gamemode:         j.Gamemode,
		PreviousGamemode: j.PreviousGamemode,
		IsDebug:          j.IsDebug,
		IsFlat:           j.IsFlat,
		DeathPosition:    j.DeathPosition,
		PortalCooldown:   j.PortalCooldown,
	}
}
