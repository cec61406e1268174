package packet

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/util"
)

// UpdateObjectives modes.
const (
	ObjectiveModeCreate int = iota
	ObjectiveModeRemove
	ObjectiveModeUpdate
)

// UpdateObjectives creates, removes or updates a scoreboard objective.
// Only the name and mode are decoded; the rest is kept verbatim so
// re-encoding is byte-identical.
type UpdateObjectives struct {
	Name string
	Mode byte
	Rest []byte
}

var _ proto.Packet = (*UpdateObjectives)(nil)

func (u *UpdateObjectives) Encode(_ *proto.PacketContext, wr io.Writer) error {
	w := util.PanicWriter(wr)
	w.String(u.Name)
	w.Byte(u.Mode)
	return util.WriteRawBytes(wr, u.Rest)
}

func (u *UpdateObjectives) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	defer util.Recover(&err)
	r := util.PanicReader(rd)
	u.Name = r.String()
	u.Mode = r.Byte()
	u.Rest, err = util.ReadRawBytes(rd)
	return err
}

// DisplayObjective assigns an objective to a display position.
type DisplayObjective struct {
	Position int
	Name     string
}

var _ proto.Packet = (*DisplayObjective)(nil)

func (d *DisplayObjective) Encode(_ *proto.PacketContext, wr io.Writer) error {
	w := util.PanicWriter(wr)
	w.VarInt(d.Position)
	w.String(d.Name)
	return nil
}

func (d *DisplayObjective) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	defer util.Recover(&err)
	r := util.PanicReader(rd)
	d.Position = r.VarInt()
	d.Name = r.String()
	return nil
}

// UpdateScore sets a score entry of an objective.
type UpdateScore struct {
	EntityName string
	Rest       []byte
}

var _ proto.Packet = (*UpdateScore)(nil)

func (u *UpdateScore) Encode(_ *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteString(wr, u.EntityName); err != nil {
		return err
	}
	return util.WriteRawBytes(wr, u.Rest)
}

func (u *UpdateScore) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	u.EntityName, err = util.ReadString(rd)
	if err != nil {
		return err
	}
	u.Rest, err = util.ReadRawBytes(rd)
	return err
}

// ResetScore removes a score entry, optionally of a single objective
// (1.20.3+).
type ResetScore struct {
	EntityName   string
	Objective    string // empty when all objectives are reset
	HasObjective bool
}

var _ proto.Packet = (*ResetScore)(nil)

func (r *ResetScore) Encode(_ *proto.PacketContext, wr io.Writer) error {
	w := util.PanicWriter(wr)
	w.String(r.EntityName)
	if w.Bool(r.HasObjective) {
		w.String(r.Objective)
	}
	return nil
}

func (r *ResetScore) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	defer util.Recover(&err)
	pr := util.PanicReader(rd)
	r.EntityName = pr.String()
	r.HasObjective = pr.Bool()
	if r.HasObjective {
		r.Objective = pr.String()
	}
	return nil
}
