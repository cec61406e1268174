// Package config contains the packets of the configuration state (1.20.2+).
package config

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/util"
)

// RegistryData carries registry and dimension codec data the proxy
// forwards verbatim.
type RegistryData struct {
	Data []byte
}

var _ proto.Packet = (*RegistryData)(nil)

func (r *RegistryData) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteRawBytes(wr, r.Data)
}

func (r *RegistryData) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	r.Data, err = util.ReadRawBytes(rd)
	return
}

// FeatureFlags lists enabled feature flags.
type FeatureFlags struct {
	Flags []string
}

var _ proto.Packet = (*FeatureFlags)(nil)

func (f *FeatureFlags) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteStrings(wr, f.Flags)
}

func (f *FeatureFlags) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	f.Flags, err = util.ReadStringArray(rd)
	return
}

// UpdateTags carries tag registries the proxy forwards verbatim.
type UpdateTags struct {
	Data []byte
}

var _ proto.Packet = (*UpdateTags)(nil)

func (u *UpdateTags) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteRawBytes(wr, u.Data)
}

func (u *UpdateTags) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	u.Data, err = util.ReadRawBytes(rd)
	return
}

// ResourcePackRequest asks the client to load a resource pack;
// forwarded verbatim.
type ResourcePackRequest struct {
	Data []byte
}

var _ proto.Packet = (*ResourcePackRequest)(nil)

func (r *ResourcePackRequest) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteRawBytes(wr, r.Data)
}

func (r *ResourcePackRequest) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	r.Data, err = util.ReadRawBytes(rd)
	return
}

// ResourcePackResponse is the client's resource pack status.
type ResourcePackResponse struct {
	Data []byte
}

var _ proto.Packet = (*ResourcePackResponse)(nil)

func (r *ResourcePackResponse) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteRawBytes(wr, r.Data)
}

func (r *ResourcePackResponse) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	r.Data, err = util.ReadRawBytes(rd)
	return
}

// KnownPack identifies a data pack both sides know.
type KnownPack struct {
	Namespace string
	ID        string
	Version   string
}

// KnownPacks negotiates data packs between client and server (1.20.5+).
type KnownPacks struct {
	Packs []KnownPack
}

var _ proto.Packet = (*KnownPacks)(nil)

func (k *KnownPacks) Encode(_ *proto.PacketContext, wr io.Writer) error {
	w := util.PanicWriter(wr)
	w.VarInt(len(k.Packs))
	for _, p := range k.Packs {
		w.String(p.Namespace)
		w.String(p.ID)
		w.String(p.Version)
	}
	return nil
}

func (k *KnownPacks) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	defer util.Recover(&err)
	r := util.PanicReader(rd)
	count := r.VarInt()
	k.Packs = make([]KnownPack, 0, count)
	for i := 0; i < count; i++ {
		k.Packs = append(k.Packs, KnownPack{
			Namespace: r.String(),
			ID:        r.String(),
			Version:   r.String(),
		})
	}
	return nil
}

// RemoveResourcePack removes one or all resource packs (1.20.3+);
// forwarded verbatim.
type RemoveResourcePack struct {
	Data []byte
}

var _ proto.Packet = (*RemoveResourcePack)(nil)

func (r *RemoveResourcePack) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteRawBytes(wr, r.Data)
}

func (r *RemoveResourcePack) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	r.Data, err = util.ReadRawBytes(rd)
	return
}

// ResetChat clears the client's chat (1.20.5+).
type ResetChat struct{}

var _ proto.Packet = (*ResetChat)(nil)

func (r *ResetChat) Encode(_ *proto.PacketContext, _ io.Writer) error { return nil }
func (r *ResetChat) Decode(_ *proto.PacketContext, _ io.Reader) error { return nil }

// Transfer moves the client to another host (1.20.5+); forwarded
// verbatim.
type Transfer struct {
	Data []byte
}

var _ proto.Packet = (*Transfer)(nil)

func (t *Transfer) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteRawBytes(wr, t.Data)
}

func (t *Transfer) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	t.Data, err = util.ReadRawBytes(rd)
	return
}

// CustomReportDetails adds details to client crash reports (1.21+);
// forwarded verbatim.
type CustomReportDetails struct {
	Data []byte
}

var _ proto.Packet = (*CustomReportDetails)(nil)

func (c *CustomReportDetails) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteRawBytes(wr, c.Data)
}

func (c *CustomReportDetails) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	c.Data, err = util.ReadRawBytes(rd)
	return
}

// ServerLinks sends the client a list of server related links (1.21+);
// forwarded verbatim.
type ServerLinks struct {
	Data []byte
}

var _ proto.Packet = (*ServerLinks)(nil)

func (s *ServerLinks) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteRawBytes(wr, s.Data)
}

func (s *ServerLinks) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	s.Data, err = util.ReadRawBytes(rd)
	return
}

// Ping must be answered with a Pong carrying the same id.
type Ping struct {
	ID int32
}

var _ proto.Packet = (*Ping)(nil)

func (p *Ping) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteInt32(wr, p.ID)
}

func (p *Ping) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	p.ID, err = util.ReadInt32(rd)
	return
}

// Pong answers a Ping.
type Pong struct {
	ID int32
}

var _ proto.Packet = (*Pong)(nil)

func (p *Pong) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteInt32(wr, p.ID)
}

func (p *Pong) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	p.ID, err = util.ReadInt32(rd)
	return
}
