package packet

import (
	"io"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet/chat"
	"github.com/portalmc/portal/pkg/proto/util"
	"github.com/portalmc/portal/pkg/util/profile"
	"github.com/portalmc/portal/pkg/util/uuid"
)

// PlayerInfoRemove removes entries from the player list (1.19.3+).
type PlayerInfoRemove struct {
	PlayersToRemove []uuid.UUID
}

var _ proto.Packet = (*PlayerInfoRemove)(nil)

func (p *PlayerInfoRemove) Encode(_ *proto.PacketContext, wr io.Writer) error {
	w := util.PanicWriter(wr)
	w.VarInt(len(p.PlayersToRemove))
	for _, id := range p.PlayersToRemove {
		w.UUID(id)
	}
	return nil
}

func (p *PlayerInfoRemove) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	defer util.Recover(&err)
	r := util.PanicReader(rd)
	count := r.VarInt()
	p.PlayersToRemove = make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		p.PlayersToRemove = append(p.PlayersToRemove, r.UUID())
	}
	return nil
}

// PlayerInfoUpdate action bits (1.19.3+).
const (
	PlayerInfoActionAddPlayer         byte = 0x01
	PlayerInfoActionInitializeChat    byte = 0x02
	PlayerInfoActionUpdateGameMode    byte = 0x04
	PlayerInfoActionUpdateListed      byte = 0x08
	PlayerInfoActionUpdateLatency     byte = 0x10
	PlayerInfoActionUpdateDisplayName byte = 0x20
)

// RemoteChatSession is the optional chat session of a player list entry.
type RemoteChatSession struct {
	SessionID       uuid.UUID
	PublicKeyExpiry int64
	PublicKey       []byte
	KeySignature    []byte
}

// PlayerInfoEntry is one upserted player list entry.
type PlayerInfoEntry struct {
	ProfileID   uuid.UUID
	Profile     *profile.GameProfile  // action add player
	ChatSession *RemoteChatSession    // action initialize chat, nil-able
	GameMode    int                   // action update game mode
	Listed      bool                  // action update listed
	Latency     int                   // action update latency
	DisplayName *chat.ComponentHolder // action update display name, nil-able
}

// PlayerInfoUpdate upserts player list entries (1.19.3+).
type PlayerInfoUpdate struct {
	Actions byte
	Entries []PlayerInfoEntry
}

var _ proto.Packet = (*PlayerInfoUpdate)(nil)

func (p *PlayerInfoUpdate) Encode(c *proto.PacketContext, wr io.Writer) error {
	w := util.PanicWriter(wr)
	w.Byte(p.Actions)
	w.VarInt(len(p.Entries))
	for _, e := range p.Entries {
		w.UUID(e.ProfileID)
		if p.Actions&PlayerInfoActionAddPlayer != 0 {
			w.String(e.Profile.Name)
			if err := util.WriteProperties(wr, e.Profile.Properties); err != nil {
				return err
			}
		}
		if p.Actions&PlayerInfoActionInitializeChat != 0 {
			if w.Bool(e.ChatSession != nil) {
				w.UUID(e.ChatSession.SessionID)
				w.Int64(e.ChatSession.PublicKeyExpiry)
				w.Bytes(e.ChatSession.PublicKey)
				w.Bytes(e.ChatSession.KeySignature)
			}
		}
		if p.Actions&PlayerInfoActionUpdateGameMode != 0 {
			w.VarInt(e.GameMode)
		}
		if p.Actions&PlayerInfoActionUpdateListed != 0 {
			w.Bool(e.Listed)
		}
		if p.Actions&PlayerInfoActionUpdateLatency != 0 {
			w.VarInt(e.Latency)
		}
		if p.Actions&PlayerInfoActionUpdateDisplayName != 0 {
			if w.Bool(e.DisplayName != nil) {
				if err := e.DisplayName.Write(wr, c.Protocol); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (p *PlayerInfoUpdate) Decode(c *proto.PacketContext, rd io.Reader) (err error) {
	defer util.Recover(&err)
	r := util.PanicReader(rd)
	p.Actions = r.Byte()
	count := r.VarInt()
	p.Entries = make([]PlayerInfoEntry, 0, count)
	for i := 0; i < count; i++ {
		e := PlayerInfoEntry{ProfileID: r.UUID()}
		if p.Actions&PlayerInfoActionAddPlayer != 0 {
			e.Profile = &profile.GameProfile{ID: e.ProfileID}
			e.Profile.Name = r.StringMax(maxUsernameLen)
			e.Profile.Properties, err = util.ReadProperties(rd)
			if err != nil {
				return err
			}
		}
		if p.Actions&PlayerInfoActionInitializeChat != 0 {
			if r.Bool() {
				e.ChatSession = &RemoteChatSession{
					SessionID:       r.UUID(),
					PublicKeyExpiry: r.Int64(),
					PublicKey:       r.Bytes(),
					KeySignature:    r.Bytes(),
				}
			}
		}
		if p.Actions&PlayerInfoActionUpdateGameMode != 0 {
			e.GameMode = r.VarInt()
		}
		if p.Actions&PlayerInfoActionUpdateListed != 0 {
			e.Listed = r.Bool()
		}
		if p.Actions&PlayerInfoActionUpdateLatency != 0 {
			e.Latency = r.VarInt()
		}
		if p.Actions&PlayerInfoActionUpdateDisplayName != 0 {
			if r.Bool() {
				e.DisplayName, err = chat.ReadComponentHolder(rd, c.Protocol)
				if err != nil {
					return err
				}
			}
		}
		p.Entries = append(p.Entries, e)
	}
	return nil
}
