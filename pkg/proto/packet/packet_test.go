package packet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"testing"

	"github.com/go-faker/faker/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.minekube.com/brigodier"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/packet/chat"
	"github.com/portalmc/portal/pkg/proto/util"
	"github.com/portalmc/portal/pkg/proto/version"
	"github.com/portalmc/portal/pkg/util/profile"
	"github.com/portalmc/portal/pkg/util/uuid"
)

// Packets tested across every supported protocol version.
// Empty packets are filled with random fake data at runtime.
// Types with length constraints or interface fields must be
// initialized at compile time.
var packets = []proto.Packet{
	&Handshake{
		ProtocolVersion: 767,
		ServerAddress:   "play.example.com",
		Port:            25565,
		NextStatus:      LoginHandshakeIntent,
	},
	&StatusRequest{},
	&StatusResponse{Status: `{"description":{"text":"A Portal Proxy"}}`},
	&StatusPing{},
	&KeepAlive{},
	&SetCompression{},
	&ServerLogin{
		Username: "Tester123",
		HolderID: testUUID,
	},
	&ServerLoginSuccess{
		UUID:     testUUID,
		Username: "Tester123",
		Properties: []profile.Property{
			{Name: "textures", Value: "dGV4dHVyZQ==", Signature: "c2lnbmF0dXJl"},
		},
	},
	&EncryptionRequest{
		ServerID:           "",
		PublicKey:          []byte("9wh90fh23dh203d2b23b3"),
		VerifyToken:        []byte("32f8d89dh3di"),
		ShouldAuthenticate: true,
	},
	&EncryptionResponse{},
	&LoginPluginMessage{},
	&LoginPluginResponse{},
	&PluginMessage{},
	&ClientSettings{
		Locale:         "en_US",
		ViewDistance:   12,
		ChatVisibility: 1,
		ChatColors:     true,
		SkinParts:      0x7f,
		MainHand:       1,
		TextFiltering:  true,
		ClientListing:  true,
	},
	&TabCompleteRequest{},
	&TabCompleteResponse{
		TransactionID: 3,
		Start:         1,
		Length:        7,
		Offers: []TabCompleteOffer{
			{Text: "lobby"},
			{Text: "survival"},
		},
	},
	&chat.ChatCommand{Command: "server lobby"},
	&chat.SignedChatCommand{Command: "server lobby", Rest: []byte{1, 2, 3}},
}

// Packets that only exist since the configuration state was introduced.
var configEraPackets = []proto.Packet{
	&LoginAcknowledged{},
	&StartConfiguration{},
	&AcknowledgeConfiguration{},
	&FinishedUpdate{},
	&AvailableCommands{RootNode: func() *brigodier.RootCommandNode {
		n := &brigodier.RootCommandNode{}
		cmd := brigodier.CommandFunc(func(*brigodier.CommandContext) error { return nil })
		n.AddChild(brigodier.Literal("l1").
			Executes(cmd).
			Then(brigodier.Argument("a1", brigodier.String).Executes(cmd).Then(
				brigodier.Argument("a2", brigodier.Bool).Executes(cmd),
			)).Build())
		l2 := brigodier.Literal("l2").
			Executes(cmd).
			Build()
		n.AddChild(l2)
		n.AddChild(brigodier.Literal("l3").Redirect(l2).Build())
		return n
	}()},
}

// fill packets with fake data
func init() {
	for _, p := range packets {
		// Skip already filled packet
		if !reflect.ValueOf(p).Elem().IsZero() {
			continue
		}
		if err := faker.FakeData(p); err != nil {
			panic(fmt.Sprintf("error fake %T: %v", p, err))
		}
	}
}

func TestPackets(t *testing.T) {
	PacketCodings(t,
		[]proto.Direction{proto.ServerBound, proto.ClientBound},
		vRange(version.MinimumVersion, version.MaximumVersion),
		packets...)
}

func TestConfigEraPackets(t *testing.T) {
	PacketCodings(t,
		[]proto.Direction{proto.ServerBound, proto.ClientBound},
		vRange(version.MinimumJoinVersion, version.MaximumVersion),
		configEraPackets...)
}

// Helper - Compares encoding vs. decoding for various versions and packet types
func PacketCodings(t *testing.T,
	directions []proto.Direction,
	versions []*proto.Version,
	samples ...proto.Packet,
) {
	t.Helper()

	message := func(direction proto.Direction, v *proto.Version, packet reflect.Type) string {
		return fmt.Sprintf("Type: %s, Direction: %s, Version: %s, Note: %s", packet.String(), direction, v, "%s")
	}

	bufA1, bufA2 := new(bytes.Buffer), new(bytes.Buffer)
	bufB1, bufB2 := new(bytes.Buffer), new(bytes.Buffer)
	for _, direction := range directions {
		for _, v := range versions {
			c := &proto.PacketContext{Direction: direction, Protocol: v.Protocol}
			for _, sample := range samples {
				packetType := reflect.TypeOf(sample).Elem()
				msg := message(direction, v, packetType)

				// Encode sample at protocol version to drop unnecessary data for that version
				require.NoError(t, sample.Encode(c, io.MultiWriter(bufA1, bufA2)), msg, "sample encode")
				// Decode bytes to get versioned packet
				a := reflect.New(packetType).Interface().(proto.Packet)
				require.NoError(t, a.Decode(c, bufA1), msg, "a decode from bufA1")

				// Now encode it again
				require.NoError(t, a.Encode(c, io.MultiWriter(bufB1, bufB2)), msg, "a encode")
				b := reflect.New(packetType).Interface().(proto.Packet)
				// And decode it again.
				require.NoError(t, b.Decode(c, bufB1), msg, "b decode from bufB1")

				// Both encode buffs should be equal
				if !bytes.Equal(bufA2.Bytes(), bufB2.Bytes()) {
					// Bytes might be in different order due to unsorted map
					// Fallback to test json difference since std json package sorts maps by key
					jsonA, err := json.MarshalIndent(a, "", "  ")
					require.NoError(t, err)
					jsonB, err := json.MarshalIndent(b, "", "  ")
					require.NoError(t, err)
					assert.Equal(t, string(jsonA), string(jsonB), msg, "jsons not equal")
				}

				// Both decode buffs should be emptied by packets decode method
				assert.Equal(t, 0, bufA1.Len(), msg, "bufA1 not empty")
				assert.Equal(t, 0, bufB1.Len(), msg, "bufB1 not empty")

				bufA1.Reset()
				bufA2.Reset()
				bufB1.Reset()
				bufB2.Reset()
			}
		}
	}
}

func TestRewriteMinecraftBrand(t *testing.T) {
	data := new(bytes.Buffer)
	require.NoError(t, util.WriteString(data, "paper"))

	rewritten := RewriteMinecraftBrand(&PluginMessage{Channel: BrandChannel, Data: data.Bytes()})
	require.Equal(t, "paper (proxy)", rewritten.BrandString())

	// A second rewrite must not append the suffix again.
	again := RewriteMinecraftBrand(rewritten)
	require.Equal(t, "paper (proxy)", again.BrandString())

	// Non-brand messages pass through untouched.
	other := &PluginMessage{Channel: "portal:other", Data: []byte{1, 2}}
	require.Same(t, other, RewriteMinecraftBrand(other))
}

var testUUID, _ = uuid.Parse(`123e4567-e89b-12d3-a456-426614174000`)

func vRange(start, endInclusive *proto.Version) (vers []*proto.Version) {
	for _, v := range version.Versions { // assumes Versions is sorted
		if v.Protocol.GreaterEqual(start) && v.Protocol.LowerEqual(endInclusive) {
			vers = append(vers, v)
		}
	}
	return
}
