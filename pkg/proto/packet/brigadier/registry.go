// Package brigadier (de)serializes brigodier argument types of the
// command tree packet.
package brigadier

import (
	"fmt"
	"io"

	"go.minekube.com/brigodier"

	"github.com/portalmc/portal/pkg/proto"
	"github.com/portalmc/portal/pkg/proto/util"
	"github.com/portalmc/portal/pkg/proto/version"
)

// ArgumentIdentifier is an argument type identifier with its numeric
// wire id per protocol version (1.19+ sends ids instead of names).
type ArgumentIdentifier struct {
	name        string
	versionByID map[proto.Protocol]int
}

func (i *ArgumentIdentifier) String() string { return i.name }

type versionSet struct {
	version *proto.Version
	id      int
}

// newArgIdentifier builds an identifier; sets must be ordered from
// oldest to newest version and each applies from its version onward.
func newArgIdentifier(name string, sets ...versionSet) *ArgumentIdentifier {
	identifier := &ArgumentIdentifier{
		name:        name,
		versionByID: map[proto.Protocol]int{},
	}
	for _, set := range sets {
		for _, v := range version.Versions {
			if v.Protocol.GreaterEqual(set.version) {
				identifier.versionByID[v.Protocol] = set.id
			}
		}
	}
	return identifier
}

type argPropReg struct {
	byName   map[string]ArgumentPropertyCodec
	byType   map[string]ArgumentPropertyCodec
	typeToID map[string]*ArgumentIdentifier
	ids      []*ArgumentIdentifier
}

var registry = &argPropReg{
	byName:   map[string]ArgumentPropertyCodec{},
	byType:   map[string]ArgumentPropertyCodec{},
	typeToID: map[string]*ArgumentIdentifier{},
}

func (r *argPropReg) register(id *ArgumentIdentifier, argType brigodier.ArgumentType, codec ArgumentPropertyCodec) {
	r.ids = append(r.ids, id)
	r.byName[id.name] = codec
	r.byType[argType.String()] = codec
	r.typeToID[argType.String()] = id
}

// empty registers an identifier whose argument type carries no properties.
func (r *argPropReg) empty(id *ArgumentIdentifier) {
	r.register(id, &PassthroughArgumentType{Name: id.name}, EmptyArgumentPropertyCodec)
}

// Encode writes the argument type id and its properties.
func Encode(wr io.Writer, argType brigodier.ArgumentType, protocol proto.Protocol) error {
	codec, ok := registry.byType[argType.String()]
	id, ok2 := registry.typeToID[argType.String()]
	if !ok || !ok2 {
		return fmt.Errorf("don't know how to encode argument type %T (%s)", argType, argType)
	}
	if err := writeIdentifier(wr, id, protocol); err != nil {
		return err
	}
	return codec.Encode(wr, argType)
}

// Decode reads an argument type id and its properties.
func Decode(rd io.Reader, protocol proto.Protocol) (brigodier.ArgumentType, error) {
	id, err := readIdentifier(rd, protocol)
	if err != nil {
		return nil, err
	}
	codec := registry.byName[id.name]
	if codec == nil {
		return nil, fmt.Errorf("unknown argument type identifier %q", id)
	}
	v, err := codec.Decode(rd)
	if err != nil {
		return nil, err
	}
	if argType, ok := v.(brigodier.ArgumentType); ok {
		return argType, nil
	}
	// Codecs for property-less types return nil.
	return &PassthroughArgumentType{Name: id.name}, nil
}

func writeIdentifier(wr io.Writer, id *ArgumentIdentifier, protocol proto.Protocol) error {
	if protocol.GreaterEqual(version.Minecraft_1_19) {
		wireID, ok := id.versionByID[protocol]
		if !ok {
			return fmt.Errorf("don't know the id of argument type %q for protocol %s", id, protocol)
		}
		return util.WriteVarInt(wr, wireID)
	}
	return util.WriteString(wr, id.name)
}

func readIdentifier(rd io.Reader, protocol proto.Protocol) (*ArgumentIdentifier, error) {
	if protocol.GreaterEqual(version.Minecraft_1_19) {
		wireID, err := util.ReadVarInt(rd)
		if err != nil {
			return nil, err
		}
		for _, candidate := range registry.ids {
			if id, ok := candidate.versionByID[protocol]; ok && id == wireID {
				return candidate, nil
			}
		}
		return nil, fmt.Errorf("unknown argument type id %d for protocol %s", wireID, protocol)
	}
	name, err := util.ReadString(rd)
	if err != nil {
		return nil, err
	}
	for _, candidate := range registry.ids {
		if candidate.name == name {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("unknown argument type %q", name)
}

func init() {
	register := registry.register
	empty := registry.empty
	id := newArgIdentifier
	from := func(v *proto.Version, id int) versionSet { return versionSet{version: v, id: id} }

	v1_19 := version.Minecraft_1_19
	v1_20_5 := version.Minecraft_1_20_5

	// Base brigadier argument types.
	register(id("brigadier:bool", from(v1_19, 0)), brigodier.Bool, BoolArgumentPropertyCodec)
	register(id("brigadier:float", from(v1_19, 1)), brigodier.Float32, Float32ArgumentPropertyCodec)
	register(id("brigadier:double", from(v1_19, 2)), brigodier.Float64, Float64ArgumentPropertyCodec)
	register(id("brigadier:integer", from(v1_19, 3)), brigodier.Int, Int32ArgumentPropertyCodec)
	register(id("brigadier:long", from(v1_19, 4)), brigodier.Int64, Int64ArgumentPropertyCodec)
	register(id("brigadier:string", from(v1_19, 5)), brigodier.String, StringArgumentPropertyCodec)

	// Minecraft argument types with properties.
	register(id("minecraft:entity", from(v1_19, 6)), &EntityArgumentType{}, EntityArgumentPropertyCodec)
	register(id("minecraft:score_holder", from(v1_19, 29), from(v1_20_5, 30)), &ScoreHolderArgumentType{}, ScoreHolderArgumentPropertyCodec)
	register(id("minecraft:time", from(v1_19, 40), from(v1_20_5, 42)), &TimeArgumentType{}, TimeArgumentPropertyCodec)
	register(id("minecraft:resource_or_tag", from(v1_19, 41), from(v1_20_5, 43)), RegistryKeyArgument, registryKeyCodec(func(s string) brigodier.ArgumentType {
		return &RegistryKeyArgumentType{Identifier: s}
	}))
	register(id("minecraft:resource_or_tag_key", from(v1_19, 42), from(v1_20_5, 44)), &resourceOrTagKey{}, registryKeyCodec(func(s string) brigodier.ArgumentType {
		return &resourceOrTagKey{RegistryKeyArgumentType{Identifier: s}}
	}))
	register(id("minecraft:resource", from(v1_19, 43), from(v1_20_5, 45)), &resource{}, registryKeyCodec(func(s string) brigodier.ArgumentType {
		return &resource{RegistryKeyArgumentType{Identifier: s}}
	}))
	register(id("minecraft:resource_key", from(v1_19, 44), from(v1_20_5, 46)), &resourceKey{}, registryKeyCodec(func(s string) brigodier.ArgumentType {
		return &resourceKey{RegistryKeyArgumentType{Identifier: s}}
	}))

	// Property-less Minecraft argument types.
	empty(id("minecraft:game_profile", from(v1_19, 7)))
	empty(id("minecraft:block_pos", from(v1_19, 8)))
	empty(id("minecraft:column_pos", from(v1_19, 9)))
	empty(id("minecraft:vec3", from(v1_19, 10)))
	empty(id("minecraft:vec2", from(v1_19, 11)))
	empty(id("minecraft:block_state", from(v1_19, 12)))
	empty(id("minecraft:block_predicate", from(v1_19, 13)))
	empty(id("minecraft:item_stack", from(v1_19, 14)))
	empty(id("minecraft:item_predicate", from(v1_19, 15)))
	empty(id("minecraft:color", from(v1_19, 16)))
	empty(id("minecraft:component", from(v1_19, 17)))
	empty(id("minecraft:style", from(v1_20_5, 18)))
	empty(id("minecraft:message", from(v1_19, 18), from(v1_20_5, 19)))
	empty(id("minecraft:nbt_compound_tag", from(v1_19, 19), from(v1_20_5, 20)))
	empty(id("minecraft:nbt_tag", from(v1_19, 20), from(v1_20_5, 21)))
	empty(id("minecraft:nbt_path", from(v1_19, 21), from(v1_20_5, 22)))
	empty(id("minecraft:objective", from(v1_19, 22), from(v1_20_5, 23)))
	empty(id("minecraft:objective_criteria", from(v1_19, 23), from(v1_20_5, 24)))
	empty(id("minecraft:operation", from(v1_19, 24), from(v1_20_5, 25)))
	empty(id("minecraft:particle", from(v1_19, 25), from(v1_20_5, 26)))
	empty(id("minecraft:angle", from(v1_19, 26), from(v1_20_5, 27)))
	empty(id("minecraft:rotation", from(v1_19, 27), from(v1_20_5, 28)))
	empty(id("minecraft:scoreboard_slot", from(v1_19, 28), from(v1_20_5, 29)))
	empty(id("minecraft:swizzle", from(v1_19, 30), from(v1_20_5, 31)))
	empty(id("minecraft:team", from(v1_19, 31), from(v1_20_5, 32)))
	empty(id("minecraft:item_slot", from(v1_19, 32), from(v1_20_5, 33)))
	empty(id("minecraft:item_slots", from(v1_20_5, 34)))
	empty(id("minecraft:resource_location", from(v1_19, 33), from(v1_20_5, 35)))
	empty(id("minecraft:function", from(v1_19, 34), from(v1_20_5, 36)))
	empty(id("minecraft:entity_anchor", from(v1_19, 35), from(v1_20_5, 37)))
	empty(id("minecraft:int_range", from(v1_19, 36), from(v1_20_5, 38)))
	empty(id("minecraft:float_range", from(v1_19, 37), from(v1_20_5, 39)))
	empty(id("minecraft:dimension", from(v1_19, 38), from(v1_20_5, 40)))
	empty(id("minecraft:gamemode", from(v1_19, 39), from(v1_20_5, 41)))
	empty(id("minecraft:template_mirror", from(v1_19, 45), from(v1_20_5, 47)))
	empty(id("minecraft:template_rotation", from(v1_19, 46), from(v1_20_5, 48)))
	empty(id("minecraft:heightmap", from(v1_19, 47), from(v1_20_5, 49)))
	empty(id("minecraft:loot_table", from(v1_20_5, 50)))
	empty(id("minecraft:loot_predicate", from(v1_20_5, 51)))
	empty(id("minecraft:loot_modifier", from(v1_20_5, 52)))
	empty(id("minecraft:uuid", from(v1_19, 48), from(v1_20_5, 53)))
}

type registryKeyed interface{ registryIdentifier() string }

// registryKeyCodec reads and writes the registry identifier string of
// the resource argument family, producing the exact wrapper type so a
// decoded tree re-encodes with the same wire id.
func registryKeyCodec(factory func(string) brigodier.ArgumentType) ArgumentPropertyCodec {
	return &ArgumentPropertyCodecFuncs{
		EncodeFn: func(wr io.Writer, v any) error {
			k, ok := v.(registryKeyed)
			if !ok {
				return fmt.Errorf("expected registry keyed argument type but got %T", v)
			}
			return util.WriteString(wr, k.registryIdentifier())
		},
		DecodeFn: func(rd io.Reader) (any, error) {
			s, err := util.ReadString(rd)
			if err != nil {
				return nil, err
			}
			return factory(s), nil
		},
	}
}

// Distinct types so each registry key maps to its own codec entry.
type resourceOrTagKey struct{ RegistryKeyArgumentType }

func (r *resourceOrTagKey) String() string { return "resource_or_tag_key" }

type resource struct{ RegistryKeyArgumentType }

func (r *resource) String() string { return "resource" }

type resourceKey struct{ RegistryKeyArgumentType }

func (r *resourceKey) String() string { return "resource_key" }
