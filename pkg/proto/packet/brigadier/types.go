package brigadier

import (
	"go.minekube.com/brigodier"
)

// EntityArgumentType selects entities, optionally restricted to a
// single target or to players.
type EntityArgumentType struct {
	SingleEntity bool
	OnlyPlayers  bool
}

func (t *EntityArgumentType) Parse(rd *brigodier.StringReader) (any, error) {
	return rd.ReadString()
}

func (t *EntityArgumentType) String() string { return "entity" }

// ScoreHolderArgumentType selects scoreboard holders.
type ScoreHolderArgumentType struct {
	AllowMultiple bool
}

func (t *ScoreHolderArgumentType) Parse(rd *brigodier.StringReader) (any, error) {
	return rd.ReadString()
}

func (t *ScoreHolderArgumentType) String() string { return "score_holder" }

// TimeArgumentType is a game time duration with a minimum tick count
// (the minimum exists on the wire since 1.19.4).
type TimeArgumentType struct {
	Min int32
}

func (t *TimeArgumentType) Parse(rd *brigodier.StringReader) (any, error) {
	return rd.ReadString()
}

func (t *TimeArgumentType) String() string { return "time" }

// RegistryKeyArgumentType is a key into a registry, used by the
// resource and resource_or_tag argument families.
type RegistryKeyArgumentType struct {
	Identifier string
}

func (r *RegistryKeyArgumentType) Parse(rd *brigodier.StringReader) (any, error) {
	return rd.ReadString()
}

func (r *RegistryKeyArgumentType) String() string { return "registry_key_argument" }

func (r *RegistryKeyArgumentType) registryIdentifier() string { return r.Identifier }

var RegistryKeyArgument brigodier.ArgumentType = &RegistryKeyArgumentType{}

// PassthroughArgumentType is an argument type the proxy does not
// interpret; it carries no wire properties.
type PassthroughArgumentType struct {
	Name string
}

func (t *PassthroughArgumentType) Parse(rd *brigodier.StringReader) (any, error) {
	return rd.ReadString()
}

func (t *PassthroughArgumentType) String() string { return t.Name }
