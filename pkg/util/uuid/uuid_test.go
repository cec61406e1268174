package uuid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOfflinePlayerUUID(t *testing.T) {
	id := OfflinePlayerUUID("bob")
	id2 := OfflinePlayerUUID("bob")
	require.Equal(t, id, id2)

	id2 = OfflinePlayerUUID("Bob")
	require.NotEqual(t, id, id2)

	// Known derivation used by vanilla servers and BungeeCord.
	steve := OfflinePlayerUUID("Steve")
	require.Equal(t, "8667ba71b85a4004af54457a9734eed7", steve.Undashed())
	require.Equal(t, "8667ba71-b85a-4004-af54-457a9734eed7", steve.String())
}

func TestUUID_JSON(t *testing.T) {
	id := OfflinePlayerUUID("bob")
	b, err := id.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"`+id.String()+`"`, string(b))

	var id2 UUID
	err = id2.UnmarshalJSON(b)
	require.NoError(t, err)
	require.Equal(t, id, id2)
}

func TestUUID_Undashed(t *testing.T) {
	id, err := Parse("8667ba71-b85a-4004-af54-457a9734eed7")
	require.NoError(t, err)
	back, err := Parse(id.Undashed())
	require.NoError(t, err)
	require.Equal(t, id, back)
}
