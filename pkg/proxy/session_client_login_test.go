package proxy

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.minekube.com/common/minecraft/component"
)

func TestUnverifiedUsernameDisconnectReason(t *testing.T) {
	// A 204 from the session server means the client never completed
	// serverside auth. The disconnect reason must be the vanilla
	// translation key so clients render it in their own language.
	var reason component.Component = unverifiedUsername
	tr, ok := reason.(*component.Translation)
	require.True(t, ok, "reason must be a translation, not literal text")
	require.Equal(t, "multiplayer.disconnect.unverified_username", tr.Key)
}
