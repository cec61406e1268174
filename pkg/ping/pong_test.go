package ping

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.minekube.com/common/minecraft/component"

	"github.com/portalmc/portal/pkg/util/uuid"
)

func TestServerPing_JSONRoundTrip(t *testing.T) {
	in := &ServerPing{
		Version: Version{Protocol: 767, Name: "1.21.1"},
		Players: &Players{
			Online: 3,
			Max:    100,
			Sample: []SamplePlayer{
				{Name: "Steve", ID: uuid.New()},
				{Name: "Alex", ID: uuid.New()},
			},
		},
		Description: &component.Text{Content: "A Portal proxy"},
		Favicon:     "data:image/png;base64,AAAA",
	}

	b, err := json.Marshal(in)
	require.NoError(t, err)

	var out ServerPing
	require.NoError(t, json.Unmarshal(b, &out))
	require.Equal(t, in, &out)
}

func TestServerPing_NoPlayers(t *testing.T) {
	// A nil Players field hides the player count from the client.
	b, err := json.Marshal(&ServerPing{
		Version:     Version{Protocol: 764, Name: "1.20.2"},
		Description: &component.Text{Content: "hidden"},
	})
	require.NoError(t, err)
	require.NotContains(t, string(b), `"players"`)
}
